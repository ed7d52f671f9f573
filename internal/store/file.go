// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/webgenhq/webgen/internal/model"
)

// document is the on-disk shape of the file backend: one JSON object with
// four top-level collections.
type document struct {
	Users       []model.User       `json:"users"`
	Pages       []model.Page       `json:"pages"`
	Settings    map[string]string  `json:"settings"`
	FooterLinks []model.FooterLink `json:"footer_links"`
}

func newDocument() *document {
	return &document{Settings: make(map[string]string)}
}

// FileStore persists the whole data set as a single JSON file. A mutex
// serializes the read-modify-write cycle of every mutation; the file is
// replaced atomically via rename, so unlocked readers always observe a
// complete (possibly stale) snapshot.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a FileStore for the given path. The file is created
// on first write; its directory must be creatable.
func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return &FileStore{path: path}, nil
}

// Close implements Store. The file store holds no open resources.
func (s *FileStore) Close() error { return nil }

// load reads and decodes the document. A missing file yields an empty
// document.
func (s *FileStore) load() (*document, error) {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return newDocument(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading data file: %w", err)
	}

	doc := newDocument()
	if err := json.Unmarshal(raw, doc); err != nil {
		return nil, fmt.Errorf("decoding data file: %w", err)
	}
	if doc.Settings == nil {
		doc.Settings = make(map[string]string)
	}
	return doc, nil
}

// flush writes the document to a temporary file and renames it into place.
func (s *FileStore) flush(doc *document) error {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding data file: %w", err)
	}

	tmp := fmt.Sprintf("%s.%s.tmp", s.path, uuid.NewString())
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("writing data file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replacing data file: %w", err)
	}
	return nil
}

// mutate runs fn against the current document under the write lock and
// flushes the result when fn succeeds.
func (s *FileStore) mutate(fn func(doc *document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	if err := fn(doc); err != nil {
		return err
	}
	return s.flush(doc)
}

// nextUserID returns max+1 over existing IDs, per collection.
func nextUserID(users []model.User) int64 {
	var max int64
	for _, u := range users {
		if u.ID > max {
			max = u.ID
		}
	}
	return max + 1
}

func nextPageID(pages []model.Page) int64 {
	var max int64
	for _, p := range pages {
		if p.ID > max {
			max = p.ID
		}
	}
	return max + 1
}

func nextLinkID(links []model.FooterLink) int64 {
	var max int64
	for _, l := range links {
		if l.ID > max {
			max = l.ID
		}
	}
	return max + 1
}

// CreateUser implements Store.
func (s *FileStore) CreateUser(_ context.Context, arg CreateUserParams) (model.User, error) {
	email, name, role, err := validateUserInput(arg.Email, arg.Name, arg.Role)
	if err != nil {
		return model.User{}, err
	}

	var created model.User
	err = s.mutate(func(doc *document) error {
		for _, u := range doc.Users {
			if u.Email == email {
				return ErrDuplicateEmail
			}
		}
		now := time.Now().UTC()
		created = model.User{
			ID:           nextUserID(doc.Users),
			Email:        email,
			Name:         name,
			PasswordHash: arg.PasswordHash,
			Role:         role,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		doc.Users = append(doc.Users, created)
		return nil
	})
	return created, err
}

// GetUserByID implements Store.
func (s *FileStore) GetUserByID(_ context.Context, id int64) (model.User, error) {
	doc, err := s.load()
	if err != nil {
		return model.User{}, err
	}
	for _, u := range doc.Users {
		if u.ID == id {
			return u, nil
		}
	}
	return model.User{}, ErrNotFound
}

// GetUserByEmail implements Store. Lookup is case-insensitive.
func (s *FileStore) GetUserByEmail(_ context.Context, email string) (model.User, error) {
	email = NormalizeEmail(email)
	doc, err := s.load()
	if err != nil {
		return model.User{}, err
	}
	for _, u := range doc.Users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, ErrNotFound
}

// UpdateUser implements Store.
func (s *FileStore) UpdateUser(_ context.Context, arg UpdateUserParams) (model.User, error) {
	email, name, role, err := validateUserInput(arg.Email, arg.Name, arg.Role)
	if err != nil {
		return model.User{}, err
	}

	var updated model.User
	err = s.mutate(func(doc *document) error {
		idx := -1
		for i, u := range doc.Users {
			if u.ID == arg.ID {
				idx = i
			} else if u.Email == email {
				return ErrDuplicateEmail
			}
		}
		if idx < 0 {
			return ErrNotFound
		}
		doc.Users[idx].Email = email
		doc.Users[idx].Name = name
		doc.Users[idx].Role = role
		doc.Users[idx].UpdatedAt = time.Now().UTC()
		updated = doc.Users[idx]
		return nil
	})
	return updated, err
}

// UpdateUserPassword implements Store.
func (s *FileStore) UpdateUserPassword(_ context.Context, id int64, passwordHash string) error {
	return s.mutate(func(doc *document) error {
		for i := range doc.Users {
			if doc.Users[i].ID == id {
				doc.Users[i].PasswordHash = passwordHash
				doc.Users[i].UpdatedAt = time.Now().UTC()
				return nil
			}
		}
		return ErrNotFound
	})
}

// DeleteUser implements Store. The user's pages are deleted in the same
// write (cascade).
func (s *FileStore) DeleteUser(_ context.Context, id int64) error {
	return s.mutate(func(doc *document) error {
		users := doc.Users[:0]
		for _, u := range doc.Users {
			if u.ID != id {
				users = append(users, u)
			}
		}
		doc.Users = users

		pages := doc.Pages[:0]
		for _, p := range doc.Pages {
			if p.OwnerID != id {
				pages = append(pages, p)
			}
		}
		doc.Pages = pages
		return nil
	})
}

// ListUsers implements Store, newest first.
func (s *FileStore) ListUsers(_ context.Context) ([]model.User, error) {
	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	users := make([]model.User, len(doc.Users))
	copy(users, doc.Users)
	sort.Slice(users, func(i, j int) bool {
		if !users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].CreatedAt.After(users[j].CreatedAt)
		}
		return users[i].ID > users[j].ID
	})
	return users, nil
}

// CountAdmins implements Store.
func (s *FileStore) CountAdmins(_ context.Context) (int64, error) {
	doc, err := s.load()
	if err != nil {
		return 0, err
	}
	var n int64
	for _, u := range doc.Users {
		if u.Role == model.RoleAdmin {
			n++
		}
	}
	return n, nil
}

// CreatePage implements Store. The owner must exist.
func (s *FileStore) CreatePage(_ context.Context, arg CreatePageParams) (model.Page, error) {
	title, content, err := validatePageInput(arg.Title, arg.Content)
	if err != nil {
		return model.Page{}, err
	}

	var created model.Page
	err = s.mutate(func(doc *document) error {
		ownerExists := false
		for _, u := range doc.Users {
			if u.ID == arg.OwnerID {
				ownerExists = true
				break
			}
		}
		if !ownerExists {
			return fmt.Errorf("page owner %d: %w", arg.OwnerID, ErrNotFound)
		}
		now := time.Now().UTC()
		created = model.Page{
			ID:        nextPageID(doc.Pages),
			Title:     title,
			Content:   content,
			OwnerID:   arg.OwnerID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		doc.Pages = append(doc.Pages, created)
		return nil
	})
	return created, err
}

// GetPageByID implements Store.
func (s *FileStore) GetPageByID(_ context.Context, id int64) (model.Page, error) {
	doc, err := s.load()
	if err != nil {
		return model.Page{}, err
	}
	for _, p := range doc.Pages {
		if p.ID == id {
			return p, nil
		}
	}
	return model.Page{}, ErrNotFound
}

// GetPageWithOwner implements Store.
func (s *FileStore) GetPageWithOwner(_ context.Context, id int64) (model.PageWithOwner, error) {
	doc, err := s.load()
	if err != nil {
		return model.PageWithOwner{}, err
	}
	for _, p := range doc.Pages {
		if p.ID == id {
			return joinOwner(doc, p), nil
		}
	}
	return model.PageWithOwner{}, ErrNotFound
}

// UpdatePage implements Store.
func (s *FileStore) UpdatePage(_ context.Context, arg UpdatePageParams) (model.Page, error) {
	title, content, err := validatePageInput(arg.Title, arg.Content)
	if err != nil {
		return model.Page{}, err
	}

	var updated model.Page
	err = s.mutate(func(doc *document) error {
		for i := range doc.Pages {
			if doc.Pages[i].ID == arg.ID {
				doc.Pages[i].Title = title
				doc.Pages[i].Content = content
				doc.Pages[i].UpdatedAt = time.Now().UTC()
				updated = doc.Pages[i]
				return nil
			}
		}
		return ErrNotFound
	})
	return updated, err
}

// DeletePage implements Store. Deleting an absent page is a no-op.
func (s *FileStore) DeletePage(_ context.Context, id int64) error {
	return s.mutate(func(doc *document) error {
		pages := doc.Pages[:0]
		for _, p := range doc.Pages {
			if p.ID != id {
				pages = append(pages, p)
			}
		}
		doc.Pages = pages
		return nil
	})
}

// ListPagesByOwner implements Store, newest first.
func (s *FileStore) ListPagesByOwner(_ context.Context, ownerID int64) ([]model.Page, error) {
	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	var pages []model.Page
	for _, p := range doc.Pages {
		if p.OwnerID == ownerID {
			pages = append(pages, p)
		}
	}
	sortPagesNewestFirst(pages)
	return pages, nil
}

// ListPagesWithOwners implements Store, newest first.
func (s *FileStore) ListPagesWithOwners(_ context.Context) ([]model.PageWithOwner, error) {
	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	pages := make([]model.Page, len(doc.Pages))
	copy(pages, doc.Pages)
	sortPagesNewestFirst(pages)

	joined := make([]model.PageWithOwner, 0, len(pages))
	for _, p := range pages {
		joined = append(joined, joinOwner(doc, p))
	}
	return joined, nil
}

func sortPagesNewestFirst(pages []model.Page) {
	sort.Slice(pages, func(i, j int) bool {
		if !pages[i].CreatedAt.Equal(pages[j].CreatedAt) {
			return pages[i].CreatedAt.After(pages[j].CreatedAt)
		}
		return pages[i].ID > pages[j].ID
	})
}

func joinOwner(doc *document, p model.Page) model.PageWithOwner {
	joined := model.PageWithOwner{Page: p, OwnerName: unknownOwner, OwnerEmail: unknownOwner}
	for _, u := range doc.Users {
		if u.ID == p.OwnerID {
			joined.OwnerName = u.Name
			joined.OwnerEmail = u.Email
			break
		}
	}
	return joined
}

// GetSetting implements Store.
func (s *FileStore) GetSetting(_ context.Context, key string) (string, error) {
	doc, err := s.load()
	if err != nil {
		return "", err
	}
	value, ok := doc.Settings[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

// SetSetting implements Store.
func (s *FileStore) SetSetting(_ context.Context, key, value string) error {
	return s.mutate(func(doc *document) error {
		doc.Settings[key] = value
		return nil
	})
}

// CreateFooterLink implements Store.
func (s *FileStore) CreateFooterLink(_ context.Context, arg CreateFooterLinkParams) (model.FooterLink, error) {
	label, url, err := validateFooterLinkInput(arg.Label, arg.URL)
	if err != nil {
		return model.FooterLink{}, err
	}

	var created model.FooterLink
	err = s.mutate(func(doc *document) error {
		created = model.FooterLink{
			ID:        nextLinkID(doc.FooterLinks),
			Label:     label,
			URL:       url,
			Position:  arg.Position,
			CreatedAt: time.Now().UTC(),
		}
		doc.FooterLinks = append(doc.FooterLinks, created)
		return nil
	})
	return created, err
}

// GetFooterLink implements Store.
func (s *FileStore) GetFooterLink(_ context.Context, id int64) (model.FooterLink, error) {
	doc, err := s.load()
	if err != nil {
		return model.FooterLink{}, err
	}
	for _, l := range doc.FooterLinks {
		if l.ID == id {
			return l, nil
		}
	}
	return model.FooterLink{}, ErrNotFound
}

// UpdateFooterLink implements Store.
func (s *FileStore) UpdateFooterLink(_ context.Context, arg UpdateFooterLinkParams) (model.FooterLink, error) {
	label, url, err := validateFooterLinkInput(arg.Label, arg.URL)
	if err != nil {
		return model.FooterLink{}, err
	}

	var updated model.FooterLink
	err = s.mutate(func(doc *document) error {
		for i := range doc.FooterLinks {
			if doc.FooterLinks[i].ID == arg.ID {
				doc.FooterLinks[i].Label = label
				doc.FooterLinks[i].URL = url
				doc.FooterLinks[i].Position = arg.Position
				updated = doc.FooterLinks[i]
				return nil
			}
		}
		return ErrNotFound
	})
	return updated, err
}

// DeleteFooterLink implements Store. Deleting an absent link is a no-op.
func (s *FileStore) DeleteFooterLink(_ context.Context, id int64) error {
	return s.mutate(func(doc *document) error {
		links := doc.FooterLinks[:0]
		for _, l := range doc.FooterLinks {
			if l.ID != id {
				links = append(links, l)
			}
		}
		doc.FooterLinks = links
		return nil
	})
}

// ListFooterLinks implements Store, ordered by (position, created_at).
func (s *FileStore) ListFooterLinks(_ context.Context) ([]model.FooterLink, error) {
	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	links := make([]model.FooterLink, len(doc.FooterLinks))
	copy(links, doc.FooterLinks)
	sort.Slice(links, func(i, j int) bool {
		if links[i].Position != links[j].Position {
			return links[i].Position < links[j].Position
		}
		if !links[i].CreatedAt.Equal(links[j].CreatedAt) {
			return links[i].CreatedAt.Before(links[j].CreatedAt)
		}
		return links[i].ID < links[j].ID
	})
	return links, nil
}
