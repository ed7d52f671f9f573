// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/webgenhq/webgen/internal/model"
)

// SQLStore implements Store on top of a SQLite database. Write
// serialization and the page cascade are delegated to the database
// (busy_timeout + ON DELETE CASCADE).
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore creates a SQLStore over an open database connection. The
// schema must already be migrated.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// DB exposes the underlying connection for the session store.
func (s *SQLStore) DB() *sql.DB {
	return s.db
}

// Close implements Store.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

const userColumns = "id, email, name, password_hash, role, created_at, updated_at"

func scanUser(row interface{ Scan(...any) error }) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("scanning user: %w", err)
	}
	return u, nil
}

// emailTaken reports whether another user (excluding excludeID) already has
// the email. Pass excludeID 0 for create.
func (s *SQLStore) emailTaken(ctx context.Context, email string, excludeID int64) (bool, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE email = ? AND id != ?", email, excludeID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking email: %w", err)
	}
	return n > 0, nil
}

// CreateUser implements Store.
func (s *SQLStore) CreateUser(ctx context.Context, arg CreateUserParams) (model.User, error) {
	email, name, role, err := validateUserInput(arg.Email, arg.Name, arg.Role)
	if err != nil {
		return model.User{}, err
	}

	taken, err := s.emailTaken(ctx, email, 0)
	if err != nil {
		return model.User{}, err
	}
	if taken {
		return model.User{}, ErrDuplicateEmail
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO users (email, name, password_hash, role, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		email, name, arg.PasswordHash, role, now, now)
	if err != nil {
		return model.User{}, fmt.Errorf("inserting user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.User{}, fmt.Errorf("reading user id: %w", err)
	}

	return model.User{
		ID:           id,
		Email:        email,
		Name:         name,
		PasswordHash: arg.PasswordHash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// GetUserByID implements Store.
func (s *SQLStore) GetUserByID(ctx context.Context, id int64) (model.User, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = ?", id)
	return scanUser(row)
}

// GetUserByEmail implements Store. Lookup is case-insensitive.
func (s *SQLStore) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email = ?", NormalizeEmail(email))
	return scanUser(row)
}

// UpdateUser implements Store.
func (s *SQLStore) UpdateUser(ctx context.Context, arg UpdateUserParams) (model.User, error) {
	email, name, role, err := validateUserInput(arg.Email, arg.Name, arg.Role)
	if err != nil {
		return model.User{}, err
	}

	taken, err := s.emailTaken(ctx, email, arg.ID)
	if err != nil {
		return model.User{}, err
	}
	if taken {
		return model.User{}, ErrDuplicateEmail
	}

	res, err := s.db.ExecContext(ctx,
		"UPDATE users SET email = ?, name = ?, role = ?, updated_at = ? WHERE id = ?",
		email, name, role, time.Now().UTC(), arg.ID)
	if err != nil {
		return model.User{}, fmt.Errorf("updating user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.User{}, ErrNotFound
	}

	return s.GetUserByID(ctx, arg.ID)
}

// UpdateUserPassword implements Store.
func (s *SQLStore) UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?",
		passwordHash, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("updating password: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteUser implements Store. Pages cascade via the foreign key.
func (s *SQLStore) DeleteUser(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	return nil
}

// ListUsers implements Store, newest first.
func (s *SQLStore) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// CountAdmins implements Store.
func (s *SQLStore) CountAdmins(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE role = ?", model.RoleAdmin).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting admins: %w", err)
	}
	return n, nil
}

const pageColumns = "id, title, content, owner_id, created_at, updated_at"

func scanPage(row interface{ Scan(...any) error }) (model.Page, error) {
	var p model.Page
	err := row.Scan(&p.ID, &p.Title, &p.Content, &p.OwnerID, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Page{}, ErrNotFound
	}
	if err != nil {
		return model.Page{}, fmt.Errorf("scanning page: %w", err)
	}
	return p, nil
}

// CreatePage implements Store. The owner must exist.
func (s *SQLStore) CreatePage(ctx context.Context, arg CreatePageParams) (model.Page, error) {
	title, content, err := validatePageInput(arg.Title, arg.Content)
	if err != nil {
		return model.Page{}, err
	}

	if _, err := s.GetUserByID(ctx, arg.OwnerID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return model.Page{}, fmt.Errorf("page owner %d: %w", arg.OwnerID, ErrNotFound)
		}
		return model.Page{}, err
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO pages (title, content, owner_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		title, content, arg.OwnerID, now, now)
	if err != nil {
		return model.Page{}, fmt.Errorf("inserting page: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Page{}, fmt.Errorf("reading page id: %w", err)
	}

	return model.Page{
		ID:        id,
		Title:     title,
		Content:   content,
		OwnerID:   arg.OwnerID,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// GetPageByID implements Store.
func (s *SQLStore) GetPageByID(ctx context.Context, id int64) (model.Page, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+pageColumns+" FROM pages WHERE id = ?", id)
	return scanPage(row)
}

const pageWithOwnerQuery = `SELECT p.id, p.title, p.content, p.owner_id, p.created_at, p.updated_at,
	COALESCE(u.name, 'Unknown'), COALESCE(u.email, 'Unknown')
FROM pages p LEFT JOIN users u ON u.id = p.owner_id`

func scanPageWithOwner(row interface{ Scan(...any) error }) (model.PageWithOwner, error) {
	var p model.PageWithOwner
	err := row.Scan(&p.ID, &p.Title, &p.Content, &p.OwnerID, &p.CreatedAt, &p.UpdatedAt,
		&p.OwnerName, &p.OwnerEmail)
	if errors.Is(err, sql.ErrNoRows) {
		return model.PageWithOwner{}, ErrNotFound
	}
	if err != nil {
		return model.PageWithOwner{}, fmt.Errorf("scanning page: %w", err)
	}
	return p, nil
}

// GetPageWithOwner implements Store.
func (s *SQLStore) GetPageWithOwner(ctx context.Context, id int64) (model.PageWithOwner, error) {
	row := s.db.QueryRowContext(ctx, pageWithOwnerQuery+" WHERE p.id = ?", id)
	return scanPageWithOwner(row)
}

// UpdatePage implements Store.
func (s *SQLStore) UpdatePage(ctx context.Context, arg UpdatePageParams) (model.Page, error) {
	title, content, err := validatePageInput(arg.Title, arg.Content)
	if err != nil {
		return model.Page{}, err
	}

	res, err := s.db.ExecContext(ctx,
		"UPDATE pages SET title = ?, content = ?, updated_at = ? WHERE id = ?",
		title, content, time.Now().UTC(), arg.ID)
	if err != nil {
		return model.Page{}, fmt.Errorf("updating page: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.Page{}, ErrNotFound
	}

	return s.GetPageByID(ctx, arg.ID)
}

// DeletePage implements Store. Deleting an absent page is a no-op.
func (s *SQLStore) DeletePage(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM pages WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting page: %w", err)
	}
	return nil
}

// ListPagesByOwner implements Store, newest first.
func (s *SQLStore) ListPagesByOwner(ctx context.Context, ownerID int64) ([]model.Page, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+pageColumns+" FROM pages WHERE owner_id = ? ORDER BY created_at DESC, id DESC", ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing pages: %w", err)
	}
	defer rows.Close()

	var pages []model.Page
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// ListPagesWithOwners implements Store, newest first.
func (s *SQLStore) ListPagesWithOwners(ctx context.Context) ([]model.PageWithOwner, error) {
	rows, err := s.db.QueryContext(ctx,
		pageWithOwnerQuery+" ORDER BY p.created_at DESC, p.id DESC")
	if err != nil {
		return nil, fmt.Errorf("listing pages: %w", err)
	}
	defer rows.Close()

	var pages []model.PageWithOwner
	for rows.Next() {
		p, err := scanPageWithOwner(rows)
		if err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// GetSetting implements Store.
func (s *SQLStore) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("reading setting: %w", err)
	}
	return value, nil
}

// SetSetting implements Store.
func (s *SQLStore) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value)
	if err != nil {
		return fmt.Errorf("writing setting: %w", err)
	}
	return nil
}

const linkColumns = "id, label, url, position, created_at"

func scanFooterLink(row interface{ Scan(...any) error }) (model.FooterLink, error) {
	var l model.FooterLink
	err := row.Scan(&l.ID, &l.Label, &l.URL, &l.Position, &l.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.FooterLink{}, ErrNotFound
	}
	if err != nil {
		return model.FooterLink{}, fmt.Errorf("scanning footer link: %w", err)
	}
	return l, nil
}

// CreateFooterLink implements Store.
func (s *SQLStore) CreateFooterLink(ctx context.Context, arg CreateFooterLinkParams) (model.FooterLink, error) {
	label, url, err := validateFooterLinkInput(arg.Label, arg.URL)
	if err != nil {
		return model.FooterLink{}, err
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO footer_links (label, url, position, created_at) VALUES (?, ?, ?, ?)",
		label, url, arg.Position, now)
	if err != nil {
		return model.FooterLink{}, fmt.Errorf("inserting footer link: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.FooterLink{}, fmt.Errorf("reading footer link id: %w", err)
	}

	return model.FooterLink{ID: id, Label: label, URL: url, Position: arg.Position, CreatedAt: now}, nil
}

// GetFooterLink implements Store.
func (s *SQLStore) GetFooterLink(ctx context.Context, id int64) (model.FooterLink, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+linkColumns+" FROM footer_links WHERE id = ?", id)
	return scanFooterLink(row)
}

// UpdateFooterLink implements Store.
func (s *SQLStore) UpdateFooterLink(ctx context.Context, arg UpdateFooterLinkParams) (model.FooterLink, error) {
	label, url, err := validateFooterLinkInput(arg.Label, arg.URL)
	if err != nil {
		return model.FooterLink{}, err
	}

	res, err := s.db.ExecContext(ctx,
		"UPDATE footer_links SET label = ?, url = ?, position = ? WHERE id = ?",
		label, url, arg.Position, arg.ID)
	if err != nil {
		return model.FooterLink{}, fmt.Errorf("updating footer link: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.FooterLink{}, ErrNotFound
	}

	return s.GetFooterLink(ctx, arg.ID)
}

// DeleteFooterLink implements Store. Deleting an absent link is a no-op.
func (s *SQLStore) DeleteFooterLink(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM footer_links WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting footer link: %w", err)
	}
	return nil
}

// ListFooterLinks implements Store, ordered by (position, created_at).
func (s *SQLStore) ListFooterLinks(ctx context.Context) ([]model.FooterLink, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+linkColumns+" FROM footer_links ORDER BY position ASC, created_at ASC, id ASC")
	if err != nil {
		return nil, fmt.Errorf("listing footer links: %w", err)
	}
	defer rows.Close()

	var links []model.FooterLink
	for rows.Next() {
		l, err := scanFooterLink(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, rows.Err()
}
