// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package store provides persistence for users, pages and footer
// configuration. Two interchangeable backends implement the Store
// interface: a single-file JSON document and a SQLite database.
package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/webgenhq/webgen/internal/model"
)

// Sentinel errors returned by Store implementations.
var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateEmail is returned when an email address is already taken
	// by another user. Comparison is case-insensitive.
	ErrDuplicateEmail = errors.New("email already exists")
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// CreateUserParams holds input for CreateUser.
type CreateUserParams struct {
	Email        string
	Name         string
	PasswordHash string
	Role         string
}

// UpdateUserParams holds input for UpdateUser.
type UpdateUserParams struct {
	ID    int64
	Email string
	Name  string
	Role  string
}

// CreatePageParams holds input for CreatePage.
type CreatePageParams struct {
	Title   string
	Content string
	OwnerID int64
}

// UpdatePageParams holds input for UpdatePage.
type UpdatePageParams struct {
	ID      int64
	Title   string
	Content string
}

// CreateFooterLinkParams holds input for CreateFooterLink.
type CreateFooterLinkParams struct {
	Label    string
	URL      string
	Position int64
}

// UpdateFooterLinkParams holds input for UpdateFooterLink.
type UpdateFooterLinkParams struct {
	ID       int64
	Label    string
	URL      string
	Position int64
}

// Store is the persistence interface shared by the file and SQLite backends.
// Mutating operations persist synchronously before returning.
type Store interface {
	// Users. Emails are normalized (trimmed, lowercased) on write and
	// lookup. Deleting a user cascades to the user's pages.
	CreateUser(ctx context.Context, arg CreateUserParams) (model.User, error)
	GetUserByID(ctx context.Context, id int64) (model.User, error)
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
	UpdateUser(ctx context.Context, arg UpdateUserParams) (model.User, error)
	UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error
	DeleteUser(ctx context.Context, id int64) error
	ListUsers(ctx context.Context) ([]model.User, error)
	CountAdmins(ctx context.Context) (int64, error)

	// Pages, newest first.
	CreatePage(ctx context.Context, arg CreatePageParams) (model.Page, error)
	GetPageByID(ctx context.Context, id int64) (model.Page, error)
	GetPageWithOwner(ctx context.Context, id int64) (model.PageWithOwner, error)
	UpdatePage(ctx context.Context, arg UpdatePageParams) (model.Page, error)
	DeletePage(ctx context.Context, id int64) error
	ListPagesByOwner(ctx context.Context, ownerID int64) ([]model.Page, error)
	ListPagesWithOwners(ctx context.Context) ([]model.PageWithOwner, error)

	// Settings and footer links. Links are ordered by (position, created_at).
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
	CreateFooterLink(ctx context.Context, arg CreateFooterLinkParams) (model.FooterLink, error)
	GetFooterLink(ctx context.Context, id int64) (model.FooterLink, error)
	UpdateFooterLink(ctx context.Context, arg UpdateFooterLinkParams) (model.FooterLink, error)
	DeleteFooterLink(ctx context.Context, id int64) error
	ListFooterLinks(ctx context.Context) ([]model.FooterLink, error)

	Close() error
}

// NormalizeEmail trims surrounding whitespace and lowercases an email
// address. All store lookups and writes go through this.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validatePageInput trims and validates page title and content.
func validatePageInput(title, content string) (string, string, error) {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if title == "" {
		return "", "", &ValidationError{Field: "title", Message: "Title is required"}
	}
	if content == "" {
		return "", "", &ValidationError{Field: "content", Message: "Content is required"}
	}
	return title, content, nil
}

// validateFooterLinkInput trims and validates footer link label and URL.
func validateFooterLinkInput(label, url string) (string, string, error) {
	label = strings.TrimSpace(label)
	url = strings.TrimSpace(url)
	if label == "" {
		return "", "", &ValidationError{Field: "label", Message: "Label is required"}
	}
	if url == "" {
		return "", "", &ValidationError{Field: "url", Message: "URL is required"}
	}
	return label, url, nil
}

// validateUserInput normalizes and validates user fields shared by create
// and update.
func validateUserInput(email, name, role string) (string, string, string, error) {
	email = NormalizeEmail(email)
	name = strings.TrimSpace(name)
	if email == "" {
		return "", "", "", &ValidationError{Field: "email", Message: "Email is required"}
	}
	if name == "" {
		return "", "", "", &ValidationError{Field: "name", Message: "Name is required"}
	}
	if role == "" {
		role = model.RoleUser
	}
	if !slices.Contains(model.ValidRoles, role) {
		return "", "", "", &ValidationError{Field: "role", Message: "Invalid role"}
	}
	return email, name, role, nil
}

// "Unknown" placeholder for pages whose owner record no longer exists.
const unknownOwner = "Unknown"
