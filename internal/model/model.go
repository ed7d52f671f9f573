// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines the domain records shared across the application:
// User, Page, FooterLink and the settings keys.
package model

import "time"

// User roles.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// ValidRoles contains all valid user roles.
var ValidRoles = []string{RoleAdmin, RoleUser}

// SettingFooterText is the settings key holding the footer text.
const SettingFooterText = "footer_text"

// User represents an account that can log in.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"password_hash"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsAdmin returns true if the user has admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CanEditPage reports whether the user may view, edit or delete the page.
// Admins may edit any page; other users only their own.
func (u *User) CanEditPage(p *Page) bool {
	if u == nil {
		return false
	}
	return u.IsAdmin() || p.OwnerID == u.ID
}

// Page represents a content page owned by a user.
type Page struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	OwnerID   int64     `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PageWithOwner is a Page joined with its owner's display fields for
// presentation. OwnerName and OwnerEmail are "Unknown" when the owner
// record no longer exists.
type PageWithOwner struct {
	Page
	OwnerName  string `json:"owner_name"`
	OwnerEmail string `json:"owner_email"`
}

// FooterLink is a link shown in the site footer, ordered by Position.
type FooterLink struct {
	ID        int64     `json:"id"`
	Label     string    `json:"label"`
	URL       string    `json:"url"`
	Position  int64     `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}
