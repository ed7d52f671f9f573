// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/webgenhq/webgen/internal/auth"
	"github.com/webgenhq/webgen/internal/middleware"
	"github.com/webgenhq/webgen/internal/render"
	"github.com/webgenhq/webgen/internal/store"
)

// AuthHandler handles authentication routes.
type AuthHandler struct {
	store           store.Store
	renderer        *render.Renderer
	sessionManager  *scs.SessionManager
	loginProtection *middleware.LoginProtection
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(s store.Store, renderer *render.Renderer, sm *scs.SessionManager, lp *middleware.LoginProtection) *AuthHandler {
	return &AuthHandler{
		store:           s,
		renderer:        renderer,
		sessionManager:  sm,
		loginProtection: lp,
	}
}

// loginFormData carries login form state back to the template.
type loginFormData struct {
	Email string
	Next  string
}

// LoginForm renders the login page. Already-authenticated users are
// redirected to their pages.
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if user := middleware.GetUser(r); user != nil {
		http.Redirect(w, r, RoutePages, http.StatusSeeOther)
		return
	}

	data := loginFormData{
		Next: safeNextPath(r.URL.Query().Get("next")),
	}

	if err := h.renderer.Render(w, r, "auth/login", render.TemplateData{
		Title: "Log in",
		Data:  data,
	}); err != nil {
		logAndInternalError(w, "rendering login form", "error", err)
	}
}

// Login handles the login form submission.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, RouteLogin) {
		return
	}

	email := store.NormalizeEmail(r.FormValue("email"))
	password := r.FormValue("password")
	next := safeNextPath(r.FormValue("next"))

	redirectBack := RouteLogin
	if next != "" {
		redirectBack = middleware.LoginURL(next)
	}

	if email == "" || password == "" {
		flashError(w, r, h.renderer, redirectBack, "Email and password are required")
		return
	}

	if h.loginProtection != nil {
		if locked, remaining := h.loginProtection.IsAccountLocked(email); locked {
			flashError(w, r, h.renderer, redirectBack,
				fmt.Sprintf("Account temporarily locked. Try again in %s.", formatDuration(remaining)))
			return
		}
	}

	user, err := h.store.GetUserByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			slog.Debug("login attempt for non-existent user", "email", email)
		} else {
			slog.Error("database error during login", "error", err)
		}
		// Record failed attempt even for non-existent users to prevent enumeration
		h.recordFailure(w, r, email, redirectBack)
		return
	}

	valid, err := auth.CheckPassword(password, user.PasswordHash)
	if err != nil {
		slog.Error("password check error", "error", err)
		flashError(w, r, h.renderer, redirectBack, "Invalid credentials.")
		return
	}

	if !valid {
		slog.Debug("invalid password attempt", "email", email)
		h.recordFailure(w, r, email, redirectBack)
		return
	}

	if h.loginProtection != nil {
		h.loginProtection.RecordSuccessfulLogin(email)
	}

	// Re-hash password if it uses outdated parameters
	if auth.NeedsRehash(user.PasswordHash) {
		if newHash, err := auth.HashPassword(password); err == nil {
			if err := h.store.UpdateUserPassword(r.Context(), user.ID, newHash); err != nil {
				slog.Error("failed to re-hash password", "error", err, "user_id", user.ID)
			} else {
				slog.Info("password re-hashed with updated parameters", "user_id", user.ID)
			}
		}
	}

	// Regenerate session ID to prevent session fixation
	if err := h.sessionManager.RenewToken(r.Context()); err != nil {
		logAndInternalError(w, "session renewal error", "error", err)
		return
	}

	h.sessionManager.Put(r.Context(), middleware.SessionKeyUserID, user.ID)

	slog.Info("user logged in", "user_id", user.ID, "email", user.Email)
	h.renderer.SetFlash(r, "Welcome back, "+user.Name+"!", "success")

	if next != "" {
		http.Redirect(w, r, next, http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, RoutePages, http.StatusSeeOther)
}

// Logout handles user logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID := h.sessionManager.GetInt64(r.Context(), middleware.SessionKeyUserID)

	if err := h.sessionManager.Destroy(r.Context()); err != nil {
		slog.Error("session destroy error", "error", err)
	}

	slog.Info("user logged out", "user_id", userID)

	flashAndRedirect(w, r, h.renderer, RouteLogin, "You have been logged out.", "info")
}

// recordFailure records a failed login attempt and answers with the same
// generic message regardless of whether the account exists.
func (h *AuthHandler) recordFailure(w http.ResponseWriter, r *http.Request, email, redirectBack string) {
	if h.loginProtection != nil {
		if locked, lockDuration := h.loginProtection.RecordFailedAttempt(email); locked {
			flashError(w, r, h.renderer, redirectBack,
				fmt.Sprintf("Too many failed attempts. Account locked for %s.", formatDuration(lockDuration)))
			return
		}
	}
	flashError(w, r, h.renderer, redirectBack, "Invalid credentials.")
}

// safeNextPath validates a post-login redirect target. Only local paths
// are allowed; anything else collapses to empty.
func safeNextPath(next string) string {
	if next == "" || next == RouteRoot {
		return ""
	}
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, "\\") {
		return ""
	}
	return next
}

// formatDuration renders a duration in whole minutes for user messages.
func formatDuration(d time.Duration) string {
	minutes := int(d.Round(time.Minute) / time.Minute)
	if minutes <= 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", minutes)
}
