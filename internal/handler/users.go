// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/webgenhq/webgen/internal/auth"
	"github.com/webgenhq/webgen/internal/middleware"
	"github.com/webgenhq/webgen/internal/model"
	"github.com/webgenhq/webgen/internal/render"
	"github.com/webgenhq/webgen/internal/store"
)

// DefaultResetPassword is used when an admin resets a password without
// supplying a new one.
const DefaultResetPassword = "changeme123"

// UserHandler handles the admin user management routes.
type UserHandler struct {
	store    store.Store
	renderer *render.Renderer
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(s store.Store, renderer *render.Renderer) *UserHandler {
	return &UserHandler{store: s, renderer: renderer}
}

// userFormData carries user form state back to the template.
type userFormData struct {
	User   model.User
	Action string
	Error  string
}

// List shows all users, newest first.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		logAndInternalError(w, "listing users", "error", err)
		return
	}

	if err := h.renderer.Render(w, r, "admin/users_list", render.TemplateData{
		Title: "Users",
		User:  middleware.GetUser(r),
		Data:  struct{ Users []model.User }{users},
	}); err != nil {
		logAndInternalError(w, "rendering user list", "error", err)
	}
}

// NewForm renders the blank user form.
func (h *UserHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, userFormData{
		User:   model.User{Role: model.RoleUser},
		Action: RouteAdminUsers + RouteSuffixNew,
	}, "New User")
}

// Create handles the new user form submission.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	action := RouteAdminUsers + RouteSuffixNew

	if !parseFormOrRedirect(w, r, h.renderer, action) {
		return
	}

	entered := model.User{
		Name:  r.FormValue("name"),
		Email: r.FormValue("email"),
		Role:  r.FormValue("role"),
	}
	password := r.FormValue("password")

	if password == "" {
		h.renderForm(w, r, userFormData{User: entered, Action: action, Error: "password is required"}, "New User")
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		logAndInternalError(w, "hashing password", "error", err)
		return
	}

	user, err := h.store.CreateUser(r.Context(), store.CreateUserParams{
		Email:        entered.Email,
		Name:         entered.Name,
		PasswordHash: hash,
		Role:         entered.Role,
	})
	if err != nil {
		if msg, ok := formErrorMessage(err); ok {
			h.renderForm(w, r, userFormData{User: entered, Action: action, Error: msg}, "New User")
			return
		}
		logAndInternalError(w, "creating user", "error", err)
		return
	}

	slog.Info("user created", "user_id", user.ID, "email", user.Email, "role", user.Role)
	flashSuccess(w, r, h.renderer, RouteAdminUsers, "User created.")
}

// EditForm renders the edit form for an existing user.
func (h *UserHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	h.renderForm(w, r, userFormData{
		User:   user,
		Action: userEditURL(user.ID),
	}, "Edit User")
}

// Edit handles the edit form submission. Password is only changed when
// the field is filled in.
func (h *UserHandler) Edit(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	action := userEditURL(user.ID)

	if !parseFormOrRedirect(w, r, h.renderer, action) {
		return
	}

	entered := user
	entered.Name = r.FormValue("name")
	entered.Email = r.FormValue("email")
	entered.Role = r.FormValue("role")

	// A demotion must not leave the site without admins.
	if user.Role == model.RoleAdmin && entered.Role != model.RoleAdmin {
		count, err := h.store.CountAdmins(r.Context())
		if err != nil {
			logAndInternalError(w, "counting admins", "error", err)
			return
		}
		if count <= 1 {
			h.renderForm(w, r, userFormData{User: entered, Action: action,
				Error: "cannot demote the last admin"}, "Edit User")
			return
		}
	}

	updated, err := h.store.UpdateUser(r.Context(), store.UpdateUserParams{
		ID:    user.ID,
		Email: entered.Email,
		Name:  entered.Name,
		Role:  entered.Role,
	})
	if err != nil {
		if msg, ok := formErrorMessage(err); ok {
			h.renderForm(w, r, userFormData{User: entered, Action: action, Error: msg}, "Edit User")
			return
		}
		logAndInternalError(w, "updating user", "error", err, "user_id", user.ID)
		return
	}

	if password := r.FormValue("password"); password != "" {
		hash, err := auth.HashPassword(password)
		if err != nil {
			logAndInternalError(w, "hashing password", "error", err)
			return
		}
		if err := h.store.UpdateUserPassword(r.Context(), updated.ID, hash); err != nil {
			logAndInternalError(w, "updating password", "error", err, "user_id", updated.ID)
			return
		}
	}

	slog.Info("user updated", "user_id", updated.ID)
	flashSuccess(w, r, h.renderer, RouteAdminUsers, "User updated.")
}

// ResetPassword sets a new password for a user. Without a submitted
// password the well-known default is used; either way the new password is
// shown to the admin once, in the flash message.
func (h *UserHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	if !parseFormOrRedirect(w, r, h.renderer, RouteAdminUsers) {
		return
	}

	password := r.FormValue("password")
	if password == "" {
		password = DefaultResetPassword
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		logAndInternalError(w, "hashing password", "error", err)
		return
	}

	if err := h.store.UpdateUserPassword(r.Context(), user.ID, hash); err != nil {
		logAndInternalError(w, "resetting password", "error", err, "user_id", user.ID)
		return
	}

	slog.Info("password reset", "user_id", user.ID, "admin_id", middleware.GetUser(r).ID)
	flashSuccess(w, r, h.renderer, RouteAdminUsers,
		"Password for "+user.Email+" reset to: "+password)
}

// Delete removes a user and all their pages. Admins cannot delete
// themselves or the last remaining admin.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	current := middleware.GetUser(r)

	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	if user.ID == current.ID {
		flashError(w, r, h.renderer, RouteAdminUsers, "You cannot delete your own account.")
		return
	}

	if user.IsAdmin() {
		count, err := h.store.CountAdmins(r.Context())
		if err != nil {
			logAndInternalError(w, "counting admins", "error", err)
			return
		}
		if count <= 1 {
			flashError(w, r, h.renderer, RouteAdminUsers, "Cannot delete the last admin.")
			return
		}
	}

	if err := h.store.DeleteUser(r.Context(), user.ID); err != nil {
		logAndInternalError(w, "deleting user", "error", err, "user_id", user.ID)
		return
	}

	slog.Info("user deleted", "user_id", user.ID, "admin_id", current.ID)
	flashSuccess(w, r, h.renderer, RouteAdminUsers, "User and their pages deleted.")
}

// requireUser loads the {id} user, redirecting to the user list when the
// ID is malformed or unknown.
func (h *UserHandler) requireUser(w http.ResponseWriter, r *http.Request) (model.User, bool) {
	id, err := ParseIDParam(r)
	if err != nil {
		flashError(w, r, h.renderer, RouteAdminUsers, "user not found")
		return model.User{}, false
	}

	return requireEntityWithRedirect(w, r, h.renderer, RouteAdminUsers, "user", id,
		func(id int64) (model.User, error) { return h.store.GetUserByID(r.Context(), id) })
}

func (h *UserHandler) renderForm(w http.ResponseWriter, r *http.Request, data userFormData, title string) {
	if err := h.renderer.Render(w, r, "admin/users_form", render.TemplateData{
		Title: title,
		User:  middleware.GetUser(r),
		Data:  data,
	}); err != nil {
		logAndInternalError(w, "rendering user form", "error", err)
	}
}

// formErrorMessage maps expected store errors to a form notice.
func formErrorMessage(err error) (string, bool) {
	var ve *store.ValidationError
	if errors.As(err, &ve) {
		return ve.Message, true
	}
	if errors.Is(err, store.ErrDuplicateEmail) {
		return "A user with that email already exists.", true
	}
	return "", false
}

func userEditURL(id int64) string {
	return RouteAdminUsers + "/" + formatID(id) + RouteSuffixEdit
}
