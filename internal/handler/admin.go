// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net/http"

	"github.com/webgenhq/webgen/internal/middleware"
	"github.com/webgenhq/webgen/internal/model"
	"github.com/webgenhq/webgen/internal/render"
	"github.com/webgenhq/webgen/internal/store"
)

// AdminHandler handles the admin dashboard and the all-pages routes.
type AdminHandler struct {
	store    store.Store
	renderer *render.Renderer
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(s store.Store, renderer *render.Renderer) *AdminHandler {
	return &AdminHandler{store: s, renderer: renderer}
}

// Dashboard shows site-wide counts and admin navigation.
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	users, err := h.store.ListUsers(ctx)
	if err != nil {
		logAndInternalError(w, "listing users for dashboard", "error", err)
		return
	}
	pages, err := h.store.ListPagesWithOwners(ctx)
	if err != nil {
		logAndInternalError(w, "listing pages for dashboard", "error", err)
		return
	}

	data := struct {
		UserCount int
		PageCount int
	}{len(users), len(pages)}

	if err := h.renderer.Render(w, r, "admin/dashboard", render.TemplateData{
		Title: "Admin",
		User:  middleware.GetUser(r),
		Data:  data,
	}); err != nil {
		logAndInternalError(w, "rendering dashboard", "error", err)
	}
}

// ListPages shows every page with its owner, newest first.
func (h *AdminHandler) ListPages(w http.ResponseWriter, r *http.Request) {
	pages, err := h.store.ListPagesWithOwners(r.Context())
	if err != nil {
		logAndInternalError(w, "listing all pages", "error", err)
		return
	}

	if err := h.renderer.Render(w, r, "admin/pages_list", render.TemplateData{
		Title: "All Pages",
		User:  middleware.GetUser(r),
		Data:  struct{ Pages []model.PageWithOwner }{pages},
	}); err != nil {
		logAndInternalError(w, "rendering all pages", "error", err)
	}
}

// ViewPage shows any page with owner details.
func (h *AdminHandler) ViewPage(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDParam(r)
	if err != nil {
		http.Error(w, "page not found", http.StatusNotFound)
		return
	}

	pwo, ok := requireEntityWithError(w, "page", id, func(id int64) (model.PageWithOwner, error) {
		return h.store.GetPageWithOwner(r.Context(), id)
	})
	if !ok {
		return
	}

	data := pageViewData{
		Page:       pwo.Page,
		CanEdit:    true,
		OwnerName:  pwo.OwnerName,
		OwnerEmail: pwo.OwnerEmail,
	}

	if err := h.renderer.Render(w, r, "pages/view", render.TemplateData{
		Title: pwo.Title,
		User:  middleware.GetUser(r),
		Data:  data,
	}); err != nil {
		logAndInternalError(w, "rendering admin page view", "error", err)
	}
}

// DeletePage deletes any page regardless of owner.
func (h *AdminHandler) DeletePage(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDParam(r)
	if err != nil {
		http.Error(w, "page not found", http.StatusNotFound)
		return
	}

	page, ok := requireEntityWithRedirect(w, r, h.renderer, RouteAdminPages, "page", id,
		func(id int64) (model.Page, error) { return h.store.GetPageByID(r.Context(), id) })
	if !ok {
		return
	}

	if err := h.store.DeletePage(r.Context(), page.ID); err != nil {
		logAndInternalError(w, "deleting page", "error", err, "page_id", page.ID)
		return
	}

	slog.Info("page deleted by admin", "page_id", page.ID, "admin_id", middleware.GetUser(r).ID)
	flashSuccess(w, r, h.renderer, RouteAdminPages, "Page deleted.")
}
