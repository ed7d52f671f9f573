// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/webgenhq/webgen/internal/middleware"
	"github.com/webgenhq/webgen/internal/model"
	"github.com/webgenhq/webgen/internal/render"
	"github.com/webgenhq/webgen/internal/store"
)

// PageHandler handles the authenticated page CRUD routes.
type PageHandler struct {
	store    store.Store
	renderer *render.Renderer
}

// NewPageHandler creates a new PageHandler.
func NewPageHandler(s store.Store, renderer *render.Renderer) *PageHandler {
	return &PageHandler{store: s, renderer: renderer}
}

// pageFormData carries page form state back to the template.
type pageFormData struct {
	Page   model.Page
	Action string
	Error  string
}

// pageViewData is the view template payload. Owner fields are only
// populated for admins.
type pageViewData struct {
	Page       model.Page
	CanEdit    bool
	OwnerName  string
	OwnerEmail string
}

// Home redirects to the page list or the login form.
func (h *PageHandler) Home(w http.ResponseWriter, r *http.Request) {
	if middleware.GetUser(r) == nil {
		http.Redirect(w, r, RouteLogin, http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, RoutePages, http.StatusSeeOther)
}

// List shows the current user's pages, newest first.
func (h *PageHandler) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)

	pages, err := h.store.ListPagesByOwner(r.Context(), user.ID)
	if err != nil {
		logAndInternalError(w, "listing pages", "error", err, "user_id", user.ID)
		return
	}

	if err := h.renderer.Render(w, r, "pages/list", render.TemplateData{
		Title: "My Pages",
		User:  user,
		Data:  struct{ Pages []model.Page }{pages},
	}); err != nil {
		logAndInternalError(w, "rendering page list", "error", err)
	}
}

// NewForm renders the blank page form.
func (h *PageHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, pageFormData{Action: RoutePages + RouteSuffixNew}, "New Page")
}

// Create handles the new page form submission.
func (h *PageHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)

	if !parseFormOrRedirect(w, r, h.renderer, RoutePages+RouteSuffixNew) {
		return
	}

	arg := store.CreatePageParams{
		Title:   r.FormValue("title"),
		Content: r.FormValue("content"),
		OwnerID: user.ID,
	}

	page, err := h.store.CreatePage(r.Context(), arg)
	if err != nil {
		var ve *store.ValidationError
		if errors.As(err, &ve) {
			h.renderForm(w, r, pageFormData{
				Page:   model.Page{Title: arg.Title, Content: arg.Content},
				Action: RoutePages + RouteSuffixNew,
				Error:  ve.Message,
			}, "New Page")
			return
		}
		logAndInternalError(w, "creating page", "error", err, "user_id", user.ID)
		return
	}

	slog.Info("page created", "page_id", page.ID, "user_id", user.ID)
	flashSuccess(w, r, h.renderer, RoutePages, "Page created.")
}

// View shows a single page. Only the owner and admins may view it.
func (h *PageHandler) View(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)

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

	if !user.CanEditPage(&pwo.Page) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	data := pageViewData{Page: pwo.Page, CanEdit: true}
	if user.IsAdmin() {
		data.OwnerName = pwo.OwnerName
		data.OwnerEmail = pwo.OwnerEmail
	}

	if err := h.renderer.Render(w, r, "pages/view", render.TemplateData{
		Title: pwo.Title,
		User:  user,
		Data:  data,
	}); err != nil {
		logAndInternalError(w, "rendering page view", "error", err)
	}
}

// EditForm renders the edit form for an existing page.
func (h *PageHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	page, ok := h.requireEditablePage(w, r)
	if !ok {
		return
	}

	h.renderForm(w, r, pageFormData{
		Page:   page,
		Action: pageEditURL(page.ID),
	}, "Edit Page")
}

// Edit handles the edit form submission.
func (h *PageHandler) Edit(w http.ResponseWriter, r *http.Request) {
	page, ok := h.requireEditablePage(w, r)
	if !ok {
		return
	}

	if !parseFormOrRedirect(w, r, h.renderer, pageEditURL(page.ID)) {
		return
	}

	arg := store.UpdatePageParams{
		ID:      page.ID,
		Title:   r.FormValue("title"),
		Content: r.FormValue("content"),
	}

	updated, err := h.store.UpdatePage(r.Context(), arg)
	if err != nil {
		var ve *store.ValidationError
		if errors.As(err, &ve) {
			page.Title = arg.Title
			page.Content = arg.Content
			h.renderForm(w, r, pageFormData{
				Page:   page,
				Action: pageEditURL(page.ID),
				Error:  ve.Message,
			}, "Edit Page")
			return
		}
		logAndInternalError(w, "updating page", "error", err, "page_id", page.ID)
		return
	}

	slog.Info("page updated", "page_id", updated.ID)
	flashSuccess(w, r, h.renderer, RoutePages, "Page updated.")
}

// Delete handles page deletion.
func (h *PageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	page, ok := h.requireEditablePage(w, r)
	if !ok {
		return
	}

	if err := h.store.DeletePage(r.Context(), page.ID); err != nil {
		logAndInternalError(w, "deleting page", "error", err, "page_id", page.ID)
		return
	}

	slog.Info("page deleted", "page_id", page.ID)
	flashSuccess(w, r, h.renderer, RoutePages, "Page deleted.")
}

// requireEditablePage loads the {id} page and enforces the owner-or-admin
// rule. Unknown IDs yield 404, foreign pages 403.
func (h *PageHandler) requireEditablePage(w http.ResponseWriter, r *http.Request) (model.Page, bool) {
	user := middleware.GetUser(r)

	id, err := ParseIDParam(r)
	if err != nil {
		http.Error(w, "page not found", http.StatusNotFound)
		return model.Page{}, false
	}

	page, ok := requireEntityWithError(w, "page", id, func(id int64) (model.Page, error) {
		return h.store.GetPageByID(r.Context(), id)
	})
	if !ok {
		return model.Page{}, false
	}

	if !user.CanEditPage(&page) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return model.Page{}, false
	}

	return page, true
}

func (h *PageHandler) renderForm(w http.ResponseWriter, r *http.Request, data pageFormData, title string) {
	if err := h.renderer.Render(w, r, "pages/form", render.TemplateData{
		Title: title,
		User:  middleware.GetUser(r),
		Data:  data,
	}); err != nil {
		logAndInternalError(w, "rendering page form", "error", err)
	}
}

func pageEditURL(id int64) string {
	return RoutePages + "/" + formatID(id) + RouteSuffixEdit
}
