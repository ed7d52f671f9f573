// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/webgenhq/webgen/internal/middleware"
	"github.com/webgenhq/webgen/internal/model"
	"github.com/webgenhq/webgen/internal/render"
	"github.com/webgenhq/webgen/internal/store"
)

// FooterHandler handles the admin footer configuration routes.
type FooterHandler struct {
	store    store.Store
	renderer *render.Renderer
}

// NewFooterHandler creates a new FooterHandler.
func NewFooterHandler(s store.Store, renderer *render.Renderer) *FooterHandler {
	return &FooterHandler{store: s, renderer: renderer}
}

// linkFormData carries footer link form state back to the template.
type linkFormData struct {
	Link   model.FooterLink
	Action string
	Error  string
}

// Form shows the footer text and link management page.
func (h *FooterHandler) Form(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	text, err := h.store.GetSetting(ctx, model.SettingFooterText)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		logAndInternalError(w, "loading footer text", "error", err)
		return
	}

	links, err := h.store.ListFooterLinks(ctx)
	if err != nil {
		logAndInternalError(w, "listing footer links", "error", err)
		return
	}

	data := struct {
		FooterText string
		Links      []model.FooterLink
	}{text, links}

	if err := h.renderer.Render(w, r, "admin/footer", render.TemplateData{
		Title: "Footer Settings",
		User:  middleware.GetUser(r),
		Data:  data,
	}); err != nil {
		logAndInternalError(w, "rendering footer settings", "error", err)
	}
}

// UpdateText saves the footer text setting.
func (h *FooterHandler) UpdateText(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, RouteAdminFooter) {
		return
	}

	text := strings.TrimSpace(r.FormValue("footer_text"))
	if err := h.store.SetSetting(r.Context(), model.SettingFooterText, text); err != nil {
		logAndInternalError(w, "saving footer text", "error", err)
		return
	}

	slog.Info("footer text updated")
	flashSuccess(w, r, h.renderer, RouteAdminFooter, "Footer text updated.")
}

// LinkNewForm renders the blank footer link form.
func (h *FooterHandler) LinkNewForm(w http.ResponseWriter, r *http.Request) {
	h.renderLinkForm(w, r, linkFormData{
		Action: RouteAdminFooterLinks + RouteSuffixNew,
	}, "New Footer Link")
}

// LinkCreate handles the new footer link form submission.
func (h *FooterHandler) LinkCreate(w http.ResponseWriter, r *http.Request) {
	action := RouteAdminFooterLinks + RouteSuffixNew

	if !parseFormOrRedirect(w, r, h.renderer, action) {
		return
	}

	entered := model.FooterLink{
		Label: r.FormValue("label"),
		URL:   r.FormValue("url"),
	}

	position, err := parsePosition(r.FormValue("position"))
	if err != nil {
		h.renderLinkForm(w, r, linkFormData{Link: entered, Action: action, Error: err.Error()}, "New Footer Link")
		return
	}
	entered.Position = position

	link, err := h.store.CreateFooterLink(r.Context(), store.CreateFooterLinkParams{
		Label:    entered.Label,
		URL:      entered.URL,
		Position: entered.Position,
	})
	if err != nil {
		var ve *store.ValidationError
		if errors.As(err, &ve) {
			h.renderLinkForm(w, r, linkFormData{Link: entered, Action: action, Error: ve.Message}, "New Footer Link")
			return
		}
		logAndInternalError(w, "creating footer link", "error", err)
		return
	}

	slog.Info("footer link created", "link_id", link.ID)
	flashSuccess(w, r, h.renderer, RouteAdminFooter, "Footer link created.")
}

// LinkEditForm renders the edit form for an existing footer link.
func (h *FooterHandler) LinkEditForm(w http.ResponseWriter, r *http.Request) {
	link, ok := h.requireLink(w, r)
	if !ok {
		return
	}

	h.renderLinkForm(w, r, linkFormData{
		Link:   link,
		Action: linkEditURL(link.ID),
	}, "Edit Footer Link")
}

// LinkEdit handles the edit form submission.
func (h *FooterHandler) LinkEdit(w http.ResponseWriter, r *http.Request) {
	link, ok := h.requireLink(w, r)
	if !ok {
		return
	}
	action := linkEditURL(link.ID)

	if !parseFormOrRedirect(w, r, h.renderer, action) {
		return
	}

	entered := link
	entered.Label = r.FormValue("label")
	entered.URL = r.FormValue("url")

	position, err := parsePosition(r.FormValue("position"))
	if err != nil {
		h.renderLinkForm(w, r, linkFormData{Link: entered, Action: action, Error: err.Error()}, "Edit Footer Link")
		return
	}
	entered.Position = position

	if _, err := h.store.UpdateFooterLink(r.Context(), store.UpdateFooterLinkParams{
		ID:       link.ID,
		Label:    entered.Label,
		URL:      entered.URL,
		Position: entered.Position,
	}); err != nil {
		var ve *store.ValidationError
		if errors.As(err, &ve) {
			h.renderLinkForm(w, r, linkFormData{Link: entered, Action: action, Error: ve.Message}, "Edit Footer Link")
			return
		}
		logAndInternalError(w, "updating footer link", "error", err, "link_id", link.ID)
		return
	}

	slog.Info("footer link updated", "link_id", link.ID)
	flashSuccess(w, r, h.renderer, RouteAdminFooter, "Footer link updated.")
}

// LinkDelete removes a footer link.
func (h *FooterHandler) LinkDelete(w http.ResponseWriter, r *http.Request) {
	link, ok := h.requireLink(w, r)
	if !ok {
		return
	}

	if err := h.store.DeleteFooterLink(r.Context(), link.ID); err != nil {
		logAndInternalError(w, "deleting footer link", "error", err, "link_id", link.ID)
		return
	}

	slog.Info("footer link deleted", "link_id", link.ID)
	flashSuccess(w, r, h.renderer, RouteAdminFooter, "Footer link deleted.")
}

// requireLink loads the {id} footer link, redirecting to the footer page
// when the ID is malformed or unknown.
func (h *FooterHandler) requireLink(w http.ResponseWriter, r *http.Request) (model.FooterLink, bool) {
	id, err := ParseIDParam(r)
	if err != nil {
		flashError(w, r, h.renderer, RouteAdminFooter, "footer link not found")
		return model.FooterLink{}, false
	}

	return requireEntityWithRedirect(w, r, h.renderer, RouteAdminFooter, "footer link", id,
		func(id int64) (model.FooterLink, error) { return h.store.GetFooterLink(r.Context(), id) })
}

func (h *FooterHandler) renderLinkForm(w http.ResponseWriter, r *http.Request, data linkFormData, title string) {
	if err := h.renderer.Render(w, r, "admin/footer_link_form", render.TemplateData{
		Title: title,
		User:  middleware.GetUser(r),
		Data:  data,
	}); err != nil {
		logAndInternalError(w, "rendering footer link form", "error", err)
	}
}

// parsePosition converts the position form value. Empty means position 0;
// anything non-numeric is a validation error.
func parsePosition(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	position, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, &store.ValidationError{Field: "position", Message: "position must be a number"}
	}
	return position, nil
}

func linkEditURL(id int64) string {
	return RouteAdminFooterLinks + "/" + formatID(id) + RouteSuffixEdit
}
