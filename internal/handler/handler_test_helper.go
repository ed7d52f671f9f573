// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"github.com/webgenhq/webgen/internal/auth"
	"github.com/webgenhq/webgen/internal/middleware"
	"github.com/webgenhq/webgen/internal/model"
	"github.com/webgenhq/webgen/internal/render"
	"github.com/webgenhq/webgen/internal/store"
	"github.com/webgenhq/webgen/internal/testutil"
	"github.com/webgenhq/webgen/web"
)

// testPassword is the password behind every test user's hash.
const testPassword = "password123"

// testEnv bundles a file-backed store, an in-memory session manager and a
// renderer over the real templates.
type testEnv struct {
	store    store.Store
	sm       *scs.SessionManager
	renderer *render.Renderer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st := testutil.TestFileStore(t)

	sm := scs.New()
	sm.Lifetime = 24 * time.Hour

	templates, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		t.Fatalf("fs.Sub: %v", err)
	}

	renderer, err := render.New(render.Config{
		TemplatesFS:    templates,
		SessionManager: sm,
		Store:          st,
	})
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}

	return &testEnv{store: st, sm: sm, renderer: renderer}
}

// createTestUser creates a user whose password is testPassword.
func (e *testEnv) createTestUser(t *testing.T, email, role string) model.User {
	t.Helper()

	hash, err := auth.HashPassword(testPassword)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	user, err := e.store.CreateUser(context.Background(), store.CreateUserParams{
		Email:        email,
		Name:         "Test User",
		PasswordHash: hash,
		Role:         role,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return user
}

// request builds a request carrying a loaded session and, when user is
// non-nil, that user in the context the way LoadUser would put it there.
func (e *testEnv) request(t *testing.T, method, target string, form url.Values, user *model.User) *http.Request {
	t.Helper()

	var r *http.Request
	if form != nil {
		r = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		r = httptest.NewRequest(method, target, nil)
	}

	ctx, err := e.sm.Load(r.Context(), "")
	if err != nil {
		t.Fatalf("loading session: %v", err)
	}
	if user != nil {
		ctx = context.WithValue(ctx, middleware.ContextKeyUser, *user)
	}
	return r.WithContext(ctx)
}

// requestWithURLParams adds chi URL parameters to a request.
func requestWithURLParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// assertStatus checks if the response status code matches the expected value.
func assertStatus(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status = %d; want %d", got, want)
	}
}

// assertRedirect checks for a 303 redirect to the expected location.
func assertRedirect(t *testing.T, w *httptest.ResponseRecorder, location string) {
	t.Helper()
	assertStatus(t, w.Code, http.StatusSeeOther)
	if got := w.Header().Get("Location"); got != location {
		t.Errorf("Location = %q; want %q", got, location)
	}
}

// popFlash reads the flash message stored for the request's session.
func (e *testEnv) popFlash(r *http.Request) (string, string) {
	return e.sm.PopString(r.Context(), "flash"), e.sm.PopString(r.Context(), "flash_type")
}
