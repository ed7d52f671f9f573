package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/webgenhq/webgen/internal/model"
)

func requestWithUser(user *model.User) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/pages", nil)
	if user == nil {
		return r
	}
	ctx := context.WithValue(r.Context(), ContextKeyUser, *user)
	return r.WithContext(ctx)
}

func TestLoginURL(t *testing.T) {
	tests := []struct {
		next string
		want string
	}{
		{"", "/login"},
		{"/", "/login"},
		{"/pages", "/login?next=%2Fpages"},
		{"/pages/3/edit", "/login?next=%2Fpages%2F3%2Fedit"},
	}
	for _, tt := range tests {
		if got := LoginURL(tt.next); got != tt.want {
			t.Errorf("LoginURL(%q) = %q, want %q", tt.next, got, tt.want)
		}
	}
}

func TestRequireLogin_Anonymous(t *testing.T) {
	called := false
	h := RequireLogin()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, requestWithUser(nil))

	if called {
		t.Error("handler should not be reached")
	}
	if w.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want 303", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/login?next=%2Fpages" {
		t.Errorf("Location = %q", loc)
	}
}

func TestRequireLogin_Authenticated(t *testing.T) {
	called := false
	h := RequireLogin()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, requestWithUser(&model.User{ID: 1, Role: model.RoleUser}))

	if !called {
		t.Error("handler should be reached")
	}
}

func TestRequireAdmin(t *testing.T) {
	tests := []struct {
		name       string
		user       *model.User
		wantStatus int
		wantPass   bool
	}{
		{"anonymous", nil, http.StatusSeeOther, false},
		{"non-admin", &model.User{ID: 2, Role: model.RoleUser}, http.StatusForbidden, false},
		{"admin", &model.User{ID: 1, Role: model.RoleAdmin}, http.StatusOK, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			h := RequireAdmin()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			}))

			w := httptest.NewRecorder()
			h.ServeHTTP(w, requestWithUser(tt.user))

			if called != tt.wantPass {
				t.Errorf("handler called = %v, want %v", called, tt.wantPass)
			}
			if !tt.wantPass && w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestGetUser_Empty(t *testing.T) {
	if got := GetUser(requestWithUser(nil)); got != nil {
		t.Errorf("GetUser on anonymous request = %+v", got)
	}
	if got := GetUserID(requestWithUser(nil)); got != 0 {
		t.Errorf("GetUserID on anonymous request = %d", got)
	}
}

func TestGetUser_Present(t *testing.T) {
	user := &model.User{ID: 42, Role: model.RoleAdmin}
	got := GetUser(requestWithUser(user))
	if got == nil || got.ID != 42 {
		t.Fatalf("GetUser = %+v", got)
	}
	if !got.IsAdmin() {
		t.Error("IsAdmin should be true")
	}
}
