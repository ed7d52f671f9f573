package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/webgenhq/webgen/internal/model"
)

// testStore is one backend under test. Every test in this file runs
// against both backends to keep their behavior identical.
type testStore struct {
	name string
	s    Store
}

func newTestStores(t *testing.T) []testStore {
	t.Helper()

	fileStore, err := NewFileStore(filepath.Join(t.TempDir(), "webgen.json"))
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	dbPath := filepath.Join(t.TempDir(), "webgen.db")
	db, err := NewDB(dbPath)
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	sqlStore := NewSQLStore(db)

	t.Cleanup(func() {
		_ = fileStore.Close()
		_ = sqlStore.Close()
		_ = os.Remove(dbPath)
	})

	return []testStore{
		{"file", fileStore},
		{"sqlite", sqlStore},
	}
}

func mustCreateUser(t *testing.T, s Store, email, role string) model.User {
	t.Helper()
	user, err := s.CreateUser(context.Background(), CreateUserParams{
		Email:        email,
		Name:         "Test User",
		PasswordHash: "$argon2id$v=19$m=19456,t=2,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaGhhc2hoYXNoaGFzaGhhc2hoYXNoaGFzaGhhc2g",
		Role:         role,
	})
	if err != nil {
		t.Fatalf("CreateUser(%s): %v", email, err)
	}
	return user
}

func mustCreatePage(t *testing.T, s Store, ownerID int64, title string) model.Page {
	t.Helper()
	page, err := s.CreatePage(context.Background(), CreatePageParams{
		Title:   title,
		Content: "content of " + title,
		OwnerID: ownerID,
	})
	if err != nil {
		t.Fatalf("CreatePage(%s): %v", title, err)
	}
	return page
}

func TestCreateAndGetUser(t *testing.T) {
	for _, ts := range newTestStores(t) {
		t.Run(ts.name, func(t *testing.T) {
			ctx := context.Background()

			user := mustCreateUser(t, ts.s, "Alice@Example.COM", model.RoleUser)
			if user.ID == 0 {
				t.Fatal("expected non-zero user ID")
			}
			if user.Email != "alice@example.com" {
				t.Errorf("email not normalized: %q", user.Email)
			}

			got, err := ts.s.GetUserByID(ctx, user.ID)
			if err != nil {
				t.Fatalf("GetUserByID: %v", err)
			}
			if got.Email != user.Email || got.Name != user.Name || got.Role != user.Role {
				t.Errorf("GetUserByID mismatch: %+v vs %+v", got, user)
			}

			// Lookup is case-insensitive too.
			got, err = ts.s.GetUserByEmail(ctx, "  ALICE@example.com ")
			if err != nil {
				t.Fatalf("GetUserByEmail: %v", err)
			}
			if got.ID != user.ID {
				t.Errorf("GetUserByEmail returned wrong user: %d", got.ID)
			}
		})
	}
}

func TestGetUser_NotFound(t *testing.T) {
	for _, ts := range newTestStores(t) {
		t.Run(ts.name, func(t *testing.T) {
			ctx := context.Background()

			if _, err := ts.s.GetUserByID(ctx, 999); !errors.Is(err, ErrNotFound) {
				t.Errorf("GetUserByID: want ErrNotFound, got %v", err)
			}
			if _, err := ts.s.GetUserByEmail(ctx, "nobody@example.com"); !errors.Is(err, ErrNotFound) {
				t.Errorf("GetUserByEmail: want ErrNotFound, got %v", err)
			}
		})
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	for _, ts := range newTestStores(t) {
		t.Run(ts.name, func(t *testing.T) {
			ctx := context.Background()

			mustCreateUser(t, ts.s, "dup@example.com", model.RoleUser)

			_, err := ts.s.CreateUser(ctx, CreateUserParams{
				Email:        "DUP@example.com",
				Name:         "Other",
				PasswordHash: "x",
			})
			if !errors.Is(err, ErrDuplicateEmail) {
				t.Errorf("want ErrDuplicateEmail, got %v", err)
			}
		})
	}
}

func TestCreateUser_RoleValidation(t *testing.T) {
	for _, ts := range newTestStores(t) {
		t.Run(ts.name, func(t *testing.T) {
			ctx := context.Background()

			// An empty role defaults to user.
			user, err := ts.s.CreateUser(ctx, CreateUserParams{
				Email:        "norole@example.com",
				Name:         "No Role",
				PasswordHash: "x",
			})
			if err != nil {
				t.Fatalf("CreateUser: %v", err)
			}
			if user.Role != model.RoleUser {
				t.Errorf("role = %q; want %q", user.Role, model.RoleUser)
			}

			// Anything outside the known roles is rejected.
			_, err = ts.s.CreateUser(ctx, CreateUserParams{
				Email:        "badrole@example.com",
				Name:         "Bad Role",
				PasswordHash: "x",
				Role:         "superuser",
			})
			var ve *ValidationError
			if !errors.As(err, &ve) || ve.Field != "role" {
				t.Errorf("want role ValidationError, got %v", err)
			}

			_, err = ts.s.UpdateUser(ctx, UpdateUserParams{
				ID:    user.ID,
				Email: user.Email,
				Name:  user.Name,
				Role:  "superuser",
			})
			if !errors.As(err, &ve) || ve.Field != "role" {
				t.Errorf("want role ValidationError on update, got %v", err)
			}
		})
	}
}

func TestUpdateUser(t *testing.T) {
	for _, ts := range newTestStores(t) {
		t.Run(ts.name, func(t *testing.T) {
			ctx := context.Background()

			user := mustCreateUser(t, ts.s, "before@example.com", model.RoleUser)
			other := mustCreateUser(t, ts.s, "taken@example.com", model.RoleUser)

			// Renaming to a taken email fails.
			_, err := ts.s.UpdateUser(ctx, UpdateUserParams{
				ID: user.ID, Email: other.Email, Name: "Renamed", Role: model.RoleUser,
			})
			if !errors.Is(err, ErrDuplicateEmail) {
				t.Errorf("want ErrDuplicateEmail, got %v", err)
			}

			// Keeping your own email is fine.
			updated, err := ts.s.UpdateUser(ctx, UpdateUserParams{
				ID: user.ID, Email: user.Email, Name: "Renamed", Role: model.RoleAdmin,
			})
			if err != nil {
				t.Fatalf("UpdateUser: %v", err)
			}
			if updated.Name != "Renamed" || updated.Role != model.RoleAdmin {
				t.Errorf("update not applied: %+v", updated)
			}

			if _, err := ts.s.UpdateUser(ctx, UpdateUserParams{
				ID: 999, Email: "x@example.com", Name: "X", Role: model.RoleUser,
			}); !errors.Is(err, ErrNotFound) {
				t.Errorf("want ErrNotFound, got %v", err)
			}
		})
	}
}

func TestUpdateUserPassword(t *testing.T) {
	for _, ts := range newTestStores(t) {
		t.Run(ts.name, func(t *testing.T) {
			ctx := context.Background()

			user := mustCreateUser(t, ts.s, "pw@example.com", model.RoleUser)

			if err := ts.s.UpdateUserPassword(ctx, user.ID, "newhash"); err != nil {
				t.Fatalf("UpdateUserPassword: %v", err)
			}

			got, err := ts.s.GetUserByID(ctx, user.ID)
			if err != nil {
				t.Fatalf("GetUserByID: %v", err)
			}
			if got.PasswordHash != "newhash" {
				t.Errorf("password hash not updated: %q", got.PasswordHash)
			}

			if err := ts.s.UpdateUserPassword(ctx, 999, "x"); !errors.Is(err, ErrNotFound) {
				t.Errorf("want ErrNotFound, got %v", err)
			}
		})
	}
}

func TestDeleteUser_CascadesPages(t *testing.T) {
	for _, ts := range newTestStores(t) {
		t.Run(ts.name, func(t *testing.T) {
			ctx := context.Background()

			user := mustCreateUser(t, ts.s, "owner@example.com", model.RoleUser)
			keeper := mustCreateUser(t, ts.s, "keeper@example.com", model.RoleUser)

			doomed1 := mustCreatePage(t, ts.s, user.ID, "Doomed One")
			doomed2 := mustCreatePage(t, ts.s, user.ID, "Doomed Two")
			kept := mustCreatePage(t, ts.s, keeper.ID, "Kept")

			if err := ts.s.DeleteUser(ctx, user.ID); err != nil {
				t.Fatalf("DeleteUser: %v", err)
			}

			for _, id := range []int64{doomed1.ID, doomed2.ID} {
				if _, err := ts.s.GetPageByID(ctx, id); !errors.Is(err, ErrNotFound) {
					t.Errorf("page %d should be cascade-deleted, got %v", id, err)
				}
			}

			if _, err := ts.s.GetPageByID(ctx, kept.ID); err != nil {
				t.Errorf("unrelated page was deleted: %v", err)
			}
			if _, err := ts.s.GetUserByID(ctx, user.ID); !errors.Is(err, ErrNotFound) {
				t.Errorf("user should be gone, got %v", err)
			}
		})
	}
}

func TestListUsers_NewestFirst(t *testing.T) {
	for _, ts := range newTestStores(t) {
		t.Run(ts.name, func(t *testing.T) {
			first := mustCreateUser(t, ts.s, "first@example.com", model.RoleUser)
			time.Sleep(5 * time.Millisecond)
			second := mustCreateUser(t, ts.s, "second@example.com", model.RoleUser)

			users, err := ts.s.ListUsers(context.Background())
			if err != nil {
				t.Fatalf("ListUsers: %v", err)
			}
			if len(users) != 2 {
				t.Fatalf("len(users) = %d, want 2", len(users))
			}
			if users[0].ID != second.ID || users[1].ID != first.ID {
				t.Errorf("wrong order: %d, %d", users[0].ID, users[1].ID)
			}
		})
	}
}

func TestCountAdmins(t *testing.T) {
	for _, ts := range newTestStores(t) {
		t.Run(ts.name, func(t *testing.T) {
			ctx := context.Background()

			count, err := ts.s.CountAdmins(ctx)
			if err != nil {
				t.Fatalf("CountAdmins: %v", err)
			}
			if count != 0 {
				t.Errorf("fresh store should have no admins, got %d", count)
			}

			mustCreateUser(t, ts.s, "admin@example.com", model.RoleAdmin)
			mustCreateUser(t, ts.s, "user@example.com", model.RoleUser)

			count, err = ts.s.CountAdmins(ctx)
			if err != nil {
				t.Fatalf("CountAdmins: %v", err)
			}
			if count != 1 {
				t.Errorf("CountAdmins = %d, want 1", count)
			}
		})
	}
}

func TestCreatePage_RoundTrip(t *testing.T) {
	for _, ts := range newTestStores(t) {
		t.Run(ts.name, func(t *testing.T) {
			ctx := context.Background()

			owner := mustCreateUser(t, ts.s, "author@example.com", model.RoleUser)
			page := mustCreatePage(t, ts.s, owner.ID, "Notes")

			got, err := ts.s.GetPageByID(ctx, page.ID)
			if err != nil {
				t.Fatalf("GetPageByID: %v", err)
			}
			if got.Title != "Notes" || got.Content != "content of Notes" {
				t.Errorf("round-trip mismatch: %+v", got)
			}
			if got.OwnerID != owner.ID {
				t.Errorf("OwnerID = %d, want %d", got.OwnerID, owner.ID)
			}
		})
	}
}

func TestCreatePage_Validation(t *testing.T) {
	for _, ts := range newTestStores(t) {
		t.Run(ts.name, func(t *testing.T) {
			ctx := context.Background()

			owner := mustCreateUser(t, ts.s, "author@example.com", model.RoleUser)

			var ve *ValidationError
			_, err := ts.s.CreatePage(ctx, CreatePageParams{Title: "  ", Content: "x", OwnerID: owner.ID})
			if !errors.As(err, &ve) || ve.Field != "title" {
				t.Errorf("want title ValidationError, got %v", err)
			}

			_, err = ts.s.CreatePage(ctx, CreatePageParams{Title: "T", Content: "", OwnerID: owner.ID})
			if !errors.As(err, &ve) || ve.Field != "content" {
				t.Errorf("want content ValidationError, got %v", err)
			}

			// Unknown owner is rejected.
			_, err = ts.s.CreatePage(ctx, CreatePageParams{Title: "T", Content: "C", OwnerID: 999})
			if !errors.Is(err, ErrNotFound) {
				t.Errorf("want ErrNotFound for unknown owner, got %v", err)
			}
		})
	}
}

func TestUpdatePage(t *testing.T) {
	for _, ts := range newTestStores(t) {
		t.Run(ts.name, func(t *testing.T) {
			ctx := context.Background()

			owner := mustCreateUser(t, ts.s, "author@example.com", model.RoleUser)
			page := mustCreatePage(t, ts.s, owner.ID, "Old Title")

			time.Sleep(5 * time.Millisecond)

			updated, err := ts.s.UpdatePage(ctx, UpdatePageParams{
				ID: page.ID, Title: "New Title", Content: "new content",
			})
			if err != nil {
				t.Fatalf("UpdatePage: %v", err)
			}
			if updated.Title != "New Title" || updated.Content != "new content" {
				t.Errorf("update not applied: %+v", updated)
			}
			if !updated.UpdatedAt.After(page.CreatedAt) {
				t.Errorf("UpdatedAt %v should be after CreatedAt %v", updated.UpdatedAt, page.CreatedAt)
			}

			if _, err := ts.s.UpdatePage(ctx, UpdatePageParams{ID: 999, Title: "T", Content: "C"}); !errors.Is(err, ErrNotFound) {
				t.Errorf("want ErrNotFound, got %v", err)
			}
		})
	}
}

func TestDeletePage_Idempotent(t *testing.T) {
	for _, ts := range newTestStores(t) {
		t.Run(ts.name, func(t *testing.T) {
			ctx := context.Background()

			owner := mustCreateUser(t, ts.s, "author@example.com", model.RoleUser)
			page := mustCreatePage(t, ts.s, owner.ID, "Gone Soon")

			if err := ts.s.DeletePage(ctx, page.ID); err != nil {
				t.Fatalf("DeletePage: %v", err)
			}
			if err := ts.s.DeletePage(ctx, page.ID); err != nil {
				t.Errorf("second DeletePage should be a no-op, got %v", err)
			}
		})
	}
}

func TestListPagesByOwner_NewestFirst(t *testing.T) {
	for _, ts := range newTestStores(t) {
		t.Run(ts.name, func(t *testing.T) {
			owner := mustCreateUser(t, ts.s, "author@example.com", model.RoleUser)
			other := mustCreateUser(t, ts.s, "other@example.com", model.RoleUser)

			first := mustCreatePage(t, ts.s, owner.ID, "First")
			time.Sleep(5 * time.Millisecond)
			second := mustCreatePage(t, ts.s, owner.ID, "Second")
			mustCreatePage(t, ts.s, other.ID, "Foreign")

			pages, err := ts.s.ListPagesByOwner(context.Background(), owner.ID)
			if err != nil {
				t.Fatalf("ListPagesByOwner: %v", err)
			}
			if len(pages) != 2 {
				t.Fatalf("len(pages) = %d, want 2", len(pages))
			}
			if pages[0].ID != second.ID || pages[1].ID != first.ID {
				t.Errorf("wrong order: %d, %d", pages[0].ID, pages[1].ID)
			}
		})
	}
}

func TestListPagesWithOwners(t *testing.T) {
	for _, ts := range newTestStores(t) {
		t.Run(ts.name, func(t *testing.T) {
			owner := mustCreateUser(t, ts.s, "author@example.com", model.RoleUser)
			page := mustCreatePage(t, ts.s, owner.ID, "Owned")

			pages, err := ts.s.ListPagesWithOwners(context.Background())
			if err != nil {
				t.Fatalf("ListPagesWithOwners: %v", err)
			}
			if len(pages) != 1 {
				t.Fatalf("len(pages) = %d, want 1", len(pages))
			}
			if pages[0].ID != page.ID {
				t.Errorf("wrong page: %d", pages[0].ID)
			}
			if pages[0].OwnerName != "Test User" || pages[0].OwnerEmail != "author@example.com" {
				t.Errorf("owner not joined: %+v", pages[0])
			}
		})
	}
}

func TestGetPageWithOwner(t *testing.T) {
	for _, ts := range newTestStores(t) {
		t.Run(ts.name, func(t *testing.T) {
			ctx := context.Background()

			owner := mustCreateUser(t, ts.s, "author@example.com", model.RoleUser)
			page := mustCreatePage(t, ts.s, owner.ID, "Mine")

			pwo, err := ts.s.GetPageWithOwner(ctx, page.ID)
			if err != nil {
				t.Fatalf("GetPageWithOwner: %v", err)
			}
			if pwo.OwnerEmail != "author@example.com" {
				t.Errorf("OwnerEmail = %q", pwo.OwnerEmail)
			}

			if _, err := ts.s.GetPageWithOwner(ctx, 999); !errors.Is(err, ErrNotFound) {
				t.Errorf("want ErrNotFound, got %v", err)
			}
		})
	}
}

func TestSettings(t *testing.T) {
	for _, ts := range newTestStores(t) {
		t.Run(ts.name, func(t *testing.T) {
			ctx := context.Background()

			if _, err := ts.s.GetSetting(ctx, "missing"); !errors.Is(err, ErrNotFound) {
				t.Errorf("want ErrNotFound, got %v", err)
			}

			if err := ts.s.SetSetting(ctx, model.SettingFooterText, "Hello"); err != nil {
				t.Fatalf("SetSetting: %v", err)
			}
			got, err := ts.s.GetSetting(ctx, model.SettingFooterText)
			if err != nil {
				t.Fatalf("GetSetting: %v", err)
			}
			if got != "Hello" {
				t.Errorf("GetSetting = %q", got)
			}

			// Overwrite.
			if err := ts.s.SetSetting(ctx, model.SettingFooterText, "Bye"); err != nil {
				t.Fatalf("SetSetting overwrite: %v", err)
			}
			got, _ = ts.s.GetSetting(ctx, model.SettingFooterText)
			if got != "Bye" {
				t.Errorf("GetSetting after overwrite = %q", got)
			}
		})
	}
}

func TestFooterLinks(t *testing.T) {
	for _, ts := range newTestStores(t) {
		t.Run(ts.name, func(t *testing.T) {
			ctx := context.Background()

			var ve *ValidationError
			if _, err := ts.s.CreateFooterLink(ctx, CreateFooterLinkParams{Label: "", URL: "/x"}); !errors.As(err, &ve) {
				t.Errorf("want ValidationError for empty label, got %v", err)
			}

			last, err := ts.s.CreateFooterLink(ctx, CreateFooterLinkParams{Label: "Last", URL: "/last", Position: 10})
			if err != nil {
				t.Fatalf("CreateFooterLink: %v", err)
			}
			first, err := ts.s.CreateFooterLink(ctx, CreateFooterLinkParams{Label: "First", URL: "/first", Position: 1})
			if err != nil {
				t.Fatalf("CreateFooterLink: %v", err)
			}

			links, err := ts.s.ListFooterLinks(ctx)
			if err != nil {
				t.Fatalf("ListFooterLinks: %v", err)
			}
			if len(links) != 2 {
				t.Fatalf("len(links) = %d, want 2", len(links))
			}
			if links[0].ID != first.ID || links[1].ID != last.ID {
				t.Errorf("wrong order: %+v", links)
			}

			updated, err := ts.s.UpdateFooterLink(ctx, UpdateFooterLinkParams{
				ID: last.ID, Label: "Renamed", URL: "/renamed", Position: 0,
			})
			if err != nil {
				t.Fatalf("UpdateFooterLink: %v", err)
			}
			if updated.Label != "Renamed" || updated.Position != 0 {
				t.Errorf("update not applied: %+v", updated)
			}

			if err := ts.s.DeleteFooterLink(ctx, first.ID); err != nil {
				t.Fatalf("DeleteFooterLink: %v", err)
			}
			if _, err := ts.s.GetFooterLink(ctx, first.ID); !errors.Is(err, ErrNotFound) {
				t.Errorf("want ErrNotFound, got %v", err)
			}
		})
	}
}
