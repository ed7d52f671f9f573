package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/webgenhq/webgen/internal/auth"
	"github.com/webgenhq/webgen/internal/model"
)

// Default admin credentials and footer text, created when absent.
const (
	DefaultAdminEmail    = "admin@example.com"
	DefaultAdminPassword = "admin123"
	DefaultAdminName     = "Admin"
)

// Seed creates the default admin account and footer text if they are
// missing. It runs once at startup; every backend starts from the same
// state regardless of how the data was produced.
func Seed(ctx context.Context, s Store) error {
	admins, err := s.CountAdmins(ctx)
	if err != nil {
		return fmt.Errorf("counting admins: %w", err)
	}

	if admins == 0 {
		passwordHash, err := auth.HashPassword(DefaultAdminPassword)
		if err != nil {
			return fmt.Errorf("hashing password: %w", err)
		}

		user, err := s.CreateUser(ctx, CreateUserParams{
			Email:        DefaultAdminEmail,
			Name:         DefaultAdminName,
			PasswordHash: passwordHash,
			Role:         model.RoleAdmin,
		})
		if err != nil {
			return fmt.Errorf("creating admin user: %w", err)
		}

		slog.Info("created default admin user",
			"id", user.ID,
			"email", user.Email,
		)
	}

	_, err = s.GetSetting(ctx, model.SettingFooterText)
	if errors.Is(err, ErrNotFound) {
		footer := fmt.Sprintf("© %d WebGen", time.Now().UTC().Year())
		if err := s.SetSetting(ctx, model.SettingFooterText, footer); err != nil {
			return fmt.Errorf("seeding footer text: %w", err)
		}
		slog.Info("seeded default footer text", "value", footer)
	} else if err != nil {
		return fmt.Errorf("checking footer text: %w", err)
	}

	return nil
}
