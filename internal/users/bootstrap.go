package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/karthikraju/granary-backend/pkg/config"
	"github.com/karthikraju/granary-backend/pkg/enums"
	"github.com/karthikraju/granary-backend/pkg/security"
)

// EnsureSuperAdmin creates the initial super admin account when none exists
// yet. It reports whether a user was created.
func EnsureSuperAdmin(ctx context.Context, repo *Repository, passwordCfg config.PasswordConfig, email, password string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false, fmt.Errorf("seed admin email is required")
	}
	if password == "" {
		return false, fmt.Errorf("seed admin password is required")
	}

	count, err := repo.CountByRole(ctx, string(enums.RoleSuperAdmin))
	if err != nil {
		return false, fmt.Errorf("counting super admins: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	hash, err := security.HashPassword(password, passwordCfg)
	if err != nil {
		return false, fmt.Errorf("hashing seed password: %w", err)
	}
	if _, err := repo.Create(ctx, CreateUserDTO{
		Email:        email,
		PasswordHash: hash,
		FullName:     "Super Admin",
		Role:         enums.RoleSuperAdmin,
	}); err != nil {
		return false, fmt.Errorf("creating seed super admin: %w", err)
	}
	return true, nil
}
