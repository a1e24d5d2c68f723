package database

import (
	"context"
	"fmt"

	"robot-manager/config"
	"robot-manager/models"

	"golang.org/x/crypto/bcrypt"
)

// SeedSuperAdmin creates the configured super-admin unless a user with the
// same email already exists. It does nothing when no password is configured.
func (d *Database) SeedSuperAdmin(ctx context.Context, cfg *config.Config) (*models.User, error) {
	if cfg.SeedAdminPassword == "" || cfg.SeedAdminEmail == "" {
		d.logger.Warn("Skipping super-admin seed: SEED_ADMIN_EMAIL or SEED_ADMIN_PASSWORD not set")
		return nil, nil
	}

	db := d.DB.WithContext(ctx)
	exists, err := d.Users.ExistsByEmail(db, cfg.SeedAdminEmail)
	if err != nil {
		return nil, err
	}
	if exists {
		d.logger.Info("Super-admin already present", "email", cfg.SeedAdminEmail)
		return nil, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.SeedAdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash seed password: %w", err)
	}

	user := &models.User{
		Name:         cfg.SeedAdminName,
		Email:        cfg.SeedAdminEmail,
		Password:     string(hash),
		IsSuperAdmin: true,
	}
	if cfg.SeedAdminPhone != "" {
		phone := cfg.SeedAdminPhone
		user.Phone = &phone
	}

	if err := d.Users.Create(db, user); err != nil {
		return nil, err
	}
	d.logger.Info("Super-admin seeded", "user_id", user.ID, "email", user.Email)
	return user, nil
}
