// Package testdb opens migrated in-memory databases for package tests.
package testdb

import (
	"testing"

	"robot-manager/database"
	"robot-manager/logging"
	"robot-manager/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// Open returns a migrated database private to t. A single pooled
// connection keeps the in-memory schema alive for the whole test.
func Open(t testing.TB) *database.Database {
	t.Helper()

	db, err := database.Open(sqlite.Open(":memory:"), logging.Discard())
	require.NoError(t, err)

	sqlDB, err := db.DB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.Migrate())
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// CreateUser inserts a user whose password is password.
func CreateUser(t testing.TB, db *database.Database, name, phone, password string, superAdmin bool) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{
		Name:         name,
		Email:        phone + "@example.test",
		Phone:        &phone,
		Password:     string(hash),
		IsSuperAdmin: superAdmin,
	}
	require.NoError(t, db.Users.Create(db.DB, user))
	return user
}
