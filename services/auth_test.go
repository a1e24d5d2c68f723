package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"robot-manager/internal/testdb"
	"robot-manager/logging"
	"robot-manager/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func newAuthFixture(t *testing.T) (*AuthService, *memoryCache, *models.User) {
	t.Helper()
	db := testdb.Open(t)
	user := testdb.CreateUser(t, db, "Trader", "5511988887777", "s3cret", false)
	cache := newMemoryCache()
	auth, err := NewAuthService(db, cache, testSecret, time.Hour, logging.Discard())
	require.NoError(t, err)
	return auth, cache, user
}

func TestNewAuthServiceRequiresSecretAndTTL(t *testing.T) {
	db := testdb.Open(t)

	_, err := NewAuthService(db, newMemoryCache(), "  ", time.Hour, logging.Discard())
	assert.Error(t, err)

	_, err = NewAuthService(db, newMemoryCache(), testSecret, 0, logging.Discard())
	assert.Error(t, err)
}

func TestLoginAndAuthenticate(t *testing.T) {
	auth, _, user := newAuthFixture(t)
	ctx := context.Background()

	resp, err := auth.Login(ctx, models.LoginRequest{Phone: " 5511988887777 ", Password: "s3cret"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, resp.User.ID)
	require.NotEmpty(t, resp.Token)

	principal, err := auth.Authenticate(ctx, resp.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, principal.User.ID)
	assert.NotEmpty(t, principal.TokenID)
	assert.Equal(t, models.Caller{UserID: user.ID}, principal.Caller())
	assert.WithinDuration(t, time.Now().Add(time.Hour), principal.ExpiresAt, time.Minute)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	auth, _, _ := newAuthFixture(t)
	ctx := context.Background()

	_, err := auth.Login(ctx, models.LoginRequest{Phone: "5511988887777", Password: "wrong"})
	requireAppError(t, err, http.StatusUnauthorized)

	_, err = auth.Login(ctx, models.LoginRequest{Phone: "5500000000000", Password: "s3cret"})
	requireAppError(t, err, http.StatusUnauthorized)

	_, err = auth.Login(ctx, models.LoginRequest{})
	appErr := requireAppError(t, err, http.StatusUnprocessableEntity)
	assert.Contains(t, appErr.Fields, "phone")
	assert.Contains(t, appErr.Fields, "password")
}

func TestAuthenticateRejectsForeignAndExpiredTokens(t *testing.T) {
	auth, _, user := newAuthFixture(t)
	ctx := context.Background()

	_, err := auth.Authenticate(ctx, "not-a-token")
	requireAppError(t, err, http.StatusUnauthorized)

	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        "forged",
		Issuer:    tokenIssuer,
		Subject:   itoa(user.ID),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := forged.SignedString([]byte("another-secret"))
	require.NoError(t, err)
	_, err = auth.Authenticate(ctx, signed)
	requireAppError(t, err, http.StatusUnauthorized)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        "expired",
		Issuer:    tokenIssuer,
		Subject:   itoa(user.ID),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	})
	signed, err = expired.SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = auth.Authenticate(ctx, signed)
	requireAppError(t, err, http.StatusUnauthorized)
}

func TestAuthenticateRejectsUnknownUser(t *testing.T) {
	auth, _, _ := newAuthFixture(t)

	token, err := auth.IssueToken(&models.User{ID: 424242})
	require.NoError(t, err)
	_, err = auth.Authenticate(context.Background(), token)
	requireAppError(t, err, http.StatusUnauthorized)
}

func TestLogoutRevokesToken(t *testing.T) {
	auth, cache, user := newAuthFixture(t)
	ctx := context.Background()

	token, err := auth.IssueToken(user)
	require.NoError(t, err)
	principal, err := auth.Authenticate(ctx, token)
	require.NoError(t, err)

	require.NoError(t, auth.Logout(ctx, principal))
	assert.Contains(t, cache.revoked, principal.TokenID)
	assert.Greater(t, cache.revoked[principal.TokenID], 59*time.Minute)

	_, err = auth.Authenticate(ctx, token)
	requireAppError(t, err, http.StatusUnauthorized)
}

func TestAuthenticateReadsAdminFlagFromStore(t *testing.T) {
	auth, _, user := newAuthFixture(t)
	ctx := context.Background()

	token, err := auth.IssueToken(user)
	require.NoError(t, err)
	require.NoError(t, auth.db.DB.Model(&models.User{}).Where("id = ?", user.ID).Update("is_super_admin", true).Error)

	principal, err := auth.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.True(t, principal.Caller().IsSuperAdmin)
}
