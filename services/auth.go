package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"robot-manager/database"
	"robot-manager/models"
	"robot-manager/repositories/base"
	"robot-manager/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const tokenIssuer = "robot-manager"

// Principal is an authenticated caller and the token they presented.
type Principal struct {
	User      *models.User
	TokenID   string
	ExpiresAt time.Time
}

// Caller projects the principal onto the access policy.
func (p *Principal) Caller() models.Caller {
	return models.Caller{UserID: p.User.ID, IsSuperAdmin: p.User.IsSuperAdmin}
}

type tokenClaims struct {
	jwt.RegisteredClaims
}

// AuthService issues and verifies bearer tokens for phone/password users.
type AuthService struct {
	db       *database.Database
	denylist TokenDenylist
	secret   []byte
	ttl      time.Duration
	logger   *slog.Logger
}

// NewAuthService creates a new instance of AuthService.
func NewAuthService(db *database.Database, denylist TokenDenylist, secret string, ttl time.Duration, logger *slog.Logger) (*AuthService, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("jwt secret not configured")
	}
	if ttl <= 0 {
		return nil, errors.New("jwt ttl must be positive")
	}
	return &AuthService{
		db:       db,
		denylist: denylist,
		secret:   []byte(secret),
		ttl:      ttl,
		logger:   logger.With("component", "auth_service"),
	}, nil
}

// Login checks phone + password and returns the user with a fresh token.
func (as *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	fields := fieldErrors{}
	if strings.TrimSpace(req.Phone) == "" {
		fields.add("phone", "The phone field is required.")
	}
	if req.Password == "" {
		fields.add("password", "The password field is required.")
	}
	if len(fields) > 0 {
		return nil, utils.NewValidationError(fields)
	}

	user, err := as.db.Users.FindByPhone(as.db.DB.WithContext(ctx), strings.TrimSpace(req.Phone))
	if err != nil {
		if base.IsEntityNotFound(err) {
			return nil, utils.NewUnauthorizedError("Invalid credentials")
		}
		return nil, utils.NewInternalServerError("Failed to log in", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, utils.NewUnauthorizedError("Invalid credentials")
	}

	token, err := as.IssueToken(user)
	if err != nil {
		return nil, utils.NewInternalServerError("Failed to issue token", err)
	}

	as.logger.Info("User logged in", "user_id", user.ID)
	return &models.LoginResponse{User: user, Token: token}, nil
}

// IssueToken signs an HS256 token for user.
func (as *AuthService) IssueToken(user *models.User) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    tokenIssuer,
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(as.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(as.secret)
}

// Authenticate verifies a bearer token and loads the user it names.
func (as *AuthService) Authenticate(ctx context.Context, token string) (*Principal, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	claims := &tokenClaims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return as.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, utils.NewUnauthorizedError("Unauthenticated")
	}

	userID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || userID == 0 || claims.ID == "" {
		return nil, utils.NewUnauthorizedError("Unauthenticated")
	}

	revoked, err := as.denylist.IsTokenRevoked(ctx, claims.ID)
	if err != nil {
		return nil, utils.NewInternalServerError("Failed to check token", err)
	}
	if revoked {
		return nil, utils.NewUnauthorizedError("Unauthenticated")
	}

	user, err := as.db.Users.GetByID(as.db.DB.WithContext(ctx), uint(userID))
	if err != nil {
		if base.IsEntityNotFound(err) {
			return nil, utils.NewUnauthorizedError("Unauthenticated")
		}
		return nil, utils.NewInternalServerError("Failed to load user", err)
	}

	return &Principal{User: user, TokenID: claims.ID, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// Logout revokes the principal's token for the rest of its lifetime.
func (as *AuthService) Logout(ctx context.Context, principal *Principal) error {
	ttl := time.Until(principal.ExpiresAt)
	if err := as.denylist.RevokeToken(ctx, principal.TokenID, ttl); err != nil {
		return utils.NewInternalServerError("Failed to log out", fmt.Errorf("revoke %s: %w", principal.TokenID, err))
	}
	as.logger.Info("User logged out", "user_id", principal.User.ID)
	return nil
}
