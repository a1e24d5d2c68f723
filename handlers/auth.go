package handlers

import (
	"net/http"
	"strings"

	"robot-manager/handlers/base"
	"robot-manager/models"
	"robot-manager/services"
	"robot-manager/utils"

	"github.com/labstack/echo/v4"
)

const principalKey = "principal"

// AuthHandler handles login, logout and the current-user endpoint.
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new instance of AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login exchanges phone + password for a bearer token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := decodeJSONBody(c, &req); err != nil {
		return err
	}

	resp, err := h.authService.Login(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"user": principal.User})
}

// Logout revokes the presented token.
func (h *AuthHandler) Logout(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}
	if err := h.authService.Logout(c.Request().Context(), principal); err != nil {
		return err
	}
	return base.SendMessageJSON(c, http.StatusOK, "Logged out successfully")
}

// RequireAuth rejects requests without a valid bearer token and stores
// the principal on the context.
func RequireAuth(authService *services.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return utils.NewUnauthorizedError("Unauthenticated")
			}

			principal, err := authService.Authenticate(c.Request().Context(), token)
			if err != nil {
				return err
			}

			c.Set(principalKey, principal)
			return next(c)
		}
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func principalFrom(c echo.Context) (*services.Principal, error) {
	principal, ok := c.Get(principalKey).(*services.Principal)
	if !ok || principal == nil {
		return nil, utils.NewUnauthorizedError("Unauthenticated")
	}
	return principal, nil
}
