package handlers

import (
	"log/slog"
	"net/http"

	"robot-manager/metrics"
	"robot-manager/services"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// RouterOptions carries everything the HTTP surface is built from.
type RouterOptions struct {
	Auth    *services.AuthService
	Robots  *services.RobotService
	Metrics *metrics.Metrics
	Logger  *slog.Logger

	// Tracing wraps every request when set.
	Tracing func(http.Handler) http.Handler

	// PublicRoot is served at PublicURL so local-disk URLs resolve.
	PublicRoot string
	PublicURL  string

	BodyLimit      string
	DefaultPerPage int
	MaxPerPage     int
}

// NewRouter builds the echo application with all routes registered.
func NewRouter(opts RouterOptions) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	SetErrorLogger(opts.Logger)
	e.HTTPErrorHandler = CustomHTTPErrorHandler

	e.Use(middleware.Recover())
	if opts.Tracing != nil {
		e.Use(echo.WrapMiddleware(opts.Tracing))
	}
	e.Use(RequestLogger(opts.Logger, opts.Metrics))
	e.Use(middleware.CORS())
	if opts.BodyLimit != "" {
		e.Use(middleware.BodyLimit(opts.BodyLimit))
	}

	apiHandler := NewAPIHandler()
	e.GET("/health", apiHandler.HealthCheck)
	if opts.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(opts.Metrics.Handler()))
	}
	if opts.PublicRoot != "" && opts.PublicURL != "" {
		e.Static(opts.PublicURL, opts.PublicRoot)
	}

	requireAuth := RequireAuth(opts.Auth)

	authHandler := NewAuthHandler(opts.Auth)
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/logout", authHandler.Logout, requireAuth)
	e.GET("/auth/me", authHandler.Me, requireAuth)

	robotHandler := NewRobotHandler(opts.Robots, opts.DefaultPerPage, opts.MaxPerPage)
	e.GET("/robots", robotHandler.List, requireAuth)
	e.POST("/robots", robotHandler.Create, requireAuth)
	e.GET("/robots/:id", robotHandler.Show, requireAuth)
	e.PUT("/robots/:id", robotHandler.Update, requireAuth)
	e.PATCH("/robots/:id", robotHandler.Update, requireAuth)
	e.DELETE("/robots/:id", robotHandler.Delete, requireAuth)
	e.GET("/robots/:id/files/:fileId/download", robotHandler.Download, requireAuth)

	return e
}
