package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"robot-manager/config"
	"robot-manager/database"
	"robot-manager/handlers"
	"robot-manager/logging"
	"robot-manager/metrics"
	"robot-manager/mqtt"
	"robot-manager/redis"
	"robot-manager/services"
	"robot-manager/storage"
	"robot-manager/telemetry"

	"github.com/spf13/cobra"
)

var (
	cfg    *config.Config
	logger *slog.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "robot-manager",
	Short:        "Robot catalog API",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.LoadConfig()
		logger = logging.NewLogger(cfg.LogLevel)
		slog.SetDefault(logger)
	},
}

func init() {
	migrateCmd.Flags().Bool("seed", false, "create the configured super-admin after migrating")
	tokenCmd.Flags().Uint("user-id", 0, "issue for the user with this id")
	tokenCmd.Flags().String("phone", "", "issue for the user with this phone")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(tokenCmd)
}

// cacheClient is the Redis surface the services use.
type cacheClient interface {
	services.RobotCache
	services.TokenDenylist
	Close() error
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func serve(ctx context.Context) error {
	shutdownTracing, tracing, err := telemetry.Init(ctx, "robot-manager", cfg.OTelEndpoint)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Error("Tracing shutdown failed", slog.Any("error", err))
		}
	}()

	db, err := database.NewDatabase(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	store, err := storage.NewManagerFromConfig(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	var cache cacheClient = redis.NoopClient{}
	if cfg.RedisEnabled {
		redisClient, err := redis.NewRedisClient(cfg, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize Redis: %w", err)
		}
		cache = redisClient
	}
	defer cache.Close()

	var events services.EventPublisher = mqtt.NoopPublisher{}
	if cfg.MQTTBroker != "" {
		mqttClient, err := mqtt.NewClient(cfg, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize MQTT client: %w", err)
		}
		defer mqttClient.Disconnect()
		events = mqttClient
	}

	m := metrics.New()

	authService, err := services.NewAuthService(db, cache, cfg.JWTSecret, cfg.JWTTTL, logger)
	if err != nil {
		return err
	}
	robotService := services.NewRobotService(db, store, cache, events, m, cfg.UploadMaxBytes, logger)

	router := handlers.NewRouter(handlers.RouterOptions{
		Auth:           authService,
		Robots:         robotService,
		Metrics:        m,
		Logger:         logger,
		Tracing:        tracing,
		PublicRoot:     cfg.StoragePublicRoot,
		PublicURL:      cfg.StoragePublicURL,
		BodyLimit:      cfg.HTTPBodyLimit,
		DefaultPerPage: cfg.DefaultPerPage,
		MaxPerPage:     cfg.MaxPerPage,
	})

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", slog.Any("error", err))
	}
	logger.Info("Server stopped")
	return nil
}
