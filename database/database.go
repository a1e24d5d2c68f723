package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"robot-manager/config"
	"robot-manager/models"
	"robot-manager/repositories"
	"robot-manager/repositories/interfaces"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// gormLogger adapts slog to be used as a GORM logger.
type gormLogger struct {
	slogger *slog.Logger
	level   logger.LogLevel
}

// Implement the GORM logger interface
func (l *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	return &gormLogger{slogger: l.slogger, level: level}
}
func (l *gormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= logger.Info {
		l.slogger.InfoContext(ctx, msg, "gorm_data", data)
	}
}
func (l *gormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= logger.Warn {
		l.slogger.WarnContext(ctx, msg, "gorm_data", data)
	}
}
func (l *gormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= logger.Error {
		l.slogger.ErrorContext(ctx, msg, "gorm_data", data)
	}
}
func (l *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.level <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()
	attrs := []slog.Attr{
		slog.String("latency", elapsed.String()),
		slog.String("sql", sql),
		slog.Int64("rows_affected", rows),
	}

	// Record-not-found is a normal outcome for access-scoped lookups.
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		attrs = append(attrs, slog.Any("error", err))
		l.slogger.LogAttrs(ctx, slog.LevelError, "GORM Trace", attrs...)
	} else {
		l.slogger.LogAttrs(ctx, slog.LevelDebug, "GORM Trace", attrs...)
	}
}

// Database holds the DB connection, all repository instances, and the UnitOfWork.
type Database struct {
	DB         *gorm.DB
	UoW        UnitOfWorkInterface
	Users      interfaces.UserRepositoryInterface
	Robots     interfaces.RobotRepositoryInterface
	Parameters interfaces.ParameterRepositoryInterface
	Images     interfaces.ImageRepositoryInterface
	Files      interfaces.FileRepositoryInterface
	Versions   interfaces.VersionRepositoryInterface

	logger *slog.Logger
}

// DSN builds the postgres connection string from configuration.
func DSN(cfg *config.Config) string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort, cfg.DBSSLMode, cfg.DBTimeZone)
}

// NewDatabase connects to postgres and initializes repositories.
func NewDatabase(cfg *config.Config, appLogger *slog.Logger) (*Database, error) {
	appLogger.Info("Connecting to database...", "component", "database", "host", cfg.DBHost, "port", cfg.DBPort, "user", cfg.DBUser)
	return Open(postgres.Open(DSN(cfg)), appLogger)
}

// Open connects through any gorm dialector; tests pass an in-memory sqlite one.
func Open(dialector gorm.Dialector, appLogger *slog.Logger) (*Database, error) {
	dbLogger := appLogger.With("component", "database")

	// Configure GORM to use our structured logger
	newGormLogger := &gormLogger{slogger: dbLogger}
	gormConfig := &gorm.Config{
		Logger:         newGormLogger.LogMode(logger.Info),
		TranslateError: true,
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	dbLogger.Info("Database connected successfully")

	return &Database{
		DB:         db,
		UoW:        NewUnitOfWork(db),
		Users:      repositories.NewUserRepository(),
		Robots:     repositories.NewRobotRepository(),
		Parameters: repositories.NewParameterRepository(),
		Images:     repositories.NewImageRepository(),
		Files:      repositories.NewFileRepository(),
		Versions:   repositories.NewVersionRepository(),
		logger:     dbLogger,
	}, nil
}

// Migrate creates or updates every table the service owns.
func (d *Database) Migrate() error {
	d.logger.Info("Starting database migration...")
	err := d.DB.AutoMigrate(
		&models.User{},
		&models.Robot{},
		&models.RobotParameter{},
		&models.RobotImage{},
		&models.RobotFile{},
		&models.RobotVersion{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	d.logger.Info("Database migration completed successfully")
	return nil
}

// Close releases the underlying connection pool.
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
