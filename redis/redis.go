package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"robot-manager/config"
	"robot-manager/models"

	"github.com/go-redis/redis/v8"
)

// RedisClient caches robot detail payloads and tracks revoked tokens.
type RedisClient struct {
	client   *redis.Client
	cacheTTL time.Duration
	logger   *slog.Logger
}

func NewRedisClient(cfg *config.Config, logger *slog.Logger) (*RedisClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger = logger.With("component", "redis")
	logger.Info("Redis connected successfully", "addr", rdb.Options().Addr)
	return &RedisClient{
		client:   rdb,
		cacheTTL: cfg.CacheTTL,
		logger:   logger,
	}, nil
}

func robotKey(robotID uint) string {
	return fmt.Sprintf("robot:detail:%d", robotID)
}

func revokedKey(jti string) string {
	return fmt.Sprintf("auth:revoked:%s", jti)
}

// GetRobot returns the cached aggregate, or nil when there is no entry.
func (r *RedisClient) GetRobot(ctx context.Context, robotID uint) (*models.Robot, error) {
	val, err := r.client.Get(ctx, robotKey(robotID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get robot from Redis: %w", err)
	}

	var robot models.Robot
	if err := json.Unmarshal(val, &robot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal robot: %w", err)
	}
	return &robot, nil
}

func (r *RedisClient) SaveRobot(ctx context.Context, robot *models.Robot) error {
	robotJSON, err := json.Marshal(robot)
	if err != nil {
		return fmt.Errorf("failed to marshal robot: %w", err)
	}

	if err := r.client.Set(ctx, robotKey(robot.ID), robotJSON, r.cacheTTL).Err(); err != nil {
		return fmt.Errorf("failed to save robot to Redis: %w", err)
	}
	return nil
}

func (r *RedisClient) InvalidateRobot(ctx context.Context, robotID uint) error {
	if err := r.client.Del(ctx, robotKey(robotID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate robot in Redis: %w", err)
	}
	return nil
}

// RevokeToken denylists a token id until it would have expired anyway.
func (r *RedisClient) RevokeToken(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, revokedKey(jti), time.Now().Unix(), ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token in Redis: %w", err)
	}
	return nil
}

func (r *RedisClient) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.client.Exists(ctx, revokedKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token in Redis: %w", err)
	}
	return n > 0, nil
}

func (r *RedisClient) Close() error {
	return r.client.Close()
}
