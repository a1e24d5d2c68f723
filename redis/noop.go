package redis

import (
	"context"
	"time"

	"robot-manager/models"
)

// NoopClient stands in when Redis is disabled: nothing is cached and no
// token is ever revoked.
type NoopClient struct{}

func (NoopClient) GetRobot(context.Context, uint) (*models.Robot, error) { return nil, nil }
func (NoopClient) SaveRobot(context.Context, *models.Robot) error         { return nil }
func (NoopClient) InvalidateRobot(context.Context, uint) error            { return nil }

func (NoopClient) RevokeToken(context.Context, string, time.Duration) error { return nil }
func (NoopClient) IsTokenRevoked(context.Context, string) (bool, error)     { return false, nil }

func (NoopClient) Close() error { return nil }
