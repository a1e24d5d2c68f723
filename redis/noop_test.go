package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNoopClientNeverCachesOrRevokes(t *testing.T) {
	ctx := context.Background()
	var c NoopClient

	robot, err := c.GetRobot(ctx, 1)
	assert.NoError(t, err)
	assert.Nil(t, robot)

	assert.NoError(t, c.RevokeToken(ctx, "jti", time.Minute))
	revoked, err := c.IsTokenRevoked(ctx, "jti")
	assert.NoError(t, err)
	assert.False(t, revoked)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "robot:detail:12", robotKey(12))
	assert.Equal(t, "auth:revoked:abc", revokedKey("abc"))
}
