package services

import (
	"context"
	"io"
	"time"

	"robot-manager/models"
	"robot-manager/storage"
)

// Collaborators the services depend on. Concrete implementations live in
// the storage, redis and mqtt packages; each has a disabled stand-in.

// BlobStore is the file store used for images and attachments.
type BlobStore interface {
	Store(ctx context.Context, dir, filename string, data []byte, mimeType string) (storage.Blob, error)
	Delete(ctx context.Context, disk, path string) error
	Open(ctx context.Context, disk, path string) (io.ReadCloser, int64, error)
	Dimensions(ctx context.Context, disk, path string) (width, height *int)
	AbsoluteURL(stored *string, disk, path string) string
}

// RobotCache holds show payloads keyed by robot id.
type RobotCache interface {
	GetRobot(ctx context.Context, robotID uint) (*models.Robot, error)
	SaveRobot(ctx context.Context, robot *models.Robot) error
	InvalidateRobot(ctx context.Context, robotID uint) error
}

// TokenDenylist records logged-out tokens until they expire.
type TokenDenylist interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
}

// EventPublisher announces committed robot writes.
type EventPublisher interface {
	PublishRobotEvent(ctx context.Context, event models.RobotEvent) error
}

// Operation labels for metrics and logs.
const (
	OpCreate   = "create"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpShow     = "show"
	OpList     = "list"
	OpDownload = "download"
)

// Blob kinds for metrics.
const (
	BlobKindImage = "image"
	BlobKindFile  = "file"
)
