package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io/fs"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"robot-manager/database"
	"robot-manager/internal/testdb"
	"robot-manager/logging"
	"robot-manager/metrics"
	"robot-manager/models"
	"robot-manager/storage"
	"robot-manager/utils"

	"github.com/stretchr/testify/require"
)

const testAppURL = "http://app.test"

type memoryCache struct {
	mu      sync.Mutex
	robots  map[uint]*models.Robot
	revoked map[string]time.Duration
}

func newMemoryCache() *memoryCache {
	return &memoryCache{robots: map[uint]*models.Robot{}, revoked: map[string]time.Duration{}}
}

func (c *memoryCache) GetRobot(_ context.Context, robotID uint) (*models.Robot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.robots[robotID], nil
}

func (c *memoryCache) SaveRobot(_ context.Context, robot *models.Robot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.robots[robot.ID] = robot
	return nil
}

func (c *memoryCache) InvalidateRobot(_ context.Context, robotID uint) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.robots, robotID)
	return nil
}

func (c *memoryCache) RevokeToken(_ context.Context, jti string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.revoked[jti] = ttl
	return nil
}

func (c *memoryCache) IsTokenRevoked(_ context.Context, jti string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.revoked[jti]
	return ok, nil
}

func (c *memoryCache) cached(robotID uint) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.robots[robotID]
	return ok
}

// stickyCache keeps every entry, like a cache whose invalidations fail.
type stickyCache struct {
	*memoryCache
}

func (stickyCache) InvalidateRobot(context.Context, uint) error {
	return errors.New("redis: connection reset")
}

type eventRecorder struct {
	mu     sync.Mutex
	events []models.RobotEvent
}

func (r *eventRecorder) PublishRobotEvent(_ context.Context, event models.RobotEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *eventRecorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.events))
	for _, e := range r.events {
		names = append(names, e.Event)
	}
	return names
}

// failingStore lets the first allow writes through and fails the rest.
type failingStore struct {
	BlobStore
	allow int
	calls int
}

func (s *failingStore) Store(ctx context.Context, dir, filename string, data []byte, mimeType string) (storage.Blob, error) {
	s.calls++
	if s.calls > s.allow {
		return storage.Blob{}, errors.New("disk full")
	}
	return s.BlobStore.Store(ctx, dir, filename, data, mimeType)
}

type fixture struct {
	db     *database.Database
	store  *storage.Manager
	root   string
	cache  *memoryCache
	events *eventRecorder
	svc    *RobotService

	owner *models.User
	other *models.User
	admin *models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testdb.Open(t)
	root := t.TempDir()
	disk, err := storage.NewLocalDisk(storage.DiskPublic, root, "/storage")
	require.NoError(t, err)
	store, err := storage.NewManager(testAppURL, storage.DiskPublic, logging.Discard(), disk)
	require.NoError(t, err)

	f := &fixture{
		db:     db,
		store:  store,
		root:   root,
		cache:  newMemoryCache(),
		events: &eventRecorder{},
		owner:  testdb.CreateUser(t, db, "Owner", "5511900000001", "secret", false),
		other:  testdb.CreateUser(t, db, "Other", "5511900000002", "secret", false),
		admin:  testdb.CreateUser(t, db, "Admin", "5511900000003", "secret", true),
	}
	f.svc = NewRobotService(db, store, f.cache, f.events, metrics.New(), 1<<20, logging.Discard())
	return f
}

func (f *fixture) ownerCaller() models.Caller { return models.Caller{UserID: f.owner.ID} }
func (f *fixture) otherCaller() models.Caller { return models.Caller{UserID: f.other.ID} }
func (f *fixture) adminCaller() models.Caller {
	return models.Caller{UserID: f.admin.ID, IsSuperAdmin: true}
}

// create stores a robot for the owner and fails the test on error.
func (f *fixture) create(t *testing.T, req *models.CreateRobotRequest) *models.Robot {
	t.Helper()
	robot, err := f.svc.Create(context.Background(), f.ownerCaller(), req)
	require.NoError(t, err)
	return robot
}

func (f *fixture) count(t *testing.T, model interface{}, robotID uint) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.DB.Model(model).Where("robot_id = ?", robotID).Count(&n).Error)
	return n
}

func (f *fixture) blobExists(t *testing.T, disk, path string) bool {
	t.Helper()
	r, _, err := f.store.Open(context.Background(), disk, path)
	if errors.Is(err, storage.ErrBlobNotFound) {
		return false
	}
	require.NoError(t, err)
	require.NoError(t, r.Close())
	return true
}

func (f *fixture) storedFiles(t *testing.T) int {
	t.Helper()
	n := 0
	err := filepath.WalkDir(f.root, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			n++
		}
		return nil
	})
	require.NoError(t, err)
	return n
}

func versions(t *testing.T, f *fixture, robotID uint) []models.RobotVersion {
	t.Helper()
	rows, err := f.db.Versions.ListByRobot(f.db.DB, robotID)
	require.NoError(t, err)
	return rows
}

func pngUpload(t *testing.T, name string, w, h int) models.Upload {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return models.Upload{Filename: name, MimeType: "image/png", Data: buf.Bytes()}
}

func scriptUpload(name, body string) models.Upload {
	return models.Upload{Filename: name, Data: []byte(body)}
}

func param(key, value string) models.ParameterInput {
	return models.ParameterInput{
		Key:   key,
		Label: key + " label",
		Type:  models.ParameterTypeNumber,
		Value: json.RawMessage(value),
	}
}

func baseCreate(name, code string) *models.CreateRobotRequest {
	return &models.CreateRobotRequest{
		Name:     name,
		Language: models.LanguagePython,
		Code:     code,
	}
}

func requireAppError(t *testing.T, err error, code int) *utils.AppError {
	t.Helper()
	require.Error(t, err)
	appErr, ok := utils.AsAppError(err)
	require.True(t, ok, "expected *utils.AppError, got %T: %v", err, err)
	require.Equal(t, code, appErr.Code, appErr.Message)
	return appErr
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool { return &b }
func uintPtr(u uint) *uint { return &u }
func intPtr(i int) *int { return &i }

func itoa(u uint) string { return strconv.FormatUint(uint64(u), 10) }
