package storage

import (
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	// Decoders registered for image.DecodeConfig.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"robot-manager/config"

	"github.com/google/uuid"
)

// Blob locates one stored object.
type Blob struct {
	Disk string
	Path string
	URL  string
}

// Manager routes blob operations to named disks and writes new blobs to
// the default one.
type Manager struct {
	disks       map[string]Disk
	defaultDisk string
	appURL      string
	logger      *slog.Logger
}

// NewManager registers disks; defaultDisk must be one of them.
func NewManager(appURL, defaultDisk string, logger *slog.Logger, disks ...Disk) (*Manager, error) {
	m := &Manager{
		disks:       make(map[string]Disk, len(disks)),
		defaultDisk: defaultDisk,
		appURL:      strings.TrimRight(appURL, "/"),
		logger:      logger.With("component", "storage"),
	}
	for _, d := range disks {
		m.disks[d.Name()] = d
	}
	if _, ok := m.disks[defaultDisk]; !ok {
		return nil, fmt.Errorf("storage disk %q is not configured", defaultDisk)
	}
	return m, nil
}

// NewManagerFromConfig always mounts the public disk and mounts s3 when a
// bucket is configured.
func NewManagerFromConfig(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Manager, error) {
	public, err := NewLocalDisk(DiskPublic, cfg.StoragePublicRoot, cfg.StoragePublicURL)
	if err != nil {
		return nil, err
	}
	disks := []Disk{public}

	if cfg.S3Bucket != "" {
		s3Disk, err := NewS3Disk(ctx, S3Options{
			Endpoint:       cfg.S3Endpoint,
			Region:         cfg.S3Region,
			Bucket:         cfg.S3Bucket,
			AccessKey:      cfg.S3AccessKey,
			SecretKey:      cfg.S3SecretKey,
			ForcePathStyle: cfg.S3ForcePathStyle,
			PublicURL:      cfg.S3PublicURL,
		})
		if err != nil {
			return nil, err
		}
		disks = append(disks, s3Disk)
	}

	return NewManager(cfg.AppURL, cfg.StorageDisk, logger, disks...)
}

// Store writes data under dir with a random name that keeps the original
// extension, and returns where it went.
func (m *Manager) Store(ctx context.Context, dir, filename string, data []byte, mimeType string) (Blob, error) {
	name := uuid.NewString()
	if ext := Extension(filename); ext != "" {
		name += "." + ext
	}
	blobPath := path.Join(dir, name)

	disk := m.disks[m.defaultDisk]
	if err := disk.Put(ctx, blobPath, data, mimeType); err != nil {
		return Blob{}, err
	}
	return Blob{Disk: disk.Name(), Path: blobPath, URL: disk.URL(blobPath)}, nil
}

// URL resolves the public locator of a blob.
func (m *Manager) URL(diskName, blobPath string) string {
	disk, err := m.disk(diskName)
	if err != nil {
		return ""
	}
	return disk.URL(blobPath)
}

// Delete removes a blob. Missing blobs and unknown disks are not errors.
func (m *Manager) Delete(ctx context.Context, diskName, blobPath string) error {
	if blobPath == "" {
		return nil
	}
	disk, err := m.disk(diskName)
	if err != nil {
		m.logger.Warn("Delete on unknown disk ignored", "disk", diskName, "path", blobPath)
		return nil
	}
	return disk.Delete(ctx, blobPath)
}

// Open streams a blob; ErrBlobNotFound when it is absent.
func (m *Manager) Open(ctx context.Context, diskName, blobPath string) (io.ReadCloser, int64, error) {
	disk, err := m.disk(diskName)
	if err != nil {
		return nil, 0, ErrBlobNotFound
	}
	return disk.Open(ctx, blobPath)
}

// Dimensions reads the pixel size of a stored image. Any failure yields
// nil, nil: missing dimensions never fail a write.
func (m *Manager) Dimensions(ctx context.Context, diskName, blobPath string) (width, height *int) {
	r, _, err := m.Open(ctx, diskName, blobPath)
	if err != nil {
		m.logger.Debug("Dimensions unavailable", "disk", diskName, "path", blobPath, "error", err)
		return nil, nil
	}
	defer r.Close()

	w, h, ok := ReadDimensions(r)
	if !ok {
		return nil, nil
	}
	return &w, &h
}

// AbsoluteURL normalizes a stored image URL for responses: absolute URLs
// pass through, root-relative ones get the application URL, and an empty
// one is rebuilt from disk and path.
func (m *Manager) AbsoluteURL(stored *string, diskName, blobPath string) string {
	u := ""
	if stored != nil {
		u = *stored
	}
	if u == "" {
		u = m.URL(diskName, blobPath)
	}
	if u == "" {
		return ""
	}
	if strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
		return u
	}
	return m.appURL + "/" + strings.TrimLeft(u, "/")
}

func (m *Manager) disk(name string) (Disk, error) {
	disk, ok := m.disks[name]
	if !ok {
		return nil, fmt.Errorf("storage disk %q is not configured", name)
	}
	return disk, nil
}

// ReadDimensions decodes only the image header.
func ReadDimensions(r io.Reader) (width, height int, ok bool) {
	cfg, _, err := image.DecodeConfig(r)
	if err != nil || cfg.Width <= 0 || cfg.Height <= 0 {
		return 0, 0, false
	}
	return cfg.Width, cfg.Height, true
}

// Extension returns the lower-cased extension of filename without the dot.
func Extension(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}
