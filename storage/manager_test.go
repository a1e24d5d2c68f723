package storage

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"io"
	"strings"
	"testing"

	"robot-manager/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	disk, err := NewLocalDisk(DiskPublic, t.TempDir(), "/storage/")
	require.NoError(t, err)
	m, err := NewManager("http://app.test/", DiskPublic, logging.Discard(), disk)
	require.NoError(t, err)
	return m
}

func TestNewManagerRequiresDefaultDisk(t *testing.T) {
	disk, err := NewLocalDisk(DiskPublic, t.TempDir(), "/storage")
	require.NoError(t, err)

	_, err = NewManager("http://app.test", DiskS3, logging.Discard(), disk)
	assert.Error(t, err)
}

func TestStoreOpenDelete(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	blob, err := m.Store(ctx, "robots/7", "Report.PDF", []byte("hello"), "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, DiskPublic, blob.Disk)
	assert.True(t, strings.HasPrefix(blob.Path, "robots/7/"), blob.Path)
	assert.True(t, strings.HasSuffix(blob.Path, ".pdf"), blob.Path)
	assert.Equal(t, "/storage/"+blob.Path, blob.URL)

	r, size, err := m.Open(ctx, blob.Disk, blob.Path)
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	assert.Equal(t, "hello", string(data))
	assert.EqualValues(t, 5, size)

	require.NoError(t, m.Delete(ctx, blob.Disk, blob.Path))
	require.NoError(t, m.Delete(ctx, blob.Disk, blob.Path), "deleting twice is fine")
	require.NoError(t, m.Delete(ctx, "missing-disk", blob.Path))

	_, _, err = m.Open(ctx, blob.Disk, blob.Path)
	assert.True(t, errors.Is(err, ErrBlobNotFound))
	_, _, err = m.Open(ctx, "missing-disk", blob.Path)
	assert.True(t, errors.Is(err, ErrBlobNotFound))
}

func TestLocalDiskKeepsPathsInsideRoot(t *testing.T) {
	root := t.TempDir()
	disk, err := NewLocalDisk(DiskPublic, root, "/storage")
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, disk.Put(ctx, "../../escape.txt", []byte("x"), "text/plain"))
	r, _, err := disk.Open(ctx, "escape.txt")
	require.NoError(t, err, "parent segments are clamped to the root")
	require.NoError(t, r.Close())

	assert.Error(t, disk.Put(ctx, "/", []byte("x"), "text/plain"))
}

func TestDimensions(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 5, 7))))
	blob, err := m.Store(ctx, "robots/1", "a.png", buf.Bytes(), "image/png")
	require.NoError(t, err)

	w, h := m.Dimensions(ctx, blob.Disk, blob.Path)
	require.NotNil(t, w)
	require.NotNil(t, h)
	assert.Equal(t, 5, *w)
	assert.Equal(t, 7, *h)

	blob, err = m.Store(ctx, "robots/1", "b.png", []byte("not an image"), "image/png")
	require.NoError(t, err)
	w, h = m.Dimensions(ctx, blob.Disk, blob.Path)
	assert.Nil(t, w)
	assert.Nil(t, h)

	w, h = m.Dimensions(ctx, DiskPublic, "robots/1/missing.png")
	assert.Nil(t, w)
	assert.Nil(t, h)
}

func TestAbsoluteURL(t *testing.T) {
	m := newTestManager(t)

	absolute := "https://cdn.test/a.png"
	relative := "/storage/robots/1/a.png"
	bare := "storage/robots/1/b.png"
	empty := ""

	assert.Equal(t, absolute, m.AbsoluteURL(&absolute, DiskPublic, "robots/1/a.png"))
	assert.Equal(t, "http://app.test/storage/robots/1/a.png", m.AbsoluteURL(&relative, DiskPublic, "robots/1/a.png"))
	assert.Equal(t, "http://app.test/storage/robots/1/b.png", m.AbsoluteURL(&bare, DiskPublic, "robots/1/b.png"))
	assert.Equal(t, "http://app.test/storage/robots/1/c.png", m.AbsoluteURL(&empty, DiskPublic, "robots/1/c.png"))
	assert.Equal(t, "http://app.test/storage/robots/1/d.png", m.AbsoluteURL(nil, DiskPublic, "robots/1/d.png"))
	assert.Empty(t, m.AbsoluteURL(nil, "missing-disk", "robots/1/e.png"))
}

func TestExtension(t *testing.T) {
	assert.Equal(t, "mq5", Extension("Robot.MQ5"))
	assert.Equal(t, "gz", Extension("archive.tar.gz"))
	assert.Empty(t, Extension("Makefile"))
}
