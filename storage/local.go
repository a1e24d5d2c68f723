package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalDisk stores blobs under a directory served at baseURL.
type LocalDisk struct {
	name    string
	root    string
	baseURL string
}

// NewLocalDisk creates a filesystem disk rooted at root.
func NewLocalDisk(name, root, baseURL string) (*LocalDisk, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root %s: %w", root, err)
	}
	return &LocalDisk{
		name:    name,
		root:    root,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

func (d *LocalDisk) Name() string { return d.name }

func (d *LocalDisk) Put(_ context.Context, path string, data []byte, _ string) error {
	full, err := d.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func (d *LocalDisk) Open(_ context.Context, path string) (io.ReadCloser, int64, error) {
	full, err := d.resolve(path)
	if err != nil {
		return nil, 0, err
	}
	f, err := os.Open(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, 0, ErrBlobNotFound
		}
		return nil, 0, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, err
	}
	if info.IsDir() {
		f.Close()
		return nil, 0, ErrBlobNotFound
	}
	return f, info.Size(), nil
}

func (d *LocalDisk) Delete(_ context.Context, path string) error {
	full, err := d.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (d *LocalDisk) URL(path string) string {
	return d.baseURL + "/" + strings.TrimLeft(path, "/")
}

// resolve maps a blob path into the root, rejecting paths that escape it.
func (d *LocalDisk) resolve(path string) (string, error) {
	clean := filepath.Clean("/" + filepath.FromSlash(path))
	if clean == string(filepath.Separator) {
		return "", fmt.Errorf("invalid blob path %q", path)
	}
	return filepath.Join(d.root, clean), nil
}
