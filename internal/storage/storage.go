// Package storage keeps uploaded photo bytes, addressed by generated keys.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"receipts-backend/internal/config"
)

var (
	ErrNotFound    = errors.New("storage: object not found")
	ErrInvalidName = errors.New("storage: invalid object name")
	ErrExists      = errors.New("storage: object already exists")
)

type Object struct {
	Name    string
	Size    int64
	ModTime time.Time
}

type Storage interface {
	// Save writes r under name and returns the number of bytes stored.
	// A failed write leaves nothing behind. size may be -1 when unknown.
	Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) (int64, error)
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	// Remove deletes name. A missing object is not an error.
	Remove(ctx context.Context, name string) error
	List(ctx context.Context) ([]Object, error)
}

// New picks the backend named in cfg.Storage.Backend.
func New(ctx context.Context, cfg *config.Config) (Storage, error) {
	switch cfg.Storage.Backend {
	case config.StorageLocal:
		return NewLocal(cfg.Storage.UploadDir)
	case config.StorageS3:
		return NewS3(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// ValidName accepts flat keys only, so a key can never escape its root.
func ValidName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
