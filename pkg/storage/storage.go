package storage

import (
	"context"
	"io"
	"time"
)

// ObjectStore persists rendered exports. LocalStorage and MinIOStorage implement it.
type ObjectStore interface {
	Save(ctx context.Context, name string, data []byte, contentType string) (string, error)
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Delete(ctx context.Context, name string) error
	CleanupOlderThan(ctx context.Context, ttl time.Duration) ([]string, error)
}
