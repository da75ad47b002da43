package infra

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dedilute/catalog-backend/config"
)

var ErrObjectNotFound = errors.New("object not found")

type StoredObject struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

// ObjectStore is the subset of an S3-compatible API the media service needs.
// Keys are full bucket keys; callers apply any prefix.
type ObjectStore interface {
	PutObject(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	// GetObject returns ErrObjectNotFound before any bytes are read when key is missing.
	GetObject(ctx context.Context, key string) (*StoredObject, error)
	DeleteObject(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Bucket() string
}

// InitObjectStore returns nil without error when storage is not configured.
func InitObjectStore(ctx context.Context, cfg *config.EnvConfig) (ObjectStore, error) {
	if !cfg.StorageReady() {
		return nil, nil
	}

	switch cfg.Storage.Driver {
	case "s3":
		return NewS3Client(ctx, cfg)
	case "minio", "":
		return NewMinioClient(cfg)
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.Storage.Driver)
	}
}
