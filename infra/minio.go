package infra

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dedilute/catalog-backend/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinioClient struct {
	Client   *minio.Client
	Endpoint string
	bucket   string
}

func NewMinioClient(cfg *config.EnvConfig) (*MinioClient, error) {
	endpoint := cfg.Storage.Endpoint
	secure := cfg.Storage.UseSSL
	// minio-go wants host[:port]; the scheme decides TLS
	switch {
	case strings.HasPrefix(endpoint, "https://"):
		endpoint, secure = strings.TrimPrefix(endpoint, "https://"), true
	case strings.HasPrefix(endpoint, "http://"):
		endpoint, secure = strings.TrimPrefix(endpoint, "http://"), false
	}
	endpoint = strings.TrimRight(endpoint, "/")

	client, err := minio.New(endpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.Storage.AccessKey, cfg.Storage.SecretKey, ""),
		Secure:       secure,
		Region:       cfg.Storage.Region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MinIO client: %w", err)
	}

	return &MinioClient{
		Client:   client,
		Endpoint: endpoint,
		bucket:   cfg.Storage.Bucket,
	}, nil
}

func (m *MinioClient) Bucket() string {
	return m.bucket
}

func (m *MinioClient) PutObject(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	_, err := m.Client.PutObject(ctx, m.bucket, key, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload object %s: %w", key, err)
	}
	return nil
}

func (m *MinioClient) GetObject(ctx context.Context, key string) (*StoredObject, error) {
	obj, err := m.Client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, m.translate(key, err)
	}

	// GetObject is lazy; Stat forces the request so a missing key fails here
	info, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		return nil, m.translate(key, err)
	}

	contentType := info.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &StoredObject{
		Body:        obj,
		ContentType: contentType,
		Size:        info.Size,
	}, nil
}

func (m *MinioClient) DeleteObject(ctx context.Context, key string) error {
	if err := m.Client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return m.translate(key, err)
	}
	return nil
}

func (m *MinioClient) Ping(ctx context.Context) error {
	exists, err := m.Client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("failed to reach bucket %s: %w", m.bucket, err)
	}
	if !exists {
		return fmt.Errorf("bucket %s does not exist", m.bucket)
	}
	return nil
}

func (m *MinioClient) translate(key string, err error) error {
	resp := minio.ToErrorResponse(err)
	if resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s: %w", key, ErrObjectNotFound)
	}
	return fmt.Errorf("object store request for %s failed: %w", key, err)
}
