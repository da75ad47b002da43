package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/dedilute/catalog-backend/entity"
	"github.com/dedilute/catalog-backend/infra"
	"github.com/dedilute/catalog-backend/repository"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type storedBlob struct {
	data        []byte
	contentType string
}

type fakeStore struct {
	mu        sync.Mutex
	objects   map[string]storedBlob
	gets      []string
	deletes   []string
	failPut   map[string]bool // by filename suffix
	failDel   bool
	putBodies int
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string]storedBlob{}, failPut: map[string]bool{}}
}

func (f *fakeStore) PutObject(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for suffix := range f.failPut {
		if strings.HasSuffix(key, suffix) {
			return errors.New("put refused")
		}
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.putBodies++
	f.objects[key] = storedBlob{data: data, contentType: contentType}
	return nil
}

func (f *fakeStore) GetObject(ctx context.Context, key string) (*infra.StoredObject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets = append(f.gets, key)
	blob, ok := f.objects[key]
	if !ok {
		return nil, infra.ErrObjectNotFound
	}
	return &infra.StoredObject{
		Body:        io.NopCloser(bytes.NewReader(blob.data)),
		ContentType: blob.contentType,
		Size:        int64(len(blob.data)),
	}, nil
}

func (f *fakeStore) DeleteObject(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, key)
	if f.failDel {
		return errors.New("store unavailable")
	}
	delete(f.objects, key)
	return nil
}

func (f *fakeStore) Ping(ctx context.Context) error { return nil }

func (f *fakeStore) Bucket() string { return "media" }

type fakeCache struct {
	calls []string
	err   error
}

func (f *fakeCache) DeleteByPrefix(ctx context.Context, prefix string) (int, error) {
	f.calls = append(f.calls, prefix)
	return 0, f.err
}

type fakePurge struct {
	keys []string
}

func (f *fakePurge) PublishObjectPurge(ctx context.Context, storageKey, reason string) error {
	f.keys = append(f.keys, storageKey)
	return nil
}

type harness struct {
	repo  *repository.Repository
	store *fakeStore
	cache *fakeCache
	purge *fakePurge
	media *MediaService
}

func newHarness(t *testing.T, layout KeyLayout) *harness {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, repository.Migrate(db))

	h := &harness{
		repo:  repository.NewRepository(db),
		store: newFakeStore(),
		cache: &fakeCache{},
		purge: &fakePurge{},
	}
	h.media = NewMediaService(h.repo, h.store, NewCacheInvalidator(h.cache), h.purge, nil, nil, MediaConfig{
		Layout:   layout,
		MaxFiles: 10,
	})
	return h
}

func (h *harness) product(t *testing.T, id int64) {
	t.Helper()
	require.NoError(t, h.repo.ProductRepo.Create(context.Background(), &entity.Product{
		ID:       id,
		Slug:     fmt.Sprintf("product-%d", id),
		Name:     "Product",
		Price:    1,
		IsActive: true,
	}))
}

func file(name, contentType, body string) UploadFile {
	return UploadFile{
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(body)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(body)), nil
		},
	}
}
