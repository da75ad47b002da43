package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"

	"github.com/dedilute/catalog-backend/config"
	"github.com/dedilute/catalog-backend/entity"
	"github.com/dedilute/catalog-backend/infra"
	"github.com/dedilute/catalog-backend/repository"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memStore) PutObject(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	m.types[key] = contentType
	return nil
}

func (m *memStore) GetObject(ctx context.Context, key string) (*infra.StoredObject, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, infra.ErrObjectNotFound
	}
	return &infra.StoredObject{
		Body:        io.NopCloser(bytes.NewReader(data)),
		ContentType: m.types[key],
		Size:        int64(len(data)),
	}, nil
}

func (m *memStore) DeleteObject(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memStore) Ping(ctx context.Context) error { return nil }

func (m *memStore) Bucket() string { return "media" }

type testEnv struct {
	ctrl  *Controller
	repo  *repository.Repository
	store *memStore
}

func testConfig() *config.Config {
	env := &config.EnvConfig{}
	env.JWT.SecretKey = "test-secret"
	env.JWT.Expire = 3600
	env.JWT.CookieName = "auth_token"
	env.Storage.MaxFileSize = 1024
	env.Storage.MaxFiles = 10
	env.Storage.ProxyPath = config.DefaultProxyPath
	env.Storage.KeyPrefix = "staging"
	env.Permission.Mapping = map[string]string{"ADMIN": "ADMIN"}
	env.Environment.Mode = "test"
	return &config.Config{EnvConfig: env}
}

// newTestEnv builds a controller over sqlite and an in-memory object store.
// withStorage=false leaves the store unconfigured.
func newTestEnv(t *testing.T, withStorage bool) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, repository.Migrate(db))

	env := &testEnv{repo: repository.NewRepository(db), store: newMemStore()}
	inf := &infra.Infra{Logger: infra.NewNopLogger()}
	if withStorage {
		inf.Storage = env.store
	}
	env.ctrl = NewController(testConfig(), inf, env.repo)
	return env
}

func (e *testEnv) product(t *testing.T, slug string, active bool) *entity.Product {
	t.Helper()
	p := &entity.Product{Slug: slug, Name: "Product " + slug, Price: 10, IsActive: active}
	require.NoError(t, e.repo.ProductRepo.Create(context.Background(), p))
	return p
}

// asUser stands in for the auth middleware.
func asUser(id int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", id)
		c.Next()
	}
}

type part struct {
	name        string
	filename    string
	contentType string
	body        string
}

func multipartBody(t *testing.T, fields map[string]string, files ...part) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.name, f.filename))
		h.Set("Content-Type", f.contentType)
		pw, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = pw.Write([]byte(f.body))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf, w.FormDataContentType()
}

func doJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}
