package middlewares

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dedilute/catalog-backend/infra"
	"github.com/dedilute/catalog-backend/utils"
	"github.com/gin-gonic/gin"
)

// ResponseStore is satisfied by *infra.RedisClient.
type ResponseStore interface {
	GetRaw(ctx context.Context, key string) ([]byte, error)
	SetRaw(ctx context.Context, key string, data []byte, expiration time.Duration) error
}

type bodyRecorder struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyRecorder) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// ResponseCache serves 200 JSON responses of GET endpoints from the store
// under prefix + sha256(path?query). Store errors fall through to the handler.
func ResponseCache(store ResponseStore, prefix string, ttl time.Duration, logger *infra.LoggerClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store == nil || c.Request.Method != http.MethodGet {
			c.Next()
			return
		}
		ctx := c.Request.Context()
		key := utils.CacheKey(prefix, c.Request.URL.Path, c.Request.URL.Query())

		cached, err := store.GetRaw(ctx, key)
		if err == nil {
			c.Header("X-Cache", "HIT")
			c.Data(http.StatusOK, "application/json; charset=utf-8", cached)
			c.Abort()
			return
		}
		if !errors.Is(err, infra.ErrCacheMiss) {
			logger.WarningWithContextf(ctx, "[Cache] Read of %s failed: %v", key, err)
		}

		rec := &bodyRecorder{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = rec
		c.Header("X-Cache", "MISS")
		c.Next()

		if rec.Status() != http.StatusOK || !strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
			return
		}
		if err := store.SetRaw(ctx, key, rec.body.Bytes(), ttl); err != nil {
			logger.WarningWithContextf(ctx, "[Cache] Write of %s failed: %v", key, err)
		}
	}
}
