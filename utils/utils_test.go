package utils

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/dedilute/catalog-backend/config"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.EnvConfig {
	cfg := &config.EnvConfig{}
	cfg.JWT.SecretKey = "test-secret"
	cfg.JWT.Expire = 3600
	cfg.JWT.CookieName = "auth_token"
	return cfg
}

func TestTokenRoundTrip(t *testing.T) {
	cfg := testConfig()

	token, err := GenerateToken(7, "admin@example.com", cfg)
	require.NoError(t, err)

	claims, err := ParseToken(token, cfg)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, "admin@example.com", claims.Email)
}

func TestParseTokenRejectsWrongSecretAndExpired(t *testing.T) {
	cfg := testConfig()
	token, err := GenerateToken(7, "a@example.com", cfg)
	require.NoError(t, err)

	other := testConfig()
	other.JWT.SecretKey = "other"
	_, err = ParseToken(token, other)
	assert.Error(t, err)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: 7,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	signed, err := expired.SignedString([]byte(cfg.JWT.SecretKey))
	require.NoError(t, err)
	_, err = ParseToken(signed, cfg)
	assert.Error(t, err)
}

func TestExtractToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testConfig()

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.AddCookie(&http.Cookie{Name: "auth_token", Value: "from-cookie"})
	c.Request.Header.Set("Authorization", "Bearer from-header")
	assert.Equal(t, "from-cookie", ExtractToken(c, cfg))

	c, _ = gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.Header.Set("Authorization", "bearer from-header")
	assert.Equal(t, "from-header", ExtractToken(c, cfg))

	c, _ = gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.Header.Set("Authorization", "Basic abc")
	assert.Empty(t, ExtractToken(c, cfg))
}

func TestJSONErrorAborts(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	JSON403(c, "Forbidden")

	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"error":"Forbidden"}`, w.Body.String())
}

func TestCacheKeyIgnoresQueryOrder(t *testing.T) {
	a := CacheKey("products_public:", "/api/products/public", url.Values{"limit": {"10"}, "offset": {"0"}})
	b := CacheKey("products_public:", "/api/products/public", url.Values{"offset": {"0"}, "limit": {"10"}})
	c := CacheKey("products_public:", "/api/products/public", url.Values{"limit": {"20"}})

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Contains(t, a, "products_public:")
	assert.Len(t, a, len("products_public:")+64)
}
