package service

import (
	"testing"
	"time"

	"github.com/dedilute/catalog-backend/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedLayout(prefix, base string) KeyLayout {
	l := NewKeyLayout(prefix, base, "/api/media/file/")
	l.now = func() time.Time { return time.UnixMilli(1700000000000) }
	l.newUUID = func() string { return "0d6c3c8e-uuid" }
	return l
}

func TestNewKey(t *testing.T) {
	assert.Equal(t,
		"products/42/gallery/media-1700000000000-0d6c3c8e-uuid.jpg",
		fixedLayout("", "").NewKey("product", 42, entity.PurposeGallery, "Photo.JPG"))
	assert.Equal(t,
		"staging/products/42/thumbnail/media-1700000000000-0d6c3c8e-uuid",
		fixedLayout("/staging/", "").NewKey("product", 42, entity.PurposeThumbnail, "noext"))
}

func TestURLForAndBack(t *testing.T) {
	proxy := fixedLayout("staging", "")
	assert.Equal(t, "/api/media/file/staging/products/1/a.jpg", proxy.URLFor("staging/products/1/a.jpg"))
	assert.Equal(t, "staging/products/1/a.jpg", proxy.KeyFromURL("/api/media/file/staging/products/1/a.jpg"))

	public := fixedLayout("", "https://cdn.example.com/")
	assert.Equal(t, "https://cdn.example.com/products/1/a.jpg", public.URLFor("products/1/a.jpg"))
	assert.Equal(t, "products/1/a.jpg", public.KeyFromURL("https://cdn.example.com/products/1/a.jpg"))
	assert.Equal(t, "products/1/a.jpg", public.KeyFromURL("/api/media/file/products/1/a.jpg"))
	assert.Empty(t, public.KeyFromURL("https://elsewhere.example.com/products/1/a.jpg"))
}

func TestStorageKeyPrefersColumn(t *testing.T) {
	l := fixedLayout("", "")
	assert.Equal(t, "k", l.StorageKey(&entity.Asset{StorageKey: "k", URL: "/api/media/file/other"}))
	assert.Equal(t, "other", l.StorageKey(&entity.Asset{URL: "/api/media/file/other"}))
}

func TestLookupKeys(t *testing.T) {
	assert.Equal(t, []string{"products/1/a.jpg"}, fixedLayout("", "").LookupKeys("products/1/a.jpg"))

	l := fixedLayout("prefix", "")
	assert.Equal(t, []string{"prefix/products/1/a.jpg", "products/1/a.jpg"}, l.LookupKeys("products/1/a.jpg"))
	assert.Equal(t, []string{"prefix/products/1/a.jpg", "products/1/a.jpg"}, l.LookupKeys("prefix/products/1/a.jpg"))
}

func TestCleanKey(t *testing.T) {
	key, err := CleanKey("//products/1/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "products/1/a.jpg", key)

	for _, bad := range []string{"", "/", "a/../b", `a\b`} {
		_, err := CleanKey(bad)
		assert.ErrorIs(t, err, ErrInvalidKey, bad)
	}
}

func TestMimeHelpers(t *testing.T) {
	assert.True(t, SupportedMime("image/webp"))
	assert.True(t, SupportedMime("video/quicktime"))
	assert.False(t, SupportedMime("application/pdf"))
	assert.False(t, SupportedMime(""))

	assert.Equal(t, entity.MediaKindVideo, KindForMime("video/mp4"))
	assert.Equal(t, entity.MediaKindImage, KindForMime("image/gif"))
}

func TestParseInt(t *testing.T) {
	cases := map[string]struct {
		n  int64
		ok bool
	}{
		`7`:     {7, true},
		`"12"`:  {12, true},
		`3.0`:   {3, true},
		`3.5`:   {0, false},
		`"abc"`: {0, false},
		`null`:  {0, false},
		`true`:  {0, false},
		``:      {0, false},
	}
	for raw, want := range cases {
		n, ok := ParseInt([]byte(raw))
		assert.Equal(t, want.ok, ok, raw)
		assert.Equal(t, want.n, n, raw)
	}
}
