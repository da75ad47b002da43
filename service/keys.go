package service

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dedilute/catalog-backend/entity"
	"github.com/google/uuid"
)

// KeyLayout maps between object keys, public URLs and proxy paths.
type KeyLayout struct {
	// Prefix is a deployment-wide namespace without surrounding slashes.
	Prefix string
	// PublicBaseURL is used for asset URLs when set; otherwise URLs go
	// through ProxyPath.
	PublicBaseURL string
	ProxyPath     string

	now     func() time.Time
	newUUID func() string
}

func NewKeyLayout(prefix, publicBaseURL, proxyPath string) KeyLayout {
	return KeyLayout{
		Prefix:        strings.Trim(prefix, "/"),
		PublicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		ProxyPath:     strings.TrimRight(proxyPath, "/"),
		now:           time.Now,
		newUUID:       uuid.NewString,
	}
}

// NewKey returns [prefix/]{entityType}s/{entityID}/{purpose}/media-{millis}-{uuid}{ext}.
func (l KeyLayout) NewKey(entityType string, entityID int64, purpose entity.Purpose, filename string) string {
	now, newID := l.now, l.newUUID
	if now == nil {
		now = time.Now
	}
	if newID == nil {
		newID = uuid.NewString
	}

	ext := strings.ToLower(filepath.Ext(filename))
	key := fmt.Sprintf("%ss/%d/%s/media-%d-%s%s", entityType, entityID, purpose, now().UnixMilli(), newID(), ext)
	return l.withPrefix(key)
}

func (l KeyLayout) URLFor(key string) string {
	if l.PublicBaseURL != "" {
		return l.PublicBaseURL + "/" + key
	}
	return l.ProxyPath + "/" + key
}

// KeyFromURL recovers the object key of rows written without storage_key.
// It returns "" for URLs outside the public base and the proxy path.
func (l KeyLayout) KeyFromURL(url string) string {
	for _, base := range []string{l.PublicBaseURL, l.ProxyPath} {
		if base == "" {
			continue
		}
		if strings.HasPrefix(url, base+"/") {
			return strings.TrimPrefix(url, base+"/")
		}
	}
	return ""
}

// StorageKey prefers the stored key and falls back to the URL.
func (l KeyLayout) StorageKey(a *entity.Asset) string {
	if a.StorageKey != "" {
		return a.StorageKey
	}
	return l.KeyFromURL(a.URL)
}

// LookupKeys returns the keys to try for a caller supplied key: prefixed
// first, then unprefixed. Keys already carrying the prefix also fall back to
// the stripped form for rows written before the prefix existed.
func (l KeyLayout) LookupKeys(key string) []string {
	if l.Prefix == "" {
		return []string{key}
	}
	if stripped, ok := strings.CutPrefix(key, l.Prefix+"/"); ok {
		return []string{key, stripped}
	}
	return []string{l.withPrefix(key), key}
}

func (l KeyLayout) withPrefix(key string) string {
	if l.Prefix == "" {
		return key
	}
	return l.Prefix + "/" + key
}

// CleanKey normalises a key taken from a request path.
func CleanKey(raw string) (string, error) {
	key := strings.TrimLeft(raw, "/")
	if key == "" || strings.Contains(key, "..") || strings.Contains(key, "\\") {
		return "", ErrInvalidKey
	}
	return key, nil
}

func KindForMime(mime string) entity.MediaKind {
	if strings.HasPrefix(mime, "video/") {
		return entity.MediaKindVideo
	}
	return entity.MediaKindImage
}

// SupportedMime accepts image/* and video/* content types.
func SupportedMime(mime string) bool {
	return strings.HasPrefix(mime, "image/") || strings.HasPrefix(mime, "video/")
}
