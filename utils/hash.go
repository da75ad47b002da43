package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
)

// HashSHA256 returns the hex SHA256 of s.
func HashSHA256(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// CanonicalQuery encodes query values with sorted keys so equivalent requests
// hash to the same cache key.
func CanonicalQuery(values url.Values) string {
	return values.Encode()
}

// CacheKey builds prefix + sha256(path?canonical query).
func CacheKey(prefix, path string, values url.Values) string {
	return prefix + HashSHA256(path+"?"+CanonicalQuery(values))
}
