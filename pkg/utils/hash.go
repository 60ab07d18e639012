package utils

import (
	"crypto/md5"
	"fmt"
)

// CacheKey builds a stable cache key from its parts.
func CacheKey(parts ...string) string {
	h := md5.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
