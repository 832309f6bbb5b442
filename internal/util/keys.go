package util

import (
	"crypto/sha256"
	"fmt"
)

// ShortKey returns a bounded storage key for an arbitrarily long logical key
// (canonical query strings grow with filters). Prefix plus the first 16 hex
// chars of the SHA-256 keeps entry keys short and collision-safe in practice.
func ShortKey(prefix, key string) string {
	sum := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%s:%x", prefix, sum)[:len(prefix)+1+16]
}
