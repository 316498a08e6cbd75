package common

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Fingerprint hashes parts into a stable hex key. Parts are NUL separated so
// ("ab","c") and ("a","bc") differ.
func Fingerprint(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(sum[:])
}
