// Package hashutil computes and validates the SHA-256 content digests that
// identify uploads. The digest wire format is 64 lowercase hex characters.
package hashutil

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"regexp"
	"strings"
)

var digestPattern = regexp.MustCompile(`^[a-f0-9]{64}$`)

// Sum returns the hex SHA-256 digest of data.
func Sum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Hasher computes the same digest as Sum from sequential chunks, so callers
// that hash in bounded windows agree with callers that hash a full buffer.
type Hasher struct {
	h hash.Hash
}

func New() *Hasher {
	return &Hasher{h: sha256.New()}
}

func (h *Hasher) Write(p []byte) (int, error) {
	return h.h.Write(p)
}

func (h *Hasher) Sum() string {
	return hex.EncodeToString(h.h.Sum(nil))
}

// Normalize lowercases and trims a caller-supplied digest string.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// IsDigest reports whether s is a well-formed digest (already normalized).
func IsDigest(s string) bool {
	return digestPattern.MatchString(s)
}
