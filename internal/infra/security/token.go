package security

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// TokenDigest returns the SHA-256 hex digest used to key revocation entries.
func TokenDigest(token string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(token)))
	return hex.EncodeToString(sum[:])
}
