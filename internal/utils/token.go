package utils

import (
	"crypto/rand"
	"encoding/base64"
)

// resetTokenBytes is the entropy of a reset token: 32 bytes, 256 bits.
const resetTokenBytes = 32

// GenerateResetToken returns an opaque, URL-safe reset token drawn from a
// cryptographically secure random source. The token is a pure lookup key and
// carries no structure.
func GenerateResetToken() (string, error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
