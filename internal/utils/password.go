package utils

import (
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes the given password with bcrypt. The salt is generated
// per call, so hashing the same password twice yields different outputs.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword checks the candidate password against the stored credential.
// It returns match=true, legacyPlaintext=false when the stored value is a
// bcrypt hash of the candidate. Stored values that bcrypt cannot parse fall
// through to a byte-equality check against rows that predate hashing; a match
// there returns legacyPlaintext=true so the caller can re-hash and persist
// the credential. Verification itself never mutates anything, and a corrupt
// stored value simply fails to match.
func VerifyPassword(stored, candidate string) (match bool, legacyPlaintext bool) {
	if err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(candidate)); err == nil {
		return true, false
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(candidate)) == 1 {
		return true, true
	}

	return false, false
}
