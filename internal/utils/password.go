package utils

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// HashSecret returns the SHA-256 hex digest of a password or PIN. The
// digest is deterministic so that a PIN can be located by comparing
// digests across all users. Empty input is hashed like any other;
// callers enforce non-empty secrets.
func HashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// VerifyPassword compares a plaintext secret with a stored digest. SHA-256
// digests are compared in constant time; bcrypt digests written by older
// admin tooling are still accepted.
func VerifyPassword(digest, plain string) bool {
	if digest == "" {
		return false
	}
	if isBcrypt(digest) {
		return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(digest), []byte(HashSecret(plain))) == 1
}

// HashLegacyPassword produces a bcrypt digest. Only the migration tooling
// and tests use it; new accounts get HashSecret digests.
func HashLegacyPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func isBcrypt(digest string) bool {
	return strings.HasPrefix(digest, "$2a$") || strings.HasPrefix(digest, "$2b$") || strings.HasPrefix(digest, "$2y$")
}
