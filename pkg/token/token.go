// Package token issues the single-use tokens used for email verification and
// password reset. Only the SHA-256 hash is persisted; the plaintext goes out
// in the email link and is hashed again at exchange time for lookup.
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

// Generate returns a new random token as (plaintext, hash).
func Generate() (string, string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	plain := hex.EncodeToString(buf)
	return plain, Hash(plain), nil
}

// Hash returns the hex SHA-256 digest of a plaintext token.
func Hash(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}
