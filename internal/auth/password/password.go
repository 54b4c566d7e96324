// Package password provides one-way salted password hashing
package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Cost is the bcrypt work factor used for every stored hash
const Cost = 10

// Hash returns the bcrypt digest of plaintext.
// A failure here is fatal to the request.
func Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), Cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(digest), nil
}

// Verify reports whether plaintext matches digest.
// A mismatch or a malformed digest is a normal false outcome.
func Verify(plaintext, digest string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext))
	return err == nil
}
