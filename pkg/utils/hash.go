package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes a plain password using bcrypt.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// AbsentAccountHash is compared against when a login names no account, so that
// path pays the same bcrypt cost as a wrong password. Its plaintext is random.
var AbsentAccountHash = mustAbsentHash()

func mustAbsentHash() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	hash, err := HashPassword(hex.EncodeToString(buf))
	if err != nil {
		panic(err)
	}
	return hash
}

// CheckPassword compares plain password with hashed password.
func CheckPassword(plain, hashed string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
	return err == nil
}

// NewResetToken returns a random 32-byte token as hex and its SHA-256 digest for storage.
func NewResetToken() (token, digest string, err error) {
	buf := make([]byte, 32)
	if _, err = rand.Read(buf); err != nil {
		return "", "", err
	}
	token = hex.EncodeToString(buf)
	return token, DigestToken(token), nil
}

// DigestToken returns the hex SHA-256 of a reset token.
func DigestToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
