package util

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	argon2Prefix  = "argon2id$"
	argon2Time    = 2
	argon2Memory  = 19 * 1024
	argon2Threads = 1
	argon2KeyLen  = 32
	saltLength    = 16
)

// ErrUnsupportedHash is returned for stored digests not produced by HashPasswordArgon2.
var ErrUnsupportedHash = errors.New("unsupported password hash format")

// GenerateSalt returns a random base64-encoded salt.
func GenerateSalt() (string, error) {
	b := make([]byte, saltLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	return base64.RawStdEncoding.EncodeToString(b), nil
}

// HashPasswordArgon2 derives an Argon2id digest of password with the given salt.
func HashPasswordArgon2(password, salt string) (string, error) {
	saltBytes, err := base64.RawStdEncoding.DecodeString(salt)
	if err != nil {
		return "", fmt.Errorf("decode salt: %w", err)
	}
	if len(saltBytes) == 0 {
		return "", errors.New("salt must not be empty")
	}
	key := argon2.IDKey([]byte(password), saltBytes, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)
	return argon2Prefix + base64.RawStdEncoding.EncodeToString(key), nil
}

// VerifyPassword recomputes the digest of plain and compares it in constant time.
func VerifyPassword(plain, hashed, salt string) (bool, error) {
	if !strings.HasPrefix(hashed, argon2Prefix) {
		return false, ErrUnsupportedHash
	}
	candidate, err := HashPasswordArgon2(plain, salt)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(hashed)) == 1, nil
}
