package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPasswordDeterministic(t *testing.T) {
	salt, err := GenerateSalt()
	require.NoError(t, err)

	h1, err := HashPasswordArgon2("password", salt)
	require.NoError(t, err)
	h2, err := HashPasswordArgon2("password", salt)
	require.NoError(t, err)
	if h1 != h2 {
		t.Fatalf("expected same hash for same salt, got %s vs %s", h1, h2)
	}
	assert.True(t, strings.HasPrefix(h1, "argon2id$"))
	assert.NotContains(t, h1, "password")
}

func TestHashPasswordDifferentSalts(t *testing.T) {
	saltA, _ := GenerateSalt()
	saltB, _ := GenerateSalt()
	require.NotEqual(t, saltA, saltB)

	h1, _ := HashPasswordArgon2("password", saltA)
	h2, _ := HashPasswordArgon2("password", saltB)
	if h1 == h2 {
		t.Fatalf("expected different hashes for different salts, both %s", h1)
	}
}

func TestVerifyPassword(t *testing.T) {
	salt, _ := GenerateSalt()
	hashed, err := HashPasswordArgon2("correct horse", salt)
	require.NoError(t, err)

	ok, err := VerifyPassword("correct horse", hashed, salt)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("wrong horse", hashed, salt)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyPassword_RejectsPlaintextDigest(t *testing.T) {
	ok, err := VerifyPassword("testpass", "testpass", "c2FsdA")
	assert.ErrorIs(t, err, ErrUnsupportedHash)
	assert.False(t, ok)
}

func TestHashPasswordArgon2_BadSalt(t *testing.T) {
	_, err := HashPasswordArgon2("pw", "not base64!!")
	assert.Error(t, err)
	_, err = HashPasswordArgon2("pw", "")
	assert.Error(t, err)
}
