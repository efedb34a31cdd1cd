package security_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teamloop/feedbackhub/internal/security"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := security.HashPassword("correct horse battery staple")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotEqual(t, "correct horse battery staple", hash)

	assert.True(t, security.CheckPassword(hash, "correct horse battery staple"))
	assert.False(t, security.CheckPassword(hash, "wrong password"))
}

func TestHashIsSaltedPerCall(t *testing.T) {
	h1, err := security.HashPassword("same input")
	require.NoError(t, err)
	h2, err := security.HashPassword("same input")
	require.NoError(t, err)

	// different salts, both still verify
	assert.NotEqual(t, h1, h2)
	assert.True(t, security.CheckPassword(h1, "same input"))
	assert.True(t, security.CheckPassword(h2, "same input"))
}

func TestCheckPasswordCorruptHash(t *testing.T) {
	// unknown or corrupt formats verify false, never panic
	assert.False(t, security.CheckPassword("", "pw"))
	assert.False(t, security.CheckPassword("not-a-bcrypt-hash", "pw"))
	assert.False(t, security.CheckPassword("$2a$xx$garbage", "pw"))
}
