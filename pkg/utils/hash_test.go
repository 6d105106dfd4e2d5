package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret!", hash)
	assert.True(t, CheckPassword("s3cret!", hash))
	assert.False(t, CheckPassword("wrong", hash))
	assert.False(t, CheckPassword("s3cret!", "not-a-hash"))
}

func TestNewResetToken(t *testing.T) {
	token, digest, err := NewResetToken()
	require.NoError(t, err)
	assert.Len(t, token, 64)
	assert.Equal(t, digest, DigestToken(token))

	other, _, err := NewResetToken()
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}

func TestAbsentAccountHashMatchesCost(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)
	want, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	got, err := bcrypt.Cost([]byte(AbsentAccountHash))
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.False(t, CheckPassword("", AbsentAccountHash))
	assert.False(t, CheckPassword("s3cret!", AbsentAccountHash))
}
