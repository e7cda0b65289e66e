package helpers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndCompare(t *testing.T) {
	hash, err := HashPasswordWithCost("s3cret-pass", bcrypt.MinCost)
	require.NoError(t, err)

	assert.NotEqual(t, "s3cret-pass", hash)
	assert.True(t, CompareHashAndPassword(hash, "s3cret-pass"))
	assert.False(t, CompareHashAndPassword(hash, "wrong-pass"))
}

func TestHashIsSalted(t *testing.T) {
	a, err := HashPasswordWithCost("same", bcrypt.MinCost)
	require.NoError(t, err)
	b, err := HashPasswordWithCost("same", bcrypt.MinCost)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestCompareWithMalformedHash(t *testing.T) {
	assert.False(t, CompareHashAndPassword("not-a-hash", "anything"))
}

func TestCostOutOfRangeFallsBack(t *testing.T) {
	hash, err := HashPasswordWithCost("pw", 1)
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}

func TestHashRejectsPasswordsOverByteLimit(t *testing.T) {
	multibyte := strings.Repeat("é", 40) // 40 runes, 80 bytes
	_, err := HashPasswordWithCost(multibyte, bcrypt.MinCost)
	assert.ErrorIs(t, err, ErrPasswordTooLong)

	_, err = HashPasswordWithCost(strings.Repeat("é", 36), bcrypt.MinCost)
	assert.NoError(t, err)
}
