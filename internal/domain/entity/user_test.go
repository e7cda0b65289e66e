package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasRefreshToken(t *testing.T) {
	stored := "abc"
	empty := ""

	assert.True(t, (&User{RefreshTokenHash: &stored}).HasRefreshToken("abc"))
	assert.False(t, (&User{RefreshTokenHash: &stored}).HasRefreshToken("abd"))
	assert.False(t, (&User{}).HasRefreshToken(""))
	assert.False(t, (&User{RefreshTokenHash: &empty}).HasRefreshToken(""))
}
