package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	_, err := HashPassword("short")
	assert.Error(t, err)

	hash, err := HashPassword("chocobo-farm")
	require.NoError(t, err)
	assert.NotEqual(t, "chocobo-farm", hash)

	assert.True(t, CheckPassword(hash, "chocobo-farm"))
	assert.False(t, CheckPassword(hash, "chocobo-farn"))
	assert.True(t, CheckPasswordOrDummy(hash, "chocobo-farm"))
	assert.False(t, CheckPasswordOrDummy("", "chocobo-farm"))
}
