package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)
	hash, err := h.Hash("p1")
	require.NoError(t, err)
	assert.NotEqual(t, "p1", hash, "nunca debe guardarse en texto plano")
	assert.True(t, h.Matches(hash, "p1"))
	assert.False(t, h.Matches(hash, "wrong"))
	assert.False(t, h.Matches("no-es-bcrypt", "p1"))
}
