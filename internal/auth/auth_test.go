package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBcryptHasher_RoundTrip(t *testing.T) {
	h := NewBcryptHasher(4) // minimum cost keeps the test fast

	digest, err := h.Hash("p1")
	require.NoError(t, err)
	assert.NotEqual(t, "p1", digest)

	assert.True(t, h.Verify("p1", digest))
	assert.False(t, h.Verify("p2", digest))
	assert.False(t, h.Verify("p1", "not a digest"))
}

func TestRandomTokenIssuer_Unique(t *testing.T) {
	issuer := RandomTokenIssuer{}

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		tok := issuer.Generate()
		assert.Len(t, tok, 64)
		assert.False(t, seen[tok], "token issued twice")
		seen[tok] = true
	}
}
