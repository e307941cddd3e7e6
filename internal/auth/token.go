package auth

import (
	"crypto/rand"
	"encoding/hex"
)

// TokenIssuer generates opaque session tokens. Tokens carry no claims: the
// session registry binds them to a connection and every privileged request
// compares them by exact match.
type TokenIssuer interface {
	Generate() string
}

// RandomTokenIssuer issues 32 random bytes, hex-encoded.
type RandomTokenIssuer struct{}

var _ TokenIssuer = (*RandomTokenIssuer)(nil)

// Generate returns a new unguessable token.
func (RandomTokenIssuer) Generate() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	return hex.EncodeToString(buf)
}
