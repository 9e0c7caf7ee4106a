package groupcore

import (
	"crypto/rand"
	"encoding/base64"
	"strconv"

	"github.com/google/uuid"
)

// IDGenerator is the injected random id source for entities. Production code uses UUIDGenerator; tests can inject a
// sequential generator for reproducible fixtures.
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator mints RFC 4122 v4 ids via google/uuid.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string { return uuid.NewString() }

// SequentialIDGenerator hands out ids "prefix-1", "prefix-2", ... for
// deterministic tests.
type SequentialIDGenerator struct {
	Prefix string
	n      int
}

func (g *SequentialIDGenerator) NewID() string {
	g.n++
	return g.Prefix + "-" + strconv.Itoa(g.n)
}

// TokenGenerator mints invite tokens from a CSPRNG.
type TokenGenerator interface {
	// NewToken returns a URL-safe token with at least 256 bits of entropy.
	NewToken() (string, error)
}

// CryptoTokenGenerator is the production TokenGenerator.
type CryptoTokenGenerator struct{}

// tokenEntropyBytes is 32 bytes (256 bits), well above what's brute-forceable.
const tokenEntropyBytes = 32

func (CryptoTokenGenerator) NewToken() (string, error) {
	buf := make([]byte, tokenEntropyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
