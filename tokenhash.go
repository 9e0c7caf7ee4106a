// tokenhash.go
package groupcore

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// hashInviteToken derives a lookup key for an invite token without ever
// persisting the raw token in the registry's index. Unlike a password, the
// token itself is the secret, so the hash only needs to be a fast, keyless
// lookup digest: invite tokens already carry 256 bits of CSPRNG entropy
// (ids.go), so bcrypt/argon2 would only add latency the access pattern
// doesn't need.
func hashInviteToken(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
