package session

import (
	"github.com/OmerEfron/friend-lines-server/cmd/security/token"
)

// newOpaqueRefreshToken mints a random refresh token and its storage hash.
// Only the hash is ever persisted.
func newOpaqueRefreshToken(nBytes int) (plain string, hashHex string, err error) {
	plain, err = token.NewOpaqueToken(nBytes)
	if err != nil {
		return "", "", err
	}
	return plain, token.HashRefreshTokenHex(plain), nil
}

func hashRefreshTokenHex(s string) string {
	return token.HashRefreshTokenHex(s)
}
