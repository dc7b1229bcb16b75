package app

import (
	"errors"

	"github.com/OmerEfron/friend-lines-server/cmd/security/token"
)

// ValidateSecurityConfig enforces the server's security policy at startup.
// Fail-fast is intentional: the server must not silently fall back to
// weaker refresh-token hashing when the policy requires HMAC.
func ValidateSecurityConfig(cfg Config) error {
	if !cfg.RequireTokenHMAC {
		return nil
	}

	// Self-check through the same code path that hashes real refresh
	// tokens: enforced-HMAC mode with a minimum 32-byte key, measured in
	// bytes because the key is used as raw bytes.
	if _, err := token.HashRefreshTokenHexRequireHMAC("startup-selfcheck", 32); err != nil {
		switch {
		case errors.Is(err, token.ErrHMACKeyMissing):
			return errors.New("security policy: FRIENDLINES_REQUIRE_TOKEN_HMAC=true but FRIENDLINES_TOKEN_HMAC_KEY is missing")
		case errors.Is(err, token.ErrHMACKeyTooShort):
			return errors.New("security policy: FRIENDLINES_REQUIRE_TOKEN_HMAC=true but FRIENDLINES_TOKEN_HMAC_KEY is too short (min 32 bytes)")
		default:
			return err
		}
	}

	// Hashing must actually be in HMAC mode in this runtime.
	if !token.HMACEnabled() {
		return errors.New("security policy: FRIENDLINES_REQUIRE_TOKEN_HMAC=true but token hasher is not in HMAC mode")
	}

	return nil
}
