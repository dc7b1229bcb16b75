// Package identity password hashing (Argon2id).
//
// identity delegates to cmd/security/password as the single source of truth for:
//   - Argon2id parameters (defaults + env overrides)
//   - password policy (defaults + env overrides)
//   - strict PHC decoding + anti-DoS bounds during Verify
//
// identity keeps a historical baseline of min length 8, but will honor stricter env policy.
package identity

import (
	"errors"

	"github.com/OmerEfron/friend-lines-server/cmd/security/password"
)

// HashPassword returns a PHC-style Argon2id hash string.
//
// Security contract:
// - Enforces a baseline min length of 8.
// - Will honor stricter password policy from env (via security/password).
func HashPassword(passwordPlain string) (string, error) {
	if len(passwordPlain) < 8 {
		return "", ErrInvalidInput
	}

	cfg, err := password.FromEnv()
	if err != nil {
		// Treat invalid env as an operational error, not a weak fallback.
		return "", err
	}
	cfg = clampPolicy(cfg)

	enc, err := cfg.Hash(passwordPlain)
	if err != nil {
		switch {
		case errors.Is(err, password.ErrPasswordTooShort),
			errors.Is(err, password.ErrPasswordTooLong),
			errors.Is(err, password.ErrWeakPassword):
			return "", OpError{Op: "identity.HashPassword", Kind: ErrInvalidInput, Msg: err.Error()}
		default:
			return "", err
		}
	}

	return enc, nil
}

// VerifyPassword checks a password against a PHC Argon2id hash.
//
// Security contract:
// - Strict PHC parsing.
// - Anti-DoS: verification refuses hashes with parameters wildly above configured maxima.
func VerifyPassword(passwordPlain string, encodedPHC string) (bool, error) {
	cfg, err := password.FromEnv()
	if err != nil {
		return false, err
	}
	cfg = clampPolicy(cfg)

	ok, err := cfg.Verify(encodedPHC, passwordPlain)
	if err != nil {
		if errors.Is(err, password.ErrInvalidHash) {
			return false, OpError{Op: "identity.VerifyPassword", Kind: ErrInvalidInput, Msg: "invalid argon2id hash format"}
		}
		return false, err
	}
	return ok, nil
}

// clampPolicy keeps identity's baseline policy: min length 8 (env can be
// stricter, but cannot weaken it).
func clampPolicy(cfg password.Config) password.Config {
	if cfg.Policy.MinLength < 8 {
		cfg.Policy.MinLength = 8
	}
	if cfg.Policy.MaxLength <= 0 {
		cfg.Policy.MaxLength = 256
	}
	return cfg
}
