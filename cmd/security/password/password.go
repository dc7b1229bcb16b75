package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// digest is a parsed PHC argon2id string.
type digest struct {
	params Argon2idParams
	salt   []byte
	key    []byte
}

// Hash derives an Argon2id digest of password and encodes it as a PHC
// string: $argon2id$v=19$m=<KiB>,t=<iters>,p=<lanes>$<salt>$<key>.
// The policy runs first, so storage never sees a rejected password.
func (c Config) Hash(password string) (string, error) {
	if err := c.Validate(password); err != nil {
		return "", err
	}

	salt := make([]byte, c.Params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("salt: %w", err)
	}

	key := argon2.IDKey(
		[]byte(password), salt,
		c.Params.Iterations, c.Params.MemoryKiB, c.Params.Parallelism, c.Params.KeyLength,
	)

	enc := base64.RawStdEncoding
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		c.Params.MemoryKiB, c.Params.Iterations, c.Params.Parallelism,
		enc.EncodeToString(salt), enc.EncodeToString(key),
	), nil
}

// Verify reports whether password matches the stored digest.
// (true, nil) on match, (false, nil) on mismatch, (false, ErrInvalidHash)
// when the digest is malformed or outside the verify bounds.
func (c Config) Verify(encodedHash, password string) (bool, error) {
	d, err := parseDigest(encodedHash)
	if err != nil {
		return false, err
	}

	// A digest demanding far more work than this server ever configures
	// is treated as invalid rather than honored; verification cost must
	// stay under the server's control, not the stored string's.
	if !c.verifyBoundsOK(d.params) {
		return false, ErrInvalidHash
	}

	got := argon2.IDKey(
		[]byte(password), d.salt,
		d.params.Iterations, d.params.MemoryKiB, d.params.Parallelism,
		uint32(len(d.key)), // #nosec G115 -- key length bounded by verifyBoundsOK.
	)

	return subtle.ConstantTimeCompare(got, d.key) == 1, nil
}

// verifyBoundsOK accepts digests hashed with equal or smaller historical
// parameters and rejects anything demanding more than twice the
// configured work factors.
func (c Config) verifyBoundsOK(p Argon2idParams) bool {
	switch {
	case p.MemoryKiB > c.Params.MemoryKiB*2,
		p.Iterations > c.Params.Iterations*2,
		uint32(p.Parallelism) > uint32(c.Params.Parallelism)*2,
		p.SaltLength < 8 || p.SaltLength > 64,
		p.KeyLength < 16 || p.KeyLength > 128:
		return false
	}
	return true
}

func parseDigest(encoded string) (digest, error) {
	// The leading "$" yields an empty first field.
	fields := strings.Split(encoded, "$")
	if len(fields) != 6 || fields[0] != "" || fields[1] != "argon2id" {
		return digest{}, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(fields[2], "v=%d", &version); err != nil || version != argon2.Version {
		return digest{}, ErrInvalidHash
	}

	var mem, iters, lanes uint32
	if _, err := fmt.Sscanf(fields[3], "m=%d,t=%d,p=%d", &mem, &iters, &lanes); err != nil {
		return digest{}, ErrInvalidHash
	}
	if mem == 0 || iters == 0 || lanes == 0 || lanes > 255 {
		return digest{}, ErrInvalidHash
	}

	enc := base64.RawStdEncoding
	salt, err := enc.DecodeString(fields[4])
	if err != nil {
		return digest{}, ErrInvalidHash
	}
	key, err := enc.DecodeString(fields[5])
	if err != nil {
		return digest{}, ErrInvalidHash
	}

	return digest{
		params: Argon2idParams{
			MemoryKiB:   mem,
			Iterations:  iters,
			Parallelism: uint8(lanes), // #nosec G115 -- lanes checked <= 255 above.
			SaltLength:  uint32(len(salt)),
			KeyLength:   uint32(len(key)),
		},
		salt: salt,
		key:  key,
	}, nil
}
