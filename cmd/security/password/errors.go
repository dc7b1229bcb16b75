package password

import "errors"

// Policy rejections, surfaced to the registration API as invalid input.
var (
	ErrPasswordTooShort = errors.New("password too short")
	ErrPasswordTooLong  = errors.New("password too long")
	ErrWeakPassword     = errors.New("weak password")
)

// ErrInvalidHash means a stored digest could not be parsed or carries
// parameters outside the verify bounds. Verify reports it instead of
// guessing; it never panics on malformed input.
var ErrInvalidHash = errors.New("invalid password hash")
