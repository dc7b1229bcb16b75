package session

import "errors"

var (
	// ErrInvalidCredentials is returned by Login when the username is unknown
	// or the password does not match. The two cases are indistinguishable.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAccessExpired is returned when an access token is well-formed and
	// correctly signed but past its expiry.
	ErrAccessExpired = errors.New("access token expired")

	// ErrAccessInvalid is returned for any other access-token failure:
	// malformed, wrong signature, wrong issuer, missing claims.
	ErrAccessInvalid = errors.New("access token invalid")

	// ErrRefreshNotActive is returned when a refresh token is unknown,
	// expired, or revoked. The cases are indistinguishable to callers so the
	// API cannot be used to probe token state.
	ErrRefreshNotActive = errors.New("refresh token not active")

	// ErrRefreshReuseDetected is returned by Store.Consume when the presented
	// token was already rotated away. The service treats this as a security
	// incident: it revokes the owner's token family and reports
	// ErrRefreshNotActive outwardly.
	ErrRefreshReuseDetected = errors.New("refresh token reuse detected")

	// ErrConfig is returned for invalid configuration.
	ErrConfig = errors.New("invalid config")
)
