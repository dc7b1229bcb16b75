// Package identity implements the friend-lines user identity foundation.
//
// It contains security primitives (ULID, password hashing, token hashing),
// the user model, and store interfaces used by the HTTP and WebSocket layers.
//
// This package is intentionally dependency-light and security-first.
package identity
