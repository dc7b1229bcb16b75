// Package session implements the friend-lines session lifecycle.
//
// It issues short-lived JWT (HS256) access tokens paired with opaque,
// single-use refresh tokens. Refresh tokens are rotated on every use,
// stored only as hashes, and reuse of an already-consumed token revokes
// the owner's whole token family.
//
// Transport (HTTP/WS) integration is intentionally out of scope here.
package session
