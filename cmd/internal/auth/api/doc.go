// Package authapi exposes the HTTP authentication surface: registration,
// login, refresh rotation, logout, and the auth gate middleware that admits
// requests into the protected API, silently refreshing expired access tokens
// when a refresh cookie is present.
package authapi
