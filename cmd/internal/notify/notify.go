// Package notify manages device tokens and best-effort push delivery.
package notify

import (
	"context"
	"errors"
	"strings"
	"time"
)

const (
	PlatformAndroid = "android"
	PlatformIOS     = "ios"
	PlatformWeb     = "web"
)

var (
	ErrInvalidInput = errors.New("notify: invalid input")
	ErrNotFound     = errors.New("notify: not found")
)

// DeviceToken is one push target owned by a user. The token value is
// globally unique; re-registering a token moves it to the registering
// user and reactivates it.
type DeviceToken struct {
	ID        string
	UserID    string
	Token     string
	Platform  string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store persists device tokens.
//
// Upsert registers a token, keyed by its value. Deactivate marks a user's
// token inactive; deactivating an unknown or foreign token is ErrNotFound.
// ActiveForUsers returns every active token owned by the given users.
type Store interface {
	Upsert(ctx context.Context, now time.Time, userID, token, platform string) (DeviceToken, error)
	Deactivate(ctx context.Context, now time.Time, userID, token string) error
	ActiveForUsers(ctx context.Context, userIDs []string) ([]DeviceToken, error)
}

func validPlatform(p string) bool {
	switch p {
	case PlatformAndroid, PlatformIOS, PlatformWeb:
		return true
	}
	return false
}

func validateUpsert(userID, token, platform string) (string, string, string, error) {
	userID = strings.TrimSpace(userID)
	token = strings.TrimSpace(token)
	platform = strings.ToLower(strings.TrimSpace(platform))
	if userID == "" || token == "" || !validPlatform(platform) {
		return "", "", "", ErrInvalidInput
	}
	return userID, token, platform, nil
}
