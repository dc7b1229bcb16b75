package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/OmerEfron/friend-lines-server/cmd/identity"
	"github.com/OmerEfron/friend-lines-server/cmd/internal/metrics"
)

// Service implements the high-level session operations.
//
// It verifies credentials, issues token pairs (short-lived JWT access plus
// opaque refresh), rotates refresh tokens on use with reuse detection, and
// supports per-token and per-user revocation.
type Service struct {
	cfg    Config
	users  identity.Store
	store  Store
	tokens AccessTokenManager
}

// Issued is the result of a login or a refresh rotation.
// It includes a short-lived access token and an opaque refresh token.
type Issued struct {
	UserID       string
	Username     string
	AccessToken  string
	AccessExp    time.Time
	RefreshToken string
	RefreshExp   time.Time
}

// NewService constructs a Service with the provided configuration, stores,
// and token manager.
func NewService(cfg Config, users identity.Store, store Store, tokens AccessTokenManager) *Service {
	return &Service{cfg: cfg, users: users, store: store, tokens: tokens}
}

// Login verifies credentials and issues a fresh token pair.
//
// Unknown-username and wrong-password failures both surface as
// ErrInvalidCredentials. Issuing revokes the user's previously active
// refresh token, so a login on one device ends the refresh chain on others.
func (s *Service) Login(ctx context.Context, now time.Time, username, password string) (Issued, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return Issued{}, ErrInvalidCredentials
	}

	u, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if identity.IsNotFound(err) || identity.IsInvalidInput(err) {
			return Issued{}, ErrInvalidCredentials
		}
		return Issued{}, err
	}

	ok, err := identity.VerifyPassword(password, u.PasswordHash)
	if err != nil {
		if identity.IsInvalidInput(err) {
			return Issued{}, ErrInvalidCredentials
		}
		return Issued{}, err
	}
	if !ok {
		return Issued{}, ErrInvalidCredentials
	}

	return s.issue(ctx, now, u.ID, u.Username, ReasonNewLogin)
}

// Refresh rotates a refresh token and issues a fresh token pair.
//
// The presented token is consumed atomically; under concurrent calls with
// the same token, exactly one succeeds and the rest get ErrRefreshNotActive.
// Presenting an already-rotated token revokes the owner's whole token family
// before returning the same outwardly indistinguishable ErrRefreshNotActive.
func (s *Service) Refresh(ctx context.Context, now time.Time, refreshPlain string) (Issued, error) {
	refreshPlain = strings.TrimSpace(refreshPlain)
	// Basic sanity bounds to avoid pathological inputs.
	if refreshPlain == "" || len(refreshPlain) > 4096 {
		return Issued{}, ErrRefreshNotActive
	}

	// Hash in-memory; the plain token never reaches the store.
	hash := hashRefreshTokenHex(refreshPlain)

	row, err := s.store.Consume(ctx, now, hash)
	switch {
	case errors.Is(err, ErrRefreshReuseDetected):
		// Security incident: a spent token came back. Kill the whole family,
		// then answer exactly like any other inactive token.
		metrics.RefreshReuseIncidents.Inc()
		if row.UserID != "" {
			if raErr := s.store.RevokeAllForUser(ctx, now, row.UserID, ReasonReuseDetected); raErr != nil {
				return Issued{}, raErr
			}
		}
		return Issued{}, ErrRefreshNotActive
	case errors.Is(err, ErrRefreshNotActive):
		return Issued{}, ErrRefreshNotActive
	case err != nil:
		return Issued{}, err
	}

	u, err := s.users.GetUserByID(ctx, row.UserID)
	if err != nil {
		if identity.IsNotFound(err) {
			return Issued{}, ErrRefreshNotActive
		}
		return Issued{}, err
	}

	return s.issue(ctx, now, u.ID, u.Username, ReasonRotated)
}

// Logout revokes the presented refresh token. It is idempotent: unknown,
// expired, or already-revoked tokens are not an error.
func (s *Service) Logout(ctx context.Context, now time.Time, refreshPlain string) error {
	refreshPlain = strings.TrimSpace(refreshPlain)
	if refreshPlain == "" || len(refreshPlain) > 4096 {
		return nil
	}
	return s.store.Revoke(ctx, now, hashRefreshTokenHex(refreshPlain), ReasonLogout)
}

// LogoutAll revokes every active refresh token for a user.
func (s *Service) LogoutAll(ctx context.Context, now time.Time, userID string) error {
	return s.store.RevokeAllForUser(ctx, now, userID, ReasonLogout)
}

// VerifyAccess verifies an access token without touching storage.
// Errors are ErrAccessExpired or ErrAccessInvalid.
func (s *Service) VerifyAccess(token string, now time.Time) (AccessClaims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return AccessClaims{}, ErrAccessInvalid
	}
	return s.tokens.Verify(token, now)
}

func (s *Service) issue(ctx context.Context, now time.Time, userID, username, revokeReason string) (Issued, error) {
	refreshPlain, refreshHash, err := newOpaqueRefreshToken(s.cfg.RefreshTokenBytes)
	if err != nil {
		return Issued{}, err
	}
	refreshExp := now.Add(s.cfg.RefreshTokenTTL)

	if _, err := s.store.Issue(ctx, now, userID, refreshHash, refreshExp, revokeReason); err != nil {
		return Issued{}, err
	}

	accessToken, accessExp, err := s.tokens.Issue(userID, username, now)
	if err != nil {
		return Issued{}, err
	}

	return Issued{
		UserID:       userID,
		Username:     username,
		AccessToken:  accessToken,
		AccessExp:    accessExp,
		RefreshToken: refreshPlain,
		RefreshExp:   refreshExp,
	}, nil
}
