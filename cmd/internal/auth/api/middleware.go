package authapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/OmerEfron/friend-lines-server/cmd/internal/auth/session"
	"github.com/OmerEfron/friend-lines-server/cmd/internal/metrics"
)

type contextKey struct{ name string }

var claimsContextKey = &contextKey{"auth-claims"}

// ClaimsFromContext returns the access claims attached by RequireAuth.
func ClaimsFromContext(ctx context.Context) (session.AccessClaims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(session.AccessClaims)
	return claims, ok
}

// WithClaims attaches access claims to a context (exported for tests).
func WithClaims(ctx context.Context, claims session.AccessClaims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

// RequireAuth is the auth gate for protected endpoints.
//
// Outcomes:
//   - no bearer token: 401 unauthorized
//   - invalid token: 403 token_invalid
//   - valid token: claims attached to the request context, request admitted
//   - expired token, refresh cookie present: one silent refresh. On success
//     the rotated refresh cookie is set, the fresh access token is exposed via
//     X-New-Access-Token, and the request is admitted. On failure the cookies
//     are cleared and the caller gets 401 session_expired.
//   - expired token, no refresh cookie: 401 token_expired
//
// Exactly one silent refresh is attempted per request.
func (h *Handler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := BearerToken(r)
		if token == "" {
			WriteError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			return
		}

		now := time.Now().UTC()

		claims, err := h.sessions.VerifyAccess(token, now)
		if err == nil {
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
			return
		}

		if !errors.Is(err, session.ErrAccessExpired) {
			WriteError(w, http.StatusForbidden, "token_invalid", "invalid access token")
			return
		}

		refreshToken, ok := h.refreshTokenFromCookie(r)
		if !ok {
			WriteError(w, http.StatusUnauthorized, "token_expired", "access token expired")
			return
		}

		issued, err := h.sessions.Refresh(r.Context(), now, refreshToken)
		if err != nil {
			metrics.SilentRefreshes.WithLabelValues("failed").Inc()
			h.clearWebSessionCookies(w)
			WriteError(w, http.StatusUnauthorized, "session_expired", "session expired, please log in again")
			return
		}

		metrics.SilentRefreshes.WithLabelValues("success").Inc()
		h.log.Info("auth.gate.silent_refresh", "user_id", issued.UserID)

		if _, err := h.setWebSessionCookies(w, issued.RefreshToken, issued.RefreshExp); err != nil {
			h.log.Error("auth.gate.web_cookie.fail", "err", err)
			WriteError(w, http.StatusInternalServerError, "server_error", "internal error")
			return
		}
		w.Header().Set(NewAccessTokenHeader, issued.AccessToken)

		fresh, err := h.sessions.VerifyAccess(issued.AccessToken, now)
		if err != nil {
			h.log.Error("auth.gate.fresh_token.fail", "err", err)
			WriteError(w, http.StatusInternalServerError, "server_error", "internal error")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), fresh)))
	})
}
