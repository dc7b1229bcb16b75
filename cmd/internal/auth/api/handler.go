package authapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/OmerEfron/friend-lines-server/cmd/identity"
	"github.com/OmerEfron/friend-lines-server/cmd/internal/auth/session"
	"github.com/OmerEfron/friend-lines-server/cmd/internal/metrics"
)

// Handler wires HTTP auth endpoints to the identity store and session service.
type Handler struct {
	log *slog.Logger
	cfg Config

	users    identity.Store
	sessions *session.Service

	ipLimiter   *loginLimiter
	userLimiter *loginLimiter

	dummyHash string
}

// NewHandler constructs an auth Handler.
func NewHandler(log *slog.Logger, cfg Config, users identity.Store, sessions *session.Service) (*Handler, error) {
	if log == nil {
		log = slog.Default()
	}
	if users == nil {
		return nil, errors.New("authapi: nil user store")
	}
	if sessions == nil {
		return nil, errors.New("authapi: nil session service")
	}

	h := &Handler{
		log:         log,
		cfg:         cfg,
		users:       users,
		sessions:    sessions,
		ipLimiter:   newLoginLimiter(cfg.LoginIPMax, cfg.LoginIPWindow),
		userLimiter: newLoginLimiter(cfg.LoginUserMax, cfg.LoginIPWindow),
	}

	// Dummy hash for timing-resistant login checks.
	if hash, err := identity.HashPassword("dummy-password-for-timing-only"); err == nil {
		h.dummyHash = hash
	}

	return h, nil
}

// Register wires auth routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("/users/register", h.handleRegister)
	mux.HandleFunc("/auth/login", h.handleLogin)
	mux.HandleFunc("/auth/refresh", h.handleRefresh)
	mux.HandleFunc("/auth/logout", h.handleLogout)
	mux.HandleFunc("/auth/logout_all", h.handleLogoutAll)
	mux.Handle("/users/me", h.RequireAuth(http.HandlerFunc(h.handleMe)))
}

// ---- handlers ----

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req registerRequest
	if err := DecodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	ctx := r.Context()
	now := time.Now().UTC()

	u, err := h.users.CreateUser(ctx, identity.CreateUserInput{
		Username: req.Username,
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
		Now:      now,
	})
	if err != nil {
		switch {
		case identity.IsConflict(err):
			WriteError(w, http.StatusConflict, "conflict", "username or email already exists")
		case identity.IsInvalidInput(err):
			WriteError(w, http.StatusBadRequest, "invalid_request", "invalid input")
		default:
			h.log.Error("auth.register.fail", "err", err)
			WriteError(w, http.StatusInternalServerError, "server_error", "internal error")
		}
		return
	}

	h.auditRegister(u.ID, u.Username, clientIP(r, h.cfg.TrustProxy))
	WriteJSON(w, http.StatusCreated, registerResponse{User: toUserResponse(u)})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req loginRequest
	if err := DecodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	username := strings.TrimSpace(req.Username)
	password := req.Password
	if username == "" || password == "" {
		WriteError(w, http.StatusBadRequest, "invalid_request", "username and password are required")
		return
	}

	ctx := r.Context()
	now := time.Now().UTC()
	ip := clientIP(r, h.cfg.TrustProxy)
	identifier := identity.Canonical(username)

	// Throttle before any credential work.
	if blocked, retryAfter := h.ipLimiter.Blocked(ipString(ip), now); blocked {
		h.auditLoginRateLimited(ip, identifier)
		metrics.LoginAttempts.WithLabelValues("rate_limited").Inc()
		writeRateLimited(w, retryAfter)
		return
	}
	if blocked, retryAfter := h.userLimiter.Blocked(identifier, now); blocked {
		h.auditLoginRateLimited(ip, identifier)
		metrics.LoginAttempts.WithLabelValues("rate_limited").Inc()
		writeRateLimited(w, retryAfter)
		return
	}

	issued, err := h.sessions.Login(ctx, now, username, password)
	if err != nil {
		if errors.Is(err, session.ErrInvalidCredentials) {
			// Timing resistance: burn a verify when the user does not exist.
			if h.dummyHash != "" {
				_, _ = identity.VerifyPassword(password, h.dummyHash)
			}
			h.ipLimiter.Fail(ipString(ip), now)
			h.userLimiter.Fail(identifier, now)
			h.auditLoginFailed(ip, r.UserAgent(), identifier, "invalid_credentials")
			metrics.LoginAttempts.WithLabelValues("invalid_credentials").Inc()
			WriteError(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials")
			return
		}
		h.log.Error("auth.login.fail", "err", err)
		metrics.LoginAttempts.WithLabelValues("error").Inc()
		WriteError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	h.ipLimiter.Reset(ipString(ip))
	h.userLimiter.Reset(identifier)
	h.auditLoginSuccess(issued.UserID, ip, r.UserAgent(), identifier)
	metrics.LoginAttempts.WithLabelValues("success").Inc()

	u, err := h.users.GetUserByID(ctx, issued.UserID)
	if err != nil {
		h.log.Error("auth.login.load_user.fail", "err", err)
		WriteError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	respSession := toSessionResponse(issued)
	if h.cfg.WebRefreshCookieEnabled {
		if _, err := h.setWebSessionCookies(w, issued.RefreshToken, issued.RefreshExp); err != nil {
			h.log.Error("auth.login.web_cookie.fail", "err", err)
			WriteError(w, http.StatusInternalServerError, "server_error", "internal error")
			return
		}
	}

	WriteJSON(w, http.StatusOK, loginResponse{
		User:    toUserResponse(u),
		Session: respSession,
	})
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req refreshRequest
	if r.ContentLength != 0 {
		if err := DecodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
			return
		}
	}
	refreshToken := strings.TrimSpace(req.RefreshToken)
	fromCookie := false
	if cookieToken, ok := h.refreshTokenFromCookie(r); ok {
		fromCookie = true
		if refreshToken == "" {
			refreshToken = cookieToken
		}
	}
	if refreshToken == "" {
		WriteError(w, http.StatusBadRequest, "invalid_request", "refresh_token is required")
		return
	}
	if fromCookie && !h.csrfDoubleSubmitValid(r) {
		WriteError(w, http.StatusForbidden, "csrf_invalid", "missing or invalid csrf token")
		return
	}

	ctx := r.Context()
	now := time.Now().UTC()
	ip := clientIP(r, h.cfg.TrustProxy)

	issued, err := h.sessions.Refresh(ctx, now, refreshToken)
	if err != nil {
		if errors.Is(err, session.ErrRefreshNotActive) {
			h.auditRefreshDenied(ip)
			metrics.RefreshAttempts.WithLabelValues("not_active").Inc()
			h.clearWebSessionCookies(w)
			WriteError(w, http.StatusUnauthorized, "refresh_not_active", "refresh token not active")
			return
		}
		h.log.Error("auth.refresh.fail", "err", err)
		metrics.RefreshAttempts.WithLabelValues("error").Inc()
		WriteError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	h.auditRefreshSuccess(issued.UserID, ip)
	metrics.RefreshAttempts.WithLabelValues("success").Inc()

	respSession := toSessionResponse(issued)
	if fromCookie || h.cfg.WebRefreshCookieEnabled {
		if _, err := h.setWebSessionCookies(w, issued.RefreshToken, issued.RefreshExp); err != nil {
			h.log.Error("auth.refresh.web_cookie.fail", "err", err)
			WriteError(w, http.StatusInternalServerError, "server_error", "internal error")
			return
		}
	}

	WriteJSON(w, http.StatusOK, refreshResponse{Session: respSession})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req logoutRequest
	if r.ContentLength != 0 {
		if err := DecodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
			return
		}
	}
	refreshToken := strings.TrimSpace(req.RefreshToken)
	if refreshToken == "" {
		if cookieToken, ok := h.refreshTokenFromCookie(r); ok {
			refreshToken = cookieToken
		}
	}

	ctx := r.Context()
	now := time.Now().UTC()

	// Logout is idempotent: unknown or absent tokens still clear state.
	if err := h.sessions.Logout(ctx, now, refreshToken); err != nil {
		h.log.Error("auth.logout.fail", "err", err)
		WriteError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	h.clearWebSessionCookies(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleLogoutAll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	claims, ok := h.verifyRequest(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	now := time.Now().UTC()
	if err := h.sessions.LogoutAll(ctx, now, claims.UserID); err != nil {
		h.log.Error("auth.logout_all.fail", "err", err)
		WriteError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	h.auditLogout(claims.UserID, clientIP(r, h.cfg.TrustProxy))
	h.clearWebSessionCookies(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "unauthorized", "missing credentials")
		return
	}

	u, err := h.users.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		if identity.IsNotFound(err) {
			WriteError(w, http.StatusUnauthorized, "not_found", "user not found")
			return
		}
		h.log.Error("auth.me.fail", "err", err)
		WriteError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	WriteJSON(w, http.StatusOK, meResponse{User: toUserResponse(u)})
}

// verifyRequest authenticates a request inline, without the silent-refresh
// behavior of RequireAuth. Used by endpoints that must not rotate tokens.
func (h *Handler) verifyRequest(w http.ResponseWriter, r *http.Request) (session.AccessClaims, bool) {
	token := BearerToken(r)
	if token == "" {
		WriteError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return session.AccessClaims{}, false
	}
	claims, err := h.sessions.VerifyAccess(token, time.Now().UTC())
	if err != nil {
		if errors.Is(err, session.ErrAccessExpired) {
			WriteError(w, http.StatusUnauthorized, "token_expired", "access token expired")
		} else {
			WriteError(w, http.StatusForbidden, "token_invalid", "invalid access token")
		}
		return session.AccessClaims{}, false
	}
	return claims, true
}
