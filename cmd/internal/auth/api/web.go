package authapi

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/OmerEfron/friend-lines-server/cmd/security/token"
)

// Browser session cookies. The refresh token travels in an HttpOnly
// cookie so scripts cannot read it; the CSRF token rides in a readable
// companion cookie and must be echoed back in a header (double submit).

// setWebSessionCookies writes both cookies and returns the freshly
// minted CSRF token so the login/refresh response can include it.
func (h *Handler) setWebSessionCookies(w http.ResponseWriter, refreshToken string, refreshExp time.Time) (string, error) {
	csrf, err := token.NewOpaqueToken(32)
	if err != nil {
		return "", err
	}

	h.writeSessionCookie(w, h.cfg.RefreshCookieName, refreshToken, refreshExp, true)
	h.writeSessionCookie(w, h.cfg.CSRFCookieName, csrf, refreshExp, false)
	return csrf, nil
}

func (h *Handler) clearWebSessionCookies(w http.ResponseWriter) {
	if h == nil || w == nil || !h.cfg.WebRefreshCookieEnabled {
		return
	}
	h.expireSessionCookie(w, h.cfg.RefreshCookieName, true)
	h.expireSessionCookie(w, h.cfg.CSRFCookieName, false)
}

func (h *Handler) refreshTokenFromCookie(r *http.Request) (string, bool) {
	if h == nil || r == nil || !h.cfg.WebRefreshCookieEnabled {
		return "", false
	}
	c, err := r.Cookie(h.cfg.RefreshCookieName)
	if err != nil {
		return "", false
	}
	v := strings.TrimSpace(c.Value)
	return v, v != ""
}

// csrfDoubleSubmitValid requires the CSRF cookie and the CSRF header to
// carry the same non-empty value. An attacker posting cross-site can make
// the browser attach the cookie but cannot read it to fill the header.
func (h *Handler) csrfDoubleSubmitValid(r *http.Request) bool {
	if h == nil || r == nil || !h.cfg.WebRefreshCookieEnabled {
		return false
	}
	c, err := r.Cookie(h.cfg.CSRFCookieName)
	if err != nil {
		return false
	}
	return secureStringEqual(
		strings.TrimSpace(c.Value),
		strings.TrimSpace(r.Header.Get(h.cfg.CSRFHeaderName)),
	)
}

func (h *Handler) writeSessionCookie(w http.ResponseWriter, name, value string, exp time.Time, httpOnly bool) {
	if h == nil || w == nil {
		return
	}
	http.SetCookie(w, h.sessionCookie(name, value, httpOnly, func(c *http.Cookie) {
		c.Expires = exp
	}))
}

func (h *Handler) expireSessionCookie(w http.ResponseWriter, name string, httpOnly bool) {
	if strings.TrimSpace(name) == "" {
		return
	}
	http.SetCookie(w, h.sessionCookie(name, "", httpOnly, func(c *http.Cookie) {
		c.Expires = time.Unix(0, 0).UTC()
		c.MaxAge = -1
	}))
}

// sessionCookie builds a cookie with the handler's shared scope settings
// (path, domain, Secure, SameSite); mutate adjusts lifetime per caller.
func (h *Handler) sessionCookie(name, value string, httpOnly bool, mutate func(*http.Cookie)) *http.Cookie {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     h.cfg.CookiePath,
		Domain:   h.cfg.CookieDomain,
		HttpOnly: httpOnly,
		Secure:   h.cfg.CookieSecure,
		SameSite: h.cfg.CookieSameSite,
	}
	mutate(c)
	return c
}

// secureStringEqual compares in constant time. Empty strings never
// match; a blank CSRF value must not validate against a blank header.
func secureStringEqual(a, b string) bool {
	if len(a) == 0 || len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
