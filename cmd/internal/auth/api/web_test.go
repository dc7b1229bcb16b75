package authapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func webTestHandler(t *testing.T) *Handler {
	t.Helper()
	h, _ := newTestHandler(t)
	return h
}

func TestSecureStringEqual(t *testing.T) {
	cases := []struct {
		a, b string
		want bool
	}{
		{"token", "token", true},
		{"token", "Token", false},
		{"token", "token2", false},
		{"", "", false},
		{"token", "", false},
	}
	for _, tc := range cases {
		if got := secureStringEqual(tc.a, tc.b); got != tc.want {
			t.Errorf("secureStringEqual(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestSetWebSessionCookies(t *testing.T) {
	h := webTestHandler(t)
	rec := httptest.NewRecorder()

	csrf, err := h.setWebSessionCookies(rec, "refresh-value", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("setWebSessionCookies: %v", err)
	}
	if csrf == "" {
		t.Fatal("want a generated csrf token")
	}

	var refresh, csrfCookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		switch c.Name {
		case h.cfg.RefreshCookieName:
			refresh = c
		case h.cfg.CSRFCookieName:
			csrfCookie = c
		}
	}
	if refresh == nil || csrfCookie == nil {
		t.Fatal("both session cookies must be set")
	}
	if refresh.Value != "refresh-value" {
		t.Fatalf("refresh cookie value = %q", refresh.Value)
	}
	if !refresh.HttpOnly {
		t.Fatal("refresh cookie must be HttpOnly")
	}
	if csrfCookie.HttpOnly {
		t.Fatal("csrf cookie must be readable by scripts")
	}
	if csrfCookie.Value != csrf {
		t.Fatal("csrf cookie must carry the returned token")
	}
}

func TestClearWebSessionCookies(t *testing.T) {
	h := webTestHandler(t)
	rec := httptest.NewRecorder()
	h.clearWebSessionCookies(rec)

	cleared := map[string]bool{}
	for _, c := range rec.Result().Cookies() {
		if c.Value == "" && c.MaxAge < 0 {
			cleared[c.Name] = true
		}
	}
	if !cleared[h.cfg.RefreshCookieName] || !cleared[h.cfg.CSRFCookieName] {
		t.Fatalf("both cookies must be expired, got %v", cleared)
	}
}

func TestCSRFDoubleSubmit(t *testing.T) {
	h := webTestHandler(t)

	newReq := func(cookie, header string) *http.Request {
		r := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
		if cookie != "" {
			r.AddCookie(&http.Cookie{Name: h.cfg.CSRFCookieName, Value: cookie})
		}
		if header != "" {
			r.Header.Set(h.cfg.CSRFHeaderName, header)
		}
		return r
	}

	if !h.csrfDoubleSubmitValid(newReq("abc123", "abc123")) {
		t.Fatal("matching cookie and header must pass")
	}
	if h.csrfDoubleSubmitValid(newReq("abc123", "different")) {
		t.Fatal("mismatched header must fail")
	}
	if h.csrfDoubleSubmitValid(newReq("abc123", "")) {
		t.Fatal("missing header must fail")
	}
	if h.csrfDoubleSubmitValid(newReq("", "abc123")) {
		t.Fatal("missing cookie must fail")
	}
}

func TestRefreshTokenFromCookie(t *testing.T) {
	h := webTestHandler(t)

	r := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	if _, ok := h.refreshTokenFromCookie(r); ok {
		t.Fatal("no cookie must yield no token")
	}

	r.AddCookie(&http.Cookie{Name: h.cfg.RefreshCookieName, Value: "opaque-token"})
	got, ok := h.refreshTokenFromCookie(r)
	if !ok || got != "opaque-token" {
		t.Fatalf("got (%q, %v), want the cookie token", got, ok)
	}
}
