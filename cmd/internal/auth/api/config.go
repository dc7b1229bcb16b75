package authapi

import (
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// NewAccessTokenHeader is set on responses when the auth gate silently
// rotated an expired access token. Clients must adopt the new token.
const NewAccessTokenHeader = "X-New-Access-Token"

// Config controls auth API behavior and security defaults.
type Config struct {
	TrustProxy   bool
	MaxBodyBytes int64

	// Web cookie transport for refresh tokens.
	WebRefreshCookieEnabled bool
	RefreshCookieName       string
	CSRFCookieName          string
	CSRFHeaderName          string
	CookiePath              string
	CookieDomain            string
	CookieSecure            bool
	CookieSameSite          http.SameSite

	// Login throttling (in-memory fixed window).
	LoginIPMax    int
	LoginIPWindow time.Duration
	LoginUserMax  int
}

// LoadConfigFromEnv loads auth API config from environment variables with
// safe defaults.
func LoadConfigFromEnv() Config {
	cfg := Config{
		TrustProxy:   envBool("FRIENDLINES_AUTH_TRUST_PROXY", false),
		MaxBodyBytes: envInt64("FRIENDLINES_AUTH_MAX_BODY_BYTES", 1<<20), // 1 MiB

		WebRefreshCookieEnabled: envBool("FRIENDLINES_AUTH_WEB_COOKIES", true),
		RefreshCookieName:       envString("FRIENDLINES_AUTH_REFRESH_COOKIE", "fl_refresh"),
		CSRFCookieName:          envString("FRIENDLINES_AUTH_CSRF_COOKIE", "fl_csrf"),
		CSRFHeaderName:          envString("FRIENDLINES_AUTH_CSRF_HEADER", "X-CSRF-Token"),
		CookiePath:              envString("FRIENDLINES_AUTH_COOKIE_PATH", "/"),
		CookieDomain:            envString("FRIENDLINES_AUTH_COOKIE_DOMAIN", ""),
		CookieSecure:            envBool("FRIENDLINES_AUTH_COOKIE_SECURE", true),
		CookieSameSite:          http.SameSiteLaxMode,

		LoginIPMax:    envInt("FRIENDLINES_AUTH_LOGIN_IP_MAX", 20),
		LoginIPWindow: envDuration("FRIENDLINES_AUTH_LOGIN_IP_WINDOW", 5*time.Minute),
		LoginUserMax:  envInt("FRIENDLINES_AUTH_LOGIN_USER_MAX", 5),
	}

	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	if cfg.LoginIPMax <= 0 {
		cfg.LoginIPMax = 20
	}
	if cfg.LoginUserMax <= 0 {
		cfg.LoginUserMax = 5
	}

	return cfg
}

func envString(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func envInt64(key string, def int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
