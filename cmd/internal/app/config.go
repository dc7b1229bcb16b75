package app

import "time"

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	HTTPAddr  string
	LogLevel  string
	LogFormat string

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int

	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	// If true, /readyz returns 503 unless the database is configured and
	// reachable.
	ReadinessRequireDB bool

	// If true, FRIENDLINES_TOKEN_HMAC_KEY MUST be set (>= 32 bytes) and
	// refresh-token hashing must be HMAC-based.
	RequireTokenHMAC bool

	// Push delivery endpoint. When empty, push sends are no-ops.
	PushURL     string
	PushAPIKey  string
	PushTimeout time.Duration

	// Browser origins allowed to call the API. Entries may end in ":*"
	// to allow any port on that host.
	CORSAllowedOrigins   []string
	CORSAllowCredentials bool
	CORSMaxAgeSeconds    int
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() Config {
	return Config{
		HTTPAddr:  EnvString("FRIENDLINES_HTTP_ADDR", "0.0.0.0:8080"),
		LogLevel:  EnvString("FRIENDLINES_LOG_LEVEL", "info"),
		LogFormat: EnvString("FRIENDLINES_LOG_FORMAT", "json"),

		ReadHeaderTimeout: EnvDuration("FRIENDLINES_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       EnvDuration("FRIENDLINES_HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      EnvDuration("FRIENDLINES_HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:       EnvDuration("FRIENDLINES_HTTP_IDLE_TIMEOUT", 60*time.Second),

		MaxHeaderBytes: EnvInt("FRIENDLINES_HTTP_MAX_HEADER_BYTES", 1<<20),

		DatabaseURL: EnvString("FRIENDLINES_DATABASE_URL", ""),
		DBMaxConns:  EnvInt32("FRIENDLINES_DB_MAX_CONNS", 10),
		DBMinConns:  EnvInt32("FRIENDLINES_DB_MIN_CONNS", 0),

		ReadinessRequireDB: EnvBool("FRIENDLINES_READINESS_REQUIRE_DB", false),

		RequireTokenHMAC: EnvBool("FRIENDLINES_REQUIRE_TOKEN_HMAC", false),

		PushURL:     EnvString("FRIENDLINES_PUSH_URL", ""),
		PushAPIKey:  EnvString("FRIENDLINES_PUSH_API_KEY", ""),
		PushTimeout: EnvDuration("FRIENDLINES_PUSH_TIMEOUT", 5*time.Second),

		CORSAllowedOrigins:   EnvCSV("FRIENDLINES_CORS_ALLOWED_ORIGINS", nil),
		CORSAllowCredentials: EnvBool("FRIENDLINES_CORS_ALLOW_CREDENTIALS", true),
		CORSMaxAgeSeconds:    EnvInt("FRIENDLINES_CORS_MAX_AGE_SECONDS", 600),
	}
}
