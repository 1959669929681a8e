package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Issuer   string // Issuer claim for access tokens
	Audience string // Audience claim for access tokens
	BaseURL  string // Externally reachable origin used in email links

	JWTSecret string // Required: HS256 signing key, min 32 bytes
	CodeKey   string // Optional: one-time code MAC key (falls back to JWTSecret)

	AccessTTL  time.Duration // Access token lifetime (default: 15m)
	RefreshTTL time.Duration // Refresh token lifetime (default: 336h)

	LockoutThreshold int           // Failed logins before lockout (default: 5)
	LockoutWindow    time.Duration // Lockout duration (default: 5m)

	ConfirmCodeTTL time.Duration // Email confirmation link lifetime (default: 48h)
	ResetCodeTTL   time.Duration // Password reset link lifetime (default: 2h)

	BootstrapAdminEmail string // Optional: email that registers as Admin

	SMTPHost     string // Optional: SMTP relay; log-only sender when empty
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	DatabaseFile string // Path to SQLite database file (default: ./auth.db)
	PepperFile   string // Path to password pepper file (default: ./pepper)

	Env       string // Environment (dev, staging, prod) (default: dev)
	LogLevel  string // Log level (debug, info, warn, error) (default: info)
	LogFormat string // Log format (json, text) (default: json)
	Port      int    // HTTP server port (default: 8080)

	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Expired-token sweep interval (default: 1h)
}

func LoadConfig() Config {
	return Config{
		Issuer:   getEnvOrDefault("AUTH_ISSUER", "almny-auth"),
		Audience: getEnvOrDefault("AUTH_AUDIENCE", "almny-api"),
		BaseURL:  getEnvOrDefault("AUTH_BASE_URL", "http://localhost:8080"),

		JWTSecret: os.Getenv("AUTH_JWT_SECRET"),
		CodeKey:   os.Getenv("AUTH_CODE_KEY"),

		AccessTTL:  getEnvDurationOrDefault("AUTH_ACCESS_TTL", 15*time.Minute),
		RefreshTTL: getEnvDurationOrDefault("AUTH_REFRESH_TTL", 14*24*time.Hour),

		LockoutThreshold: getEnvIntOrDefault("AUTH_LOCKOUT_THRESHOLD", 5),
		LockoutWindow:    getEnvDurationOrDefault("AUTH_LOCKOUT_WINDOW", 5*time.Minute),

		ConfirmCodeTTL: getEnvDurationOrDefault("AUTH_CONFIRM_CODE_TTL", 48*time.Hour),
		ResetCodeTTL:   getEnvDurationOrDefault("AUTH_RESET_CODE_TTL", 2*time.Hour),

		BootstrapAdminEmail: os.Getenv("AUTH_BOOTSTRAP_ADMIN_EMAIL"),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getEnvIntOrDefault("SMTP_PORT", 587),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:     getEnvOrDefault("SMTP_FROM", "no-reply@localhost"),

		DatabaseFile: getEnvOrDefault("AUTH_DATABASE_FILE", "auth.db"),
		PepperFile:   getEnvOrDefault("AUTH_PEPPER_FILE", "pepper"),

		Env:       getEnvOrDefault("ENV", "dev"),
		LogLevel:  getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "json"),
		Port:      getEnvIntOrDefault("PORT", 8080),

		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are read as minutes.
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}
	return defaultValue
}
