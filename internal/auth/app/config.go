package app

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/lumastore/auth/internal/auth/service"
	"github.com/lumastore/auth/pkg/jwtx"
)

type Config struct {
	AppName            string // Token issuer and TOTP issuer label (default: LumaStore)
	AccessTokenSecret  string // Required: HMAC secret for access tokens
	RefreshTokenSecret string // Required: HMAC secret for refresh tokens, must differ

	AccessTokenTTL  time.Duration // Access token lifetime (default: 15m)
	RefreshTokenTTL time.Duration // Refresh token lifetime (default: 168h)
	OTPTTL          time.Duration // Emailed code lifetime (default: 5m)
	OTPSendInterval time.Duration // Minimum gap between sends per email (default: 60s, 0 disables)

	DatabaseFile string // Path to SQLite database file (default: ./auth.db)
	RedisAddr    string // Optional: when set, verification codes live in Redis
	PepperFile   string // Path to password pepper file (default: ./pepper)

	SMTPHost string // Optional: log-only mailer when unset
	SMTPPort int
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // debug, info, warn, error (default: info)
	LogFormat            string        // json, text (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Expired-row sweep interval (default: 1h)
}

func LoadConfig() Config {
	return Config{
		AppName:            getEnvOrDefault("APP_NAME", "LumaStore"),
		AccessTokenSecret:  os.Getenv("ACCESS_TOKEN_SECRET"),
		RefreshTokenSecret: os.Getenv("REFRESH_TOKEN_SECRET"),

		AccessTokenTTL:  getEnvDurationOrDefault("ACCESS_TOKEN_TTL", jwtx.DefaultAccessTokenTTL),
		RefreshTokenTTL: getEnvDurationOrDefault("REFRESH_TOKEN_TTL", jwtx.DefaultRefreshTokenTTL),
		OTPTTL:          getEnvDurationOrDefault("OTP_TTL", service.DefaultOTPTTL),
		OTPSendInterval: getEnvDurationOrDefault("OTP_SEND_INTERVAL", time.Minute),

		DatabaseFile: getEnvOrDefault("DATABASE_FILE", "auth.db"),
		RedisAddr:    os.Getenv("REDIS_ADDR"),
		PepperFile:   getEnvOrDefault("PEPPER_FILE", "pepper"),

		SMTPHost: os.Getenv("SMTP_HOST"),
		SMTPPort: getEnvIntOrDefault("SMTP_PORT", 587),
		SMTPUser: os.Getenv("SMTP_USER"),
		SMTPPass: os.Getenv("SMTP_PASS"),
		SMTPFrom: getEnvOrDefault("SMTP_FROM", "no-reply@lumastore.dev"),

		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", time.Hour),
	}
}

// Validate enforces the invariants the service cannot run without.
func (c Config) Validate() error {
	if c.AccessTokenSecret == "" {
		return errors.New("ACCESS_TOKEN_SECRET is required")
	}
	if c.RefreshTokenSecret == "" {
		return errors.New("REFRESH_TOKEN_SECRET is required")
	}
	if c.AccessTokenSecret == c.RefreshTokenSecret {
		return errors.New("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must differ")
	}
	return nil
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
	return defaultValue
}
