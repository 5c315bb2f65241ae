// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
// It is built once at startup and passed by value or pointer into constructors; nothing reads the
// environment after Load returns.
type Config struct {
	// HTTPAddr is the address the HTTP API listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// GRPCAddr is the address of the gRPC health endpoint (e.g. :9090).
	GRPCAddr string `mapstructure:"GRPC_ADDR"`
	// RequestTimeoutRaw is the per-request deadline (e.g. "20s").
	RequestTimeoutRaw string `mapstructure:"REQUEST_TIMEOUT"`
	// TrustProxyHeaders makes X-Forwarded-For / X-Real-IP the client IP; enable only behind a proxy.
	TrustProxyHeaders bool `mapstructure:"TRUST_PROXY_HEADERS"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
	// DatabaseURL is the Postgres DSN.
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	// JWTPrivateKey is the PEM-encoded private key (RSA or ECDSA) or path to file.
	JWTPrivateKey string `mapstructure:"JWT_PRIVATE_KEY"`
	// JWTPublicKey is the PEM-encoded public key or path to file; used with JWT_PRIVATE_KEY.
	JWTPublicKey string `mapstructure:"JWT_PUBLIC_KEY"`
	// JWTIssuer is the iss claim.
	JWTIssuer string `mapstructure:"JWT_ISSUER"`
	// JWTAudience is the aud claim.
	JWTAudience string `mapstructure:"JWT_AUDIENCE"`
	// JWTAccessTTL is the access token lifetime (e.g. "15m").
	JWTAccessTTL string `mapstructure:"JWT_ACCESS_TTL"`
	// JWTRefreshTTL is the refresh token lifetime (e.g. "720h").
	JWTRefreshTTL string `mapstructure:"JWT_REFRESH_TTL"`

	// BcryptCost is the bcrypt cost factor (4–31); default 12.
	BcryptCost int `mapstructure:"BCRYPT_COST"`
	// PasswordMinLength is the minimum accepted length of a new password.
	PasswordMinLength int `mapstructure:"PASSWORD_MIN_LENGTH"`

	// OTPLength is the number of digits in a password-reset code.
	OTPLength int `mapstructure:"OTP_LENGTH"`
	// OTPTTLRaw is how long a reset code stays usable (e.g. "300s").
	OTPTTLRaw string `mapstructure:"OTP_TTL"`
	// OTPCooldownRaw is the minimum gap between two issued codes for one account (e.g. "60s").
	OTPCooldownRaw string `mapstructure:"OTP_COOLDOWN"`
	// OTPMaxAttempts is the number of wrong guesses allowed per code.
	OTPMaxAttempts int `mapstructure:"OTP_MAX_ATTEMPTS"`

	// RedisAddr enables login and forgot-password throttling when set.
	RedisAddr string `mapstructure:"REDIS_ADDR"`
	// LoginMaxAttempts is the number of failed logins allowed per window.
	LoginMaxAttempts int `mapstructure:"LOGIN_MAX_ATTEMPTS"`
	// LoginWindowRaw is the failed-login window (e.g. "15m").
	LoginWindowRaw string `mapstructure:"LOGIN_WINDOW"`
	// ForgotMaxRequests is the number of forgot-password requests allowed per IP per window.
	ForgotMaxRequests int `mapstructure:"FORGOT_MAX_REQUESTS"`
	// ForgotWindowRaw is the forgot-password window (e.g. "15m").
	ForgotWindowRaw string `mapstructure:"FORGOT_WINDOW"`

	// KafkaBrokers is a comma-separated list of Kafka broker addresses; empty disables push fan-out.
	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// NotifyKafkaTopic is the topic notifications are queued on.
	NotifyKafkaTopic string `mapstructure:"NOTIFY_KAFKA_TOPIC"`
	// KafkaGroupID is the consumer group ID for the notification worker.
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`
	// PushGatewayURL is the push delivery endpoint used by the worker.
	PushGatewayURL string `mapstructure:"PUSH_GATEWAY_URL"`
	// PushGatewayAPIKey authenticates the worker against the push gateway.
	PushGatewayAPIKey string `mapstructure:"PUSH_GATEWAY_API_KEY"`

	// SMTPHost is the mail relay; empty disables mail delivery (codes are dropped, never logged).
	SMTPHost string `mapstructure:"SMTP_HOST"`
	SMTPPort int    `mapstructure:"SMTP_PORT"`
	SMTPUser string `mapstructure:"SMTP_USER"`
	SMTPPass string `mapstructure:"SMTP_PASS"`
	SMTPFrom string `mapstructure:"SMTP_FROM"`

	// OTelEndpoint is the OTLP gRPC collector endpoint; empty uses no-op providers.
	OTelEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTelInsecure forces a plaintext OTLP connection.
	OTelInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	// OTelServiceName is the service.name resource attribute.
	OTelServiceName string `mapstructure:"OTEL_SERVICE_NAME"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("GRPC_ADDR", ":9090")
	v.SetDefault("REQUEST_TIMEOUT", "20s")
	v.SetDefault("TRUST_PROXY_HEADERS", false)
	v.SetDefault("APP_ENV", "")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("JWT_PRIVATE_KEY", "")
	v.SetDefault("JWT_PUBLIC_KEY", "")
	v.SetDefault("JWT_ISSUER", "school-auth")
	v.SetDefault("JWT_AUDIENCE", "school-api")
	v.SetDefault("JWT_ACCESS_TTL", "15m")
	v.SetDefault("JWT_REFRESH_TTL", "720h") // 30d
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("PASSWORD_MIN_LENGTH", 8)
	v.SetDefault("OTP_LENGTH", 6)
	v.SetDefault("OTP_TTL", "300s")
	v.SetDefault("OTP_COOLDOWN", "60s")
	v.SetDefault("OTP_MAX_ATTEMPTS", 5)
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("LOGIN_MAX_ATTEMPTS", 10)
	v.SetDefault("LOGIN_WINDOW", "15m")
	v.SetDefault("FORGOT_MAX_REQUESTS", 5)
	v.SetDefault("FORGOT_WINDOW", "15m")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("NOTIFY_KAFKA_TOPIC", "school-notifications")
	v.SetDefault("KAFKA_GROUP_ID", "school-notify-worker")
	v.SetDefault("PUSH_GATEWAY_URL", "")
	v.SetDefault("PUSH_GATEWAY_API_KEY", "")
	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USER", "")
	v.SetDefault("SMTP_PASS", "")
	v.SetDefault("SMTP_FROM", "no-reply@school.local")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("OTEL_SERVICE_NAME", "school-auth")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}

	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 12
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}
	if cfg.PasswordMinLength < 6 {
		return nil, errors.New("config: PASSWORD_MIN_LENGTH must be at least 6")
	}
	if cfg.OTPLength < 4 || cfg.OTPLength > 10 {
		return nil, errors.New("config: OTP_LENGTH must be between 4 and 10")
	}
	if cfg.OTPMaxAttempts < 1 {
		return nil, errors.New("config: OTP_MAX_ATTEMPTS must be at least 1")
	}
	if cfg.SMTPPort <= 0 || cfg.SMTPPort > 65535 {
		return nil, errors.New("config: SMTP_PORT must be a valid port")
	}

	return &cfg, nil
}

// RequestTimeout parses RequestTimeoutRaw. Returns 20s if unset or invalid.
func (c *Config) RequestTimeout() time.Duration {
	return parseDuration(c.RequestTimeoutRaw, 20*time.Second)
}

// AccessTTL parses JWTAccessTTL as a time.Duration. Returns 15m if unset or invalid.
func (c *Config) AccessTTL() time.Duration {
	return parseDuration(c.JWTAccessTTL, 15*time.Minute)
}

// RefreshTTL parses JWTRefreshTTL as a time.Duration. Returns 30 days if unset or invalid.
func (c *Config) RefreshTTL() time.Duration {
	return parseDuration(c.JWTRefreshTTL, 30*24*time.Hour)
}

// OTPTTL returns how long an issued reset code stays usable. Returns 300s if unset or invalid.
func (c *Config) OTPTTL() time.Duration {
	return parseDuration(c.OTPTTLRaw, 300*time.Second)
}

// OTPCooldown returns the minimum gap between two codes for one account. Returns 60s if unset or invalid.
func (c *Config) OTPCooldown() time.Duration {
	return parseDuration(c.OTPCooldownRaw, 60*time.Second)
}

// LoginWindow returns the failed-login throttling window. Returns 15m if unset or invalid.
func (c *Config) LoginWindow() time.Duration {
	return parseDuration(c.LoginWindowRaw, 15*time.Minute)
}

// ForgotWindow returns the forgot-password throttling window. Returns 15m if unset or invalid.
func (c *Config) ForgotWindow() time.Duration {
	return parseDuration(c.ForgotWindowRaw, 15*time.Minute)
}

// KafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// Used to decide if push fan-out is enabled (non-empty list) and to create the producer.
func (c *Config) KafkaBrokersList() []string {
	if c == nil || c.KafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.KafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// IsProduction reports whether APP_ENV is "production".
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
