package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
)

// OTP registry backends.
const (
	OTPBackendMemory = "memory"
	OTPBackendRedis  = "redis"
	OTPBackendDynamo = "dynamo"
)

// SMS providers.
const (
	SMSProviderSNS     = "sns"
	SMSProviderConsole = "console"
)

// EnvDevelopment is the APP_ENV value that permits development-only fallbacks.
const EnvDevelopment = "development"

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort        string   `env:"APP_PORT" envDefault:"3000"`
	AppEnv         string   `env:"APP_ENV" envDefault:"development"`
	LogLevel       string   `env:"LOG_LEVEL" envDefault:"info"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envDefault:"*" envSeparator:","` // CORS allowed origins

	// DatabaseURL takes precedence over the discrete DB_* fields when set.
	DatabaseURL string `env:"DATABASE_URL"`
	DBHost      string `env:"DB_HOST" envDefault:"localhost"`
	DBPort      string `env:"DB_PORT" envDefault:"5432"`
	DBUser      string `env:"DB_USER" envDefault:"postgres"`
	DBPassword  string `env:"DB_PASSWORD"`
	DBName      string `env:"DB_NAME" envDefault:"auth"`
	DBSSLMode   string `env:"DB_SSLMODE" envDefault:"disable"`

	JWTSecret  string        `env:"JWT_SECRET,required,notEmpty"`
	JWTExpiry  time.Duration `env:"JWT_EXPIRY" envDefault:"1h"`
	BcryptCost int           `env:"BCRYPT_COST" envDefault:"10"`

	OTPBackend string        `env:"OTP_BACKEND" envDefault:"memory"`
	OTPTTL     time.Duration `env:"OTP_TTL" envDefault:"0s"` // 0 keeps entries until consumed or overwritten

	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	AWSRegion      string `env:"AWS_REGION" envDefault:"us-east-1"`
	AWSEndpointURL string `env:"AWS_ENDPOINT_URL"` // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretKey   string `env:"AWS_SECRET_ACCESS_KEY"`
	DynamoOTPTable string `env:"DYNAMO_TABLE_OTP" envDefault:"otp_codes"`

	SMSProvider     string `env:"SMS_PROVIDER" envDefault:"sns"`
	SNSRegion       string `env:"SNS_REGION" envDefault:"us-east-1"`
	SMSSenderNumber string `env:"SMS_SENDER_NUMBER"`

	BroadcastConcurrency int     `env:"BROADCAST_CONCURRENCY" envDefault:"8"`
	BroadcastRate        float64 `env:"BROADCAST_RATE" envDefault:"0"` // messages per second, 0 = unpaced

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Load reads all configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.OTPBackend {
	case OTPBackendMemory, OTPBackendRedis, OTPBackendDynamo:
	default:
		return fmt.Errorf("unknown OTP_BACKEND %q", c.OTPBackend)
	}
	switch c.SMSProvider {
	case SMSProviderSNS, SMSProviderConsole:
	default:
		return fmt.Errorf("unknown SMS_PROVIDER %q", c.SMSProvider)
	}
	if c.OTPTTL < 0 {
		return fmt.Errorf("OTP_TTL must not be negative")
	}
	if c.BroadcastConcurrency < 1 {
		return fmt.Errorf("BROADCAST_CONCURRENCY must be at least 1")
	}
	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     c.DBHost + ":" + c.DBPort,
		Path:     "/" + c.DBName,
		RawQuery: url.Values{"sslmode": []string{c.DBSSLMode}}.Encode(),
	}
	return u.String()
}
