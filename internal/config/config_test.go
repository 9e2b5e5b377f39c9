package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "3000", cfg.AppPort)
	assert.Equal(t, time.Hour, cfg.JWTExpiry)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, OTPBackendMemory, cfg.OTPBackend)
	assert.Zero(t, cfg.OTPTTL)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Equal(t, 8, cfg.BroadcastConcurrency)
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_UnknownBackend(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("OTP_BACKEND", "etcd")
	_, err := Load()
	assert.ErrorContains(t, err, "OTP_BACKEND")
}

func TestLoad_UnknownSMSProvider(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("SMS_PROVIDER", "twilio")
	_, err := Load()
	assert.ErrorContains(t, err, "SMS_PROVIDER")
}

func TestDSN_FromParts(t *testing.T) {
	cfg := &Config{DBUser: "app", DBPassword: "p@ss", DBHost: "db", DBPort: "5432", DBName: "auth", DBSSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss@db:5432/auth?sslmode=disable", cfg.DSN())
}

func TestDSN_URLWins(t *testing.T) {
	cfg := &Config{DatabaseURL: "postgres://x/y", DBHost: "ignored"}
	assert.Equal(t, "postgres://x/y", cfg.DSN())
}
