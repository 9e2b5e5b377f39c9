package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-otp-auth/internal/config"
	"github.com/go-otp-auth/internal/infrastructure/console"
	"github.com/go-otp-auth/internal/infrastructure/dynamo"
	jwtinfra "github.com/go-otp-auth/internal/infrastructure/jwt"
	"github.com/go-otp-auth/internal/infrastructure/memory"
	"github.com/go-otp-auth/internal/infrastructure/postgres"
	redisinfra "github.com/go-otp-auth/internal/infrastructure/redis"
	"github.com/go-otp-auth/internal/infrastructure/sns"
	"github.com/go-otp-auth/internal/otp"
	transporthttp "github.com/go-otp-auth/internal/transport/http"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, reading from environment")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(os.Stdout, cfg.LogLevel))

	if err := run(cfg); err != nil {
		slog.Error("server exited", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx := context.Background()

	db, err := postgres.Open(ctx, cfg.DSN())
	if err != nil {
		return err
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		return err
	}

	backend, closeBackend, err := newOTPBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeBackend()

	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		return fmt.Errorf("jwt provider: %w", err)
	}

	smsSender, err := newSMSSender(ctx, cfg)
	if err != nil {
		return err
	}

	deps := &transporthttp.Deps{
		UserRepo:    postgres.NewUserRepo(db),
		Registry:    otp.NewRegistry(backend, cfg.OTPTTL),
		SMSSender:   smsSender,
		JWTProvider: jwtProvider,
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      transporthttp.NewRouter(cfg, deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv, "otp_backend", cfg.OTPBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-quit:
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}

// newOTPBackend returns the configured registry backend and a release func.
func newOTPBackend(ctx context.Context, cfg *config.Config) (otp.Backend, func(), error) {
	switch cfg.OTPBackend {
	case config.OTPBackendRedis:
		client, err := redisinfra.NewClient(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return redisinfra.NewOTPStore(client), func() { _ = client.Close() }, nil
	case config.OTPBackendDynamo:
		client, err := dynamo.NewClient(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		dynamo.Bootstrap(ctx, client, cfg.DynamoOTPTable)
		return dynamo.NewOTPStore(client, cfg.DynamoOTPTable), func() {}, nil
	default:
		return memory.NewOTPStore(), func() {}, nil
	}
}

// newSNSSender is a seam for tests.
var newSNSSender = sns.NewSender

// newSMSSender builds the configured gateway. Outside development an SNS
// setup failure is fatal; in development it falls back to the console sender.
func newSMSSender(ctx context.Context, cfg *config.Config) (transporthttp.SMSSender, error) {
	if cfg.SMSProvider == config.SMSProviderSNS {
		sender, err := newSNSSender(ctx, cfg)
		if err == nil {
			return sender, nil
		}
		if cfg.AppEnv != config.EnvDevelopment {
			return nil, fmt.Errorf("sns sender: %w", err)
		}
		slog.Warn("SNS sender not available, logging SMS to console", "err", err)
	}
	return console.NewSender(slog.Default()), nil
}

func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
}
