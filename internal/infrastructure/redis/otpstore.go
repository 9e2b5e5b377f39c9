package redisinfra

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-otp-auth/internal/config"
	"github.com/go-otp-auth/internal/otp"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "otp"

// OTPStore is an otp.Backend shared by every API instance pointed at the same Redis.
// Key layout: otp:{namespace}:{phone}.
type OTPStore struct {
	client *redis.Client
}

// NewClient builds a Redis client from config and pings it.
func NewClient(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

func NewOTPStore(client *redis.Client) *OTPStore {
	return &OTPStore{client: client}
}

func (s *OTPStore) key(namespace, phone string) string {
	return keyPrefix + ":" + namespace + ":" + phone
}

func (s *OTPStore) Put(ctx context.Context, namespace, phone string, payload []byte, ttl time.Duration) error {
	// go-redis treats a zero expiration as "no expiry".
	if err := s.client.Set(ctx, s.key(namespace, phone), payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *OTPStore) Get(ctx context.Context, namespace, phone string) ([]byte, error) {
	b, err := s.client.Get(ctx, s.key(namespace, phone)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, otp.ErrAbsent
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return b, nil
}

func (s *OTPStore) Remove(ctx context.Context, namespace, phone string) error {
	if err := s.client.Del(ctx, s.key(namespace, phone)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
