// Package otp holds in-flight signup and password-reset codes keyed by phone
// number. Two namespaces are kept apart so a reset request never clobbers a
// pending signup for the same phone.
package otp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-otp-auth/internal/domain"
)

// Namespaces partition the registry.
const (
	NamespaceSignup = "signup"
	NamespaceReset  = "reset"
)

// ErrAbsent is returned by Backend.Get and the Registry getters when no live
// entry exists for a phone.
var ErrAbsent = errors.New("otp entry absent")

// Backend is the storage contract behind a Registry. Put overwrites
// unconditionally, Remove is idempotent. A ttl of zero means no expiry.
type Backend interface {
	Put(ctx context.Context, namespace, phone string, payload []byte, ttl time.Duration) error
	Get(ctx context.Context, namespace, phone string) ([]byte, error)
	Remove(ctx context.Context, namespace, phone string) error
}

// Registry stores typed OTP entries on top of a Backend.
type Registry struct {
	backend Backend
	ttl     time.Duration
}

func NewRegistry(backend Backend, ttl time.Duration) *Registry {
	return &Registry{backend: backend, ttl: ttl}
}

func (r *Registry) PutSignup(ctx context.Context, p domain.PendingSignup) error {
	return r.put(ctx, NamespaceSignup, p.Phone, p)
}

func (r *Registry) GetSignup(ctx context.Context, phone string) (*domain.PendingSignup, error) {
	var p domain.PendingSignup
	if err := r.get(ctx, NamespaceSignup, phone, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Registry) RemoveSignup(ctx context.Context, phone string) error {
	return r.backend.Remove(ctx, NamespaceSignup, phone)
}

func (r *Registry) PutReset(ctx context.Context, c domain.ResetCode) error {
	return r.put(ctx, NamespaceReset, c.Phone, c)
}

func (r *Registry) GetReset(ctx context.Context, phone string) (*domain.ResetCode, error) {
	var c domain.ResetCode
	if err := r.get(ctx, NamespaceReset, phone, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Registry) RemoveReset(ctx context.Context, phone string) error {
	return r.backend.Remove(ctx, NamespaceReset, phone)
}

func (r *Registry) put(ctx context.Context, namespace, phone string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s entry: %w", namespace, err)
	}
	return r.backend.Put(ctx, namespace, phone, b, r.ttl)
}

func (r *Registry) get(ctx context.Context, namespace, phone string, dst any) error {
	b, err := r.backend.Get(ctx, namespace, phone)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("unmarshal %s entry: %w", namespace, err)
	}
	return nil
}
