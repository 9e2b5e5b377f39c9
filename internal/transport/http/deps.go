package http

import (
	"context"

	"github.com/go-otp-auth/internal/domain"
)

// UserRepository is the minimal interface the router requires from a credential store.
type UserRepository interface {
	FindByEmailOrPhone(ctx context.Context, email, phone string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByPhone(ctx context.Context, phone string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	Insert(ctx context.Context, u *domain.User) error
	UpdatePassword(ctx context.Context, phone, passwordHash string) error
	// ListVerifiedPhones returns the phone of every verified user.
	ListVerifiedPhones(ctx context.Context) ([]string, error)
}

// OTPRegistry is the minimal interface the router requires from the code registry.
type OTPRegistry interface {
	PutSignup(ctx context.Context, p domain.PendingSignup) error
	GetSignup(ctx context.Context, phone string) (*domain.PendingSignup, error)
	RemoveSignup(ctx context.Context, phone string) error
	PutReset(ctx context.Context, c domain.ResetCode) error
	GetReset(ctx context.Context, phone string) (*domain.ResetCode, error)
	RemoveReset(ctx context.Context, phone string) error
}

// SMSSender is the minimal interface the router requires from an SMS gateway.
type SMSSender interface {
	SendSMS(ctx context.Context, to, message string) error
}
