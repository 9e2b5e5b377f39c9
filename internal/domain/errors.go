package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrAlreadyExists      = errors.New("user already exists")
	ErrNoPendingRequest   = errors.New("no pending registration")
	ErrInvalidCode        = errors.New("invalid otp")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotVerified        = errors.New("account not verified")
	ErrNotFound           = errors.New("not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrNoRecipients       = errors.New("no recipients")
	ErrDelivery           = errors.New("sms delivery failed")
	ErrStore              = errors.New("store failure")
	ErrUnexpected         = errors.New("unexpected error")
)

// DeliveryError reports a broadcast in which at least one dispatch failed.
// It matches ErrDelivery under errors.Is.
type DeliveryError struct {
	Delivered int
	Total     int
	Err       error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivered %d of %d messages: %v", e.Delivered, e.Total, e.Err)
}

func (e *DeliveryError) Unwrap() []error { return []error{ErrDelivery, e.Err} }
