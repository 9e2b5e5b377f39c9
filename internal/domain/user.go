package domain

import "time"

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	PasswordHash string    `json:"-"`
	Verified     bool      `json:"verified"`
	CreatedAt    time.Time `json:"created"`
	UpdatedAt    time.Time `json:"updated"`
}

// Phone numbers are E.164 with a mandatory leading "+", the same form on every
// request, so one number maps to one identity across the flow.
type SignupRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,max=72"`
	Phone    string `json:"phone" validate:"required,startswith=+,e164"`
}

type VerifySignupRequest struct {
	Phone string `json:"phone" validate:"required,startswith=+,e164"`
	OTP   string `json:"otp" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type ForgotPasswordRequest struct {
	Phone string `json:"phone" validate:"required,startswith=+,e164"`
}

type ResetPasswordRequest struct {
	Phone       string `json:"phone" validate:"required,startswith=+,e164"`
	OTP         string `json:"otp" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,max=72"`
}

type BroadcastRequest struct {
	Text        string `json:"text"`
	SenderPhone string `json:"senderPhone"`
}
