package domain

// PendingSignup is a registration awaiting OTP confirmation.
// Keyed by Phone in the OTP registry; never written to the credential store.
type PendingSignup struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
	Phone        string `json:"phone"`
	Code         string `json:"code"`
}

// ResetCode is an outstanding password-reset OTP keyed by Phone.
type ResetCode struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

// BroadcastResult tracks per-recipient outcome of a broadcast.
type BroadcastResult struct {
	Recipients int
	Delivered  int
	Failed     []string
}
