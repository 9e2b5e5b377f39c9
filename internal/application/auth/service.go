package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/go-otp-auth/internal/domain"
	"github.com/go-otp-auth/internal/otp"
	"github.com/go-otp-auth/internal/pkg/id"
	"github.com/go-otp-auth/internal/pkg/otpcode"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const defaultBroadcastConcurrency = 8

type Service interface {
	Signup(ctx context.Context, req domain.SignupRequest) error
	VerifySignup(ctx context.Context, req domain.VerifySignupRequest) (*VerifyResult, error)
	Login(ctx context.Context, req domain.LoginRequest) (token string, err error)
	ForgotPassword(ctx context.Context, req domain.ForgotPasswordRequest) error
	ResetPassword(ctx context.Context, req domain.ResetPasswordRequest) error
	BroadcastMessage(ctx context.Context, req domain.BroadcastRequest) (*domain.BroadcastResult, error)
	Me(ctx context.Context, userID string) (*domain.User, error)
}

// VerifyResult is returned by a successful VerifySignup.
type VerifyResult struct {
	User  *domain.User
	Token string
}

type userStore interface {
	FindByEmailOrPhone(ctx context.Context, email, phone string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByPhone(ctx context.Context, phone string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	Insert(ctx context.Context, u *domain.User) error
	UpdatePassword(ctx context.Context, phone, passwordHash string) error
	ListVerifiedPhones(ctx context.Context) ([]string, error)
}

type otpRegistry interface {
	PutSignup(ctx context.Context, p domain.PendingSignup) error
	GetSignup(ctx context.Context, phone string) (*domain.PendingSignup, error)
	RemoveSignup(ctx context.Context, phone string) error
	PutReset(ctx context.Context, c domain.ResetCode) error
	GetReset(ctx context.Context, phone string) (*domain.ResetCode, error)
	RemoveReset(ctx context.Context, phone string) error
}

type smsSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

type tokenSigner interface {
	Sign(userID string) (string, error)
}

type ServiceDeps struct {
	UserRepo    userStore
	Registry    otpRegistry
	SMSSender   smsSender
	JWTProvider tokenSigner
	BcryptCost  int
	// BroadcastConcurrency bounds in-flight sends per broadcast.
	BroadcastConcurrency int
	// BroadcastRate paces sends across all broadcasts, in messages per second. 0 disables pacing.
	BroadcastRate float64
}

type service struct {
	users       userStore
	registry    otpRegistry
	sms         smsSender
	jwt         tokenSigner
	cost        int
	concurrency int
	limiter     *rate.Limiter
	dummyHash   []byte
}

func NewService(deps ServiceDeps) Service {
	cost := deps.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	concurrency := deps.BroadcastConcurrency
	if concurrency < 1 {
		concurrency = defaultBroadcastConcurrency
	}
	var limiter *rate.Limiter
	if deps.BroadcastRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(deps.BroadcastRate), concurrency)
	}
	// Compared against on unknown emails so both login failures cost one bcrypt round.
	dummy, _ := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), cost)
	return &service{
		users:       deps.UserRepo,
		registry:    deps.Registry,
		sms:         deps.SMSSender,
		jwt:         deps.JWTProvider,
		cost:        cost,
		concurrency: concurrency,
		limiter:     limiter,
		dummyHash:   dummy,
	}
}

// Signup stores a pending registration for req.Phone and texts it a code.
// A failed dispatch leaves the pending entry in place.
func (s *service) Signup(ctx context.Context, req domain.SignupRequest) error {
	_, err := s.users.FindByEmailOrPhone(ctx, req.Email, req.Phone)
	if err == nil {
		return fmt.Errorf("email or phone already registered: %w", domain.ErrAlreadyExists)
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("check existing user: %w", err)
	}

	hash, err := s.hash(req.Password)
	if err != nil {
		return err
	}
	code, err := otpcode.Generate()
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrUnexpected, err)
	}

	pending := domain.PendingSignup{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Phone:        req.Phone,
		Code:         code,
	}
	if err := s.registry.PutSignup(ctx, pending); err != nil {
		return fmt.Errorf("store pending signup: %w: %w", domain.ErrStore, err)
	}
	return s.sendCode(ctx, req.Phone, code)
}

// VerifySignup promotes the pending registration for req.Phone to a verified
// user when req.OTP matches. A mismatch keeps the pending entry for retry.
func (s *service) VerifySignup(ctx context.Context, req domain.VerifySignupRequest) (*VerifyResult, error) {
	pending, err := s.registry.GetSignup(ctx, req.Phone)
	if errors.Is(err, otp.ErrAbsent) {
		return nil, fmt.Errorf("no pending registration for phone: %w", domain.ErrNoPendingRequest)
	}
	if err != nil {
		return nil, fmt.Errorf("load pending signup: %w: %w", domain.ErrStore, err)
	}
	if !codesEqual(pending.Code, req.OTP) {
		return nil, fmt.Errorf("signup code mismatch: %w", domain.ErrInvalidCode)
	}

	u := &domain.User{
		ID:           id.New(),
		Username:     pending.Username,
		Email:        pending.Email,
		Phone:        pending.Phone,
		PasswordHash: pending.PasswordHash,
		Verified:     true,
	}
	if err := s.users.Insert(ctx, u); err != nil {
		return nil, err
	}
	if err := s.registry.RemoveSignup(ctx, req.Phone); err != nil {
		slog.Warn("failed to remove pending signup", "user_id", u.ID, "err", err)
	}

	token, err := s.jwt.Sign(u.ID)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w: %w", domain.ErrUnexpected, err)
	}
	return &VerifyResult{User: u, Token: token}, nil
}

// Login returns a session token. Unknown email and wrong password are
// indistinguishable to the caller.
func (s *service) Login(ctx context.Context, req domain.LoginRequest) (string, error) {
	u, err := s.users.FindByEmail(ctx, req.Email)
	if errors.Is(err, domain.ErrNotFound) {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(req.Password))
		return "", domain.ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("find user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return "", domain.ErrInvalidCredentials
	}
	if !u.Verified {
		return "", fmt.Errorf("login before verification: %w", domain.ErrNotVerified)
	}

	token, err := s.jwt.Sign(u.ID)
	if err != nil {
		return "", fmt.Errorf("sign token: %w: %w", domain.ErrUnexpected, err)
	}
	return token, nil
}

func (s *service) ForgotPassword(ctx context.Context, req domain.ForgotPasswordRequest) error {
	if _, err := s.findByPhone(ctx, req.Phone); err != nil {
		return err
	}
	code, err := otpcode.Generate()
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrUnexpected, err)
	}
	if err := s.registry.PutReset(ctx, domain.ResetCode{Phone: req.Phone, Code: code}); err != nil {
		return fmt.Errorf("store reset code: %w: %w", domain.ErrStore, err)
	}
	return s.sendCode(ctx, req.Phone, code)
}

func (s *service) ResetPassword(ctx context.Context, req domain.ResetPasswordRequest) error {
	if _, err := s.findByPhone(ctx, req.Phone); err != nil {
		return err
	}
	rc, err := s.registry.GetReset(ctx, req.Phone)
	if errors.Is(err, otp.ErrAbsent) {
		return fmt.Errorf("no reset code for phone: %w", domain.ErrInvalidCode)
	}
	if err != nil {
		return fmt.Errorf("load reset code: %w: %w", domain.ErrStore, err)
	}
	if !codesEqual(rc.Code, req.OTP) {
		return fmt.Errorf("reset code mismatch: %w", domain.ErrInvalidCode)
	}

	hash, err := s.hash(req.NewPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, req.Phone, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if err := s.registry.RemoveReset(ctx, req.Phone); err != nil {
		slog.Warn("failed to remove reset code", "err", err)
	}
	return nil
}

// BroadcastMessage texts every verified user. All sends are attempted and
// joined before returning; any failure yields a *domain.DeliveryError
// alongside the per-recipient result.
func (s *service) BroadcastMessage(ctx context.Context, req domain.BroadcastRequest) (*domain.BroadcastResult, error) {
	if req.Text == "" || req.SenderPhone == "" {
		return nil, fmt.Errorf("text and sender phone number are required: %w", domain.ErrInvalidInput)
	}
	phones, err := s.users.ListVerifiedPhones(ctx)
	if err != nil {
		return nil, fmt.Errorf("list recipients: %w", err)
	}
	if len(phones) == 0 {
		return nil, domain.ErrNoRecipients
	}

	body := fmt.Sprintf("Message from %s: %s", req.SenderPhone, req.Text)
	res := &domain.BroadcastResult{Recipients: len(phones)}
	var (
		mu       sync.Mutex
		firstErr error
		g        errgroup.Group
	)
	g.SetLimit(s.concurrency)
	for _, phone := range phones {
		g.Go(func() error {
			err := s.dispatch(ctx, phone, body)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				slog.Warn("broadcast delivery failed", "to", phone, "err", err)
				res.Failed = append(res.Failed, phone)
				if firstErr == nil {
					firstErr = err
				}
				return nil
			}
			res.Delivered++
			return nil
		})
	}
	_ = g.Wait()

	if len(res.Failed) > 0 {
		sort.Strings(res.Failed)
		return res, &domain.DeliveryError{Delivered: res.Delivered, Total: res.Recipients, Err: firstErr}
	}
	return res, nil
}

func (s *service) Me(ctx context.Context, userID string) (*domain.User, error) {
	return s.users.FindByID(ctx, userID)
}

func (s *service) dispatch(ctx context.Context, phone, body string) error {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	return s.sms.SendSMS(ctx, phone, body)
}

func (s *service) findByPhone(ctx context.Context, phone string) (*domain.User, error) {
	u, err := s.users.FindByPhone(ctx, phone)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}

func (s *service) hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", fmt.Errorf("password too long: %w", domain.ErrInvalidInput)
	}
	if err != nil {
		return "", fmt.Errorf("hash password: %w: %w", domain.ErrUnexpected, err)
	}
	return string(h), nil
}

func (s *service) sendCode(ctx context.Context, phone, code string) error {
	if err := s.sms.SendSMS(ctx, phone, "Your OTP is: "+code); err != nil {
		return fmt.Errorf("send otp: %w: %w", domain.ErrDelivery, err)
	}
	return nil
}

func codesEqual(stored, submitted string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(submitted)) == 1
}
