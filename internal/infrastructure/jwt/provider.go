package jwtinfra

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-otp-auth/internal/config"
	"github.com/golang-jwt/jwt/v5"
)

// Claims holds the JWT payload fields.
type Claims struct {
	UserID string `json:"id"`
	jwt.RegisteredClaims
}

// Provider signs and verifies HS256 session tokens.
type Provider struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

func NewProvider(cfg *config.Config) (*Provider, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	if cfg.JWTExpiry <= 0 {
		return nil, fmt.Errorf("jwt expiry must be positive, got %s", cfg.JWTExpiry)
	}
	return &Provider{secret: []byte(cfg.JWTSecret), expiry: cfg.JWTExpiry, now: time.Now}, nil
}

// Sign issues a token bound to userID that expires after the configured expiry.
func (p *Provider) Sign(userID string) (string, error) {
	now := p.now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(p.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(p.secret)
}

func (p *Provider) Verify(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return p.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(p.now))
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
