package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/tokengate/tokengate/internal/config"
)

// Admin auth errors
var (
	ErrAdminDisabled    = errors.New("admin API is not configured")
	ErrInvalidPassword  = errors.New("invalid admin password")
	ErrInvalidSession   = errors.New("admin session token is invalid or expired")
	ErrMissingJWTSecret = errors.New("security.admin.jwt_secret must be set")
)

const adminSubject = "admin"

// AdminSessions issues and validates the HS256 session tokens that protect
// the administrative API.
type AdminSessions struct {
	cfg config.AdminConfig
}

// NewAdminSessions creates an AdminSessions from configuration.
func NewAdminSessions(cfg config.AdminConfig) (*AdminSessions, error) {
	if cfg.PasswordHash != "" && cfg.JWTSecret == "" {
		return nil, ErrMissingJWTSecret
	}
	return &AdminSessions{cfg: cfg}, nil
}

// Login verifies the admin password and returns a signed session token.
func (a *AdminSessions) Login(password string) (string, error) {
	if a.cfg.PasswordHash == "" {
		return "", ErrAdminDisabled
	}

	ok, err := VerifyPassword(password, a.cfg.PasswordHash)
	if err != nil {
		return "", fmt.Errorf("failed to verify admin password: %w", err)
	}
	if !ok {
		return "", ErrInvalidPassword
	}

	now := time.Now()
	ttl := a.cfg.SessionTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	claims := jwt.RegisteredClaims{
		Subject:   adminSubject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        uuid.New().String(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(a.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign admin session: %w", err)
	}
	return signed, nil
}

// Validate checks an admin session token.
func (a *AdminSessions) Validate(tokenString string) error {
	if a.cfg.PasswordHash == "" {
		return ErrAdminDisabled
	}

	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(a.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return ErrInvalidSession
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject != adminSubject {
		return ErrInvalidSession
	}
	return nil
}
