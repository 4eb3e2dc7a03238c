package model

import (
	"crypto/rand"
	"math/big"
	"time"
)

// Status is the lifecycle state of an access token.
type Status string

const (
	// StatusAvailable means the token is issued but not yet claimed by any device.
	StatusAvailable Status = "available"
	// StatusActive means the token is bound to exactly one device with a live session.
	StatusActive Status = "active"
	// StatusUsed is terminal; a used token can never be reactivated.
	StatusUsed Status = "used"
)

// ValueLength is the length of a generated token value.
const ValueLength = 24

const alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// Token is a single-use bearer access token. Possession of the value implies
// authorization; there is no separate identity check. The JSON field names are
// part of the backup file format and must not change without a format version bump.
type Token struct {
	Value             string `json:"value"`
	Status            Status `json:"status"`
	CreatedAt         int64  `json:"createdAt"`
	ExpiresAt         *int64 `json:"expiresAt"`
	UsedAt            *int64 `json:"usedAt,omitempty"`
	DeviceFingerprint string `json:"deviceFingerprint,omitempty"`
	SessionID         string `json:"sessionId,omitempty"`
	LastActivity      *int64 `json:"lastActivity,omitempty"`
}

// NewToken creates an available token with a fresh random value.
// expiryDays of nil means the token never expires.
func NewToken(expiryDays *int, now time.Time) (*Token, error) {
	value, err := randAlphanumeric(ValueLength)
	if err != nil {
		return nil, err
	}

	t := &Token{
		Value:     value,
		Status:    StatusAvailable,
		CreatedAt: now.UnixMilli(),
	}
	if expiryDays != nil {
		expires := now.Add(time.Duration(*expiryDays) * 24 * time.Hour).UnixMilli()
		t.ExpiresAt = &expires
	}
	return t, nil
}

// IsExpired reports whether the token's absolute expiry has passed.
// A token without an expiry never expires.
func (t *Token) IsExpired(now time.Time) bool {
	return t.ExpiresAt != nil && *t.ExpiresAt < now.UnixMilli()
}

// UsableBy is the single device-binding predicate shared by the read path
// (IsUsable) and the write path (Activate), so the two checks cannot drift.
// An available token is usable by any caller; an active token only by the
// device it is bound to.
func (t *Token) UsableBy(fingerprint string, now time.Time) bool {
	if t.IsExpired(now) {
		return false
	}
	switch t.Status {
	case StatusAvailable:
		return true
	case StatusActive:
		return t.DeviceFingerprint == fingerprint
	default:
		return false
	}
}

// Activate binds the token to a device and starts a session.
func (t *Token) Activate(fingerprint, sessionID string, now time.Time) {
	last := now.UnixMilli()
	t.Status = StatusActive
	t.DeviceFingerprint = fingerprint
	t.SessionID = sessionID
	t.LastActivity = &last
}

// Refresh records a validated use while active.
func (t *Token) Refresh(now time.Time) {
	last := now.UnixMilli()
	t.LastActivity = &last
}

// Retire transitions the token to used at the given moment and clears the
// device binding. The binding fields are cleared together so the model never
// shows a partially bound token.
func (t *Token) Retire(usedAt int64) {
	t.Status = StatusUsed
	t.UsedAt = &usedAt
	t.DeviceFingerprint = ""
	t.SessionID = ""
	t.LastActivity = nil
}

// Clone returns a deep copy of the token.
func (t *Token) Clone() *Token {
	c := *t
	if t.ExpiresAt != nil {
		v := *t.ExpiresAt
		c.ExpiresAt = &v
	}
	if t.UsedAt != nil {
		v := *t.UsedAt
		c.UsedAt = &v
	}
	if t.LastActivity != nil {
		v := *t.LastActivity
		c.LastActivity = &v
	}
	return &c
}

func randAlphanumeric(n int) (string, error) {
	b := make([]byte, n)
	max := big.NewInt(int64(len(alphanumeric)))
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = alphanumeric[idx.Int64()]
	}
	return string(b), nil
}
