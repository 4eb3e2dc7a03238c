package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tokengate/tokengate/internal/config"
	"github.com/tokengate/tokengate/internal/logger"
	"github.com/tokengate/tokengate/internal/model"
	"github.com/tokengate/tokengate/internal/store"
)

// TokenService drives the token state machine: available -> active -> used.
// Activation binding doubles as the cross-device concurrency guard: at most
// one device holds an active token, enforced by a single check-and-set under
// the store lock rather than by a separate locking scheme.
type TokenService struct {
	store *store.Store
	cfg   config.StoreConfig
	log   *logger.Logger
	now   func() time.Time
}

// NewTokenService creates a new TokenService
func NewTokenService(st *store.Store, cfg config.StoreConfig, log *logger.Logger) *TokenService {
	return &TokenService{
		store: st,
		cfg:   cfg,
		log:   log.WithComponent("token_service"),
		now:   time.Now,
	}
}

// Issue creates a new available token. expiryDays of nil means the token
// never expires; otherwise it expires that many days from now.
func (s *TokenService) Issue(ctx context.Context, expiryDays *int) (*model.Token, error) {
	now := s.now()

	token, err := model.NewToken(expiryDays, now)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	var out *model.Token
	s.store.Update(ctx, func(set *model.TokenSet) bool {
		// The random value space makes collisions negligible; regenerate as a
		// defensive measure rather than failing the issue.
		for set.Get(token.Value) != nil {
			token, err = model.NewToken(expiryDays, now)
			if err != nil {
				return false
			}
		}
		set.Put(token)
		out = token.Clone()
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	s.log.Info().Str("token", out.Value).Msg("token issued")
	return out, nil
}

// IsUsable reports whether the token can currently be used from the given
// device: it exists, is not expired, is not used, and if active is bound to
// this fingerprint. Stale active tokens are reaped first.
func (s *TokenService) IsUsable(ctx context.Context, value, fingerprint string) bool {
	now := s.now()
	usable := false
	s.store.Update(ctx, func(set *model.TokenSet) bool {
		changed := s.reap(set, now)
		if t := set.Get(value); t != nil {
			usable = t.UsableBy(fingerprint, now)
		}
		return changed
	})
	return usable
}

// Activate claims the token for the given device. It succeeds if the token
// is available, or already active and bound to the same fingerprint (page
// reload). Any other precondition failure returns ok=false without mutating
// state; the losing device of a cross-device race simply gets the rejection.
func (s *TokenService) Activate(ctx context.Context, value, fingerprint string) (*model.Token, bool) {
	now := s.now()
	var out *model.Token
	s.store.Update(ctx, func(set *model.TokenSet) bool {
		changed := s.reap(set, now)

		t := set.Get(value)
		if t == nil || !t.UsableBy(fingerprint, now) {
			return changed
		}

		t.Activate(fingerprint, uuid.New().String(), now)
		out = t.Clone()
		return true
	})
	if out == nil {
		s.log.Debug().Str("token", value).Msg("activation rejected")
		return nil, false
	}
	s.log.Info().Str("token", value).Str("session_id", out.SessionID).Msg("token activated")
	return out, true
}

// Touch refreshes the activity timestamp of an active token bound to the
// given device. It is a best-effort heartbeat: anything else is silently
// ignored and never surfaces an error to the caller.
func (s *TokenService) Touch(ctx context.Context, value, fingerprint string) {
	now := s.now()
	s.store.Update(ctx, func(set *model.TokenSet) bool {
		t := set.Get(value)
		if t == nil || t.Status != model.StatusActive || t.DeviceFingerprint != fingerprint {
			return false
		}
		t.Refresh(now)
		return true
	})
}

// Release unconditionally retires the token to used, clearing its device
// binding. Used both for explicit logout and administrative force-logout.
// No-op if the token does not exist.
func (s *TokenService) Release(ctx context.Context, value string) {
	now := s.now()
	s.store.Update(ctx, func(set *model.TokenSet) bool {
		t := set.Get(value)
		if t == nil {
			return false
		}
		t.Retire(now.UnixMilli())
		s.log.Info().Str("token", value).Msg("token released")
		return true
	})
}

// Delete removes the token entity permanently. No-op if it does not exist.
func (s *TokenService) Delete(ctx context.Context, value string) {
	s.store.Update(ctx, func(set *model.TokenSet) bool {
		if !set.Delete(value) {
			return false
		}
		s.log.Info().Str("token", value).Msg("token deleted")
		return true
	})
}

// List reaps stale sessions, persists if anything changed, and returns a
// defensively copied, newest-first view of the collection.
func (s *TokenService) List(ctx context.Context) []*model.Token {
	now := s.now()
	var out []*model.Token
	s.store.Update(ctx, func(set *model.TokenSet) bool {
		changed := s.reap(set, now)
		values := set.Values()
		out = make([]*model.Token, len(values))
		for i, t := range values {
			out[i] = t.Clone()
		}
		return changed
	})
	return out
}

// reap force-retires every active token whose last activity is older than
// the inactivity timeout. The retirement is backdated to the last activity,
// not the sweep time, so audit timestamps reflect when the session actually
// ended. There is no background timer; reap runs lazily on every read.
func (s *TokenService) reap(set *model.TokenSet, now time.Time) bool {
	timeout := s.cfg.InactivityTimeout
	if timeout <= 0 {
		timeout = 15 * time.Minute
	}
	cutoff := now.Add(-timeout).UnixMilli()

	changed := false
	set.Each(func(t *model.Token) {
		if t.Status != model.StatusActive || t.LastActivity == nil {
			return
		}
		if *t.LastActivity <= cutoff {
			s.log.Info().Str("token", t.Value).Msg("reaping inactive session")
			t.Retire(*t.LastActivity)
			changed = true
		}
	})
	return changed
}
