package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokengate/tokengate/internal/codec"
	"github.com/tokengate/tokengate/internal/config"
	"github.com/tokengate/tokengate/internal/logger"
	"github.com/tokengate/tokengate/internal/model"
	"github.com/tokengate/tokengate/internal/slot"
	"github.com/tokengate/tokengate/internal/store"
)

func newTokenService(t *testing.T) *TokenService {
	t.Helper()
	st := store.New(codec.Default(), slot.NewFile(filepath.Join(t.TempDir(), "slot.dat")), logger.Discard())
	st.Load(context.Background())
	return NewTokenService(st, config.StoreConfig{InactivityTimeout: 15 * time.Minute}, logger.Discard())
}

func TestIssue(t *testing.T) {
	ctx := context.Background()
	svc := newTokenService(t)

	days := 7
	tok, err := svc.Issue(ctx, &days)
	require.NoError(t, err)
	assert.Len(t, tok.Value, model.ValueLength)
	assert.Equal(t, model.StatusAvailable, tok.Status)
	require.NotNil(t, tok.ExpiresAt)

	noExpiry, err := svc.Issue(ctx, nil)
	require.NoError(t, err)
	assert.Nil(t, noExpiry.ExpiresAt)

	assert.Len(t, svc.List(ctx), 2)
}

// The full client lifecycle: issue, check, activate, reject the second
// device, heartbeat, logout.
func TestLifecycleScenario(t *testing.T) {
	ctx := context.Background()
	svc := newTokenService(t)

	days := 7
	tok, err := svc.Issue(ctx, &days)
	require.NoError(t, err)

	assert.True(t, svc.IsUsable(ctx, tok.Value, "device-a"))

	active, ok := svc.Activate(ctx, tok.Value, "device-a")
	require.True(t, ok)
	assert.Equal(t, model.StatusActive, active.Status)
	assert.Equal(t, "device-a", active.DeviceFingerprint)
	assert.NotEmpty(t, active.SessionID)
	require.NotNil(t, active.LastActivity)

	// A second device loses the race and is rejected without mutating state
	_, ok = svc.Activate(ctx, tok.Value, "device-b")
	assert.False(t, ok)
	assert.True(t, svc.IsUsable(ctx, tok.Value, "device-a"))
	assert.False(t, svc.IsUsable(ctx, tok.Value, "device-b"))

	svc.Touch(ctx, tok.Value, "device-a")

	svc.Release(ctx, tok.Value)
	listed := svc.List(ctx)
	require.Len(t, listed, 1)
	assert.Equal(t, model.StatusUsed, listed[0].Status)
	require.NotNil(t, listed[0].UsedAt)
	assert.False(t, svc.IsUsable(ctx, tok.Value, "device-a"))
}

func TestActivateIsIdempotentForSameDevice(t *testing.T) {
	ctx := context.Background()
	svc := newTokenService(t)

	tok, err := svc.Issue(ctx, nil)
	require.NoError(t, err)

	first, ok := svc.Activate(ctx, tok.Value, "device-a")
	require.True(t, ok)

	// Page reload: same device re-activates and gets a fresh session
	second, ok := svc.Activate(ctx, tok.Value, "device-a")
	require.True(t, ok)
	assert.Equal(t, model.StatusActive, second.Status)
	assert.Equal(t, "device-a", second.DeviceFingerprint)
	assert.NotEqual(t, first.SessionID, second.SessionID)
}

func TestActivateRejections(t *testing.T) {
	ctx := context.Background()
	svc := newTokenService(t)

	t.Run("unknown token", func(t *testing.T) {
		_, ok := svc.Activate(ctx, "no-such-token", "device-a")
		assert.False(t, ok)
	})

	t.Run("used token", func(t *testing.T) {
		tok, err := svc.Issue(ctx, nil)
		require.NoError(t, err)
		svc.Release(ctx, tok.Value)

		_, ok := svc.Activate(ctx, tok.Value, "device-a")
		assert.False(t, ok)
	})

	t.Run("expired token", func(t *testing.T) {
		days := 7
		tok, err := svc.Issue(ctx, &days)
		require.NoError(t, err)

		svc.now = func() time.Time { return time.Now().Add(8 * 24 * time.Hour) }
		defer func() { svc.now = time.Now }()

		_, ok := svc.Activate(ctx, tok.Value, "device-a")
		assert.False(t, ok)
		assert.False(t, svc.IsUsable(ctx, tok.Value, "device-a"))
	})
}

func TestTouch(t *testing.T) {
	ctx := context.Background()
	svc := newTokenService(t)

	tok, err := svc.Issue(ctx, nil)
	require.NoError(t, err)
	_, ok := svc.Activate(ctx, tok.Value, "device-a")
	require.True(t, ok)

	later := time.Now().Add(5 * time.Minute)
	svc.now = func() time.Time { return later }

	svc.Touch(ctx, tok.Value, "device-a")

	listed := svc.List(ctx)
	require.Len(t, listed, 1)
	require.NotNil(t, listed[0].LastActivity)
	assert.Equal(t, later.UnixMilli(), *listed[0].LastActivity)

	// Wrong device and unknown token are silent no-ops
	svc.Touch(ctx, tok.Value, "device-b")
	svc.Touch(ctx, "no-such-token", "device-a")
	listed = svc.List(ctx)
	assert.Equal(t, later.UnixMilli(), *listed[0].LastActivity)
}

// An active session idle past the timeout is reaped on the next read, with
// the retirement backdated to the last activity rather than the sweep time.
func TestReapBackdatesUsedAt(t *testing.T) {
	ctx := context.Background()
	svc := newTokenService(t)

	start := time.Now()
	svc.now = func() time.Time { return start }

	tok, err := svc.Issue(ctx, nil)
	require.NoError(t, err)
	_, ok := svc.Activate(ctx, tok.Value, "device-a")
	require.True(t, ok)

	// 20 minutes pass without a heartbeat
	svc.now = func() time.Time { return start.Add(20 * time.Minute) }

	listed := svc.List(ctx)
	require.Len(t, listed, 1)
	assert.Equal(t, model.StatusUsed, listed[0].Status)
	require.NotNil(t, listed[0].UsedAt)
	assert.Equal(t, start.UnixMilli(), *listed[0].UsedAt)
	assert.Empty(t, listed[0].DeviceFingerprint)
	assert.Empty(t, listed[0].SessionID)
	assert.Nil(t, listed[0].LastActivity)
}

func TestHeartbeatKeepsSessionAlive(t *testing.T) {
	ctx := context.Background()
	svc := newTokenService(t)

	start := time.Now()
	svc.now = func() time.Time { return start }

	tok, err := svc.Issue(ctx, nil)
	require.NoError(t, err)
	_, ok := svc.Activate(ctx, tok.Value, "device-a")
	require.True(t, ok)

	// Heartbeats every 10 minutes hold off the reaper
	for i := 1; i <= 3; i++ {
		at := start.Add(time.Duration(i) * 10 * time.Minute)
		svc.now = func() time.Time { return at }
		svc.Touch(ctx, tok.Value, "device-a")
	}

	listed := svc.List(ctx)
	require.Len(t, listed, 1)
	assert.Equal(t, model.StatusActive, listed[0].Status)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	svc := newTokenService(t)

	tok, err := svc.Issue(ctx, nil)
	require.NoError(t, err)

	svc.Delete(ctx, tok.Value)
	assert.Empty(t, svc.List(ctx))

	// Deleting again is a no-op
	svc.Delete(ctx, tok.Value)
}

func TestListReturnsDefensiveCopies(t *testing.T) {
	ctx := context.Background()
	svc := newTokenService(t)

	tok, err := svc.Issue(ctx, nil)
	require.NoError(t, err)

	listed := svc.List(ctx)
	require.Len(t, listed, 1)
	listed[0].Status = model.StatusUsed
	listed[0].Value = "tampered"

	assert.True(t, svc.IsUsable(ctx, tok.Value, "device-a"))
}

func TestListIsNewestFirst(t *testing.T) {
	ctx := context.Background()
	svc := newTokenService(t)

	base := time.Now()
	values := make([]string, 3)
	for i := 0; i < 3; i++ {
		at := base.Add(time.Duration(i) * time.Second)
		svc.now = func() time.Time { return at }
		tok, err := svc.Issue(ctx, nil)
		require.NoError(t, err)
		values[i] = tok.Value
	}

	listed := svc.List(ctx)
	require.Len(t, listed, 3)
	assert.Equal(t, values[2], listed[0].Value)
	assert.Equal(t, values[1], listed[1].Value)
	assert.Equal(t, values[0], listed[2].Value)
}
