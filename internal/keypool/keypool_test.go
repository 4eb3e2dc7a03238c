package keypool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokengate/tokengate/internal/logger"
)

func newPool() *Pool {
	return New([]Credential{
		{Name: "backup", Key: "key-c", Priority: 3},
		{Name: "primary", Key: "key-a", Priority: 1},
		{Name: "secondary", Key: "key-b", Priority: 2},
	}, logger.Discard())
}

func TestAcquireFollowsPriorityOrder(t *testing.T) {
	p := newPool()

	c, err := p.Acquire()
	require.NoError(t, err)
	assert.Equal(t, "primary", c.Name)

	p.Report("primary", FailureExhausted)
	c, err = p.Acquire()
	require.NoError(t, err)
	assert.Equal(t, "secondary", c.Name)

	p.Report("secondary", FailureInvalid)
	c, err = p.Acquire()
	require.NoError(t, err)
	assert.Equal(t, "backup", c.Name)
}

func TestAllCredentialsGone(t *testing.T) {
	p := newPool()
	p.Report("primary", FailureInvalid)
	p.Report("secondary", FailureExhausted)
	p.Report("backup", FailureRejected)

	_, err := p.Acquire()
	assert.ErrorIs(t, err, ErrNoneAvailable)
	assert.Equal(t, 0, p.Remaining())
}

func TestTransientFailureStaysInRotation(t *testing.T) {
	p := newPool()

	p.Report("primary", FailureTransient)
	c, err := p.Acquire()
	require.NoError(t, err)
	assert.Equal(t, "primary", c.Name)
	assert.Equal(t, 3, p.Remaining())
}

func TestFailureClassTerminal(t *testing.T) {
	assert.False(t, FailureTransient.Terminal())
	assert.True(t, FailureInvalid.Terminal())
	assert.True(t, FailureExhausted.Terminal())
	assert.True(t, FailureRejected.Terminal())
}

func TestReset(t *testing.T) {
	p := newPool()
	p.Report("primary", FailureExhausted)
	require.Equal(t, 2, p.Remaining())

	p.Reset()
	assert.Equal(t, 3, p.Remaining())

	c, err := p.Acquire()
	require.NoError(t, err)
	assert.Equal(t, "primary", c.Name)
}
