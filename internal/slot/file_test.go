package slot

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSlotReadMissing(t *testing.T) {
	s := NewFile(filepath.Join(t.TempDir(), "slot.dat"))

	_, err := s.Read(context.Background())
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestFileSlotRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewFile(filepath.Join(t.TempDir(), "slot.dat"))

	require.NoError(t, s.Write(ctx, "first"))
	payload, err := s.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "first", payload)

	// Overwrite replaces the previous payload entirely
	require.NoError(t, s.Write(ctx, "second"))
	payload, err = s.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "second", payload)
}

func TestFileSlotLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s := NewFile(filepath.Join(dir, "slot.dat"))

	require.NoError(t, s.Write(context.Background(), "payload"))

	matches, err := filepath.Glob(filepath.Join(dir, "*.tmp*"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}
