package fingerprint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadGeneratesAndCaches(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device")

	first, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, first, Length)

	// A second load returns the cached identifier
	second, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestLoadRegeneratesDamagedCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device")
	require.NoError(t, os.WriteFile(path, []byte("too short"), 0o600))

	fp, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, fp, Length)
}

func TestGenerateIsRandom(t *testing.T) {
	a, err := Generate()
	require.NoError(t, err)
	b, err := Generate()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
