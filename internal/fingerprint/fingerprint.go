// Package fingerprint manages the per-installation device identifier used
// for token binding. The identifier is a capability-style comparison key
// standing in for "this client installation", not identity proof; a
// motivated caller could forge it, which is within the accepted threat model.
package fingerprint

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"os"
	"strings"
)

// Length is the length of a generated device fingerprint.
const Length = 32

const alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// Load returns the fingerprint cached at path, generating and caching a
// fresh one on first use.
func Load(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		fp := strings.TrimSpace(string(data))
		if len(fp) == Length {
			return fp, nil
		}
		// Damaged cache falls through to regeneration.
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to read fingerprint cache: %w", err)
	}

	fp, err := Generate()
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(fp), 0o600); err != nil {
		return "", fmt.Errorf("failed to cache fingerprint: %w", err)
	}
	return fp, nil
}

// Generate returns a fresh random fingerprint.
func Generate() (string, error) {
	b := make([]byte, Length)
	max := big.NewInt(int64(len(alphanumeric)))
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate fingerprint: %w", err)
		}
		b[i] = alphanumeric[idx.Int64()]
	}
	return string(b), nil
}
