// Package codec implements the reversible obfuscation used for the durable
// token slot and backup files. It is obfuscation, not encryption: the key is
// fixed and ships with every client, so the output only deters casual
// inspection. Upgrading it to real cryptography would break the backup file
// format; a stronger scheme needs a new format version that still decodes
// the current one.
package codec

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
)

// defaultKey is the compiled-in obfuscation key. It is deliberately public
// knowledge (every distributed client carries it); changing it orphans all
// existing slots and backups.
const defaultKey = "tokengate-v1-rolling-shutter"

// ErrDecode is returned when input is not valid base64 or the deciphered
// bytes are not valid JSON.
var ErrDecode = errors.New("codec: malformed input")

// Codec obfuscates JSON-serializable values to printable text and back.
type Codec struct {
	key []byte
}

// New creates a Codec with the given key. An empty key falls back to the
// compiled-in default.
func New(key string) *Codec {
	if key == "" {
		key = defaultKey
	}
	return &Codec{key: []byte(key)}
}

// Default returns a Codec using the compiled-in key, the one understood by
// every distributed client.
func Default() *Codec {
	return New("")
}

// Encode serializes v to JSON, XORs it with the repeating key bytes, and
// base64-encodes the result.
func (c *Codec) Encode(v any) (string, error) {
	plain, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("codec: marshal: %w", err)
	}
	return base64.StdEncoding.EncodeToString(c.xor(plain)), nil
}

// Decode reverses Encode, unmarshalling the recovered JSON into v.
func (c *Codec) Decode(text string, v any) error {
	raw, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if err := json.Unmarshal(c.xor(raw), v); err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return nil
}

func (c *Codec) xor(data []byte) []byte {
	out := make([]byte, len(data))
	for i, b := range data {
		out[i] = b ^ c.key[i%len(c.key)]
	}
	return out
}
