// Package slot provides the durable persistence slot for the token store:
// a single process-local key holding one opaque text payload.
package slot

import (
	"context"
	"errors"
)

// ErrEmpty is returned by Read when the slot has never been written.
var ErrEmpty = errors.New("slot: empty")

// Slot is a single durable key-value cell. Implementations must treat a
// missing payload as ErrEmpty, never as a fault.
type Slot interface {
	Read(ctx context.Context) (string, error)
	Write(ctx context.Context, payload string) error
}
