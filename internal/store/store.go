// Package store owns the canonical in-memory token collection and its
// durable persistence slot.
package store

import (
	"context"
	"errors"
	"sync"

	"github.com/tokengate/tokengate/internal/codec"
	"github.com/tokengate/tokengate/internal/logger"
	"github.com/tokengate/tokengate/internal/model"
	"github.com/tokengate/tokengate/internal/slot"
)

// Store holds the authoritative token collection for the process. A single
// mutex serializes every read-check-mutate-persist sequence, so callers never
// observe partial state and check-and-set transitions (activation binding)
// stay atomic without any further locking.
type Store struct {
	mu     sync.Mutex
	tokens *model.TokenSet
	codec  *codec.Codec
	slot   slot.Slot
	log    *logger.Logger
}

// New creates a Store with an empty collection. Call Load before use.
func New(c *codec.Codec, s slot.Slot, log *logger.Logger) *Store {
	return &Store{
		tokens: model.NewTokenSet(),
		codec:  c,
		slot:   s,
		log:    log.WithComponent("token_store"),
	}
}

// Load reads the durable slot into memory. A missing slot means an empty
// store. Corrupt or unreadable content is discarded and logged, never
// returned as an error: persistence corruption must be self-healing.
func (s *Store) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := s.slot.Read(ctx)
	if errors.Is(err, slot.ErrEmpty) {
		s.tokens = model.NewTokenSet()
		return
	}
	if err != nil {
		s.log.Warn().Err(err).Msg("slot unreadable, starting with empty store")
		s.tokens = model.NewTokenSet()
		return
	}

	var tokens []*model.Token
	if err := s.codec.Decode(payload, &tokens); err != nil {
		s.log.Warn().Err(err).Msg("slot content corrupt, resetting to empty store")
		s.tokens = model.NewTokenSet()
		return
	}

	set := model.NewTokenSet()
	for _, t := range tokens {
		if t == nil || t.Value == "" {
			s.log.Warn().Msg("slot content malformed, resetting to empty store")
			s.tokens = model.NewTokenSet()
			return
		}
		set.Put(t)
	}
	s.tokens = set
	s.log.Debug().Int("count", set.Len()).Msg("token store loaded")
}

// Update runs fn against the collection under the store lock and persists
// the collection if fn reports a mutation. Persist failures are logged and
// swallowed: in-memory state stays authoritative for the process lifetime
// and a later successful persist catches up.
func (s *Store) Update(ctx context.Context, fn func(set *model.TokenSet) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if fn(s.tokens) {
		s.persistLocked(ctx)
	}
}

// Count returns the number of tokens currently in the store.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens.Len()
}

func (s *Store) persistLocked(ctx context.Context) {
	payload, err := s.codec.Encode(s.tokens.Values())
	if err != nil {
		s.log.Error().Err(err).Msg("failed to encode token collection")
		return
	}
	if err := s.slot.Write(ctx, payload); err != nil {
		s.log.Error().Err(err).Msg("failed to persist token collection")
	}
}
