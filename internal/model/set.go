package model

import "sort"

// TokenSet is the in-memory token collection, keyed by token value.
// It is not safe for concurrent use; the owning store serializes access.
type TokenSet struct {
	byValue map[string]*Token
}

// NewTokenSet creates an empty TokenSet.
func NewTokenSet() *TokenSet {
	return &TokenSet{byValue: make(map[string]*Token)}
}

// Get returns the token with the given value, or nil.
func (s *TokenSet) Get(value string) *Token {
	return s.byValue[value]
}

// Put inserts or replaces a token, keyed by its value.
func (s *TokenSet) Put(t *Token) {
	s.byValue[t.Value] = t
}

// Delete removes the token with the given value. It reports whether a token
// was present.
func (s *TokenSet) Delete(value string) bool {
	if _, ok := s.byValue[value]; !ok {
		return false
	}
	delete(s.byValue, value)
	return true
}

// Len returns the number of tokens in the set.
func (s *TokenSet) Len() int {
	return len(s.byValue)
}

// Values returns the tokens newest-first (CreatedAt descending).
func (s *TokenSet) Values() []*Token {
	out := make([]*Token, 0, len(s.byValue))
	for _, t := range s.byValue {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt > out[j].CreatedAt
	})
	return out
}

// Each calls fn for every token in the set, in unspecified order.
func (s *TokenSet) Each(fn func(*Token)) {
	for _, t := range s.byValue {
		fn(t)
	}
}

// Replace swaps the whole collection for the given tokens.
func (s *TokenSet) Replace(tokens []*Token) {
	s.byValue = make(map[string]*Token, len(tokens))
	for _, t := range tokens {
		s.byValue[t.Value] = t
	}
}
