// Package lm wraps a next-token scoring model behind a prefix-addressed state
// cache so repeated queries over growing text only score the new suffix.
package lm

import "context"

// Distribution holds one unnormalised score per vocabulary token, indexed by
// token id. Distributions handed out by the Scorer are shared with the cache
// and must be treated as read-only.
type Distribution []float32

// State is an opaque, model-defined continuation blob. It captures the
// computation for a prefix so the model can extend it without rescoring
// the prefix. States are never mutated once produced.
type State any

// Model is the capability interface a scoring backend implements.
type Model interface {
	// Score runs a fresh computation over tokens and returns the
	// distribution for the next token along with the state after the last
	// token.
	Score(ctx context.Context, tokens []int) (Distribution, State, error)

	// Continue extends state by tokens. With no tokens it returns the
	// distribution for state itself. The result must equal
	// Score(prefix ++ tokens) where state was produced for prefix.
	Continue(ctx context.Context, state State, tokens []int) (Distribution, State, error)
}

// Entry is the cached value kept for a text prefix. The zero Entry is the
// miss default.
type Entry struct {
	Dist  Distribution
	State State
}

// Valid reports whether e holds a computed result.
func (e Entry) Valid() bool {
	return e.Dist != nil && e.State != nil
}
