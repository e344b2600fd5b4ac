package lm

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/samcharles93/lmexplorer/internal/logger"
	"github.com/samcharles93/lmexplorer/internal/metrics"
	"github.com/samcharles93/lmexplorer/internal/statecache"
	"github.com/samcharles93/lmexplorer/internal/tokenizer"
)

// Recomputation modes, also used as metric labels.
const (
	ModeCached      = "cached"
	ModeIncremental = "incremental"
	ModeScratch     = "scratch"
)

// Scorer answers next-token queries for text, consulting the state cache
// first and feeding the model only the tokens it has not seen.
//
// A Scorer is safe for concurrent use when its Model is.
type Scorer struct {
	model Model
	tok   tokenizer.Tokenizer
	cache *statecache.Cache[Entry]
	group singleflight.Group
	log   logger.Logger
}

// ScorerOption configures a Scorer.
type ScorerOption func(*Scorer)

// WithLogger sets the logger used for per-call debug output.
func WithLogger(l logger.Logger) ScorerOption {
	return func(s *Scorer) {
		s.log = l
	}
}

// NewCache returns a state cache sized for a Scorer, with evictions reported
// to the metrics package.
func NewCache(capacity int) *statecache.Cache[Entry] {
	return statecache.New(capacity, Entry{}, statecache.WithEvictionHook(func(string) {
		metrics.RecordCacheEviction()
	}))
}

// NewScorer wires model and tok to cache. A nil cache disables caching.
func NewScorer(model Model, tok tokenizer.Tokenizer, cache *statecache.Cache[Entry], opts ...ScorerOption) *Scorer {
	if cache == nil {
		cache = NewCache(0)
	}
	s := &Scorer{
		model: model,
		tok:   tok,
		cache: cache,
		log:   logger.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score returns the next-token distribution after previous.
func (s *Scorer) Score(ctx context.Context, previous string) (Distribution, error) {
	return s.score(ctx, previous, "", false)
}

// ScoreNext returns the next-token distribution after previous+next, reusing
// the cached state for previous when there is one.
func (s *Scorer) ScoreNext(ctx context.Context, previous, next string) (Distribution, error) {
	return s.score(ctx, previous, next, true)
}

type scoreResult struct {
	dist Distribution
}

func (s *Scorer) score(ctx context.Context, previous, next string, hasNext bool) (Distribution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Score and ScoreNext flights carry distinct tags.
	flight := "s:" + previous
	if hasNext {
		flight = fmt.Sprintf("n:%d:%s%s", len(previous), previous, next)
	}
	// The shared computation outlives any single caller; each caller stops
	// waiting when its own context ends.
	ch := s.group.DoChan(flight, func() (any, error) {
		dist, err := s.compute(context.WithoutCancel(ctx), previous, next, hasNext)
		if err != nil {
			return nil, err
		}
		return scoreResult{dist: dist}, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(scoreResult).dist, nil
	}
}

// compute implements the hit/miss decision. Nothing is written to the cache
// unless the model call succeeds.
func (s *Scorer) compute(ctx context.Context, previous, next string, hasNext bool) (Distribution, error) {
	entry, hit := s.cache.Lookup(previous)
	metrics.RecordCacheLookup(hit)
	if hit && !entry.Valid() {
		return nil, fmt.Errorf("%w: invalid entry stored for prefix of length %d", ErrCacheConsistency, len(previous))
	}

	if hit && !hasNext {
		metrics.RecordScoring(ModeCached, 0, 0, nil)
		return entry.Dist, nil
	}

	var (
		tokens []int
		mode   string
		err    error
	)
	switch {
	case hit:
		mode = ModeIncremental
		tokens, err = s.tok.Encode(next)
	case hasNext:
		mode = ModeScratch
		tokens, err = s.encodeBoth(previous, next)
	default:
		mode = ModeScratch
		tokens, err = s.tok.Encode(previous)
	}
	if err != nil {
		return nil, UpstreamFailure(fmt.Errorf("tokenize: %w", err))
	}

	start := time.Now()
	var (
		dist  Distribution
		state State
	)
	if mode == ModeIncremental {
		dist, state, err = s.model.Continue(ctx, entry.State, tokens)
	} else {
		dist, state, err = s.model.Score(ctx, tokens)
	}
	if err == nil && len(dist) != s.tok.VocabSize() {
		err = fmt.Errorf("model returned %d scores for a vocabulary of %d", len(dist), s.tok.VocabSize())
	}
	metrics.RecordScoring(mode, len(tokens), time.Since(start), err)
	if err != nil {
		return nil, UpstreamFailure(err)
	}

	key := previous
	if hasNext {
		key = previous + next
	}
	s.cache.Put(key, Entry{Dist: dist, State: state})

	s.log.Debug("scored prefix",
		"mode", mode,
		"tokens", len(tokens),
		"key_len", len(key),
		"duration", time.Since(start),
	)
	return dist, nil
}

func (s *Scorer) encodeBoth(previous, next string) ([]int, error) {
	a, err := s.tok.Encode(previous)
	if err != nil {
		return nil, err
	}
	b, err := s.tok.Encode(next)
	if err != nil {
		return nil, err
	}
	return append(a, b...), nil
}

// Token decodes a single token id to its text.
func (s *Scorer) Token(id int) (string, error) {
	return s.tok.Decode([]int{id})
}

// VocabSize returns the size of the scoring vocabulary.
func (s *Scorer) VocabSize() int {
	return s.tok.VocabSize()
}

// EndOfText returns the end-of-text token id, if the vocabulary has one.
func (s *Scorer) EndOfText() (int, bool) {
	return s.tok.EndOfText()
}

// CacheStats reports the state cache counters.
func (s *Scorer) CacheStats() statecache.Stats {
	return s.cache.Stats()
}

// Reset drops every cached state.
func (s *Scorer) Reset() {
	s.cache.Purge()
}
