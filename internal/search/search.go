// Package search implements the multi-step decoding strategies layered over a
// scoring model: random continuation, beam search and free generation.
package search

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/samcharles93/lmexplorer/internal/lm"
)

// LM is the scoring surface the searches need. *lm.Scorer implements it.
type LM interface {
	Score(ctx context.Context, previous string) (lm.Distribution, error)
	ScoreNext(ctx context.Context, previous, next string) (lm.Distribution, error)
	Token(id int) (string, error)
}

// scoreText scores previous, feeding next incrementally when hasNext is set.
func scoreText(ctx context.Context, m LM, previous, next string, hasNext bool) (lm.Distribution, error) {
	if hasNext {
		return m.ScoreNext(ctx, previous, next)
	}
	return m.Score(ctx, previous)
}

// forEach runs fn for every index in [0, n) with at most parallelism calls in
// flight. The first error cancels the rest.
func forEach(ctx context.Context, n, parallelism int, fn func(ctx context.Context, i int) error) error {
	if parallelism <= 1 {
		for i := 0; i < n; i++ {
			if err := fn(ctx, i); err != nil {
				return err
			}
		}
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			return fn(gctx, i)
		})
	}
	return g.Wait()
}
