package search

import (
	"context"

	"github.com/samcharles93/lmexplorer/internal/lm"
	"github.com/samcharles93/lmexplorer/internal/logits"
)

// RandomOptions configures RandomContinuation.
type RandomOptions struct {
	Previous string
	Next     string
	// HasNext distinguishes an absent Next from an empty one.
	HasNext     bool
	TopK        int
	Steps       int
	Temperature float64
	Parallelism int
}

func (o RandomOptions) validate() error {
	switch {
	case o.TopK < 1:
		return lm.InvalidArgument("topk must be at least 1, got %d", o.TopK)
	case o.Steps < 1:
		return lm.InvalidArgument("numsteps must be at least 1, got %d", o.Steps)
	case o.Temperature < 0:
		return lm.InvalidArgument("temperature must be non-negative, got %v", o.Temperature)
	}
	return nil
}

type candidate struct {
	prefix string
	next   string
}

// RandomContinuation draws TopK distinct first tokens, then extends every
// candidate independently by one sampled token per round for Steps-1 more
// rounds. The candidate set never shrinks. The returned strings include
// Previous.
//
// Candidates of one round may be scored in parallel; sampling always runs
// afterwards in candidate order so the output depends only on the sampler's
// seed.
func RandomContinuation(ctx context.Context, m LM, sampler *logits.Sampler, opts RandomOptions) ([]string, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	dist, err := scoreText(ctx, m, opts.Previous, opts.Next, opts.HasNext)
	if err != nil {
		return nil, err
	}
	ids, err := sampler.SampleDistinct(dist, opts.TopK, opts.Temperature)
	if err != nil {
		return nil, err
	}
	base := opts.Previous + opts.Next
	cands := make([]candidate, len(ids))
	for i, id := range ids {
		word, err := m.Token(id)
		if err != nil {
			return nil, err
		}
		cands[i] = candidate{prefix: base, next: word}
	}

	dists := make([]lm.Distribution, len(cands))
	for step := 1; step < opts.Steps; step++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		err := forEach(ctx, len(cands), opts.Parallelism, func(ctx context.Context, i int) error {
			d, err := m.ScoreNext(ctx, cands[i].prefix, cands[i].next)
			dists[i] = d
			return err
		})
		if err != nil {
			return nil, err
		}
		next := make([]candidate, len(cands))
		for i, c := range cands {
			id, err := sampler.Sample(dists[i], opts.Temperature)
			if err != nil {
				return nil, err
			}
			word, err := m.Token(id)
			if err != nil {
				return nil, err
			}
			next[i] = candidate{prefix: c.prefix + c.next, next: word}
		}
		cands = next
	}

	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.prefix + c.next
	}
	return out, nil
}
