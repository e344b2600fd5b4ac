package search

import (
	"context"
	"slices"

	"github.com/samcharles93/lmexplorer/internal/lm"
	"github.com/samcharles93/lmexplorer/internal/logits"
)

// Element is one candidate sequence. The generated text is
// Prefix + Increment; Previous is not included.
type Element struct {
	Score     float64 `json:"score"`
	Prefix    string  `json:"prefix"`
	Increment string  `json:"increment"`
}

// Text returns the full generated text of e.
func (e Element) Text() string {
	return e.Prefix + e.Increment
}

// Beam is a score-sorted set of elements of one round.
type Beam []Element

// Texts returns the generated text of every element in beam order.
func (b Beam) Texts() []string {
	out := make([]string, len(b))
	for i, e := range b {
		out[i] = e.Text()
	}
	return out
}

// Scores returns the cumulative score of every element in beam order.
func (b Beam) Scores() []float64 {
	out := make([]float64, len(b))
	for i, e := range b {
		out[i] = e.Score
	}
	return out
}

// BeamOptions configures BeamSearch.
type BeamOptions struct {
	Previous    string
	Next        string
	TopK        int
	Steps       int
	Parallelism int
	// OnRound, when set, observes the beam after every complete round,
	// starting at round 0.
	OnRound func(round int, beam Beam)
}

// BeamSearch keeps the TopK best sequences by cumulative log-probability.
// The first round expands Next; each of the Steps-1 following rounds expands
// every element by its TopK best tokens, merges all candidates in element
// order, stable-sorts them by descending score and keeps the first TopK.
// The search always runs the full number of rounds; an end-of-text token is
// treated like any other.
func BeamSearch(ctx context.Context, m LM, opts BeamOptions) (Beam, error) {
	switch {
	case opts.TopK < 1:
		return nil, lm.InvalidArgument("topk must be at least 1, got %d", opts.TopK)
	case opts.Steps < 1:
		return nil, lm.InvalidArgument("numsteps must be at least 1, got %d", opts.Steps)
	}

	b := &beamRun{m: m, opts: opts}
	beam, err := b.expand(ctx, opts.Next, "", false, 0)
	if err != nil {
		return nil, err
	}
	sortBeam(beam)
	b.observe(0, beam)

	for round := 1; round < opts.Steps; round++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pools := make([]Beam, len(beam))
		err := forEach(ctx, len(beam), opts.Parallelism, func(ctx context.Context, i int) error {
			e := beam[i]
			cands, err := b.expand(ctx, e.Prefix, e.Increment, true, e.Score)
			pools[i] = cands
			return err
		})
		if err != nil {
			return nil, err
		}
		merged := make(Beam, 0, len(beam)*opts.TopK)
		for _, p := range pools {
			merged = append(merged, p...)
		}
		sortBeam(merged)
		beam = merged[:min(len(merged), opts.TopK)]
		b.observe(round, beam)
	}
	return beam, nil
}

type beamRun struct {
	m    LM
	opts BeamOptions
}

// expand scores Previous+s1 with s2 as the incremental suffix and returns
// the TopK continuations, each scored logProb + score.
func (b *beamRun) expand(ctx context.Context, s1, s2 string, hasS2 bool, score float64) (Beam, error) {
	dist, err := scoreText(ctx, b.m, b.opts.Previous+s1, s2, hasS2)
	if err != nil {
		return nil, err
	}
	top, err := logits.TopK(logits.LogSoftmax(dist), b.opts.TopK)
	if err != nil {
		return nil, err
	}
	prefix := s1 + s2
	out := make(Beam, len(top))
	for i, c := range top {
		word, err := b.m.Token(c.ID)
		if err != nil {
			return nil, err
		}
		out[i] = Element{Score: c.Score + score, Prefix: prefix, Increment: word}
	}
	return out, nil
}

func (b *beamRun) observe(round int, beam Beam) {
	if b.opts.OnRound != nil {
		b.opts.OnRound(round, slices.Clone(beam))
	}
}

func sortBeam(beam Beam) {
	slices.SortStableFunc(beam, func(a, b Element) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})
}
