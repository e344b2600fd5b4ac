package search

import (
	"context"
	"strings"

	"github.com/samcharles93/lmexplorer/internal/lm"
	"github.com/samcharles93/lmexplorer/internal/logits"
)

// Stop reasons reported by Generate.
const (
	StopEndOfText = "end_of_text"
	StopMaxTokens = "max_tokens"
)

// GenerateOptions configures Generate.
type GenerateOptions struct {
	Previous    string
	MaxTokens   int
	Temperature float64
	// EndOfText, when HasEndOfText is set, ends generation without being
	// appended to the output.
	EndOfText    int
	HasEndOfText bool
}

// Generation is the result of Generate.
type Generation struct {
	Text    string
	Tokens  []string
	Stopped string
}

// Generate samples one token at a time after Previous until the end-of-text
// token is drawn or MaxTokens tokens have been produced. Each step scores
// the text so far with the new token as the incremental suffix.
func Generate(ctx context.Context, m LM, sampler *logits.Sampler, opts GenerateOptions) (Generation, error) {
	switch {
	case opts.MaxTokens < 1:
		return Generation{}, lm.InvalidArgument("max_tokens must be at least 1, got %d", opts.MaxTokens)
	case opts.Temperature < 0:
		return Generation{}, lm.InvalidArgument("temperature must be non-negative, got %v", opts.Temperature)
	}

	var (
		out    strings.Builder
		tokens []string
	)
	out.WriteString(opts.Previous)
	dist, err := m.Score(ctx, opts.Previous)
	if err != nil {
		return Generation{}, err
	}
	for {
		id, err := sampler.Sample(dist, opts.Temperature)
		if err != nil {
			return Generation{}, err
		}
		if opts.HasEndOfText && id == opts.EndOfText {
			return Generation{Text: out.String(), Tokens: tokens, Stopped: StopEndOfText}, nil
		}
		word, err := m.Token(id)
		if err != nil {
			return Generation{}, err
		}
		tokens = append(tokens, word)
		if len(tokens) >= opts.MaxTokens {
			out.WriteString(word)
			return Generation{Text: out.String(), Tokens: tokens, Stopped: StopMaxTokens}, nil
		}
		if err := ctx.Err(); err != nil {
			return Generation{}, err
		}
		dist, err = m.ScoreNext(ctx, out.String(), word)
		if err != nil {
			return Generation{}, err
		}
		out.WriteString(word)
	}
}
