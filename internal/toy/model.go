// Package toy provides a small deterministic recurrent scoring model so the
// service runs without external weights.
package toy

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/samcharles93/lmexplorer/internal/lm"
)

// Config describes the shape and weights of a toy model.
type Config struct {
	Vocab  int
	Hidden int
	Seed   int64
	// Decay scales the previous hidden state before each update.
	Decay float32
	// MaxContext bounds the number of tokens a state may cover. Zero means
	// unbounded.
	MaxContext int
}

// ToyLM is a minimal recurrent language model. Each token updates a hidden
// vector h' = tanh(Emb[tok] + Decay*h) and the next-token scores are
// h*W + Bias. The weights are fixed after construction, so a ToyLM is safe
// for concurrent use.
type ToyLM struct {
	Vocab  int
	Hidden int
	Decay  float32

	maxContext int
	emb        []float32 // [Vocab x Hidden]
	w          []float32 // [Hidden x Vocab]
	bias       []float32 // [Vocab]
}

// state is the continuation state: the hidden vector after n tokens.
type state struct {
	h []float32
	n int
}

// NewToyLM constructs a model, filling embeddings, projection and bias with
// values derived from cfg.Seed.
func NewToyLM(cfg Config) (*ToyLM, error) {
	if cfg.Vocab <= 0 || cfg.Hidden <= 0 {
		return nil, fmt.Errorf("toy model needs positive vocab and hidden sizes, got %d and %d", cfg.Vocab, cfg.Hidden)
	}
	if cfg.MaxContext < 0 {
		return nil, fmt.Errorf("max context must be non-negative, got %d", cfg.MaxContext)
	}
	m := &ToyLM{
		Vocab:      cfg.Vocab,
		Hidden:     cfg.Hidden,
		Decay:      cfg.Decay,
		maxContext: cfg.MaxContext,
		emb:        make([]float32, cfg.Vocab*cfg.Hidden),
		w:          make([]float32, cfg.Hidden*cfg.Vocab),
		bias:       make([]float32, cfg.Vocab),
	}
	fillRand(m.emb, cfg.Seed+11, 2)
	fillRand(m.w, cfg.Seed+23, 4)
	fillRand(m.bias, cfg.Seed+37, 1)
	return m, nil
}

func fillRand(dst []float32, seed int64, scale float32) {
	rng := rand.New(rand.NewSource(seed))
	for i := range dst {
		dst[i] = (rng.Float32() - 0.5) * scale
	}
}

// Score runs the recurrence over tokens from a zero hidden state.
func (m *ToyLM) Score(ctx context.Context, tokens []int) (lm.Distribution, lm.State, error) {
	return m.run(ctx, state{h: make([]float32, m.Hidden)}, tokens)
}

// Continue extends a state produced by this model. With no tokens the
// distribution for the state itself is returned.
func (m *ToyLM) Continue(ctx context.Context, st lm.State, tokens []int) (lm.Distribution, lm.State, error) {
	s, ok := st.(state)
	if !ok || len(s.h) != m.Hidden {
		return nil, nil, fmt.Errorf("toy model cannot continue state of type %T", st)
	}
	return m.run(ctx, s, tokens)
}

func (m *ToyLM) run(ctx context.Context, s state, tokens []int) (lm.Distribution, lm.State, error) {
	if m.maxContext > 0 && s.n+len(tokens) > m.maxContext {
		return nil, nil, fmt.Errorf("context of %d tokens exceeds the model limit of %d", s.n+len(tokens), m.maxContext)
	}
	h := make([]float32, m.Hidden)
	copy(h, s.h)
	for i, tok := range tokens {
		if tok < 0 || tok >= m.Vocab {
			return nil, nil, fmt.Errorf("token id %d out of range [0,%d)", tok, m.Vocab)
		}
		if i%256 == 255 {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
		}
		m.step(h, tok)
	}
	return m.Forward(h), state{h: h, n: s.n + len(tokens)}, nil
}

// step updates h in place with one token.
func (m *ToyLM) step(h []float32, tok int) {
	row := m.emb[tok*m.Hidden : (tok+1)*m.Hidden]
	for i := range h {
		h[i] = float32(math.Tanh(float64(row[i] + m.Decay*h[i])))
	}
}

// Forward projects a hidden vector to vocabulary scores. A newly allocated
// slice is returned.
func (m *ToyLM) Forward(h []float32) lm.Distribution {
	logits := make(lm.Distribution, m.Vocab)
	copy(logits, m.bias)
	for i, hv := range h {
		if hv == 0 {
			continue
		}
		row := m.w[i*m.Vocab : (i+1)*m.Vocab]
		for j, wv := range row {
			logits[j] += hv * wv
		}
	}
	return logits
}

// Embedding returns the embedding row for tok. The slice aliases the model
// weights and must not be modified.
func (m *ToyLM) Embedding(tok int) []float32 {
	return m.emb[tok*m.Hidden : (tok+1)*m.Hidden]
}

// Projection returns row i of the hidden-to-vocab projection.
func (m *ToyLM) Projection(i int) []float32 {
	return m.w[i*m.Vocab : (i+1)*m.Vocab]
}

// Bias returns the vocabulary bias vector.
func (m *ToyLM) Bias() []float32 {
	return m.bias
}
