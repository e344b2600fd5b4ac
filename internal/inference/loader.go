package inference

import (
	"fmt"

	"github.com/samcharles93/lmexplorer/internal/lm"
	"github.com/samcharles93/lmexplorer/internal/logger"
	"github.com/samcharles93/lmexplorer/internal/tokenizer"
	"github.com/samcharles93/lmexplorer/internal/toy"
)

// Loader defaults.
const (
	DefaultCacheSize = 256
	DefaultHidden    = 64
	DefaultDecay     = 0.5
)

// Loader builds an engine over the toy backend.
type Loader struct {
	Tokenizer tokenizer.Kind
	// CacheSize is the state cache capacity. Zero disables caching.
	CacheSize   int
	Hidden      int
	WeightsSeed int64
	Decay       float32
	// MaxContext bounds the tokens one query may cover. Zero is unbounded.
	MaxContext  int
	Parallelism int
	Logger      logger.Logger
}

type LoadResult struct {
	Engine    Engine
	Scorer    *lm.Scorer
	Tokenizer tokenizer.Tokenizer
	Model     *toy.ToyLM
}

func (l Loader) Load() (*LoadResult, error) {
	if l.CacheSize < 0 {
		return nil, fmt.Errorf("cache size must be non-negative, got %d", l.CacheSize)
	}
	log := l.Logger
	if log == nil {
		log = logger.Default()
	}

	tok, err := tokenizer.New(l.Tokenizer)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer: %w", err)
	}

	hidden := l.Hidden
	if hidden <= 0 {
		hidden = DefaultHidden
	}
	m, err := toy.NewToyLM(toy.Config{
		Vocab:      tok.VocabSize(),
		Hidden:     hidden,
		Seed:       l.WeightsSeed,
		Decay:      l.Decay,
		MaxContext: l.MaxContext,
	})
	if err != nil {
		return nil, fmt.Errorf("build model: %w", err)
	}

	scorer := lm.NewScorer(m, tok, lm.NewCache(l.CacheSize), lm.WithLogger(log.WithGroup("scorer")))
	engine := NewEngine(scorer,
		WithParallelism(l.Parallelism),
		WithEngineLogger(log),
	)

	log.Debug("engine loaded",
		"vocab", tok.VocabSize(),
		"hidden", hidden,
		"cache_size", l.CacheSize,
		"max_context", l.MaxContext,
	)
	return &LoadResult{
		Engine:    engine,
		Scorer:    scorer,
		Tokenizer: tok,
		Model:     m,
	}, nil
}
