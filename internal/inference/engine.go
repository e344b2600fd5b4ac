package inference

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/samcharles93/lmexplorer/internal/lm"
	"github.com/samcharles93/lmexplorer/internal/logger"
	"github.com/samcharles93/lmexplorer/internal/logits"
	"github.com/samcharles93/lmexplorer/internal/metrics"
	"github.com/samcharles93/lmexplorer/internal/search"
	"github.com/samcharles93/lmexplorer/internal/statecache"
)

// Scorer is the scoring surface the engine drives. *lm.Scorer implements it.
type Scorer interface {
	search.LM
	EndOfText() (int, bool)
	CacheStats() statecache.Stats
	Reset()
}

// EngineImpl runs every query against one shared Scorer. It is safe for
// concurrent use.
type EngineImpl struct {
	scorer      Scorer
	parallelism int
	log         logger.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// EngineOption configures an EngineImpl.
type EngineOption func(*EngineImpl)

// WithParallelism bounds how many candidates of one search round are scored
// concurrently.
func WithParallelism(n int) EngineOption {
	return func(e *EngineImpl) {
		e.parallelism = max(n, 1)
	}
}

// WithEngineLogger sets the logger for per-query output.
func WithEngineLogger(l logger.Logger) EngineOption {
	return func(e *EngineImpl) {
		e.log = l
	}
}

// WithSeedSource seeds the generator used for requests without a seed.
func WithSeedSource(seed int64) EngineOption {
	return func(e *EngineImpl) {
		e.rng = rand.New(rand.NewSource(seed))
	}
}

func NewEngine(scorer Scorer, opts ...EngineOption) *EngineImpl {
	e := &EngineImpl{
		scorer:      scorer,
		parallelism: 1,
		log:         logger.Default(),
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// sampler returns a sampler private to one request.
func (e *EngineImpl) sampler(seed int64) *logits.Sampler {
	if seed < 0 {
		e.mu.Lock()
		seed = e.rng.Int63()
		e.mu.Unlock()
	}
	return logits.NewSampler(seed)
}

func (e *EngineImpl) score(ctx context.Context, t Text) (lm.Distribution, error) {
	if t.Next != nil {
		return e.scorer.ScoreNext(ctx, t.Previous, *t.Next)
	}
	return e.scorer.Score(ctx, t.Previous)
}

func (e *EngineImpl) Predict(ctx context.Context, req PredictRequest) (res *PredictResult, err error) {
	defer observe("predict", time.Now(), &err)

	dist, err := e.score(ctx, req.Text)
	if err != nil {
		return nil, err
	}
	top, err := logits.TopK(dist, req.TopK)
	if err != nil {
		return nil, err
	}
	probs := logits.Softmax(dist)

	res = &PredictResult{
		Logits:        make([]float64, len(top)),
		Probabilities: make([]float64, len(top)),
		Words:         make([]string, len(top)),
		Output:        req.Output(),
	}
	for i, c := range top {
		word, err := e.scorer.Token(c.ID)
		if err != nil {
			return nil, err
		}
		res.Logits[i] = c.Score
		res.Probabilities[i] = probs[c.ID]
		res.Words[i] = word
	}

	id, err := e.sampler(req.Seed).Sample(dist, req.Temperature)
	if err != nil {
		return nil, err
	}
	word, err := e.scorer.Token(id)
	if err != nil {
		return nil, err
	}
	tempered := logits.SoftmaxTemperature(dist, req.Temperature)
	res.Sample = Sample{Word: word, Logit: float64(dist[id]), Probability: tempered[id]}
	return res, nil
}

func (e *EngineImpl) RandomSample(ctx context.Context, req RandomRequest) (res *RandomResult, err error) {
	defer observe("random", time.Now(), &err)

	words, err := search.RandomContinuation(ctx, e.scorer, e.sampler(req.Seed), search.RandomOptions{
		Previous:    req.Previous,
		Next:        req.next(),
		HasNext:     req.Next != nil,
		TopK:        req.TopK,
		Steps:       req.NumSteps,
		Temperature: req.Temperature,
		Parallelism: e.parallelism,
	})
	if err != nil {
		return nil, err
	}
	return &RandomResult{Previous: req.Previous, Words: words}, nil
}

func (e *EngineImpl) BeamSearch(ctx context.Context, req BeamRequest) (res *BeamResult, err error) {
	defer observe("beam", time.Now(), &err)

	beam, err := search.BeamSearch(ctx, e.scorer, search.BeamOptions{
		Previous:    req.Previous,
		Next:        req.next(),
		TopK:        req.TopK,
		Steps:       req.NumSteps,
		Parallelism: e.parallelism,
		OnRound: func(round int, b search.Beam) {
			e.log.Debug("beam round complete", "round", round, "size", len(b))
		},
	})
	if err != nil {
		return nil, err
	}
	return &BeamResult{Previous: req.Previous, Words: beam.Texts(), Logits: beam.Scores()}, nil
}

func (e *EngineImpl) Generate(ctx context.Context, req GenerateRequest) (res *GenerateResult, err error) {
	start := time.Now()
	defer observe("generate", start, &err)

	eot, hasEOT := e.scorer.EndOfText()
	gen, err := search.Generate(ctx, e.scorer, e.sampler(req.Seed), search.GenerateOptions{
		Previous:     req.Previous,
		MaxTokens:    req.MaxTokens,
		Temperature:  req.Temperature,
		EndOfText:    eot,
		HasEndOfText: hasEOT,
	})
	if err != nil {
		return nil, err
	}

	stats := Stats{TokensGenerated: len(gen.Tokens), Duration: time.Since(start)}
	if stats.Duration.Seconds() > 0 {
		stats.TPS = float64(stats.TokensGenerated) / stats.Duration.Seconds()
	}
	return &GenerateResult{
		Previous: req.Previous,
		Output:   gen.Text,
		Tokens:   gen.Tokens,
		Stopped:  gen.Stopped,
		Stats:    stats,
	}, nil
}

func (e *EngineImpl) CacheStats() statecache.Stats {
	return e.scorer.CacheStats()
}

// Close drops every cached state. The engine stays usable.
func (e *EngineImpl) Close() error {
	e.scorer.Reset()
	return nil
}

func observe(op string, start time.Time, err *error) {
	metrics.RecordSearch(op, time.Since(start), *err)
}
