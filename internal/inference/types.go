package inference

import (
	"context"
	"time"

	"github.com/samcharles93/lmexplorer/internal/statecache"
)

// Engine answers the query modes over one scoring model and its state cache.
type Engine interface {
	Predict(ctx context.Context, req PredictRequest) (*PredictResult, error)
	RandomSample(ctx context.Context, req RandomRequest) (*RandomResult, error)
	BeamSearch(ctx context.Context, req BeamRequest) (*BeamResult, error)
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error)
	CacheStats() statecache.Stats
	Close() error
}

// Text is the previous/next pair every query starts from. A nil Next means
// the field was absent, which differs from an empty string in how the
// cache is consulted.
type Text struct {
	Previous string
	Next     *string
}

func (t Text) next() string {
	if t.Next == nil {
		return ""
	}
	return *t.Next
}

// Output is Previous followed by Next.
func (t Text) Output() string {
	return t.Previous + t.next()
}

type PredictRequest struct {
	Text
	TopK        int
	Temperature float64
	// Seed drives the reported random sample. Negative draws a fresh seed.
	Seed int64
}

type RandomRequest struct {
	Text
	TopK        int
	NumSteps    int
	Temperature float64
	Seed        int64
}

type BeamRequest struct {
	Text
	TopK     int
	NumSteps int
}

type GenerateRequest struct {
	Previous    string
	MaxTokens   int
	Temperature float64
	Seed        int64
}

// Sample is the single random draw reported alongside a prediction.
type Sample struct {
	Word        string  `json:"word"`
	Logit       float64 `json:"logit"`
	// Probability is the chance of Word at the request temperature.
	Probability float64 `json:"probability"`
}

type PredictResult struct {
	Logits        []float64 `json:"logits"`
	Probabilities []float64 `json:"probabilities"`
	Words         []string  `json:"words"`
	Output        string    `json:"output"`
	Sample        Sample    `json:"sample"`
}

type RandomResult struct {
	Previous string   `json:"previous"`
	Words    []string `json:"words"`
}

type BeamResult struct {
	Previous string   `json:"previous"`
	Words    []string `json:"words"`
	// Logits are the cumulative log-probabilities of Words.
	Logits []float64 `json:"logits"`
}

type GenerateResult struct {
	Previous string   `json:"previous"`
	Output   string   `json:"output"`
	Tokens   []string `json:"tokens"`
	Stopped  string   `json:"stopped"`
	Stats    Stats    `json:"stats"`
}

type Stats struct {
	TokensGenerated int           `json:"tokens_generated"`
	Duration        time.Duration `json:"duration_ns"`
	TPS             float64       `json:"tokens_per_second"`
}
