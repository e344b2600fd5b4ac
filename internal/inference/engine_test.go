package inference

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/samcharles93/lmexplorer/internal/lm"
	"github.com/samcharles93/lmexplorer/internal/logger"
	"github.com/samcharles93/lmexplorer/internal/tokenizer"
)

func ptr[T any](v T) *T { return &v }

func loadTestEngine(t *testing.T, l Loader) *LoadResult {
	t.Helper()
	if l.Tokenizer == "" {
		l.Tokenizer = tokenizer.KindBytes
	}
	if l.Hidden == 0 {
		l.Hidden = 16
	}
	l.Decay = 0.5
	l.Logger = logger.JSON(io.Discard, slog.LevelError)
	res, err := l.Load()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = res.Engine.Close() })
	return res
}

func TestResolveDefaults(t *testing.T) {
	t.Parallel()
	p, err := ResolvePredict(RequestOptions{Previous: ptr("hi")})
	if err != nil {
		t.Fatal(err)
	}
	if p.TopK != DefaultTopK || p.Temperature != DefaultTemperature || p.Seed != -1 || p.Next != nil {
		t.Fatalf("unexpected predict defaults %+v", p)
	}

	r, err := ResolveRandom(RequestOptions{Previous: ptr("hi"), Next: ptr("")})
	if err != nil {
		t.Fatal(err)
	}
	if r.NumSteps != 1 || r.TopK != 10 || r.Next == nil {
		t.Fatalf("unexpected random defaults %+v", r)
	}

	b, err := ResolveBeam(RequestOptions{Previous: ptr("hi"), NumSteps: ptr(3)})
	if err != nil {
		t.Fatal(err)
	}
	if b.Next == nil || *b.Next != "" || b.NumSteps != 3 {
		t.Fatalf("beam next should default to empty string: %+v", b)
	}

	g, err := ResolveGenerate(RequestOptions{Previous: ptr("a"), Next: ptr("b"), Seed: ptr(int64(4))})
	if err != nil {
		t.Fatal(err)
	}
	if g.Previous != "ab" || g.MaxTokens != DefaultMaxTokens || g.Seed != 4 {
		t.Fatalf("unexpected generate defaults %+v", g)
	}
}

func TestResolveRejectsInvalid(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		fn   func() error
	}{
		{"missing previous", func() error { _, err := ResolvePredict(RequestOptions{}); return err }},
		{"zero topk", func() error { _, err := ResolvePredict(RequestOptions{Previous: ptr(""), TopK: ptr(0)}); return err }},
		{"negative temperature", func() error {
			_, err := ResolveRandom(RequestOptions{Previous: ptr(""), Temperature: ptr(-1.0)})
			return err
		}},
		{"zero numsteps", func() error { _, err := ResolveRandom(RequestOptions{Previous: ptr(""), NumSteps: ptr(0)}); return err }},
		{"beam without numsteps", func() error { _, err := ResolveBeam(RequestOptions{Previous: ptr("")}); return err }},
		{"generate zero max tokens", func() error {
			_, err := ResolveGenerate(RequestOptions{Previous: ptr(""), MaxTokens: ptr(0)})
			return err
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.fn(); !errors.Is(err, lm.ErrInvalidArgument) {
				t.Fatalf("expected invalid argument, got %v", err)
			}
		})
	}
}

func TestPredict(t *testing.T) {
	t.Parallel()
	res := loadTestEngine(t, Loader{CacheSize: 16, WeightsSeed: 1})
	req, err := ResolvePredict(RequestOptions{Previous: ptr("Hello there"), Seed: ptr(int64(7))})
	if err != nil {
		t.Fatal(err)
	}
	got, err := res.Engine.Predict(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Words) != 10 || len(got.Logits) != 10 || len(got.Probabilities) != 10 {
		t.Fatalf("expected ten candidates, got %+v", got)
	}
	if got.Output != "Hello there" {
		t.Fatalf("output %q", got.Output)
	}
	for i := 1; i < len(got.Logits); i++ {
		if got.Logits[i-1] < got.Logits[i] || got.Probabilities[i-1] < got.Probabilities[i] {
			t.Fatalf("predictions not descending: %v", got.Logits)
		}
	}
	if got.Sample.Probability <= 0 || got.Sample.Probability > 1 || got.Sample.Word == "" {
		t.Fatalf("bad sample %+v", got.Sample)
	}

	again, err := res.Engine.Predict(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(got, again); diff != "" {
		t.Fatalf("seeded predict not reproducible (-first +second):\n%s", diff)
	}
	if st := res.Engine.CacheStats(); st.Hits == 0 {
		t.Fatalf("repeated predict should hit the cache: %+v", st)
	}
}

func TestPredictProbabilitiesMatchSoftmax(t *testing.T) {
	t.Parallel()
	res := loadTestEngine(t, Loader{CacheSize: 4})
	req, _ := ResolvePredict(RequestOptions{Previous: ptr("x"), TopK: ptr(1000)})
	got, err := res.Engine.Predict(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Words) != res.Tokenizer.VocabSize() {
		t.Fatalf("topk should clamp to the vocabulary, got %d", len(got.Words))
	}
	var sum float64
	for _, p := range got.Probabilities {
		sum += p
	}
	if math.Abs(sum-1) > 1e-6 {
		t.Fatalf("probabilities sum to %v", sum)
	}
}

func TestPredictSampleProbabilityUsesTemperature(t *testing.T) {
	t.Parallel()
	res := loadTestEngine(t, Loader{CacheSize: 4})
	ctx := context.Background()

	greedy, _ := ResolvePredict(RequestOptions{Previous: ptr("ab"), Temperature: ptr(0.0)})
	got, err := res.Engine.Predict(ctx, greedy)
	if err != nil {
		t.Fatal(err)
	}
	if got.Sample.Word != got.Words[0] || got.Sample.Probability != 1 {
		t.Fatalf("greedy sample should be the top word with probability 1, got %+v", got.Sample)
	}

	plain, _ := ResolvePredict(RequestOptions{Previous: ptr("ab"), TopK: ptr(1000), Seed: ptr(int64(3))})
	got, err = res.Engine.Predict(ctx, plain)
	if err != nil {
		t.Fatal(err)
	}
	idx := -1
	for i, w := range got.Words {
		if w == got.Sample.Word {
			idx = i
			break
		}
	}
	if idx < 0 {
		t.Fatalf("sampled word %q not among candidates", got.Sample.Word)
	}
	if math.Abs(got.Sample.Probability-got.Probabilities[idx]) > 1e-9 {
		t.Fatalf("temperature 1 sample probability %v, want %v", got.Sample.Probability, got.Probabilities[idx])
	}
}

func TestRandomSample(t *testing.T) {
	t.Parallel()
	res := loadTestEngine(t, Loader{CacheSize: 32, Parallelism: 2})
	req, err := ResolveRandom(RequestOptions{Previous: ptr("abc"), TopK: ptr(3), NumSteps: ptr(4), Seed: ptr(int64(2))})
	if err != nil {
		t.Fatal(err)
	}
	got, err := res.Engine.RandomSample(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if got.Previous != "abc" || len(got.Words) != 3 {
		t.Fatalf("unexpected result %+v", got)
	}
	for _, w := range got.Words {
		if !strings.HasPrefix(w, "abc") {
			t.Fatalf("continuation %q lost the previous text", w)
		}
	}
}

func TestBeamSearchMatchesUncached(t *testing.T) {
	t.Parallel()
	cached := loadTestEngine(t, Loader{CacheSize: 64, WeightsSeed: 3})
	uncached := loadTestEngine(t, Loader{CacheSize: 0, WeightsSeed: 3})
	req, err := ResolveBeam(RequestOptions{Previous: ptr("The"), Next: ptr(" c"), TopK: ptr(3), NumSteps: ptr(3)})
	if err != nil {
		t.Fatal(err)
	}
	a, err := cached.Engine.BeamSearch(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	b, err := uncached.Engine.BeamSearch(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(b, a); diff != "" {
		t.Fatalf("cache changed beam results (-uncached +cached):\n%s", diff)
	}
	if len(a.Words) != 3 || len(a.Logits) != 3 {
		t.Fatalf("unexpected beam %+v", a)
	}
}

func TestGenerateBoundedByMaxTokens(t *testing.T) {
	t.Parallel()
	res := loadTestEngine(t, Loader{CacheSize: 8})
	req, _ := ResolveGenerate(RequestOptions{Previous: ptr("Once"), MaxTokens: ptr(5), Seed: ptr(int64(1))})
	got, err := res.Engine.Generate(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Tokens) > 5 || !strings.HasPrefix(got.Output, "Once") {
		t.Fatalf("unexpected generation %+v", got)
	}
	if got.Stopped == "" || got.Stats.TokensGenerated != len(got.Tokens) {
		t.Fatalf("missing stop reason or stats: %+v", got)
	}
}

func TestContextLimitSurfacesAsUpstreamFailure(t *testing.T) {
	t.Parallel()
	res := loadTestEngine(t, Loader{CacheSize: 8, MaxContext: 4})
	req, _ := ResolveBeam(RequestOptions{Previous: ptr("abc"), TopK: ptr(2), NumSteps: ptr(3)})
	_, err := res.Engine.BeamSearch(context.Background(), req)
	if !errors.Is(err, lm.ErrUpstreamScoring) {
		t.Fatalf("expected upstream failure, got %v", err)
	}
}

func TestLoaderRejectsBadConfig(t *testing.T) {
	t.Parallel()
	if _, err := (Loader{CacheSize: -1}).Load(); err == nil {
		t.Fatal("expected negative cache size error")
	}
	if _, err := (Loader{Tokenizer: "sentencepiece"}).Load(); err == nil {
		t.Fatal("expected unknown tokenizer error")
	}
}
