package inference

import "github.com/samcharles93/lmexplorer/internal/lm"

// Defaults applied when a request leaves a field unset.
const (
	DefaultTopK        = 10
	DefaultNumSteps    = 1
	DefaultTemperature = 1.0
	DefaultMaxTokens   = 64
)

// RequestOptions carries the optional fields a caller may set. Which fields
// matter depends on the operation; see the Resolve functions.
type RequestOptions struct {
	Previous *string
	Next     *string

	TopK        *int
	NumSteps    *int
	Temperature *float64
	MaxTokens   *int
	Seed        *int64
}

func (o RequestOptions) text() (Text, error) {
	if o.Previous == nil {
		return Text{}, lm.InvalidArgument("previous is required")
	}
	return Text{Previous: *o.Previous, Next: o.Next}, nil
}

func (o RequestOptions) topK() (int, error) {
	k := DefaultTopK
	if o.TopK != nil {
		k = *o.TopK
	}
	if k < 1 {
		return 0, lm.InvalidArgument("topk must be at least 1, got %d", k)
	}
	return k, nil
}

func (o RequestOptions) temperature() (float64, error) {
	t := DefaultTemperature
	if o.Temperature != nil {
		t = *o.Temperature
	}
	if t < 0 {
		return 0, lm.InvalidArgument("temperature must be non-negative, got %v", t)
	}
	return t, nil
}

func (o RequestOptions) seed() int64 {
	if o.Seed != nil && *o.Seed >= 0 {
		return *o.Seed
	}
	return -1
}

// ResolvePredict fills defaults for a predict query.
func ResolvePredict(opts RequestOptions) (PredictRequest, error) {
	text, err := opts.text()
	if err != nil {
		return PredictRequest{}, err
	}
	k, err := opts.topK()
	if err != nil {
		return PredictRequest{}, err
	}
	temp, err := opts.temperature()
	if err != nil {
		return PredictRequest{}, err
	}
	return PredictRequest{Text: text, TopK: k, Temperature: temp, Seed: opts.seed()}, nil
}

// ResolveRandom fills defaults for a random continuation query.
func ResolveRandom(opts RequestOptions) (RandomRequest, error) {
	text, err := opts.text()
	if err != nil {
		return RandomRequest{}, err
	}
	k, err := opts.topK()
	if err != nil {
		return RandomRequest{}, err
	}
	temp, err := opts.temperature()
	if err != nil {
		return RandomRequest{}, err
	}
	steps := DefaultNumSteps
	if opts.NumSteps != nil {
		steps = *opts.NumSteps
	}
	if steps < 1 {
		return RandomRequest{}, lm.InvalidArgument("numsteps must be at least 1, got %d", steps)
	}
	return RandomRequest{Text: text, TopK: k, NumSteps: steps, Temperature: temp, Seed: opts.seed()}, nil
}

// ResolveBeam fills defaults for a beam search query. NumSteps has no
// default. An absent Next is treated as the empty string.
func ResolveBeam(opts RequestOptions) (BeamRequest, error) {
	text, err := opts.text()
	if err != nil {
		return BeamRequest{}, err
	}
	if text.Next == nil {
		empty := ""
		text.Next = &empty
	}
	k, err := opts.topK()
	if err != nil {
		return BeamRequest{}, err
	}
	if opts.NumSteps == nil {
		return BeamRequest{}, lm.InvalidArgument("numsteps is required")
	}
	if *opts.NumSteps < 1 {
		return BeamRequest{}, lm.InvalidArgument("numsteps must be at least 1, got %d", *opts.NumSteps)
	}
	return BeamRequest{Text: text, TopK: k, NumSteps: *opts.NumSteps}, nil
}

// ResolveGenerate fills defaults for a free generation query.
func ResolveGenerate(opts RequestOptions) (GenerateRequest, error) {
	text, err := opts.text()
	if err != nil {
		return GenerateRequest{}, err
	}
	temp, err := opts.temperature()
	if err != nil {
		return GenerateRequest{}, err
	}
	maxTokens := DefaultMaxTokens
	if opts.MaxTokens != nil {
		maxTokens = *opts.MaxTokens
	}
	if maxTokens < 1 {
		return GenerateRequest{}, lm.InvalidArgument("max_tokens must be at least 1, got %d", maxTokens)
	}
	return GenerateRequest{Previous: text.Output(), MaxTokens: maxTokens, Temperature: temp, Seed: opts.seed()}, nil
}
