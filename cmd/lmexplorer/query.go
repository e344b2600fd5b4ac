package main

import (
	"context"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/lmexplorer/internal/inference"
	"github.com/samcharles93/lmexplorer/internal/logger"
)

// queryFlags holds the request fields shared by the query commands.
type queryFlags struct {
	next        string
	topK        int64
	numSteps    int64
	temperature float64
	maxTokens   int64
	seed        int64
	format      string
}

func (q *queryFlags) common() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "next",
			Usage:       "text scored incrementally after the previous text",
			Destination: &q.next,
		},
		&cli.Int64Flag{
			Name:        "seed",
			Usage:       "random seed (negative draws one)",
			Value:       -1,
			Destination: &q.seed,
		},
		&cli.StringFlag{
			Name:        "format",
			Usage:       "output format (table, json)",
			Value:       formatTable,
			Destination: &q.format,
		},
	}
}

func (q *queryFlags) topKFlag() cli.Flag {
	return &cli.Int64Flag{
		Name:        "topk",
		Aliases:     []string{"k"},
		Usage:       "number of candidates",
		Value:       inference.DefaultTopK,
		Destination: &q.topK,
	}
}

func (q *queryFlags) temperatureFlag() cli.Flag {
	return &cli.Float64Flag{
		Name:        "temperature",
		Aliases:     []string{"temp", "t"},
		Usage:       "sampling temperature (0 is greedy)",
		Value:       inference.DefaultTemperature,
		Destination: &q.temperature,
	}
}

func (q *queryFlags) numStepsFlag(value int64) cli.Flag {
	return &cli.Int64Flag{
		Name:        "numsteps",
		Aliases:     []string{"steps", "n"},
		Usage:       "number of rounds",
		Value:       value,
		Destination: &q.numSteps,
	}
}

// options converts the flags to request options. The previous text is the
// command's arguments joined by spaces. Flags left unset stay nil so the
// engine defaults apply.
func (q *queryFlags) options(cmd *cli.Command) inference.RequestOptions {
	previous := strings.Join(cmd.Args().Slice(), " ")
	opts := inference.RequestOptions{Previous: &previous}
	if cmd.IsSet("next") {
		opts.Next = &q.next
	}
	if cmd.IsSet("topk") {
		opts.TopK = intPtr(q.topK)
	}
	if cmd.IsSet("numsteps") {
		opts.NumSteps = intPtr(q.numSteps)
	}
	if cmd.IsSet("max-tokens") {
		opts.MaxTokens = intPtr(q.maxTokens)
	}
	if cmd.IsSet("temperature") {
		opts.Temperature = &q.temperature
	}
	if cmd.IsSet("seed") {
		opts.Seed = &q.seed
	}
	return opts
}

func intPtr(v int64) *int {
	n := int(v)
	return &n
}

// runQuery loads an engine, resolves the flags with resolve, runs the query
// and renders the result.
func runQuery[Req, Res any](
	ctx context.Context,
	cmd *cli.Command,
	q *queryFlags,
	resolve func(inference.RequestOptions) (Req, error),
	run func(inference.Engine) func(context.Context, Req) (Res, error),
	table func(Res) tableData,
) error {
	req, err := resolve(q.options(cmd))
	if err != nil {
		return err
	}
	loaded, err := loadEngine(ctx, cmd)
	if err != nil {
		return err
	}
	defer func() { _ = loaded.Engine.Close() }()

	res, err := run(loaded.Engine)(ctx, req)
	if err != nil {
		return err
	}
	logger.FromContext(ctx).Debug("query complete", "cache", loaded.Engine.CacheStats())
	return render(os.Stdout, q.format, res, func() tableData { return table(res) })
}

func predictCmd() *cli.Command {
	q := &queryFlags{}
	return &cli.Command{
		Name:      "predict",
		Usage:     "Show the top next-token candidates after the given text",
		ArgsUsage: "<previous text>",
		Flags:     append(append(engineFlags(), q.common()...), q.topKFlag(), q.temperatureFlag()),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runQuery(ctx, cmd, q, inference.ResolvePredict,
				func(e inference.Engine) func(context.Context, inference.PredictRequest) (*inference.PredictResult, error) {
					return e.Predict
				},
				predictTable,
			)
		},
	}
}

func sampleCmd() *cli.Command {
	q := &queryFlags{}
	return &cli.Command{
		Name:      "sample",
		Aliases:   []string{"random"},
		Usage:     "Extend the text with distinct random continuations",
		ArgsUsage: "<previous text>",
		Flags: append(append(engineFlags(), q.common()...),
			q.topKFlag(), q.temperatureFlag(), q.numStepsFlag(inference.DefaultNumSteps)),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runQuery(ctx, cmd, q, inference.ResolveRandom,
				func(e inference.Engine) func(context.Context, inference.RandomRequest) (*inference.RandomResult, error) {
					return e.RandomSample
				},
				randomTable,
			)
		},
	}
}

func beamCmd() *cli.Command {
	q := &queryFlags{}
	return &cli.Command{
		Name:      "beam",
		Usage:     "Run beam search over the continuations of the text",
		ArgsUsage: "<previous text>",
		Flags: append(append(engineFlags(), q.common()...),
			q.topKFlag(), q.numStepsFlag(0)),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runQuery(ctx, cmd, q, inference.ResolveBeam,
				func(e inference.Engine) func(context.Context, inference.BeamRequest) (*inference.BeamResult, error) {
					return e.BeamSearch
				},
				beamTable,
			)
		},
	}
}

func generateCmd() *cli.Command {
	q := &queryFlags{}
	return &cli.Command{
		Name:      "generate",
		Usage:     "Sample tokens until end of text or the token limit",
		ArgsUsage: "<previous text>",
		Flags: append(append(engineFlags(), q.common()...),
			q.temperatureFlag(),
			&cli.Int64Flag{
				Name:        "max-tokens",
				Usage:       "maximum tokens to generate",
				Value:       inference.DefaultMaxTokens,
				Destination: &q.maxTokens,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runQuery(ctx, cmd, q, inference.ResolveGenerate,
				func(e inference.Engine) func(context.Context, inference.GenerateRequest) (*inference.GenerateResult, error) {
					return e.Generate
				},
				generateTable,
			)
		},
	}
}
