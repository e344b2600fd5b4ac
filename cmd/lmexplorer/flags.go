package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/lmexplorer/internal/inference"
	"github.com/samcharles93/lmexplorer/internal/logger"
	"github.com/samcharles93/lmexplorer/internal/tokenizer"
)

var (
	configFile    string
	tokenizerKind string
	cacheSize     int64
	hidden        int64
	weightsSeed   int64
	decay         float64
	maxContext    int64
	parallelism   int64
	logLevel      string
	logFormat     string
	debug         bool

	// cfg is the loaded config file, filled by setupLogging.
	cfg Config
)

func engineFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "tokenizer",
			Usage:       "tokenizer (gpt2, bytes)",
			Value:       "gpt2",
			Sources:     cli.EnvVars("LMEXPLORER_TOKENIZER"),
			Destination: &tokenizerKind,
		},
		&cli.Int64Flag{
			Name:        "cache-size",
			Usage:       "state cache capacity in entries (0 disables caching)",
			Value:       inference.DefaultCacheSize,
			Sources:     cli.EnvVars("LMEXPLORER_CACHE_SIZE"),
			Destination: &cacheSize,
		},
		&cli.Int64Flag{
			Name:        "hidden",
			Usage:       "hidden size of the toy model",
			Value:       inference.DefaultHidden,
			Destination: &hidden,
		},
		&cli.Int64Flag{
			Name:        "weights-seed",
			Usage:       "seed for the toy model weights",
			Value:       1,
			Sources:     cli.EnvVars("LMEXPLORER_WEIGHTS_SEED"),
			Destination: &weightsSeed,
		},
		&cli.Float64Flag{
			Name:        "decay",
			Usage:       "recurrent state decay of the toy model",
			Value:       inference.DefaultDecay,
			Destination: &decay,
		},
		&cli.Int64Flag{
			Name:        "max-context",
			Aliases:     []string{"ctx"},
			Usage:       "max tokens per query (0 is unbounded)",
			Value:       1024,
			Sources:     cli.EnvVars("LMEXPLORER_MAX_CONTEXT"),
			Destination: &maxContext,
		},
		&cli.Int64Flag{
			Name:        "parallelism",
			Usage:       "candidates scored concurrently within a search round",
			Value:       1,
			Sources:     cli.EnvVars("LMEXPLORER_PARALLELISM"),
			Destination: &parallelism,
		},
	}
}

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("LMEXPLORER_LOG_LEVEL"),
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Sources:     cli.EnvVars("LMEXPLORER_LOG_FORMAT"),
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}

// setupLogging loads the config file and stores the configured logger in
// the context for every subcommand.
func setupLogging(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	loaded, err := LoadConfig(configFile)
	if err != nil {
		return ctx, err
	}
	cfg = loaded
	applyLoggingConfig(cmd, cfg)

	level := logger.ParseLevel(logLevel)
	if debug {
		level = logger.ParseLevel("debug")
	}
	var log logger.Logger
	if logFormat == logger.FormatPretty && !isTTY(os.Stderr) {
		log = logger.New(logger.NewPrettyHandler(os.Stderr, &slog.HandlerOptions{Level: level}).WithoutColor())
	} else {
		log, err = logger.ForFormat(logFormat, os.Stderr, level)
		if err != nil {
			return ctx, fmt.Errorf("configure logging: %w", err)
		}
	}
	return logger.WithContext(ctx, log), nil
}

// loadEngine builds an engine from the engine flags, filling unset flags
// from the config file.
func loadEngine(ctx context.Context, cmd *cli.Command) (*inference.LoadResult, error) {
	applyEngineConfig(cmd, cfg)
	log := logger.FromContext(ctx)
	return inference.Loader{
		Tokenizer:   tokenizer.Kind(tokenizerKind),
		CacheSize:   int(cacheSize),
		Hidden:      int(hidden),
		WeightsSeed: weightsSeed,
		Decay:       float32(decay),
		MaxContext:  int(maxContext),
		Parallelism: int(parallelism),
		Logger:      log,
	}.Load()
}

func isTTY(f *os.File) bool {
	st, err := f.Stat()
	if err != nil {
		return false
	}
	return (st.Mode() & os.ModeCharDevice) != 0
}
