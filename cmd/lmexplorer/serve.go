package main

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/lmexplorer/internal/api"
	"github.com/samcharles93/lmexplorer/internal/logger"
	"github.com/samcharles93/lmexplorer/internal/metrics"
)

func serveCmd() *cli.Command {
	var (
		addr        string
		readTimeout time.Duration
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the query API over HTTP",
		Flags: append(engineFlags(),
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       "127.0.0.1:8000",
				Sources:     cli.EnvVars("LMEXPLORER_ADDR"),
				Destination: &addr,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read header timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyServeConfig(cmd, cfg, &addr)

			loaded, err := loadEngine(ctx, cmd)
			if err != nil {
				return err
			}
			defer func() { _ = loaded.Engine.Close() }()

			server := api.NewServer(loaded.Engine, log)
			e := api.NewEcho(server)

			log.Info("starting server",
				"address", addr,
				"tokenizer", tokenizerKind,
				"vocab", loaded.Tokenizer.VocabSize(),
				"cache_size", cacheSize,
			)
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, metrics.Instrument(e, api.Paths...))
		},
	}
}
