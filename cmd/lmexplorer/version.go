package main

import (
	"context"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/lmexplorer/internal/version"
)

func versionCmd() *cli.Command {
	var format string
	return &cli.Command{
		Name:  "version",
		Usage: "Print build information",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "format",
				Usage:       "output format (table, json)",
				Value:       formatTable,
				Destination: &format,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			info := version.Resolve()
			return render(os.Stdout, format, info, func() tableData {
				return tableData{
					header: table.Row{"field", "value"},
					rows: []table.Row{
						{"version", info.Version},
						{"commit", info.Commit},
						{"built", info.BuildTime},
						{"go", info.GoVersion},
					},
				}
			})
		},
	}
}
