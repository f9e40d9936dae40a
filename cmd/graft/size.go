package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/graft/internal/logger"
	"github.com/samcharles93/graft/internal/schema"
	"github.com/samcharles93/graft/pkg/structio"
)

func sizeCmd() *cli.Command {
	var (
		schemaPath string
		record     string
	)

	return &cli.Command{
		Name:  "size",
		Usage: "Print the encoded size of schema records under a layout",
		Flags: append(layoutFlags(),
			&cli.StringFlag{
				Name:        "schema",
				Aliases:     []string{"s"},
				Usage:       "schema file (.yaml, .yml or .json)",
				Required:    true,
				Destination: &schemaPath,
			},
			&cli.StringFlag{
				Name:        "record",
				Aliases:     []string{"r"},
				Usage:       "record to size (default: every record)",
				Destination: &record,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyLayoutConfig(cmd, appConfig)

			cfg, _, err := resolveLayout(cmd)
			if err != nil {
				return exitf(exitFailure, "layout: %v", err)
			}
			sch, err := schema.Load(schemaPath)
			if err != nil {
				return exitf(exitFailure, "schema: %v", err)
			}
			names := sch.Records()
			if record != "" {
				if _, ok := sch.Record(record); !ok {
					return exitf(exitFailure, "schema %s has no record %q", schemaPath, record)
				}
				names = []string{record}
			}

			sess, err := structio.New(cfg, sessionOptions(log)...)
			if err != nil {
				return exitf(exitFailure, "%v", err)
			}
			tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
			for _, name := range names {
				n, err := sch.Size(sess, name)
				if err != nil {
					return exitf(exitFailure, "%s: %v", name, err)
				}
				_, _ = fmt.Fprintf(tw, "%s\t%d\n", name, n)
			}
			return tw.Flush()
		},
	}
}
