package main

import (
	"context"
	"errors"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/graft/internal/input"
	"github.com/samcharles93/graft/internal/logger"
	"github.com/samcharles93/graft/internal/schema"
	"github.com/samcharles93/graft/pkg/structio"
)

// Exit codes for decode failures.
const (
	exitFailure = 1
	exitFormat  = 2
)

func decodeCmd() *cli.Command {
	var (
		schemaPath string
		record     string
		exhaustive bool
		compact    bool
	)

	return &cli.Command{
		Name:      "decode",
		Usage:     "Decode a binary file against a schema and print JSON",
		ArgsUsage: "FILE (- for stdin)",
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
				Usage:       "decode one record instead of the schema's sequence",
				Destination: &record,
			},
			&cli.BoolFlag{
				Name:        "exhaustive",
				Usage:       "with --record, fail if input remains after the record",
				Destination: &exhaustive,
			},
			&cli.StringFlag{
				Name:        "compression",
				Usage:       "input compression (none, auto, gzip, zstd, s2); auto sniffs the header",
				Value:       string(input.None),
				Destination: &compression,
			},
			&cli.BoolFlag{
				Name:        "compact",
				Usage:       "print JSON on one line",
				Destination: &compact,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx).With("run", uuid.NewString())
			applyLayoutConfig(cmd, appConfig)

			path := cmd.Args().First()
			if path == "" {
				return exitf(exitFailure, "decode needs an input FILE")
			}
			cfg, _, err := resolveLayout(cmd)
			if err != nil {
				return exitf(exitFailure, "layout: %v", err)
			}
			sch, err := schema.Load(schemaPath)
			if err != nil {
				return exitf(exitFailure, "schema: %v", err)
			}
			if record != "" {
				if _, ok := sch.Record(record); !ok {
					return exitf(exitFailure, "schema %s has no record %q", schemaPath, record)
				}
			}
			comp, err := input.ParseCompression(compression)
			if err != nil {
				return exitf(exitFailure, "%v", err)
			}

			rc, err := input.Open(path, comp)
			if err != nil {
				return exitf(exitFailure, "open input: %v", err)
			}
			defer func() { _ = rc.Close() }()

			sess, err := structio.New(cfg, sessionOptions(log)...)
			if err != nil {
				return exitf(exitFailure, "%v", err)
			}
			if err := sess.OpenReader(rc, path); err != nil {
				return exitf(exitFailure, "%v", err)
			}
			defer func() { _ = sess.Close() }()

			log.Debug("decoding", "input", path, "layout", cfg.String())
			var values schema.Values
			if record == "" {
				values, err = sch.DecodeStream(sess)
			} else {
				values, err = sch.Decode(sess, record)
				if err == nil && exhaustive {
					err = sess.VerifyExhausted()
				}
			}
			if err != nil {
				code := exitFailure
				if errors.Is(err, structio.ErrFormat) {
					code = exitFormat
				}
				return exitf(code, "%s: %v", path, err)
			}

			var out []byte
			if compact {
				out, err = json.Marshal(values)
			} else {
				out, err = json.MarshalIndent(values, "", "  ")
			}
			if err != nil {
				return exitf(exitFailure, "encode output: %v", err)
			}
			log.Debug("decoded", "input", path, "bytes", sess.Offset())
			_, err = stdout.Write(append(out, '\n'))
			return err
		},
	}
}
