package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/graft/internal/logger"
)

var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "graft",
		Usage: "Decode binary dumps of C structs written on foreign platforms",
		Flags: loggingFlags(),
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			appConfig = LoadConfig()
			applyLoggingConfig(cmd, appConfig)
			level := logLevel
			if debug {
				level = "debug"
			}
			return logger.WithContext(ctx, logger.ForFormat(logFormat, level, stderr)), nil
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
		Commands: []*cli.Command{
			decodeCmd(),
			sizeCmd(),
			profilesCmd(),
			serveCmd(),
			versionCmd(),
		},
	}
}
