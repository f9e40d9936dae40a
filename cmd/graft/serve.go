package main

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/graft/internal/api"
	"github.com/samcharles93/graft/internal/logger"
	"github.com/samcharles93/graft/pkg/layout"
)

func serveCmd() *cli.Command {
	var (
		addr        string
		readTimeout time.Duration
		maxBody     int64
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the decode REST API",
		Flags: append(profileFlags(),
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       "127.0.0.1:8080",
				Destination: &addr,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read header timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
			&cli.Int64Flag{
				Name:        "max-body",
				Usage:       "maximum request body in bytes",
				Value:       api.DefaultMaxBody,
				Destination: &maxBody,
			},
			&cli.BoolFlag{
				Name:        "strict-padding",
				Usage:       "reject non-zero padding bytes",
				Destination: &strictPadding,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyServeConfig(cmd, appConfig, &addr, &maxBody)

			var extra []layout.Profile
			if profilesFile != "" {
				p, err := layout.LoadProfiles(profilesFile)
				if err != nil {
					return exitf(exitFailure, "%v", err)
				}
				extra = p
			}
			if profileName != "" {
				if _, err := layout.Lookup(profileName, extra); err != nil {
					return exitf(exitFailure, "%v", err)
				}
			}

			service := api.NewDecodeService(api.ServiceConfig{
				Profiles:       extra,
				DefaultProfile: profileName,
				StrictPadding:  strictPadding,
				Logger:         log,
			})
			server := api.NewServer(service)
			server.SetMaxBody(maxBody)
			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			server.Register(e)
			log.Info("starting server", "address", addr, "profiles", len(extra))
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}
