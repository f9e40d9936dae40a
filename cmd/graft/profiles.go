package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	json "github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/graft/pkg/layout"
)

func profilesCmd() *cli.Command {
	var asJSON bool

	return &cli.Command{
		Name:    "profiles",
		Aliases: []string{"ls"},
		Usage:   "List the available platform layout profiles",
		Flags: append(profileFlags(),
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "print profiles as JSON",
				Destination: &asJSON,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyLayoutConfig(cmd, appConfig)

			var extra []layout.Profile
			if profilesFile != "" {
				p, err := layout.LoadProfiles(profilesFile)
				if err != nil {
					return exitf(exitFailure, "%v", err)
				}
				extra = p
			}
			profiles := layout.Merge(extra)

			if asJSON {
				out, err := json.MarshalIndent(profiles, "", "  ")
				if err != nil {
					return err
				}
				_, err = stdout.Write(append(out, '\n'))
				return err
			}

			tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "NAME\tORDER\tINT\tPTR\tUNIT\tALIGN\tBITS\tDESCRIPTION")
			for _, p := range profiles {
				cfg, err := p.Layout()
				if err != nil {
					return exitf(exitFailure, "%v", err)
				}
				order := p.ByteOrder
				if order == "" {
					order = layout.HostByteOrder()
					if cfg.ReverseBytes {
						order = "reversed"
					}
				}
				bits := "lsb"
				if cfg.FieldMSBFirst {
					bits = "msb"
				}
				if cfg.FieldSpan {
					bits += "+span"
				}
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%s\t%s\n",
					p.Name, order, cfg.IntWidth, cfg.PointerWidth, cfg.FieldUnitWidth,
					cfg.MemberAlign, bits, p.Description)
			}
			return tw.Flush()
		},
	}
}
