package main

import (
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/graft/pkg/layout"
	"github.com/samcharles93/graft/pkg/structio"
)

const envProfilesFile = "GRAFT_PROFILES_FILE"

var (
	profileName   string
	profilesFile  string
	strictPadding bool
	compression   string
	logLevel      string
	logFormat     string
	debug         bool
)

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}

func profileFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "profile",
			Aliases:     []string{"p"},
			Usage:       "named platform layout (see graft profiles)",
			Destination: &profileName,
		},
		&cli.StringFlag{
			Name:        "profiles-file",
			Usage:       "YAML file with additional layout profiles",
			Sources:     cli.EnvVars(envProfilesFile),
			Destination: &profilesFile,
		},
	}
}

// intOverrides maps the integer layout flags onto their Config fields.
var intOverrides = []struct {
	flag  string
	usage string
	field func(*layout.Config) *int
}{
	{"int-width", "source int width in bytes (1, 2, 4)", func(c *layout.Config) *int { return &c.IntWidth }},
	{"pointer-width", "source pointer width in bytes (1, 2, 4)", func(c *layout.Config) *int { return &c.PointerWidth }},
	{"field-unit-width", "bitfield storage unit in bytes (1, 2, 4)", func(c *layout.Config) *int { return &c.FieldUnitWidth }},
	{"member-align", "maximum member alignment (1, 2, 4)", func(c *layout.Config) *int { return &c.MemberAlign }},
	{"struct-align", "alignment of structs without bitfields (0 derives it)", func(c *layout.Config) *int { return &c.StructAlign }},
	{"field-align", "minimum alignment of structs with bitfields (0, 1, 2, 4)", func(c *layout.Config) *int { return &c.FieldAlign }},
}

var boolOverrides = []struct {
	flag  string
	usage string
	field func(*layout.Config) *bool
}{
	{"reverse-bytes", "source byte order differs from this host", func(c *layout.Config) *bool { return &c.ReverseBytes }},
	{"field-msb", "bitfields are packed from the most significant bit", func(c *layout.Config) *bool { return &c.FieldMSBFirst }},
	{"field-span", "bitfields may straddle storage units", func(c *layout.Config) *bool { return &c.FieldSpan }},
	{"zero-compress", "input uses zero-run compression", func(c *layout.Config) *bool { return &c.ZeroCompress }},
}

func layoutFlags() []cli.Flag {
	flags := profileFlags()
	flags = append(flags, &cli.BoolFlag{
		Name:        "strict-padding",
		Usage:       "reject non-zero padding bytes",
		Destination: &strictPadding,
	})
	for _, o := range intOverrides {
		flags = append(flags, &cli.Int64Flag{Name: o.flag, Usage: o.usage})
	}
	for _, o := range boolOverrides {
		flags = append(flags, &cli.BoolFlag{Name: o.flag, Usage: o.usage})
	}
	return flags
}

// resolveLayout starts from the selected profile (or layout.Default) and
// applies every layout flag the user set explicitly.
func resolveLayout(c *cli.Command) (layout.Config, []layout.Profile, error) {
	var extra []layout.Profile
	if profilesFile != "" {
		p, err := layout.LoadProfiles(profilesFile)
		if err != nil {
			return layout.Config{}, nil, err
		}
		extra = p
	}

	cfg := layout.Default()
	if profileName != "" {
		p, err := layout.Lookup(profileName, extra)
		if err != nil {
			return layout.Config{}, nil, err
		}
		if cfg, err = p.Layout(); err != nil {
			return layout.Config{}, nil, err
		}
	}

	for _, o := range intOverrides {
		if c.IsSet(o.flag) {
			*o.field(&cfg) = int(c.Int64(o.flag))
		}
	}
	for _, o := range boolOverrides {
		if c.IsSet(o.flag) {
			*o.field(&cfg) = c.Bool(o.flag)
		}
	}
	if err := cfg.Validate(); err != nil {
		return layout.Config{}, nil, err
	}
	return cfg, extra, nil
}

func sessionOptions(log structio.Logger) []structio.Option {
	opts := []structio.Option{structio.WithLogger(log)}
	if strictPadding {
		opts = append(opts, structio.WithStrictPadding())
	}
	return opts
}

func exitf(code int, format string, args ...any) error {
	return cli.Exit(fmt.Sprintf("error: "+format, args...), code)
}
