package main

import (
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const envConfigPath = "GRAFT_CONFIG"

// Config represents the graft configuration file (~/.config/graft/config.yaml).
type Config struct {
	// Layout
	DefaultProfile string `yaml:"default_profile"`
	ProfilesFile   string `yaml:"profiles_file"`
	StrictPadding  *bool  `yaml:"strict_padding"`
	Compression    string `yaml:"compression"`

	// Output
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Server
	ServerAddress string `yaml:"server_address"`
	MaxBody       *int64 `yaml:"max_body"`
}

// appConfig is loaded once by the root command's Before hook.
var appConfig Config

func configPath() string {
	if p := os.Getenv(envConfigPath); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "graft", "config.yaml")
}

// applyLoggingConfig applies config file defaults to the logging flags.
func applyLoggingConfig(c *cli.Command, cfg Config) {
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
}

// applyLayoutConfig applies config file defaults shared by decode and size.
func applyLayoutConfig(c *cli.Command, cfg Config) {
	if cfg.DefaultProfile != "" && !c.IsSet("profile") {
		profileName = cfg.DefaultProfile
	}
	if cfg.ProfilesFile != "" && !c.IsSet("profiles-file") {
		profilesFile = cfg.ProfilesFile
	}
	if cfg.StrictPadding != nil && !c.IsSet("strict-padding") {
		strictPadding = *cfg.StrictPadding
	}
	if cfg.Compression != "" && !c.IsSet("compression") {
		compression = cfg.Compression
	}
}

// applyServeConfig applies config file defaults to serve command variables.
func applyServeConfig(c *cli.Command, cfg Config, addr *string, maxBody *int64) {
	applyLayoutConfig(c, cfg)
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
	if cfg.MaxBody != nil && !c.IsSet("max-body") {
		*maxBody = *cfg.MaxBody
	}
}

// LoadConfig reads the config file. Returns a zero Config if the file doesn't exist.
func LoadConfig() Config {
	return loadConfigFrom(configPath())
}

func loadConfigFrom(path string) Config {
	if path == "" {
		return Config{}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}
	}
	return cfg
}
