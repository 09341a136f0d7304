// Package config loads the server configuration: an optional YAML file,
// command line overrides and per-session initializationOptions sent by the
// client.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/akhenakh/jsondate-lsp/jsondate"
)

// LogFormat enumerates supported log output formats.
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// Config is the file format.
type Config struct {
	// Layout names the display layout: iso, dotnet or rfc1123.
	Layout      string        `yaml:"layout"`
	Diagnostics *bool         `yaml:"diagnostics,omitempty"`
	CodeActions *bool         `yaml:"code_actions,omitempty"`
	Logging     LoggingConfig `yaml:"logging"`
	Metrics     MetricsConfig `yaml:"metrics"`
}

// LoggingConfig controls the stderr logger.
type LoggingConfig struct {
	Level  string    `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// MetricsConfig controls the Prometheus endpoint. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Layout:  string(jsondate.LayoutISO),
		Logging: LoggingConfig{Level: "info", Format: LogFormatText},
	}
}

// Load reads a YAML configuration file. Environment variables in the file
// are expanded. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err := Parse(bytes.NewReader([]byte(os.ExpandEnv(string(data)))))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a configuration document on top of Default.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) normalize() error {
	layout, err := jsondate.ParseLayout(c.Layout)
	if err != nil {
		return err
	}
	c.Layout = string(layout)

	if _, err := c.Logging.SlogLevel(); err != nil {
		return err
	}
	switch LogFormat(strings.ToLower(string(c.Logging.Format))) {
	case "", LogFormatText:
		c.Logging.Format = LogFormatText
	case LogFormatJSON:
		c.Logging.Format = LogFormatJSON
	default:
		return fmt.Errorf("unknown log format %q (want text or json)", c.Logging.Format)
	}
	return nil
}

// SlogLevel parses Level. The empty level is info.
func (l LoggingConfig) SlogLevel() (slog.Level, error) {
	if l.Level == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", l.Level, err)
	}
	return level, nil
}

// Session returns the per-connection settings derived from the file.
func (c *Config) Session() Session {
	s := Session{
		Layout:      jsondate.Layout(c.Layout),
		Diagnostics: true,
		CodeActions: true,
	}
	if c.Diagnostics != nil {
		s.Diagnostics = *c.Diagnostics
	}
	if c.CodeActions != nil {
		s.CodeActions = *c.CodeActions
	}
	if s.Layout == "" {
		s.Layout = jsondate.LayoutISO
	}
	return s
}

// Session holds the settings that a client may override on initialize.
type Session struct {
	Layout      jsondate.Layout
	Diagnostics bool
	CodeActions bool
}

// InitializationOptions is the shape of initializationOptions accepted from
// the client. Omitted fields keep the server's settings.
type InitializationOptions struct {
	Layout      string `json:"layout,omitempty"`
	Diagnostics *bool  `json:"diagnostics,omitempty"`
	CodeActions *bool  `json:"codeActions,omitempty"`
}

// Apply returns s overridden by the client's initializationOptions. Empty
// or null options leave s unchanged.
func (s Session) Apply(raw json.RawMessage) (Session, error) {
	if len(bytes.TrimSpace(raw)) == 0 || string(bytes.TrimSpace(raw)) == "null" {
		return s, nil
	}
	var opts InitializationOptions
	if err := json.Unmarshal(raw, &opts); err != nil {
		return s, fmt.Errorf("invalid initializationOptions: %w", err)
	}
	if opts.Layout != "" {
		layout, err := jsondate.ParseLayout(opts.Layout)
		if err != nil {
			return s, err
		}
		s.Layout = layout
	}
	if opts.Diagnostics != nil {
		s.Diagnostics = *opts.Diagnostics
	}
	if opts.CodeActions != nil {
		s.CodeActions = *opts.CodeActions
	}
	return s, nil
}
