// Copyright (c) 2020 Siemens AG
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies of
// the Software, and to permit persons to whom the Software is furnished to do so,
// subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY, FITNESS
// FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR
// COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
// IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
// CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
//
// Author(s): Jonas Plum

// Package config loads the settings of the androidsqlite command from an
// optional YAML file and ANDROIDSQLITE_* environment variables.
package config

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of all environment variables.
const EnvPrefix = "ANDROIDSQLITE_"

// Config holds the command settings. Environment variables override values
// from the file.
type Config struct {
	// Parsers restricts the scan to the named parsers. Empty means all.
	Parsers []string `yaml:"parsers" env:"PARSERS,overwrite"`
	// Store is the path of the event store to write.
	Store string `yaml:"store" env:"STORE,overwrite"`
	// Output is a JSON lines file, "-" for stdout.
	Output string `yaml:"output" env:"OUTPUT,overwrite"`

	NATSURL    string `yaml:"nats_url" env:"NATS_URL,overwrite"`
	NATSPrefix string `yaml:"nats_prefix" env:"NATS_PREFIX,overwrite"`

	// Recipients are age recipients auth tokens are sealed to.
	Recipients []string `yaml:"recipients" env:"RECIPIENTS,overwrite"`

	MetricsFile string `yaml:"metrics_file" env:"METRICS_FILE,overwrite"`
	LogLevel    string `yaml:"log_level" env:"LOG_LEVEL,overwrite"`
	LogFormat   string `yaml:"log_format" env:"LOG_FORMAT,overwrite"`
}

// Default returns the settings used when nothing is configured.
func Default() *Config {
	return &Config{
		NATSPrefix: "android",
		LogLevel:   "info",
		LogFormat:  "console",
	}
}

// Load reads the YAML file at path, if path is not empty, and applies the
// environment from lookuper. A nil lookuper reads the process environment.
func Load(ctx context.Context, path string, lookuper envconfig.Lookuper) (*Config, error) {
	cfg := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "could not read config")
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, errors.Wrapf(err, "could not parse %s", path)
		}
	}

	if lookuper == nil {
		lookuper = envconfig.OsLookuper()
	}
	err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   cfg,
		Lookuper: envconfig.PrefixLookuper(EnvPrefix, lookuper),
	})
	if err != nil {
		return nil, errors.Wrap(err, "could not process environment")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the log settings.
func (c *Config) Validate() error {
	if _, err := c.Level(); err != nil {
		return err
	}
	switch c.LogFormat {
	case "console", "json":
		return nil
	default:
		return errors.Errorf("unknown log format %q", c.LogFormat)
	}
}

// Level returns the parsed log level.
func (c *Config) Level() (zerolog.Level, error) {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.NoLevel, errors.Wrapf(err, "invalid log level %q", c.LogLevel)
	}
	return level, nil
}
