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

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/forensicanalysis/androidsqlite"
	"github.com/forensicanalysis/androidsqlite/config"
	"github.com/forensicanalysis/androidsqlite/plugins"
	"github.com/forensicanalysis/androidsqlite/scan"
	"github.com/forensicanalysis/androidsqlite/seal"
	"github.com/forensicanalysis/androidsqlite/sink"
	"github.com/forensicanalysis/androidsqlite/sqlar"
	"github.com/forensicanalysis/androidsqlite/store"
)

// Scan is the androidsqlite scan commandline subcommand
func Scan() *cobra.Command {
	var configPath string
	overrides := &config.Config{}

	scanCommand := &cobra.Command{
		Use:   "scan <path>...",
		Short: "Parse all Android SQLite databases in files, directories or sqlar archives",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Context(), configPath, nil)
			if err != nil {
				return err
			}
			applyFlags(cmd, cfg, overrides)
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger, err := newLogger(cmd.ErrOrStderr(), cfg)
			if err != nil {
				return err
			}
			return runScan(cmd, cfg, logger, args)
		},
	}

	flags := scanCommand.Flags()
	flags.StringVar(&configPath, "config", "", "YAML configuration file")
	flags.StringSliceVar(&overrides.Parsers, "parser", nil, "parsers to run (default all)")
	flags.StringVar(&overrides.Store, "store", "", "event store to write")
	flags.StringVar(&overrides.Output, "output", "", "JSON lines file to write, - for stdout")
	flags.StringVar(&overrides.NATSURL, "nats-url", "", "NATS server to publish events to")
	flags.StringVar(&overrides.NATSPrefix, "nats-prefix", "", "subject prefix for published events")
	flags.StringSliceVar(&overrides.Recipients, "recipient", nil, "age recipient to seal auth tokens to")
	flags.StringVar(&overrides.MetricsFile, "metrics-file", "", "write scan metrics in the Prometheus text format")
	flags.StringVar(&overrides.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&overrides.LogFormat, "log-format", "", "log format (console, json)")
	return scanCommand
}

func applyFlags(cmd *cobra.Command, cfg, overrides *config.Config) {
	flags := cmd.Flags()
	set := func(name string, dst *string, value string) {
		if flags.Changed(name) {
			*dst = value
		}
	}
	if flags.Changed("parser") {
		cfg.Parsers = overrides.Parsers
	}
	if flags.Changed("recipient") {
		cfg.Recipients = overrides.Recipients
	}
	set("store", &cfg.Store, overrides.Store)
	set("output", &cfg.Output, overrides.Output)
	set("nats-url", &cfg.NATSURL, overrides.NATSURL)
	set("nats-prefix", &cfg.NATSPrefix, overrides.NATSPrefix)
	set("metrics-file", &cfg.MetricsFile, overrides.MetricsFile)
	set("log-level", &cfg.LogLevel, overrides.LogLevel)
	set("log-format", &cfg.LogFormat, overrides.LogFormat)
}

func newLogger(w io.Writer, cfg *config.Config) (zerolog.Logger, error) {
	level, err := cfg.Level()
	if err != nil {
		return zerolog.Nop(), err
	}
	if cfg.LogFormat == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger(), nil
}

func runScan(cmd *cobra.Command, cfg *config.Config, logger zerolog.Logger, args []string) (err error) {
	registry := androidsqlite.NewRegistry()
	if err := plugins.Register(registry); err != nil {
		return err
	}
	selected, err := registry.Select(cfg.Parsers)
	if err != nil {
		return err
	}

	sinks, closers, err := openSinks(cmd, cfg, logger)
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if cerr := closers[i].Close(); cerr != nil && err == nil {
				err = cerr
			}
		}
	}()
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	metrics := scan.NewMetrics(reg)

	for _, arg := range args {
		result, err := scanPath(cmd, arg, selected, sinks, metrics, logger)
		if err != nil {
			return err
		}
		logger.Info().
			Str("path", arg).
			Int("files", result.Files).
			Int("databases", result.Databases).
			Int("events", result.Events()).
			Msg("scan finished")
	}

	if cfg.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(cfg.MetricsFile, reg); err != nil {
			return errors.Wrap(err, "could not write metrics")
		}
	}
	return nil
}

func scanPath(cmd *cobra.Command, path string, selected []androidsqlite.Plugin, sinks sink.Multi, metrics *scan.Metrics, logger zerolog.Logger) (*scan.Result, error) {
	var fs afero.Fs = afero.NewOsFs()
	root := path

	if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
		if archive, err := sqlar.Open(path); err == nil {
			defer archive.Close()
			logger.Info().Str("path", path).Msg("scanning sqlar archive")
			fs, root = archive, "/"
		}
	}

	scanner := scan.New(fs, selected, sinks, scan.WithLogger(logger), scan.WithMetrics(metrics))
	return scanner.Scan(cmd.Context(), root)
}

func openSinks(cmd *cobra.Command, cfg *config.Config, logger zerolog.Logger) (sink.Multi, []io.Closer, error) {
	var sinks sink.Multi
	var closers []io.Closer

	var storeOpts []store.Option
	var sinkOpts []sink.Option
	if len(cfg.Recipients) > 0 {
		sealer, err := seal.New(cfg.Recipients)
		if err != nil {
			return nil, nil, err
		}
		storeOpts = append(storeOpts, store.WithSealer(sealer))
		sinkOpts = append(sinkOpts, sink.WithSealer(sealer))
	}

	if cfg.Store != "" {
		s, err := openStore(cfg.Store, append(storeOpts, store.WithLogger(logger))...)
		if err != nil {
			return nil, closers, err
		}
		sinks = append(sinks, s)
		closers = append(closers, s)
	}

	if cfg.NATSURL != "" {
		n, err := sink.NewNATS(cfg.NATSURL, cfg.NATSPrefix, sinkOpts...)
		if err != nil {
			return nil, closers, err
		}
		sinks = append(sinks, n)
		closers = append(closers, n)
	}

	switch {
	case cfg.Output == "-" || (cfg.Output == "" && len(sinks) == 0):
		sinks = append(sinks, sink.NewJSONLines(cmd.OutOrStdout(), sinkOpts...))
	case cfg.Output != "":
		f, err := os.Create(cfg.Output)
		if err != nil {
			return nil, closers, err
		}
		sinks = append(sinks, sink.NewJSONLines(f, sinkOpts...))
		closers = append(closers, f)
	}
	return sinks, closers, nil
}

func openStore(path string, opts ...store.Option) (*store.Store, error) {
	if _, err := os.Stat(path); err == nil {
		return store.Open(path, opts...)
	}
	return store.New(path, opts...)
}

// Parsers is the androidsqlite parsers commandline subcommand
func Parsers() *cobra.Command {
	var asJSON bool
	parsersCommand := &cobra.Command{
		Use:   "parsers",
		Short: "List the available parsers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := androidsqlite.NewRegistry()
			if err := plugins.Register(registry); err != nil {
				return err
			}

			if asJSON {
				b, err := json.MarshalIndent(registry.Metadata(), "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\n", b)
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0) //nolint:gomnd
			for _, meta := range registry.Metadata() {
				fmt.Fprintf(w, "%s\t%s\t%s\n", meta.Name, meta.Description, strings.Join(meta.Structure.Tables(), ", "))
			}
			return w.Flush()
		},
	}
	parsersCommand.Flags().BoolVar(&asJSON, "json", false, "print the parser metadata as JSON")
	return parsersCommand
}

// Validate is the androidsqlite validate commandline subcommand
func Validate() *cobra.Command {
	var noFail bool
	validateCommand := &cobra.Command{
		Use:   "validate <store>",
		Short: "Validate all events of a store",
		Args:  requireOneStore,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := store.Open(args[0])
			if err != nil {
				return err
			}
			defer s.Close()

			flaws, err := s.Validate(cmd.Context())
			if err != nil {
				return err
			}
			if len(flaws) == 0 {
				return nil
			}
			b, err := json.Marshal(flaws)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", b)
			if noFail {
				return nil
			}
			return errors.Errorf("%d flaws found", len(flaws))
		},
	}
	validateCommand.Flags().BoolVar(&noFail, "no-fail", false, "return exit code 0")
	return validateCommand
}

func requireOneStore(_ *cobra.Command, args []string) error {
	if len(args) != 1 {
		return errors.New("requires exactly one store")
	}
	for _, arg := range args {
		if _, err := os.Stat(arg); os.IsNotExist(err) {
			return errors.Wrap(os.ErrNotExist, arg)
		}
	}
	return nil
}
