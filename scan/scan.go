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

// Package scan walks a file system and runs every matching parser over the
// SQLite databases it finds.
package scan

import (
	"bytes"
	"context"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/forensicanalysis/androidsqlite"
)

// Signature is the header of every SQLite 3 database file.
var Signature = []byte("SQLite format 3\x00") // nolint:gochecknoglobals

// Result summarizes a scan.
type Result struct {
	Files     int
	Databases int
	Reports   []*androidsqlite.Report
}

// Events returns the number of events emitted over all reports.
func (r *Result) Events() int {
	events := 0
	for _, report := range r.Reports {
		events += report.Events
	}
	return events
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithLogger sets the logger of the scanner and its parser.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Scanner) { s.logger = logger }
}

// WithMetrics sets the metrics the scanner updates.
func WithMetrics(metrics *Metrics) Option {
	return func(s *Scanner) { s.metrics = metrics }
}

// WithTempDir sets the directory databases from non-OS file systems are
// copied to before they are opened.
func WithTempDir(dir string) Option {
	return func(s *Scanner) { s.tempDir = dir }
}

// Scanner dispatches files to parsers. Every parser whose structure matches a
// database runs; a format mismatch only means the next parser is tried.
type Scanner struct {
	fs      afero.Fs
	plugins []androidsqlite.Plugin
	sink    androidsqlite.Sink
	logger  zerolog.Logger
	metrics *Metrics
	tempDir string
}

// New creates a Scanner reading from fs and emitting to sink.
func New(fs afero.Fs, plugins []androidsqlite.Plugin, sink androidsqlite.Sink, opts ...Option) *Scanner {
	s := &Scanner{fs: fs, plugins: plugins, sink: sink, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = NewMetrics(prometheus.NewRegistry())
	}
	return s
}

// Scan walks root and parses every SQLite database below it. The context is
// checked between files.
func (s *Scanner) Scan(ctx context.Context, root string) (*Result, error) {
	result := &Result{}
	err := afero.Walk(s.fs, root, func(name string, info os.FileInfo, err error) error {
		if err != nil {
			s.logger.Warn().Err(err).Str("path", name).Msg("could not walk")
			return nil
		}
		if info.IsDir() || !info.Mode().IsRegular() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		result.Files++
		reports, err := s.ScanFile(name)
		if err != nil {
			return err
		}
		if reports != nil {
			result.Databases++
			result.Reports = append(result.Reports, reports...)
		}
		return nil
	})
	return result, err
}

// ScanFile parses a single file. It returns nil reports if the file is not an
// SQLite database. The returned error is only set if a sink failed or the
// file could not be read.
func (s *Scanner) ScanFile(name string) ([]*androidsqlite.Report, error) {
	logger := s.logger.With().Str("path", name).Logger()

	ok, err := isSQLite(s.fs, name)
	if err != nil {
		s.metrics.Files.WithLabelValues("failed").Inc()
		logger.Warn().Err(err).Msg("could not read file")
		return nil, nil
	}
	if !ok {
		s.metrics.Files.WithLabelValues("skipped").Inc()
		return nil, nil
	}

	path, cleanup, err := s.materialize(name)
	if err != nil {
		s.metrics.Files.WithLabelValues("failed").Inc()
		return nil, errors.Wrapf(err, "could not copy %s", name)
	}
	defer cleanup()
	s.metrics.Files.WithLabelValues("sqlite").Inc()

	reports := []*androidsqlite.Report{}
	for _, plugin := range s.plugins {
		report, err := s.run(path, name, plugin, logger)
		if err != nil {
			return reports, err
		}
		if report != nil {
			reports = append(reports, report)
		}
	}
	return reports, nil
}

func (s *Scanner) run(path, name string, plugin androidsqlite.Plugin, logger zerolog.Logger) (*androidsqlite.Report, error) {
	parserName := plugin.Metadata().Name
	logger = logger.With().Str("parser", parserName).Logger()

	source, err := androidsqlite.Open(path)
	if err != nil {
		s.metrics.Runs.WithLabelValues(parserName, "mismatch").Inc()
		logger.Debug().Err(err).Msg("not a readable database")
		return nil, nil
	}
	defer source.Close() // nolint:errcheck

	start := time.Now()
	report, err := androidsqlite.NewParser(s.sink, logger).Parse(source, plugin)
	if androidsqlite.IsFormatMismatch(err) {
		s.metrics.Runs.WithLabelValues(parserName, "mismatch").Inc()
		logger.Debug().Err(err).Msg("parser does not match")
		return nil, nil
	}
	s.metrics.Duration.WithLabelValues(parserName).Observe(time.Since(start).Seconds())

	if report != nil {
		report.Path = name
		s.metrics.Events.WithLabelValues(parserName).Add(float64(report.Events))
		s.metrics.Warnings.WithLabelValues(parserName).Add(float64(len(report.Warnings)))
		s.metrics.Errors.WithLabelValues(parserName).Add(float64(len(report.Errors)))
	}
	if err != nil {
		s.metrics.Runs.WithLabelValues(parserName, "failed").Inc()
		return report, errors.Wrapf(err, "%s failed on %s", parserName, name)
	}

	s.metrics.Runs.WithLabelValues(parserName, "parsed").Inc()
	logger.Info().Int("rows", report.Rows).Int("events", report.Events).Msg("parsed")
	return report, nil
}

// materialize returns a path on disk for name. Files of other file systems
// are copied to a temporary file, removed by cleanup.
func (s *Scanner) materialize(name string) (path string, cleanup func(), err error) {
	if _, ok := s.fs.(*afero.OsFs); ok {
		return name, func() {}, nil
	}

	osFs := afero.NewOsFs()
	tmp, err := afero.TempFile(osFs, s.tempDir, "androidsqlite-*.db")
	if err != nil {
		return "", nil, err
	}
	cleanup = func() {
		if err := osFs.Remove(tmp.Name()); err != nil {
			s.logger.Warn().Err(err).Str("path", tmp.Name()).Msg("could not remove temporary copy")
		}
	}

	in, err := s.fs.Open(name)
	if err != nil {
		tmp.Close() // nolint:errcheck
		cleanup()
		return "", nil, err
	}
	defer in.Close()

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close() // nolint:errcheck
		cleanup()
		return "", nil, err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", nil, err
	}
	return tmp.Name(), cleanup, nil
}

func isSQLite(fs afero.Fs, name string) (bool, error) {
	f, err := fs.Open(name)
	if err != nil {
		return false, err
	}
	defer f.Close()

	header := make([]byte, len(Signature))
	if _, err := io.ReadFull(f, header); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return false, nil
		}
		return false, err
	}
	return bytes.Equal(header, Signature), nil
}
