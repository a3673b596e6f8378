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

package androidsqlite

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Report summarizes one parser run over one source.
type Report struct {
	Parser   string
	Path     string
	Rows     int
	Events   int
	Warnings []*ConsistencyWarning
	Errors   []*ExtractionError
}

// Parser runs plugins over sources and hands their events to a sink.
type Parser struct {
	sink   Sink
	logger zerolog.Logger
}

// NewParser creates a Parser emitting to sink.
func NewParser(sink Sink, logger zerolog.Logger) *Parser {
	return &Parser{sink: sink, logger: logger}
}

// Parse validates source against the structure of plugin and runs all of its
// queries. A *FormatMismatch is returned if the source is not of the
// plugin's format. Extraction errors and warnings are collected in the
// report; the returned error is only set for unrecoverable failures, in
// which case the source is failed.
func (p *Parser) Parse(source *Source, plugin Plugin) (*Report, error) {
	meta := plugin.Metadata()
	logger := p.logger.With().Str("parser", meta.Name).Str("path", source.Path()).Logger()

	if err := source.Validate(meta.Structure); err != nil {
		return nil, err
	}

	if len(meta.Schemas) > 0 {
		if differ := source.CheckSchemas(meta.Schemas); len(differ) > 0 {
			if meta.RequiresSchemaMatch {
				mismatch := &FormatMismatch{Reason: fmt.Sprintf("schema of %s differs", strings.Join(differ, ", "))}
				source.Fail(mismatch)
				return nil, mismatch
			}
			logger.Debug().Strs("tables", differ).Msg("schema differs from known schema")
		}
	}

	report := &Report{Parser: meta.Name, Path: source.Path()}
	for _, query := range plugin.Queries() {
		if err := p.run(source, query, report, logger); err != nil {
			source.Fail(err)
			return report, err
		}
	}
	return report, nil
}

func (p *Parser) run(source *Source, query Query, report *Report, logger zerolog.Logger) error {
	rows, err := source.Query(query)
	if err != nil {
		var extractionErr *ExtractionError
		if errors.As(err, &extractionErr) {
			report.Errors = append(report.Errors, extractionErr)
			logger.Error().Err(err).Str("query", query.Name).Msg("query failed")
			return nil
		}
		return err
	}
	defer rows.Close() // nolint:errcheck

	for rows.Next() {
		report.Rows++

		record, err := query.Normalize(rows.Row())
		if err != nil {
			warning := &ConsistencyWarning{DataType: query.DataType, Message: err.Error()}
			report.Warnings = append(report.Warnings, warning)
			logger.Warn().Err(warning).Str("query", query.Name).Msg("row skipped")
			continue
		}

		n, err := Emit(p.sink, record)
		report.Events += n
		if err != nil {
			var warning *ConsistencyWarning
			if errors.As(err, &warning) {
				report.Warnings = append(report.Warnings, warning)
				logger.Warn().Err(warning).Str("query", query.Name).Msg("record skipped")
				continue
			}
			return err
		}
	}

	if err := rows.Err(); err != nil {
		var extractionErr *ExtractionError
		if errors.As(err, &extractionErr) {
			report.Errors = append(report.Errors, extractionErr)
		}
		logger.Error().Err(err).Str("query", query.Name).Msg("query aborted")
	}
	return nil
}
