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

package scan

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the counters of a Scanner.
type Metrics struct {
	Files    *prometheus.CounterVec
	Runs     *prometheus.CounterVec
	Events   *prometheus.CounterVec
	Warnings *prometheus.CounterVec
	Errors   *prometheus.CounterVec
	Duration *prometheus.HistogramVec
}

// NewMetrics creates the scanner metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Files: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "androidsqlite_files_total",
				Help: "Files visited by the scanner by result (sqlite, skipped, failed)",
			},
			[]string{"result"},
		),
		Runs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "androidsqlite_parser_runs_total",
				Help: "Parser runs by parser and result (parsed, mismatch, failed)",
			},
			[]string{"parser", "result"},
		),
		Events: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "androidsqlite_events_total",
				Help: "Events emitted by parser",
			},
			[]string{"parser"},
		),
		Warnings: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "androidsqlite_warnings_total",
				Help: "Rows skipped because of inconsistent data by parser",
			},
			[]string{"parser"},
		),
		Errors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "androidsqlite_extraction_errors_total",
				Help: "Failed queries by parser",
			},
			[]string{"parser"},
		),
		Duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "androidsqlite_parse_duration_seconds",
				Help:    "Duration of a parser run over one database",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
			},
			[]string{"parser"},
		),
	}
}
