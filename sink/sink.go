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

// Package sink provides event sinks that write elements as JSON lines or
// publish them to NATS.
package sink

import (
	"io"
	"strings"
	"sync"

	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"

	"github.com/forensicanalysis/androidsqlite"
)

// Sealer replaces sensitive fields of an element before it is written.
type Sealer interface {
	SealElement(element androidsqlite.Element) (androidsqlite.Element, error)
}

type options struct {
	sealer Sealer
}

// Option configures a sink.
type Option func(*options)

// WithSealer seals element fields before they are written.
func WithSealer(sealer Sealer) Option {
	return func(o *options) { o.sealer = sealer }
}

func newOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) element(timestamp androidsqlite.Timestamp, role androidsqlite.TimestampRole, record androidsqlite.Record) ([]byte, error) {
	element := androidsqlite.NewElement(timestamp, role, record)
	if o.sealer != nil {
		var err error
		element, err = o.sealer.SealElement(element)
		if err != nil {
			return nil, err
		}
	}
	return element.JSON()
}

// JSONLines writes one JSON element per line.
type JSONLines struct {
	options
	mu sync.Mutex
	w  io.Writer
}

// NewJSONLines creates a sink writing to w.
func NewJSONLines(w io.Writer, opts ...Option) *JSONLines {
	return &JSONLines{options: newOptions(opts), w: w}
}

// Emit implements androidsqlite.Sink.
func (s *JSONLines) Emit(timestamp androidsqlite.Timestamp, role androidsqlite.TimestampRole, record androidsqlite.Record) error {
	b, err := s.element(timestamp, role, record)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.w.Write(append(b, '\n'))
	return err
}

// Publisher publishes a message to a subject. *nats.Conn implements it.
type Publisher interface {
	Publish(subj string, data []byte) error
}

// NATS publishes every element to "<prefix>.<data type>", with the colons
// of the data type replaced by dots.
type NATS struct {
	options
	publisher Publisher
	prefix    string
	conn      *nats.Conn
}

// NewNATS connects to the NATS server at url.
func NewNATS(url, prefix string, opts ...Option) (*NATS, error) {
	nc, err := nats.Connect(url, nats.Name("androidsqlite"))
	if err != nil {
		return nil, errors.Wrapf(err, "could not connect to %s", url)
	}
	s := NewPublisher(nc, prefix, opts...)
	s.conn = nc
	return s, nil
}

// NewPublisher creates a sink publishing through p.
func NewPublisher(p Publisher, prefix string, opts ...Option) *NATS {
	return &NATS{options: newOptions(opts), publisher: p, prefix: prefix}
}

// Subject returns the subject for dataType.
func (s *NATS) Subject(dataType string) string {
	subject := strings.ReplaceAll(dataType, ":", ".")
	if s.prefix == "" {
		return subject
	}
	return s.prefix + "." + subject
}

// Emit implements androidsqlite.Sink.
func (s *NATS) Emit(timestamp androidsqlite.Timestamp, role androidsqlite.TimestampRole, record androidsqlite.Record) error {
	b, err := s.element(timestamp, role, record)
	if err != nil {
		return err
	}
	return s.publisher.Publish(s.Subject(record.DataType()), b)
}

// Close flushes pending messages and closes the connection opened by
// NewNATS.
func (s *NATS) Close() error {
	if s.conn == nil {
		return nil
	}
	if err := s.conn.Drain(); err != nil {
		s.conn.Close()
		return err
	}
	return nil
}

// Multi emits every event to all of its sinks. It stops at the first error.
type Multi []androidsqlite.Sink

// Emit implements androidsqlite.Sink.
func (m Multi) Emit(timestamp androidsqlite.Timestamp, role androidsqlite.TimestampRole, record androidsqlite.Record) error {
	for _, s := range m {
		if err := s.Emit(timestamp, role, record); err != nil {
			return err
		}
	}
	return nil
}
