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

	"github.com/pkg/errors"
)

// ErrSourceFailed is returned for any operation on a Source after an
// unrecoverable error.
var ErrSourceFailed = errors.New("source failed")

// ErrRowsOpen is returned when a query is issued while the rows of a previous
// query on the same source are still open.
var ErrRowsOpen = errors.New("rows of a previous query are still open")

// FormatMismatch signals that a database does not have the structure a parser
// requires. The caller should try another parser.
type FormatMismatch struct {
	Table  string
	Column string
	Reason string
}

func (e *FormatMismatch) Error() string {
	switch {
	case e.Reason != "":
		return "format mismatch: " + e.Reason
	case e.Column != "":
		return fmt.Sprintf("format mismatch: table %q has no column %q", e.Table, e.Column)
	default:
		return fmt.Sprintf("format mismatch: missing table %q", e.Table)
	}
}

// ExtractionError is a query or I/O failure against a validated database. It
// aborts the current query only.
type ExtractionError struct {
	Query string
	Err   error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction of %s failed: %v", e.Query, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// ConsistencyWarning reports a row or record that could not be turned into
// events. Extraction continues.
type ConsistencyWarning struct {
	DataType string
	Role     TimestampRole
	Message  string
}

func (w *ConsistencyWarning) Error() string {
	if w.Role != RoleNone {
		return fmt.Sprintf("%s: missing %s timestamp: %s", w.DataType, w.Role, w.Message)
	}
	return fmt.Sprintf("%s: %s", w.DataType, w.Message)
}

// IsFormatMismatch reports whether err is or wraps a FormatMismatch.
func IsFormatMismatch(err error) bool {
	var fm *FormatMismatch
	return errors.As(err, &fm)
}
