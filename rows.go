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
	"sort"

	"crawshaw.io/sqlite"
)

// Query is a fixed SQL query of a parser together with the columns it
// selects and the normalizer for its rows.
type Query struct {
	Name      string
	SQL       string
	Columns   []string
	DataType  string
	Normalize func(row RawRow) (Record, error)
}

// RawRow maps column names to raw values. It is immutable.
type RawRow struct {
	values map[string]Value
}

// NewRawRow creates a row from values.
func NewRawRow(values map[string]Value) RawRow {
	row := RawRow{values: make(map[string]Value, len(values))}
	for column, value := range values {
		row.values[column] = value
	}
	return row
}

// Lookup returns the value of column, or the null Value if the column was
// not selected.
func (r RawRow) Lookup(column string) Value {
	return r.values[column]
}

// Has reports whether the row contains column.
func (r RawRow) Has(column string) bool {
	_, ok := r.values[column]
	return ok
}

// Columns returns the sorted column names of the row.
func (r RawRow) Columns() []string {
	columns := make([]string, 0, len(r.values))
	for column := range r.values {
		columns = append(columns, column)
	}
	sort.Strings(columns)
	return columns
}

// Rows is the lazy result of a query. It cannot be restarted.
type Rows struct {
	source   *Source
	query    Query
	stmt     *sqlite.Stmt
	declared map[string]bool
	row      RawRow
	err      error
	closed   bool
}

// Next advances to the next row. It returns false at the end of the result or
// on error; the rows are closed in both cases.
func (r *Rows) Next() bool {
	if r.closed {
		return false
	}
	hasRow, err := r.stmt.Step()
	if err != nil {
		r.err = &ExtractionError{Query: r.query.Name, Err: err}
		r.Close() // nolint:errcheck
		return false
	}
	if !hasRow {
		r.Close() // nolint:errcheck
		return false
	}
	r.row = r.read()
	return true
}

func (r *Rows) read() RawRow {
	n := r.stmt.ColumnCount()
	values := make(map[string]Value, n)
	for i := 0; i < n; i++ {
		name := r.stmt.ColumnName(i)
		if r.declared != nil && !r.declared[name] {
			continue
		}
		switch r.stmt.ColumnType(i) {
		case sqlite.SQLITE_INTEGER:
			values[name] = Integer(r.stmt.ColumnInt64(i))
		case sqlite.SQLITE_FLOAT:
			values[name] = Float(r.stmt.ColumnFloat(i))
		case sqlite.SQLITE_TEXT:
			values[name] = Text(r.stmt.ColumnText(i))
		case sqlite.SQLITE_BLOB:
			buf := make([]byte, r.stmt.ColumnLen(i))
			r.stmt.ColumnBytes(i, buf)
			values[name] = Value{kind: KindBlob, blob: buf}
		default:
			values[name] = Null()
		}
	}
	return RawRow{values: values}
}

// Row returns the current row.
func (r *Rows) Row() RawRow { return r.row }

// Err returns the *ExtractionError that ended the iteration, if any.
func (r *Rows) Err() error { return r.err }

// Close finalizes the statement. It is safe to call more than once.
func (r *Rows) Close() error {
	if r.closed {
		return r.err
	}
	r.closed = true
	if r.source.active == r {
		r.source.active = nil
	}
	if err := r.stmt.Finalize(); err != nil && r.err == nil {
		r.err = &ExtractionError{Query: r.query.Name, Err: err}
	}
	return r.err
}
