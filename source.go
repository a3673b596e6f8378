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
	"net/url"
	"path/filepath"
	"sort"
	"strings"

	"crawshaw.io/sqlite"
	"github.com/pkg/errors"
)

// State is the lifecycle state of a Source.
type State int

// Source states.
const (
	StateUnopened State = iota
	StateValidated
	StateExtracting
	StateDone
	StateFailed
)

func (s State) String() string {
	return [...]string{"unopened", "validated", "extracting", "done", "failed"}[s]
}

// Source is a single opened SQLite database. It must be used by one
// goroutine: open, validate, query, close.
type Source struct {
	path    string
	conn    *sqlite.Conn
	catalog *catalog
	state   State
	active  *Rows
	failure error
}

// Open opens the SQLite database at path read-only and reads its catalog. A
// file that is not an SQLite database yields a *FormatMismatch.
//
// The file is opened as immutable: no journal, WAL or shared memory file is
// read or created next to it.
func Open(path string) (*Source, error) {
	uri := &url.URL{Scheme: "file", Path: filepath.ToSlash(path), RawQuery: "mode=ro&immutable=1"}
	conn, err := sqlite.OpenConn(uri.String(), sqlite.SQLITE_OPEN_READONLY|sqlite.SQLITE_OPEN_URI|sqlite.SQLITE_OPEN_NOMUTEX)
	if err != nil {
		return nil, &FormatMismatch{Reason: fmt.Sprintf("unable to open SQLite database: %v", err)}
	}

	source := &Source{path: path, conn: conn, catalog: newCatalog()}
	if err := source.readCatalog(); err != nil {
		conn.Close() // nolint:errcheck
		return nil, &FormatMismatch{Reason: fmt.Sprintf("unable to read SQLite catalog: %v", err)}
	}
	return source, nil
}

// Path returns the file the source was opened from.
func (s *Source) Path() string { return s.path }

// State returns the lifecycle state.
func (s *Source) State() State { return s.state }

// Tables returns the table names of the database.
func (s *Source) Tables() []string { return s.catalog.tables() }

// Columns returns the sorted column names of table.
func (s *Source) Columns(table string) []string {
	var columns []string
	for column := range s.catalog.columns[table] {
		columns = append(columns, column)
	}
	sort.Strings(columns)
	return columns
}

func (s *Source) readCatalog() error {
	stmt, _, err := s.conn.PrepareTransient("SELECT name, sql FROM sqlite_master WHERE type = 'table'")
	if err != nil {
		return err
	}

	for {
		if hasRow, err := stmt.Step(); err != nil {
			stmt.Finalize() // nolint:errcheck
			return err
		} else if !hasRow {
			break
		}

		name := stmt.GetText("name")
		s.catalog.addTable(name, stmt.GetText("sql"))

		if err := s.readColumns(name); err != nil {
			stmt.Finalize() // nolint:errcheck
			return err
		}
	}

	return stmt.Finalize()
}

func (s *Source) readColumns(table string) error {
	query := fmt.Sprintf("PRAGMA table_info(\"%s\")", strings.ReplaceAll(table, `"`, `""`))
	stmt, _, err := s.conn.PrepareTransient(query)
	if err != nil {
		return err
	}

	for {
		if hasRow, err := stmt.Step(); err != nil {
			stmt.Finalize() // nolint:errcheck
			return err
		} else if !hasRow {
			break
		}
		s.catalog.addColumn(table, stmt.GetText("name"))
	}
	return stmt.Finalize()
}

// Validate checks that every table and column of required exists. It returns
// a *FormatMismatch for the first one missing and moves the source to the
// failed state. Empty tables are valid.
func (s *Source) Validate(required Structure) error {
	if err := s.usable(); err != nil {
		return err
	}
	if mismatch := s.catalog.check(required); mismatch != nil {
		s.Fail(mismatch)
		return mismatch
	}
	if s.state == StateUnopened {
		s.state = StateValidated
	}
	return nil
}

// CheckSchemas compares the create statements of the database with the
// expected ones. It returns the names of the tables that differ.
func (s *Source) CheckSchemas(expected map[string]string) []string {
	var differ []string
	for table, sql := range expected {
		if normalizeSchema(s.catalog.sql[table]) != normalizeSchema(sql) {
			differ = append(differ, table)
		}
	}
	sort.Strings(differ)
	return differ
}

// Fail moves the source to the failed state. No further queries are accepted.
func (s *Source) Fail(err error) {
	if s.state == StateFailed {
		return
	}
	s.state = StateFailed
	s.failure = err
}

// Err returns the error that failed the source.
func (s *Source) Err() error { return s.failure }

func (s *Source) usable() error {
	switch s.state {
	case StateFailed:
		return errors.Wrap(ErrSourceFailed, fmt.Sprint(s.failure))
	case StateDone:
		return errors.New("source is closed")
	}
	return nil
}

// Query runs q and returns its rows. The source must be validated and no
// other rows may be open. Failures are returned as *ExtractionError.
func (s *Source) Query(q Query) (*Rows, error) {
	if err := s.usable(); err != nil {
		return nil, err
	}
	if s.state == StateUnopened {
		return nil, errors.New("source is not validated")
	}
	if s.active != nil {
		return nil, ErrRowsOpen
	}
	s.state = StateExtracting

	stmt, _, err := s.conn.PrepareTransient(q.SQL)
	if err != nil {
		return nil, &ExtractionError{Query: q.Name, Err: err}
	}

	rows := &Rows{source: s, query: q, stmt: stmt}
	if len(q.Columns) > 0 {
		rows.declared = map[string]bool{}
		for _, column := range q.Columns {
			rows.declared[column] = true
		}
	}
	s.active = rows
	return rows, nil
}

// Close releases open rows and the connection.
func (s *Source) Close() error {
	if s.active != nil {
		s.active.Close() // nolint:errcheck
	}
	if s.state != StateFailed {
		s.state = StateDone
	}
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}
