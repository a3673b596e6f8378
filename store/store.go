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

// Package store persists emitted events in a SQLite database. Every event is
// kept as one JSON element; identical events are stored once. On close, a
// view per data type exposes the element fields as columns.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"github.com/zeebo/xxh3"
	_ "modernc.org/sqlite" // sqlite driver

	"github.com/forensicanalysis/androidsqlite"
)

const storeVersion = 1
const storeApplicationID = 1634952049
const discriminator = "data_type"
const timeFormat = "2006-01-02T15:04:05.000Z"

// ErrStoreExists is returned by New if the file already exists.
var ErrStoreExists = errors.New("store already exists")

// ErrStoreNotExists is returned by Open if the file does not exist.
var ErrStoreNotExists = errors.New("store does not exist")

// JSONElement is a single stored element.
type JSONElement []byte

// Sealer replaces sensitive fields of an element before it is stored.
type Sealer interface {
	SealElement(element androidsqlite.Element) (androidsqlite.Element, error)
}

// Option configures a Store.
type Option func(*Store)

// WithSealer seals element fields before they are written.
func WithSealer(sealer Sealer) Option {
	return func(s *Store) { s.sealer = sealer }
}

// WithLogger sets the logger of the store.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// Store is an event database. It implements androidsqlite.Sink and is safe
// for concurrent use.
type Store struct {
	db      *sql.DB
	columns *viewColumns
	sealer  Sealer
	logger  zerolog.Logger
	insertM sync.Mutex
}

// New creates a new store at url. Use ":memory:" for an in-memory store.
func New(url string, opts ...Option) (*Store, error) {
	return open(url, true, opts)
}

// Open opens an existing store.
func Open(url string, opts ...Option) (*Store, error) {
	return open(url, false, opts)
}

func open(url string, create bool, opts []Option) (*Store, error) { // nolint:gocyclo
	store := &Store{columns: &viewColumns{views: map[string]map[string]struct{}{}}, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(store)
	}

	if url != ":memory:" {
		exists := true
		if _, err := os.Stat(url); err != nil {
			if !os.IsNotExist(err) {
				return nil, err
			}
			exists = false
		}

		if create && exists {
			return nil, ErrStoreExists
		}
		if !create && !exists {
			return nil, ErrStoreNotExists
		}

		if create {
			if err := os.MkdirAll(filepath.Dir(url), 0750); err != nil {
				return nil, err
			}
			store.logger.Info().Str("path", url).Msg("creating store")
		}
	}

	db, err := sql.Open("sqlite", url)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	store.db = db

	if create {
		err = store.setup()
	} else {
		err = store.check()
	}
	if err != nil {
		db.Close() // nolint:errcheck
		return nil, err
	}

	if err := store.setupTypes(); err != nil {
		db.Close() // nolint:errcheck
		return nil, err
	}
	return store, nil
}

func (s *Store) setup() error {
	for _, query := range []string{
		fmt.Sprintf("PRAGMA application_id = %d", storeApplicationID),
		fmt.Sprintf("PRAGMA user_version = %d", storeVersion),
		"CREATE TABLE elements (" +
			"id TEXT PRIMARY KEY, " +
			"json TEXT NOT NULL, " +
			"digest TEXT NOT NULL UNIQUE, " +
			"insert_time TEXT NOT NULL)",
	} {
		if _, err := s.db.Exec(query); err != nil {
			return errors.Wrapf(err, "could not exec %s", query)
		}
	}
	return nil
}

func (s *Store) pragma(name string) (int64, error) {
	var i int64
	err := s.db.QueryRow("PRAGMA " + name).Scan(&i)
	return i, err
}

func (s *Store) check() error {
	applicationID, err := s.pragma("application_id")
	if err != nil {
		return err
	}
	if applicationID != storeApplicationID {
		return fmt.Errorf("wrong file format (application_id is %d, requires %d)", applicationID, storeApplicationID)
	}

	version, err := s.pragma("user_version")
	if err != nil {
		return err
	}
	if version != storeVersion {
		return fmt.Errorf("wrong file format (user_version is %d, requires %d)", version, storeVersion)
	}
	return nil
}

// Emit stores one event. It implements androidsqlite.Sink.
func (s *Store) Emit(timestamp androidsqlite.Timestamp, role androidsqlite.TimestampRole, record androidsqlite.Record) error {
	_, err := s.Insert(androidsqlite.NewElement(timestamp, role, record))
	return err
}

// Insert adds element and returns its id. If an identical element is
// already stored, the id of the stored element is returned. Identity is
// decided before sealing.
func (s *Store) Insert(element androidsqlite.Element) (string, error) {
	data, err := element.JSON()
	if err != nil {
		return "", errors.Wrap(err, "could not marshal element")
	}
	digest := fmt.Sprintf("%016x", xxh3.Hash(data))

	dataType, ok := element[discriminator].(string)
	if !ok || dataType == "" {
		return "", errors.Errorf("element requires %s", discriminator)
	}

	s.insertM.Lock()
	defer s.insertM.Unlock()

	var existing string
	err = s.db.QueryRow("SELECT id FROM elements WHERE digest = ?", digest).Scan(&existing)
	switch {
	case err == nil:
		return existing, nil
	case !errors.Is(err, sql.ErrNoRows):
		return "", err
	}

	if s.sealer != nil {
		element, err = s.sealer.SealElement(element)
		if err != nil {
			return "", err
		}
	}

	id, ok := element["id"].(string)
	if !ok {
		id = androidsqlite.ElementType + "--" + uuid.New().String()
		element = element.Copy()
		element["id"] = id
	}
	data, err = element.JSON()
	if err != nil {
		return "", errors.Wrap(err, "could not marshal element")
	}

	_, err = s.db.Exec(
		"INSERT INTO elements (id, json, digest, insert_time) VALUES (?, ?, ?, ?)",
		id, string(data), digest, time.Now().UTC().Format(timeFormat),
	)
	if err != nil {
		return "", errors.Wrap(err, "could not insert element")
	}

	fields := make([]string, 0, len(element))
	for field := range element {
		fields = append(fields, field)
	}
	s.columns.add(dataType, fields...)
	return id, nil
}

// Get retrieves a single element.
func (s *Store) Get(id string) (JSONElement, error) {
	elements, err := s.query("SELECT json FROM elements WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(elements) == 0 {
		return nil, errors.New("element does not exist")
	}
	return elements[0], nil
}

// Select retrieves the elements matching any of the conditions. Each
// condition maps field names to LIKE patterns that must all match.
func (s *Store) Select(conditions []map[string]string) ([]JSONElement, error) {
	var ors []string
	var args []interface{}
	for _, condition := range conditions {
		var keys []string
		for key := range condition {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		var ands []string
		for _, key := range keys {
			ands = append(ands, "json_extract(json, ?) LIKE ?")
			args = append(args, "$."+key, condition[key])
		}
		if len(ands) > 0 {
			ors = append(ors, "("+strings.Join(ands, " AND ")+")")
		}
	}

	query := "SELECT json FROM elements"
	if len(ors) > 0 {
		query += " WHERE " + strings.Join(ors, " OR ")
	}
	query += " ORDER BY insert_time, rowid"
	return s.query(query, args...)
}

// All returns every element in insertion order.
func (s *Store) All() ([]JSONElement, error) {
	return s.Select(nil)
}

// Count returns the number of stored elements.
func (s *Store) Count() (int, error) {
	var n int
	err := s.db.QueryRow("SELECT count(*) FROM elements").Scan(&n)
	return n, err
}

// Validate checks every element against the schema of its data type.
func (s *Store) Validate(ctx context.Context) (flaws []string, err error) {
	flaws = []string{}

	elements, err := s.All()
	if err != nil {
		return nil, err
	}
	for _, element := range elements {
		elementFlaws, err := validateElement(ctx, element)
		if err != nil {
			return nil, err
		}
		id := gjson.GetBytes(element, "id").String()
		for _, flaw := range elementFlaws {
			flaws = append(flaws, fmt.Sprintf("%s: %s", id, flaw))
		}
	}
	return flaws, nil
}

// Close creates the data type views and closes the database.
func (s *Store) Close() error {
	if s.columns.isDirty() {
		if err := s.createViews(); err != nil {
			s.logger.Error().Err(err).Msg("could not create views")
		}
	}
	return s.db.Close()
}

func (s *Store) query(query string, args ...interface{}) ([]JSONElement, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	elements := []JSONElement{}
	for rows.Next() {
		var element string
		if err := rows.Scan(&element); err != nil {
			return nil, err
		}
		elements = append(elements, JSONElement(element))
	}
	return elements, rows.Err()
}

func quote(s, q string) string {
	return q + strings.ReplaceAll(s, q, q+q) + q
}

// viewColumns tracks the element fields per data type that make up the
// columns of the data type views.
type viewColumns struct {
	mu    sync.Mutex
	dirty bool
	views map[string]map[string]struct{}
}

func (c *viewColumns) add(dataType string, fields ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	view, ok := c.views[dataType]
	if !ok {
		view = map[string]struct{}{}
		c.views[dataType] = view
	}
	for _, field := range fields {
		if _, ok := view[field]; !ok {
			view[field] = struct{}{}
			c.dirty = true
		}
	}
}

// sorted returns a copy of the columns, sorted by name.
func (c *viewColumns) sorted() map[string][]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	views := make(map[string][]string, len(c.views))
	for dataType, fields := range c.views {
		columns := make([]string, 0, len(fields))
		for field := range fields {
			columns = append(columns, field)
		}
		sort.Strings(columns)
		views[dataType] = columns
	}
	return views
}

func (c *viewColumns) isDirty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dirty
}

func (c *viewColumns) clean() {
	c.mu.Lock()
	c.dirty = false
	c.mu.Unlock()
}

func (s *Store) createViews() error {
	for dataType, fields := range s.columns.sorted() {
		view := quote(dataType, `"`)
		if _, err := s.db.Exec("DROP VIEW IF EXISTS " + view); err != nil {
			return err
		}
		columns := make([]string, 0, len(fields))
		for _, field := range fields {
			columns = append(columns, fmt.Sprintf("json_extract(json, %s) AS %s", quote("$."+field, "'"), quote(field, `"`)))
		}
		query := fmt.Sprintf("CREATE VIEW %s AS SELECT %s FROM elements WHERE json_extract(json, '$.%s') = %s",
			view, strings.Join(columns, ", "), discriminator, quote(dataType, "'"))
		if _, err := s.db.Exec(query); err != nil {
			return errors.Wrapf(err, "could not create view %s", dataType)
		}
	}
	return nil
}

// setupTypes loads the fields of existing views.
func (s *Store) setupTypes() error {
	rows, err := s.db.Query("SELECT name FROM sqlite_master WHERE type = 'view'")
	if err != nil {
		return err
	}
	var views []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close() // nolint:errcheck
			return err
		}
		views = append(views, name)
	}
	rows.Close() // nolint:errcheck
	if err := rows.Err(); err != nil {
		return err
	}

	for _, view := range views {
		columns, err := s.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", quote(view, `"`)))
		if err != nil {
			return err
		}
		for columns.Next() {
			var (
				cid       int
				name      string
				dataType  sql.NullString
				notNull   int
				dfltValue sql.NullString
				pk        int
			)
			if err := columns.Scan(&cid, &name, &dataType, &notNull, &dfltValue, &pk); err != nil {
				columns.Close() // nolint:errcheck
				return err
			}
			s.columns.add(view, name)
		}
		columns.Close() // nolint:errcheck
	}
	s.columns.clean()
	return nil
}
