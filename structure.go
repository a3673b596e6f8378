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
	"regexp"
	"sort"
	"strings"
)

// Table names a table and the columns a parser needs from it.
type Table struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
}

// Structure is the ordered set of tables and columns a parser requires.
type Structure []Table

// Tables returns the required table names in declared order.
func (s Structure) Tables() []string {
	names := make([]string, 0, len(s))
	for _, t := range s {
		names = append(names, t.Name)
	}
	return names
}

// catalog holds the tables, columns and create statements of a database.
type catalog struct {
	columns map[string]map[string]bool
	sql     map[string]string
}

func newCatalog() *catalog {
	return &catalog{
		columns: map[string]map[string]bool{},
		sql:     map[string]string{},
	}
}

func (c *catalog) addTable(name, sql string) {
	if _, ok := c.columns[name]; !ok {
		c.columns[name] = map[string]bool{}
	}
	c.sql[name] = sql
}

func (c *catalog) addColumn(table, column string) {
	if _, ok := c.columns[table]; !ok {
		c.columns[table] = map[string]bool{}
	}
	c.columns[table][column] = true
}

func (c *catalog) tables() []string {
	var names []string
	for name := range c.columns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// check returns the first missing table or column of s.
func (c *catalog) check(s Structure) *FormatMismatch {
	for _, table := range s {
		columns, ok := c.columns[table.Name]
		if !ok {
			return &FormatMismatch{Table: table.Name}
		}
		for _, column := range table.Columns {
			if !columns[column] {
				return &FormatMismatch{Table: table.Name, Column: column}
			}
		}
	}
	return nil
}

var whitespace = regexp.MustCompile(`\s+`)

// normalizeSchema makes create statements comparable.
func normalizeSchema(sql string) string {
	sql = whitespace.ReplaceAllString(strings.TrimSpace(sql), " ")
	sql = strings.ReplaceAll(sql, "( ", "(")
	sql = strings.ReplaceAll(sql, " )", ")")
	sql = strings.ReplaceAll(sql, " ,", ",")
	return strings.ToLower(strings.TrimSuffix(sql, ";"))
}
