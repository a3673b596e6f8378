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
	"encoding/json"
	"fmt"
	"strconv"
)

// Kind is the storage class of a raw SQLite value.
type Kind int

// SQLite storage classes.
const (
	KindNull Kind = iota
	KindInteger
	KindFloat
	KindText
	KindBlob
)

func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindText:
		return "text"
	case KindBlob:
		return "blob"
	default:
		return "null"
	}
}

// Value is a single raw scalar read from a result row. The zero Value is null.
type Value struct {
	kind    Kind
	integer int64
	float   float64
	text    string
	blob    []byte
}

// Null returns the null Value.
func Null() Value { return Value{} }

// Integer returns an integer Value.
func Integer(i int64) Value { return Value{kind: KindInteger, integer: i} }

// Float returns a float Value.
func Float(f float64) Value { return Value{kind: KindFloat, float: f} }

// Text returns a text Value.
func Text(s string) Value { return Value{kind: KindText, text: s} }

// Blob returns a blob Value. The slice is copied.
func Blob(b []byte) Value {
	c := make([]byte, len(b))
	copy(c, b)
	return Value{kind: KindBlob, blob: c}
}

// Kind returns the storage class of v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is SQL NULL or was never selected.
func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) String() string {
	switch v.kind {
	case KindInteger:
		return strconv.FormatInt(v.integer, 10)
	case KindFloat:
		return strconv.FormatFloat(v.float, 'g', -1, 64)
	case KindText:
		return v.text
	case KindBlob:
		return fmt.Sprintf("%x", v.blob)
	default:
		return "NULL"
	}
}

// NullString is a text field of a canonical record. The zero value is the
// null sentinel.
type NullString struct {
	s     string
	valid bool
}

// StringOf returns a present NullString holding s. An empty s is a present,
// empty value.
func StringOf(s string) NullString { return NullString{s: s, valid: true} }

// Get returns the string and whether it is present.
func (n NullString) Get() (string, bool) { return n.s, n.valid }

// IsNull reports whether n is the null sentinel.
func (n NullString) IsNull() bool { return !n.valid }

// String returns the value, or "<null>" for the null sentinel.
func (n NullString) String() string {
	if !n.valid {
		return "<null>"
	}
	return n.s
}

// MarshalJSON renders the null sentinel as JSON null.
func (n NullString) MarshalJSON() ([]byte, error) {
	if !n.valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.s)
}

// NullInt64 is an integer field of a canonical record. The zero value is the
// null sentinel.
type NullInt64 struct {
	i     int64
	valid bool
}

// Int64Of returns a present NullInt64.
func Int64Of(i int64) NullInt64 { return NullInt64{i: i, valid: true} }

// Get returns the integer and whether it is present.
func (n NullInt64) Get() (int64, bool) { return n.i, n.valid }

// IsNull reports whether n is the null sentinel.
func (n NullInt64) IsNull() bool { return !n.valid }

func (n NullInt64) String() string {
	if !n.valid {
		return "<null>"
	}
	return strconv.FormatInt(n.i, 10)
}

// MarshalJSON renders the null sentinel as JSON null.
func (n NullInt64) MarshalJSON() ([]byte, error) {
	if !n.valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatInt(n.i, 10)), nil
}
