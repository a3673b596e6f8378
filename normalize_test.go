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
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringColumn(t *testing.T) {
	row := NewRawRow(map[string]Value{
		"text":  Text("foo"),
		"empty": Text(""),
		"int":   Integer(42),
		"null":  Null(),
		"blob":  Blob([]byte("bar")),
		"bytes": Blob([]byte{'a', 0xff, 'b'}),
		"latin": Text("caf\xe9"),
	})

	tests := []struct {
		column   string
		want     string
		wantNull bool
	}{
		{"text", "foo", false},
		{"empty", "", false},
		{"int", "42", false},
		{"blob", "bar", false},
		{"bytes", "61ff62", false},
		{"latin", "636166e9", false},
		{"null", "", true},
		{"absent", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.column, func(t *testing.T) {
			got := StringColumn(row, tt.column)
			value, ok := got.Get()
			assert.Equal(t, tt.wantNull, !ok)
			assert.Equal(t, tt.want, value)
		})
	}
}

func TestInt64Column(t *testing.T) {
	row := NewRawRow(map[string]Value{
		"int":      Integer(7),
		"float":    Float(3),
		"fraction": Float(3.5),
		"text":     Text(" 12 "),
		"garbage":  Text("garbage"),
		"blob":     Blob([]byte{1}),
		"huge":     Float(1e20),
		"negative": Float(-1e20),
		"max":      Float(float64(1 << 63)),
		"min":      Float(-float64(1 << 63)),
		"inf":      Float(math.Inf(1)),
		"nan":      Float(math.NaN()),
	})

	tests := []struct {
		column   string
		want     int64
		wantNull bool
		wantErr  bool
	}{
		{"int", 7, false, false},
		{"float", 3, false, false},
		{"text", 12, false, false},
		{"absent", 0, true, false},
		{"fraction", 0, true, true},
		{"garbage", 0, true, true},
		{"blob", 0, true, true},
		{"huge", 0, true, true},
		{"negative", 0, true, true},
		{"max", 0, true, true},
		{"min", math.MinInt64, false, false},
		{"inf", 0, true, true},
		{"nan", 0, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.column, func(t *testing.T) {
			got, err := Int64Column(row, tt.column)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Int64Column() error = %v, wantErr %v", err, tt.wantErr)
			}
			value, ok := got.Get()
			assert.Equal(t, tt.wantNull, !ok)
			assert.Equal(t, tt.want, value)
		})
	}
}

func TestTimestampColumn(t *testing.T) {
	row := NewRawRow(map[string]Value{
		"ms":   Integer(1700000000500),
		"text": Text("1733048145000"),
		"bad":  Text("yesterday"),
	})

	ts, err := TimestampColumn(row, "ms", WholeSeconds)
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000), ts.Seconds())

	ts, err = TimestampColumn(row, "ms", FractionalSeconds)
	require.NoError(t, err)
	assert.Equal(t, 1700000000.5, ts.Float())

	ts, err = TimestampColumn(row, "text", WholeSeconds)
	require.NoError(t, err)
	assert.Equal(t, int64(1733048145), ts.Seconds())

	_, err = TimestampColumn(row, "bad", WholeSeconds)
	assert.Error(t, err)
}

func TestNullSentinel_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		A NullString `json:"a"`
		B NullString `json:"b"`
		C NullInt64  `json:"c"`
		D NullInt64  `json:"d"`
	}{A: StringOf(""), C: Int64Of(0)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a": "", "b": null, "c": 0, "d": null}`, string(b))
}

func TestRawRow(t *testing.T) {
	values := map[string]Value{"a": Integer(1), "b": Null()}
	row := NewRawRow(values)
	values["a"] = Integer(2)

	assert.Equal(t, Integer(1), row.Lookup("a"))
	assert.True(t, row.Has("b"))
	assert.True(t, row.Lookup("b").IsNull())
	assert.False(t, row.Has("c"))
	assert.True(t, row.Lookup("c").IsNull())
	assert.Equal(t, []string{"a", "b"}, row.Columns())
}
