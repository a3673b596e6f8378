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
	"encoding/hex"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// TimeUnit selects how a millisecond column is converted.
type TimeUnit int

const (
	// WholeSeconds drops the sub-second part (integer division by 1000).
	WholeSeconds TimeUnit = iota
	// FractionalSeconds keeps the milliseconds (division by 1000.0).
	FractionalSeconds
)

const twoTo63 = float64(1 << 63)

// StringColumn returns column as a NullString. SQL NULL and absent columns
// yield the null sentinel. Text and blobs that are not valid UTF-8 are
// returned hex encoded, so no byte is lost when the record is marshaled.
func StringColumn(row RawRow, column string) NullString {
	v := row.Lookup(column)
	switch v.kind {
	case KindNull:
		return NullString{}
	case KindText:
		return validOrHex(v.text)
	case KindBlob:
		return validOrHex(string(v.blob))
	default:
		return StringOf(v.String())
	}
}

func validOrHex(s string) NullString {
	if utf8.ValidString(s) {
		return StringOf(s)
	}
	return StringOf(hex.EncodeToString([]byte(s)))
}

// Int64Column returns column as a NullInt64.
func Int64Column(row RawRow, column string) (NullInt64, error) {
	v := row.Lookup(column)
	switch v.kind {
	case KindNull:
		return NullInt64{}, nil
	case KindInteger:
		return Int64Of(v.integer), nil
	case KindFloat:
		if v.float != math.Trunc(v.float) {
			return NullInt64{}, errors.Errorf("column %s: %v is not an integer", column, v.float)
		}
		// int64 conversion of values outside [-2^63, 2^63) is undefined
		if v.float < -twoTo63 || v.float >= twoTo63 {
			return NullInt64{}, errors.Errorf("column %s: %v is out of range", column, v.float)
		}
		return Int64Of(int64(v.float)), nil
	case KindText:
		i, err := strconv.ParseInt(strings.TrimSpace(v.text), 10, 64)
		if err != nil {
			return NullInt64{}, errors.Wrapf(err, "column %s", column)
		}
		return Int64Of(i), nil
	default:
		return NullInt64{}, errors.Errorf("column %s: cannot convert %s to integer", column, v.kind)
	}
}

// TimestampColumn converts a column of milliseconds since epoch. NULL, absent
// and 0 yield the null Timestamp.
func TimestampColumn(row RawRow, column string, unit TimeUnit) (Timestamp, error) {
	ms, err := Int64Column(row, column)
	if err != nil {
		return NullTimestamp(), err
	}
	value, ok := ms.Get()
	if !ok {
		return NullTimestamp(), nil
	}
	if unit == FractionalSeconds {
		return FromMillisFraction(value), nil
	}
	return FromMillis(value), nil
}
