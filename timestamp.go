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
	"strconv"
	"time"
)

const millisPerSecond = 1000

// Timestamp is a POSIX time: seconds since 1970-01-01T00:00:00Z, optionally
// with a sub-second part. The zero value is the null sentinel.
type Timestamp struct {
	seconds int64
	nanos   int64
	valid   bool
}

// NullTimestamp returns the null Timestamp.
func NullTimestamp() Timestamp { return Timestamp{} }

// PosixTime returns a present Timestamp of whole seconds.
func PosixTime(seconds int64) Timestamp {
	return Timestamp{seconds: seconds, valid: true}
}

// FromMillis converts milliseconds since epoch to whole seconds using floor
// division. Zero is treated as "not set" and yields the null Timestamp.
func FromMillis(ms int64) Timestamp {
	if ms == 0 {
		return Timestamp{}
	}
	return Timestamp{seconds: floorDiv(ms, millisPerSecond), valid: true}
}

// FromMillisFraction converts milliseconds since epoch to seconds keeping the
// millisecond fraction. Zero yields the null Timestamp.
func FromMillisFraction(ms int64) Timestamp {
	if ms == 0 {
		return Timestamp{}
	}
	s := floorDiv(ms, millisPerSecond)
	return Timestamp{
		seconds: s,
		nanos:   (ms - s*millisPerSecond) * int64(time.Millisecond),
		valid:   true,
	}
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// IsNull reports whether t is the null sentinel.
func (t Timestamp) IsNull() bool { return !t.valid }

// Seconds returns the whole seconds since epoch. It is 0 for the null sentinel.
func (t Timestamp) Seconds() int64 { return t.seconds }

// Float returns the seconds since epoch including the fraction.
func (t Timestamp) Float() float64 {
	return float64(t.seconds) + float64(t.nanos)/float64(time.Second)
}

// Millis converts t back to milliseconds since epoch.
func (t Timestamp) Millis() int64 {
	return t.seconds*millisPerSecond + t.nanos/int64(time.Millisecond)
}

// Time returns t as a UTC time.Time.
func (t Timestamp) Time() time.Time {
	return time.Unix(t.seconds, t.nanos).UTC()
}

func (t Timestamp) String() string {
	if !t.valid {
		return "<null>"
	}
	return t.Time().Format(time.RFC3339Nano)
}

// MarshalJSON renders the POSIX seconds, or null for the null sentinel.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if !t.valid {
		return []byte("null"), nil
	}
	if t.nanos == 0 {
		return []byte(strconv.FormatInt(t.seconds, 10)), nil
	}
	return json.Marshal(t.Float())
}
