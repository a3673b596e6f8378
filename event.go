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
	"github.com/pkg/errors"
)

// TimestampRole tags which semantic event a timestamp represents.
type TimestampRole int

// Timestamp roles. The declaration order of the populated roles is the
// precedence order in which events are emitted.
const (
	RoleNone TimestampRole = iota
	RoleReceived
	RoleSent
	RoleLastAuthenticated
	RoleLastPasswordEntry
	RoleNotATime
)

// rolePrecedence is the order Emit walks the roles of a record.
var rolePrecedence = []TimestampRole{ // nolint:gochecknoglobals
	RoleReceived,
	RoleSent,
	RoleLastAuthenticated,
	RoleLastPasswordEntry,
}

// Roles returns the timestamp roles in precedence order.
func Roles() []TimestampRole {
	return append([]TimestampRole(nil), rolePrecedence...)
}

// String returns the timestamp description used in the output.
func (r TimestampRole) String() string {
	switch r {
	case RoleReceived:
		return "Received Time"
	case RoleSent:
		return "Sent Time"
	case RoleLastAuthenticated:
		return "Last Authenticated Time"
	case RoleLastPasswordEntry:
		return "Last Password Entry Time"
	case RoleNotATime:
		return "Not a time"
	default:
		return "None"
	}
}

// Record is a canonical record. The set of implementations is closed; all are
// value types so that every emitted event carries its own copy.
type Record interface {
	// DataType is the stable identifier of the record variant.
	DataType() string
	// Timestamp returns the timestamp for role, or the null Timestamp if the
	// record does not carry that role.
	Timestamp(role TimestampRole) Timestamp
	// PrimaryRole is the role every record of this kind must populate, or
	// RoleNone.
	PrimaryRole() TimestampRole

	record()
}

// Sink receives emitted events. Implementations must treat the record as
// read-only.
type Sink interface {
	Emit(timestamp Timestamp, role TimestampRole, record Record) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(timestamp Timestamp, role TimestampRole, record Record) error

// Emit calls f.
func (f SinkFunc) Emit(timestamp Timestamp, role TimestampRole, record Record) error {
	return f(timestamp, role, record)
}

// Emit hands one event per populated role of record to sink, in precedence
// order. If the record lacks its primary role, nothing is emitted and a
// *ConsistencyWarning is returned. A record without any populated role and
// without a primary role is emitted once with RoleNotATime and a null
// timestamp. The number of emitted events is returned.
func Emit(sink Sink, record Record) (int, error) {
	if primary := record.PrimaryRole(); primary != RoleNone && record.Timestamp(primary).IsNull() {
		return 0, &ConsistencyWarning{
			DataType: record.DataType(),
			Role:     primary,
			Message:  "record not emitted",
		}
	}

	emitted := 0
	for _, role := range rolePrecedence {
		ts := record.Timestamp(role)
		if ts.IsNull() {
			continue
		}
		if err := sink.Emit(ts, role, record); err != nil {
			return emitted, errors.Wrapf(err, "could not emit %s event", role)
		}
		emitted++
	}

	if emitted == 0 {
		if err := sink.Emit(NullTimestamp(), RoleNotATime, record); err != nil {
			return 0, errors.Wrap(err, "could not emit event")
		}
		emitted++
	}
	return emitted, nil
}
