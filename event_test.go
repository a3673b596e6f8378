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
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedEvent struct {
	timestamp Timestamp
	role      TimestampRole
	record    Record
}

type recordingSink struct {
	events []recordedEvent
	err    error
}

func (s *recordingSink) Emit(timestamp Timestamp, role TimestampRole, record Record) error {
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, recordedEvent{timestamp: timestamp, role: role, record: record})
	return nil
}

func (s *recordingSink) roles() []TimestampRole {
	var roles []TimestampRole
	for _, e := range s.events {
		roles = append(roles, e.role)
	}
	return roles
}

func TestEmit(t *testing.T) {
	sms := SMSMessage{
		Identifier:   Int64Of(1),
		Address:      StringOf("+1234567890"),
		Body:         StringOf("Hello"),
		DateReceived: FromMillisFraction(1733048145000),
		DateSent:     FromMillisFraction(1733048100000),
		MessageType:  Int64Of(1),
	}
	unsent := sms
	unsent.DateSent = NullTimestamp()
	unreceived := sms
	unreceived.DateReceived = NullTimestamp()

	tests := []struct {
		name        string
		record      Record
		wantRoles   []TimestampRole
		wantWarning bool
	}{
		{"sms received and sent", sms, []TimestampRole{RoleReceived, RoleSent}, false},
		{"sms without sent time", unsent, []TimestampRole{RoleReceived}, false},
		{"sms without received time", unreceived, nil, true},
		{"account with password entry", Account{LastPasswordEntryTime: PosixTime(1581625155)}, []TimestampRole{RoleLastPasswordEntry}, false},
		{"account without time", Account{AccountName: StringOf("a")}, []TimestampRole{RoleNotATime}, false},
		{"shared account", SharedAccount{AccountName: StringOf("a")}, []TimestampRole{RoleNotATime}, false},
		{"accounts de entry", AccountsDeEntry{LastAuthenticatedTime: PosixTime(1699619696)}, []TimestampRole{RoleLastAuthenticated}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &recordingSink{}
			n, err := Emit(sink, tt.record)
			if tt.wantWarning {
				var warning *ConsistencyWarning
				require.True(t, errors.As(err, &warning), "got %v", err)
				assert.Equal(t, tt.record.PrimaryRole(), warning.Role)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, len(tt.wantRoles), n)
			assert.Equal(t, tt.wantRoles, sink.roles())
		})
	}
}

func TestEmit_SharesRecord(t *testing.T) {
	sms := SMSMessage{
		Identifier:   Int64Of(1),
		Address:      StringOf("+1234567890"),
		DateReceived: FromMillisFraction(1733048145000),
		DateSent:     FromMillisFraction(1733048100000),
	}
	sink := &recordingSink{}
	_, err := Emit(sink, sms)
	require.NoError(t, err)
	require.Len(t, sink.events, 2)

	assert.Equal(t, int64(1733048145), sink.events[0].timestamp.Seconds())
	assert.Equal(t, int64(1733048100), sink.events[1].timestamp.Seconds())
	assert.Equal(t, sink.events[0].record, sink.events[1].record)
	assert.Equal(t, sms, sink.events[0].record)
}

func TestEmit_NotATimeHasNullTimestamp(t *testing.T) {
	sink := &recordingSink{}
	_, err := Emit(sink, SharedAccount{})
	require.NoError(t, err)
	require.Len(t, sink.events, 1)
	assert.True(t, sink.events[0].timestamp.IsNull())
}

func TestEmit_SinkError(t *testing.T) {
	sink := &recordingSink{err: errors.New("disk full")}
	n, err := Emit(sink, Account{LastPasswordEntryTime: PosixTime(1)})
	assert.Equal(t, 0, n)
	assert.EqualError(t, err, "could not emit Last Password Entry Time event: disk full")
}

func TestTimestampRole_String(t *testing.T) {
	assert.Equal(t, "Received Time", RoleReceived.String())
	assert.Equal(t, "Not a time", RoleNotATime.String())
	assert.Equal(t, []TimestampRole{RoleReceived, RoleSent, RoleLastAuthenticated, RoleLastPasswordEntry}, Roles())
}
