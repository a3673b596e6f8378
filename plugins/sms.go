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

package plugins

import (
	"github.com/forensicanalysis/androidsqlite"
)

// SMS parses the sms table of the Android telephony database (mmssms.db).
type SMS struct{}

// Metadata implements androidsqlite.Plugin.
func (SMS) Metadata() androidsqlite.Metadata {
	return androidsqlite.Metadata{
		Name:        "android_sms",
		Description: "Android SMS SQLite database",
		Structure: androidsqlite.Structure{
			{Name: "sms", Columns: []string{"_id", "address", "date", "date_sent", "body", "type"}},
		},
	}
}

// Queries implements androidsqlite.Plugin.
func (SMS) Queries() []androidsqlite.Query {
	return []androidsqlite.Query{{
		Name:      "sms",
		SQL:       "SELECT _id, address, date, date_sent, body, type FROM sms ORDER BY _id",
		Columns:   []string{"_id", "address", "date", "date_sent", "body", "type"},
		DataType:  androidsqlite.DataTypeSMSMessage,
		Normalize: parseSMS,
	}}
}

func parseSMS(row androidsqlite.RawRow) (androidsqlite.Record, error) {
	id, err := androidsqlite.Int64Column(row, "_id")
	if err != nil {
		return nil, err
	}
	received, err := androidsqlite.TimestampColumn(row, "date", androidsqlite.FractionalSeconds)
	if err != nil {
		return nil, err
	}
	sent, err := androidsqlite.TimestampColumn(row, "date_sent", androidsqlite.FractionalSeconds)
	if err != nil {
		return nil, err
	}
	messageType, err := androidsqlite.Int64Column(row, "type")
	if err != nil {
		return nil, err
	}
	return androidsqlite.SMSMessage{
		Identifier:   id,
		Address:      androidsqlite.StringColumn(row, "address"),
		Body:         androidsqlite.StringColumn(row, "body"),
		DateReceived: received,
		DateSent:     sent,
		MessageType:  messageType,
	}, nil
}
