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
	"strings"

	"github.com/fatih/structs"
	"github.com/stoewer/go-strcase"
)

// ElementType is the discriminator of event elements.
const ElementType = "event"

const datetimeFormat = "2006-01-02T15:04:05.000Z"

// Element is the flat representation of an event as stored by sinks.
type Element map[string]interface{}

// NewElement flattens an event into an Element. Null fields of the record
// are kept as explicit nulls. The record is not modified.
func NewElement(timestamp Timestamp, role TimestampRole, record Record) Element {
	element := Element{
		"type":           ElementType,
		"data_type":      record.DataType(),
		"timestamp":      timestamp,
		"timestamp_desc": role.String(),
		"datetime":       nil,
	}
	if !timestamp.IsNull() {
		element["datetime"] = timestamp.Time().Format(datetimeFormat)
	}

	for _, field := range structs.New(record).Fields() {
		if !field.IsExported() {
			continue
		}
		name := strings.Split(field.Tag("json"), ",")[0]
		if name == "" || name == "-" {
			name = strcase.SnakeCase(field.Name())
		}
		element[name] = field.Value()
	}
	return element
}

// JSON marshals the element with sorted keys.
func (e Element) JSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}(e))
}

// Copy returns a shallow copy of e.
func (e Element) Copy() Element {
	c := make(Element, len(e))
	for k, v := range e {
		c[k] = v
	}
	return c
}
