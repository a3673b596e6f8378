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

// Accounts parses the accounts and shared_accounts tables of accounts_de.db.
type Accounts struct{}

// Metadata implements androidsqlite.Plugin.
func (Accounts) Metadata() androidsqlite.Metadata {
	return androidsqlite.Metadata{
		Name:        "android_accounts",
		Description: "Android accounts SQLite database (accounts_de.db)",
		Structure: androidsqlite.Structure{
			{Name: "accounts", Columns: []string{"_id", "name", "type", "previous_name", "last_password_entry_time_millis_epoch"}},
			{Name: "shared_accounts", Columns: []string{"_id", "name", "type"}},
		},
		Schemas: map[string]string{
			"accounts": "CREATE TABLE accounts (" +
				"_id INTEGER PRIMARY KEY, " +
				"name TEXT NOT NULL, " +
				"type TEXT NOT NULL, " +
				"previous_name TEXT, " +
				"last_password_entry_time_millis_epoch INTEGER DEFAULT 0, " +
				"UNIQUE(name, type))",
			"shared_accounts": "CREATE TABLE shared_accounts (" +
				"_id INTEGER PRIMARY KEY AUTOINCREMENT, " +
				"name TEXT NOT NULL, " +
				"type TEXT NOT NULL, " +
				"UNIQUE(name, type))",
		},
		RequiresSchemaMatch: false,
	}
}

// Queries implements androidsqlite.Plugin.
func (Accounts) Queries() []androidsqlite.Query {
	return []androidsqlite.Query{
		{
			Name:      "accounts",
			SQL:       "SELECT _id, name, type, previous_name, last_password_entry_time_millis_epoch FROM accounts",
			Columns:   []string{"_id", "name", "type", "previous_name", "last_password_entry_time_millis_epoch"},
			DataType:  androidsqlite.DataTypeAccount,
			Normalize: parseAccount,
		},
		{
			Name:      "shared_accounts",
			SQL:       "SELECT _id, name, type FROM shared_accounts",
			Columns:   []string{"_id", "name", "type"},
			DataType:  androidsqlite.DataTypeSharedAccount,
			Normalize: parseSharedAccount,
		},
	}
}

func parseAccount(row androidsqlite.RawRow) (androidsqlite.Record, error) {
	id, err := androidsqlite.Int64Column(row, "_id")
	if err != nil {
		return nil, err
	}
	lastPasswordEntry, err := androidsqlite.TimestampColumn(row, "last_password_entry_time_millis_epoch", androidsqlite.WholeSeconds)
	if err != nil {
		return nil, err
	}
	return androidsqlite.Account{
		Identifier:            id,
		AccountName:           androidsqlite.StringColumn(row, "name"),
		AccountType:           androidsqlite.StringColumn(row, "type"),
		PreviousName:          androidsqlite.StringColumn(row, "previous_name"),
		LastPasswordEntryTime: lastPasswordEntry,
	}, nil
}

func parseSharedAccount(row androidsqlite.RawRow) (androidsqlite.Record, error) {
	id, err := androidsqlite.Int64Column(row, "_id")
	if err != nil {
		return nil, err
	}
	return androidsqlite.SharedAccount{
		Identifier:  id,
		AccountName: androidsqlite.StringColumn(row, "name"),
		AccountType: androidsqlite.StringColumn(row, "type"),
	}, nil
}
