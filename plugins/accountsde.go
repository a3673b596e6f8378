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

// AccountsDe parses accounts_de.db databases that keep authentication tokens
// next to the accounts.
type AccountsDe struct{}

// Metadata implements androidsqlite.Plugin.
func (AccountsDe) Metadata() androidsqlite.Metadata {
	return androidsqlite.Metadata{
		Name:        "accounts_de_db",
		Description: "Android accounts_de.db SQLite database",
		Structure: androidsqlite.Structure{
			{Name: "accounts", Columns: []string{"_id", "name", "type", "last_authenticated_time"}},
			{Name: "auth_tokens", Columns: []string{"account_id", "auth_token"}},
		},
	}
}

// Queries implements androidsqlite.Plugin.
func (AccountsDe) Queries() []androidsqlite.Query {
	return []androidsqlite.Query{{
		Name: "accounts",
		SQL: "SELECT accounts.name AS account_name, accounts.type AS account_type, " +
			"auth_tokens.auth_token AS auth_token, " +
			"accounts.last_authenticated_time AS last_authenticated_time " +
			"FROM accounts " +
			"LEFT JOIN auth_tokens ON accounts._id = auth_tokens.account_id " +
			"ORDER BY accounts._id",
		Columns:   []string{"account_name", "account_type", "auth_token", "last_authenticated_time"},
		DataType:  androidsqlite.DataTypeAccountsDeEntry,
		Normalize: parseAccountsDeEntry,
	}}
}

func parseAccountsDeEntry(row androidsqlite.RawRow) (androidsqlite.Record, error) {
	lastAuthenticated, err := androidsqlite.TimestampColumn(row, "last_authenticated_time", androidsqlite.WholeSeconds)
	if err != nil {
		return nil, err
	}
	return androidsqlite.AccountsDeEntry{
		AccountName:           androidsqlite.StringColumn(row, "account_name"),
		AccountType:           androidsqlite.StringColumn(row, "account_type"),
		AuthToken:             androidsqlite.StringColumn(row, "auth_token"),
		LastAuthenticatedTime: lastAuthenticated,
	}, nil
}
