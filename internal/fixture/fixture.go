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

// Package fixture creates small Android SQLite databases for tests.
package fixture

import (
	"path/filepath"
	"testing"

	"crawshaw.io/sqlite"
	"crawshaw.io/sqlite/sqlitex"
)

// SMS is an sms table of mmssms.db with three messages. The first one has a
// received and a sent time, the other two only a received time.
const SMS = `
CREATE TABLE sms (
	_id INTEGER PRIMARY KEY AUTOINCREMENT,
	thread_id INTEGER,
	address TEXT,
	person INTEGER,
	date INTEGER,
	date_sent INTEGER DEFAULT 0,
	read INTEGER DEFAULT 0,
	type INTEGER,
	body TEXT
);
INSERT INTO sms (thread_id, address, date, date_sent, type, body)
	VALUES (1, '+1234567890', 1733048145000, 1733048100000, 1, 'Hello');
INSERT INTO sms (thread_id, address, date, date_sent, type, body)
	VALUES (2, '+1987654321', 1733048200500, NULL, 2, 'Meeting at 10');
INSERT INTO sms (thread_id, address, date, date_sent, type, body)
	VALUES (3, '+1555000111', 1733048300000, 0, 1, NULL);
`

// AccountsDe is an accounts_de.db with accounts, auth_tokens and
// shared_accounts. Only the first account has a token.
const AccountsDe = `
CREATE TABLE accounts (
	_id INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	type TEXT NOT NULL,
	previous_name TEXT,
	last_password_entry_time_millis_epoch INTEGER DEFAULT 0,
	last_authenticated_time INTEGER DEFAULT 0,
	UNIQUE(name, type)
);
CREATE TABLE auth_tokens (
	_id INTEGER PRIMARY KEY AUTOINCREMENT,
	account_id INTEGER NOT NULL,
	type TEXT NOT NULL,
	auth_token TEXT,
	UNIQUE (account_id, type)
);
CREATE TABLE shared_accounts (
	_id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	type TEXT NOT NULL,
	UNIQUE(name, type)
);
INSERT INTO accounts VALUES (1, 'example@gmail.com', 'com.google', NULL, 1581625155000, 1699619696000);
INSERT INTO accounts VALUES (2, 'thisisdfir@gmail.com', 'com.google', 'old@gmail.com', 0, NULL);
INSERT INTO accounts VALUES (3, 'user@example.org', 'com.example', NULL, NULL, 0);
INSERT INTO auth_tokens (account_id, type, auth_token) VALUES (1, 'oauth2', 'ya29.token-one');
INSERT INTO shared_accounts (name, type) VALUES ('shared@gmail.com', 'com.google');
`

// Accounts is an accounts_de.db exactly as created by the Android framework
// without auth_tokens.
const Accounts = `
CREATE TABLE accounts (
	_id INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	type TEXT NOT NULL,
	previous_name TEXT,
	last_password_entry_time_millis_epoch INTEGER DEFAULT 0,
	UNIQUE(name, type)
);
CREATE TABLE shared_accounts (
	_id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	type TEXT NOT NULL,
	UNIQUE(name, type)
);
INSERT INTO accounts VALUES (1, 'thisisdfir@gmail.com', 'com.google', NULL, 1581625155000);
`

// Create writes a database built from script to dir/name and returns its
// path.
func Create(t testing.TB, dir, name, script string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	conn, err := sqlite.OpenConn(path, sqlite.SQLITE_OPEN_READWRITE|sqlite.SQLITE_OPEN_CREATE)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	if err := sqlitex.ExecScript(conn, script); err != nil {
		t.Fatal(err)
	}
	return path
}
