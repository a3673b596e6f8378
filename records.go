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

// Data types of the record variants.
const (
	DataTypeAccountsDeEntry = "android:accounts:entry"
	DataTypeAccount         = "android:accounts:account"
	DataTypeSharedAccount   = "android:accounts:shared_account"
	DataTypeSMSMessage      = "android:sms:message"
)

// AccountsDeEntry is an account of accounts_de.db joined with its
// authentication token.
type AccountsDeEntry struct {
	AccountName           NullString `json:"account_name"`
	AccountType           NullString `json:"account_type"`
	AuthToken             NullString `json:"auth_token"`
	LastAuthenticatedTime Timestamp  `json:"last_authenticated_time"`
}

// DataType implements Record.
func (AccountsDeEntry) DataType() string { return DataTypeAccountsDeEntry }

// Timestamp implements Record.
func (e AccountsDeEntry) Timestamp(role TimestampRole) Timestamp {
	if role == RoleLastAuthenticated {
		return e.LastAuthenticatedTime
	}
	return NullTimestamp()
}

// PrimaryRole implements Record.
func (AccountsDeEntry) PrimaryRole() TimestampRole { return RoleNone }

func (AccountsDeEntry) record() {}

// Account is a row of the accounts table.
type Account struct {
	Identifier            NullInt64  `json:"identifier"`
	AccountName           NullString `json:"account_name"`
	AccountType           NullString `json:"account_type"`
	PreviousName          NullString `json:"previous_name"`
	LastPasswordEntryTime Timestamp  `json:"last_password_entry_time"`
}

// DataType implements Record.
func (Account) DataType() string { return DataTypeAccount }

// Timestamp implements Record.
func (a Account) Timestamp(role TimestampRole) Timestamp {
	if role == RoleLastPasswordEntry {
		return a.LastPasswordEntryTime
	}
	return NullTimestamp()
}

// PrimaryRole implements Record.
func (Account) PrimaryRole() TimestampRole { return RoleNone }

func (Account) record() {}

// SharedAccount is a row of the shared_accounts table.
type SharedAccount struct {
	Identifier  NullInt64  `json:"identifier"`
	AccountName NullString `json:"account_name"`
	AccountType NullString `json:"account_type"`
}

// DataType implements Record.
func (SharedAccount) DataType() string { return DataTypeSharedAccount }

// Timestamp implements Record.
func (SharedAccount) Timestamp(TimestampRole) Timestamp { return NullTimestamp() }

// PrimaryRole implements Record.
func (SharedAccount) PrimaryRole() TimestampRole { return RoleNone }

func (SharedAccount) record() {}

// SMSMessage is a row of the sms table. Messages always carry a received time.
type SMSMessage struct {
	Identifier   NullInt64  `json:"identifier"`
	Address      NullString `json:"address"`
	Body         NullString `json:"body"`
	DateReceived Timestamp  `json:"date_received"`
	DateSent     Timestamp  `json:"date_sent"`
	MessageType  NullInt64  `json:"message_type"`
}

// DataType implements Record.
func (SMSMessage) DataType() string { return DataTypeSMSMessage }

// Timestamp implements Record.
func (m SMSMessage) Timestamp(role TimestampRole) Timestamp {
	switch role {
	case RoleReceived:
		return m.DateReceived
	case RoleSent:
		return m.DateSent
	default:
		return NullTimestamp()
	}
}

// PrimaryRole implements Record.
func (SMSMessage) PrimaryRole() TimestampRole { return RoleReceived }

func (SMSMessage) record() {}
