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

package seal

import (
	"strings"
	"testing"

	"filippo.io/age"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forensicanalysis/androidsqlite"
)

func newIdentity(t *testing.T) *age.X25519Identity {
	t.Helper()
	identity, err := age.GenerateX25519Identity()
	require.NoError(t, err)
	return identity
}

func TestNew(t *testing.T) {
	identity := newIdentity(t)

	tests := []struct {
		name       string
		recipients []string
		wantErr    bool
	}{
		{"valid", []string{identity.Recipient().String()}, false},
		{"none", nil, true},
		{"invalid", []string{"age1invalid"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.recipients)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSeal_RoundTrip(t *testing.T) {
	identity := newIdentity(t)
	sealer, err := New([]string{identity.Recipient().String()})
	require.NoError(t, err)

	sealed, err := sealer.Seal("ya29.token-one")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sealed, "-----BEGIN AGE ENCRYPTED FILE-----"))
	assert.NotContains(t, sealed, "ya29")

	plaintext, err := Open(identity.String(), sealed)
	require.NoError(t, err)
	assert.Equal(t, "ya29.token-one", plaintext)

	_, err = Open(newIdentity(t).String(), sealed)
	assert.Error(t, err)
}

func TestSealer_SealElement(t *testing.T) {
	identity := newIdentity(t)
	sealer, err := New([]string{identity.Recipient().String()})
	require.NoError(t, err)

	withToken := androidsqlite.NewElement(androidsqlite.PosixTime(1699619696), androidsqlite.RoleLastAuthenticated, androidsqlite.AccountsDeEntry{
		AccountName: androidsqlite.StringOf("example@gmail.com"),
		AuthToken:   androidsqlite.StringOf("ya29.token-one"),
	})
	sealed, err := sealer.SealElement(withToken)
	require.NoError(t, err)

	plaintext, err := Open(identity.String(), sealed["auth_token"].(string))
	require.NoError(t, err)
	assert.Equal(t, "ya29.token-one", plaintext)
	assert.Equal(t, androidsqlite.StringOf("ya29.token-one"), withToken["auth_token"], "input must not change")
	assert.Equal(t, withToken["account_name"], sealed["account_name"])

	withoutToken := androidsqlite.NewElement(androidsqlite.NullTimestamp(), androidsqlite.RoleNotATime, androidsqlite.AccountsDeEntry{})
	unchanged, err := sealer.SealElement(withoutToken)
	require.NoError(t, err)
	assert.Equal(t, androidsqlite.NullString{}, unchanged["auth_token"])

	var nilSealer *Sealer
	same, err := nilSealer.SealElement(withToken)
	require.NoError(t, err)
	assert.Equal(t, withToken, same)
}
