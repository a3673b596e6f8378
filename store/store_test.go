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

package store

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"filippo.io/age"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/forensicanalysis/androidsqlite"
	"github.com/forensicanalysis/androidsqlite/internal/fixture"
	"github.com/forensicanalysis/androidsqlite/plugins"
	"github.com/forensicanalysis/androidsqlite/seal"
)

func parseInto(t *testing.T, sink androidsqlite.Sink, plugin androidsqlite.Plugin, script string) {
	t.Helper()
	path := fixture.Create(t, t.TempDir(), "test.db", script)
	source, err := androidsqlite.Open(path)
	require.NoError(t, err)
	defer source.Close() // nolint:errcheck

	_, err = androidsqlite.NewParser(sink, zerolog.Nop()).Parse(source, plugin)
	require.NoError(t, err)
}

func TestNewOpen(t *testing.T) {
	url := filepath.Join(t.TempDir(), "sub", "events.db")

	_, err := Open(url)
	assert.ErrorIs(t, err, ErrStoreNotExists)

	store, err := New(url)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, err = New(url)
	assert.ErrorIs(t, err, ErrStoreExists)

	store, err = Open(url)
	require.NoError(t, err)
	require.NoError(t, store.Close())
}

func TestOpen_WrongFormat(t *testing.T) {
	path := fixture.Create(t, t.TempDir(), "mmssms.db", fixture.SMS)
	_, err := Open(path)
	assert.Error(t, err)
}

func TestStore_Emit(t *testing.T) {
	store, err := New(":memory:")
	require.NoError(t, err)
	defer store.Close() // nolint:errcheck

	parseInto(t, store, plugins.SMS{}, fixture.SMS)

	n, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	elements, err := store.Select([]map[string]string{{"timestamp_desc": "Sent Time"}})
	require.NoError(t, err)
	require.Len(t, elements, 1)
	assert.Equal(t, "+1234567890", gjson.GetBytes(elements[0], "address").String())
	assert.Equal(t, int64(1733048100), gjson.GetBytes(elements[0], "timestamp").Int())

	id := gjson.GetBytes(elements[0], "id").String()
	element, err := store.Get(id)
	require.NoError(t, err)
	assert.JSONEq(t, string(elements[0]), string(element))

	_, err = store.Get("event--missing")
	assert.Error(t, err)
}

func TestStore_Deduplicates(t *testing.T) {
	store, err := New(":memory:")
	require.NoError(t, err)
	defer store.Close() // nolint:errcheck

	parseInto(t, store, plugins.SMS{}, fixture.SMS)
	parseInto(t, store, plugins.SMS{}, fixture.SMS)

	n, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestStore_Select(t *testing.T) {
	store, err := New(":memory:")
	require.NoError(t, err)
	defer store.Close() // nolint:errcheck

	parseInto(t, store, plugins.SMS{}, fixture.SMS)
	parseInto(t, store, plugins.Accounts{}, fixture.AccountsDe)

	tests := []struct {
		name       string
		conditions []map[string]string
		want       int
	}{
		{"all", nil, 8},
		{"by data type", []map[string]string{{"data_type": androidsqlite.DataTypeSMSMessage}}, 4},
		{"like pattern", []map[string]string{{"data_type": "android:accounts:%"}}, 4},
		{"and", []map[string]string{{"data_type": androidsqlite.DataTypeAccount, "timestamp_desc": "Not a time"}}, 2},
		{"or", []map[string]string{{"timestamp_desc": "Sent Time"}, {"timestamp_desc": "Last Password Entry Time"}}, 2},
		{"none", []map[string]string{{"data_type": "xxx"}}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			elements, err := store.Select(tt.conditions)
			require.NoError(t, err)
			assert.Len(t, elements, tt.want)
		})
	}
}

func TestStore_Validate(t *testing.T) {
	store, err := New(":memory:")
	require.NoError(t, err)
	defer store.Close() // nolint:errcheck

	parseInto(t, store, plugins.SMS{}, fixture.SMS)
	parseInto(t, store, plugins.AccountsDe{}, fixture.AccountsDe)
	parseInto(t, store, plugins.Accounts{}, fixture.AccountsDe)

	flaws, err := store.Validate(context.Background())
	require.NoError(t, err)
	assert.Empty(t, flaws)

	_, err = store.Insert(androidsqlite.Element{
		"id":        "event--broken",
		"type":      "event",
		"data_type": androidsqlite.DataTypeSMSMessage,
		"address":   42,
	})
	require.NoError(t, err)

	flaws, err = store.Validate(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, flaws)
	for _, flaw := range flaws {
		assert.Contains(t, flaw, "event--broken")
	}
}

func TestStore_Insert_RequiresDataType(t *testing.T) {
	store, err := New(":memory:")
	require.NoError(t, err)
	defer store.Close() // nolint:errcheck

	_, err = store.Insert(androidsqlite.Element{"type": "event"})
	assert.Error(t, err)
}

func TestStore_Sealer(t *testing.T) {
	identity, err := age.GenerateX25519Identity()
	require.NoError(t, err)
	sealer, err := seal.New([]string{identity.Recipient().String()})
	require.NoError(t, err)

	store, err := New(":memory:", WithSealer(sealer))
	require.NoError(t, err)
	defer store.Close() // nolint:errcheck

	parseInto(t, store, plugins.AccountsDe{}, fixture.AccountsDe)
	parseInto(t, store, plugins.AccountsDe{}, fixture.AccountsDe)

	elements, err := store.Select([]map[string]string{{"account_name": "example@gmail.com"}})
	require.NoError(t, err)
	require.Len(t, elements, 1)

	token := gjson.GetBytes(elements[0], "auth_token").String()
	assert.NotContains(t, token, "ya29")
	plaintext, err := seal.Open(identity.String(), token)
	require.NoError(t, err)
	assert.Equal(t, "ya29.token-one", plaintext)

	n, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestStore_Views(t *testing.T) {
	url := filepath.Join(t.TempDir(), "events.db")
	store, err := New(url)
	require.NoError(t, err)
	parseInto(t, store, plugins.SMS{}, fixture.SMS)
	require.NoError(t, store.Close())

	db, err := sql.Open("sqlite", url)
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRow(`SELECT count(*) FROM "android:sms:message" WHERE body IS NULL`).Scan(&count))
	assert.Equal(t, 1, count)

	var address string
	require.NoError(t, db.QueryRow(`SELECT address FROM "android:sms:message" WHERE timestamp_desc = 'Sent Time'`).Scan(&address))
	assert.Equal(t, "+1234567890", address)

	reopened, err := Open(url)
	require.NoError(t, err)
	columns := reopened.columns.sorted()
	require.Contains(t, columns, androidsqlite.DataTypeSMSMessage)
	assert.Contains(t, columns[androidsqlite.DataTypeSMSMessage], "body")
	assert.False(t, reopened.columns.isDirty())
	require.NoError(t, reopened.Close())
}

func TestViewColumns(t *testing.T) {
	columns := &viewColumns{views: map[string]map[string]struct{}{}}
	assert.False(t, columns.isDirty())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			columns.add("sms", "body", fmt.Sprintf("field_%d", i%2))
		}(i)
	}
	wg.Wait()
	assert.True(t, columns.isDirty())

	sorted := columns.sorted()
	assert.Equal(t, map[string][]string{"sms": {"body", "field_0", "field_1"}}, sorted)

	columns.clean()
	columns.add("sms", "body")
	assert.False(t, columns.isDirty(), "known fields do not change the views")

	sorted["sms"][0] = "changed"
	assert.Equal(t, "body", columns.sorted()["sms"][0], "sorted returns a copy")
}
