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

package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"filippo.io/age"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/forensicanalysis/androidsqlite/internal/fixture"
	"github.com/forensicanalysis/androidsqlite/seal"
	"github.com/forensicanalysis/androidsqlite/store"
)

func run(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if args == nil {
		args = []string{}
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func lines(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func evidence(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	fixture.Create(t, dir, "accounts_de.db", fixture.AccountsDe)
	fixture.Create(t, dir, "mmssms.db", fixture.SMS)
	return dir
}

func scanToStore(t *testing.T) string {
	t.Helper()
	storePath := filepath.Join(t.TempDir(), "events.db")
	_, err := run(t, Scan(), "--store", storePath, "--log-level", "error", evidence(t))
	require.NoError(t, err)
	return storePath
}

func TestScan_Store(t *testing.T) {
	dir := evidence(t)
	storePath := filepath.Join(t.TempDir(), "events.db")
	metricsFile := filepath.Join(t.TempDir(), "androidsqlite.prom")

	out, err := run(t, Scan(), "--store", storePath, "--metrics-file", metricsFile, "--log-level", "error", dir)
	require.NoError(t, err)
	assert.Empty(t, out)

	s, err := store.Open(storePath)
	require.NoError(t, err)
	n, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 11, n)
	require.NoError(t, s.Close())

	metrics, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), `androidsqlite_events_total{parser="android_sms"} 4`)
	assert.Contains(t, string(metrics), `androidsqlite_files_total{result="sqlite"} 2`)

	// a second scan into the same store adds nothing
	_, err = run(t, Scan(), "--store", storePath, "--log-level", "error", dir)
	require.NoError(t, err)
	s, err = store.Open(storePath)
	require.NoError(t, err)
	defer s.Close()
	n, err = s.Count()
	require.NoError(t, err)
	assert.Equal(t, 11, n)
}

func TestScan_JSONLinesSealed(t *testing.T) {
	identity, err := age.GenerateX25519Identity()
	require.NoError(t, err)

	out, err := run(t, Scan(),
		"--parser", "accounts_de_db",
		"--recipient", identity.Recipient().String(),
		"--log-format", "json",
		evidence(t),
	)
	require.NoError(t, err)

	events := lines(out)
	require.Len(t, events, 3)

	sealed := 0
	for _, event := range events {
		token := gjson.Get(event, "auth_token")
		if token.Type == gjson.Null {
			continue
		}
		sealed++
		assert.Equal(t, "example@gmail.com", gjson.Get(event, "account_name").String())
		plaintext, err := seal.Open(identity.String(), token.String())
		require.NoError(t, err)
		assert.Equal(t, "ya29.token-one", plaintext)
	}
	assert.Equal(t, 1, sealed)
}

func TestScan_Sqlar(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "evidence.sqlar")
	_, err := run(t, Pack(), archive, evidence(t))
	require.NoError(t, err)

	out, err := run(t, Scan(), "--output", "-", "--log-level", "error", archive)
	require.NoError(t, err)
	assert.Len(t, lines(out), 11)
}

func TestScan_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown parser", []string{"--parser", "android_calls", "."}},
		{"invalid recipient", []string{"--recipient", "age1invalid", "."}},
		{"invalid log level", []string{"--log-level", "loud", "."}},
		{"missing config", []string{"--config", "missing.yml", "."}},
		{"no path", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, Scan(), tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestScan_Config(t *testing.T) {
	dir := evidence(t)
	storePath := filepath.Join(t.TempDir(), "events.db")
	configPath := filepath.Join(t.TempDir(), "androidsqlite.yml")
	require.NoError(t, os.WriteFile(configPath, []byte("parsers: [android_sms]\nstore: "+storePath+"\nlog_level: error\n"), 0o600))

	_, err := run(t, Scan(), "--config", configPath, dir)
	require.NoError(t, err)

	out, err := run(t, Events(), "count", storePath)
	require.NoError(t, err)
	assert.Equal(t, "4\n", out)
}

func TestEvents(t *testing.T) {
	storePath := scanToStore(t)

	out, err := run(t, Events(), "count", storePath)
	require.NoError(t, err)
	assert.Equal(t, "11\n", out)

	out, err = run(t, Events(), "all", "--field", "data_type", storePath)
	require.NoError(t, err)
	assert.Len(t, lines(out), 11)

	out, err = run(t, Events(), "select", "--field", "body", "android:sms:message", storePath)
	require.NoError(t, err)
	assert.Equal(t, "Hello\nHello\nMeeting at 10\n\n", out)

	out, err = run(t, Events(), "select", "--filter", "address=+1234567890", "--field", "timestamp_desc", "android:sms:message", storePath)
	require.NoError(t, err)
	assert.Equal(t, []string{"Received Time", "Sent Time"}, lines(out))

	out, err = run(t, Events(), "select", "--filter", "account_name=%@gmail.com", "--field", "account_name", "android:accounts:entry", storePath)
	require.NoError(t, err)
	assert.Len(t, lines(out), 2)

	ids, err := run(t, Events(), "all", "--field", "id", storePath)
	require.NoError(t, err)
	id := lines(ids)[0]

	out, err = run(t, Events(), "get", id, storePath)
	require.NoError(t, err)
	assert.Equal(t, id, gjson.Get(out, "id").String())

	_, err = run(t, Events(), "get", "event--missing", storePath)
	assert.Error(t, err)

	_, err = run(t, Events(), "select", "--filter", "address", "android:sms:message", storePath)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	storePath := scanToStore(t)

	out, err := run(t, Validate(), storePath)
	require.NoError(t, err)
	assert.Empty(t, out)

	_, err = run(t, Validate(), filepath.Join(t.TempDir(), "missing.db"))
	assert.Error(t, err)
}

func TestParsers(t *testing.T) {
	out, err := run(t, Parsers())
	require.NoError(t, err)
	require.Len(t, lines(out), 3)
	assert.True(t, strings.HasPrefix(lines(out)[0], "accounts_de_db"))
	assert.Contains(t, out, "Android SMS SQLite database")

	out, err = run(t, Parsers(), "--json")
	require.NoError(t, err)
	var metadata []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &metadata))
	require.Len(t, metadata, 3)
	assert.Equal(t, "android_sms", metadata[2]["name"])
}
