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

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlConfig = `
parsers:
  - android_sms
store: events.db
log_level: debug
recipients:
  - age1ql3z7hjy54pw3hyww5ayyfg7zqgvc7w3j2elw8zmrj2kg5sfn9aqmcac8p
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "androidsqlite.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		env     map[string]string
		want    *Config
		wantErr bool
	}{
		{
			name: "defaults",
			env:  map[string]string{},
			want: Default(),
		},
		{
			name: "file",
			file: yamlConfig,
			env:  map[string]string{},
			want: &Config{
				Parsers:    []string{"android_sms"},
				Store:      "events.db",
				NATSPrefix: "android",
				Recipients: []string{"age1ql3z7hjy54pw3hyww5ayyfg7zqgvc7w3j2elw8zmrj2kg5sfn9aqmcac8p"},
				LogLevel:   "debug",
				LogFormat:  "console",
			},
		},
		{
			name: "environment overrides file",
			file: yamlConfig,
			env: map[string]string{
				"ANDROIDSQLITE_STORE":      "other.db",
				"ANDROIDSQLITE_PARSERS":    "android_sms,accounts_de_db",
				"ANDROIDSQLITE_LOG_FORMAT": "json",
				"STORE":                    "ignored.db",
			},
			want: &Config{
				Parsers:    []string{"android_sms", "accounts_de_db"},
				Store:      "other.db",
				NATSPrefix: "android",
				Recipients: []string{"age1ql3z7hjy54pw3hyww5ayyfg7zqgvc7w3j2elw8zmrj2kg5sfn9aqmcac8p"},
				LogLevel:   "debug",
				LogFormat:  "json",
			},
		},
		{
			name:    "invalid level",
			env:     map[string]string{"ANDROIDSQLITE_LOG_LEVEL": "loud"},
			wantErr: true,
		},
		{
			name:    "invalid format",
			env:     map[string]string{"ANDROIDSQLITE_LOG_FORMAT": "xml"},
			wantErr: true,
		},
		{
			name:    "invalid yaml",
			file:    "parsers: [",
			env:     map[string]string{},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := ""
			if tt.file != "" {
				path = writeConfig(t, tt.file)
			}
			got, err := Load(context.Background(), path, envconfig.MapLookuper(tt.env))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "missing.yml"), envconfig.MapLookuper(nil))
	assert.Error(t, err)
}

func TestConfig_Level(t *testing.T) {
	cfg := Default()
	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, level)
}
