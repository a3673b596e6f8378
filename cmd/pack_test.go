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
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeFilePath(t *testing.T) {
	x80 := strings.Repeat("x", 80)

	pathTests := []struct {
		name              string
		srcPath           string
		normalizedSrcPath string
	}{
		{"short path", `/data/system_de/0/accounts_de.db`, `data_system_de_0_accounts_de.db`},
		{"telephony", `/data/data/com.android.providers.telephony/databases/mmssms.db`, `data_data_com.android.providers.telephony_databases_mmssms.db`},
		{"long directories", `/data/user_de/0/com.google.android.gms/databases/accounts_de_backup.db`, `data_user_0_com._databases_accounts_de_backup.db`},
		{"long file name", `/data/data/com.whatsapp/databases/` + x80 + `.db`, `data_data_com._data_xxxx.db`},
	}

	for _, pt := range pathTests {
		t.Run(pt.name, func(t *testing.T) {
			got := normalizeFilePath(pt.srcPath)

			if got != pt.normalizedSrcPath {
				t.Fatalf("need %v, got %v", pt.normalizedSrcPath, got)
			}
		})
	}
}

func Test_last(t *testing.T) {
	type args struct {
		s string
		n int
	}
	tests := []struct {
		name string
		args args
		want string
	}{
		{"long", args{"abcdef", 2}, "ef"},
		{"short", args{"abc", 4}, "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := last(tt.args.s, tt.args.n); got != tt.want {
				t.Errorf("last() = %v, want %v", got, tt.want)
			}
		})
	}
}

func Test_splitExt(t *testing.T) {
	tests := []struct {
		in, name, ext string
	}{
		{"mmssms.db", "mmssms", ".db"},
		{"mmssms.db-wal", "mmssms", ".db-wal"},
		{"accounts", "accounts", ""},
	}
	for _, tt := range tests {
		name, ext := splitExt(tt.in)
		assert.Equal(t, tt.name, name, tt.in)
		assert.Equal(t, tt.ext, ext, tt.in)
	}
}

func TestPackLsUnpack(t *testing.T) {
	dir := evidence(t)
	archive := filepath.Join(t.TempDir(), "evidence.sqlar")

	out, err := run(t, Pack(), archive, dir)
	require.NoError(t, err)
	assert.Contains(t, out, "(2 files)")

	out, err = run(t, Ls(), archive)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "/accounts_de.db\t"))
	assert.True(t, strings.HasPrefix(lines[1], "/mmssms.db\t"))

	tests := []struct {
		mode string
		want string
	}{
		{"folder", "mmssms.db"},
		{"basename", "mmssms.db"},
		{"compact", "mmssms.db"},
	}
	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			dest := t.TempDir()
			_, err := run(t, Unpack(), "--mode", tt.mode, archive, dest)
			require.NoError(t, err)

			want, err := os.ReadFile(filepath.Join(dir, "mmssms.db"))
			require.NoError(t, err)
			got, err := os.ReadFile(filepath.Join(dest, tt.want))
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}

	_, err = run(t, Unpack(), "--mode", "tree", archive, t.TempDir())
	assert.Error(t, err)
}

func TestPack_NotAnArchive(t *testing.T) {
	dir := evidence(t)
	_, err := run(t, Pack(), filepath.Join(dir, "mmssms.db"), dir)
	assert.Error(t, err)
}
