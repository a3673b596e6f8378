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

// Package sqlar provides an afero.Fs on SQLite archives (sqlar), the format
// written by "sqlite3 -A". Evidence collected from a device can be packed
// into a single archive and scanned without unpacking it.
package sqlar

import (
	"bytes"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"crawshaw.io/sqlite"
	"crawshaw.io/sqlite/sqlitex"
	"github.com/klauspost/compress/zlib"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// ErrNotImplemented is returned for file operations sqlar cannot express.
var ErrNotImplemented = errors.New("not implemented")

const table = `CREATE TABLE IF NOT EXISTS sqlar(
  name TEXT PRIMARY KEY,  -- name of the file
  mode INT,               -- access permissions
  mtime INT,              -- last modification time
  sz INT,                 -- original file size
  data BLOB               -- compressed content
);`

// Unix file type bits as stored in the mode column.
const (
	modeType = 0o170000
	modeDir  = 0o040000
	modeFile = 0o100000
)

// FS is an afero.Fs backed by the sqlar table of a SQLite database.
type FS struct {
	mu       sync.Mutex
	conn     *sqlite.Conn
	readOnly bool
}

// New opens or creates the archive at path for reading and writing.
func New(path string) (*FS, error) {
	conn, err := sqlite.OpenConn(path, sqlite.SQLITE_OPEN_READWRITE|sqlite.SQLITE_OPEN_CREATE|sqlite.SQLITE_OPEN_NOMUTEX)
	if err != nil {
		return nil, err
	}
	if err := sqlitex.ExecTransient(conn, table, nil); err != nil {
		conn.Close() // nolint:errcheck
		return nil, errors.Wrap(err, "could not create sqlar table")
	}
	return &FS{conn: conn}, nil
}

// Open opens an existing archive read-only.
func Open(path string) (*FS, error) {
	uri := &url.URL{Scheme: "file", Path: filepath.ToSlash(path), RawQuery: "mode=ro"}
	conn, err := sqlite.OpenConn(uri.String(), sqlite.SQLITE_OPEN_READONLY|sqlite.SQLITE_OPEN_URI|sqlite.SQLITE_OPEN_NOMUTEX)
	if err != nil {
		return nil, err
	}

	found := false
	err = sqlitex.ExecTransient(conn, "SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'sqlar'", func(*sqlite.Stmt) error {
		found = true
		return nil
	})
	if err == nil && !found {
		err = errors.Errorf("%s is not a sqlar archive", path)
	}
	if err != nil {
		conn.Close() // nolint:errcheck
		return nil, err
	}
	return &FS{conn: conn, readOnly: true}, nil
}

// Name implements afero.Fs.
func (fs *FS) Name() string {
	return "sqlar"
}

// Close closes the archive.
func (fs *FS) Close() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.conn == nil {
		return nil
	}
	err := fs.conn.Close()
	fs.conn = nil
	return err
}

func (fs *FS) writable(op, name string) error {
	if fs.readOnly {
		return &os.PathError{Op: op, Path: name, Err: os.ErrPermission}
	}
	return nil
}

// Create implements afero.Fs.
func (fs *FS) Create(name string) (afero.File, error) {
	return fs.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
}

// Open implements afero.Fs.
func (fs *FS) Open(name string) (afero.File, error) {
	return fs.OpenFile(name, os.O_RDONLY, 0)
}

// OpenFile implements afero.Fs. Files opened for writing are stored when
// they are closed; appending is not supported.
func (fs *FS) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	name = normalizeFilename(name)

	if flag&(os.O_WRONLY|os.O_RDWR) != 0 {
		if err := fs.writable("open", name); err != nil {
			return nil, err
		}
		if flag&os.O_APPEND != 0 {
			return nil, &os.PathError{Op: "open", Path: name, Err: ErrNotImplemented}
		}
		info, err := fs.Stat(name)
		switch {
		case err == nil && info.IsDir():
			return nil, &os.PathError{Op: "open", Path: name, Err: errors.New("is a directory")}
		case err == nil && flag&os.O_EXCL != 0:
			return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrExist}
		case os.IsNotExist(err) && flag&os.O_CREATE == 0:
			return nil, err
		case err != nil && !os.IsNotExist(err):
			return nil, err
		}
		return newWriteFile(fs, name, perm), nil
	}

	info, err := fs.stat(name)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		children, err := fs.children(name)
		if err != nil {
			return nil, err
		}
		return newDirFile(name, info, children), nil
	}

	data, err := fs.load(name)
	if err != nil {
		return nil, err
	}
	return newReadFile(name, info, data), nil
}

func (fs *FS) load(name string) ([]byte, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	var sz int64
	var data []byte
	err := sqlitex.ExecTransient(fs.conn, "SELECT sz, data FROM sqlar WHERE name = ?", func(stmt *sqlite.Stmt) error {
		sz = stmt.GetInt64("sz")
		data = make([]byte, stmt.GetLen("data"))
		stmt.GetBytes("data", data)
		return nil
	}, name)
	if err != nil {
		return nil, err
	}
	return decompress(sz, data)
}

// Stat implements afero.Fs. Directories without their own entry exist if a
// file below them exists.
func (fs *FS) Stat(name string) (os.FileInfo, error) {
	info, err := fs.stat(normalizeFilename(name))
	if err != nil {
		return nil, err
	}
	return info, nil
}

func (fs *FS) stat(name string) (*fileInfo, error) {
	if name == "" {
		return &fileInfo{name: ".", mode: os.ModeDir | 0o755, dir: true}, nil
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	var info *fileInfo
	err := sqlitex.ExecTransient(fs.conn, "SELECT name, mode, mtime, sz, data IS NULL AS data_null FROM sqlar WHERE name = ?", func(stmt *sqlite.Stmt) error {
		info = newFileInfo(stmt)
		return nil
	}, name)
	if err != nil {
		return nil, err
	}
	if info != nil {
		return info, nil
	}

	implicit := false
	err = sqlitex.ExecTransient(fs.conn, `SELECT 1 FROM sqlar WHERE substr(name, 1, ?) = ? LIMIT 1`, func(*sqlite.Stmt) error {
		implicit = true
		return nil
	}, runeLen(name+"/"), name+"/")
	if err != nil {
		return nil, err
	}
	if !implicit {
		return nil, &os.PathError{Op: "stat", Path: name, Err: os.ErrNotExist}
	}
	return &fileInfo{name: path.Base(name), mode: os.ModeDir | 0o755, dir: true}, nil
}

func (fs *FS) children(name string) ([]os.FileInfo, error) {
	prefix := ""
	if name != "" {
		prefix = name + "/"
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	found := map[string]*fileInfo{}
	err := sqlitex.ExecTransient(fs.conn, `SELECT name, mode, mtime, sz, data IS NULL AS data_null FROM sqlar WHERE substr(name, 1, ?) = ?`, func(stmt *sqlite.Stmt) error {
		rest := strings.TrimPrefix(stmt.GetText("name"), prefix)
		if rest == "" {
			return nil
		}
		if i := strings.Index(rest, "/"); i >= 0 {
			dir := rest[:i]
			if _, ok := found[dir]; !ok {
				found[dir] = &fileInfo{name: dir, mode: os.ModeDir | 0o755, dir: true}
			}
			return nil
		}
		found[rest] = newFileInfo(stmt)
		return nil
	}, runeLen(prefix), prefix)
	if err != nil {
		return nil, err
	}

	var names []string
	for child := range found {
		names = append(names, child)
	}
	sort.Strings(names)

	children := make([]os.FileInfo, 0, len(names))
	for _, child := range names {
		children = append(children, found[child])
	}
	return children, nil
}

func (fs *FS) store(name string, perm os.FileMode, content []byte) error {
	data, err := compress(content)
	if err != nil {
		return err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	return sqlitex.ExecTransient(fs.conn, "INSERT OR REPLACE INTO sqlar (name, mode, mtime, sz, data) VALUES (?, ?, ?, ?, ?)", nil,
		name, int64(modeFile|perm.Perm()), time.Now().Unix(), int64(len(content)), data)
}

// Mkdir implements afero.Fs.
func (fs *FS) Mkdir(name string, perm os.FileMode) error {
	name = normalizeFilename(name)
	if err := fs.writable("mkdir", name); err != nil {
		return err
	}
	if _, err := fs.stat(name); err == nil {
		return &os.PathError{Op: "mkdir", Path: name, Err: os.ErrExist}
	}
	return fs.mkdir(name, perm)
}

func (fs *FS) mkdir(name string, perm os.FileMode) error {
	if name == "" {
		return nil
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return sqlitex.ExecTransient(fs.conn, "INSERT OR IGNORE INTO sqlar (name, mode, mtime, sz, data) VALUES (?, ?, ?, 0, NULL)", nil,
		name, int64(modeDir|perm.Perm()), time.Now().Unix())
}

// MkdirAll implements afero.Fs.
func (fs *FS) MkdirAll(p string, perm os.FileMode) error {
	p = normalizeFilename(p)
	if err := fs.writable("mkdir", p); err != nil {
		return err
	}
	all := ""
	for _, part := range strings.Split(p, "/") {
		all = path.Join(all, part)
		if err := fs.mkdir(all, perm); err != nil {
			return err
		}
	}
	return nil
}

// Remove implements afero.Fs.
func (fs *FS) Remove(name string) error {
	name = normalizeFilename(name)
	if err := fs.writable("remove", name); err != nil {
		return err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	if err := sqlitex.ExecTransient(fs.conn, "DELETE FROM sqlar WHERE name = ?", nil, name); err != nil {
		return err
	}
	if fs.conn.Changes() == 0 {
		return &os.PathError{Op: "remove", Path: name, Err: os.ErrNotExist}
	}
	return nil
}

// RemoveAll implements afero.Fs.
func (fs *FS) RemoveAll(p string) error {
	p = normalizeFilename(p)
	if err := fs.writable("remove", p); err != nil {
		return err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	if p == "" {
		return sqlitex.ExecTransient(fs.conn, "DELETE FROM sqlar", nil)
	}
	return sqlitex.ExecTransient(fs.conn, `DELETE FROM sqlar WHERE name = ? OR substr(name, 1, ?) = ?`, nil, p, runeLen(p+"/"), p+"/")
}

// Rename implements afero.Fs. Entries below a renamed directory move with it.
func (fs *FS) Rename(oldname, newname string) error {
	oldname = normalizeFilename(oldname)
	newname = normalizeFilename(newname)
	if err := fs.writable("rename", oldname); err != nil {
		return err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	return sqlitex.ExecTransient(fs.conn,
		`UPDATE sqlar SET name = ? || substr(name, ?) WHERE name = ? OR substr(name, 1, ?) = ?`, nil,
		newname, runeLen(oldname)+1, oldname, runeLen(oldname+"/"), oldname+"/")
}

// Chmod implements afero.Fs. Only permission bits are changed.
func (fs *FS) Chmod(name string, mode os.FileMode) error {
	name = normalizeFilename(name)
	if err := fs.writable("chmod", name); err != nil {
		return err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	return sqlitex.ExecTransient(fs.conn, "UPDATE sqlar SET mode = (mode & ?) | ? WHERE name = ?", nil,
		int64(modeType), int64(mode.Perm()), name)
}

// Chown implements afero.Fs. sqlar does not record owners.
func (fs *FS) Chown(name string, uid, gid int) error {
	return fs.writable("chown", normalizeFilename(name))
}

// Chtimes implements afero.Fs. Only the modification time is recorded.
func (fs *FS) Chtimes(name string, atime time.Time, mtime time.Time) error {
	name = normalizeFilename(name)
	if err := fs.writable("chtimes", name); err != nil {
		return err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	return sqlitex.ExecTransient(fs.conn, "UPDATE sqlar SET mtime = ? WHERE name = ?", nil, mtime.Unix(), name)
}

// compress returns the zlib stream of content, or content itself if
// compression does not make it smaller.
func compress(content []byte) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := zlib.NewWriter(buf)
	if _, err := w.Write(content); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	if buf.Len() >= len(content) {
		return content, nil
	}
	return buf.Bytes(), nil
}

// decompress reverses compress. Data of the original size is stored as is.
func decompress(sz int64, data []byte) ([]byte, error) {
	if int64(len(data)) == sz {
		return data, nil
	}
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "could not decompress")
	}
	defer r.Close()

	content, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "could not decompress")
	}
	if int64(len(content)) != sz {
		return nil, fmt.Errorf("size mismatch (is %d, expected %d)", len(content), sz)
	}
	return content, nil
}

// runeLen is the length of s as counted by the substr SQL function, which
// works on characters instead of bytes. LIKE is avoided as it folds ASCII case.
func runeLen(s string) int64 {
	return int64(utf8.RuneCountInString(s))
}

func normalizeFilename(name string) string {
	name = path.Clean("/" + filepath.ToSlash(name))
	return strings.TrimPrefix(name, "/")
}
