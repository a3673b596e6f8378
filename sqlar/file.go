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

package sqlar

import (
	"bytes"
	"io"
	"os"
	"path"
	"time"

	"crawshaw.io/sqlite"
)

type fileInfo struct {
	name  string
	sz    int64
	mode  os.FileMode
	mtime time.Time
	dir   bool
}

func newFileInfo(stmt *sqlite.Stmt) *fileInfo {
	mode := stmt.GetInt64("mode")
	size := stmt.GetInt64("sz")

	info := &fileInfo{
		name:  path.Base(stmt.GetText("name")),
		sz:    size,
		mode:  os.FileMode(mode).Perm(),
		mtime: time.Unix(stmt.GetInt64("mtime"), 0),
	}
	switch mode & modeType {
	case modeDir:
		info.dir = true
	case 0:
		info.dir = size == 0 && stmt.GetInt64("data_null") == 1
	}
	if info.dir {
		info.mode |= os.ModeDir
		info.sz = 0
	}
	return info
}

func (i *fileInfo) Name() string       { return i.name }
func (i *fileInfo) Size() int64        { return i.sz }
func (i *fileInfo) Mode() os.FileMode  { return i.mode }
func (i *fileInfo) ModTime() time.Time { return i.mtime }
func (i *fileInfo) IsDir() bool        { return i.dir }
func (i *fileInfo) Sys() interface{}   { return nil }

// file is a read, write or directory handle. Reads are served from memory;
// writes are buffered and stored on Close.
type file struct {
	fs   *FS
	name string
	info os.FileInfo

	reader *bytes.Reader

	children []os.FileInfo
	dirPos   int

	buf  *bytes.Buffer
	perm os.FileMode

	closed bool
}

func newReadFile(name string, info os.FileInfo, data []byte) *file {
	return &file{name: name, info: info, reader: bytes.NewReader(data)}
}

func newDirFile(name string, info os.FileInfo, children []os.FileInfo) *file {
	return &file{name: name, info: info, children: children}
}

func newWriteFile(fs *FS, name string, perm os.FileMode) *file {
	if perm == 0 {
		perm = 0o644
	}
	return &file{fs: fs, name: name, buf: &bytes.Buffer{}, perm: perm}
}

func (f *file) Name() string {
	return f.name
}

func (f *file) check(op string, ok bool) error {
	if f.closed {
		return &os.PathError{Op: op, Path: f.name, Err: os.ErrClosed}
	}
	if !ok {
		return &os.PathError{Op: op, Path: f.name, Err: ErrNotImplemented}
	}
	return nil
}

func (f *file) Read(p []byte) (int, error) {
	if err := f.check("read", f.reader != nil); err != nil {
		return 0, err
	}
	return f.reader.Read(p)
}

func (f *file) ReadAt(p []byte, off int64) (int, error) {
	if err := f.check("read", f.reader != nil); err != nil {
		return 0, err
	}
	return f.reader.ReadAt(p, off)
}

func (f *file) Seek(offset int64, whence int) (int64, error) {
	if err := f.check("seek", f.reader != nil); err != nil {
		return 0, err
	}
	return f.reader.Seek(offset, whence)
}

func (f *file) Write(p []byte) (int, error) {
	if err := f.check("write", f.buf != nil); err != nil {
		return 0, err
	}
	return f.buf.Write(p)
}

func (f *file) WriteAt(p []byte, off int64) (int, error) {
	return 0, &os.PathError{Op: "write", Path: f.name, Err: ErrNotImplemented}
}

func (f *file) WriteString(s string) (int, error) {
	return f.Write([]byte(s))
}

func (f *file) Readdir(count int) ([]os.FileInfo, error) {
	if err := f.check("readdir", f.children != nil || (f.info != nil && f.info.IsDir())); err != nil {
		return nil, err
	}
	rest := f.children[f.dirPos:]
	if count <= 0 {
		f.dirPos = len(f.children)
		return rest, nil
	}
	if len(rest) == 0 {
		return nil, io.EOF
	}
	if count > len(rest) {
		count = len(rest)
	}
	f.dirPos += count
	return rest[:count], nil
}

func (f *file) Readdirnames(n int) ([]string, error) {
	infos, err := f.Readdir(n)
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name())
	}
	return names, err
}

func (f *file) Stat() (os.FileInfo, error) {
	if f.buf != nil {
		return &fileInfo{name: path.Base(f.name), sz: int64(f.buf.Len()), mode: f.perm.Perm(), mtime: time.Now()}, nil
	}
	return f.info, nil
}

func (f *file) Sync() error {
	return nil
}

func (f *file) Truncate(size int64) error {
	if err := f.check("truncate", f.buf != nil); err != nil {
		return err
	}
	if size < 0 || size > int64(f.buf.Len()) {
		return &os.PathError{Op: "truncate", Path: f.name, Err: ErrNotImplemented}
	}
	f.buf.Truncate(int(size))
	return nil
}

func (f *file) Close() error {
	if f.closed {
		return &os.PathError{Op: "close", Path: f.name, Err: os.ErrClosed}
	}
	f.closed = true
	if f.buf != nil {
		return f.fs.store(f.name, f.perm, f.buf.Bytes())
	}
	return nil
}
