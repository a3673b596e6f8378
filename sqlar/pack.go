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
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// Pack copies the tree below root of src into the archive. Paths are stored
// relative to root. It returns the number of files added.
func Pack(archive afero.Fs, src afero.Fs, root string) (int, error) {
	files := 0
	err := afero.Walk(src, root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		if rel == "." {
			if info.IsDir() {
				return nil
			}
			rel = filepath.Base(p)
		}

		if info.IsDir() {
			return archive.MkdirAll(rel, info.Mode().Perm())
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		if err := copyFile(archive, src, p, rel, info.Mode().Perm()); err != nil {
			return errors.Wrapf(err, "could not pack %s", p)
		}
		files++
		return archive.Chtimes(rel, info.ModTime(), info.ModTime())
	})
	return files, err
}

func copyFile(dst, src afero.Fs, srcPath, dstPath string, perm os.FileMode) error {
	in, err := src.Open(srcPath)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := dst.OpenFile(dstPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close() // nolint:errcheck
		return err
	}
	return out.Close()
}
