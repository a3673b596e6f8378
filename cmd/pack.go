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
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/forensicanalysis/androidsqlite/sqlar"
)

// Pack is the androidsqlite pack commandline subcommand
func Pack() *cobra.Command {
	return &cobra.Command{
		Use:   "pack <archive> <path>...",
		Short: "Add files to a sqlite archive",
		Args:  cobra.MinimumNArgs(2), //nolint:gomnd
		RunE: func(cmd *cobra.Command, args []string) error {
			archive, err := openArchive(args[0])
			if err != nil {
				return err
			}
			defer archive.Close()

			srcFS := afero.NewOsFs()
			for _, arg := range args[1:] {
				n, err := sqlar.Pack(archive, srcFS, arg)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "pack %s (%d files)\n", filepath.ToSlash(arg), n)
			}
			return nil
		},
	}
}

func openArchive(name string) (*sqlar.FS, error) {
	if _, err := os.Stat(name); os.IsNotExist(err) {
		return sqlar.New(name)
	}
	archive, err := sqlar.Open(name)
	if err != nil {
		return nil, err
	}
	// reopen writable now that the file is known to be an archive
	if err := archive.Close(); err != nil {
		return nil, err
	}
	return sqlar.New(name)
}

// Ls is the androidsqlite ls commandline subcommand
func Ls() *cobra.Command {
	return &cobra.Command{
		Use:   "ls <archive>",
		Short: "List files in a sqlite archive",
		Args:  cobra.ExactArgs(1), //nolint:gomnd
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, err := sqlar.Open(args[0])
			if err != nil {
				return err
			}
			defer fs.Close()

			return afero.Walk(fs, "/", func(path string, info os.FileInfo, err error) error {
				if err != nil {
					return err
				}
				if info.IsDir() {
					return nil
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", filepath.ToSlash(path), info.Size())
				return err
			})
		},
	}
}

// Unpack is the androidsqlite unpack commandline subcommand
func Unpack() *cobra.Command {
	var mode string
	unpackCmd := &cobra.Command{
		Use:   "unpack <archive> <directory>",
		Short: "Extract files from a sqlite archive",
		Args:  cobra.ExactArgs(2), //nolint:gomnd
		RunE: func(cmd *cobra.Command, args []string) error {
			srcFS, err := sqlar.Open(args[0])
			if err != nil {
				return err
			}
			defer srcFS.Close()

			destFS := afero.NewBasePathFs(afero.NewOsFs(), args[1])

			return afero.Walk(srcFS, "/", func(srcPath string, info os.FileInfo, err error) error {
				if err != nil {
					return err
				}
				if info.IsDir() {
					return nil
				}

				fullPath := filepath.ToSlash(srcPath)
				dest, err := destinationPath(fullPath, mode)
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "unpack '%s' to '%s'\n", fullPath, dest)
				return copyItem(srcFS, destFS, fullPath, dest)
			})
		},
	}

	usage := `define the export filename and folder structure. can be one of:
folder (e.g. 'data/data/com.android.providers.telephony/databases/mmssms.db')
compact (e.g. 'data_data_com.android.providers.telephony_databases_mmssms.db')
basename (e.g. 'mmssms.db')
`
	unpackCmd.Flags().StringVar(&mode, "mode", "folder", usage)
	return unpackCmd
}

func destinationPath(fullPath string, mode string) (string, error) {
	switch mode {
	case "basename":
		return path.Base(fullPath), nil
	case "folder":
		return strings.TrimLeft(fullPath, "/"), nil
	case "compact":
		return normalizeFilePath(fullPath), nil
	default:
		return "", errors.Errorf("unknown mode %s", mode)
	}
}

func copyItem(src, dst afero.Fs, srcPath, dstPath string) error {
	if err := dst.MkdirAll(path.Dir(dstPath), 0o755); err != nil { //nolint:gomnd
		return err
	}

	in, err := src.Open(srcPath)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := dst.Create(dstPath)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close() // nolint:errcheck
		return err
	}
	return out.Close()
}

func first(s string, n int) string {
	if len(s) < n {
		n = len(s)
	}
	return s[:n]
}

func last(s string, n int) string {
	if len(s) < n {
		n = len(s)
	}
	return s[len(s)-n:]
}

func splitExt(filePath string) (nameOnly, ext string) {
	ext = path.Ext(filePath)
	return strings.TrimSuffix(filePath, ext), ext
}

func normalizeFilePath(filePath string) string {
	maxLength := 64
	maxSegmentLength := 4
	filePath = strings.TrimLeft(filePath, "/")
	pathSegments := strings.Split(filePath, "/")
	normalizedFilePath := strings.Join(pathSegments, "_")

	// get first 4 letters of every directory, while longer than maxLength
	for i := 0; i < len(pathSegments)-1 && len(normalizedFilePath) > maxLength; i++ {
		pathSegments[i] = first(pathSegments[i], maxSegmentLength)
		normalizedFilePath = strings.Join(pathSegments, "_")
	}

	if len(normalizedFilePath) > maxLength {
		// if still to long get first maxSegmentLength letters of filename + extension
		nameOnly, ext := splitExt(pathSegments[len(pathSegments)-1])
		pathSegments[len(pathSegments)-1] = first(nameOnly, maxSegmentLength) + ext
		normalizedFilePath = strings.Join(pathSegments, "_")
	}

	return last(normalizedFilePath, maxLength)
}
