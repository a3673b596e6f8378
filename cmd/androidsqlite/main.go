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

// Package androidsqlite implements the androidsqlite command line tool. It
// parses Android SQLite databases into timestamped events.
//
//	scan      Parse databases in files, directories or sqlar archives
//	parsers   List the available parsers
//	events    Read events from a store (get, select, all, count)
//	validate  Validate the events of a store
//	pack      Add files to a sqlite archive
//	unpack    Extract files from a sqlite archive
//	ls        List files in a sqlite archive
//
// # Usage
//
// Parse an extraction into a store:
//
//	androidsqlite scan --store events.db extraction/
//
// Parse a sqlite archive to JSON lines, sealing auth tokens:
//
//	androidsqlite scan --recipient age1... evidence.sqlar > events.jsonl
//
// Read events:
//
//	androidsqlite events select android:sms:message events.db
//
// Settings are read from --config, a .env file and ANDROIDSQLITE_*
// environment variables; flags take precedence.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/forensicanalysis/androidsqlite/cmd"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:          "androidsqlite",
		Short:        "Parse Android SQLite databases",
		SilenceUsage: true,
	}
	rootCmd.AddCommand(cmd.Scan(), cmd.Parsers(), cmd.Events(), cmd.Validate(),
		cmd.Pack(), cmd.Unpack(), cmd.Ls())
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
