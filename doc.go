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

// Package androidsqlite extracts forensic artifacts from Android SQLite
// databases and turns them into timestamped events.
//
// # The pipeline
//
// Every parser follows the same steps:
//
//   - Open reads the catalog of a database (sqlite_master and table_info).
//   - Source.Validate checks the tables and columns the parser requires and
//     returns a *FormatMismatch if the database is of another format.
//   - Source.Query runs the fixed queries of the parser and yields RawRows.
//   - Query.Normalize maps every RawRow to a Record. Missing values are kept
//     as explicit nulls, times are converted from milliseconds to POSIX
//     seconds.
//   - Emit hands one event per populated TimestampRole to a Sink.
//
// Parser ties these steps together and collects warnings and extraction
// errors in a Report. The parsers themselves live in the plugins package and
// are registered explicitly:
//
//	registry := androidsqlite.NewRegistry()
//	if err := plugins.Register(registry); err != nil {
//		...
//	}
package androidsqlite
