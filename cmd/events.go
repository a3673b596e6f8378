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
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/forensicanalysis/androidsqlite/store"
)

// Events is the androidsqlite events commandline subcommand
func Events() *cobra.Command {
	eventsCommand := &cobra.Command{
		Use:   "events",
		Short: "Read events from a store",
	}
	eventsCommand.AddCommand(getCommand(), selectCommand(), allCommand(), countCommand())
	return eventsCommand
}

func getCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id> <store>",
		Short: "Retrieve a single event",
		Args:  cobra.ExactArgs(2), //nolint:gomnd
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := store.Open(args[1])
			if err != nil {
				return err
			}
			defer s.Close()

			element, err := s.Get(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", element)
			return nil
		},
	}
}

func selectCommand() *cobra.Command {
	var filters []string
	var field string
	selectCommand := &cobra.Command{
		Use:   "select <data type> <store>",
		Short: "Retrieve all events of a data type",
		Args:  cobra.ExactArgs(2), //nolint:gomnd
		RunE: func(cmd *cobra.Command, args []string) error {
			condition, err := parseFilters(filters)
			if err != nil {
				return err
			}
			condition["data_type"] = args[0]

			s, err := store.Open(args[1])
			if err != nil {
				return err
			}
			defer s.Close()

			elements, err := s.Select([]map[string]string{condition})
			if err != nil {
				return err
			}
			return printElements(cmd.OutOrStdout(), elements, field)
		},
	}
	selectCommand.Flags().StringSliceVar(&filters, "filter", nil, "field=pattern, SQL LIKE patterns that must all match")
	selectCommand.Flags().StringVar(&field, "field", "", "print only this field (gjson path)")
	return selectCommand
}

func allCommand() *cobra.Command {
	var field string
	allCommand := &cobra.Command{
		Use:   "all <store>",
		Short: "Retrieve all events",
		Args:  cobra.ExactArgs(1), //nolint:gomnd
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := store.Open(args[0])
			if err != nil {
				return err
			}
			defer s.Close()

			elements, err := s.All()
			if err != nil {
				return err
			}
			return printElements(cmd.OutOrStdout(), elements, field)
		},
	}
	allCommand.Flags().StringVar(&field, "field", "", "print only this field (gjson path)")
	return allCommand
}

func countCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "count <store>",
		Short: "Count the stored events",
		Args:  cobra.ExactArgs(1), //nolint:gomnd
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := store.Open(args[0])
			if err != nil {
				return err
			}
			defer s.Close()

			n, err := s.Count()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}
}

func parseFilters(filters []string) (map[string]string, error) {
	condition := map[string]string{}
	for _, filter := range filters {
		parts := strings.SplitN(filter, "=", 2) //nolint:gomnd
		if len(parts) != 2 || parts[0] == "" {
			return nil, errors.Errorf("invalid filter %q, want field=pattern", filter)
		}
		condition[parts[0]] = parts[1]
	}
	return condition, nil
}

func printElements(w io.Writer, elements []store.JSONElement, field string) error {
	for _, element := range elements {
		line := string(element)
		if field != "" {
			line = gjson.GetBytes(element, field).String()
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
