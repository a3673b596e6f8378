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

package store

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/qri-io/jsonschema"
	"github.com/tidwall/gjson"
)

//go:embed schemas/*.json
var schemaFS embed.FS

var (
	schemasOnce sync.Once
	schemas     map[string]*jsonschema.Schema
	schemasErr  error
)

func schemaFile(dataType string) string {
	return "schemas/" + strings.ReplaceAll(dataType, ":", "_") + ".json"
}

func loadSchemas() (map[string]*jsonschema.Schema, error) {
	schemasOnce.Do(func() {
		entries, err := schemaFS.ReadDir("schemas")
		if err != nil {
			schemasErr = err
			return
		}
		schemas = map[string]*jsonschema.Schema{}
		for _, entry := range entries {
			content, err := schemaFS.ReadFile("schemas/" + entry.Name())
			if err != nil {
				schemasErr = err
				return
			}
			schema := &jsonschema.Schema{}
			if err := json.Unmarshal(content, schema); err != nil {
				schemasErr = errors.Wrapf(err, "unmarshal error %s", entry.Name())
				return
			}
			schemas["schemas/"+entry.Name()] = schema
		}
	})
	return schemas, schemasErr
}

func validateElement(ctx context.Context, element JSONElement) (flaws []string, err error) {
	if !gjson.GetBytes(element, "type").Exists() {
		flaws = append(flaws, "element needs to have a type")
	}

	dataType := gjson.GetBytes(element, discriminator)
	if !dataType.Exists() {
		return append(flaws, "element needs to have a "+discriminator), nil
	}

	s, err := loadSchemas()
	if err != nil {
		return nil, errors.Wrap(err, "could not load schemas")
	}
	schema, ok := s[schemaFile(dataType.String())]
	if !ok {
		return append(flaws, fmt.Sprintf("unknown data type %s", dataType.String())), nil
	}

	errs, err := schema.ValidateBytes(ctx, element)
	if err != nil {
		return nil, err
	}
	for _, verr := range errs {
		flaws = append(flaws, fmt.Sprintf("failed to validate element: %s", verr.Error()))
	}
	return flaws, nil
}
