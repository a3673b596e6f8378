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

package androidsqlite

import (
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// Metadata describes a parser to the host.
type Metadata struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Structure   Structure `json:"structure"`
	// Schemas holds the expected create statements per table.
	Schemas map[string]string `json:"schemas,omitempty"`
	// RequiresSchemaMatch turns a differing create statement into a
	// format mismatch.
	RequiresSchemaMatch bool `json:"requires_schema_match"`
}

// Plugin is a parser for one kind of SQLite database.
type Plugin interface {
	Metadata() Metadata
	Queries() []Query
}

// Registry holds the parsers known to the host. Registration is explicit.
type Registry struct {
	mu      sync.RWMutex
	plugins map[string]Plugin
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{plugins: map[string]Plugin{}}
}

// Register adds p. Names must be unique.
func (r *Registry) Register(p Plugin) error {
	meta := p.Metadata()
	if meta.Name == "" {
		return errors.New("plugin requires a name")
	}
	if len(meta.Structure) == 0 {
		return errors.Errorf("plugin %s requires a structure", meta.Name)
	}
	for _, q := range p.Queries() {
		if q.Name == "" || q.SQL == "" || q.Normalize == nil {
			return errors.Errorf("plugin %s has an incomplete query %q", meta.Name, q.Name)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.plugins[meta.Name]; ok {
		return errors.Errorf("plugin %s already registered", meta.Name)
	}
	r.plugins[meta.Name] = p
	return nil
}

// Lookup returns the plugin registered as name.
func (r *Registry) Lookup(name string) (Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plugins[name]
	return p, ok
}

// Plugins returns all plugins sorted by name.
func (r *Registry) Plugins() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var names []string
	for name := range r.plugins {
		names = append(names, name)
	}
	sort.Strings(names)

	plugins := make([]Plugin, 0, len(names))
	for _, name := range names {
		plugins = append(plugins, r.plugins[name])
	}
	return plugins
}

// Metadata returns the metadata of all plugins sorted by name.
func (r *Registry) Metadata() []Metadata {
	var metadata []Metadata
	for _, p := range r.Plugins() {
		metadata = append(metadata, p.Metadata())
	}
	return metadata
}

// Select returns the plugins named in names, or all plugins for an empty
// list.
func (r *Registry) Select(names []string) ([]Plugin, error) {
	if len(names) == 0 {
		return r.Plugins(), nil
	}
	var plugins []Plugin
	for _, name := range names {
		p, ok := r.Lookup(name)
		if !ok {
			return nil, errors.Errorf("unknown parser %s", name)
		}
		plugins = append(plugins, p)
	}
	return plugins, nil
}
