// SPDX-License-Identifier: MIT

// Package catalog holds the fixed set of channels grouped by category.
package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/youngsadsatan/ssYouTube/internal/validate"
)

// ChannelRef identifies one channel inside one category.
type ChannelRef struct {
	Category string
	Handle   string
}

// DisplayName is the handle without its leading "@".
func (r ChannelRef) DisplayName() string {
	return strings.TrimPrefix(r.Handle, "@")
}

func (r ChannelRef) String() string {
	return r.Category + "/" + r.Handle
}

// Category is a named, ordered group of handles.
type Category struct {
	Name    string
	Handles []string
}

// Catalog is an immutable, deterministically ordered channel list.
// Categories are sorted by name and handles within a category are sorted
// and unique.
type Catalog struct {
	categories []Category
}

// New builds a catalog from a category -> handles mapping.
func New(groups map[string][]string) (*Catalog, error) {
	v := validate.New()
	cats := make([]Category, 0, len(groups))
	for name, handles := range groups {
		v.Category("category", name)
		uniq := make([]string, 0, len(handles))
		for _, h := range handles {
			h = strings.TrimSpace(h)
			v.Handle(name+".handle", h)
			if !slices.Contains(uniq, h) {
				uniq = append(uniq, h)
			}
		}
		slices.Sort(uniq)
		cats = append(cats, Category{Name: name, Handles: uniq})
	}
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	slices.SortFunc(cats, func(a, b Category) int { return strings.Compare(a.Name, b.Name) })
	return &Catalog{categories: cats}, nil
}

// Categories returns the categories in order. The slice is a copy.
func (c *Catalog) Categories() []Category {
	out := make([]Category, len(c.categories))
	for i, cat := range c.categories {
		out[i] = Category{Name: cat.Name, Handles: slices.Clone(cat.Handles)}
	}
	return out
}

// Channels returns the channel references of one category in order.
func (c *Catalog) Channels(category string) []ChannelRef {
	for _, cat := range c.categories {
		if cat.Name != category {
			continue
		}
		refs := make([]ChannelRef, len(cat.Handles))
		for i, h := range cat.Handles {
			refs[i] = ChannelRef{Category: cat.Name, Handle: h}
		}
		return refs
	}
	return nil
}

// Len reports the total number of channel references.
func (c *Catalog) Len() int {
	n := 0
	for _, cat := range c.categories {
		n += len(cat.Handles)
	}
	return n
}

type fileCatalog struct {
	Categories []struct {
		Name     string   `yaml:"name"`
		Channels []string `yaml:"channels"`
	} `yaml:"categories"`
}

// Load reads a YAML catalog file. An empty path yields the built-in catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	// #nosec G304 -- catalog path is provided by the operator via CLI/ENV
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML catalog document strictly.
func Parse(data []byte) (*Catalog, error) {
	var fc fileCatalog
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("catalog is empty")
		}
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	groups := make(map[string][]string, len(fc.Categories))
	for _, c := range fc.Categories {
		name := strings.TrimSpace(c.Name)
		groups[name] = append(groups[name], c.Channels...)
	}
	return New(groups)
}
