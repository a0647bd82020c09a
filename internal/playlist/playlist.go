// SPDX-License-Identifier: MIT

// Package playlist assembles and writes per-category M3U documents.
package playlist

import (
	"bufio"
	"fmt"
	"io"
	"slices"
	"strings"

	"golang.org/x/text/cases"
)

// Entry is one playable channel line pair.
type Entry struct {
	Category    string
	DisplayName string
	TvgID       string
	LogoURL     string
	MediaURL    string
}

// Document is the full contents of one category playlist.
type Document struct {
	Category string
	Entries  []Entry
}

// Empty reports whether the document has no entries.
func (d Document) Empty() bool { return len(d.Entries) == 0 }

// Assemble builds the document for category, ordered by display name
// case-insensitively with ties broken by tvg-id. entries is not modified.
func Assemble(category string, entries []Entry) Document {
	out := slices.Clone(entries)
	fold := cases.Fold()
	keys := make(map[string]string, len(out))
	key := func(s string) string {
		k, ok := keys[s]
		if !ok {
			k = fold.String(s)
			keys[s] = k
		}
		return k
	}
	slices.SortStableFunc(out, func(a, b Entry) int {
		if c := strings.Compare(key(a.DisplayName), key(b.DisplayName)); c != 0 {
			return c
		}
		return strings.Compare(a.TvgID, b.TvgID)
	})
	return Document{Category: category, Entries: out}
}

// WriteM3U serializes doc in extended M3U form.
func WriteM3U(w io.Writer, doc Document) error {
	bw := bufio.NewWriter(w)
	bw.WriteString("#EXTM3U\n")
	for _, e := range doc.Entries {
		name := clean(e.DisplayName)
		fmt.Fprintf(bw, `#EXTINF:-1 tvg-id="%s" tvg-name="%s" tvg-logo="%s" group-title="%s",%s`+"\n",
			attr(e.TvgID), attr(name), attr(e.LogoURL), attr(doc.Category), name)
		bw.WriteString(clean(e.MediaURL) + "\n")
	}
	return bw.Flush()
}

var lineBreaks = strings.NewReplacer("\r", "", "\n", " ")

func clean(s string) string { return lineBreaks.Replace(s) }

// attr keeps a value inside its double-quoted attribute.
func attr(s string) string { return strings.ReplaceAll(clean(s), `"`, "'") }
