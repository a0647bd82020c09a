// SPDX-License-Identifier: MIT

package live

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// document is the fetched landing page shared by all strategies. The HTML
// tree is parsed on first use.
type document struct {
	finalURL string
	body     []byte

	parsed bool
	root   *html.Node
	err    error
}

func (d *document) tree() (*html.Node, error) {
	if !d.parsed {
		d.parsed = true
		d.root, d.err = html.Parse(bytes.NewReader(d.body))
	}
	return d.root, d.err
}

// walk visits nodes depth-first in document order until fn returns false.
func walk(n *html.Node, fn func(*html.Node) bool) bool {
	if !fn(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, fn) {
			return false
		}
	}
	return true
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}

func text(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}

// scripts returns the text of every inline <script> element whose type
// satisfies match.
func scripts(root *html.Node, match func(typ string) bool) []string {
	var out []string
	walk(root, func(n *html.Node) bool {
		if n.Type != html.ElementNode || n.DataAtom != atom.Script {
			return true
		}
		if _, external := attr(n, "src"); external {
			return true
		}
		typ, _ := attr(n, "type")
		if match(strings.ToLower(strings.TrimSpace(typ))) {
			out = append(out, text(n))
		}
		return true
	})
	return out
}
