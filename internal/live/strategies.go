// SPDX-License-Identifier: MIT

package live

import (
	"encoding/json"
	"errors"
	"slices"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/youngsadsatan/ssYouTube/internal/jsonscan"
	"github.com/youngsadsatan/ssYouTube/internal/strategy"
)

const initialDataMarker = "ytInitialData"

// fromRedirect accepts the landing fetch when it already ended on a watch URL.
func fromRedirect(d *document) strategy.Result[string] {
	if id := WatchIDFromURL(d.finalURL); id != "" {
		return strategy.Found(id)
	}
	return strategy.Missing[string]("final URL is not a watch URL")
}

// fromStructuredData scans ld+json blocks for watch URLs.
func fromStructuredData(d *document) strategy.Result[string] {
	root, err := d.tree()
	if err != nil {
		return strategy.Failed[string](err)
	}
	blocks := scripts(root, func(typ string) bool { return typ == "application/ld+json" })
	if len(blocks) == 0 {
		return strategy.Missing[string]("no ld+json blocks")
	}
	var decodeErrs []error
	for _, block := range blocks {
		var v any
		if err := json.Unmarshal([]byte(block), &v); err != nil {
			decodeErrs = append(decodeErrs, err)
			continue
		}
		if id := watchIDInLinkedData(v); id != "" {
			return strategy.Found(id)
		}
	}
	if len(decodeErrs) == len(blocks) {
		return strategy.Failed[string](errors.Join(decodeErrs...))
	}
	return strategy.Missing[string]("ld+json carries no watch URL")
}

var linkedDataKeys = []string{"url", "embedUrl", "contentUrl", "@id"}

func watchIDInLinkedData(v any) string {
	switch t := v.(type) {
	case map[string]any:
		for _, k := range linkedDataKeys {
			if s, ok := t[k].(string); ok {
				if id := WatchIDFromURL(s); id != "" {
					return id
				}
			}
		}
		for _, k := range sortedKeys(t) {
			if id := watchIDInLinkedData(t[k]); id != "" {
				return id
			}
		}
	case []any:
		for _, item := range t {
			if id := watchIDInLinkedData(item); id != "" {
				return id
			}
		}
	}
	return ""
}

// fromEmbeddedScript decodes the ytInitialData assignment and looks for a
// video carrying a live marker.
func fromEmbeddedScript(d *document) strategy.Result[string] {
	root, err := d.tree()
	if err != nil {
		return strategy.Failed[string](err)
	}
	blocks := scripts(root, func(typ string) bool {
		return typ == "" || typ == "text/javascript" || typ == "application/javascript"
	})
	found := false
	var lastErr error
	for _, block := range blocks {
		var data any
		ok, err := jsonscan.Assignment(block, initialDataMarker, &data)
		if !ok {
			continue
		}
		found = true
		if err != nil {
			lastErr = err
			continue
		}
		if id := findLiveVideoID(data); id != "" {
			return strategy.Found(id)
		}
	}
	switch {
	case !found:
		return strategy.Missing[string]("no ytInitialData script")
	case lastErr != nil:
		return strategy.Failed[string](lastErr)
	default:
		return strategy.Missing[string]("ytInitialData has no live video")
	}
}

// relatedSubtrees hold other channels' videos on a watch page.
var relatedSubtrees = map[string]bool{
	"secondaryResults": true,
	"autoplay":         true,
	"playerOverlays":   true,
}

// findLiveVideoID returns the live broadcast described by a ytInitialData
// document. A watch page answers for its current video only; other pages
// are walked in deterministic order for the first live-marked videoId,
// skipping related-video subtrees.
func findLiveVideoID(v any) string {
	if root, ok := v.(map[string]any); ok {
		if id, ok := dig(root, "currentVideoEndpoint", "watchEndpoint", "videoId").(string); ok {
			if validID(id) != "" && hasLiveMarker(dig(root, "contents", "twoColumnWatchNextResults", "results")) {
				return id
			}
			return ""
		}
	}
	return walkLive(v)
}

func walkLive(v any) string {
	switch t := v.(type) {
	case map[string]any:
		if id, ok := t["videoId"].(string); ok && validID(id) != "" && hasLiveMarker(t) {
			return id
		}
		for _, k := range sortedKeys(t) {
			if relatedSubtrees[k] {
				continue
			}
			if id := walkLive(t[k]); id != "" {
				return id
			}
		}
	case []any:
		for _, item := range t {
			if id := walkLive(item); id != "" {
				return id
			}
		}
	}
	return ""
}

// dig follows keys through nested objects and returns nil when a step is
// missing.
func dig(v any, keys ...string) any {
	for _, k := range keys {
		m, ok := v.(map[string]any)
		if !ok {
			return nil
		}
		v = m[k]
	}
	return v
}

func hasLiveMarker(v any) bool {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			switch k {
			case "style":
				if s, _ := val.(string); s == "LIVE" {
					return true
				}
			case "isLive", "isLiveNow":
				if b, _ := val.(bool); b {
					return true
				}
			}
			if hasLiveMarker(val) {
				return true
			}
		}
	case []any:
		for _, item := range t {
			if hasLiveMarker(item) {
				return true
			}
		}
	case string:
		return t == "BADGE_STYLE_TYPE_LIVE_NOW"
	}
	return false
}

// fromDOMLink reads <link rel=canonical>, then <meta property=og:url>.
func fromDOMLink(d *document) strategy.Result[string] {
	root, err := d.tree()
	if err != nil {
		return strategy.Failed[string](err)
	}
	var canonical, ogURL string
	walk(root, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return true
		}
		switch n.DataAtom {
		case atom.Link:
			rel, _ := attr(n, "rel")
			if canonical == "" && slices.Contains(strings.Fields(strings.ToLower(rel)), "canonical") {
				canonical, _ = attr(n, "href")
			}
		case atom.Meta:
			if prop, _ := attr(n, "property"); ogURL == "" && prop == "og:url" {
				ogURL, _ = attr(n, "content")
			}
		}
		return true
	})
	for _, candidate := range []string{canonical, ogURL} {
		if id := WatchIDFromURL(candidate); id != "" {
			return strategy.Found(id)
		}
	}
	return strategy.Missing[string]("canonical and og:url are not watch URLs")
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
