// SPDX-License-Identifier: MIT

// Package m3u reads extended M3U playlists back into entries.
package m3u

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Channel is one #EXTINF entry and the URL line that follows it.
type Channel struct {
	TvgID string
	// TvgName is the tvg-name attribute; Title is the text after the comma.
	TvgName string
	Title   string
	Logo    string
	Group   string
	URL     string
	Attrs   map[string]string
}

// Parse reads an M3U playlist. Comment lines other than #EXTINF are ignored;
// a URL line without a preceding #EXTINF gets an empty entry.
func Parse(r io.Reader) ([]Channel, error) {
	var (
		channels []Channel
		current  Channel
		pending  bool
	)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "":
		case strings.HasPrefix(line, "#EXTINF:"):
			current = parseExtinf(line)
			pending = true
		case strings.HasPrefix(line, "#"):
		default:
			if !pending {
				current = Channel{}
			}
			current.URL = line
			channels = append(channels, current)
			current, pending = Channel{}, false
		}
	}
	if err := sc.Err(); err != nil {
		return channels, fmt.Errorf("m3u: scan: %w", err)
	}
	return channels, nil
}

// ParseFile parses the playlist at path.
func ParseFile(path string) ([]Channel, error) {
	f, err := os.Open(path) // #nosec G304 -- path is a playlist this program wrote
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// parseExtinf splits `#EXTINF:-1 k="v" k2="v2",Title`. The title starts at
// the first comma outside quotes.
func parseExtinf(line string) Channel {
	body := strings.TrimPrefix(line, "#EXTINF:")
	attrs := make(map[string]string)
	title := ""

	if i := titleComma(body); i >= 0 {
		title = strings.TrimSpace(body[i+1:])
		body = body[:i]
	}

	rest := body
	if sp := strings.IndexByte(rest, ' '); sp >= 0 {
		rest = rest[sp+1:] // drop duration
	} else {
		rest = ""
	}
	for rest != "" {
		rest = strings.TrimLeft(rest, " ")
		eq := strings.Index(rest, `="`)
		if eq < 0 {
			break
		}
		key := strings.TrimSpace(rest[:eq])
		rest = rest[eq+2:]
		end := strings.IndexByte(rest, '"')
		if end < 0 {
			attrs[key] = rest
			break
		}
		attrs[key] = rest[:end]
		rest = rest[end+1:]
	}

	return Channel{
		TvgID:   attrs["tvg-id"],
		TvgName: attrs["tvg-name"],
		Title:   title,
		Logo:    attrs["tvg-logo"],
		Group:   attrs["group-title"],
		Attrs:   attrs,
	}
}

func titleComma(s string) int {
	inQuote := false
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			inQuote = !inQuote
		case ',':
			if !inQuote {
				return i
			}
		}
	}
	return -1
}
