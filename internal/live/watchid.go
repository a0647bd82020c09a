// SPDX-License-Identifier: MIT

package live

import (
	"net/url"
	"regexp"
	"strings"
)

var watchIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// reservedSegments follow /embed/ or /live/ but name a player mode, not a
// broadcast.
var reservedSegments = map[string]bool{
	"live_stream": true,
	"videoseries": true,
}

// WatchIDFromURL extracts a broadcast identifier from a watch-style URL:
// "/watch?v=<id>", "/live/<id>", "/embed/<id>" or "youtu.be/<id>". It
// returns "" for anything else, including channel landing pages.
func WatchIDFromURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}

	path := strings.Trim(u.Path, "/")
	if path == "watch" {
		return validID(u.Query().Get("v"))
	}

	segs := strings.Split(path, "/")
	if strings.EqualFold(u.Hostname(), "youtu.be") && len(segs) == 1 {
		return validID(segs[0])
	}
	for i := 0; i+1 < len(segs); i++ {
		switch segs[i] {
		case "live", "embed":
			if i+2 == len(segs) && !reservedSegments[segs[i+1]] {
				return validID(segs[i+1])
			}
		}
	}
	return ""
}

func validID(id string) string {
	if !watchIDPattern.MatchString(id) {
		return ""
	}
	return id
}

// LandingURL builds the live landing page for a handle.
func LandingURL(origin, handle string) string {
	u := strings.TrimRight(origin, "/") + "/" + strings.TrimLeft(handle, "/")
	if !strings.HasSuffix(u, "/live") {
		u += "/live"
	}
	return u
}

// WatchURL builds the canonical watch page URL for an identifier.
func WatchURL(origin, watchID string) string {
	return strings.TrimRight(origin, "/") + "/watch?v=" + url.QueryEscape(watchID)
}
