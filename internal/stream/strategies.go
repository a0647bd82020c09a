// SPDX-License-Identifier: MIT

package stream

import (
	"regexp"

	"github.com/youngsadsatan/ssYouTube/internal/jsonscan"
	"github.com/youngsadsatan/ssYouTube/internal/strategy"
)

const playerResponseMarker = "ytInitialPlayerResponse"

type playerResponse struct {
	StreamingData struct {
		HLSManifestURL  string         `json:"hlsManifestUrl"`
		Formats         []playerFormat `json:"formats"`
		AdaptiveFormats []playerFormat `json:"adaptiveFormats"`
	} `json:"streamingData"`
}

type playerFormat struct {
	URL             string `json:"url"`
	SignatureCipher string `json:"signatureCipher"`
	Cipher          string `json:"cipher"`
}

// fromPlayerConfig reads the player response embedded in the watch page.
// The HLS manifest wins; otherwise the first directly playable format.
func fromPlayerConfig(body string) strategy.Result[string] {
	var pr playerResponse
	found, err := jsonscan.Assignment(body, playerResponseMarker, &pr)
	switch {
	case !found:
		return strategy.Missing[string]("no player response")
	case err != nil:
		return strategy.Failed[string](err)
	}

	if validMediaURL(pr.StreamingData.HLSManifestURL) {
		return strategy.Found(pr.StreamingData.HLSManifestURL)
	}
	for _, group := range [][]playerFormat{pr.StreamingData.Formats, pr.StreamingData.AdaptiveFormats} {
		for _, f := range group {
			if f.SignatureCipher != "" || f.Cipher != "" {
				continue
			}
			if validMediaURL(f.URL) {
				return strategy.Found(f.URL)
			}
		}
	}
	return strategy.Missing[string]("player response has no playable URL")
}

var manifestPattern = regexp.MustCompile(`https?://[^\s"'<>\\]+?\.m3u8[^\s"'<>\\]*`)

// fromManifestScan searches the raw page for an HLS manifest URL after
// undoing JSON string escapes.
func fromManifestScan(body string) strategy.Result[string] {
	m := manifestPattern.FindString(jsonscan.Unescape(body))
	if m == "" || !validMediaURL(m) {
		return strategy.Missing[string]("no manifest URL in page")
	}
	return strategy.Found(m)
}
