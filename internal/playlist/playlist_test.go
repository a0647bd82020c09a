// SPDX-License-Identifier: MIT

package playlist

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youngsadsatan/ssYouTube/internal/m3u"
)

func entry(handle, url string) Entry {
	return Entry{
		Category:    "News",
		DisplayName: strings.TrimPrefix(handle, "@"),
		TvgID:       handle,
		MediaURL:    url,
	}
}

func TestAssembleSortsCaseInsensitively(t *testing.T) {
	in := []Entry{
		entry("@bravo", "u2"),
		entry("@Alpha", "u1"),
		entry("@charlie", "u3"),
		entry("@ALPHA", "u0"),
	}
	doc := Assemble("News", in)

	var got []string
	for _, e := range doc.Entries {
		got = append(got, e.TvgID)
	}
	if diff := cmp.Diff([]string{"@ALPHA", "@Alpha", "@bravo", "@charlie"}, got); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "@bravo", in[0].TvgID, "input must not be reordered")
}

func TestAssembleUnicodeFold(t *testing.T) {
	doc := Assemble("Cams", []Entry{
		{DisplayName: "straße", TvgID: "@b"},
		{DisplayName: "STRASSE", TvgID: "@a"},
		{DisplayName: "Ärger", TvgID: "@c"},
	})
	assert.Equal(t, "@a", doc.Entries[0].TvgID, "fold ties break on tvg-id")
	assert.Equal(t, "@b", doc.Entries[1].TvgID)
}

func TestWriteM3UFormat(t *testing.T) {
	doc := Document{Category: "News", Entries: []Entry{{
		Category:    "News",
		DisplayName: "Example",
		TvgID:       "@Example",
		LogoURL:     "icons/@Example.png",
		MediaURL:    "https://cdn.example/stream.m3u8",
	}}}
	var buf bytes.Buffer
	require.NoError(t, WriteM3U(&buf, doc))

	want := "#EXTM3U\n" +
		`#EXTINF:-1 tvg-id="@Example" tvg-name="Example" tvg-logo="icons/@Example.png" group-title="News",Example` + "\n" +
		"https://cdn.example/stream.m3u8\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteM3UKeepsLineStructure(t *testing.T) {
	doc := Document{Category: `Ne"ws`, Entries: []Entry{{
		DisplayName: "two\nlines",
		TvgID:       `@q"uote`,
		MediaURL:    "https://cdn.example/a\r\n#EXTINF:-1,evil",
	}}}
	var buf bytes.Buffer
	require.NoError(t, WriteM3U(&buf, doc))

	channels, err := m3u.Parse(&buf)
	require.NoError(t, err)
	require.Len(t, channels, 1)
	assert.Equal(t, "@q'uote", channels[0].TvgID)
	assert.Equal(t, "Ne'ws", channels[0].Group)
	assert.Equal(t, "two lines", channels[0].Title)
}

func TestWriteFileRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "playlists")
	doc := Assemble("News", []Entry{entry("@b", "https://cdn/b.m3u8"), entry("@a", "https://cdn/a.m3u8")})

	path, err := WriteFile(context.Background(), dir, doc)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "News.m3u"), path)

	channels, err := m3u.ParseFile(path)
	require.NoError(t, err)
	got := make([]Entry, 0, len(channels))
	for _, c := range channels {
		got = append(got, Entry{Category: c.Group, DisplayName: c.Title, TvgID: c.TvgID, LogoURL: c.Logo, MediaURL: c.URL})
	}
	if diff := cmp.Diff(doc.Entries, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestWriteFileReplacesPreviousContent(t *testing.T) {
	dir := t.TempDir()
	_, err := WriteFile(context.Background(), dir, Assemble("News", []Entry{entry("@a", "https://cdn/a"), entry("@b", "https://cdn/b")}))
	require.NoError(t, err)
	path, err := WriteFile(context.Background(), dir, Assemble("News", []Entry{entry("@c", "https://cdn/c")}))
	require.NoError(t, err)

	channels, err := m3u.ParseFile(path)
	require.NoError(t, err)
	require.Len(t, channels, 1)
	assert.Equal(t, "@c", channels[0].TvgID)
}

func TestRemoveStale(t *testing.T) {
	dir := t.TempDir()
	removed, err := RemoveStale(dir, "Rap")
	require.NoError(t, err)
	assert.False(t, removed)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "Rap.m3u"), []byte("#EXTM3U\n"), 0o644))
	removed, err = RemoveStale(dir, "Rap")
	require.NoError(t, err)
	assert.True(t, removed)
	assert.NoFileExists(t, filepath.Join(dir, "Rap.m3u"))
}
