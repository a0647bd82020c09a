// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youngsadsatan/ssYouTube/internal/history"
	"github.com/youngsadsatan/ssYouTube/internal/version"
)

const watchPage = `<html><head><script>
var ytInitialPlayerResponse = {"playabilityStatus":{"status":"OK"},"streamingData":{"hlsManifestUrl":"https://manifest.test/hls/index.m3u8"}};
</script></head><body></body></html>`

// upstreamSite serves one live channel (@Example) and one offline channel
// (@Offline) together with a thumbnail for the live broadcast.
func upstreamSite(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var thumb bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, 64, 36))
	for x := 0; x < 64; x++ {
		for y := 0; y < 36; y++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	require.NoError(t, png.Encode(&thumb, img))

	var thumbHits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/@Example/live", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/watch?v=LIVE1", http.StatusFound)
	})
	mux.HandleFunc("/@Offline/live", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html><body>offline</body></html>"))
	})
	mux.HandleFunc("/watch", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(watchPage))
	})
	mux.HandleFunc("/vi/LIVE1/hqdefault.jpg", func(w http.ResponseWriter, _ *http.Request) {
		thumbHits.Add(1)
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(thumb.Bytes())
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &thumbHits
}

func writeFixture(t *testing.T, origin, schedule string) (configPath, dataDir string) {
	t.Helper()
	dataDir = t.TempDir()
	catalogPath := filepath.Join(dataDir, "catalog.yaml")
	require.NoError(t, os.WriteFile(catalogPath, []byte(`categories:
  - name: News
    channels: ["@Example"]
  - name: Cams
    channels: ["@Offline"]
`), 0o600))

	cfg := fmt.Sprintf(`data_dir: %q
catalog_path: %q
origin_base: %q
min_request_interval: 0s
fetch_timeout: 5s
workers: 2
live:
  strategies: [redirect, structured_data, embedded_script, dom_link]
stream:
  strategies: [player_config, manifest_scan]
icon:
  base_url: "https://host.test/icons"
  url_template: %q
  resolutions: [hqdefault]
history_path: %q
schedule: %q
`, dataDir, catalogPath, origin, origin+"/vi/{id}/{res}.jpg", filepath.Join(dataDir, "history.db"), schedule)
	configPath = filepath.Join(dataDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(cfg), 0o600))
	return configPath, dataDir
}

func TestRunVersion(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-version"}, &out))
	assert.Equal(t, version.String()+"\n", out.String())
}

func TestRunRejectsUnknownFlagsAndArguments(t *testing.T) {
	var out bytes.Buffer
	assert.Error(t, run(context.Background(), []string{"-bogus"}, &out))
	assert.Error(t, run(context.Background(), []string{"extra"}, &out))
}

func TestRunConfigLoadFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o600))
	err := run(context.Background(), []string{"-config", path}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "unsupported config format")
}

func TestRunOnceWritesPlaylists(t *testing.T) {
	srv, thumbHits := upstreamSite(t)
	configPath, dataDir := writeFixture(t, srv.URL, "")

	require.NoError(t, run(context.Background(), []string{"-config", configPath}, &bytes.Buffer{}))

	got, err := os.ReadFile(filepath.Join(dataDir, "playlists", "News.m3u"))
	require.NoError(t, err)
	assert.Equal(t, "#EXTM3U\n"+
		`#EXTINF:-1 tvg-id="@Example" tvg-name="Example" tvg-logo="https://host.test/icons/@Example.png" group-title="News",Example`+"\n"+
		"https://manifest.test/hls/index.m3u8\n", string(got))

	_, err = os.Stat(filepath.Join(dataDir, "playlists", "Cams.m3u"))
	assert.True(t, os.IsNotExist(err), "category without live channels must not be written")

	_, err = os.Stat(filepath.Join(dataDir, "icons", "@Example.png"))
	require.NoError(t, err)
	assert.EqualValues(t, 1, thumbHits.Load())

	// A second run reuses the cached icon.
	require.NoError(t, run(context.Background(), []string{"-config", configPath}, &bytes.Buffer{}))
	assert.EqualValues(t, 1, thumbHits.Load())

	store, err := history.Open(context.Background(), filepath.Join(dataDir, "history.db"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	runs, err := store.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestRunCatalogFlagOverridesConfig(t *testing.T) {
	srv, _ := upstreamSite(t)
	configPath, dataDir := writeFixture(t, srv.URL, "")

	override := filepath.Join(t.TempDir(), "other.yaml")
	require.NoError(t, os.WriteFile(override, []byte(`categories:
  - name: Live
    channels: ["@Example"]
`), 0o600))

	require.NoError(t, run(context.Background(), []string{"-config", configPath, "-catalog", override}, &bytes.Buffer{}))

	_, err := os.Stat(filepath.Join(dataDir, "playlists", "Live.m3u"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dataDir, "playlists", "News.m3u"))
	assert.True(t, os.IsNotExist(err))
}

func TestRunScheduleStopsOnCancel(t *testing.T) {
	srv, _ := upstreamSite(t)
	configPath, dataDir := writeFixture(t, srv.URL, "@every 1h")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx, []string{"-config", configPath}, &bytes.Buffer{}) }()

	playlist := filepath.Join(dataDir, "playlists", "News.m3u")
	require.Eventually(t, func() bool {
		_, err := os.Stat(playlist)
		return err == nil
	}, 10*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("scheduler did not stop after cancellation")
	}

	data, err := os.ReadFile(playlist)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "#EXTM3U\n"))
}
