// SPDX-License-Identifier: MIT

package stream

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youngsadsatan/ssYouTube/internal/catalog"
	"github.com/youngsadsatan/ssYouTube/internal/config"
	"github.com/youngsadsatan/ssYouTube/internal/live"
	"github.com/youngsadsatan/ssYouTube/internal/ratelimit"
	"github.com/youngsadsatan/ssYouTube/internal/upstream"
)

const origin = "https://yt.test"

type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	err   error
	calls []string
}

func (f *fakeFetcher) Get(_ context.Context, u string) (*upstream.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, u)
	if f.err != nil {
		return nil, f.err
	}
	body, ok := f.pages[u]
	if !ok {
		return nil, &upstream.Error{Sentinel: upstream.ErrStatus, Op: "get", URL: u, Status: 404}
	}
	return &upstream.Page{FinalURL: u, Status: 200, Body: []byte(body)}, nil
}

type fakeResolver struct {
	out   string
	err   error
	delay time.Duration
	calls int
}

func (r *fakeResolver) Backend() string { return "fake" }

func (r *fakeResolver) Resolve(ctx context.Context, _ string) (string, error) {
	r.calls++
	if r.delay > 0 {
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return r.out, r.err
}

var broadcast = live.Broadcast{
	Channel: catalog.ChannelRef{Category: "News", Handle: "@Example"},
	WatchID: "LIVE042",
	Via:     config.LiveRedirect,
}

var watchURL = origin + "/watch?v=LIVE042"

func newExtractor(t *testing.T, f Fetcher, r Resolver, strategies ...string) *Extractor {
	t.Helper()
	if strategies == nil {
		strategies = config.AllStreamStrategies()
	}
	e, err := NewExtractor(f, Options{OriginBase: origin, Strategies: strategies, Resolver: r, Timeout: time.Second})
	require.NoError(t, err)
	return e
}

func TestExtractResolverFirstNeedsNoPage(t *testing.T) {
	f := &fakeFetcher{}
	r := &fakeResolver{out: "https://cdn.example/stream.m3u8\n"}
	h, err := newExtractor(t, f, r).Extract(context.Background(), broadcast)
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example/stream.m3u8", h.MediaURL)
	assert.Equal(t, KindHLS, h.Kind)
	assert.Equal(t, config.StreamExternalResolver, h.Via)
	assert.Equal(t, broadcast, h.Broadcast)
	assert.Empty(t, f.calls)
}

func TestExtractFallsBackToPlayerConfig(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{watchURL: watchWithPlayerHLS}}
	r := &fakeResolver{err: errors.New("exit 1")}
	h, err := newExtractor(t, f, r).Extract(context.Background(), broadcast)
	require.NoError(t, err)

	assert.Equal(t, "https://manifest.test/hls/index.m3u8", h.MediaURL)
	assert.Equal(t, config.StreamPlayerConfig, h.Via)
	assert.Equal(t, []string{watchURL}, f.calls)
}

func TestExtractManifestScanSharesFetch(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{watchURL: watchWithEscapedManifest}}
	r := &fakeResolver{out: "error: No playable streams found\n"}
	h, err := newExtractor(t, f, r).Extract(context.Background(), broadcast)
	require.NoError(t, err)

	assert.Equal(t, "https://manifest.test/api/manifest/hls_variant/id/1/index.m3u8?a=1&b=2", h.MediaURL)
	assert.Equal(t, config.StreamManifestScan, h.Via)
	assert.Len(t, f.calls, 1, "player_config and manifest_scan must share one fetch")
	assert.Equal(t, 1, r.calls)
}

func TestExtractPlayerConfigSkipsCipheredFormats(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{watchURL: watchWithFormats}}
	h, err := newExtractor(t, f, nil, config.StreamPlayerConfig).Extract(context.Background(), broadcast)
	require.NoError(t, err)

	assert.Equal(t, "https://media.test/videoplayback?itag=22", h.MediaURL)
	assert.Equal(t, KindProgressive, h.Kind)
}

func TestExtractAllStrategiesFail(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{watchURL: `<html><body>offline</body></html>`}}
	r := &fakeResolver{out: ""}
	_, err := newExtractor(t, f, r).Extract(context.Background(), broadcast)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Len(t, f.calls, 1)
}

func TestExtractWatchPageFailureFetchesOnce(t *testing.T) {
	f := &fakeFetcher{err: &upstream.Error{Sentinel: upstream.ErrTimeout, Op: "get", URL: watchURL}}
	_, err := newExtractor(t, f, nil, config.StreamPlayerConfig, config.StreamManifestScan).Extract(context.Background(), broadcast)
	require.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, upstream.ErrTimeout)
	assert.Len(t, f.calls, 1)
}

func TestExtractResolverTimeoutFallsThrough(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{watchURL: watchWithPlayerHLS}}
	r := &fakeResolver{out: "https://never.test/x.m3u8", delay: time.Minute}
	e, err := NewExtractor(f, Options{OriginBase: origin, Resolver: r, Timeout: 20 * time.Millisecond})
	require.NoError(t, err)

	h, err := e.Extract(context.Background(), broadcast)
	require.NoError(t, err)
	assert.Equal(t, config.StreamPlayerConfig, h.Via)
}

func TestExtractRejectsNonHTTPResolverOutput(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{}}
	r := &fakeResolver{out: "file:///etc/passwd\n"}
	_, err := newExtractor(t, f, r, config.StreamExternalResolver).Extract(context.Background(), broadcast)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestExtractPacesResolverRuns(t *testing.T) {
	f := &fakeFetcher{}
	r := &fakeResolver{out: "https://cdn.example/stream.m3u8"}
	e, err := NewExtractor(f, Options{
		OriginBase: origin,
		Strategies: []string{config.StreamExternalResolver},
		Resolver:   r,
		Pacer:      ratelimit.NewPacer(time.Hour),
	})
	require.NoError(t, err)

	_, err = e.Extract(context.Background(), broadcast)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = e.Extract(ctx, broadcast)
	require.Error(t, err)
	assert.Equal(t, 1, r.calls, "second run must be held back by the pacer")
}

func TestExtractCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := &fakeResolver{out: "https://cdn.example/stream.m3u8"}
	_, err := newExtractor(t, &fakeFetcher{}, r).Extract(ctx, broadcast)
	require.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Zero(t, r.calls)
}

func TestNewExtractorValidation(t *testing.T) {
	_, err := NewExtractor(nil, Options{})
	assert.Error(t, err)

	_, err = NewExtractor(&fakeFetcher{}, Options{Strategies: []string{"guess"}})
	assert.Error(t, err)

	_, err = NewExtractor(&fakeFetcher{}, Options{Strategies: []string{config.StreamExternalResolver}})
	assert.Error(t, err, "external_resolver without a resolver")

	_, err = NewExtractor(&fakeFetcher{}, Options{Strategies: []string{config.StreamManifestScan}})
	assert.NoError(t, err)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindHLS, KindOf("https://cdn.example/stream.m3u8"))
	assert.Equal(t, KindHLS, KindOf("https://cdn.example/live/INDEX.M3U8?x=1"))
	assert.Equal(t, KindHLS, KindOf("https://manifest.test/api/manifest/hls_variant/id/1"))
	assert.Equal(t, KindProgressive, KindOf("https://media.test/videoplayback?itag=22"))
}

const watchWithPlayerHLS = `<html><head><script>
var ytInitialPlayerResponse = {"playabilityStatus":{"status":"OK"},"streamingData":{"hlsManifestUrl":"https://manifest.test/hls/index.m3u8","formats":[{"url":"https://media.test/videoplayback?itag=18"}]}};
</script></head><body></body></html>`

const watchWithFormats = `<html><script>
var ytInitialPlayerResponse = {"streamingData":{"formats":[{"signatureCipher":"s=abc&url=https%3A%2F%2Fmedia.test"},{"url":""},{"url":"https://media.test/videoplayback?itag=22"}],"adaptiveFormats":[{"url":"https://media.test/videoplayback?itag=137"}]}};
</script></html>`

const watchWithEscapedManifest = `<html><script>
window.config = {"player":{"args":{"hls":"https:\/\/manifest.test\/api\/manifest\/hls_variant\/id\/1\/index.m3u8?a=1\u0026b=2"}}};
</script></html>`
