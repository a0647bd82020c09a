// SPDX-License-Identifier: MIT

package stream

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youngsadsatan/ssYouTube/internal/config"
)

func TestParseResolverOutput(t *testing.T) {
	tests := []struct {
		name string
		out  string
		want string
	}{
		{"bare url", "https://cdn.example/stream.m3u8\n", "https://cdn.example/stream.m3u8"},
		{"quality prefix", "720p60 https://cdn.example/720.m3u8\n1080p https://cdn.example/1080.m3u8\n", "https://cdn.example/720.m3u8"},
		{"noise first", "[cli][info] Found matching plugin youtube\nhttps://cdn.example/a.m3u8\n", "https://cdn.example/a.m3u8"},
		{"crlf", "https://cdn.example/a.m3u8\r\n", "https://cdn.example/a.m3u8"},
		{"error text", "error: No playable streams found on this URL\n", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseResolverOutput(tt.out))
		})
	}
}

type recordingRunner struct {
	name   string
	args   []string
	code   int
	stdout string
	err    error
}

func (r *recordingRunner) Run(_ context.Context, name string, args []string) (int, []byte, error) {
	r.name, r.args = name, args
	return r.code, []byte(r.stdout), r.err
}

func TestStreamlinkResolverArguments(t *testing.T) {
	run := &recordingRunner{stdout: "https://cdn.example/stream.m3u8\n"}
	res := StreamlinkResolver{Runner: run, Command: "/usr/bin/streamlink", Quality: "best"}

	out, err := res.Resolve(context.Background(), "https://www.youtube.com/watch?v=abc")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/stream.m3u8\n", out)
	assert.Equal(t, "/usr/bin/streamlink", run.name)
	assert.Equal(t, []string{"--stream-url", "https://www.youtube.com/watch?v=abc", "best"}, run.args)
}

func TestStreamlinkResolverNonZeroExit(t *testing.T) {
	run := &recordingRunner{code: 1, stdout: "error: No playable streams found\n"}
	res := StreamlinkResolver{Runner: run, Command: "streamlink", Quality: "best"}

	_, err := res.Resolve(context.Background(), "https://www.youtube.com/watch?v=abc")
	require.ErrorIs(t, err, ErrResolverExit)
	assert.Contains(t, err.Error(), "No playable streams")
}

func TestNewResolver(t *testing.T) {
	r, err := NewResolver(config.ResolverConfig{Backend: config.BackendStreamlink}, nil)
	require.NoError(t, err)
	sl, ok := r.(StreamlinkResolver)
	require.True(t, ok)
	assert.Equal(t, config.DefaultResolverCommand, sl.Command)
	assert.Equal(t, config.DefaultResolverQuality, sl.Quality)
	assert.IsType(t, ProcessRunner{}, sl.Runner)

	r, err = NewResolver(config.ResolverConfig{Backend: config.BackendYTDLP, Command: "yt-dlp", Quality: "best[height<=720]"}, nil)
	require.NoError(t, err)
	assert.Equal(t, YTDLPResolver{Executable: "yt-dlp", Format: "best[height<=720]"}, r)
	assert.Equal(t, config.BackendYTDLP, r.Backend())

	_, err = NewResolver(config.ResolverConfig{Backend: "vlc"}, nil)
	assert.Error(t, err)
}
