// SPDX-License-Identifier: MIT

package stream

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"

	"github.com/youngsadsatan/ssYouTube/internal/config"
	"github.com/youngsadsatan/ssYouTube/internal/procgroup"
)

// ErrResolverExit means the resolver process ended with a non-zero status.
var ErrResolverExit = errors.New("stream: resolver exited with error")

// Resolver turns a watch URL into resolver output that names a media URL.
type Resolver interface {
	Backend() string
	Resolve(ctx context.Context, watchURL string) (string, error)
}

// Runner executes a helper process. ProcessRunner is the production
// implementation.
type Runner interface {
	Run(ctx context.Context, name string, args []string) (exitCode int, stdout []byte, err error)
}

// ProcessRunner runs helpers in their own process group, reaping the whole
// tree when ctx ends.
type ProcessRunner struct {
	Grace time.Duration
}

func (r ProcessRunner) Run(ctx context.Context, name string, args []string) (int, []byte, error) {
	res, err := procgroup.Run(ctx, name, args, r.Grace)
	return res.ExitCode, res.Stdout, err
}

// StreamlinkResolver invokes `streamlink --stream-url <url> <quality>`.
type StreamlinkResolver struct {
	Runner  Runner
	Command string
	Quality string
}

func (s StreamlinkResolver) Backend() string { return config.BackendStreamlink }

func (s StreamlinkResolver) Resolve(ctx context.Context, watchURL string) (string, error) {
	code, out, err := s.Runner.Run(ctx, s.Command, []string{"--stream-url", watchURL, s.Quality})
	if err != nil {
		return "", err
	}
	if code != 0 {
		return "", fmt.Errorf("%w: %s exit %d: %s", ErrResolverExit, s.Command, code, firstLine(string(out)))
	}
	return string(out), nil
}

// YTDLPResolver asks yt-dlp to print the URL of the selected format.
type YTDLPResolver struct {
	Executable string
	Format     string
}

func (y YTDLPResolver) Backend() string { return config.BackendYTDLP }

func (y YTDLPResolver) Resolve(ctx context.Context, watchURL string) (string, error) {
	cmd := ytdlp.New().
		SetExecutable(y.Executable).
		Format(y.Format).
		Print("urls")
	res, err := cmd.Run(ctx, watchURL)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("%w: %s: %w", ErrResolverExit, y.Executable, err)
	}
	if res.ExitCode != 0 {
		return "", fmt.Errorf("%w: %s exit %d", ErrResolverExit, y.Executable, res.ExitCode)
	}
	return res.Stdout, nil
}

// NewResolver builds the resolver selected by cfg.Backend.
func NewResolver(cfg config.ResolverConfig, runner Runner) (Resolver, error) {
	switch cfg.Backend {
	case config.BackendStreamlink, "":
		if runner == nil {
			runner = ProcessRunner{}
		}
		command := cfg.Command
		if command == "" {
			command = config.DefaultResolverCommand
		}
		quality := cfg.Quality
		if quality == "" {
			quality = config.DefaultResolverQuality
		}
		return StreamlinkResolver{Runner: runner, Command: command, Quality: quality}, nil
	case config.BackendYTDLP:
		format := cfg.Quality
		if format == "" {
			format = config.DefaultResolverQuality
		}
		return YTDLPResolver{Executable: cfg.Command, Format: format}, nil
	default:
		return nil, fmt.Errorf("stream: unknown resolver backend %q", cfg.Backend)
	}
}

var qualityLine = regexp.MustCompile(`^\d{3,4}p\S*\s+(https?://\S+)`)

// ParseResolverOutput returns the first media URL in resolver output. Lines
// are either a bare URL or "<quality> <url>" (e.g. "720p60 https://...").
func ParseResolverOutput(out string) string {
	sc := bufio.NewScanner(strings.NewReader(out))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if m := qualityLine.FindStringSubmatch(line); m != nil {
			return m[1]
		}
		if strings.HasPrefix(line, "http://") || strings.HasPrefix(line, "https://") {
			return strings.Fields(line)[0]
		}
	}
	return ""
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
