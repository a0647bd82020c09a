// SPDX-License-Identifier: MIT

package jobs

import (
	"context"
	"time"

	"github.com/youngsadsatan/ssYouTube/internal/catalog"
	"github.com/youngsadsatan/ssYouTube/internal/config"
	"github.com/youngsadsatan/ssYouTube/internal/history"
	"github.com/youngsadsatan/ssYouTube/internal/icon"
	"github.com/youngsadsatan/ssYouTube/internal/live"
	"github.com/youngsadsatan/ssYouTube/internal/stream"
)

// Locator finds a channel's live broadcast. *live.Locator satisfies it.
type Locator interface {
	Resolve(ctx context.Context, ch catalog.ChannelRef) (live.Broadcast, error)
}

// Extractor turns a broadcast into a media URL. *stream.Extractor satisfies it.
type Extractor interface {
	Extract(ctx context.Context, b live.Broadcast) (stream.Handle, error)
}

// IconResolver provides channel icons. *icon.Resolver satisfies it.
type IconResolver interface {
	Ensure(ctx context.Context, ch catalog.ChannelRef, sourceID string) (icon.Asset, error)
}

// HistoryStore records runs. *history.Store satisfies it.
type HistoryStore interface {
	Record(ctx context.Context, run history.Run) error
	ConsecutiveFailures(ctx context.Context, category, handle string) (int, error)
}

// Deps holds everything a refresh needs. Icons and History are optional.
type Deps struct {
	Config    config.AppConfig
	Catalog   *catalog.Catalog
	Locator   Locator
	Extractor Extractor
	Icons     IconResolver
	History   HistoryStore
	Clock     func() time.Time
}

// Failure stages.
const (
	StageLive   = "live"
	StageStream = "stream"
)

// Failure is a channel that was skipped this run.
type Failure struct {
	Channel catalog.ChannelRef
	Stage   string
	Err     error
}

// CategoryReport summarizes one category.
type CategoryReport struct {
	Name     string
	Channels int
	Entries  int
	Failed   int
	// Path is the written playlist, empty when the category had no entries.
	Path         string
	StaleRemoved bool
}

// Report summarizes a refresh run.
type Report struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time

	Channels        int
	Resolved        int
	Failed          int
	FailuresByStage map[string]int
	Failures        []Failure
	IconsMissing    int

	Categories      []CategoryReport
	EmptyCategories []string
	Written         []string
}

// Duration is the wall time of the run.
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

func (r *Report) addFailure(f Failure) {
	r.Failed++
	r.FailuresByStage[f.Stage]++
	r.Failures = append(r.Failures, f)
}
