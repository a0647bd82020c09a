// SPDX-License-Identifier: MIT

package history

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func run(id string, at time.Time, outcome string) Run {
	return Run{
		ID:         id,
		StartedAt:  at,
		FinishedAt: at.Add(time.Minute),
		Outcome:    RunSuccess,
		Channels: []ChannelOutcome{
			{Category: "News", Handle: "@Example", Outcome: outcome},
			{Category: "News", Handle: "@Stable", Outcome: OutcomeResolved, WatchID: "W1", MediaURL: "https://cdn/a.m3u8"},
		},
	}
}

func TestRecordAndRecent(t *testing.T) {
	s, _ := openTemp(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	require.NoError(t, s.Record(ctx, run("r1", base, OutcomeResolved)))
	require.NoError(t, s.Record(ctx, run("r2", base.Add(500*time.Millisecond), OutcomeFailedLive)))

	runs, err := s.Recent(ctx, 5)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "r2", runs[0].ID, "sub-second ordering")
	assert.True(t, runs[1].StartedAt.Equal(base))
	assert.Equal(t, RunSuccess, runs[0].Outcome)
}

func TestRecordRejectsDuplicateRun(t *testing.T) {
	s, _ := openTemp(t)
	ctx := context.Background()
	require.NoError(t, s.Record(ctx, run("r1", time.Now(), OutcomeResolved)))
	assert.Error(t, s.Record(ctx, run("r1", time.Now(), OutcomeResolved)))
	assert.Error(t, s.Record(ctx, Run{}))
}

func TestConsecutiveFailures(t *testing.T) {
	s, _ := openTemp(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	outcomes := []string{OutcomeFailedLive, OutcomeResolved, OutcomeFailedStream, OutcomeFailedLive, OutcomeFailedLive}
	for i, o := range outcomes {
		require.NoError(t, s.Record(ctx, run(string(rune('a'+i)), base.Add(time.Duration(i)*time.Hour), o)))
	}

	n, err := s.ConsecutiveFailures(ctx, "News", "@Example")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = s.ConsecutiveFailures(ctx, "News", "@Stable")
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = s.ConsecutiveFailures(ctx, "News", "@Unknown")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRecordRejectsUnknownOutcome(t *testing.T) {
	s, _ := openTemp(t)
	r := run("r1", time.Now(), "maybe")
	assert.Error(t, s.Record(context.Background(), r))

	runs, err := s.Recent(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, runs, "failed record must roll back the run row")
}

func TestOpenQuarantinesCorruptDatabase(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "history.db")
	require.NoError(t, os.WriteFile(path, []byte("this is not a sqlite database, just some bytes padding it out"), 0o644))

	s, err := Open(context.Background(), path)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Record(context.Background(), run("r1", time.Now(), OutcomeResolved)))

	matches, err := filepath.Glob(path + ".corrupt-*")
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}
