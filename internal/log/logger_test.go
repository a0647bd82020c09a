// SPDX-License-Identifier: MIT

package log

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	Configure(Config{Level: "debug", Output: &buf, Service: "test", Version: "v0.0.0"})
	t.Cleanup(func() { Configure(Config{}) })
	return &buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	return entry
}

func TestWithComponentAddsFields(t *testing.T) {
	buf := captureLogs(t)

	l := WithComponent("live")
	l.Info().Str(FieldEvent, "live.resolved").Msg("ok")

	entry := decodeLine(t, buf)
	assert.Equal(t, "live", entry[FieldComponent])
	assert.Equal(t, "live.resolved", entry[FieldEvent])
	assert.Equal(t, "test", entry["service"])
	assert.Equal(t, "v0.0.0", entry["version"])
}

func TestJobIDRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		ctx  context.Context
		id   string
	}{
		{name: "nil context", ctx: nil, id: "run-1"},
		{name: "background", ctx: context.Background(), id: "run-2"},
		{name: "empty id", ctx: context.Background(), id: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := ContextWithJobID(tt.ctx, tt.id)
			assert.Equal(t, tt.id, JobIDFromContext(ctx))
		})
	}
}

func TestFromContextCarriesJobID(t *testing.T) {
	buf := captureLogs(t)

	ctx := ContextWithJobID(context.Background(), "abc")
	FromContext(ctx).Info().Str(FieldEvent, "refresh.start").Msg("start")

	entry := decodeLine(t, buf)
	assert.Equal(t, "abc", entry[FieldJobID])
}

func TestWithComponentFromContext(t *testing.T) {
	buf := captureLogs(t)

	ctx := ContextWithJobID(context.Background(), "xyz")
	l := WithComponentFromContext(ctx, "jobs")
	l.Debug().Str(FieldEvent, "channel.skipped").Msg("skip")

	entry := decodeLine(t, buf)
	assert.Equal(t, "jobs", entry[FieldComponent])
	assert.Equal(t, "xyz", entry[FieldJobID])
	assert.Equal(t, "debug", entry["level"])
}
