// SPDX-License-Identifier: MIT

package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSortsAndDedupes(t *testing.T) {
	c, err := New(map[string][]string{
		"News":      {"@Zeta", "@alpha", "@Beta", "@Zeta"},
		"Cams":      {"@cam"},
		"Empty":     nil,
		"Synthwave": {"@LofiGirl"},
	})
	require.NoError(t, err)

	cats := c.Categories()
	names := make([]string, len(cats))
	for i, cat := range cats {
		names[i] = cat.Name
	}
	assert.Equal(t, []string{"Cams", "Empty", "News", "Synthwave"}, names)
	assert.Equal(t, []string{"@Beta", "@Zeta", "@alpha"}, cats[2].Handles)
	assert.Equal(t, 5, c.Len())
	assert.Empty(t, c.Channels("Empty"))
	assert.Nil(t, c.Channels("Missing"))
}

func TestChannelsCarryCategory(t *testing.T) {
	c, err := New(map[string][]string{"News": {"@Example"}})
	require.NoError(t, err)

	refs := c.Channels("News")
	require.Len(t, refs, 1)
	assert.Equal(t, ChannelRef{Category: "News", Handle: "@Example"}, refs[0])
	assert.Equal(t, "Example", refs[0].DisplayName())
	assert.Equal(t, "News/@Example", refs[0].String())
}

func TestNewRejectsInvalidEntries(t *testing.T) {
	_, err := New(map[string][]string{"News": {"NoAt"}})
	require.Error(t, err)

	_, err = New(map[string][]string{"a/b": {"@ok"}})
	require.Error(t, err)
}

func TestCategoriesReturnsCopy(t *testing.T) {
	c, err := New(map[string][]string{"News": {"@A"}})
	require.NoError(t, err)

	cats := c.Categories()
	cats[0].Handles[0] = "@mutated"
	assert.Equal(t, "@A", c.Categories()[0].Handles[0])
}

func TestParseYAML(t *testing.T) {
	c, err := Parse([]byte(`
categories:
  - name: News
    channels: ["@Reuters", "@ABCNews"]
  - name: Tornados
    channels: ["@RyanHallYall"]
  - name: News
    channels: ["@ABCNews", "@WION"]
`))
	require.NoError(t, err)
	assert.Equal(t, []ChannelRef{
		{Category: "News", Handle: "@ABCNews"},
		{Category: "News", Handle: "@Reuters"},
		{Category: "News", Handle: "@WION"},
	}, c.Channels("News"))
	assert.Len(t, c.Channels("Tornados"), 1)
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("categories:\n  - name: News\n    handles: [\"@x\"]\n"))
	require.Error(t, err)

	_, err = Parse(nil)
	require.Error(t, err)
}

func TestLoad(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Len(t, c.Categories(), 6)

	path := filepath.Join(t.TempDir(), "channels.yaml")
	require.NoError(t, os.WriteFile(path, []byte("categories:\n  - name: Rap\n    channels: [\"@RapMafia\"]\n"), 0o600))
	c, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestDefaultCatalog(t *testing.T) {
	c := Default()
	assert.Equal(t, 28, c.Len())
	assert.Contains(t, c.Channels("Synthwave"), ChannelRef{Category: "Synthwave", Handle: "@LofiGirl"})
}
