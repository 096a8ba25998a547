package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLayoutPathsAreRootRelative(t *testing.T) {
	l := Layout{Root: "/data"}

	assert.Equal(t, filepath.FromSlash("/data/data/channels/intent"), l.ChannelStreamDir("intent"))
	assert.Equal(t, filepath.FromSlash("/data/data/channels/intent/initial_20260110.csv"), l.DiscoveryOutputPath("intent", "20260110"))
	assert.Equal(t, filepath.FromSlash("/data/data/video_inventory/cohort_a_inventory.csv"), l.VideoInventoryPath("cohort_a"))
	assert.Equal(t, filepath.FromSlash("/data/data/daily_panels/channel_stats/2026-01-10.csv"), l.ChannelStatsPath("", "2026-01-10"))
	assert.Equal(t, filepath.FromSlash("/data/data/daily_panels/channel_stats/weekend/2026-01-10.csv"), l.ChannelStatsPath("weekend", "2026-01-10"))
}

func TestLayoutEnsureDirectoriesCreatesTree(t *testing.T) {
	dir := t.TempDir()
	l := Layout{Root: dir}
	assert.NoError(t, l.EnsureDirectories())

	for _, want := range []string{
		filepath.Join(dir, "data", "channels"),
		filepath.Join(dir, "data", "video_inventory"),
		filepath.Join(dir, "data", "daily_panels", "channel_stats"),
		filepath.Join(dir, "data", "daily_panels", "video_stats"),
		filepath.Join(dir, "data", "logs"),
	} {
		assert.DirExists(t, want)
	}
}

func TestEnvOrFallsBackWhenUnset(t *testing.T) {
	assert.Equal(t, "fallback", envOr("NO_SUCH_YT_LONGITUDINAL_VAR", "fallback"))
	t.Setenv("YT_LONGITUDINAL_TEST_VAR", "set-value")
	assert.Equal(t, "set-value", envOr("YT_LONGITUDINAL_TEST_VAR", "fallback"))
}
