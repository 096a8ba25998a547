package health

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apkerk/youtube-longitudinal/internal/model"
	"github.com/apkerk/youtube-longitudinal/internal/writer"
)

func TestGenerateWeeklyDigestIncludesAllSections(t *testing.T) {
	dir := t.TempDir()
	statsDir := filepath.Join(dir, "channel_stats")
	videoDir := filepath.Join(dir, "video_stats")
	inventoryPath := filepath.Join(dir, "intent_inventory.csv")
	logsDir := filepath.Join(dir, "logs")
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

	writeChannelStats(t, filepath.Join(statsDir, "2026-01-04.csv"), []model.ChannelStatsSnapshot{
		{ChannelID: "UC1", SubscriberCount: 1000, ViewCount: 50000, ScrapedAt: "2026-01-04T00:00:00Z"},
	})
	writeChannelStats(t, filepath.Join(statsDir, "2026-01-10.csv"), []model.ChannelStatsSnapshot{
		{ChannelID: "UC1", SubscriberCount: 1100, ViewCount: 52000, ScrapedAt: "2026-01-10T00:00:00Z"},
	})
	require.NoError(t, writer.EnsureHeader(filepath.Join(videoDir, "2026-01-10.csv"), model.VideoStatsFields))
	require.NoError(t, writer.EnsureHeader(inventoryPath, model.VideoInventoryFields))
	require.NoError(t, os.MkdirAll(logsDir, 0o755))

	report := GenerateWeeklyDigest(DigestOptions{
		ChannelStatsDir: statsDir,
		VideoStatsDir:   videoDir,
		InventoryPath:   inventoryPath,
		LogsDir:         logsDir,
		Now:             now,
	})

	assert.Contains(t, report, "## Channel Stats")
	assert.Contains(t, report, "## Video Stats")
	assert.Contains(t, report, "## Video Inventory")
	assert.Contains(t, report, "## Growth Trends (week-over-week)")
	assert.Contains(t, report, "## Data Volume")
	assert.Contains(t, report, "## Health Check History")
	assert.Contains(t, report, "All checks passed.")
}

func TestGenerateWeeklyDigestOmitsGrowthTrendsWithFewerThanTwoFiles(t *testing.T) {
	dir := t.TempDir()
	statsDir := filepath.Join(dir, "channel_stats")
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

	writeChannelStats(t, filepath.Join(statsDir, "2026-01-10.csv"), []model.ChannelStatsSnapshot{
		{ChannelID: "UC1", ScrapedAt: "2026-01-10T00:00:00Z"},
	})

	report := GenerateWeeklyDigest(DigestOptions{
		ChannelStatsDir: statsDir,
		VideoStatsDir:   filepath.Join(dir, "video_stats"),
		InventoryPath:   filepath.Join(dir, "missing_inventory.csv"),
		LogsDir:         filepath.Join(dir, "logs"),
		Now:             now,
	})

	assert.NotContains(t, report, "## Growth Trends")
}

func TestComputeChannelTrendsDiffsSharedChannelIDs(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "2026-01-04.csv")
	last := filepath.Join(dir, "2026-01-10.csv")
	writeChannelStats(t, first, []model.ChannelStatsSnapshot{
		{ChannelID: "UC1", SubscriberCount: 1000, ViewCount: 50000},
		{ChannelID: "UC2", SubscriberCount: 2000, ViewCount: 80000},
	})
	writeChannelStats(t, last, []model.ChannelStatsSnapshot{
		{ChannelID: "UC1", SubscriberCount: 1100, ViewCount: 52000},
		{ChannelID: "UC3", SubscriberCount: 500, ViewCount: 1000}, // not in first file, excluded
	})

	trends, ok := computeChannelTrends(first, last)
	require.True(t, ok)
	assert.Equal(t, 1, trends.channelsTracked, "only UC1 appears in both snapshots")
	assert.Equal(t, 100.0, trends.avgSubChange)
	assert.Equal(t, int64(2000), trends.totalViewGrowth)
}

func TestWriteHealthHistorySectionFlagsDegradedLog(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	start := now.AddDate(0, 0, -7)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "health_check_20260108.log"), []byte("overall: DEGRADED\nsome detail\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "health_check_20260109.log"), []byte("overall: OK\n"), 0o644))

	var b strings.Builder
	writeHealthHistorySection(&b, dir, start, now)

	assert.Contains(t, b.String(), "health_check_20260108.log")
	assert.NotContains(t, b.String(), "health_check_20260109.log")
}
