package health

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apkerk/youtube-longitudinal/internal/model"
	"github.com/apkerk/youtube-longitudinal/internal/writer"
)

func writeChannelStats(t *testing.T, path string, rows []model.ChannelStatsSnapshot) {
	t.Helper()
	var out [][]string
	for _, r := range rows {
		out = append(out, r.ToRow())
	}
	require.NoError(t, writer.Append(path, model.ChannelStatsFields, out))
}

func TestRunDailyAllPass(t *testing.T) {
	dir := t.TempDir()
	statsPath := filepath.Join(dir, "2026-01-01.csv")
	writeChannelStats(t, statsPath, []model.ChannelStatsSnapshot{
		{ChannelID: "UC1", ScrapedAt: "2026-01-01T00:00:00Z"},
		{ChannelID: "UC2", ScrapedAt: "2026-01-01T00:00:00Z"},
	})

	report := RunDaily(DailyOptions{
		ChannelStatsPath:     statsPath,
		ExpectedBaselineRows: 2,
		FailureFlagGlob:      filepath.Join(dir, "no_such_flag_*"),
	})
	assert.Equal(t, SeverityOK, report.Overall)
	assert.Equal(t, 0, report.Overall.ExitCode())
}

func TestRunDailyMissingFileIsError(t *testing.T) {
	report := RunDaily(DailyOptions{ChannelStatsPath: "/nonexistent/path.csv"})
	assert.Equal(t, SeverityError, report.Overall)
	assert.Equal(t, 2, report.Overall.ExitCode())
}

func TestRunDailyRowCountOutsideToleranceIsError(t *testing.T) {
	dir := t.TempDir()
	statsPath := filepath.Join(dir, "stats.csv")
	writeChannelStats(t, statsPath, []model.ChannelStatsSnapshot{{ChannelID: "UC1"}})

	report := RunDaily(DailyOptions{ChannelStatsPath: statsPath, ExpectedBaselineRows: 100})
	assert.Equal(t, SeverityError, report.Overall)
}

func TestValidateFileDetectsNullIDsAndNegatives(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stats.csv")
	require.NoError(t, writer.Append(path, model.ChannelStatsFields, [][]string{
		{"", "100", "10", "1", "false", "2026-01-01T00:00:00Z", ""},
		{"UC2", "-5", "10", "1", "false", "2026-01-01T00:00:00Z", ""},
	}))

	report := ValidateFile(path, 0, "", 0)
	assert.Equal(t, SeverityError, report.Overall)

	var foundNull, foundNeg bool
	for _, c := range report.Checks {
		if c.Name == "null_ids" && c.Severity == SeverityError {
			foundNull = true
		}
		if c.Name == "negative_counts" && c.Severity == SeverityError {
			foundNeg = true
		}
	}
	assert.True(t, foundNull)
	assert.True(t, foundNeg)
}

func TestValidateFileSubscriberDropWarning(t *testing.T) {
	dir := t.TempDir()
	yesterday := filepath.Join(dir, "yesterday.csv")
	today := filepath.Join(dir, "today.csv")
	writeChannelStats(t, yesterday, []model.ChannelStatsSnapshot{{ChannelID: "UC1", SubscriberCount: 1000, ScrapedAt: "2026-01-01T00:00:00Z"}})
	writeChannelStats(t, today, []model.ChannelStatsSnapshot{{ChannelID: "UC1", SubscriberCount: 100, ScrapedAt: "2026-01-02T00:00:00Z"}})

	report := ValidateFile(today, 0, yesterday, 0.5)
	var found bool
	for _, c := range report.Checks {
		if c.Name == "subscriber_drop" {
			found = true
			assert.Equal(t, SeverityWarning, c.Severity)
		}
	}
	assert.True(t, found)
}

func TestSeverityExitCodes(t *testing.T) {
	assert.Equal(t, 0, SeverityOK.ExitCode())
	assert.Equal(t, 1, SeverityWarning.ExitCode())
	assert.Equal(t, 2, SeverityError.ExitCode())
}

func TestRunWeeklyFreshnessGrading(t *testing.T) {
	dir := t.TempDir()
	statsDir := filepath.Join(dir, "channel_stats")
	videoDir := filepath.Join(dir, "video_stats")
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

	statsFile := filepath.Join(statsDir, now.Format("2006-01-02")+".csv")
	videoFile := filepath.Join(videoDir, "2026-01-02.csv")
	writeChannelStats(t, statsFile, []model.ChannelStatsSnapshot{
		{ChannelID: "UC1", ScrapedAt: now.Format(time.RFC3339)},
	})
	require.NoError(t, writer.EnsureHeader(videoFile, model.VideoStatsFields))
	// Channel stats written today (fresh); video stats 10 days old, past the
	// 8-day limit.
	require.NoError(t, os.Chtimes(statsFile, now, now))
	stale := now.AddDate(0, 0, -10)
	require.NoError(t, os.Chtimes(videoFile, stale, stale))

	report := RunWeekly(WeeklyOptions{
		ChannelStatsDir: statsDir,
		VideoStatsDir:   videoDir,
		DiskPath:        dir,
		Now:             now,
	})
	assert.NotEmpty(t, report.Checks)

	grades := map[string]Severity{}
	for _, c := range report.Checks {
		grades[c.Name] = c.Severity
	}
	assert.Equal(t, SeverityOK, grades["channel_stats_freshness"])
	assert.Equal(t, SeverityError, grades["video_stats_freshness"])
}
