// Package health implements the daily health check, weekly health report,
// and per-file validator described in spec.md §4.9, C9.
package health

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/apkerk/youtube-longitudinal/internal/model"
	"github.com/apkerk/youtube-longitudinal/internal/writer"
)

// Severity is the shared PASS/WARNING/ERROR (validator) or
// OK/WARNING/CRITICAL (health) grading scale, collapsed to one type since
// both map onto the same 0/1/2 exit codes (spec.md §6 "Exit codes").
type Severity int

const (
	SeverityOK Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityOK:
		return "OK"
	case SeverityWarning:
		return "WARNING"
	default:
		return "CRITICAL"
	}
}

// ExitCode maps a Severity onto the spec's 0/1/2 process exit code.
func (s Severity) ExitCode() int { return int(s) }

// CheckResult is one named signal's outcome, mirroring original_source's
// CheckResult dataclass.
type CheckResult struct {
	Name     string
	Severity Severity
	Detail   string
}

// Report aggregates CheckResults; its Overall is the max severity across
// checks (spec.md §4.9 "Overall status is the max severity across checks").
type Report struct {
	Checks  []CheckResult
	Overall Severity
}

func (r *Report) add(name string, sev Severity, detail string) {
	r.Checks = append(r.Checks, CheckResult{Name: name, Severity: sev, Detail: detail})
	if sev > r.Overall {
		r.Overall = sev
	}
}

// String renders a textual report, one line per check (spec.md §4.9: "exit
// code 1 with a textual report on fail").
func (r Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "overall: %s\n", r.Overall)
	for _, c := range r.Checks {
		fmt.Fprintf(&b, "[%s] %s: %s\n", c.Severity, c.Name, c.Detail)
	}
	return b.String()
}

// DailyOptions configures the daily health check (spec.md §4.9 "a, b, c, d").
type DailyOptions struct {
	ChannelStatsPath    string
	ExpectedBaselineRows int
	SecondaryPanelPaths []string
	FailureFlagGlob     string
}

// RunDaily runs the four daily health checks.
func RunDaily(opts DailyOptions) Report {
	var r Report

	rows, err := writer.ReadAll(opts.ChannelStatsPath)
	if err != nil || rows == nil {
		r.add("channel_stats_exists", SeverityError, "missing: "+opts.ChannelStatsPath)
	} else {
		r.add("channel_stats_exists", SeverityOK, opts.ChannelStatsPath)
		if opts.ExpectedBaselineRows > 0 && !withinPct(len(rows), opts.ExpectedBaselineRows, 0.05) {
			r.add("channel_stats_row_count", SeverityError,
				fmt.Sprintf("%d rows, expected ~%d (±5%%)", len(rows), opts.ExpectedBaselineRows))
		} else {
			r.add("channel_stats_row_count", SeverityOK, fmt.Sprintf("%d rows", len(rows)))
		}
	}

	for _, p := range opts.SecondaryPanelPaths {
		if _, err := os.Stat(p); err != nil {
			r.add("secondary_panel:"+filepath.Base(p), SeverityError, "missing: "+p)
		} else {
			r.add("secondary_panel:"+filepath.Base(p), SeverityOK, p)
		}
	}

	matches, _ := filepath.Glob(opts.FailureFlagGlob)
	if len(matches) > 0 {
		r.add("failure_sentinels", SeverityError, fmt.Sprintf("%d flag(s): %s", len(matches), strings.Join(matches, ", ")))
	} else {
		r.add("failure_sentinels", SeverityOK, "none")
	}

	return r
}

// WeeklyOptions configures the nine-signal weekly health report (spec.md
// §4.9 second paragraph).
type WeeklyOptions struct {
	ChannelStatsDir       string
	ExpectedBaselineRows  int
	VideoStatsDir         string
	LogPaths              []string
	InventoryPath         string
	DiskPath              string
	QuotaLogPath          string
	CheckpointPaths       []string
	Now                   time.Time
}

// RunWeekly runs the nine weekly health signals.
func RunWeekly(opts WeeklyOptions) Report {
	var r Report
	now := opts.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	checkFreshness(&r, "channel_stats_freshness", opts.ChannelStatsDir, now, 1, 3)
	checkFreshness(&r, "video_stats_freshness", opts.VideoStatsDir, now, 8, 8)

	rows, schemaOK := latestDailyRows(opts.ChannelStatsDir, now)
	if rows < 0 {
		r.add("channel_stats_completeness", SeverityError, "no channel-stats file found")
	} else if opts.ExpectedBaselineRows > 0 && !withinPct(rows, opts.ExpectedBaselineRows, 0.01) {
		r.add("channel_stats_completeness", SeverityError, fmt.Sprintf("%d rows, expected ~%d (±1%%)", rows, opts.ExpectedBaselineRows))
	} else {
		r.add("channel_stats_completeness", SeverityOK, fmt.Sprintf("%d rows", rows))
	}

	if rows < 0 {
		r.add("channel_stats_schema", SeverityError, "no channel-stats file found")
	} else if !schemaOK {
		r.add("channel_stats_schema", SeverityError, "missing required columns")
	} else {
		r.add("channel_stats_schema", SeverityOK, "required columns present")
	}

	errCount := scanLogsForErrors(opts.LogPaths)
	if errCount > 0 {
		r.add("log_error_scan", SeverityWarning, fmt.Sprintf("%d error line(s) in tail", errCount))
	} else {
		r.add("log_error_scan", SeverityOK, "clean")
	}

	invRows, _ := writer.ReadAll(opts.InventoryPath)
	if len(invRows) < 50000 {
		r.add("inventory_size", SeverityWarning, fmt.Sprintf("%d rows (< 50000)", len(invRows)))
	} else {
		r.add("inventory_size", SeverityOK, fmt.Sprintf("%d rows", len(invRows)))
	}

	diskUsedPct, diskErr := diskUsagePercent(opts.DiskPath)
	if diskErr != nil {
		r.add("disk_usage", SeverityWarning, "could not stat disk: "+diskErr.Error())
	} else if diskUsedPct >= 80 {
		r.add("disk_usage", SeverityWarning, fmt.Sprintf("%.1f%% used", diskUsedPct))
	} else {
		r.add("disk_usage", SeverityOK, fmt.Sprintf("%.1f%% used", diskUsedPct))
	}

	quotaUnits := sumQuotaToday(opts.QuotaLogPath, now)
	if quotaUnits >= 900000 {
		r.add("quota_usage", SeverityWarning, fmt.Sprintf("%d units today", quotaUnits))
	} else {
		r.add("quota_usage", SeverityOK, fmt.Sprintf("%d units today", quotaUnits))
	}

	staleCkpt := staleCheckpoints(opts.CheckpointPaths, now)
	if staleCkpt > 0 {
		r.add("stale_checkpoint", SeverityWarning, fmt.Sprintf("%d checkpoint(s) older than 24h", staleCkpt))
	} else {
		r.add("stale_checkpoint", SeverityOK, "none stale")
	}

	return r
}

func checkFreshness(r *Report, name, dir string, now time.Time, okDays, warnDays int) {
	age, ok := latestFileAge(dir, now)
	if !ok {
		r.add(name, SeverityError, "no files found in "+dir)
		return
	}
	days := age.Hours() / 24
	switch {
	case days <= float64(okDays):
		r.add(name, SeverityOK, fmt.Sprintf("%.1f days old", days))
	case days <= float64(warnDays):
		r.add(name, SeverityWarning, fmt.Sprintf("%.1f days old", days))
	default:
		r.add(name, SeverityError, fmt.Sprintf("%.1f days old", days))
	}
}

func latestFileAge(dir string, now time.Time) (time.Duration, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) == 0 {
		return 0, false
	}
	var newest time.Time
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(newest) {
			newest = info.ModTime()
		}
	}
	if newest.IsZero() {
		return 0, false
	}
	return now.Sub(newest), true
}

func latestDailyRows(dir string, now time.Time) (int, bool) {
	path := filepath.Join(dir, now.Format("2006-01-02")+".csv")
	rows, err := writer.ReadAll(path)
	if err != nil {
		return -1, false
	}
	if rows == nil {
		return -1, false
	}
	return len(rows), hasSchema(path, model.ChannelStatsFields)
}

func hasSchema(path string, required []string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	buf := make([]byte, 4096)
	n, _ := f.Read(buf)
	header := string(buf[:n])
	for _, col := range required {
		if !strings.Contains(header, col) {
			return false
		}
	}
	return true
}

func scanLogsForErrors(paths []string) int {
	const tailLines = 50
	var count int
	markers := []string{"ERROR", "CRITICAL", "Exception", "Traceback"}
	for _, p := range paths {
		b, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		lines := strings.Split(string(b), "\n")
		start := 0
		if len(lines) > tailLines {
			start = len(lines) - tailLines
		}
		for _, line := range lines[start:] {
			for _, m := range markers {
				if strings.Contains(line, m) {
					count++
					break
				}
			}
		}
	}
	return count
}

func sumQuotaToday(path string, now time.Time) int {
	rows, err := writer.ReadAll(path)
	if err != nil || rows == nil {
		return 0
	}
	today := now.Format("2006-01-02")
	total := 0
	for _, row := range rows {
		ts := row["timestamp"]
		if len(ts) >= 10 && ts[:10] == today {
			if units, err := strconv.Atoi(row["units"]); err == nil {
				total += units
			}
		}
	}
	return total
}

func staleCheckpoints(paths []string, now time.Time) int {
	count := 0
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) > 24*time.Hour {
			count++
		}
	}
	return count
}

func withinPct(actual, expected int, pct float64) bool {
	if expected == 0 {
		return actual == 0
	}
	diff := math.Abs(float64(actual-expected)) / float64(expected)
	return diff <= pct
}

func diskUsagePercent(path string) (float64, error) {
	if path == "" {
		path = "."
	}
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return 0, err
	}
	total := float64(stat.Blocks) * float64(stat.Bsize)
	free := float64(stat.Bavail) * float64(stat.Bsize)
	if total == 0 {
		return 0, fmt.Errorf("disk: zero total blocks for %s", path)
	}
	return (total - free) / total * 100, nil
}

// ValidateFile runs the per-file validator against a daily channel-stats
// CSV (spec.md §4.9 third paragraph). maxSubscriberDropPct is the
// configurable anomaly threshold (spec.md §6, config.StaticData's
// validation_thresholds.max_subscriber_drop_pct); 0 disables the check.
func ValidateFile(path string, expectedRows int, yesterdayPath string, maxSubscriberDropPct float64) Report {
	var r Report

	rows, err := writer.ReadAll(path)
	if err != nil {
		r.add("file_readable", SeverityError, err.Error())
		return r
	}
	if rows == nil {
		r.add("file_exists", SeverityError, "missing: "+path)
		return r
	}
	r.add("file_exists", SeverityOK, path)

	if expectedRows > 0 && !withinPct(len(rows), expectedRows, 0.01) {
		r.add("row_count", SeverityError, fmt.Sprintf("%d rows, expected ~%d (±1%%)", len(rows), expectedRows))
	} else {
		r.add("row_count", SeverityOK, fmt.Sprintf("%d rows", len(rows)))
	}

	if !hasSchema(path, model.ChannelStatsFields) {
		r.add("schema", SeverityError, "missing required columns")
	} else {
		r.add("schema", SeverityOK, "all columns present")
	}

	nullIDs, negatives, badInts, badTimes := 0, 0, 0, 0
	for _, row := range rows {
		if row["channel_id"] == "" {
			nullIDs++
		}
		for _, col := range []string{"view_count", "subscriber_count", "video_count"} {
			v, err := strconv.ParseInt(row[col], 10, 64)
			if err != nil {
				badInts++
				continue
			}
			if v < 0 {
				negatives++
			}
		}
		if _, err := time.Parse(time.RFC3339, row["scraped_at"]); err != nil {
			badTimes++
		}
	}
	reportCount(&r, "null_ids", nullIDs)
	reportCount(&r, "negative_counts", negatives)
	reportCount(&r, "integer_parse", badInts)
	reportCount(&r, "timestamp_parse", badTimes)

	if yesterdayPath != "" {
		drop := maxSubscriberDrop(rows, yesterdayPath)
		threshold := maxSubscriberDropPct
		if threshold <= 0 {
			threshold = 0.5
		}
		if drop > threshold {
			r.add("subscriber_drop", SeverityWarning, fmt.Sprintf("%.1f%% max day-over-day drop", drop*100))
		} else {
			r.add("subscriber_drop", SeverityOK, fmt.Sprintf("%.1f%% max day-over-day drop", drop*100))
		}
	}

	return r
}

func reportCount(r *Report, name string, n int) {
	if n > 0 {
		r.add(name, SeverityError, fmt.Sprintf("%d offending row(s)", n))
	} else {
		r.add(name, SeverityOK, "0 offending rows")
	}
}

func maxSubscriberDrop(today []map[string]string, yesterdayPath string) float64 {
	yesterday, err := writer.ReadAll(yesterdayPath)
	if err != nil || yesterday == nil {
		return 0
	}
	prev := make(map[string]int64, len(yesterday))
	for _, row := range yesterday {
		snap := model.ChannelStatsFromRow(row)
		prev[snap.ChannelID] = snap.SubscriberCount
	}
	maxDrop := 0.0
	for _, row := range today {
		snap := model.ChannelStatsFromRow(row)
		p, ok := prev[snap.ChannelID]
		if !ok || p <= 0 {
			continue
		}
		drop := float64(p-snap.SubscriberCount) / float64(p)
		if drop > maxDrop {
			maxDrop = drop
		}
	}
	return maxDrop
}
