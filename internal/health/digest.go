package health

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/apkerk/youtube-longitudinal/internal/model"
	"github.com/apkerk/youtube-longitudinal/internal/writer"
)

// DigestOptions configures the weekly markdown digest (spec.md §4.9: "a
// weekly markdown digest summarizing completeness, growth trends, data
// volume, and health-check history"), grounded on original_source's
// weekly_digest.py. It reads the same directories RunWeekly reads.
type DigestOptions struct {
	ChannelStatsDir string
	VideoStatsDir   string
	InventoryPath   string
	LogsDir         string
	Now             time.Time
}

// channelTrends holds the week-over-week growth numbers computed from the
// first and last channel-stats file in range (weekly_digest.py's
// compute_channel_trends).
type channelTrends struct {
	channelsTracked int
	avgSubChange    float64
	medianSubChange float64
	avgViewChange   float64
	totalViewGrowth int64
}

// GenerateWeeklyDigest renders the markdown digest for the 7-day period
// ending at opts.Now, built from the same channel-stats, video-stats,
// inventory, and log directories RunWeekly inspects.
func GenerateWeeklyDigest(opts DigestOptions) string {
	now := opts.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	start := now.AddDate(0, 0, -7)

	var b strings.Builder
	fmt.Fprintf(&b, "# Weekly Digest\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", now.Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(&b, "Period: %s to %s\n\n", start.Format("2006-01-02"), now.Format("2006-01-02"))

	channelFiles := filesInRange(opts.ChannelStatsDir, start, now)
	writeChannelStatsSection(&b, opts.ChannelStatsDir, channelFiles)

	videoFiles := filesInRange(opts.VideoStatsDir, start, now)
	writeVideoStatsSection(&b, opts.VideoStatsDir, videoFiles)

	writeInventorySection(&b, opts.InventoryPath)

	writeGrowthTrendsSection(&b, channelFiles)

	writeDataVolumeSection(&b, opts.ChannelStatsDir, opts.VideoStatsDir, opts.InventoryPath, opts.LogsDir)

	writeHealthHistorySection(&b, opts.LogsDir, start, now)

	return b.String()
}

// filesInRange globs dir for <YYYY-MM-DD>.csv files whose filename stem
// falls within [start, end], sorted oldest first (weekly_digest.py's
// get_files_in_range).
func filesInRange(dir string, start, end time.Time) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".csv" {
			continue
		}
		stem := strings.TrimSuffix(e.Name(), ".csv")
		d, err := time.Parse("2006-01-02", stem)
		if err != nil {
			continue
		}
		if d.Before(start) || d.After(end) {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	sort.Strings(out)
	return out
}

func countRows(path string) int {
	rows, err := writer.ReadAll(path)
	if err != nil {
		return 0
	}
	return len(rows)
}

func writeChannelStatsSection(b *strings.Builder, dir string, files []string) {
	fmt.Fprintf(b, "## Channel Stats\n\n")
	fmt.Fprintf(b, "Files this week: %d (expected 7)\n\n", len(files))
	if len(files) == 0 {
		fmt.Fprintf(b, "No channel-stats files found in %s.\n\n", dir)
		return
	}
	latest := files[len(files)-1]
	fmt.Fprintf(b, "Latest file: %s (%d rows)\n\n", filepath.Base(latest), countRows(latest))
}

func writeVideoStatsSection(b *strings.Builder, dir string, files []string) {
	fmt.Fprintf(b, "## Video Stats\n\n")
	fmt.Fprintf(b, "Files this week: %d (expected 1)\n\n", len(files))
	if len(files) == 0 {
		fmt.Fprintf(b, "No video-stats files found in %s.\n\n", dir)
		return
	}
	latest := files[len(files)-1]
	fmt.Fprintf(b, "Latest file: %s (%d rows)\n\n", filepath.Base(latest), countRows(latest))
}

func writeInventorySection(b *strings.Builder, path string) {
	fmt.Fprintf(b, "## Video Inventory\n\n")
	rows, err := writer.ReadAll(path)
	if err != nil || rows == nil {
		fmt.Fprintf(b, "Inventory file not found.\n\n")
		return
	}
	fmt.Fprintf(b, "Total videos tracked: %d\n\n", len(rows))
}

// writeGrowthTrendsSection requires at least two channel-stats files in
// range; below that it omits the section entirely, matching
// weekly_digest.py's guard in compute_channel_trends.
func writeGrowthTrendsSection(b *strings.Builder, files []string) {
	if len(files) < 2 {
		return
	}
	trends, ok := computeChannelTrends(files[0], files[len(files)-1])
	if !ok {
		return
	}
	fmt.Fprintf(b, "## Growth Trends (week-over-week)\n\n")
	fmt.Fprintf(b, "Channels tracked in both snapshots: %d\n\n", trends.channelsTracked)
	fmt.Fprintf(b, "Average subscriber change: %.1f\n\n", trends.avgSubChange)
	fmt.Fprintf(b, "Median subscriber change: %.1f\n\n", trends.medianSubChange)
	fmt.Fprintf(b, "Average view change: %.1f\n\n", trends.avgViewChange)
	fmt.Fprintf(b, "Total view growth: %d\n\n", trends.totalViewGrowth)
}

// computeChannelTrends loads channel_id -> {subs, views} from the first and
// last file and diffs the channel IDs present in both (weekly_digest.py's
// compute_channel_trends).
func computeChannelTrends(firstPath, lastPath string) (channelTrends, bool) {
	first, err := writer.ReadAll(firstPath)
	if err != nil {
		return channelTrends{}, false
	}
	last, err := writer.ReadAll(lastPath)
	if err != nil {
		return channelTrends{}, false
	}

	firstByID := make(map[string]model.ChannelStatsSnapshot, len(first))
	for _, row := range first {
		snap := model.ChannelStatsFromRow(row)
		firstByID[snap.ChannelID] = snap
	}

	var subDeltas, viewDeltas []float64
	var totalViewGrowth int64
	for _, row := range last {
		snap := model.ChannelStatsFromRow(row)
		prev, ok := firstByID[snap.ChannelID]
		if !ok {
			continue
		}
		subDeltas = append(subDeltas, float64(snap.SubscriberCount-prev.SubscriberCount))
		viewDelta := snap.ViewCount - prev.ViewCount
		viewDeltas = append(viewDeltas, float64(viewDelta))
		totalViewGrowth += viewDelta
	}

	if len(subDeltas) == 0 {
		return channelTrends{}, false
	}

	return channelTrends{
		channelsTracked: len(subDeltas),
		avgSubChange:    average(subDeltas),
		medianSubChange: median(subDeltas),
		avgViewChange:   average(viewDeltas),
		totalViewGrowth: totalViewGrowth,
	}, true
}

func average(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func median(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

func writeDataVolumeSection(b *strings.Builder, channelStatsDir, videoStatsDir, inventoryPath, logsDir string) {
	fmt.Fprintf(b, "## Data Volume\n\n")
	panelsMB := dirSizeMB(channelStatsDir) + dirSizeMB(videoStatsDir)
	inventoryMB := fileSizeMB(inventoryPath)
	logsMB := dirSizeMB(logsDir)
	fmt.Fprintf(b, "Daily panels: %.2f MB\n\n", panelsMB)
	fmt.Fprintf(b, "Video inventory: %.2f MB\n\n", inventoryMB)
	fmt.Fprintf(b, "Logs: %.2f MB\n\n", logsMB)
	fmt.Fprintf(b, "Total: %.2f MB\n\n", panelsMB+inventoryMB+logsMB)
}

// dirSizeMB recursively sums file sizes under dir, converting bytes to MB
// (weekly_digest.py's dir_size_mb).
func dirSizeMB(dir string) float64 {
	var total int64
	_ = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info == nil || info.IsDir() {
			return nil
		}
		total += info.Size()
		return nil
	})
	return float64(total) / (1024 * 1024)
}

func fileSizeMB(path string) float64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return float64(info.Size()) / (1024 * 1024)
}

// writeHealthHistorySection scans health_check_<YYYYMMDD>.log files in range
// for FAILING/DEGRADED markers in the first 500 bytes (weekly_digest.py's
// get_health_check_summary).
func writeHealthHistorySection(b *strings.Builder, logsDir string, start, end time.Time) {
	fmt.Fprintf(b, "## Health Check History\n\n")

	entries, err := os.ReadDir(logsDir)
	if err != nil {
		fmt.Fprintf(b, "All checks passed.\n\n")
		return
	}

	var issues []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		const prefix, suffix = "health_check_", ".log"
		if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, suffix) {
			continue
		}
		stem := name[len(prefix) : len(name)-len(suffix)]
		d, err := time.Parse("20060102", stem)
		if err != nil {
			continue
		}
		if d.Before(start) || d.After(end) {
			continue
		}

		path := filepath.Join(logsDir, name)
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		buf := make([]byte, 500)
		n, _ := f.Read(buf)
		f.Close()
		head := string(buf[:n])
		if strings.Contains(head, "FAILING") || strings.Contains(head, "DEGRADED") {
			issues = append(issues, name)
		}
	}

	if len(issues) == 0 {
		fmt.Fprintf(b, "All checks passed.\n\n")
		return
	}
	sort.Strings(issues)
	for _, name := range issues {
		fmt.Fprintf(b, "- %s\n", name)
	}
	b.WriteString("\n")
}
