// Package config holds the static configuration surface shared by every
// collection and validation tool: filesystem layout and the tunables named in spec §6 (COHORT_CUTOFF_DATE, MAX_RESULTS_PER_PAGE,
// SLEEP_BETWEEN_CALLS, MAX_RETRIES, SHORTS_MAX_DURATION_SECONDS).
package config

import (
	"os"
	"path/filepath"
	"time"
)

// MaxResultsPerPage is fixed by the upstream API; batch endpoints chunk to it.
const MaxResultsPerPage = 50

// MaxRetries bounds the transient-HTTP backoff schedule in internal/provider.
const MaxRetries = 5

// SleepBetweenCalls is the default inter-call rate-spacing delay.
const SleepBetweenCalls = 100 * time.Millisecond

// ShortsMaxDurationSeconds classifies a video as a short. Two values (60 and
// 180) appear across the original pipeline's history; 180s is the current
// platform definition and is what this build uses (spec.md §9 open question).
const ShortsMaxDurationSeconds = 180

// CohortCutoffDate is the earliest channel creation date admitted into a
// "new-creator" stream (spec.md glossary: Cohort cutoff). Overridable via
// COHORT_CUTOFF_DATE in the environment.
var CohortCutoffDate = envOr("COHORT_CUTOFF_DATE", "2026-01-01T00:00:00Z")

// ProjectRoot is the directory all data/ and logs/ paths are relative to.
var ProjectRoot = envOr("PROJECT_ROOT", ".")

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Layout resolves the on-disk paths named in spec.md §6, all relative to
// ProjectRoot.
type Layout struct {
	Root string
}

// NewLayout builds a Layout rooted at ProjectRoot.
func NewLayout() Layout {
	return Layout{Root: ProjectRoot}
}

func (l Layout) path(parts ...string) string {
	return filepath.Join(append([]string{l.Root}, parts...)...)
}

// ChannelStreamDir is data/channels/<stream>/.
func (l Layout) ChannelStreamDir(stream string) string {
	return l.path("data", "channels", stream)
}

// DiscoveryOutputPath is data/channels/<stream>/initial_<YYYYMMDD>.csv.
func (l Layout) DiscoveryOutputPath(stream, yyyymmdd string) string {
	return filepath.Join(l.ChannelStreamDir(stream), "initial_"+yyyymmdd+".csv")
}

// DiscoveryCheckpointPath is data/channels/<stream>/.discovery_checkpoint.json.
func (l Layout) DiscoveryCheckpointPath(stream string) string {
	return filepath.Join(l.ChannelStreamDir(stream), ".discovery_checkpoint.json")
}

// TrendingLogPath is data/channels/<stream>/trending_log_<date>.csv.
func (l Layout) TrendingLogPath(stream, date string) string {
	return filepath.Join(l.ChannelStreamDir(stream), "trending_log_"+date+".csv")
}

// ChannelDetailsPath is data/channels/<stream>/channel_details.csv (trending only).
func (l Layout) ChannelDetailsPath(stream string) string {
	return filepath.Join(l.ChannelStreamDir(stream), "channel_details.csv")
}

// TrendingCheckpointPath is the trending collector's date-scoped checkpoint.
func (l Layout) TrendingCheckpointPath(stream string) string {
	return filepath.Join(l.ChannelStreamDir(stream), ".trending_checkpoint.json")
}

// VideoInventoryPath is data/video_inventory/<cohort>_inventory.csv.
func (l Layout) VideoInventoryPath(cohort string) string {
	return l.path("data", "video_inventory", cohort+"_inventory.csv")
}

// EnumerateCheckpointPath derives a checkpoint name from the inventory file
// so that parallel runs against different inventories don't collide.
func (l Layout) EnumerateCheckpointPath(cohort string) string {
	return l.path("data", "video_inventory", "."+cohort+"_enumerate_checkpoint.json")
}

// ChannelStatsPath is data/daily_panels/channel_stats[/<panel>]/<date>.csv.
func (l Layout) ChannelStatsPath(panelName, date string) string {
	if panelName == "" {
		return l.path("data", "daily_panels", "channel_stats", date+".csv")
	}
	return l.path("data", "daily_panels", "channel_stats", panelName, date+".csv")
}

// ChannelStatsDir is data/daily_panels/channel_stats[/<panel>]/.
func (l Layout) ChannelStatsDir(panelName string) string {
	if panelName == "" {
		return l.path("data", "daily_panels", "channel_stats")
	}
	return l.path("data", "daily_panels", "channel_stats", panelName)
}

// VideoStatsPath is data/daily_panels/video_stats/<date>.csv.
func (l Layout) VideoStatsPath(date string) string {
	return l.path("data", "daily_panels", "video_stats", date+".csv")
}

// VideoStatsDir is data/daily_panels/video_stats/.
func (l Layout) VideoStatsDir() string {
	return l.path("data", "daily_panels", "video_stats")
}

// PanelCheckpointPath is the dual-cadence panel collector's daily checkpoint.
func (l Layout) PanelCheckpointPath() string {
	return l.path("data", "daily_panels", ".daily_stats_checkpoint.json")
}

// LogsDir is data/logs/.
func (l Layout) LogsDir() string {
	return l.path("data", "logs")
}

// LogPath is data/logs/<job>_<YYYYMMDD>.log.
func (l Layout) LogPath(job, yyyymmdd string) string {
	return filepath.Join(l.LogsDir(), job+"_"+yyyymmdd+".log")
}

// QuotaLogPath is data/logs/quota_<YYYYMMDD>.csv.
func (l Layout) QuotaLogPath(yyyymmdd string) string {
	return filepath.Join(l.LogsDir(), "quota_"+yyyymmdd+".csv")
}

// FailureFlagPath is data/logs/daily_stats_FAILED_<YYYY-MM-DD>.flag.
func (l Layout) FailureFlagPath(date string) string {
	return filepath.Join(l.LogsDir(), "daily_stats_FAILED_"+date+".flag")
}

// EnsureDirectories creates every directory this layout is expected to write
// under. Bootstrapping directories is ordinarily an external collaborator's
// job (spec.md §1), but every cmd/ entry point needs somewhere to write, so
// it lives here as a small, explicit helper rather than scattered os.MkdirAll
// calls.
func (l Layout) EnsureDirectories() error {
	dirs := []string{
		l.path("data", "channels"),
		l.path("data", "video_inventory"),
		l.path("data", "daily_panels", "channel_stats"),
		l.path("data", "daily_panels", "video_stats"),
		l.LogsDir(),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return err
		}
	}
	return nil
}
