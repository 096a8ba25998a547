// Command healthcheck runs the daily health check, the richer weekly health
// report, or (with --digest) renders the weekly markdown digest (spec.md
// §4.9).
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/apkerk/youtube-longitudinal/internal/config"
	"github.com/apkerk/youtube-longitudinal/internal/health"
)

func main() {
	var (
		weekly          bool
		digest          bool
		panelName       string
		expectedRows    int
		secondaryPanels []string
		cohort          string
		diskPath        string
	)

	root := &cobra.Command{
		Use:   "healthcheck",
		Short: "Run the daily health check or the weekly health report",
		RunE: func(cmd *cobra.Command, args []string) error {
			layout := config.NewLayout()
			today := time.Now().UTC().Format("2006-01-02")

			if digest {
				report := health.GenerateWeeklyDigest(health.DigestOptions{
					ChannelStatsDir: layout.ChannelStatsDir(panelName),
					VideoStatsDir:   layout.VideoStatsDir(),
					InventoryPath:   layout.VideoInventoryPath(cohort),
					LogsDir:         layout.LogsDir(),
				})
				fmt.Print(report)
				digestPath := filepath.Join(layout.LogsDir(), "weekly_digest_"+time.Now().UTC().Format("20060102")+".md")
				if err := os.MkdirAll(layout.LogsDir(), 0o755); err != nil {
					return err
				}
				return os.WriteFile(digestPath, []byte(report), 0o644)
			}

			if weekly {
				logDate := time.Now().UTC().Format("20060102")
				checkpointGlob := []string{
					layout.PanelCheckpointPath(),
				}
				opts := health.WeeklyOptions{
					ChannelStatsDir:      layout.ChannelStatsDir(panelName),
					ExpectedBaselineRows: expectedRows,
					VideoStatsDir:        layout.VideoStatsDir(),
					LogPaths:             []string{layout.LogPath("discover", logDate), layout.LogPath("panel", logDate)},
					InventoryPath:        layout.VideoInventoryPath(cohort),
					DiskPath:             diskPath,
					QuotaLogPath:         layout.QuotaLogPath(logDate),
					CheckpointPaths:      checkpointGlob,
				}
				report := health.RunWeekly(opts)
				fmt.Print(report)
				os.Exit(report.Overall.ExitCode())
			}

			opts := health.DailyOptions{
				ChannelStatsPath:     layout.ChannelStatsPath(panelName, today),
				ExpectedBaselineRows: expectedRows,
				SecondaryPanelPaths:  secondaryPanels,
				FailureFlagGlob:      layout.LogsDir() + "/daily_stats_FAILED_*.flag",
			}
			report := health.RunDaily(opts)
			fmt.Print(report)
			// The daily check exits 0 when every check passes and 1 otherwise.
			code := report.Overall.ExitCode()
			if code > 1 {
				code = 1
			}
			os.Exit(code)
			return nil
		},
	}

	flags := root.Flags()
	flags.BoolVar(&weekly, "weekly", false, "run the nine-signal weekly health report instead of the daily check")
	flags.BoolVar(&digest, "digest", false, "render the weekly markdown digest (completeness, growth trends, data volume, health-check history) instead of running a check")
	flags.StringVar(&panelName, "panel-name", "", "named sub-panel to check")
	flags.IntVar(&expectedRows, "expected-rows", 0, "expected baseline row count (0 disables the row-count check)")
	flags.StringSliceVar(&secondaryPanels, "secondary-panel", nil, "additional panel CSV paths that must exist (daily check only)")
	flags.StringVar(&cohort, "cohort", "intent", "inventory cohort to check (weekly report only)")
	flags.StringVar(&diskPath, "disk-path", ".", "filesystem path to check disk usage against (weekly report only)")

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
