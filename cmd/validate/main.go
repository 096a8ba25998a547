// Command validate runs the per-file validator (spec.md §4.9 third
// paragraph) against a single daily channel-stats CSV.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/apkerk/youtube-longitudinal/internal/config"
	"github.com/apkerk/youtube-longitudinal/internal/health"
)

func main() {
	var (
		path                 string
		expectedRows         int
		yesterdayPath        string
		staticDataPath       string
	)

	root := &cobra.Command{
		Use:   "validate",
		Short: "Validate a daily channel-stats CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				return fmt.Errorf("--path is required")
			}
			staticData, err := config.LoadStaticData(staticDataPath)
			if err != nil {
				return err
			}
			report := health.ValidateFile(path, expectedRows, yesterdayPath, staticData.ValidationThresholds.MaxSubscriberDropPct)
			fmt.Print(report)
			os.Exit(report.Overall.ExitCode())
			return nil
		},
	}

	flags := root.Flags()
	flags.StringVar(&path, "path", "", "channel-stats CSV to validate")
	flags.IntVar(&expectedRows, "expected-rows", 0, "expected baseline row count (0 disables the row-count check)")
	flags.StringVar(&yesterdayPath, "yesterday-path", "", "yesterday's channel-stats CSV, for the day-over-day subscriber-drop check")
	flags.StringVar(&staticDataPath, "static-data", "", "path to a YAML static-data override file")

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
