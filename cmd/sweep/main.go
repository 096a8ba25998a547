// Command sweep runs the sweep validator (spec.md §4.10): compares a
// current channel snapshot to a previous one and reports per-channel
// anomalies.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/apkerk/youtube-longitudinal/internal/config"
	"github.com/apkerk/youtube-longitudinal/internal/sweep"
)

func main() {
	var (
		currentPath    string
		previousPath   string
		staticDataPath string
	)

	root := &cobra.Command{
		Use:   "sweep",
		Short: "Compare a current channel snapshot to a previous one",
		RunE: func(cmd *cobra.Command, args []string) error {
			if currentPath == "" || previousPath == "" {
				return fmt.Errorf("--current and --previous are required")
			}
			staticData, err := config.LoadStaticData(staticDataPath)
			if err != nil {
				return err
			}

			report, err := sweep.Compare(currentPath, previousPath, staticData.ValidationThresholds.MaxSubscriberDropPct)
			if err != nil {
				return err
			}
			fmt.Printf("channels: %d  errors: %d  warnings: %d  infos: %d\n",
				len(report.Channels), report.Errors, report.Warnings, report.Infos)
			for _, ch := range report.Channels {
				if len(ch.Findings) == 0 {
					continue
				}
				for _, f := range ch.Findings {
					fmt.Printf("[%s] %s: %s (%s)\n", f.Severity, ch.ChannelID, f.Kind, f.Detail)
				}
			}
			os.Exit(report.ExitCode())
			return nil
		},
	}

	flags := root.Flags()
	flags.StringVar(&currentPath, "current", "", "current channel snapshot CSV")
	flags.StringVar(&previousPath, "previous", "", "previous channel snapshot CSV")
	flags.StringVar(&staticDataPath, "static-data", "", "path to a YAML static-data override file")

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
