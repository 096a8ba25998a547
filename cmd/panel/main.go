// Command panel runs the dual-cadence panel collector (spec.md §4.8):
// daily channel-stats snapshots and/or weekly video-stats snapshots.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/apkerk/youtube-longitudinal/internal/checkpoint"
	"github.com/apkerk/youtube-longitudinal/internal/config"
	"github.com/apkerk/youtube-longitudinal/internal/logging"
	"github.com/apkerk/youtube-longitudinal/internal/model"
	"github.com/apkerk/youtube-longitudinal/internal/panel"
	"github.com/apkerk/youtube-longitudinal/internal/provider"
	"github.com/apkerk/youtube-longitudinal/internal/writer"
)

func main() {
	_ = godotenv.Load()

	var (
		mode          string
		date          string
		panelName     string
		cohort        string
		channelList   string
		apiKey        string
		baseURL       string
	)

	root := &cobra.Command{
		Use:   "panel",
		Short: "Collect daily channel-stats and/or weekly video-stats snapshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			layout := config.NewLayout()
			if err := layout.EnsureDirectories(); err != nil {
				return err
			}

			backfilling := date != ""
			if date == "" {
				date = time.Now().UTC().Format("2006-01-02")
			}
			logDate := time.Now().UTC().Format("20060102")
			log, err := logging.New("panel", layout.LogPath("panel", logDate))
			if err != nil {
				return err
			}

			var channelIDs, videoIDs []string
			inventoryPath := layout.VideoInventoryPath(cohort)
			if channelList != "" {
				set, err := writer.ReadColumn(channelList, "channel_id")
				if err != nil {
					return fmt.Errorf("reading channel list: %w", err)
				}
				for id := range set {
					channelIDs = append(channelIDs, id)
				}
			} else {
				rows, err := writer.ReadAll(inventoryPath)
				if err != nil {
					return fmt.Errorf("reading inventory: %w", err)
				}
				chSet := make(map[string]bool)
				for _, row := range rows {
					v := model.VideoSightingFromRow(row)
					if !chSet[v.ChannelID] {
						chSet[v.ChannelID] = true
						channelIDs = append(channelIDs, v.ChannelID)
					}
					videoIDs = append(videoIDs, v.VideoID)
				}
			}

			client := provider.NewClient(provider.ClientConfig{
				BaseURL:           baseURL,
				APIKey:            apiKey,
				SleepBetweenCalls: config.SleepBetweenCalls,
				QuotaLogPath:      layout.QuotaLogPath(logDate),
				Logger:            log,
			})

			yesterday := time.Now().UTC().AddDate(0, 0, -1).Format("2006-01-02")
			opts := panel.Options{
				Mode:               panel.Mode(mode),
				Date:               date,
				PanelName:          panelName,
				ChannelIDs:         channelIDs,
				VideoIDs:           videoIDs,
				ChannelStatsPath:   layout.ChannelStatsPath(panelName, date),
				VideoStatsPath:     layout.VideoStatsPath(date),
				InventoryPath:      inventoryPath,
				FailureFlagPath:    layout.FailureFlagPath(date),
				Backfilling:        backfilling,
				YesterdayStatsPath: layout.ChannelStatsPath(panelName, yesterday),
			}

			ckpt := checkpoint.NewHandle(layout.PanelCheckpointPath())
			if err := panel.Run(cmd.Context(), client, opts, ckpt, log); err != nil {
				log.Error().Err(err).Msg("panel run failed")
				return err
			}
			log.Info().Str("mode", mode).Str("date", date).Msg("panel run complete")
			return nil
		},
	}

	flags := root.Flags()
	flags.StringVar(&mode, "mode", "channel", "collection mode: channel, video, or both")
	flags.StringVar(&date, "date", "", "backfill a specific UTC date (YYYY-MM-DD); default is today, live mode")
	flags.StringVar(&panelName, "panel-name", "", "optional named sub-panel (e.g. ai_census)")
	flags.StringVar(&cohort, "cohort", "intent", "inventory cohort name (video mode and channel-mode-from-inventory)")
	flags.StringVar(&channelList, "channel-list-file", "", "CSV file whose channel_id column overrides the inventory-derived channel list")
	flags.StringVar(&apiKey, "api-key", os.Getenv("API_KEY"), "upstream API key")
	flags.StringVar(&baseURL, "base-url", envOrDefault("API_BASE_URL", "https://www.googleapis.com/youtube/v3"), "upstream API base URL")

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
