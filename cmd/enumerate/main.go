// Command enumerate runs the inventory enumerator (spec.md §4.7): paginates
// each channel's uploads playlist to completion, appending video sightings
// to the inventory CSV.
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
	"github.com/apkerk/youtube-longitudinal/internal/enumerate"
	"github.com/apkerk/youtube-longitudinal/internal/logging"
	"github.com/apkerk/youtube-longitudinal/internal/provider"
	"github.com/apkerk/youtube-longitudinal/internal/writer"
)

func main() {
	_ = godotenv.Load()

	var (
		cohort        string
		channelListFile string
		apiKey        string
		baseURL       string
	)

	root := &cobra.Command{
		Use:   "enumerate",
		Short: "Enumerate each channel's uploads playlist into the video inventory",
		RunE: func(cmd *cobra.Command, args []string) error {
			layout := config.NewLayout()
			if err := layout.EnsureDirectories(); err != nil {
				return err
			}
			today := time.Now().UTC().Format("20060102")
			log, err := logging.New("enumerate", layout.LogPath("enumerate", today))
			if err != nil {
				return err
			}

			if channelListFile == "" {
				return fmt.Errorf("--channel-list-file is required")
			}
			channelSet, err := writer.ReadColumn(channelListFile, "channel_id")
			if err != nil {
				return fmt.Errorf("reading channel list: %w", err)
			}
			channelIDs := make([]string, 0, len(channelSet))
			for id := range channelSet {
				channelIDs = append(channelIDs, id)
			}

			client := provider.NewClient(provider.ClientConfig{
				BaseURL:           baseURL,
				APIKey:            apiKey,
				SleepBetweenCalls: config.SleepBetweenCalls,
				QuotaLogPath:      layout.QuotaLogPath(today),
				Logger:            log,
			})

			inventoryPath := layout.VideoInventoryPath(cohort)
			ckpt := checkpoint.NewHandle(layout.EnumerateCheckpointPath(cohort))

			opts := enumerate.Options{
				ChannelIDs:    channelIDs,
				InventoryPath: inventoryPath,
			}
			if err := enumerate.Run(cmd.Context(), client, opts, ckpt, log); err != nil {
				log.Error().Err(err).Msg("enumeration run failed")
				return err
			}
			log.Info().Str("inventory", inventoryPath).Int("channels", len(channelIDs)).Msg("enumeration run complete")
			return nil
		},
	}

	flags := root.Flags()
	flags.StringVar(&cohort, "cohort", "intent", "inventory cohort name")
	flags.StringVar(&channelListFile, "channel-list-file", "", "CSV file whose channel_id column names the channels to enumerate")
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
