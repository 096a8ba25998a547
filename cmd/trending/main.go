// Command trending runs the daily trending collector (spec.md §4.6): one
// chart enumeration per UTC date across the configured region-code list.
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
	"github.com/apkerk/youtube-longitudinal/internal/provider"
	"github.com/apkerk/youtube-longitudinal/internal/trending"
)

func main() {
	_ = godotenv.Load()

	var (
		stream         string
		date           string
		staticDataPath string
		apiKey         string
		baseURL        string
	)

	root := &cobra.Command{
		Use:   "trending",
		Short: "Collect the daily trending chart across region codes",
		RunE: func(cmd *cobra.Command, args []string) error {
			layout := config.NewLayout()
			if err := layout.EnsureDirectories(); err != nil {
				return err
			}
			if date == "" {
				date = time.Now().UTC().Format("2006-01-02")
			}
			logDate := time.Now().UTC().Format("20060102")
			log, err := logging.New("trending", layout.LogPath("trending", logDate))
			if err != nil {
				return err
			}

			staticData, err := config.LoadStaticData(staticDataPath)
			if err != nil {
				return fmt.Errorf("loading static data: %w", err)
			}
			regionCodes := staticData.TrendingRegionCodes

			client := provider.NewClient(provider.ClientConfig{
				BaseURL:           baseURL,
				APIKey:            apiKey,
				SleepBetweenCalls: config.SleepBetweenCalls,
				QuotaLogPath:      layout.QuotaLogPath(logDate),
				Logger:            log,
			})

			ckpt := checkpoint.NewHandle(layout.TrendingCheckpointPath(stream))
			opts := trending.Options{
				Date:               date,
				RegionCodes:        regionCodes,
				TrendingLogPath:    layout.TrendingLogPath(stream, date),
				ChannelDetailsPath: layout.ChannelDetailsPath(stream),
				StaticData:         staticData,
			}

			if err := trending.Run(cmd.Context(), client, opts, ckpt, log); err != nil {
				log.Error().Err(err).Msg("trending run failed")
				return err
			}
			log.Info().Str("date", date).Msg("trending run complete")
			return nil
		},
	}

	flags := root.Flags()
	flags.StringVar(&stream, "stream", "trending", "output stream name")
	flags.StringVar(&date, "date", "", "UTC date to collect (YYYY-MM-DD, default today)")
	flags.StringVar(&staticDataPath, "static-data", "", "path to a YAML static-data override file")
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
