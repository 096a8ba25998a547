// Command discover runs the discovery driver (spec.md §4.5) for one stream:
// a set of keywords expanded across passes and time-windows into new
// channel rows.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/apkerk/youtube-longitudinal/internal/checkpoint"
	"github.com/apkerk/youtube-longitudinal/internal/config"
	"github.com/apkerk/youtube-longitudinal/internal/discovery"
	"github.com/apkerk/youtube-longitudinal/internal/logging"
	"github.com/apkerk/youtube-longitudinal/internal/pass"
	"github.com/apkerk/youtube-longitudinal/internal/provider"
	"github.com/apkerk/youtube-longitudinal/internal/writer"
)

func main() {
	_ = godotenv.Load()

	var (
		stream         string
		strategiesCSV  string
		daysBack       int
		windowHours    int
		target         int
		staticDataPath string
		excludeFile    string
		applyCohort    bool
		enrichFirst    bool
		apiKey         string
		baseURL        string
	)

	root := &cobra.Command{
		Use:   "discover",
		Short: "Discover channels for a keyword stream via additive search passes",
		RunE: func(cmd *cobra.Command, args []string) error {
			layout := config.NewLayout()
			if err := layout.EnsureDirectories(); err != nil {
				return err
			}

			today := time.Now().UTC().Format("20060102")
			log, err := logging.New("discover", layout.LogPath("discover", today))
			if err != nil {
				return err
			}

			staticData, err := config.LoadStaticData(staticDataPath)
			if err != nil {
				return fmt.Errorf("loading static data: %w", err)
			}
			keywords := staticData.Keywords[stream]
			if len(keywords) == 0 {
				return fmt.Errorf("no keywords configured for stream %q", stream)
			}

			var exclude map[string]bool
			if excludeFile != "" {
				exclude, err = writer.ReadColumn(excludeFile, "channel_id")
				if err != nil {
					return fmt.Errorf("reading exclude file: %w", err)
				}
			}

			client := provider.NewClient(provider.ClientConfig{
				BaseURL:           baseURL,
				APIKey:            apiKey,
				SleepBetweenCalls: config.SleepBetweenCalls,
				QuotaLogPath:      layout.QuotaLogPath(today),
				Logger:            log,
			})

			outputPath := layout.DiscoveryOutputPath(stream, today)
			ckpt := checkpoint.NewHandle(layout.DiscoveryCheckpointPath(stream))

			opts := discovery.Options{
				Stream:            stream,
				Keywords:          keywords,
				Strategies:        parseStrategies(strategiesCSV),
				OutputPath:        outputPath,
				ExcludeSet:        exclude,
				DaysBack:          daysBack,
				WindowHours:       windowHours,
				Target:            target,
				ApplyCohortFilter: applyCohort,
				CohortCutoff:      config.CohortCutoffDate,
				StaticData:        staticData,
			}

			ctx := cmd.Context()
			if err := discovery.Run(ctx, client, opts, ckpt, log); err != nil {
				log.Error().Err(err).Msg("discovery run failed")
				return err
			}

			if enrichFirst {
				if err := discovery.EnrichFirstVideo(ctx, client, outputPath); err != nil {
					log.Error().Err(err).Msg("first-video enrichment failed")
					return err
				}
			}

			log.Info().Str("output", outputPath).Msg("discovery run complete")
			return nil
		},
	}

	flags := root.Flags()
	flags.StringVar(&stream, "stream", "intent", "keyword stream to discover (key into the static keyword map)")
	flags.StringVar(&strategiesCSV, "strategies", "base", "comma-separated strategies: base,safesearch,topicid,regioncode,duration,relevance,windows")
	flags.IntVar(&daysBack, "days-back", 0, "lookback horizon in days (0 = from COHORT_CUTOFF_DATE)")
	flags.IntVar(&windowHours, "window-hours", 24, "time-window size in hours")
	flags.IntVar(&target, "target", 0, "stop early once this many channels are discovered (0 = no limit)")
	flags.StringVar(&staticDataPath, "static-data", "", "path to a YAML static-data override file")
	flags.StringVar(&excludeFile, "exclude-file", "", "CSV file whose channel_id column is excluded from discovery")
	flags.BoolVar(&applyCohort, "cohort-filter", true, "filter discovered channels to published_at >= COHORT_CUTOFF_DATE")
	flags.BoolVar(&enrichFirst, "enrich-first-video", false, "run the first-video enrichment pass after discovery")
	flags.StringVar(&apiKey, "api-key", os.Getenv("API_KEY"), "upstream API key")
	flags.StringVar(&baseURL, "base-url", envOrDefault("API_BASE_URL", "https://www.googleapis.com/youtube/v3"), "upstream API base URL")

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func parseStrategies(csv string) []pass.Strategy {
	var out []pass.Strategy
	for _, s := range strings.Split(csv, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, pass.Strategy(s))
		}
	}
	return out
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
