// Package trending implements the daily trending collector (spec.md §4.6,
// C6): one run per UTC date, iterating the fixed region-code list, appending
// chart positions to a date-scoped log and maintaining a deduplicated
// cumulative channel-details side table.
package trending

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/apkerk/youtube-longitudinal/internal/checkpoint"
	"github.com/apkerk/youtube-longitudinal/internal/config"
	"github.com/apkerk/youtube-longitudinal/internal/model"
	"github.com/apkerk/youtube-longitudinal/internal/pass"
	"github.com/apkerk/youtube-longitudinal/internal/provider"
	"github.com/apkerk/youtube-longitudinal/internal/writer"
)

// maxChartPages is the "most popular" chart's pagination cap (spec.md §4.6:
// "up to 4 pages, 50 items/page").
const maxChartPages = 4

// Options configures one trending run.
type Options struct {
	Date               string // YYYY-MM-DD, the UTC date this run covers
	RegionCodes        []string
	TrendingLogPath    string
	ChannelDetailsPath string
	StaticData         config.StaticData
}

// Run executes the trending collector for one UTC date, resuming from ckpt
// if a checkpoint for this date already exists (spec.md §4.2 "Staleness":
// checkpoints from a different date are discarded).
func Run(ctx context.Context, p provider.Provider, opts Options, ckpt checkpoint.Handle, log zerolog.Logger) error {
	state, _ := ckpt.LoadFresh(opts.Date)
	state.Date = opts.Date
	completed := state.Set()

	knownChannels, err := writer.ReadColumn(opts.ChannelDetailsPath, "channel_id")
	if err != nil {
		return err
	}

	for _, region := range opts.RegionCodes {
		if completed[region] {
			continue
		}
		if err := collectRegion(ctx, p, opts, region, knownChannels, log); err != nil {
			log.Error().Err(err).Str("region_code", region).Msg("trending region failed, leaving uncommitted")
			return err
		}
		state.CompletedWorkUnits = append(state.CompletedWorkUnits, region)
		completed[region] = true
		if err := ckpt.Save(state); err != nil {
			return err
		}
	}

	return ckpt.Clear()
}

func collectRegion(ctx context.Context, p provider.Provider, opts Options, region string, knownChannels map[string]bool, log zerolog.Logger) error {
	scrapedAt := time.Now().UTC().Format(time.RFC3339)
	var rows [][]string
	position := 0
	pageToken := ""

	var channelIDs []string
	channelSeenThisRun := make(map[string]bool)

	for page := 0; page < maxChartPages; page++ {
		items, next, err := p.MostPopular(ctx, region, pageToken)
		if err != nil {
			return err
		}
		for _, it := range items {
			position++
			categoryName := opts.StaticData.VideoCategories[categoryIDInt(it.CategoryID)]
			sighting := model.TrendingSighting{
				TrendingDate: opts.Date,
				RegionCode:   region,
				Position:     position,
				VideoID:      it.VideoID,
				ChannelID:    it.ChannelID,
				VideoTitle:   it.Title,
				ViewCount:    it.ViewCount,
				LikeCount:    it.LikeCount,
				CommentCount: it.CommentCount,
				PublishedAt:  it.PublishedAt,
				CategoryID:   it.CategoryID,
				CategoryName: categoryName,
				ScrapedAt:    scrapedAt,
			}
			rows = append(rows, sighting.ToRow())

			if it.ChannelID != "" && !knownChannels[it.ChannelID] && !channelSeenThisRun[it.ChannelID] {
				channelSeenThisRun[it.ChannelID] = true
				channelIDs = append(channelIDs, it.ChannelID)
			}
		}
		if next == "" {
			break
		}
		pageToken = next
	}

	if len(rows) > 0 {
		if err := writer.Append(opts.TrendingLogPath, model.TrendingLogFields, rows); err != nil {
			return err
		}
	}

	if len(channelIDs) == 0 {
		return nil
	}
	results, err := p.ListChannels(ctx, channelIDs)
	if err != nil {
		return err
	}
	var channelRows [][]string
	now := time.Now().UTC().Format(time.RFC3339)
	for _, r := range results {
		if r.NotFound {
			log.Warn().Str("channel_id", r.RequestID).Msg("trending channel not found")
			continue
		}
		ch := model.Channel{
			ChannelID:         r.Channel.ChannelID,
			Title:             r.Channel.Title,
			Description:       r.Channel.Description,
			CustomURL:         r.Channel.CustomURL,
			PublishedAt:       r.Channel.PublishedAt,
			ViewCount:         r.Channel.ViewCount,
			SubscriberCount:   r.Channel.SubscriberCount,
			VideoCount:        r.Channel.VideoCount,
			Country:           r.Channel.Country,
			DefaultLanguage:   r.Channel.DefaultLanguage,
			TopicURIs:         r.Channel.TopicCategories,
			TopicNames:        topicNames(r.Channel.TopicCategories, opts.StaticData.TopicTaxonomy),
			MadeForKids:       r.Channel.MadeForKids,
			PrivacyStatus:     r.Channel.PrivacyStatus,
			LinkedStatus:      r.Channel.LinkedStatus,
			BrandingKeywords:  r.Channel.BrandingKeywords,
			Localizations:     r.Channel.Localizations,
			UploadsPlaylistID: r.Channel.UploadsPlaylistID,
			Provenance: model.Provenance{
				StreamType:      "trending",
				DiscoveryMethod: string(pass.StrategyBase),
			},
		}
		_ = now
		channelRows = append(channelRows, ch.ToRow())
		knownChannels[r.Channel.ChannelID] = true
	}
	if len(channelRows) == 0 {
		return nil
	}
	return writer.Append(opts.ChannelDetailsPath, model.ChannelInitialFields, channelRows)
}

func topicNames(uris []string, taxonomy map[string]string) []string {
	var names []string
	for _, u := range uris {
		if name, ok := taxonomy[u]; ok {
			names = append(names, name)
		}
		if len(names) == 3 {
			break
		}
	}
	return names
}

func categoryIDInt(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0
		}
		n = n*10 + int(s[i]-'0')
	}
	return n
}
