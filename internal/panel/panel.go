// Package panel implements the dual-cadence panel collector (spec.md §4.8,
// C8): daily channel-stats snapshots, weekly video-stats snapshots, new-
// video detection off the channel stream, and a failure sentinel on fatal
// error.
package panel

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/apkerk/youtube-longitudinal/internal/checkpoint"
	"github.com/apkerk/youtube-longitudinal/internal/config"
	"github.com/apkerk/youtube-longitudinal/internal/enumerate"
	"github.com/apkerk/youtube-longitudinal/internal/model"
	"github.com/apkerk/youtube-longitudinal/internal/provider"
	"github.com/apkerk/youtube-longitudinal/internal/writer"
)

// Mode selects which half (or both) of the dual-cadence panel to collect.
type Mode string

const (
	ModeChannel Mode = "channel"
	ModeVideo   Mode = "video"
	ModeBoth    Mode = "both"
)

// Options configures one panel run.
type Options struct {
	Mode               Mode
	Date               string // YYYY-MM-DD
	PanelName          string
	ChannelIDs         []string
	VideoIDs           []string
	ChannelStatsPath   string
	VideoStatsPath     string
	InventoryPath      string
	FailureFlagPath    string
	Backfilling        bool // true when --date names a past date explicitly
	YesterdayStatsPath string
}

// Run executes the panel collector per opts.Mode, resuming from ckpt, and
// writing a failure sentinel on fatal error (spec.md §4.8 "Failure
// sentinel").
func Run(ctx context.Context, p provider.Provider, opts Options, ckpt checkpoint.Handle, log zerolog.Logger) error {
	err := run(ctx, p, opts, ckpt, log)
	if err != nil {
		if werr := writeFailureFlag(opts.FailureFlagPath, err); werr != nil {
			log.Error().Err(werr).Msg("failed to write failure sentinel")
		}
	}
	return err
}

func run(ctx context.Context, p provider.Provider, opts Options, ckpt checkpoint.Handle, log zerolog.Logger) error {
	state, _ := ckpt.LoadFresh(opts.Date)
	state.Date = opts.Date

	channelDone, _ := state.Extra["channel_stats_done"].(bool)
	videoBatchesDone := 0
	if v, ok := state.Extra["video_batches_done"].(float64); ok {
		videoBatchesDone = int(v)
	}
	if state.Extra == nil {
		state.Extra = map[string]any{}
	}

	if opts.Mode == ModeChannel || opts.Mode == ModeBoth {
		if !channelDone {
			if err := collectChannelStats(ctx, p, opts, log); err != nil {
				return fmt.Errorf("channel stats: %w", err)
			}
			state.Extra["channel_stats_done"] = true
			if err := ckpt.Save(state); err != nil {
				return err
			}

			if !opts.Backfilling {
				if err := detectNewVideos(ctx, p, opts, log); err != nil {
					log.Error().Err(err).Msg("new-video detection failed (non-fatal)")
				}
			}
		}
	}

	if opts.Mode == ModeVideo || opts.Mode == ModeBoth {
		if err := collectVideoStats(ctx, p, opts, videoBatchesDone, &state, ckpt, log); err != nil {
			return fmt.Errorf("video stats: %w", err)
		}
	}

	return ckpt.Clear()
}

func collectChannelStats(ctx context.Context, p provider.Provider, opts Options, log zerolog.Logger) error {
	ids := uniqueNonEmpty(opts.ChannelIDs)
	if len(ids) == 0 {
		return nil
	}
	results, err := p.ListChannels(ctx, ids)
	if err != nil {
		return err
	}
	scrapedAt := time.Now().UTC().Format(time.RFC3339)
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		if r.NotFound {
			row := model.ChannelStatsSnapshot{
				ChannelID: r.RequestID,
				ScrapedAt: scrapedAt,
				Status:    "not_found",
			}
			rows = append(rows, row.ToRow())
			continue
		}
		row := model.ChannelStatsSnapshot{
			ChannelID:       r.Channel.ChannelID,
			ViewCount:       r.Channel.ViewCount,
			SubscriberCount: r.Channel.SubscriberCount,
			VideoCount:      r.Channel.VideoCount,
			MadeForKids:     r.Channel.MadeForKids,
			ScrapedAt:       scrapedAt,
			Status:          "",
		}
		rows = append(rows, row.ToRow())
	}
	return writer.Rewrite(opts.ChannelStatsPath, model.ChannelStatsFields, rows)
}

func collectVideoStats(ctx context.Context, p provider.Provider, opts Options, startBatch int, state *checkpoint.State, ckpt checkpoint.Handle, log zerolog.Logger) error {
	ids := uniqueNonEmpty(opts.VideoIDs)
	batches := chunkIDs(ids, config.MaxResultsPerPage)

	for i := startBatch; i < len(batches); i++ {
		results, err := p.ListVideos(ctx, batches[i])
		if err != nil {
			return err
		}
		scrapedAt := time.Now().UTC().Format(time.RFC3339)
		rows := make([][]string, 0, len(results))
		for _, r := range results {
			if r.NotFound {
				row := model.VideoStatsSnapshot{VideoID: r.RequestID, ScrapedAt: scrapedAt, Status: "not_found"}
				rows = append(rows, row.ToRow())
				continue
			}
			row := model.VideoStatsSnapshot{
				VideoID:      r.Video.VideoID,
				ViewCount:    r.Video.ViewCount,
				LikeCount:    r.Video.LikeCount,
				CommentCount: r.Video.CommentCount,
				ScrapedAt:    scrapedAt,
				Status:       "",
			}
			rows = append(rows, row.ToRow())
		}
		if err := writer.Append(opts.VideoStatsPath, model.VideoStatsFields, rows); err != nil {
			return err
		}
		state.Extra["video_batches_done"] = float64(i + 1)
		if err := ckpt.Save(*state); err != nil {
			return err
		}
	}
	return nil
}

// detectNewVideos implements spec.md §4.8 "New-video detection": for each
// channel whose current video_count strictly exceeds yesterday's, page the
// top (delta+5) uploads-playlist items and append residual (unknown) video
// IDs to the inventory with null published_at/title.
func detectNewVideos(ctx context.Context, p provider.Provider, opts Options, log zerolog.Logger) error {
	if opts.YesterdayStatsPath == "" || opts.InventoryPath == "" {
		return nil
	}
	yesterday, err := writer.ReadAll(opts.YesterdayStatsPath)
	if err != nil || yesterday == nil {
		return err
	}
	yesterdayCounts := make(map[string]int64, len(yesterday))
	for _, row := range yesterday {
		snap := model.ChannelStatsFromRow(row)
		yesterdayCounts[snap.ChannelID] = snap.VideoCount
	}

	today, err := writer.ReadAll(opts.ChannelStatsPath)
	if err != nil || today == nil {
		return err
	}

	known, err := writer.ReadColumn(opts.InventoryPath, "video_id")
	if err != nil {
		return err
	}

	for _, row := range today {
		snap := model.ChannelStatsFromRow(row)
		prev, ok := yesterdayCounts[snap.ChannelID]
		if !ok || snap.VideoCount <= prev {
			continue
		}
		delta := int(snap.VideoCount - prev)
		if err := pageTopNewVideos(ctx, p, snap.ChannelID, delta+5, known, opts.InventoryPath); err != nil {
			log.Error().Err(err).Str("channel_id", snap.ChannelID).Msg("new-video page failed")
		}
	}
	return nil
}

func pageTopNewVideos(ctx context.Context, p provider.Provider, channelID string, want int, known map[string]bool, inventoryPath string) error {
	playlistID := enumerate.UploadsPlaylistID(channelID)
	pageToken := ""
	var rows [][]string
	scrapedAt := time.Now().UTC().Format(time.RFC3339)
	examined := 0

	for examined < want {
		page, err := p.ListPlaylistItems(ctx, playlistID, pageToken)
		if err != nil {
			return err
		}
		if page.NotFound {
			break
		}
		for _, it := range page.Items {
			if examined >= want {
				break
			}
			examined++
			if known[it.VideoID] {
				continue
			}
			v := model.VideoSighting{
				VideoID:     it.VideoID,
				ChannelID:   channelID,
				PublishedAt: "",
				Title:       "",
				ScrapedAt:   scrapedAt,
			}
			rows = append(rows, v.ToRow())
			known[it.VideoID] = true
		}
		if page.NextPageToken == "" || examined >= want {
			break
		}
		pageToken = page.NextPageToken
	}
	if len(rows) == 0 {
		return nil
	}
	return writer.Append(inventoryPath, model.VideoInventoryFields, rows)
}

func writeFailureFlag(path string, cause error) error {
	if path == "" {
		return nil
	}
	return os.WriteFile(path, []byte(cause.Error()+"\n"), 0o644)
}

func uniqueNonEmpty(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func chunkIDs(ids []string, n int) [][]string {
	if n <= 0 {
		n = 50
	}
	var out [][]string
	for len(ids) > 0 {
		if len(ids) <= n {
			out = append(out, ids)
			break
		}
		out = append(out, ids[:n])
		ids = ids[n:]
	}
	return out
}
