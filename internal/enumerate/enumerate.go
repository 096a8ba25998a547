// Package enumerate implements the inventory enumerator (spec.md §4.7, C7):
// for each channel ID in a provided list, it derives the uploads-playlist
// handle, paginates it to completion, and appends every video sighting to
// the inventory CSV, checkpointing per channel.
package enumerate

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/apkerk/youtube-longitudinal/internal/checkpoint"
	"github.com/apkerk/youtube-longitudinal/internal/model"
	"github.com/apkerk/youtube-longitudinal/internal/provider"
	"github.com/apkerk/youtube-longitudinal/internal/writer"
)

// Options configures one enumeration run.
type Options struct {
	ChannelIDs    []string
	InventoryPath string
}

// UploadsPlaylistID derives a channel's uploads-playlist handle by the
// upstream's deterministic transformation: swap the first two characters of
// the ID prefix ("UC..." -> "UU...").
func UploadsPlaylistID(channelID string) string {
	if len(channelID) < 2 {
		return channelID
	}
	return "UU" + channelID[2:]
}

// Run enumerates every channel in opts.ChannelIDs not already marked
// complete in ckpt, writing inventory rows and checkpointing after each
// channel (spec.md §4.7: "Flushing and checkpointing happen after each
// channel").
func Run(ctx context.Context, p provider.Provider, opts Options, ckpt checkpoint.Handle, log zerolog.Logger) error {
	state, _ := ckpt.Load()
	completed := state.Set()

	for _, channelID := range opts.ChannelIDs {
		if completed[channelID] {
			continue
		}
		if err := enumerateChannel(ctx, p, channelID, opts.InventoryPath, log); err != nil {
			log.Error().Err(err).Str("channel_id", channelID).Msg("enumeration failed, leaving uncommitted")
			return err
		}
		state.CompletedWorkUnits = append(state.CompletedWorkUnits, channelID)
		completed[channelID] = true
		if err := ckpt.Save(state); err != nil {
			return err
		}
	}

	return ckpt.Clear()
}

func enumerateChannel(ctx context.Context, p provider.Provider, channelID, inventoryPath string, log zerolog.Logger) error {
	playlistID := UploadsPlaylistID(channelID)
	scrapedAt := time.Now().UTC().Format(time.RFC3339)
	pageToken := ""

	for {
		page, err := p.ListPlaylistItems(ctx, playlistID, pageToken)
		if err != nil {
			return err
		}
		if page.NotFound {
			log.Warn().Str("channel_id", channelID).Str("playlist_id", playlistID).Msg("uploads playlist not found, marking channel complete")
			return nil
		}

		if len(page.Items) > 0 {
			rows := make([][]string, 0, len(page.Items))
			for _, it := range page.Items {
				v := model.VideoSighting{
					VideoID:     it.VideoID,
					ChannelID:   channelID,
					PublishedAt: it.PublishedAt,
					Title:       it.Title,
					ScrapedAt:   scrapedAt,
				}
				rows = append(rows, v.ToRow())
			}
			if err := writer.Append(inventoryPath, model.VideoInventoryFields, rows); err != nil {
				return err
			}
		}

		if page.NextPageToken == "" {
			return nil
		}
		pageToken = page.NextPageToken
	}
}
