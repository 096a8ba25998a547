package discovery

import (
	"context"

	"github.com/apkerk/youtube-longitudinal/internal/model"
	"github.com/apkerk/youtube-longitudinal/internal/provider"
	"github.com/apkerk/youtube-longitudinal/internal/writer"
)

// firstVideoPageCap is the pagination cap for locating a channel's oldest
// upload (spec.md §4.5 "paginate that playlist up to 10 pages"; §9 open
// question: kept at 10 rather than unbounding it).
const firstVideoPageCap = 10

// EnrichFirstVideo runs the optional first-video enrichment pass (spec.md
// §4.5): for every channel row with a non-empty uploads playlist, it
// paginates that playlist up to firstVideoPageCap pages and records the
// oldest entry seen as first_video_{id,title,date}. It rewrites path
// atomically; it does not re-discover channels.
func EnrichFirstVideo(ctx context.Context, p provider.Provider, path string) error {
	rows, err := writer.ReadAll(path)
	if err != nil || rows == nil {
		return err
	}

	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		ch := model.ChannelFromRow(row)
		if ch.UploadsPlaylistID != "" {
			id, title, date, err := oldestPlaylistEntry(ctx, p, ch.UploadsPlaylistID)
			if err != nil {
				return err
			}
			ch.FirstVideoID = id
			ch.FirstVideoTitle = title
			ch.FirstVideoDate = date
		}
		out = append(out, ch.ToRow())
	}
	return writer.Rewrite(path, model.ChannelInitialFields, out)
}

// oldestPlaylistEntry pages through an uploads playlist up to
// firstVideoPageCap pages and returns the chronologically-oldest item seen.
// Playlist items come back newest-first from the upstream, so the oldest
// visible entry is the last item of the last page fetched.
func oldestPlaylistEntry(ctx context.Context, p provider.Provider, playlistID string) (id, title, date string, err error) {
	pageToken := ""
	for page := 0; page < firstVideoPageCap; page++ {
		result, perr := p.ListPlaylistItems(ctx, playlistID, pageToken)
		if perr != nil {
			return id, title, date, perr
		}
		if result.NotFound {
			return "", "", "", nil
		}
		if len(result.Items) > 0 {
			last := result.Items[len(result.Items)-1]
			id, title, date = last.VideoID, last.Title, last.PublishedAt
		}
		if result.NextPageToken == "" {
			break
		}
		pageToken = result.NextPageToken
	}
	return id, title, date, nil
}
