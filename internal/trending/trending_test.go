package trending

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apkerk/youtube-longitudinal/internal/checkpoint"
	"github.com/apkerk/youtube-longitudinal/internal/config"
	"github.com/apkerk/youtube-longitudinal/internal/provider"
	"github.com/apkerk/youtube-longitudinal/internal/writer"
)

type fakeProvider struct {
	chartCalls map[string]int
}

func (f *fakeProvider) SearchVideos(ctx context.Context, p provider.SearchParams) (provider.SearchPage, error) {
	return provider.SearchPage{}, nil
}

func (f *fakeProvider) ListChannels(ctx context.Context, ids []string) ([]provider.ChannelResult, error) {
	var out []provider.ChannelResult
	for _, id := range ids {
		out = append(out, provider.ChannelResult{RequestID: id, Channel: provider.ChannelResource{ChannelID: id, Title: "chan " + id}})
	}
	return out, nil
}

func (f *fakeProvider) ListVideos(ctx context.Context, ids []string) ([]provider.VideoResult, error) {
	return nil, nil
}

func (f *fakeProvider) ListPlaylistItems(ctx context.Context, playlistID, pageToken string) (provider.PlaylistPage, error) {
	return provider.PlaylistPage{}, nil
}

func (f *fakeProvider) Activities(ctx context.Context, channelID string, max int) ([]provider.SearchItem, error) {
	return nil, nil
}

func (f *fakeProvider) MostPopular(ctx context.Context, regionCode, pageToken string) ([]provider.TrendingItem, string, error) {
	f.chartCalls[regionCode]++
	return []provider.TrendingItem{
		{VideoID: "v1", ChannelID: "UC" + regionCode, Title: "trending in " + regionCode, CategoryID: "10"},
	}, "", nil
}

func TestRunCollectsEveryRegionOnce(t *testing.T) {
	dir := t.TempDir()
	p := &fakeProvider{chartCalls: map[string]int{}}
	ckpt := checkpoint.NewHandle(filepath.Join(dir, "ckpt.json"))

	opts := Options{
		Date:               "2026-01-10",
		RegionCodes:        []string{"US", "GB"},
		TrendingLogPath:    filepath.Join(dir, "trending.csv"),
		ChannelDetailsPath: filepath.Join(dir, "channels.csv"),
		StaticData:         config.DefaultStaticData(),
	}

	require.NoError(t, Run(context.Background(), p, opts, ckpt, zerolog.Nop()))

	assert.Equal(t, 1, p.chartCalls["US"])
	assert.Equal(t, 1, p.chartCalls["GB"])

	rows, err := writer.ReadAll(opts.TrendingLogPath)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	channelRows, err := writer.ReadAll(opts.ChannelDetailsPath)
	require.NoError(t, err)
	assert.Len(t, channelRows, 2)
}

func TestRunDeduplicatesChannelDetailsAcrossRegions(t *testing.T) {
	dir := t.TempDir()
	p := &fakeProvider{chartCalls: map[string]int{}}
	ckpt := checkpoint.NewHandle(filepath.Join(dir, "ckpt.json"))
	detailsPath := filepath.Join(dir, "channels.csv")

	// Pre-seed the channel-details file with UCUS already known.
	require.NoError(t, writer.EnsureHeader(detailsPath, []string{"channel_id", "title", "description", "custom_url", "published_at", "view_count", "subscriber_count", "video_count", "country", "default_language", "topic_uris", "topic_names", "made_for_kids", "privacy_status", "linked_status", "branding_keywords", "localizations", "uploads_playlist_id", "first_video_date", "first_video_id", "first_video_title", "status", "stream_type", "discovery_keyword", "discovery_language", "discovery_method", "discovery_order", "discovery_safesearch", "discovery_duration", "discovery_topic_id", "discovery_region_code", "discovery_window_hours", "expansion_wave"}))
	require.NoError(t, writer.AppendOne(detailsPath, []string{"channel_id"}, []string{"UCUS"}))

	opts := Options{
		Date:               "2026-01-10",
		RegionCodes:        []string{"US"},
		TrendingLogPath:    filepath.Join(dir, "trending.csv"),
		ChannelDetailsPath: detailsPath,
		StaticData:         config.DefaultStaticData(),
	}
	require.NoError(t, Run(context.Background(), p, opts, ckpt, zerolog.Nop()))

	rows, err := writer.ReadAll(detailsPath)
	require.NoError(t, err)
	assert.Len(t, rows, 1, "already-known channel is not re-fetched/appended")
}
