package panel

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apkerk/youtube-longitudinal/internal/checkpoint"
	"github.com/apkerk/youtube-longitudinal/internal/provider"
	"github.com/apkerk/youtube-longitudinal/internal/writer"
)

type fakeProvider struct {
	channels        map[string]provider.ChannelResource
	videos          map[string]provider.VideoResource
	videoBatchSizes []int
}

func (f *fakeProvider) SearchVideos(ctx context.Context, p provider.SearchParams) (provider.SearchPage, error) {
	return provider.SearchPage{}, nil
}

func (f *fakeProvider) ListChannels(ctx context.Context, ids []string) ([]provider.ChannelResult, error) {
	var out []provider.ChannelResult
	for _, id := range ids {
		if ch, ok := f.channels[id]; ok {
			out = append(out, provider.ChannelResult{RequestID: id, Channel: ch})
		} else {
			out = append(out, provider.ChannelResult{RequestID: id, NotFound: true})
		}
	}
	return out, nil
}

func (f *fakeProvider) ListVideos(ctx context.Context, ids []string) ([]provider.VideoResult, error) {
	f.videoBatchSizes = append(f.videoBatchSizes, len(ids))
	var out []provider.VideoResult
	for _, id := range ids {
		if v, ok := f.videos[id]; ok {
			out = append(out, provider.VideoResult{RequestID: id, Video: v})
		} else {
			out = append(out, provider.VideoResult{RequestID: id, NotFound: true})
		}
	}
	return out, nil
}

func (f *fakeProvider) ListPlaylistItems(ctx context.Context, playlistID, pageToken string) (provider.PlaylistPage, error) {
	return provider.PlaylistPage{}, nil
}

func (f *fakeProvider) Activities(ctx context.Context, channelID string, max int) ([]provider.SearchItem, error) {
	return nil, nil
}

func (f *fakeProvider) MostPopular(ctx context.Context, regionCode, pageToken string) ([]provider.TrendingItem, string, error) {
	return nil, "", nil
}

func TestCollectChannelStatsWritesNotFoundRows(t *testing.T) {
	dir := t.TempDir()
	p := &fakeProvider{channels: map[string]provider.ChannelResource{
		"UC1": {ChannelID: "UC1", ViewCount: 10, SubscriberCount: 5, VideoCount: 2},
	}}
	ckpt := checkpoint.NewHandle(filepath.Join(dir, "ckpt.json"))

	opts := Options{
		Mode:             ModeChannel,
		Date:             "2026-01-10",
		ChannelIDs:       []string{"UC1", "UC2"},
		ChannelStatsPath: filepath.Join(dir, "stats.csv"),
		FailureFlagPath:  filepath.Join(dir, "flag.txt"),
	}

	require.NoError(t, Run(context.Background(), p, opts, ckpt, zerolog.Nop()))

	rows, err := writer.ReadAll(opts.ChannelStatsPath)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	byID := map[string]map[string]string{}
	for _, r := range rows {
		byID[r["channel_id"]] = r
	}
	assert.Equal(t, "", byID["UC1"]["status"])
	assert.Equal(t, "not_found", byID["UC2"]["status"])
	assert.NoFileExists(t, opts.FailureFlagPath)
}

func TestCollectVideoStatsChunksAndCheckpointsBatches(t *testing.T) {
	dir := t.TempDir()
	videos := map[string]provider.VideoResource{}
	var ids []string
	for i := 0; i < 120; i++ {
		id := fmt.Sprintf("v%03d", i)
		ids = append(ids, id)
		videos[id] = provider.VideoResource{VideoID: id, ViewCount: int64(i)}
	}
	p := &fakeProvider{videos: videos}
	ckpt := checkpoint.NewHandle(filepath.Join(dir, "ckpt.json"))

	opts := Options{
		Mode:            ModeVideo,
		Date:            "2026-01-10",
		VideoIDs:        ids,
		VideoStatsPath:  filepath.Join(dir, "video_stats.csv"),
		FailureFlagPath: filepath.Join(dir, "flag.txt"),
	}

	require.NoError(t, Run(context.Background(), p, opts, ckpt, zerolog.Nop()))

	rows, err := writer.ReadAll(opts.VideoStatsPath)
	require.NoError(t, err)
	assert.Len(t, rows, 120)
	assert.Equal(t, []int{50, 50, 20}, p.videoBatchSizes)

	// A same-day checkpoint recording two finished batches resumes at the third.
	require.NoError(t, ckpt.Save(checkpoint.State{Date: "2026-01-10", Extra: map[string]any{"video_batches_done": 2}}))
	resumed := &fakeProvider{videos: videos}
	require.NoError(t, Run(context.Background(), resumed, opts, ckpt, zerolog.Nop()))
	assert.Equal(t, []int{20}, resumed.videoBatchSizes)
}

func TestRunWritesFailureFlagOnError(t *testing.T) {
	dir := t.TempDir()
	p := &fakeProvider{}
	ckpt := checkpoint.NewHandle(filepath.Join(dir, "ckpt.json"))

	opts := Options{
		Mode:             ModeChannel,
		Date:             "2026-01-10",
		ChannelIDs:       []string{"UC1"},
		ChannelStatsPath: filepath.Join(dir, "nonexistent-dir-without-perms", "stats.csv"),
		FailureFlagPath:  filepath.Join(dir, "flag.txt"),
	}
	// Force a failure by pointing ChannelStatsPath at a path under a file
	// (not a directory), which Rewrite cannot mkdir through.
	blocker := filepath.Join(dir, "nonexistent-dir-without-perms")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	err := Run(context.Background(), p, opts, ckpt, zerolog.Nop())
	assert.Error(t, err)
	assert.FileExists(t, opts.FailureFlagPath)
}

func TestUniqueNonEmpty(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, uniqueNonEmpty([]string{"a", "", "b", "a"}))
}
