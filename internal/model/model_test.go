package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelRoundTrip(t *testing.T) {
	ch := Channel{
		ChannelID:       "UC123",
		Title:           "My Channel",
		ViewCount:       1000,
		SubscriberCount: 50,
		VideoCount:      3,
		TopicURIs:       []string{"/m/04rlf", "/m/02mscn"},
		MadeForKids:     true,
		BrandingKeywords: []string{"music", "covers"},
		Provenance: Provenance{
			StreamType:       "intent",
			DiscoveryKeyword: "my first video",
			DiscoveryMethod:  "base",
		},
	}

	row := ch.ToRow()
	require.Len(t, row, len(ChannelInitialFields))

	asMap := make(map[string]string, len(row))
	for i, field := range ChannelInitialFields {
		asMap[field] = row[i]
	}

	roundTripped := ChannelFromRow(asMap)
	assert.Equal(t, ch.ChannelID, roundTripped.ChannelID)
	assert.Equal(t, ch.Title, roundTripped.Title)
	assert.Equal(t, ch.ViewCount, roundTripped.ViewCount)
	assert.Equal(t, ch.SubscriberCount, roundTripped.SubscriberCount)
	assert.Equal(t, ch.TopicURIs, roundTripped.TopicURIs)
	assert.True(t, roundTripped.MadeForKids)
	assert.Equal(t, ch.BrandingKeywords, roundTripped.BrandingKeywords)
	assert.Equal(t, ch.DiscoveryKeyword, roundTripped.DiscoveryKeyword)
}

func TestChannelFromRowToleratesMissingColumns(t *testing.T) {
	row := map[string]string{"channel_id": "UC1", "title": "partial"}
	ch := ChannelFromRow(row)
	assert.Equal(t, "UC1", ch.ChannelID)
	assert.Equal(t, "partial", ch.Title)
	assert.Equal(t, int64(0), ch.ViewCount)
	assert.Nil(t, ch.TopicURIs)
}

func TestPipeJoinSplitRoundTrip(t *testing.T) {
	parts := []string{"a", "b", "c"}
	assert.Equal(t, parts, splitPipe(joinPipe(parts)))
	assert.Nil(t, splitPipe(""))
}

func TestChannelStatsRoundTrip(t *testing.T) {
	snap := ChannelStatsSnapshot{
		ChannelID:       "UC1",
		ViewCount:       10,
		SubscriberCount: 20,
		VideoCount:      30,
		MadeForKids:     false,
		ScrapedAt:       "2026-01-01T00:00:00Z",
		Status:          "",
	}
	row := snap.ToRow()
	asMap := make(map[string]string, len(row))
	for i, field := range ChannelStatsFields {
		asMap[field] = row[i]
	}
	got := ChannelStatsFromRow(asMap)
	assert.Equal(t, snap, got)
}
