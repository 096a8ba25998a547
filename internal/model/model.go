// Package model holds the data model described in spec.md §3: channel
// snapshots, video sightings and stats, trending sightings, and the
// checkpoint record shape. Each type carries its fixed CSV field order as a
// package-level slice, mirroring original_source's config.*_FIELDS lists.
package model

import "strconv"

// Provenance records first-seen discovery context for a channel row
// (spec.md §3 "discovery provenance", §4.4 "provenance struct").
type Provenance struct {
	StreamType         string
	DiscoveryKeyword   string
	DiscoveryLanguage  string
	DiscoveryMethod    string
	DiscoveryOrder     string
	DiscoverySafeSearch string
	DiscoveryDuration  string
	DiscoveryTopicID   string
	DiscoveryRegionCode string
	DiscoveryWindowHours int
	ExpansionWave      int
}

// Channel is one row of a discovery/trending channel snapshot file.
type Channel struct {
	ChannelID          string
	Title              string
	Description        string // truncated to 5000 chars by the caller
	CustomURL          string
	PublishedAt        string
	ViewCount          int64
	SubscriberCount    int64
	VideoCount         int64
	Country            string
	DefaultLanguage    string
	TopicURIs          []string // pipe-separated on disk
	TopicNames         []string // up to three human-readable names, pipe-separated
	MadeForKids        bool
	PrivacyStatus      string
	LinkedStatus       string // upstream "linked" flag semantics
	BrandingKeywords   []string
	Localizations      []string // "lang:title" pairs, pipe-separated
	UploadsPlaylistID  string
	FirstVideoDate     string
	FirstVideoID       string
	FirstVideoTitle    string
	Status             string // "" (found) or "not_found"
	Provenance
}

// ChannelInitialFields is the fixed column order for discovery/trending
// channel output files (spec.md §3, §6).
var ChannelInitialFields = []string{
	"channel_id", "title", "description", "custom_url", "published_at",
	"view_count", "subscriber_count", "video_count", "country",
	"default_language", "topic_uris", "topic_names", "made_for_kids",
	"privacy_status", "linked_status", "branding_keywords", "localizations",
	"uploads_playlist_id", "first_video_date", "first_video_id",
	"first_video_title", "status",
	"stream_type", "discovery_keyword", "discovery_language",
	"discovery_method", "discovery_order", "discovery_safesearch",
	"discovery_duration", "discovery_topic_id", "discovery_region_code",
	"discovery_window_hours", "expansion_wave",
}

// ToRow projects a Channel onto ChannelInitialFields.
func (c Channel) ToRow() []string {
	return []string{
		c.ChannelID, c.Title, c.Description, c.CustomURL, c.PublishedAt,
		itoa64(c.ViewCount), itoa64(c.SubscriberCount), itoa64(c.VideoCount),
		c.Country, c.DefaultLanguage, joinPipe(c.TopicURIs), joinPipe(c.TopicNames),
		strconv.FormatBool(c.MadeForKids), c.PrivacyStatus, c.LinkedStatus,
		joinPipe(c.BrandingKeywords), joinPipe(c.Localizations),
		c.UploadsPlaylistID, c.FirstVideoDate, c.FirstVideoID, c.FirstVideoTitle,
		c.Status,
		c.StreamType, c.DiscoveryKeyword, c.DiscoveryLanguage, c.DiscoveryMethod,
		c.DiscoveryOrder, c.DiscoverySafeSearch, c.DiscoveryDuration,
		c.DiscoveryTopicID, c.DiscoveryRegionCode, itoa(c.DiscoveryWindowHours),
		itoa(c.ExpansionWave),
	}
}

// ChannelFromRow parses a CSV record (in ChannelInitialFields order) back
// into a Channel. Unknown/short rows are tolerated field-by-field (projection
// semantics, spec.md §4.3 "extrasaction=ignore").
func ChannelFromRow(row map[string]string) Channel {
	return Channel{
		ChannelID:       row["channel_id"],
		Title:           row["title"],
		Description:     row["description"],
		CustomURL:       row["custom_url"],
		PublishedAt:     row["published_at"],
		ViewCount:       atoi64(row["view_count"]),
		SubscriberCount: atoi64(row["subscriber_count"]),
		VideoCount:      atoi64(row["video_count"]),
		Country:         row["country"],
		DefaultLanguage: row["default_language"],
		TopicURIs:       splitPipe(row["topic_uris"]),
		TopicNames:      splitPipe(row["topic_names"]),
		MadeForKids:     row["made_for_kids"] == "true",
		PrivacyStatus:   row["privacy_status"],
		LinkedStatus:    row["linked_status"],
		BrandingKeywords: splitPipe(row["branding_keywords"]),
		Localizations:   splitPipe(row["localizations"]),
		UploadsPlaylistID: row["uploads_playlist_id"],
		FirstVideoDate:  row["first_video_date"],
		FirstVideoID:    row["first_video_id"],
		FirstVideoTitle: row["first_video_title"],
		Status:          row["status"],
		Provenance: Provenance{
			StreamType:          row["stream_type"],
			DiscoveryKeyword:    row["discovery_keyword"],
			DiscoveryLanguage:   row["discovery_language"],
			DiscoveryMethod:     row["discovery_method"],
			DiscoveryOrder:      row["discovery_order"],
			DiscoverySafeSearch: row["discovery_safesearch"],
			DiscoveryDuration:   row["discovery_duration"],
			DiscoveryTopicID:    row["discovery_topic_id"],
			DiscoveryRegionCode: row["discovery_region_code"],
			DiscoveryWindowHours: int(atoi64(row["discovery_window_hours"])),
			ExpansionWave:       int(atoi64(row["expansion_wave"])),
		},
	}
}

// VideoSighting is one row of a video inventory file (spec.md §3).
type VideoSighting struct {
	VideoID     string
	ChannelID   string
	PublishedAt string // empty string serializes to "" (NULL equivalent)
	Title       string
	ScrapedAt   string
}

// VideoInventoryFields is the fixed column order for inventory files.
var VideoInventoryFields = []string{
	"video_id", "channel_id", "published_at", "title", "scraped_at",
}

func (v VideoSighting) ToRow() []string {
	return []string{v.VideoID, v.ChannelID, v.PublishedAt, v.Title, v.ScrapedAt}
}

func VideoSightingFromRow(row map[string]string) VideoSighting {
	return VideoSighting{
		VideoID:     row["video_id"],
		ChannelID:   row["channel_id"],
		PublishedAt: row["published_at"],
		Title:       row["title"],
		ScrapedAt:   row["scraped_at"],
	}
}

// VideoStatsSnapshot is one row of a weekly video-stats panel file.
type VideoStatsSnapshot struct {
	VideoID      string
	ViewCount    int64
	LikeCount    int64
	CommentCount int64
	ScrapedAt    string
	Status       string
}

// VideoStatsFields is the fixed column order for video_stats files.
var VideoStatsFields = []string{
	"video_id", "view_count", "like_count", "comment_count", "scraped_at", "status",
}

func (v VideoStatsSnapshot) ToRow() []string {
	return []string{
		v.VideoID, itoa64(v.ViewCount), itoa64(v.LikeCount), itoa64(v.CommentCount),
		v.ScrapedAt, v.Status,
	}
}

// ChannelStatsSnapshot is one row of a daily channel-stats panel file.
type ChannelStatsSnapshot struct {
	ChannelID       string
	ViewCount       int64
	SubscriberCount int64
	VideoCount      int64
	MadeForKids     bool
	ScrapedAt       string
	Status          string
}

// ChannelStatsFields is the fixed column order for channel_stats files.
var ChannelStatsFields = []string{
	"channel_id", "view_count", "subscriber_count", "video_count",
	"made_for_kids", "scraped_at", "status",
}

func (c ChannelStatsSnapshot) ToRow() []string {
	return []string{
		c.ChannelID, itoa64(c.ViewCount), itoa64(c.SubscriberCount), itoa64(c.VideoCount),
		strconv.FormatBool(c.MadeForKids), c.ScrapedAt, c.Status,
	}
}

func ChannelStatsFromRow(row map[string]string) ChannelStatsSnapshot {
	return ChannelStatsSnapshot{
		ChannelID:       row["channel_id"],
		ViewCount:       atoi64(row["view_count"]),
		SubscriberCount: atoi64(row["subscriber_count"]),
		VideoCount:      atoi64(row["video_count"]),
		MadeForKids:     row["made_for_kids"] == "true",
		ScrapedAt:       row["scraped_at"],
		Status:          row["status"],
	}
}

// TrendingSighting is one row of the daily trending log (spec.md §3).
type TrendingSighting struct {
	TrendingDate   string
	RegionCode     string
	Position       int
	VideoID        string
	ChannelID      string
	VideoTitle     string
	ViewCount      int64
	LikeCount      int64
	CommentCount   int64
	PublishedAt    string
	CategoryID     string
	CategoryName   string
	ScrapedAt      string
}

// TrendingLogFields is the fixed column order for trending_log files.
var TrendingLogFields = []string{
	"trending_date", "region_code", "position", "video_id", "channel_id",
	"video_title", "video_view_count", "video_like_count",
	"video_comment_count", "video_published_at", "category_id",
	"category_name", "scraped_at",
}

func (t TrendingSighting) ToRow() []string {
	return []string{
		t.TrendingDate, t.RegionCode, itoa(t.Position), t.VideoID, t.ChannelID,
		t.VideoTitle, itoa64(t.ViewCount), itoa64(t.LikeCount), itoa64(t.CommentCount),
		t.PublishedAt, t.CategoryID, t.CategoryName, t.ScrapedAt,
	}
}

func itoa(i int) string      { return strconv.Itoa(i) }
func itoa64(i int64) string  { return strconv.FormatInt(i, 10) }
func atoi64(s string) int64  { v, _ := strconv.ParseInt(s, 10, 64); return v }

func joinPipe(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += "|"
		}
		out += p
	}
	return out
}

func splitPipe(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '|' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}
