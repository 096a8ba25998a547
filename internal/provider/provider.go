// Package provider implements the capability abstraction of spec.md §4.1
// over the upstream video platform's metadata API: search, batched channel/
// video/playlist-item lookups, activities, and the trending chart, each with
// retry/backoff, quota accounting, and inter-call rate spacing.
package provider

import (
	"context"
	"errors"
)

// ErrTerminalUpstream is returned for any error status other than 404: at
// once for statuses that are not retried, and once the retry budget is spent
// for the transient ones in httpTransientStatuses. A 404 is handed back to
// the caller as a response, never as this error.
var ErrTerminalUpstream = errors.New("provider: terminal upstream error")

// ErrNetworkExhausted is returned when the network-transient retry budget
// (30s, 120s, 480s) is exhausted (spec.md §7 "NetworkTransient").
var ErrNetworkExhausted = errors.New("provider: network retry budget exhausted")

// SafeSearch, Order, and Duration enumerate the closed extras-bag options of
// spec.md §6.
type SafeSearch string

const (
	SafeSearchNone     SafeSearch = "none"
	SafeSearchModerate SafeSearch = "moderate"
)

type Order string

const (
	OrderDate      Order = "date"
	OrderRelevance Order = "relevance"
	OrderViewCount Order = "viewCount"
)

type Duration string

const (
	DurationShort  Duration = "short"
	DurationMedium Duration = "medium"
	DurationLong   Duration = "long"
)

// ExtrasBag is the closed sum over enumerated upstream search parameters
// (spec.md §6, §9 "replace dynamic config dicts with a typed ExtrasBag").
// Zero values mean "parameter omitted", matching upstream defaults.
type ExtrasBag struct {
	SafeSearch        SafeSearch
	Order             Order
	TopicID           string
	RegionCode        string
	VideoDuration     Duration
	RelevanceLanguage string
	EventType         string // "completed", for livestream discovery
}

// SearchParams is one SearchVideos call's full argument set.
type SearchParams struct {
	Query           string
	PublishedAfter  string // ISO-8601 UTC
	PublishedBefore string
	Order           Order
	PageToken       string
	Extras          ExtrasBag
}

// SearchItem is one result row from a search call.
type SearchItem struct {
	VideoID     string
	ChannelID   string
	Title       string
	PublishedAt string
}

// SearchPage is one page of search results.
type SearchPage struct {
	Items         []SearchItem
	NextPageToken string
	TotalResults  int
}

// ChannelResult is the sum type spec.md §9 asks for in place of a
// not-found exception: either Channel is populated or NotFound is true.
type ChannelResult struct {
	Channel   ChannelResource
	NotFound  bool
	RequestID string // the id that was requested, always populated
}

// ChannelResource is the raw channel representation returned by the
// upstream; internal/discovery and internal/trending translate this into
// model.Channel, stamping provenance.
type ChannelResource struct {
	ChannelID         string
	Title             string
	Description       string
	CustomURL         string
	PublishedAt       string
	ViewCount         int64
	SubscriberCount   int64
	VideoCount        int64
	Country           string
	DefaultLanguage   string
	TopicCategories   []string // raw topic URIs
	MadeForKids       bool
	PrivacyStatus     string
	LinkedStatus      string
	BrandingKeywords  []string
	Localizations     []string
	UploadsPlaylistID string
}

// VideoResult mirrors ChannelResult for batched video lookups.
type VideoResult struct {
	Video     VideoResource
	NotFound  bool
	RequestID string
}

// VideoResource is the raw video representation returned by the upstream.
type VideoResource struct {
	VideoID      string
	ChannelID    string
	Title        string
	PublishedAt  string
	ViewCount    int64
	LikeCount    int64
	CommentCount int64
	CategoryID   string
	DurationSecs int
}

// PlaylistItem is one entry in an uploads-playlist page.
type PlaylistItem struct {
	VideoID     string
	Title       string
	PublishedAt string
}

// PlaylistPage is one page of playlist items.
type PlaylistPage struct {
	Items         []PlaylistItem
	NextPageToken string
	NotFound      bool // playlist itself 404s (spec.md §4.7: "non-fatal")
}

// TrendingItem is one entry from the "most popular" chart.
type TrendingItem struct {
	VideoID      string
	ChannelID    string
	Title        string
	PublishedAt  string
	ViewCount    int64
	LikeCount    int64
	CommentCount int64
	CategoryID   string
}

// SearchProvider is the search capability (spec.md §4.1).
type SearchProvider interface {
	SearchVideos(ctx context.Context, p SearchParams) (SearchPage, error)
}

// DetailProvider is the batched-lookup + enumeration capability set
// (spec.md §4.1).
type DetailProvider interface {
	ListChannels(ctx context.Context, ids []string) ([]ChannelResult, error)
	ListVideos(ctx context.Context, ids []string) ([]VideoResult, error)
	ListPlaylistItems(ctx context.Context, playlistID, pageToken string) (PlaylistPage, error)
	Activities(ctx context.Context, channelID string, max int) ([]SearchItem, error)
	MostPopular(ctx context.Context, regionCode, pageToken string) ([]TrendingItem, string, error)
}

// Provider is the full capability set consumed by internal/discovery,
// internal/trending, internal/enumerate, and internal/panel.
type Provider interface {
	SearchProvider
	DetailProvider
}

// chunk splits ids into groups of at most n, implementing spec.md §4.1
// "Chunking": batch endpoints transparently chunk >50-id lists.
func chunk(ids []string, n int) [][]string {
	if n <= 0 {
		n = 1
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
