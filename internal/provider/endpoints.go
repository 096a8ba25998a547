package provider

import (
	"context"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
)

// Upstream quota costs per spec.md §4.1 ("Quota accounting"); these mirror
// the real video-platform API's published unit costs per call, independent
// of how many ids a batched call carries.
const (
	unitsSearch  = 100
	unitsList    = 1
	unitsChart   = 1
)

// --- wire DTOs -------------------------------------------------------------

type apiPageInfo struct {
	TotalResults int `json:"totalResults"`
}

type apiSearchResponse struct {
	NextPageToken string      `json:"nextPageToken"`
	PageInfo      apiPageInfo `json:"pageInfo"`
	Items         []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			ChannelID   string `json:"channelId"`
			Title       string `json:"title"`
			PublishedAt string `json:"publishedAt"`
		} `json:"snippet"`
	} `json:"items"`
}

type apiChannelListResponse struct {
	Items []apiChannel `json:"items"`
}

type apiChannel struct {
	ID      string `json:"id"`
	Snippet struct {
		Title           string `json:"title"`
		Description     string `json:"description"`
		CustomURL       string `json:"customUrl"`
		PublishedAt     string `json:"publishedAt"`
		Country         string `json:"country"`
		DefaultLanguage string `json:"defaultLanguage"`
	} `json:"snippet"`
	Localizations map[string]struct {
		Title string `json:"title"`
	} `json:"localizations"`
	Statistics struct {
		ViewCount       string `json:"viewCount"`
		SubscriberCount string `json:"subscriberCount"`
		VideoCount      string `json:"videoCount"`
	} `json:"statistics"`
	TopicDetails struct {
		TopicCategories []string `json:"topicCategories"`
	} `json:"topicDetails"`
	Status struct {
		PrivacyStatus string `json:"privacyStatus"`
		MadeForKids   bool   `json:"madeForKids"`
		IsLinked      bool   `json:"isLinked"`
	} `json:"status"`
	BrandingSettings struct {
		Channel struct {
			Keywords string `json:"keywords"`
		} `json:"channel"`
	} `json:"brandingSettings"`
	ContentDetails struct {
		RelatedPlaylists struct {
			Uploads string `json:"uploads"`
		} `json:"relatedPlaylists"`
	} `json:"contentDetails"`
}

type apiVideoListResponse struct {
	Items []apiVideo `json:"items"`
}

type apiVideo struct {
	ID      string `json:"id"`
	Snippet struct {
		ChannelID   string `json:"channelId"`
		Title       string `json:"title"`
		PublishedAt string `json:"publishedAt"`
		CategoryID  string `json:"categoryId"`
	} `json:"snippet"`
	Statistics struct {
		ViewCount    string `json:"viewCount"`
		LikeCount    string `json:"likeCount"`
		CommentCount string `json:"commentCount"`
	} `json:"statistics"`
	ContentDetails struct {
		Duration string `json:"duration"`
	} `json:"contentDetails"`
}

type apiPlaylistItemsResponse struct {
	NextPageToken string `json:"nextPageToken"`
	Items         []struct {
		Snippet struct {
			Title       string `json:"title"`
			PublishedAt string `json:"publishedAt"`
			ResourceID  struct {
				VideoID string `json:"videoId"`
			} `json:"resourceId"`
		} `json:"snippet"`
	} `json:"items"`
}

type apiActivitiesResponse struct {
	Items []struct {
		ContentDetails struct {
			Upload struct {
				VideoID string `json:"videoId"`
			} `json:"upload"`
		} `json:"contentDetails"`
		Snippet struct {
			ChannelID   string `json:"channelId"`
			Title       string `json:"title"`
			PublishedAt string `json:"publishedAt"`
		} `json:"snippet"`
	} `json:"items"`
}

// --- Provider implementation -------------------------------------------

func (c *Client) SearchVideos(ctx context.Context, p SearchParams) (SearchPage, error) {
	q := map[string]string{
		"part":      "snippet",
		"type":      "video",
		"maxResults": "50",
		"order":     string(orDefaultOrder(p.Order)),
	}
	if p.Query != "" {
		q["q"] = p.Query
	}
	if p.PublishedAfter != "" {
		q["publishedAfter"] = p.PublishedAfter
	}
	if p.PublishedBefore != "" {
		q["publishedBefore"] = p.PublishedBefore
	}
	if p.PageToken != "" {
		q["pageToken"] = p.PageToken
	}
	applyExtras(q, p.Extras)

	var out apiSearchResponse
	resp, err := c.call(ctx, "search.list", unitsSearch, func() (*resty.Response, error) {
		return c.http.R().SetContext(ctx).SetQueryParams(q).SetResult(&out).Get("/search")
	})
	if err != nil {
		return SearchPage{}, err
	}
	_ = resp

	page := SearchPage{NextPageToken: out.NextPageToken, TotalResults: out.PageInfo.TotalResults}
	for _, it := range out.Items {
		page.Items = append(page.Items, SearchItem{
			VideoID:     it.ID.VideoID,
			ChannelID:   it.Snippet.ChannelID,
			Title:       it.Snippet.Title,
			PublishedAt: it.Snippet.PublishedAt,
		})
	}
	return page, nil
}

func orDefaultOrder(o Order) Order {
	if o == "" {
		return OrderDate
	}
	return o
}

func applyExtras(q map[string]string, e ExtrasBag) {
	if e.SafeSearch != "" {
		q["safeSearch"] = string(e.SafeSearch)
	}
	if e.TopicID != "" {
		q["topicId"] = e.TopicID
	}
	if e.RegionCode != "" {
		q["regionCode"] = e.RegionCode
	}
	if e.VideoDuration != "" {
		q["videoDuration"] = string(e.VideoDuration)
	}
	if e.RelevanceLanguage != "" {
		q["relevanceLanguage"] = e.RelevanceLanguage
	}
	if e.EventType != "" {
		q["eventType"] = e.EventType
	}
}

func (c *Client) ListChannels(ctx context.Context, ids []string) ([]ChannelResult, error) {
	var results []ChannelResult
	for _, batch := range chunk(ids, 50) {
		var out apiChannelListResponse
		resp, err := c.call(ctx, "channels.list", unitsList, func() (*resty.Response, error) {
			return c.http.R().SetContext(ctx).SetQueryParams(map[string]string{
				"part": "snippet,statistics,topicDetails,status,brandingSettings,contentDetails",
				"id":   strings.Join(batch, ","),
			}).SetResult(&out).Get("/channels")
		})
		if err != nil {
			return nil, err
		}
		if resp != nil && resp.StatusCode() == 404 {
			for _, id := range batch {
				results = append(results, ChannelResult{NotFound: true, RequestID: id})
			}
			continue
		}

		found := make(map[string]bool, len(out.Items))
		for _, ch := range out.Items {
			found[ch.ID] = true
			results = append(results, ChannelResult{RequestID: ch.ID, Channel: toChannelResource(ch)})
		}
		for _, id := range batch {
			if !found[id] {
				results = append(results, ChannelResult{NotFound: true, RequestID: id})
			}
		}
	}
	return results, nil
}

func toChannelResource(ch apiChannel) ChannelResource {
	return ChannelResource{
		ChannelID:         ch.ID,
		Title:             ch.Snippet.Title,
		Description:       ch.Snippet.Description,
		CustomURL:         ch.Snippet.CustomURL,
		PublishedAt:       ch.Snippet.PublishedAt,
		ViewCount:         parseInt64(ch.Statistics.ViewCount),
		SubscriberCount:   parseInt64(ch.Statistics.SubscriberCount),
		VideoCount:        parseInt64(ch.Statistics.VideoCount),
		Country:           ch.Snippet.Country,
		DefaultLanguage:   ch.Snippet.DefaultLanguage,
		TopicCategories:   ch.TopicDetails.TopicCategories,
		MadeForKids:       ch.Status.MadeForKids,
		PrivacyStatus:     ch.Status.PrivacyStatus,
		LinkedStatus:      linkedStatus(ch.Status.IsLinked),
		BrandingKeywords:  splitKeywords(ch.BrandingSettings.Channel.Keywords),
		Localizations:     localizationPairs(ch.Localizations),
		UploadsPlaylistID: ch.ContentDetails.RelatedPlaylists.Uploads,
	}
}

// localizationPairs renders the upstream's lang->{title} map into
// "lang:title" pairs for pipe-separated CSV storage (spec.md §3).
func localizationPairs(loc map[string]struct{ Title string }) []string {
	if len(loc) == 0 {
		return nil
	}
	out := make([]string, 0, len(loc))
	for lang, v := range loc {
		out = append(out, lang+":"+v.Title)
	}
	return out
}

func linkedStatus(linked bool) string {
	if linked {
		return "linked"
	}
	return "unlinked"
}

func splitKeywords(raw string) []string {
	if raw == "" {
		return nil
	}
	fields := strings.Fields(raw)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, strings.Trim(f, `"`))
	}
	return out
}

func (c *Client) ListVideos(ctx context.Context, ids []string) ([]VideoResult, error) {
	var results []VideoResult
	for _, batch := range chunk(ids, 50) {
		var out apiVideoListResponse
		resp, err := c.call(ctx, "videos.list", unitsList, func() (*resty.Response, error) {
			return c.http.R().SetContext(ctx).SetQueryParams(map[string]string{
				"part": "snippet,statistics,contentDetails",
				"id":   strings.Join(batch, ","),
			}).SetResult(&out).Get("/videos")
		})
		if err != nil {
			return nil, err
		}
		if resp != nil && resp.StatusCode() == 404 {
			for _, id := range batch {
				results = append(results, VideoResult{NotFound: true, RequestID: id})
			}
			continue
		}

		found := make(map[string]bool, len(out.Items))
		for _, v := range out.Items {
			found[v.ID] = true
			results = append(results, VideoResult{RequestID: v.ID, Video: toVideoResource(v)})
		}
		for _, id := range batch {
			if !found[id] {
				results = append(results, VideoResult{NotFound: true, RequestID: id})
			}
		}
	}
	return results, nil
}

func toVideoResource(v apiVideo) VideoResource {
	return VideoResource{
		VideoID:      v.ID,
		ChannelID:    v.Snippet.ChannelID,
		Title:        v.Snippet.Title,
		PublishedAt:  v.Snippet.PublishedAt,
		ViewCount:    parseInt64(v.Statistics.ViewCount),
		LikeCount:    parseInt64(v.Statistics.LikeCount),
		CommentCount: parseInt64(v.Statistics.CommentCount),
		CategoryID:   v.Snippet.CategoryID,
		DurationSecs: ParseISO8601Duration(v.ContentDetails.Duration),
	}
}

func (c *Client) ListPlaylistItems(ctx context.Context, playlistID, pageToken string) (PlaylistPage, error) {
	q := map[string]string{
		"part":       "snippet",
		"playlistId": playlistID,
		"maxResults": "50",
	}
	if pageToken != "" {
		q["pageToken"] = pageToken
	}
	var out apiPlaylistItemsResponse
	resp, err := c.call(ctx, "playlistItems.list", unitsList, func() (*resty.Response, error) {
		return c.http.R().SetContext(ctx).SetQueryParams(q).SetResult(&out).Get("/playlistItems")
	})
	if err != nil {
		return PlaylistPage{}, err
	}
	if resp != nil && resp.StatusCode() == 404 {
		return PlaylistPage{NotFound: true}, nil
	}

	page := PlaylistPage{NextPageToken: out.NextPageToken}
	for _, it := range out.Items {
		page.Items = append(page.Items, PlaylistItem{
			VideoID:     it.Snippet.ResourceID.VideoID,
			Title:       it.Snippet.Title,
			PublishedAt: it.Snippet.PublishedAt,
		})
	}
	return page, nil
}

func (c *Client) Activities(ctx context.Context, channelID string, max int) ([]SearchItem, error) {
	q := map[string]string{
		"part":      "snippet,contentDetails",
		"channelId": channelID,
		"maxResults": strconv.Itoa(clampMaxResults(max)),
	}
	var out apiActivitiesResponse
	resp, err := c.call(ctx, "activities.list", unitsList, func() (*resty.Response, error) {
		return c.http.R().SetContext(ctx).SetQueryParams(q).SetResult(&out).Get("/activities")
	})
	if err != nil {
		return nil, err
	}
	if resp != nil && resp.StatusCode() == 404 {
		return nil, nil
	}

	var items []SearchItem
	for _, it := range out.Items {
		if it.ContentDetails.Upload.VideoID == "" {
			continue
		}
		items = append(items, SearchItem{
			VideoID:     it.ContentDetails.Upload.VideoID,
			ChannelID:   it.Snippet.ChannelID,
			Title:       it.Snippet.Title,
			PublishedAt: it.Snippet.PublishedAt,
		})
	}
	return items, nil
}

func clampMaxResults(max int) int {
	if max <= 0 || max > 50 {
		return 50
	}
	return max
}

func (c *Client) MostPopular(ctx context.Context, regionCode, pageToken string) ([]TrendingItem, string, error) {
	q := map[string]string{
		"part":       "snippet,statistics",
		"chart":      "mostPopular",
		"regionCode": regionCode,
		"maxResults": "50",
	}
	if pageToken != "" {
		q["pageToken"] = pageToken
	}
	var out apiVideoListResponseWithPaging
	_, err := c.call(ctx, "videos.mostPopular", unitsChart, func() (*resty.Response, error) {
		return c.http.R().SetContext(ctx).SetQueryParams(q).SetResult(&out).Get("/videos")
	})
	if err != nil {
		return nil, "", err
	}

	var items []TrendingItem
	for _, v := range out.Items {
		items = append(items, TrendingItem{
			VideoID:      v.ID,
			ChannelID:    v.Snippet.ChannelID,
			Title:        v.Snippet.Title,
			PublishedAt:  v.Snippet.PublishedAt,
			ViewCount:    parseInt64(v.Statistics.ViewCount),
			LikeCount:    parseInt64(v.Statistics.LikeCount),
			CommentCount: parseInt64(v.Statistics.CommentCount),
			CategoryID:   v.Snippet.CategoryID,
		})
	}
	return items, out.NextPageToken, nil
}

type apiVideoListResponseWithPaging struct {
	NextPageToken string     `json:"nextPageToken"`
	Items         []apiVideo `json:"items"`
}

func parseInt64(s string) int64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return v
}
