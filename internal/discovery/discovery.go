// Package discovery implements the discovery driver (spec.md §4.5, C5):
// it orchestrates keywords x passes x time-windows against a Provider,
// deduplicates against a seen-set and an exclude-set, applies the cohort
// cutoff post-filter, and commits progress to a checkpoint one pass at a
// time.
package discovery

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

// Options is the full input set to one discovery run (spec.md §4.5
// "Inputs").
type Options struct {
	Stream            string
	Keywords          []config.Keyword
	Strategies        []pass.Strategy
	OutputPath        string
	ExcludeSet        map[string]bool
	DaysBack          int // 0 means "from COHORT_CUTOFF"
	WindowHours       int
	Target            int
	ApplyCohortFilter bool // skipped for benchmark/random/casual streams
	CohortCutoff      string
	StaticData        config.StaticData
	Now               time.Time
}

const isoLayout = "2006-01-02T15:04:05Z"

type window struct {
	start, end time.Time
}

// generateWindows splits [from, to] into consecutive windowHours-wide
// buckets, emitted oldest-first (spec.md §4.5 step 1).
func generateWindows(from, to time.Time, windowHours int) []window {
	if windowHours <= 0 {
		windowHours = 24
	}
	step := time.Duration(windowHours) * time.Hour
	var out []window
	for cursor := from; cursor.Before(to); cursor = cursor.Add(step) {
		end := cursor.Add(step)
		if end.After(to) {
			end = to
		}
		out = append(out, window{start: cursor, end: end})
	}
	return out
}

// Run executes the discovery driver to completion or until target is
// reached, resuming from ckpt if a checkpoint for this stream already
// exists.
func Run(ctx context.Context, p provider.Provider, opts Options, ckpt checkpoint.Handle, log zerolog.Logger) error {
	state, _ := ckpt.Load()
	completed := state.Set()

	seen, err := writer.ReadColumn(opts.OutputPath, "channel_id")
	if err != nil {
		return err
	}
	for id := range opts.ExcludeSet {
		seen[id] = true
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	for _, kw := range opts.Keywords {
		from := now.AddDate(0, 0, -opts.DaysBack)
		if opts.DaysBack <= 0 {
			from = parseCutoff(opts.CohortCutoff, now)
		}
		windows := generateWindows(from, now, opts.WindowHours)

		passes := pass.Generate(kw.Language, opts.Strategies, opts.StaticData)

		// baseCappedWindows holds the specific windows the base pass observed
		// capped; the conditional relevance/windows_12h triggers and the
		// relevance re-run both key off the base pass alone (spec.md §4.4),
		// not the union of every static pass.
		var baseCappedWindows []window
		for _, ps := range passes {
			key := pass.WorkUnitKey(kw.Term, kw.Language, ps.Name)
			if completed[key] {
				continue
			}
			if opts.WindowHours > 0 {
				ps.WindowHours = opts.WindowHours
				ps.Provenance.DiscoveryWindowHours = opts.WindowHours
			}

			capped, err := runPass(ctx, p, ps, windows, kw, seen, opts, log)
			if err != nil {
				log.Error().Err(err).Str("work_unit", key).Msg("discovery pass failed, leaving uncommitted")
				return err
			}
			if ps.Name == "base" {
				baseCappedWindows = capped
			}

			state.CompletedWorkUnits = append(state.CompletedWorkUnits, key)
			completed[key] = true
			state.OutputPath = opts.OutputPath
			state.ChannelCount = len(seen)
			if err := ckpt.Save(state); err != nil {
				return err
			}
			if opts.Target > 0 && len(seen) >= opts.Target {
				return nil
			}
		}

		safeSearch := provider.SafeSearchModerate
		if containsStrategy(opts.Strategies, pass.StrategySafeSearch) {
			safeSearch = provider.SafeSearchNone
		}

		if containsStrategy(opts.Strategies, pass.StrategyRelevance) && len(baseCappedWindows) > 0 {
			rel := pass.RelevancePass(safeSearch)
			if opts.WindowHours > 0 {
				rel.WindowHours = opts.WindowHours
				rel.Provenance.DiscoveryWindowHours = opts.WindowHours
			}
			key := pass.WorkUnitKey(kw.Term, kw.Language, rel.Name)
			if !completed[key] {
				if _, err := runPass(ctx, p, rel, baseCappedWindows, kw, seen, opts, log); err != nil {
					return err
				}
				state.CompletedWorkUnits = append(state.CompletedWorkUnits, key)
				completed[key] = true
				if err := ckpt.Save(state); err != nil {
					return err
				}
			}
		}

		if containsStrategy(opts.Strategies, pass.StrategyWindows) && pass.CappedFraction(len(baseCappedWindows), len(windows)) > 0.5 {
			w12 := pass.Windows12hPass(safeSearch)
			key := pass.WorkUnitKey(kw.Term, kw.Language, w12.Name)
			if !completed[key] {
				halved := generateWindows(from, now, 12)
				if _, err := runPass(ctx, p, w12, halved, kw, seen, opts, log); err != nil {
					return err
				}
				state.CompletedWorkUnits = append(state.CompletedWorkUnits, key)
				completed[key] = true
				if err := ckpt.Save(state); err != nil {
					return err
				}
			}
		}

		if opts.Target > 0 && len(seen) >= opts.Target {
			return nil
		}
	}

	return ckpt.Clear()
}

func containsStrategy(strategies []pass.Strategy, target pass.Strategy) bool {
	for _, s := range strategies {
		if s == target {
			return true
		}
	}
	return false
}

func parseCutoff(cutoff string, fallback time.Time) time.Time {
	if cutoff == "" {
		return fallback
	}
	t, err := time.Parse(isoLayout, cutoff)
	if err != nil {
		return fallback
	}
	return t
}

// runPass executes one pass across all windows, fetches channel details for
// the residual (post seen/exclude dedup), applies the cohort filter, stamps
// provenance, and appends rows. It returns the windows observed capped
// (spec.md §4.5 step 2g), so callers can re-run exactly those windows under
// a conditional pass rather than the full window set.
func runPass(ctx context.Context, p provider.Provider, ps pass.Pass, windows []window, kw config.Keyword, seen map[string]bool, opts Options, log zerolog.Logger) ([]window, error) {
	var candidateIDs []string
	candidateSet := make(map[string]bool)
	var cappedWindows []window

	for _, w := range windows {
		items, err := searchWindow(ctx, p, ps, kw, w)
		if err != nil {
			return cappedWindows, err
		}
		if pass.IsCapped(len(items), ps.MaxPages) {
			cappedWindows = append(cappedWindows, w)
		}
		for _, it := range items {
			if it.ChannelID == "" || seen[it.ChannelID] || candidateSet[it.ChannelID] {
				continue
			}
			candidateSet[it.ChannelID] = true
			candidateIDs = append(candidateIDs, it.ChannelID)
		}
	}

	if len(candidateIDs) == 0 {
		return cappedWindows, nil
	}

	results, err := p.ListChannels(ctx, candidateIDs)
	if err != nil {
		return cappedWindows, err
	}

	var rows [][]string
	now := time.Now().UTC().Format(time.RFC3339)
	for _, r := range results {
		if r.NotFound {
			log.Warn().Str("channel_id", r.RequestID).Msg("channel not found during discovery enrichment")
			continue
		}
		if opts.ApplyCohortFilter && opts.CohortCutoff != "" && r.Channel.PublishedAt < opts.CohortCutoff {
			continue
		}
		ch := channelFromResource(r.Channel, opts.StaticData, opts.Stream, ps, kw, now)
		rows = append(rows, ch.ToRow())
		seen[r.Channel.ChannelID] = true
	}
	if len(rows) == 0 {
		return cappedWindows, nil
	}
	return cappedWindows, writer.Append(opts.OutputPath, model.ChannelInitialFields, rows)
}

func searchWindow(ctx context.Context, p provider.Provider, ps pass.Pass, kw config.Keyword, w window) ([]provider.SearchItem, error) {
	var items []provider.SearchItem
	pageToken := ""
	for page := 0; page < ps.MaxPages; page++ {
		extras := ps.Extras
		extras.RelevanceLanguage = relevanceLanguageCode(kw.Language)
		sp := provider.SearchParams{
			Query:           kw.Term,
			PublishedAfter:  w.start.Format(isoLayout),
			PublishedBefore: w.end.Format(isoLayout),
			Order:           ps.Extras.Order,
			PageToken:       pageToken,
			Extras:          extras,
		}
		result, err := p.SearchVideos(ctx, sp)
		if err != nil {
			return items, err
		}
		items = append(items, result.Items...)
		if result.NextPageToken == "" {
			break
		}
		pageToken = result.NextPageToken
	}
	return items, nil
}

// relevanceLanguageCode maps original_source's full language names onto
// ISO-639-1 codes for the relevanceLanguage search parameter.
func relevanceLanguageCode(language string) string {
	switch language {
	case "English":
		return "en"
	case "Spanish":
		return "es"
	case "French":
		return "fr"
	case "German":
		return "de"
	case "Portuguese":
		return "pt"
	case "Japanese":
		return "ja"
	case "Korean":
		return "ko"
	case "Hindi":
		return "hi"
	default:
		return ""
	}
}

func channelFromResource(r provider.ChannelResource, sd config.StaticData, stream string, ps pass.Pass, kw config.Keyword, scrapedAt string) model.Channel {
	return model.Channel{
		ChannelID:         r.ChannelID,
		Title:             truncate(r.Title, 5000),
		Description:       truncate(r.Description, 5000),
		CustomURL:         r.CustomURL,
		PublishedAt:       r.PublishedAt,
		ViewCount:         r.ViewCount,
		SubscriberCount:   r.SubscriberCount,
		VideoCount:        r.VideoCount,
		Country:           r.Country,
		DefaultLanguage:   r.DefaultLanguage,
		TopicURIs:         r.TopicCategories,
		TopicNames:        topicNames(r.TopicCategories, sd.TopicTaxonomy),
		MadeForKids:       r.MadeForKids,
		PrivacyStatus:     r.PrivacyStatus,
		LinkedStatus:      r.LinkedStatus,
		BrandingKeywords:  r.BrandingKeywords,
		Localizations:     r.Localizations,
		UploadsPlaylistID: r.UploadsPlaylistID,
		Provenance: model.Provenance{
			StreamType:           stream,
			DiscoveryKeyword:     kw.Term,
			DiscoveryLanguage:    kw.Language,
			DiscoveryMethod:      ps.Provenance.DiscoveryMethod,
			DiscoveryOrder:       ps.Provenance.DiscoveryOrder,
			DiscoverySafeSearch:  ps.Provenance.DiscoverySafeSearch,
			DiscoveryDuration:    ps.Provenance.DiscoveryDuration,
			DiscoveryTopicID:     ps.Provenance.DiscoveryTopicID,
			DiscoveryRegionCode:  ps.Provenance.DiscoveryRegionCode,
			DiscoveryWindowHours: ps.Provenance.DiscoveryWindowHours,
		},
	}
}

// topicNames decodes up to three human-readable topic names from raw topic
// URIs via the taxonomy map (spec.md §3 "decoded to up to three human-
// readable topic names").
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

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
