// Package pass implements the pass generator (spec.md §4.4, C4): given a
// keyword/language and a set of enabled strategies, it produces the ordered,
// additive list of search-query variants ("passes") that together get around
// the upstream API's ~500-result cap on any single query.
package pass

import (
	"fmt"
	"sort"

	"github.com/apkerk/youtube-longitudinal/internal/config"
	"github.com/apkerk/youtube-longitudinal/internal/provider"
)

// Strategy is one of the closed set of expansion strategies a keyword can be
// run with (spec.md §4.4).
type Strategy string

const (
	StrategyBase       Strategy = "base"
	StrategySafeSearch Strategy = "safesearch"
	StrategyTopicID    Strategy = "topicid"
	StrategyRegionCode Strategy = "regioncode"
	StrategyDuration   Strategy = "duration"
	StrategyRelevance  Strategy = "relevance"
	StrategyWindows    Strategy = "windows"
)

// ProvenanceStamp is copied onto every channel discovered under a pass
// (spec.md §4.4 "Each pass carries a provenance struct").
type ProvenanceStamp struct {
	DiscoveryMethod     string
	DiscoveryOrder      string
	DiscoverySafeSearch string
	DiscoveryDuration   string
	DiscoveryTopicID    string
	DiscoveryRegionCode string
	DiscoveryWindowHours int
}

// Pass is one atomic query variant + parameter bag, the smallest unit of
// progress the checkpoint tracks (spec.md §9 "Pass" glossary entry).
type Pass struct {
	Name             string
	Extras           provider.ExtrasBag
	MaxPages         int
	WindowHours      int
	Provenance       ProvenanceStamp
}

// WorkUnitKey is the checkpoint key for one (keyword, language, pass) tuple
// (spec.md §3 "Checkpoint record", §4.5 "Work unit").
func WorkUnitKey(keyword, language, passName string) string {
	return fmt.Sprintf("%s|%s|%s", keyword, language, passName)
}

// strategySet is a lookup set over the caller's requested strategies.
type strategySet map[Strategy]bool

func newStrategySet(strategies []Strategy) strategySet {
	s := make(strategySet, len(strategies))
	for _, st := range strategies {
		s[st] = true
	}
	return s
}

// defaultWindowHours is the time-window size the static and relevance
// passes carry when built; the discovery driver replaces it (on the pass and
// its provenance stamp) with its own window size when one is configured.
const defaultWindowHours = 24

const defaultMaxPages = 5

// Generate produces the static (non-conditional) pass list for one
// (keyword, language, strategies) tuple (spec.md §4.4 table). safeSearch
// is the global parameter mutator applied to every pass ("none" when the
// safesearch strategy is enabled, "moderate" otherwise).
func Generate(language string, strategies []Strategy, staticData config.StaticData) []Pass {
	set := newStrategySet(strategies)
	safeSearch := provider.SafeSearchModerate
	if set[StrategySafeSearch] {
		safeSearch = provider.SafeSearchNone
	}

	var passes []Pass

	// base: always present.
	passes = append(passes, Pass{
		Name:        "base",
		MaxPages:    defaultMaxPages * 2, // base pass runs at page depth 10, twice the other passes
		WindowHours: defaultWindowHours,
		Extras: provider.ExtrasBag{
			SafeSearch: safeSearch,
			Order:      provider.OrderDate,
		},
		Provenance: ProvenanceStamp{
			DiscoveryMethod:     "base",
			DiscoveryOrder:      string(provider.OrderDate),
			DiscoverySafeSearch: string(safeSearch),
			DiscoveryWindowHours: defaultWindowHours,
		},
	})

	if set[StrategyTopicID] {
		topicIDs := make([]string, 0, len(staticData.TopicTaxonomy))
		for topicID := range staticData.TopicTaxonomy {
			topicIDs = append(topicIDs, topicID)
		}
		sort.Strings(topicIDs)
		for _, topicID := range topicIDs {
			passes = append(passes, Pass{
				Name:        "topicid:" + topicID,
				MaxPages:    defaultMaxPages,
				WindowHours: defaultWindowHours,
				Extras: provider.ExtrasBag{
					SafeSearch: safeSearch,
					Order:      provider.OrderDate,
					TopicID:    topicID,
				},
				Provenance: ProvenanceStamp{
					DiscoveryMethod:      "topicid",
					DiscoveryOrder:       string(provider.OrderDate),
					DiscoverySafeSearch:  string(safeSearch),
					DiscoveryTopicID:     topicID,
					DiscoveryWindowHours: defaultWindowHours,
				},
			})
		}
	}

	if set[StrategyRegionCode] {
		for _, regionCode := range staticData.LanguageRegionMap[language] {
			passes = append(passes, Pass{
				Name:        "regioncode:" + regionCode,
				MaxPages:    defaultMaxPages,
				WindowHours: defaultWindowHours,
				Extras: provider.ExtrasBag{
					SafeSearch: safeSearch,
					Order:      provider.OrderDate,
					RegionCode: regionCode,
				},
				Provenance: ProvenanceStamp{
					DiscoveryMethod:      "regioncode",
					DiscoveryOrder:       string(provider.OrderDate),
					DiscoverySafeSearch:  string(safeSearch),
					DiscoveryRegionCode:  regionCode,
					DiscoveryWindowHours: defaultWindowHours,
				},
			})
		}
	}

	if set[StrategyDuration] {
		for _, d := range []provider.Duration{provider.DurationShort, provider.DurationMedium, provider.DurationLong} {
			passes = append(passes, Pass{
				Name:        "duration:" + string(d),
				MaxPages:    defaultMaxPages,
				WindowHours: defaultWindowHours,
				Extras: provider.ExtrasBag{
					SafeSearch:    safeSearch,
					Order:         provider.OrderDate,
					VideoDuration: d,
				},
				Provenance: ProvenanceStamp{
					DiscoveryMethod:      "duration",
					DiscoveryOrder:       string(provider.OrderDate),
					DiscoverySafeSearch:  string(safeSearch),
					DiscoveryDuration:    string(d),
					DiscoveryWindowHours: defaultWindowHours,
				},
			})
		}
	}

	return passes
}

// RelevancePass builds the conditional `relevance` pass (spec.md §4.4):
// re-runs the base pass's capped windows with order=relevance, page depth 5.
// The driver calls this only when StrategyRelevance is enabled and at least
// one base-pass window was observed capped.
func RelevancePass(safeSearch provider.SafeSearch) Pass {
	return Pass{
		Name:        "relevance",
		MaxPages:    defaultMaxPages,
		WindowHours: defaultWindowHours,
		Extras: provider.ExtrasBag{
			SafeSearch: safeSearch,
			Order:      provider.OrderRelevance,
		},
		Provenance: ProvenanceStamp{
			DiscoveryMethod:      "relevance",
			DiscoveryOrder:       string(provider.OrderRelevance),
			DiscoverySafeSearch:  string(safeSearch),
			DiscoveryWindowHours: defaultWindowHours,
		},
	}
}

// Windows12hPass builds the conditional `windows_12h` pass (spec.md §4.4):
// re-runs the keyword with the window halved to 12h, page depth 5. The
// driver calls this only when StrategyWindows is enabled and more than half
// of the base-pass windows were observed capped.
func Windows12hPass(safeSearch provider.SafeSearch) Pass {
	return Pass{
		Name:        "windows_12h",
		MaxPages:    defaultMaxPages,
		WindowHours: 12,
		Extras: provider.ExtrasBag{
			SafeSearch: safeSearch,
			Order:      provider.OrderDate,
		},
		Provenance: ProvenanceStamp{
			DiscoveryMethod:      "windows_12h",
			DiscoveryOrder:       string(provider.OrderDate),
			DiscoverySafeSearch:  string(safeSearch),
			DiscoveryWindowHours: 12,
		},
	}
}

// IsCapped reports whether a window's result count hits the API's
// result-cap signature for the given page depth: at least max_pages*50
// results.
func IsCapped(resultCount, maxPages int) bool {
	return resultCount >= maxPages*50
}

// CappedFraction computes the fraction of windows observed capped, used by
// the driver to decide whether to trigger windows_12h (> 50% per spec.md
// §4.4).
func CappedFraction(cappedCount, totalWindows int) float64 {
	if totalWindows == 0 {
		return 0
	}
	return float64(cappedCount) / float64(totalWindows)
}
