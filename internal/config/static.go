package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Keyword pairs a search term with its language, the unit the discovery
// driver iterates over (spec.md §4.5).
type Keyword struct {
	Term     string `yaml:"term"`
	Language string `yaml:"language"`
}

// ValidationThresholds parameterizes the sweep validator's anomaly
// detection (spec.md §4.10), grounded on original_source's
// config.VALIDATION_THRESHOLDS.
type ValidationThresholds struct {
	MaxSubscriberDropPct float64 `yaml:"max_subscriber_drop_pct"`
}

// StaticData is the full set of stream-specific keyword lists,
// language-region maps, topic taxonomy, and thresholds (spec.md §6
// "Stream-specific keyword lists and region-language maps (static data)").
type StaticData struct {
	Keywords             map[string][]Keyword `yaml:"keywords"`
	LanguageRegionMap     map[string][]string  `yaml:"language_region_map"`
	TopicTaxonomy         map[string]string    `yaml:"topic_taxonomy"`
	TrendingRegionCodes   []string             `yaml:"trending_region_codes"`
	ValidationThresholds  ValidationThresholds `yaml:"validation_thresholds"`
	VideoCategories       map[int]string       `yaml:"video_categories"`
}

// LoadStaticData reads the YAML static-data file at path. If path is empty
// or does not exist, DefaultStaticData is returned so callers (and tests)
// work without external fixtures.
func LoadStaticData(path string) (StaticData, error) {
	if path == "" {
		return DefaultStaticData(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultStaticData(), nil
		}
		return StaticData{}, err
	}
	var d StaticData
	if err := yaml.Unmarshal(b, &d); err != nil {
		return StaticData{}, err
	}
	return d, nil
}

// DefaultStaticData is a minimal built-in set covering the eight languages
// named in original_source's discover_intent.py, used when no YAML override
// is supplied.
func DefaultStaticData() StaticData {
	return StaticData{
		Keywords: map[string][]Keyword{
			"intent": {
				{Term: "my first video", Language: "English"},
				{Term: "welcome to my channel", Language: "English"},
				{Term: "mi primer video", Language: "Spanish"},
				{Term: "bienvenidos a mi canal", Language: "Spanish"},
				{Term: "mon premier video", Language: "French"},
				{Term: "mein erstes video", Language: "German"},
				{Term: "meu primeiro video", Language: "Portuguese"},
				{Term: "私の最初の動画", Language: "Japanese"},
				{Term: "내 첫 영상", Language: "Korean"},
				{Term: "मेरा पहला वीडियो", Language: "Hindi"},
			},
		},
		LanguageRegionMap: map[string][]string{
			"English":    {"US", "GB", "CA", "AU", "IN"},
			"Spanish":    {"ES", "MX", "AR", "CO"},
			"French":     {"FR", "CA", "BE"},
			"German":     {"DE", "AT", "CH"},
			"Portuguese": {"BR", "PT"},
			"Japanese":   {"JP"},
			"Korean":     {"KR"},
			"Hindi":      {"IN"},
		},
		TopicTaxonomy: map[string]string{
			"/m/04rlf":  "Music",
			"/m/02mscn": "Christian music",
			"/m/0ggq0m": "Knowledge",
			"/m/01k8wb": "Knowledge",
			"/m/019_rr": "Lifestyle",
			"/m/06ntj":  "Sports",
			"/m/0bzvm2": "Gaming",
			"/m/02jjt":  "Entertainment",
		},
		TrendingRegionCodes: defaultTrendingRegionCodes(),
		ValidationThresholds: ValidationThresholds{
			MaxSubscriberDropPct: 0.5,
		},
		VideoCategories: map[int]string{
			1:  "Film & Animation",
			2:  "Autos & Vehicles",
			10: "Music",
			15: "Pets & Animals",
			17: "Sports",
			20: "Gaming",
			22: "People & Blogs",
			23: "Comedy",
			24: "Entertainment",
			25: "News & Politics",
			26: "Howto & Style",
			27: "Education",
			28: "Science & Technology",
		},
	}
}

// defaultTrendingRegionCodes returns a representative set of the ~51 region
// codes spec.md §4.6 describes the trending collector iterating over.
func defaultTrendingRegionCodes() []string {
	return []string{
		"US", "GB", "CA", "AU", "IN", "DE", "FR", "ES", "IT", "BR",
		"MX", "JP", "KR", "RU", "NL", "SE", "NO", "DK", "FI", "PL",
		"TR", "ZA", "NG", "EG", "SA", "AE", "ID", "MY", "SG", "PH",
		"TH", "VN", "TW", "HK", "NZ", "IE", "PT", "GR", "CZ", "HU",
		"RO", "UA", "CL", "AR", "CO", "PE", "VE", "BE", "CH", "AT",
		"IL",
	}
}
