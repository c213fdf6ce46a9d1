// Package config carries the pipeline configuration: defaults, an optional
// config.yaml, then environment overrides, in that order.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/angelcm/medallion-etl-go/internal/errs"
)

// Channel and campaign-type enum values used by the default configuration.
const (
	ChannelEmail   = "email"
	ChannelSocial  = "social_media"
	ChannelSearch  = "search"
	ChannelDisplay = "display"

	TypeBrandAwareness = "brand_awareness"
	TypeProductLaunch  = "product_launch"
	TypeSeasonal       = "seasonal"
	TypeRetargeting    = "retargeting"
)

// Config is the full pipeline configuration.
type Config struct {
	LogLevel  string     `yaml:"log_level"`
	Records   int        `yaml:"records"`
	Seed      int64      `yaml:"seed"` // 0 = derive from wall clock
	Lake      Lake       `yaml:"lake"`
	Generator Generation `yaml:"generator"`
	Cleaner   Cleaner    `yaml:"cleaner"`
}

// Lake holds the three layer directories.
type Lake struct {
	BronzeDir string `yaml:"bronze_dir"`
	SilverDir string `yaml:"silver_dir"`
	GoldDir   string `yaml:"gold_dir"`
}

// Cleaner holds silver-stage settings.
type Cleaner struct {
	// ValidateFunnel makes conversions>clicks a fatal data-quality error.
	ValidateFunnel bool `yaml:"validate_funnel"`
}

// IntRange is a closed integer interval.
type IntRange struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// FloatRange is a closed float interval.
type FloatRange struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// CostModel holds the per-channel spend rates of the funnel policy.
type CostModel struct {
	EmailPerImpression float64 `yaml:"email_per_impression"`
	SearchPerClick     float64 `yaml:"search_per_click"`
	SocialCPM          float64 `yaml:"social_cpm"`
	DisplayCPM         float64 `yaml:"display_cpm"`
}

// Generation holds every distribution constant of the record generator.
type Generation struct {
	Policy string `yaml:"policy"` // "funnel" (default) or "legacy"

	CampaignIDs   []string `yaml:"campaign_ids"`
	Channels      []string `yaml:"channels"`
	CampaignTypes []string `yaml:"campaign_types"`
	// Platforms maps each channel to its allowed advertising platforms
	// (funnel policy). The legacy policy draws from AllPlatforms instead.
	Platforms    map[string][]string `yaml:"platforms"`
	AllPlatforms []string            `yaml:"all_platforms"`

	AgeRange    IntRange   `yaml:"age_range"`
	IncomeRange FloatRange `yaml:"income_range"`
	Genders     []string   `yaml:"genders"`

	// Impressions maps each channel to its impression range.
	Impressions map[string]IntRange `yaml:"impressions"`
	// ClickProb maps each channel to its per-impression click probability
	// (funnel policy).
	ClickProb map[string]float64 `yaml:"click_prob"`

	VisitRate FloatRange `yaml:"visit_rate"` // per-click visit probability, redrawn per record

	TimeOnSite IntRange `yaml:"time_on_site"` // seconds, when visits>0

	ConversionProb       float64 `yaml:"conversion_prob"`        // funnel: trial when visits>0
	ConversionDoubleProb float64 `yaml:"conversion_double_prob"` // funnel: P(count=2 | converted)
	LegacyConversionProb float64 `yaml:"legacy_conversion_prob"` // legacy: flat trial

	TicketValues []float64 `yaml:"ticket_values"`

	PreviousPurchasesMax int `yaml:"previous_purchases_max"`

	CostModel      CostModel  `yaml:"cost_model"`
	LegacyUnitCost FloatRange `yaml:"legacy_unit_cost"` // legacy: per-impression cost range

	DateStart time.Time `yaml:"date_start"`
	DateEnd   time.Time `yaml:"date_end"`
}

// Default returns the configuration the original campaign dataset was
// produced with.
func Default() Config {
	return Config{
		LogLevel: "info",
		Records:  5000,
		Seed:     0,
		Lake: Lake{
			BronzeDir: "data/bronze",
			SilverDir: "data/silver",
			GoldDir:   "data/gold",
		},
		Generator: DefaultGeneration(),
		Cleaner:   Cleaner{ValidateFunnel: true},
	}
}

// DefaultGeneration returns the default generator constants.
func DefaultGeneration() Generation {
	return Generation{
		Policy: "funnel",
		CampaignIDs: []string{
			"92c14ef8-a59a-4a78-9670-9e527d9947a1",
			"4c967788-de7b-4626-bbca-c7e7144da864",
		},
		Channels:      []string{ChannelEmail, ChannelSocial, ChannelSearch, ChannelDisplay},
		CampaignTypes: []string{TypeBrandAwareness, TypeProductLaunch, TypeSeasonal, TypeRetargeting},
		Platforms: map[string][]string{
			ChannelEmail:   {"Email Campaign"},
			ChannelSocial:  {"Facebook Ads", "Instagram Ads"},
			ChannelSearch:  {"Google Ads"},
			ChannelDisplay: {"Google Ads", "Facebook Ads"},
		},
		AllPlatforms: []string{"Google Ads", "Facebook Ads", "Instagram Ads", "Email Campaign"},
		AgeRange:     IntRange{Min: 18, Max: 65},
		IncomeRange:  FloatRange{Min: 1000, Max: 10000},
		Genders:      []string{"M", "F"},
		Impressions: map[string]IntRange{
			ChannelDisplay: {Min: 5, Max: 35},
			ChannelSocial:  {Min: 5, Max: 25},
			ChannelEmail:   {Min: 1, Max: 15},
			ChannelSearch:  {Min: 1, Max: 10},
		},
		ClickProb: map[string]float64{
			ChannelEmail:   0.10,
			ChannelSocial:  0.04,
			ChannelSearch:  0.08,
			ChannelDisplay: 0.02,
		},
		VisitRate:            FloatRange{Min: 0.60, Max: 0.85},
		TimeOnSite:           IntRange{Min: 60, Max: 600},
		ConversionProb:       0.03,
		ConversionDoubleProb: 0.15,
		LegacyConversionProb: 0.15,
		TicketValues:         []float64{1700, 2200},
		PreviousPurchasesMax: 2,
		CostModel: CostModel{
			EmailPerImpression: 0.05,
			SearchPerClick:     0.45,
			SocialCPM:          6.50,
			DisplayCPM:         4.20,
		},
		LegacyUnitCost: FloatRange{Min: 0.05, Max: 0.20},
		DateStart:      time.Date(2025, 8, 6, 0, 0, 0, 0, time.UTC),
		DateEnd:        time.Date(2025, 9, 6, 0, 0, 0, 0, time.UTC),
	}
}

// Load builds the configuration: defaults, then the YAML file at
// CONFIG_PATH (default config.yaml) when present, then env overrides.
func Load() (Config, error) {
	cfg := Default()

	path := envOr("CONFIG_PATH", "config.yaml")
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, errs.Wrap(errs.KindConfig, "Load", err, "parsing %s", path)
		}
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("RECORDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, errs.Wrap(errs.KindConfig, "Load", err, "RECORDS=%q", v)
		}
		cfg.Records = n
	}
	if v := os.Getenv("SEED"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return Config{}, errs.Wrap(errs.KindConfig, "Load", err, "SEED=%q", v)
		}
		cfg.Seed = n
	}
	if v := os.Getenv("GEN_POLICY"); v != "" {
		cfg.Generator.Policy = v
	}
	if v := os.Getenv("BRONZE_DIR"); v != "" {
		cfg.Lake.BronzeDir = v
	}
	if v := os.Getenv("SILVER_DIR"); v != "" {
		cfg.Lake.SilverDir = v
	}
	if v := os.Getenv("GOLD_DIR"); v != "" {
		cfg.Lake.GoldDir = v
	}
	if v := os.Getenv("CLEAN_VALIDATE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, errs.Wrap(errs.KindConfig, "Load", err, "CLEAN_VALIDATE=%q", v)
		}
		cfg.Cleaner.ValidateFunnel = b
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects empty enum sets and inverted ranges before any record is
// produced.
func (c Config) Validate() error {
	if c.Records < 0 {
		return errs.New(errs.KindConfig, "Validate", "records must be >= 0, got %d", c.Records)
	}
	if c.Lake.BronzeDir == "" || c.Lake.SilverDir == "" || c.Lake.GoldDir == "" {
		return errs.New(errs.KindConfig, "Validate", "all three layer directories must be set")
	}
	return c.Generator.Validate()
}

// Validate checks the generation constants.
func (g Generation) Validate() error {
	const op = "Validate"
	if g.Policy != "funnel" && g.Policy != "legacy" {
		return errs.New(errs.KindConfig, op, "unknown policy %q", g.Policy)
	}
	for name, set := range map[string][]string{
		"campaign_ids":   g.CampaignIDs,
		"channels":       g.Channels,
		"campaign_types": g.CampaignTypes,
		"genders":        g.Genders,
	} {
		if len(set) == 0 {
			return errs.New(errs.KindConfig, op, "enum set %s is empty", name)
		}
	}
	if len(g.TicketValues) == 0 {
		return errs.New(errs.KindConfig, op, "ticket_values is empty")
	}
	if g.AgeRange.Min > g.AgeRange.Max {
		return errs.New(errs.KindConfig, op, "age_range inverted: [%d,%d]", g.AgeRange.Min, g.AgeRange.Max)
	}
	if g.IncomeRange.Min > g.IncomeRange.Max {
		return errs.New(errs.KindConfig, op, "income_range inverted")
	}
	if g.TimeOnSite.Min > g.TimeOnSite.Max || g.TimeOnSite.Min < 0 {
		return errs.New(errs.KindConfig, op, "time_on_site range invalid")
	}
	if g.VisitRate.Min > g.VisitRate.Max || g.VisitRate.Min < 0 || g.VisitRate.Max > 1 {
		return errs.New(errs.KindConfig, op, "visit_rate must be within [0,1]")
	}
	for _, p := range []float64{g.ConversionProb, g.ConversionDoubleProb, g.LegacyConversionProb} {
		if p < 0 || p > 1 {
			return errs.New(errs.KindConfig, op, "probability out of [0,1]: %v", p)
		}
	}
	if g.PreviousPurchasesMax < 0 {
		return errs.New(errs.KindConfig, op, "previous_purchases_max must be >= 0")
	}
	if g.LegacyUnitCost.Min > g.LegacyUnitCost.Max || g.LegacyUnitCost.Min < 0 {
		return errs.New(errs.KindConfig, op, "legacy_unit_cost range invalid")
	}
	if !g.DateStart.Before(g.DateEnd) {
		return errs.New(errs.KindConfig, op, "date window empty: start %s, end %s", g.DateStart, g.DateEnd)
	}
	for _, ch := range g.Channels {
		r, ok := g.Impressions[ch]
		if !ok {
			return errs.New(errs.KindConfig, op, "channel %q has no impression range", ch)
		}
		if r.Min < 0 || r.Min > r.Max {
			return errs.New(errs.KindConfig, op, "impression range for %q invalid: [%d,%d]", ch, r.Min, r.Max)
		}
		if g.Policy == "funnel" {
			p, ok := g.ClickProb[ch]
			if !ok || p < 0 || p > 1 {
				return errs.New(errs.KindConfig, op, "channel %q has no valid click probability", ch)
			}
			if len(g.Platforms[ch]) == 0 {
				return errs.New(errs.KindConfig, op, "channel %q has no allowed platforms", ch)
			}
		}
	}
	if g.Policy == "legacy" && len(g.AllPlatforms) == 0 {
		return errs.New(errs.KindConfig, op, "all_platforms is empty")
	}
	return nil
}

// SlogLevel parses LogLevel, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
