// Package generator produces synthetic marketing campaign records. All
// randomness comes from the injected source, so a fixed seed reproduces a
// dataset exactly.
package generator

import (
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/angelcm/medallion-etl-go/internal/config"
	"github.com/angelcm/medallion-etl-go/internal/errs"
	"github.com/angelcm/medallion-etl-go/internal/models"
)

// Policy selects the sampling strategy for the dependent fields.
type Policy int

const (
	// PolicyFunnel models the funnel explicitly: binomial clicks over
	// impressions, per-click visit thinning, conversions gated on visits.
	PolicyFunnel Policy = iota + 1
	// PolicyLegacy reproduces the original conversion-first heuristic.
	PolicyLegacy
)

// ParsePolicy maps a configuration string to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "funnel":
		return PolicyFunnel, nil
	case "legacy":
		return PolicyLegacy, nil
	default:
		return 0, errs.New(errs.KindConfig, "ParsePolicy", "unknown policy %q", s)
	}
}

// Generator draws one MarketingRecord per call.
type Generator struct {
	rng    *rand.Rand
	cfg    config.Generation
	policy Policy
}

// New validates the generation constants and builds a generator around the
// given random source.
func New(rng *rand.Rand, cfg config.Generation) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	policy, err := ParsePolicy(cfg.Policy)
	if err != nil {
		return nil, err
	}
	return &Generator{rng: rng, cfg: cfg, policy: policy}, nil
}

// Record draws one record. extractedAt becomes the record's
// extraction_date; it is injected so a run is fully determined by
// (seed, config, timestamp).
func (g *Generator) Record(extractedAt time.Time) models.MarketingRecord {
	r := models.MarketingRecord{
		CustomerID:      g.uuidString(),
		Age:             int64(g.intIn(g.cfg.AgeRange)),
		Gender:          g.choice(g.cfg.Genders),
		Income:          round2(g.floatIn(g.cfg.IncomeRange)),
		CampaignID:      g.choice(g.cfg.CampaignIDs),
		CampaignChannel: g.choice(g.cfg.Channels),
		CampaignType:    g.choice(g.cfg.CampaignTypes),
		ExtractionDate:  extractedAt,
	}
	r.Impressions = int64(g.intIn(g.cfg.Impressions[r.CampaignChannel]))
	r.DateReceived = g.dateIn(g.cfg.DateStart, g.cfg.DateEnd)

	switch g.policy {
	case PolicyLegacy:
		g.fillLegacy(&r)
	default:
		g.fillFunnel(&r)
	}
	return r
}

// fillFunnel derives the dependent fields with the funnel model.
func (g *Generator) fillFunnel(r *models.MarketingRecord) {
	r.Clicks = int64(g.binomial(int(r.Impressions), g.cfg.ClickProb[r.CampaignChannel]))

	if r.Clicks > 0 {
		rate := g.floatIn(g.cfg.VisitRate)
		r.WebsiteVisits = int64(g.binomial(int(r.Clicks), rate))
	}
	if r.WebsiteVisits > 0 {
		r.TimeOnSite = int64(g.intIn(g.cfg.TimeOnSite))
	}

	if r.WebsiteVisits > 0 && g.rng.Float64() < g.cfg.ConversionProb {
		r.Conversions = 1
		if g.rng.Float64() < g.cfg.ConversionDoubleProb {
			r.Conversions = 2
		}
		if r.Conversions > r.Clicks {
			r.Conversions = r.Clicks
		}
	}
	r.Revenue = float64(r.Conversions) * g.choiceF(g.cfg.TicketValues)

	r.PreviousPurchases = g.previousPurchases(r.CampaignType)
	r.AdSpend = g.channelSpend(r.CampaignChannel, r.Impressions, r.Clicks)
	r.AdvertisingPlatform = g.choice(g.cfg.Platforms[r.CampaignChannel])
}

// fillLegacy derives the dependent fields with the original heuristic:
// conversions first, clicks floored when a conversion occurred, then the
// rest. Draws are clamped so the structural invariants still hold.
func (g *Generator) fillLegacy(r *models.MarketingRecord) {
	if g.rng.Float64() < g.cfg.LegacyConversionProb {
		r.Conversions = 1 + int64(g.rng.Intn(2))
	}
	ticket := g.choiceF(g.cfg.TicketValues)

	if r.Conversions > 0 {
		floor := int64(10)
		if r.Conversions > floor {
			floor = r.Conversions
		}
		r.Clicks = floor + int64(g.rng.Intn(int(32-floor)+1))
	} else if g.rng.Float64() >= 0.50 {
		r.Clicks = 1 + int64(g.rng.Intn(32))
	}
	if r.Clicks > r.Impressions {
		r.Clicks = r.Impressions
	}
	if r.Conversions > r.Clicks {
		r.Conversions = r.Clicks
	}
	r.Revenue = float64(r.Conversions) * ticket

	if r.Clicks > 0 {
		limit := r.Clicks
		if limit > 3 {
			limit = 3
		}
		r.WebsiteVisits = 1 + int64(g.rng.Intn(int(limit)))
	}
	if r.WebsiteVisits > 0 {
		r.TimeOnSite = int64(g.intIn(g.cfg.TimeOnSite))
	}

	r.PreviousPurchases = g.previousPurchases(r.CampaignType)
	r.AdSpend = round2(float64(r.Impressions) * g.floatIn(g.cfg.LegacyUnitCost))
	r.AdvertisingPlatform = g.choice(g.cfg.AllPlatforms)
}

// channelSpend applies the per-channel cost model: flat rate per impression
// for email, cost per click for search, CPM for social and display.
func (g *Generator) channelSpend(channel string, impressions, clicks int64) float64 {
	cm := g.cfg.CostModel
	switch channel {
	case config.ChannelEmail:
		return round2(float64(impressions) * cm.EmailPerImpression)
	case config.ChannelSearch:
		return round2(float64(clicks) * cm.SearchPerClick)
	case config.ChannelSocial:
		return round2(float64(impressions) / 1000 * cm.SocialCPM)
	case config.ChannelDisplay:
		return round2(float64(impressions) / 1000 * cm.DisplayCPM)
	default:
		return round2(float64(impressions) * g.floatIn(g.cfg.LegacyUnitCost))
	}
}

func (g *Generator) previousPurchases(campaignType string) int64 {
	if campaignType == config.TypeRetargeting {
		return 0
	}
	return int64(g.rng.Intn(g.cfg.PreviousPurchasesMax + 1))
}

// binomial counts successes over n Bernoulli trials with probability p.
// n is bounded by the configured impression ranges, so a direct loop is
// cheaper than any sampling trick.
func (g *Generator) binomial(n int, p float64) int {
	k := 0
	for i := 0; i < n; i++ {
		if g.rng.Float64() < p {
			k++
		}
	}
	return k
}

func (g *Generator) intIn(r config.IntRange) int {
	return r.Min + g.rng.Intn(r.Max-r.Min+1)
}

func (g *Generator) floatIn(r config.FloatRange) float64 {
	return r.Min + g.rng.Float64()*(r.Max-r.Min)
}

func (g *Generator) choice(set []string) string {
	return set[g.rng.Intn(len(set))]
}

func (g *Generator) choiceF(set []float64) float64 {
	return set[g.rng.Intn(len(set))]
}

func (g *Generator) dateIn(start, end time.Time) time.Time {
	span := end.Unix() - start.Unix()
	return time.Unix(start.Unix()+g.rng.Int63n(span+1), 0).UTC()
}

func (g *Generator) uuidString() string {
	id, err := uuid.NewRandomFromReader(g.rng)
	if err != nil {
		// rand.Rand.Read cannot fail; keep the record well-formed anyway.
		return uuid.Nil.String()
	}
	return id.String()
}

func round2(f float64) float64 { return math.Round(f*100) / 100 }
