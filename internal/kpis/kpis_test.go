package kpis_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelcm/medallion-etl-go/internal/errs"
	"github.com/angelcm/medallion-etl-go/internal/kpis"
	"github.com/angelcm/medallion-etl-go/internal/models"
	"github.com/angelcm/medallion-etl-go/internal/table"
)

var processedAt = time.Date(2025, 9, 2, 8, 0, 0, 0, time.UTC)

func silverRecord() models.MarketingRecord {
	return models.MarketingRecord{
		CustomerID:          "a",
		Age:                 30,
		Gender:              "M",
		Income:              5000,
		CampaignID:          "c-1",
		CampaignChannel:     "search",
		CampaignType:        "seasonal",
		AdSpend:             2.25,
		Impressions:         10,
		Clicks:              5,
		Conversions:         1,
		Revenue:             1700,
		WebsiteVisits:       3,
		TimeOnSite:          120,
		PreviousPurchases:   1,
		DateReceived:        time.Date(2025, 8, 15, 0, 0, 0, 0, time.UTC),
		AdvertisingPlatform: "Google Ads",
		ExtractionDate:      time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
	}
}

func computeOne(t *testing.T, rec models.MarketingRecord) map[string]float64 {
	t.Helper()
	in := table.New(models.Schema())
	require.NoError(t, in.Append(rec.Row()))
	out, err := kpis.Compute(in, processedAt)
	require.NoError(t, err)
	require.Equal(t, 1, out.Len())

	got := map[string]float64{}
	for _, name := range []string{kpis.ColCTR, kpis.ColCVR, kpis.ColCPC, kpis.ColCPA, kpis.ColROAS, kpis.ColMargin} {
		idx, ok := out.Index(name)
		require.True(t, ok)
		got[name] = out.Cell(0, idx).(float64)
	}
	return got
}

func TestComputeRatios(t *testing.T) {
	got := computeOne(t, silverRecord())

	assert.Equal(t, 50.0, got[kpis.ColCTR])    // 5/10*100
	assert.Equal(t, 20.0, got[kpis.ColCVR])    // 1/5*100
	assert.Equal(t, 0.45, got[kpis.ColCPC])    // 2.25/5
	assert.Equal(t, 2.25, got[kpis.ColCPA])    // 2.25/1
	assert.Equal(t, 755.56, got[kpis.ColROAS]) // 1700/2.25 rounded
	assert.Equal(t, 99.87, got[kpis.ColMargin])
}

func TestComputeSafeDivision(t *testing.T) {
	t.Run("zero impressions", func(t *testing.T) {
		rec := silverRecord()
		rec.Impressions, rec.Clicks, rec.WebsiteVisits, rec.Conversions = 0, 0, 0, 0
		rec.Revenue, rec.TimeOnSite = 0, 0
		got := computeOne(t, rec)
		assert.Equal(t, 0.0, got[kpis.ColCTR])
		assert.Equal(t, 0.0, got[kpis.ColCVR])
		assert.Equal(t, 0.0, got[kpis.ColCPC])
		assert.Equal(t, 0.0, got[kpis.ColCPA])
	})

	t.Run("zero ad spend with revenue", func(t *testing.T) {
		rec := silverRecord()
		rec.AdSpend = 0
		got := computeOne(t, rec)
		assert.Equal(t, 0.0, got[kpis.ColROAS])
		assert.Equal(t, 100.0, got[kpis.ColMargin])
	})

	t.Run("zero revenue", func(t *testing.T) {
		rec := silverRecord()
		rec.Revenue, rec.Conversions = 0, 0
		got := computeOne(t, rec)
		assert.Equal(t, 0.0, got[kpis.ColMargin])
		assert.Equal(t, 0.0, got[kpis.ColROAS])
	})

	t.Run("negative margin stays numeric", func(t *testing.T) {
		rec := silverRecord()
		rec.Revenue = 1.0
		rec.AdSpend = 3.0
		got := computeOne(t, rec)
		assert.Equal(t, -200.0, got[kpis.ColMargin])
	})
}

func TestComputeRestampsExtractionDate(t *testing.T) {
	in := table.New(models.Schema())
	require.NoError(t, in.Append(silverRecord().Row()))
	out, err := kpis.Compute(in, processedAt)
	require.NoError(t, err)

	extIdx, _ := out.Index(models.ColExtractionDate)
	assert.Equal(t, processedAt, out.Cell(0, extIdx))
}

func TestComputeRejectsWrongShape(t *testing.T) {
	t.Run("missing columns", func(t *testing.T) {
		_, err := kpis.Compute(table.New(models.Schema()[:4]), processedAt)
		require.Error(t, err)
		assert.True(t, errs.IsKind(err, errs.KindDataQuality))
	})

	t.Run("untyped cell", func(t *testing.T) {
		in := table.New(models.Schema())
		row := silverRecord().Row()
		clicksIdx, _ := in.Index(models.ColClicks)
		row[clicksIdx] = "5"
		require.NoError(t, in.Append(row))
		_, err := kpis.Compute(in, processedAt)
		require.Error(t, err)
		assert.True(t, errs.IsKind(err, errs.KindDataQuality))
	})
}

func TestGoldSchemaAppendsKPIColumns(t *testing.T) {
	cols := kpis.Schema()
	base := models.Schema()
	require.Len(t, cols, len(base)+6)
	assert.Equal(t, base, cols[:len(base)])
	assert.Equal(t, kpis.ColCTR, cols[len(base)].Name)
	assert.Equal(t, kpis.ColMargin, cols[len(cols)-1].Name)
}
