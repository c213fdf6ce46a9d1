// Package kpis implements the gold-stage transform: six ratio metrics per
// record with safe division, each rounded to two decimals.
package kpis

import (
	"math"
	"time"

	"github.com/angelcm/medallion-etl-go/internal/errs"
	"github.com/angelcm/medallion-etl-go/internal/models"
	"github.com/angelcm/medallion-etl-go/internal/table"
)

// KPI column names, in persisted order.
const (
	ColCTR    = "ctr"
	ColCVR    = "cvr"
	ColCPC    = "cpc"
	ColCPA    = "cpa"
	ColROAS   = "roas"
	ColMargin = "margin"
)

// Schema returns the gold columns: the base schema plus the KPI columns.
func Schema() []table.Column {
	cols := models.Schema()
	for _, name := range []string{ColCTR, ColCVR, ColCPC, ColCPA, ColROAS, ColMargin} {
		cols = append(cols, table.Column{Name: name, Kind: table.Float})
	}
	return cols
}

// Compute derives the KPI columns for every row of a silver table. Zero
// denominators yield 0, never NaN or an infinity.
func Compute(t *table.Table, processedAt time.Time) (*table.Table, error) {
	const op = "ComputeKPIs"

	base := models.Schema()
	in := t.Columns()
	if len(in) != len(base) {
		return nil, errs.New(errs.KindDataQuality, op,
			"input has %d columns, expected %d", len(in), len(base))
	}
	for i, c := range base {
		if in[i].Name != c.Name {
			return nil, errs.New(errs.KindDataQuality, op,
				"input column %d is %s, expected %s", i, in[i].Name, c.Name)
		}
	}
	idx := make(map[string]int)
	for _, name := range []string{
		models.ColClicks, models.ColImpressions, models.ColConversions,
		models.ColAdSpend, models.ColRevenue, models.ColExtractionDate,
	} {
		j, _ := t.Index(name)
		idx[name] = j
	}

	out := table.New(Schema())
	for i := 0; i < t.Len(); i++ {
		clicks, err := intCell(t, i, idx[models.ColClicks])
		if err != nil {
			return nil, errs.Wrap(errs.KindDataQuality, op, err, "row %d", i)
		}
		impressions, err := intCell(t, i, idx[models.ColImpressions])
		if err != nil {
			return nil, errs.Wrap(errs.KindDataQuality, op, err, "row %d", i)
		}
		conversions, err := intCell(t, i, idx[models.ColConversions])
		if err != nil {
			return nil, errs.Wrap(errs.KindDataQuality, op, err, "row %d", i)
		}
		adSpend, err := floatCell(t, i, idx[models.ColAdSpend])
		if err != nil {
			return nil, errs.Wrap(errs.KindDataQuality, op, err, "row %d", i)
		}
		revenue, err := floatCell(t, i, idx[models.ColRevenue])
		if err != nil {
			return nil, errs.Wrap(errs.KindDataQuality, op, err, "row %d", i)
		}

		ctr := round2(safeDiv(clicks, impressions) * 100)
		cvr := round2(safeDiv(conversions, clicks) * 100)
		cpc := round2(safeDiv(adSpend, clicks))
		cpa := round2(safeDiv(adSpend, conversions))
		roas := round2(safeDiv(revenue, adSpend))
		margin := 0.0
		if revenue != 0 {
			margin = round2((revenue - adSpend) / revenue * 100)
		}

		src := t.Row(i)
		row := make([]any, 0, len(src)+6)
		row = append(row, src...)
		row = append(row, ctr, cvr, cpc, cpa, roas, margin)
		row[idx[models.ColExtractionDate]] = processedAt
		if err := out.Append(row); err != nil {
			return nil, errs.Wrap(errs.KindDataQuality, op, err, "row %d", i)
		}
	}
	return out, nil
}

func intCell(t *table.Table, i, j int) (float64, error) {
	v, ok := t.Cell(i, j).(int64)
	if !ok {
		return 0, errs.New(errs.KindDataQuality, "ComputeKPIs",
			"column %s is not an integer", t.Columns()[j].Name)
	}
	return float64(v), nil
}

func floatCell(t *table.Table, i, j int) (float64, error) {
	v, ok := t.Cell(i, j).(float64)
	if !ok {
		return 0, errs.New(errs.KindDataQuality, "ComputeKPIs",
			"column %s is not a float", t.Columns()[j].Name)
	}
	return v, nil
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

func round2(f float64) float64 { return math.Round(f*100) / 100 }
