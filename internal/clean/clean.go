// Package clean implements the silver-stage transform: deduplication, type
// coercion, imputation and funnel validation over a bronze table.
package clean

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/angelcm/medallion-etl-go/internal/errs"
	"github.com/angelcm/medallion-etl-go/internal/models"
	"github.com/angelcm/medallion-etl-go/internal/table"
)

// Options control optional validation.
type Options struct {
	// ValidateFunnel makes conversions>clicks fatal for the stage.
	ValidateFunnel bool
}

// Stats reports what the pass changed, for run metrics.
type Stats struct {
	DuplicatesDropped int
	ValuesImputed     int
}

// Clean transforms a bronze table into a silver one. Any cell that cannot
// be coerced to the declared schema fails the whole operation; nothing is
// silently dropped or fixed.
func Clean(t *table.Table, opts Options, processedAt time.Time) (*table.Table, Stats, error) {
	const op = "Clean"
	var stats Stats

	schema := models.Schema()
	srcIdx := make([]int, len(schema))
	for i, c := range schema {
		j, ok := t.Index(c.Name)
		if !ok {
			return nil, stats, errs.New(errs.KindDataQuality, op, "input is missing column %s", c.Name)
		}
		srcIdx[i] = j
	}

	// Dedup by customer_id, keeping the first occurrence in input order.
	idCol, _ := t.Index(models.ColCustomerID)
	seen := make(map[string]struct{}, t.Len())
	var kept []int
	for i := 0; i < t.Len(); i++ {
		cell := t.Cell(i, idCol)
		if cell == nil {
			return nil, stats, errs.New(errs.KindDataQuality, op, "row %d has no customer_id", i)
		}
		id := fmt.Sprint(cell)
		if _, ok := seen[id]; ok {
			stats.DuplicatesDropped++
			continue
		}
		seen[id] = struct{}{}
		kept = append(kept, i)
	}

	// Coerce every cell to its declared type.
	out := table.New(schema)
	for _, src := range kept {
		row := make([]any, len(schema))
		for j, c := range schema {
			cell, err := coerce(t.Cell(src, srcIdx[j]), c.Kind)
			if err != nil {
				return nil, stats, errs.Wrap(errs.KindDataQuality, op, err,
					"row %d column %s", src, c.Name)
			}
			row[j] = cell
		}
		if err := out.Append(row); err != nil {
			return nil, stats, errs.Wrap(errs.KindDataQuality, op, err, "row %d", src)
		}
	}

	// Impute income with the post-dedup, pre-imputation column mean and
	// ad_spend with zero.
	incomeIdx, _ := out.Index(models.ColIncome)
	spendIdx, _ := out.Index(models.ColAdSpend)
	var sum float64
	var n int
	for i := 0; i < out.Len(); i++ {
		if v, ok := out.Cell(i, incomeIdx).(float64); ok {
			sum += v
			n++
		}
	}
	mean := 0.0
	if n > 0 {
		mean = sum / float64(n)
	}
	for i := 0; i < out.Len(); i++ {
		row := out.Row(i)
		if row[incomeIdx] == nil {
			row[incomeIdx] = mean
			stats.ValuesImputed++
		}
		if row[spendIdx] == nil {
			row[spendIdx] = 0.0
			stats.ValuesImputed++
		}
	}

	if opts.ValidateFunnel {
		clicksIdx, _ := out.Index(models.ColClicks)
		convIdx, _ := out.Index(models.ColConversions)
		for i := 0; i < out.Len(); i++ {
			clicks, _ := out.Cell(i, clicksIdx).(int64)
			conversions, _ := out.Cell(i, convIdx).(int64)
			if conversions > clicks {
				return nil, stats, errs.New(errs.KindDataQuality, op,
					"row %d: conversions %d exceed clicks %d", i, conversions, clicks)
			}
		}
	}

	// Restamp the processing timestamp.
	extIdx, _ := out.Index(models.ColExtractionDate)
	for i := 0; i < out.Len(); i++ {
		out.Row(i)[extIdx] = processedAt
	}

	return out, stats, nil
}

// coerce converts a cell to the declared kind. nil stays nil (missing).
func coerce(cell any, kind table.Kind) (any, error) {
	if cell == nil {
		return nil, nil
	}
	switch kind {
	case table.String:
		if v, ok := cell.(string); ok {
			return v, nil
		}
	case table.Int:
		switch v := cell.(type) {
		case int64:
			return v, nil
		case float64:
			if v == math.Trunc(v) {
				return int64(v), nil
			}
		case string:
			n, err := strconv.ParseInt(v, 10, 64)
			if err == nil {
				return n, nil
			}
		}
	case table.Float:
		switch v := cell.(type) {
		case float64:
			return v, nil
		case int64:
			return float64(v), nil
		case string:
			f, err := strconv.ParseFloat(v, 64)
			if err == nil {
				return f, nil
			}
		}
	case table.Time:
		switch v := cell.(type) {
		case time.Time:
			return v, nil
		case string:
			t, err := time.Parse(time.RFC3339Nano, v)
			if err == nil {
				return t.UTC(), nil
			}
		}
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to %s", cell, cell, kind)
}
