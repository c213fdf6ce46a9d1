package generator

import (
	"time"

	"github.com/angelcm/medallion-etl-go/internal/errs"
	"github.com/angelcm/medallion-etl-go/internal/models"
	"github.com/angelcm/medallion-etl-go/internal/table"
)

// BuildDataset draws n records and lays them out as a bronze table. Every
// row shares the one extraction timestamp for the run.
func BuildDataset(n int, g *Generator, extractedAt time.Time) (*table.Table, error) {
	if n < 0 {
		return nil, errs.New(errs.KindConfig, "BuildDataset", "record count must be >= 0, got %d", n)
	}
	t := table.New(models.Schema())
	for i := 0; i < n; i++ {
		if err := t.Append(g.Record(extractedAt).Row()); err != nil {
			return nil, errs.Wrap(errs.KindDataQuality, "BuildDataset", err, "row %d", i)
		}
	}
	return t, nil
}
