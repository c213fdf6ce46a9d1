// Package lake persists stage tables to the layer directories. Each run
// writes the same row set twice, once as Parquet and once as CSV, under
// <prefix>_<YYYYMMDD_HHMMSS>.<ext>, and then publishes a manifest for the
// layer.
package lake

import (
	"os"
	"path/filepath"
	"time"

	"github.com/angelcm/medallion-etl-go/internal/errs"
	"github.com/angelcm/medallion-etl-go/internal/table"
)

// TimestampLayout is the filename timestamp convention shared by every
// layer.
const TimestampLayout = "20060102_150405"

// EnsureDir creates the layer directory when missing.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errs.Wrap(errs.KindIO, "EnsureDir", err, "creating %s", dir)
	}
	return nil
}

// Filename builds the layer filename for a run timestamp.
func Filename(prefix string, ts time.Time, ext string) string {
	return prefix + "_" + ts.Format(TimestampLayout) + ext
}

// WriteTable writes t to dir as Parquet and CSV, in that order. The first
// failure aborts; no partial formats are cleaned up, but the manifest is
// only published by callers after both writes succeed. Returns the two
// base filenames.
func WriteTable(dir, prefix string, t *table.Table, runTS time.Time) ([]string, error) {
	if err := EnsureDir(dir); err != nil {
		return nil, err
	}
	pq := Filename(prefix, runTS, ".parquet")
	if err := WriteParquet(filepath.Join(dir, pq), t); err != nil {
		return nil, err
	}
	csvName := Filename(prefix, runTS, ".csv")
	if err := WriteCSV(filepath.Join(dir, csvName), t); err != nil {
		return nil, err
	}
	return []string{pq, csvName}, nil
}
