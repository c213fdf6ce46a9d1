package lake_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelcm/medallion-etl-go/internal/errs"
	"github.com/angelcm/medallion-etl-go/internal/lake"
	"github.com/angelcm/medallion-etl-go/internal/table"
)

var testCols = []table.Column{
	{Name: "customer_id", Kind: table.String},
	{Name: "clicks", Kind: table.Int},
	{Name: "income", Kind: table.Float},
	{Name: "extraction_date", Kind: table.Time},
}

func testTable(t *testing.T) *table.Table {
	t.Helper()
	ts := time.Date(2025, 9, 1, 10, 30, 0, 0, time.UTC)
	tbl := table.New(testCols)
	require.NoError(t, tbl.Append([]any{"a", int64(5), 1234.56, ts}))
	require.NoError(t, tbl.Append([]any{"b", int64(0), nil, ts}))
	require.NoError(t, tbl.Append([]any{"c", int64(12), 9999.99, ts.Add(time.Hour)}))
	return tbl
}

func TestParquetRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "t.parquet")
	want := testTable(t)

	require.NoError(t, lake.WriteParquet(path, want))
	got, err := lake.ReadParquet(path)
	require.NoError(t, err)

	assert.True(t, table.Equal(want, got), "round trip preserves rows and nulls")
}

func TestCSVRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "t.csv")
	want := testTable(t)

	require.NoError(t, lake.WriteCSV(path, want))
	got, err := lake.ReadCSV(path, testCols)
	require.NoError(t, err)

	assert.True(t, table.Equal(want, got))
}

func TestCSVHeaderMismatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "t.csv")
	require.NoError(t, lake.WriteCSV(path, testTable(t)))

	other := []table.Column{{Name: "something_else", Kind: table.String}}
	_, err := lake.ReadCSV(path, other)
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.KindDataQuality))
}

func TestWriteTableProducesBothFormats(t *testing.T) {
	dir := t.TempDir()
	runTS := time.Date(2025, 9, 2, 8, 15, 30, 0, time.UTC)

	files, err := lake.WriteTable(dir, "marketing", testTable(t), runTS)
	require.NoError(t, err)
	require.Equal(t, []string{"marketing_20250902_081530.parquet", "marketing_20250902_081530.csv"}, files)
	for _, f := range files {
		_, err := os.Stat(filepath.Join(dir, f))
		assert.NoError(t, err)
	}
}

func TestLatestFile(t *testing.T) {
	t.Run("picks greatest timestamp", func(t *testing.T) {
		dir := t.TempDir()
		for _, name := range []string{
			"marketing_20250901_000000.parquet",
			"marketing_20250903_120000.parquet",
			"marketing_20250902_235959.parquet",
			"marketing_20250903_120000.csv", // other extension, ignored
		} {
			require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
		}
		got, err := lake.LatestFile(dir, "marketing", ".parquet")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "marketing_20250903_120000.parquet"), got)
	})

	t.Run("empty directory", func(t *testing.T) {
		_, err := lake.LatestFile(t.TempDir(), "marketing", ".parquet")
		require.Error(t, err)
		assert.True(t, errs.IsKind(err, errs.KindNotFound))
	})

	t.Run("missing directory", func(t *testing.T) {
		_, err := lake.LatestFile(filepath.Join(t.TempDir(), "nope"), "marketing", ".parquet")
		require.Error(t, err)
		assert.True(t, errs.IsKind(err, errs.KindIO))
	})

	t.Run("unparsable timestamp is fatal", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "marketing_garbage.parquet"), nil, 0o644))
		_, err := lake.LatestFile(dir, "marketing", ".parquet")
		require.Error(t, err)
		assert.True(t, errs.IsKind(err, errs.KindParse))
	})

	t.Run("metrics prefix does not shadow base prefix", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "marketing_metrics_20250903_120000.parquet"), nil, 0o644))
		got, err := lake.LatestFile(dir, "marketing_metrics", ".parquet")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "marketing_metrics_20250903_120000.parquet"), got)
	})

	t.Run("base prefix skips metrics siblings", func(t *testing.T) {
		dir := t.TempDir()
		for _, name := range []string{
			"marketing_20250901_000000.parquet",
			"marketing_metrics_20250903_120000.parquet",
		} {
			require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
		}
		got, err := lake.LatestFile(dir, "marketing", ".parquet")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "marketing_20250901_000000.parquet"), got)
	})

	t.Run("metrics sibling with bad timestamp is still fatal", func(t *testing.T) {
		dir := t.TempDir()
		for _, name := range []string{
			"marketing_20250901_000000.parquet",
			"marketing_metrics_garbage.parquet",
		} {
			require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
		}
		_, err := lake.LatestFile(dir, "marketing", ".parquet")
		require.Error(t, err)
		assert.True(t, errs.IsKind(err, errs.KindParse))
	})
}

func TestManifestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	m := lake.Manifest{
		RunID:                "run-1",
		Stage:                "bronze",
		Rows:                 5000,
		Files:                []string{"marketing_20250902_081530.parquet", "marketing_20250902_081530.csv"},
		CreatedAtEpochSecond: 1756800000,
	}
	require.NoError(t, lake.PublishManifest(dir, m))
	got, err := lake.ReadManifest(dir)
	require.NoError(t, err)
	assert.Equal(t, m, got)
}
