package lake

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"

	"github.com/angelcm/medallion-etl-go/internal/errs"
	"github.com/angelcm/medallion-etl-go/internal/table"
)

// csvTimeLayout keeps sub-second precision so a round trip is lossless at
// the CSV side too.
const csvTimeLayout = time.RFC3339Nano

// WriteCSV writes the table with a header row. Missing cells become empty
// fields.
func WriteCSV(path string, t *table.Table) error {
	const op = "WriteCSV"
	f, err := os.Create(path)
	if err != nil {
		return errs.Wrap(errs.KindIO, op, err, "creating %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := make([]string, len(t.Columns()))
	for i, c := range t.Columns() {
		header[i] = c.Name
	}
	if err := w.Write(header); err != nil {
		return errs.Wrap(errs.KindIO, op, err, "writing header to %s", path)
	}
	record := make([]string, len(header))
	for i := 0; i < t.Len(); i++ {
		for j := range header {
			record[j] = formatCell(t.Cell(i, j))
		}
		if err := w.Write(record); err != nil {
			return errs.Wrap(errs.KindIO, op, err, "writing row %d to %s", i, path)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errs.Wrap(errs.KindIO, op, err, "flushing %s", path)
	}
	return nil
}

// ReadCSV loads a layer CSV back into a table with the declared columns.
// Empty fields become missing cells.
func ReadCSV(path string, cols []table.Column) (*table.Table, error) {
	const op = "ReadCSV"
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.Wrap(errs.KindIO, op, err, "opening %s", path)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, errs.Wrap(errs.KindIO, op, err, "reading %s", path)
	}
	if len(records) == 0 {
		return nil, errs.New(errs.KindDataQuality, op, "%s has no header row", path)
	}
	header := records[0]
	if len(header) != len(cols) {
		return nil, errs.New(errs.KindDataQuality, op,
			"%s has %d columns, expected %d", path, len(header), len(cols))
	}
	for i, c := range cols {
		if header[i] != c.Name {
			return nil, errs.New(errs.KindDataQuality, op,
				"%s column %d is %q, expected %q", path, i, header[i], c.Name)
		}
	}

	out := table.New(cols)
	for n, rec := range records[1:] {
		row := make([]any, len(cols))
		for j, c := range cols {
			cell, err := parseCell(rec[j], c)
			if err != nil {
				return nil, errs.Wrap(errs.KindDataQuality, op, err, "%s row %d", path, n+1)
			}
			row[j] = cell
		}
		if err := out.Append(row); err != nil {
			return nil, errs.Wrap(errs.KindDataQuality, op, err, "%s row %d", path, n+1)
		}
	}
	return out, nil
}

func formatCell(cell any) string {
	switch v := cell.(type) {
	case nil:
		return ""
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case time.Time:
		return v.UTC().Format(csvTimeLayout)
	default:
		return ""
	}
}

func parseCell(s string, c table.Column) (any, error) {
	if s == "" {
		return nil, nil
	}
	switch c.Kind {
	case table.Int:
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, err
		}
		return v, nil
	case table.Float:
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, err
		}
		return v, nil
	case table.Time:
		t, err := time.Parse(csvTimeLayout, s)
		if err != nil {
			return nil, err
		}
		return t.UTC(), nil
	default:
		return s, nil
	}
}
