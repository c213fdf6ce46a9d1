package lake

import (
	"context"
	"os"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/angelcm/medallion-etl-go/internal/errs"
	"github.com/angelcm/medallion-etl-go/internal/table"
)

// WriteParquet writes the table as a single snappy-compressed row group.
func WriteParquet(path string, t *table.Table) error {
	const op = "WriteParquet"
	mem := memory.NewGoAllocator()
	schema, err := arrowSchema(t.Columns())
	if err != nil {
		return err
	}

	bld := array.NewRecordBuilder(mem, schema)
	defer bld.Release()
	for i := 0; i < t.Len(); i++ {
		for j, col := range t.Columns() {
			if err := appendCell(bld.Field(j), col, t.Cell(i, j)); err != nil {
				return err
			}
		}
	}
	rec := bld.NewRecord()
	defer rec.Release()

	f, err := os.Create(path)
	if err != nil {
		return errs.Wrap(errs.KindIO, op, err, "creating %s", path)
	}

	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithAllocator(mem))
	w, err := pqarrow.NewFileWriter(schema, f, props, arrowProps)
	if err != nil {
		f.Close()
		return errs.Wrap(errs.KindIO, op, err, "opening writer for %s", path)
	}
	if err := w.Write(rec); err != nil {
		w.Close()
		return errs.Wrap(errs.KindIO, op, err, "writing %s", path)
	}
	if err := w.Close(); err != nil {
		return errs.Wrap(errs.KindIO, op, err, "closing %s", path)
	}
	return nil
}

// ReadParquet loads a layer file back into a table. Nulls become missing
// cells.
func ReadParquet(path string) (*table.Table, error) {
	const op = "ReadParquet"
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.Wrap(errs.KindIO, op, err, "opening %s", path)
	}
	defer f.Close()

	pqReader, err := file.NewParquetReader(f)
	if err != nil {
		return nil, errs.Wrap(errs.KindIO, op, err, "reading %s", path)
	}
	defer pqReader.Close()

	mem := memory.NewGoAllocator()
	arrowReader, err := pqarrow.NewFileReader(pqReader, pqarrow.ArrowReadProperties{}, mem)
	if err != nil {
		return nil, errs.Wrap(errs.KindIO, op, err, "opening arrow reader for %s", path)
	}
	tbl, err := arrowReader.ReadTable(context.Background())
	if err != nil {
		return nil, errs.Wrap(errs.KindIO, op, err, "reading table from %s", path)
	}
	defer tbl.Release()

	schema := tbl.Schema()
	cols := make([]table.Column, schema.NumFields())
	cells := make([][]any, schema.NumFields())
	for i := 0; i < int(tbl.NumCols()); i++ {
		field := schema.Field(i)
		kind, err := kindOf(field.Type)
		if err != nil {
			return nil, err
		}
		cols[i] = table.Column{Name: field.Name, Kind: kind}

		chunked := tbl.Column(i).Data()
		vals := make([]any, 0, tbl.NumRows())
		for _, chunk := range chunked.Chunks() {
			chunkVals, err := columnCells(chunk, field.Type)
			if err != nil {
				return nil, err
			}
			vals = append(vals, chunkVals...)
		}
		cells[i] = vals
	}

	out := table.New(cols)
	for i := 0; i < int(tbl.NumRows()); i++ {
		row := make([]any, len(cols))
		for j := range cols {
			row[j] = cells[j][i]
		}
		if err := out.Append(row); err != nil {
			return nil, errs.Wrap(errs.KindIO, op, err, "assembling row %d", i)
		}
	}
	return out, nil
}

func arrowSchema(cols []table.Column) (*arrow.Schema, error) {
	fields := make([]arrow.Field, len(cols))
	for i, c := range cols {
		var dt arrow.DataType
		switch c.Kind {
		case table.String:
			dt = arrow.BinaryTypes.String
		case table.Int:
			dt = arrow.PrimitiveTypes.Int64
		case table.Float:
			dt = arrow.PrimitiveTypes.Float64
		case table.Time:
			dt = arrow.FixedWidthTypes.Timestamp_ms
		default:
			return nil, errs.New(errs.KindDataQuality, "WriteParquet", "column %s has unknown kind", c.Name)
		}
		fields[i] = arrow.Field{Name: c.Name, Type: dt, Nullable: true}
	}
	return arrow.NewSchema(fields, nil), nil
}

func appendCell(b array.Builder, col table.Column, cell any) error {
	if cell == nil {
		b.AppendNull()
		return nil
	}
	switch col.Kind {
	case table.String:
		v, ok := cell.(string)
		if !ok {
			return cellTypeErr(col, cell)
		}
		b.(*array.StringBuilder).Append(v)
	case table.Int:
		v, ok := cell.(int64)
		if !ok {
			return cellTypeErr(col, cell)
		}
		b.(*array.Int64Builder).Append(v)
	case table.Float:
		v, ok := cell.(float64)
		if !ok {
			return cellTypeErr(col, cell)
		}
		b.(*array.Float64Builder).Append(v)
	case table.Time:
		v, ok := cell.(time.Time)
		if !ok {
			return cellTypeErr(col, cell)
		}
		ts, err := arrow.TimestampFromTime(v.UTC(), arrow.Millisecond)
		if err != nil {
			return errs.Wrap(errs.KindDataQuality, "WriteParquet", err, "column %s", col.Name)
		}
		b.(*array.TimestampBuilder).Append(ts)
	}
	return nil
}

func cellTypeErr(col table.Column, cell any) error {
	return errs.New(errs.KindDataQuality, "WriteParquet",
		"column %s: cell %v does not match declared kind %s", col.Name, cell, col.Kind)
}

func kindOf(dt arrow.DataType) (table.Kind, error) {
	switch dt.ID() {
	case arrow.STRING, arrow.LARGE_STRING:
		return table.String, nil
	case arrow.INT64, arrow.INT32:
		return table.Int, nil
	case arrow.FLOAT64, arrow.FLOAT32:
		return table.Float, nil
	case arrow.TIMESTAMP:
		return table.Time, nil
	default:
		return 0, errs.New(errs.KindDataQuality, "ReadParquet", "unsupported arrow type %s", dt)
	}
}

func columnCells(arr arrow.Array, dt arrow.DataType) ([]any, error) {
	out := make([]any, arr.Len())
	for i := 0; i < arr.Len(); i++ {
		if arr.IsNull(i) {
			continue
		}
		switch a := arr.(type) {
		case *array.String:
			out[i] = a.Value(i)
		case *array.Int64:
			out[i] = a.Value(i)
		case *array.Int32:
			out[i] = int64(a.Value(i))
		case *array.Float64:
			out[i] = a.Value(i)
		case *array.Float32:
			out[i] = float64(a.Value(i))
		case *array.Timestamp:
			unit := dt.(*arrow.TimestampType).Unit
			out[i] = a.Value(i).ToTime(unit).UTC()
		default:
			return nil, errs.New(errs.KindDataQuality, "ReadParquet", "unsupported arrow array %T", arr)
		}
	}
	return out, nil
}
