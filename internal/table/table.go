// Package table provides the small ordered-column table that pipeline
// stages exchange with the lake. Cells hold string, int64, float64,
// time.Time or nil (missing); each column declares the kind its cells are
// expected to coerce to.
package table

import (
	"fmt"
	"time"
)

// Kind is the declared cell type of a column.
type Kind int

const (
	String Kind = iota + 1
	Int
	Float
	Time
)

func (k Kind) String() string {
	switch k {
	case String:
		return "string"
	case Int:
		return "int64"
	case Float:
		return "float64"
	case Time:
		return "timestamp"
	default:
		return "unknown"
	}
}

// Column is a name plus declared kind.
type Column struct {
	Name string
	Kind Kind
}

// Table is a row-major table with a fixed column list.
type Table struct {
	cols []Column
	rows [][]any
}

// New creates an empty table with the given columns.
func New(cols []Column) *Table {
	cp := make([]Column, len(cols))
	copy(cp, cols)
	return &Table{cols: cp}
}

// Columns returns the column list.
func (t *Table) Columns() []Column { return t.cols }

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Index returns the position of the named column.
func (t *Table) Index(name string) (int, bool) {
	for i, c := range t.cols {
		if c.Name == name {
			return i, true
		}
	}
	return 0, false
}

// Append adds a row. The row length must match the column count.
func (t *Table) Append(row []any) error {
	if len(row) != len(t.cols) {
		return fmt.Errorf("row has %d cells, table has %d columns", len(row), len(t.cols))
	}
	t.rows = append(t.rows, row)
	return nil
}

// Row returns row i. Callers must not mutate rows they did not append.
func (t *Table) Row(i int) []any { return t.rows[i] }

// Cell returns the cell at row i, column j.
func (t *Table) Cell(i, j int) any { return t.rows[i][j] }

// CellNamed returns the cell at row i in the named column.
func (t *Table) CellNamed(i int, name string) (any, bool) {
	j, ok := t.Index(name)
	if !ok {
		return nil, false
	}
	return t.rows[i][j], true
}

// Equal reports whether two tables have identical columns and cells.
// time.Time cells compare with Equal, everything else with ==.
func Equal(a, b *Table) bool {
	if a.Len() != b.Len() || len(a.cols) != len(b.cols) {
		return false
	}
	for i, c := range a.cols {
		if b.cols[i] != c {
			return false
		}
	}
	for i := range a.rows {
		for j := range a.rows[i] {
			av, bv := a.rows[i][j], b.rows[i][j]
			at, aok := av.(time.Time)
			bt, bok := bv.(time.Time)
			if aok && bok {
				if !at.Equal(bt) {
					return false
				}
				continue
			}
			if av != bv {
				return false
			}
		}
	}
	return true
}
