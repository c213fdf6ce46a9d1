package table_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelcm/medallion-etl-go/internal/table"
)

func TestAppendArity(t *testing.T) {
	tbl := table.New([]table.Column{{Name: "a", Kind: table.Int}, {Name: "b", Kind: table.String}})
	require.NoError(t, tbl.Append([]any{int64(1), "x"}))
	require.Error(t, tbl.Append([]any{int64(1)}))
	assert.Equal(t, 1, tbl.Len())
}

func TestIndexAndCellNamed(t *testing.T) {
	tbl := table.New([]table.Column{{Name: "a", Kind: table.Int}})
	require.NoError(t, tbl.Append([]any{int64(7)}))

	i, ok := tbl.Index("a")
	require.True(t, ok)
	assert.Equal(t, 0, i)
	_, ok = tbl.Index("missing")
	assert.False(t, ok)

	v, ok := tbl.CellNamed(0, "a")
	require.True(t, ok)
	assert.Equal(t, int64(7), v)
}

func TestEqual(t *testing.T) {
	ts := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	cols := []table.Column{{Name: "a", Kind: table.Time}, {Name: "b", Kind: table.Float}}

	build := func(v float64) *table.Table {
		tbl := table.New(cols)
		_ = tbl.Append([]any{ts, v})
		return tbl
	}

	assert.True(t, table.Equal(build(1.5), build(1.5)))
	assert.False(t, table.Equal(build(1.5), build(2.5)))

	withNil := table.New(cols)
	_ = withNil.Append([]any{ts, nil})
	same := table.New(cols)
	_ = same.Append([]any{ts, nil})
	assert.True(t, table.Equal(withNil, same))
}
