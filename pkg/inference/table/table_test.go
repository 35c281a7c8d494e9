package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendRow(t *testing.T) {
	tbl := New("a", "b")

	require.NoError(t, tbl.AppendRow(1.0, 2.0))
	assert.Equal(t, 1, tbl.NumRows())
	assert.Equal(t, []any{1.0, 2.0}, tbl.Row(0))

	err := tbl.AppendRow(1.0)
	require.Error(t, err)
	assert.Equal(t, "row has 1 value(s), table declares 2 column(s)", err.Error())
}

func TestRecords(t *testing.T) {
	tbl := New("a", "b")
	require.NoError(t, tbl.AppendRow(1.0, 2.0))
	require.NoError(t, tbl.AppendRow(3.0, 4.0))

	assert.Equal(t, map[string]any{"a": 1.0, "b": 2.0}, tbl.Record(0))
	assert.Equal(t, []map[string]any{
		{"a": 1.0, "b": 2.0},
		{"a": 3.0, "b": 4.0},
	}, tbl.Records())
}

func TestFromRecord(t *testing.T) {
	tbl := FromRecord([]string{"a", "b"}, map[string]any{"b": 2.0, "a": 1.0})

	assert.Equal(t, []string{"a", "b"}, tbl.Columns())
	require.Equal(t, 1, tbl.NumRows())
	assert.Equal(t, []any{1.0, 2.0}, tbl.Row(0))
}
