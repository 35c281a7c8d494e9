package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odahu/odahu-mlflow-aws/pkg/inference/schema"
	"github.com/odahu/odahu-mlflow-aws/pkg/inference/table"
)

func TestPredictionsToJSON(t *testing.T) {
	tbl := table.New("a", "b")
	require.NoError(t, tbl.AppendRow(1.0, 2.0))

	encoded, err := PredictionsToJSON(tbl)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"a": 1, "b": 2}]`, encoded)

	encoded, err = PredictionsToJSON([]float64{1, 2})
	require.NoError(t, err)
	assert.JSONEq(t, `[1, 2]`, encoded)
}

func TestToSingleObject(t *testing.T) {
	output := schema.Schema{
		{Name: "a", Type: schema.Double},
		{Name: "b", Type: schema.Double},
	}

	singleRow := table.New("a", "b")
	require.NoError(t, singleRow.AppendRow(2.0, 4.0))

	tests := []struct {
		name     string
		result   any
		expected map[string]any
	}{
		{
			name:     "single row table",
			result:   singleRow,
			expected: map[string]any{"a": 2.0, "b": 4.0},
		},
		{
			name:     "already an object",
			result:   map[string]any{"a": 2.0, "b": 4.0},
			expected: map[string]any{"a": 2.0, "b": 4.0},
		},
		{
			name:     "numeric vector",
			result:   []float64{2.0, 4.0},
			expected: map[string]any{"a": 2.0, "b": 4.0},
		},
		{
			name:     "positional values",
			result:   []any{2.0, 4.0},
			expected: map[string]any{"a": 2.0, "b": 4.0},
		},
		{
			name:     "single record list",
			result:   []any{map[string]any{"a": 2.0, "b": 4.0}},
			expected: map[string]any{"a": 2.0, "b": 4.0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			object, err := ToSingleObject(tt.result, output)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, object)
		})
	}
}

func TestToSingleObjectErrors(t *testing.T) {
	output := schema.Schema{{Name: "a", Type: schema.Double}}

	twoRows := table.New("a")
	require.NoError(t, twoRows.AppendRow(1.0))
	require.NoError(t, twoRows.AppendRow(2.0))

	tests := []struct {
		name     string
		result   any
		expected string
	}{
		{
			name:     "multi row table",
			result:   twoRows,
			expected: "more than one record found in results",
		},
		{
			name:     "empty table",
			result:   table.New("a"),
			expected: "records are not found in results",
		},
		{
			name:     "multiple records",
			result:   []any{map[string]any{"a": 1.0}, map[string]any{"a": 2.0}},
			expected: "more than one record found in results",
		},
		{
			name:     "vector length mismatch",
			result:   []float64{1.0, 2.0},
			expected: "response contains 2 field(s), but schema declares 1 value(s)",
		},
		{
			name:     "unsupported shape",
			result:   42,
			expected: "unsupported response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ToSingleObject(tt.result, output)
			require.Error(t, err)
			assert.Equal(t, tt.expected, err.Error())
		})
	}
}

func TestEncodeSingleObjectJSON(t *testing.T) {
	output := schema.Schema{
		{Name: "a", Type: schema.Double},
		{Name: "b", Type: schema.Double},
	}

	encoded, err := EncodeSingleObjectJSON([]float64{2.0, 4.0}, output)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a": 2, "b": 4}`, encoded)
}
