package inference

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odahu/odahu-mlflow-aws/pkg/inference/table"
)

func newDoublingTestHandler(t *testing.T) *TestHandler {
	t.Helper()
	handler, err := NewTestHandler(Config{
		InputSchema:  abSchema,
		OutputSchema: abSchema,
	}, doublingModel{})
	require.NoError(t, err)
	return handler
}

func TestTestHandlerQuery(t *testing.T) {
	handler := newDoublingTestHandler(t)

	result, err := handler.Query(context.Background(), map[string]any{"a": 1, "b": 2})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 2.0, "b": 4.0}, result)
}

func TestTestHandlerQueryTable(t *testing.T) {
	handler := newDoublingTestHandler(t)

	input := table.New("a", "b")
	require.NoError(t, input.AppendRow(3.0, 4.0))

	result, err := handler.QueryTable(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 6.0, "b": 8.0}, result)
}

func TestTestHandlerQueryGraphQL(t *testing.T) {
	handler := newDoublingTestHandler(t)

	result, err := handler.QueryGraphQL(context.Background(), `{ prediction(a: 1.0, b: 2.0) { a b } }`)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"prediction": map[string]any{"a": 2.0, "b": 4.0},
	}, result)
}
