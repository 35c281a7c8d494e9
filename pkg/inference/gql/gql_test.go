package gql

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ierrors "github.com/odahu/odahu-mlflow-aws/pkg/inference/errors"
	"github.com/odahu/odahu-mlflow-aws/pkg/inference/schema"
	"github.com/odahu/odahu-mlflow-aws/pkg/inference/table"
)

var (
	inputSchema = schema.Schema{
		{Name: "sepal_length", Type: schema.Double},
		{Name: "sepal_width", Type: schema.Double},
	}
	outputSchema = schema.Schema{
		{Name: "species_id", Type: schema.Long},
	}
)

func doublingPredict(_ context.Context, input *table.Table) (map[string]any, error) {
	record := input.Record(0)
	total := 0.0
	for _, value := range record {
		total += value.(float64)
	}
	return map[string]any{"species_id": int64(total)}, nil
}

func TestCamel(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"sepal_length", "sepalLength"},
		{"sepal length", "sepalLength"},
		{"sepal-width", "sepalWidth"},
		{"plain", "plain"},
		{"ALREADY", "ALREADY"},
		{"two_WORDS", "twoWords"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, camel(tt.in), "camel(%q)", tt.in)
	}
}

func TestBuildRejectsPositionalSchema(t *testing.T) {
	positional := schema.Schema{{Type: schema.Double}}

	_, err := Build(positional, outputSchema, doublingPredict)
	require.Error(t, err)
	assert.Equal(t, "schema should have column names declared", err.Error())

	_, err = Build(inputSchema, positional, doublingPredict)
	require.Error(t, err)
	assert.Equal(t, "schema should have column names declared", err.Error())
}

func TestRemapArguments(t *testing.T) {
	adapter, err := Build(inputSchema, outputSchema, doublingPredict)
	require.NoError(t, err)

	record, err := adapter.RemapArguments(map[string]any{
		"sepalLength": 1.0,
		"sepalWidth":  2.0,
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"sepal_length": 1.0, "sepal_width": 2.0}, record)

	_, err = adapter.RemapArguments(map[string]any{"petalLength": 1.0})
	require.Error(t, err)
	assert.Equal(t, `invalid input, field "petalLength" is unknown`, err.Error())
}

func TestExecutePredictionQuery(t *testing.T) {
	adapter, err := Build(inputSchema, outputSchema, doublingPredict)
	require.NoError(t, err)

	data, err := adapter.Execute(context.Background(), `
		{
			prediction(sepalLength: 1.5, sepalWidth: 2.5) {
				speciesId
			}
		}
	`)
	require.NoError(t, err)

	prediction, ok := data["prediction"].(map[string]any)
	require.True(t, ok, "prediction object missing in %v", data)
	assert.EqualValues(t, 4, prediction["speciesId"])
}

func TestExecuteJSONEnvelope(t *testing.T) {
	adapter, err := Build(inputSchema, outputSchema, doublingPredict)
	require.NoError(t, err)

	data, err := adapter.Execute(context.Background(), `{
		"query": "query Run($l: Float!, $w: Float!) { prediction(sepalLength: $l, sepalWidth: $w) { speciesId } }",
		"variables": {"l": 1.0, "w": 2.0}
	}`)
	require.NoError(t, err)

	prediction, ok := data["prediction"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 3, prediction["speciesId"])
}

func TestExecuteSchemaIntrospection(t *testing.T) {
	adapter, err := Build(inputSchema, outputSchema, doublingPredict)
	require.NoError(t, err)

	data, err := adapter.Execute(context.Background(), `{ schema }`)
	require.NoError(t, err)
	assert.Equal(t,
		"input: [sepal_length: double, sepal_width: double], output: [species_id: long]",
		data["schema"],
	)
}

func TestExecuteReRaisesInvalidInput(t *testing.T) {
	rejecting := func(_ context.Context, _ *table.Table) (map[string]any, error) {
		return nil, &ierrors.InvalidModelInputError{ErrorMsg: "sepal_length is out of range"}
	}
	adapter, err := Build(inputSchema, outputSchema, rejecting)
	require.NoError(t, err)

	_, err = adapter.Execute(context.Background(), `
		{
			prediction(sepalLength: 100.0, sepalWidth: 2.5) {
				speciesId
			}
		}
	`)
	require.Error(t, err)

	invalid, ok := ierrors.AsInvalidInput(err)
	require.True(t, ok)
	assert.Equal(t, "sepal_length is out of range", invalid.Error())
}

func TestExecuteReportsQueryErrors(t *testing.T) {
	adapter, err := Build(inputSchema, outputSchema, doublingPredict)
	require.NoError(t, err)

	_, err = adapter.Execute(context.Background(), `{ prediction { speciesId } }`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unable to execute graphql query")
}
