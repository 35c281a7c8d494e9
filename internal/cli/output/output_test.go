package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odahu/odahu-mlflow-aws/internal/mlflow"
)

type row struct {
	Name  string `json:"name" yaml:"name"`
	Stage string `json:"stage" yaml:"stage"`
}

var rowColumns = []Column[row]{
	{Name: "Name", Value: func(r row) string { return r.Name }},
	{Name: "Stage", Value: func(r row) string { return r.Stage }},
}

func TestParseFormat(t *testing.T) {
	for _, valid := range []string{"table", "json", "yaml"} {
		format, err := ParseFormat(valid)
		require.NoError(t, err)
		assert.Equal(t, Format(valid), format)
	}

	_, err := ParseFormat("xml")
	require.Error(t, err)
	assert.Equal(t, "xml is an invalid type of output, valid types are: table, json, yaml", err.Error())
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	err := Print(&buf, FormatJSON, []row{{Name: "wine", Stage: "Production"}}, rowColumns, 0)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"name": "wine", "stage": "Production"}]`, buf.String())
}

func TestPrintJSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	err := Print(&buf, FormatJSON, nil, rowColumns, 0)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", buf.String())
}

func TestPrintYAML(t *testing.T) {
	var buf bytes.Buffer
	err := Print(&buf, FormatYAML, []row{{Name: "wine", Stage: "Production"}}, rowColumns, 0)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "name: wine")
	assert.Contains(t, buf.String(), "stage: Production")
}

func TestPrintTable(t *testing.T) {
	var buf bytes.Buffer
	err := Print(&buf, FormatTable, []row{
		{Name: "wine", Stage: "Production"},
		{Name: "iris", Stage: "Staging"},
	}, rowColumns, 230)
	require.NoError(t, err)

	rendered := buf.String()
	assert.Contains(t, rendered, "NAME")
	assert.Contains(t, rendered, "STAGE")
	assert.Contains(t, rendered, "wine")
	assert.Contains(t, rendered, "iris")
}

func TestPrintTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	err := Print(&buf, FormatTable, nil, rowColumns, 230)
	require.NoError(t, err)
	assert.Empty(t, buf.String())
}

func TestRegisteredModelColumns(t *testing.T) {
	model := mlflow.RegisteredModel{
		Name:                 "wine-quality",
		CreationTimestamp:    1628166026000,
		LastUpdatedTimestamp: 1628166026000,
		Tags:                 []mlflow.Tag{{Key: "team", Value: "ml"}},
		LatestVersions: []mlflow.ModelVersion{
			{Version: "3", CurrentStage: "Production"},
			{Version: "4", CurrentStage: "None"},
		},
	}

	values := map[string]string{}
	for _, column := range RegisteredModelColumns {
		values[column.Name] = column.Value(model)
	}

	assert.Equal(t, "wine-quality", values["Model Name"])
	assert.Equal(t, "team: ml", values["Tags"])
	assert.Equal(t, "2021-08-05T12:20:26", values["Created at"])
	assert.Equal(t, []string{"Production: 3", "Latest: 4"}, strings.Split(values["Latest versions"], "\n"))
}

func TestFormatTimestamp(t *testing.T) {
	assert.Equal(t, "", formatTimestamp(0))
	// Second and millisecond representations of the same instant.
	assert.Equal(t, "2021-08-05T12:20:26", formatTimestamp(1628166026))
	assert.Equal(t, "2021-08-05T12:20:26", formatTimestamp(1628166026000))
}
