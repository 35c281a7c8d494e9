package codec

import (
	"encoding/json"
	"fmt"

	"github.com/odahu/odahu-mlflow-aws/pkg/inference/schema"
	"github.com/odahu/odahu-mlflow-aws/pkg/inference/table"
)

// PredictionsToJSON serializes prediction-shaped data to the fixed JSON
// convention used when sending a payload to a remote model: tables become
// records-oriented JSON, everything else is marshalled as-is.
func PredictionsToJSON(payload any) (string, error) {
	var jsonable any
	switch value := payload.(type) {
	case *table.Table:
		jsonable = value.Records()
	default:
		jsonable = value
	}
	encoded, err := json.Marshal(jsonable)
	if err != nil {
		return "", fmt.Errorf("failed to encode predictions to JSON: %w", err)
	}
	return string(encoded), nil
}

// ToSingleObject normalizes a raw prediction result to the single-record
// response convention: exactly one logical record, keyed by output column
// name. Multi-record results are rejected.
func ToSingleObject(result any, output schema.Schema) (map[string]any, error) {
	switch value := result.(type) {
	case *table.Table:
		return tableToSingleObject(value)
	case map[string]any:
		return value, nil
	case []float64:
		values := make([]any, len(value))
		for i, v := range value {
			values[i] = v
		}
		return vectorToSingleObject(values, output)
	case []any:
		if records, ok := asRecords(value); ok {
			if len(records) > 1 {
				return nil, fmt.Errorf("more than one record found in results")
			}
			return records[0], nil
		}
		return vectorToSingleObject(value, output)
	default:
		return nil, fmt.Errorf("unsupported response")
	}
}

// EncodeSingleObjectJSON renders the normalized single-record response as a
// JSON string.
func EncodeSingleObjectJSON(result any, output schema.Schema) (string, error) {
	object, err := ToSingleObject(result, output)
	if err != nil {
		return "", err
	}
	encoded, err := json.Marshal(object)
	if err != nil {
		return "", fmt.Errorf("failed to encode response to JSON: %w", err)
	}
	return string(encoded), nil
}

func tableToSingleObject(t *table.Table) (map[string]any, error) {
	switch {
	case t.NumRows() == 0:
		return nil, fmt.Errorf("records are not found in results")
	case t.NumRows() > 1:
		return nil, fmt.Errorf("more than one record found in results")
	}
	return t.Record(0), nil
}

func vectorToSingleObject(values []any, output schema.Schema) (map[string]any, error) {
	if len(values) != len(output) {
		return nil, fmt.Errorf(
			"response contains %d field(s), but schema declares %d value(s)",
			len(values), len(output),
		)
	}
	object := make(map[string]any, len(values))
	for i, column := range output {
		object[column.Name] = values[i]
	}
	return object, nil
}

func asRecords(values []any) ([]map[string]any, bool) {
	if len(values) == 0 {
		return nil, false
	}
	records := make([]map[string]any, len(values))
	for i, v := range values {
		record, ok := v.(map[string]any)
		if !ok {
			return nil, false
		}
		records[i] = record
	}
	return records, true
}
