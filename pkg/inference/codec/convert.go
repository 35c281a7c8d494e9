package codec

import (
	"encoding/base64"
	"math"
	"strconv"
	"time"

	"github.com/odahu/odahu-mlflow-aws/pkg/inference/schema"
)

// convertCell converts a CSV cell to the logical type the input schema
// declares for the column. Columns absent from the schema keep an inferred
// type (integer, then float, then bool, then string).
func convertCell(column, cell string, input schema.Schema) (any, error) {
	declared, ok := input.Column(column)
	if !ok {
		return inferCell(cell), nil
	}
	switch declared.Type {
	case schema.Boolean:
		value, err := strconv.ParseBool(cell)
		if err != nil {
			return nil, conversionError(column, cell, declared.Type)
		}
		return value, nil
	case schema.Integer, schema.Long:
		value, err := strconv.ParseInt(cell, 10, 64)
		if err != nil {
			return nil, conversionError(column, cell, declared.Type)
		}
		return value, nil
	case schema.Float, schema.Double:
		value, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil, conversionError(column, cell, declared.Type)
		}
		return value, nil
	case schema.String:
		return cell, nil
	case schema.Binary:
		value, err := base64.StdEncoding.DecodeString(cell)
		if err != nil {
			return nil, conversionError(column, cell, declared.Type)
		}
		return value, nil
	case schema.DateTime:
		return parseDateTime(column, cell)
	default:
		return nil, conversionError(column, cell, declared.Type)
	}
}

// convertJSONValue converts an already-unmarshalled JSON value to the logical
// type the input schema declares. Without a declared column the value passes
// through unchanged.
func convertJSONValue(column string, raw any, input schema.Schema) (any, error) {
	declared, ok := input.Column(column)
	if !ok || raw == nil {
		return raw, nil
	}
	switch declared.Type {
	case schema.Boolean:
		value, ok := raw.(bool)
		if !ok {
			return nil, conversionError(column, raw, declared.Type)
		}
		return value, nil
	case schema.Integer, schema.Long:
		number, ok := raw.(float64)
		if !ok || number != math.Trunc(number) {
			return nil, conversionError(column, raw, declared.Type)
		}
		return int64(number), nil
	case schema.Float, schema.Double:
		number, ok := raw.(float64)
		if !ok {
			return nil, conversionError(column, raw, declared.Type)
		}
		return number, nil
	case schema.String:
		value, ok := raw.(string)
		if !ok {
			return nil, conversionError(column, raw, declared.Type)
		}
		return value, nil
	case schema.Binary:
		encoded, ok := raw.(string)
		if !ok {
			return nil, conversionError(column, raw, declared.Type)
		}
		value, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, conversionError(column, raw, declared.Type)
		}
		return value, nil
	case schema.DateTime:
		text, ok := raw.(string)
		if !ok {
			return nil, conversionError(column, raw, declared.Type)
		}
		return parseDateTime(column, text)
	default:
		return nil, conversionError(column, raw, declared.Type)
	}
}

func inferCell(cell string) any {
	if value, err := strconv.ParseInt(cell, 10, 64); err == nil {
		return value
	}
	if value, err := strconv.ParseFloat(cell, 64); err == nil {
		return value
	}
	if value, err := strconv.ParseBool(cell); err == nil {
		return value
	}
	return cell
}

func parseDateTime(column, text string) (any, error) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if value, err := time.Parse(layout, text); err == nil {
			return value, nil
		}
	}
	return nil, conversionError(column, text, schema.DateTime)
}

func conversionError(column string, value any, target schema.DataType) error {
	return invalidInput("failed to convert value %v of column %s to %s", value, column, target)
}
