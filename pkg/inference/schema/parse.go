package schema

import (
	"encoding/json"
	"fmt"
)

var validTypes = map[DataType]bool{
	Boolean:  true,
	Integer:  true,
	Long:     true,
	Float:    true,
	Double:   true,
	String:   true,
	Binary:   true,
	DateTime: true,
}

type columnDocument struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// ParseJSON loads a schema from its MLflow signature JSON form: a list of
// {"name": ..., "type": ...} objects.
func ParseJSON(data []byte) (Schema, error) {
	var columns []columnDocument
	if err := json.Unmarshal(data, &columns); err != nil {
		return nil, fmt.Errorf("failed to parse schema document: %w", err)
	}

	parsed := make(Schema, 0, len(columns))
	for _, column := range columns {
		dataType := DataType(column.Type)
		if !validTypes[dataType] {
			return nil, fmt.Errorf("unknown schema type %q for column %q", column.Type, column.Name)
		}
		parsed = append(parsed, Column{Name: column.Name, Type: dataType})
	}
	return parsed, nil
}
