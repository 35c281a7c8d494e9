// Package schema declares the logical column schema a model handler is
// configured with. It mirrors the MLflow signature model: an ordered list of
// named, typed columns.
package schema

import (
	"fmt"
	"strings"
)

// DataType is the logical type of a schema column.
type DataType string

const (
	Boolean  DataType = "boolean"
	Integer  DataType = "integer"
	Long     DataType = "long"
	Float    DataType = "float"
	Double   DataType = "double"
	String   DataType = "string"
	Binary   DataType = "binary"
	DateTime DataType = "datetime"
)

// Column is a single named, typed column of a schema.
type Column struct {
	Name string
	Type DataType
}

// Schema is an ordered sequence of columns. A schema is "named" when every
// column carries a non-empty name; positional schemas are allowed for flat
// codecs but rejected by the query adapter.
type Schema []Column

// HasNames reports whether all columns are named.
func (s Schema) HasNames() bool {
	if len(s) == 0 {
		return false
	}
	for _, c := range s {
		if c.Name == "" {
			return false
		}
	}
	return true
}

// Names returns the column names in declaration order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, c := range s {
		names[i] = c.Name
	}
	return names
}

// Column returns the column with the given name.
func (s Schema) Column(name string) (Column, bool) {
	for _, c := range s {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// String renders a stable textual description of the schema, e.g.
// [a: double, b: double]. Used by the query adapter's introspection field.
func (s Schema) String() string {
	parts := make([]string, len(s))
	for i, c := range s {
		if c.Name != "" {
			parts[i] = fmt.Sprintf("%s: %s", c.Name, c.Type)
		} else {
			parts[i] = string(c.Type)
		}
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
