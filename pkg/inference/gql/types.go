package gql

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"

	"github.com/odahu/odahu-mlflow-aws/pkg/inference/schema"
)

// binaryString is a placeholder scalar for binary columns. Serialization of
// binary values over GraphQL is not supported yet; the scalar rejects every
// value it sees.
var binaryString = graphql.NewScalar(graphql.ScalarConfig{
	Name:        "BinaryString",
	Description: "Binary column placeholder, not supported yet",
	Serialize: func(any) any {
		return nil
	},
	ParseValue: func(any) any {
		return nil
	},
	ParseLiteral: func(ast.Value) any {
		return nil
	},
})

// scalarMapping maps logical schema types onto GraphQL scalars.
var scalarMapping = map[schema.DataType]graphql.Output{
	schema.Boolean:  graphql.Boolean,
	schema.Integer:  graphql.Int,
	schema.Long:     graphql.Int,
	schema.Float:    graphql.Float,
	schema.Double:   graphql.Float,
	schema.String:   graphql.String,
	schema.Binary:   binaryString,
	schema.DateTime: graphql.DateTime,
}

var separators = regexp.MustCompile(`[_\- ]+`)

// camel converts a column name to a camelCase field name. Names without
// separators pass through unchanged.
func camel(name string) string {
	if !strings.ContainsAny(name, "_- ") {
		return name
	}
	var parts []string
	for _, word := range separators.Split(name, -1) {
		if word == "" {
			continue
		}
		parts = append(parts, strings.ToUpper(word[:1])+strings.ToLower(word[1:]))
	}
	if len(parts) == 0 {
		return ""
	}
	joined := strings.Join(parts, "")
	return strings.ToLower(joined[:1]) + joined[1:]
}

func buildFields(s schema.Schema) ([]field, error) {
	fields := make([]field, 0, len(s))
	for _, column := range s {
		scalar, ok := scalarMapping[column.Type]
		if !ok {
			return nil, fmt.Errorf("unsupported schema type: %s", column.Type)
		}
		fields = append(fields, field{
			camel:    camel(column.Name),
			original: column.Name,
			scalar:   scalar,
		})
	}
	return fields, nil
}
