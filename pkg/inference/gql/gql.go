// Package gql exposes a single-operation GraphQL query interface typed from
// the declared input and output schemas. The builder produces a static field
// table plus a camelCase-to-column name remapping consumed by the resolvers;
// no types are synthesized at query time.
package gql

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/gqlerrors"

	ierrors "github.com/odahu/odahu-mlflow-aws/pkg/inference/errors"
	"github.com/odahu/odahu-mlflow-aws/pkg/inference/schema"
	"github.com/odahu/odahu-mlflow-aws/pkg/inference/table"
)

// PredictFunc runs the handler's predict pipeline over a one-record input
// table and returns the normalized single-record result keyed by the original
// output column names.
type PredictFunc func(ctx context.Context, input *table.Table) (map[string]any, error)

// field binds an externally-visible camelCase field name to the original
// schema column it was derived from.
type field struct {
	camel    string
	original string
	scalar   graphql.Output
}

// Adapter executes GraphQL queries against the built invocation schema.
type Adapter struct {
	schema  graphql.Schema
	inputs  map[string]field
	columns []string
	outputs []field
}

// Build constructs the invocation schema for the given input and output
// schemas. Both schemas must be fully named; unsupported logical types fail.
func Build(input, output schema.Schema, predict PredictFunc) (*Adapter, error) {
	if !input.HasNames() {
		return nil, fmt.Errorf("schema should have column names declared")
	}
	if !output.HasNames() {
		return nil, fmt.Errorf("schema should have column names declared")
	}

	inputFields, err := buildFields(input)
	if err != nil {
		return nil, err
	}
	outputFields, err := buildFields(output)
	if err != nil {
		return nil, err
	}

	adapter := &Adapter{
		inputs:  make(map[string]field, len(inputFields)),
		columns: input.Names(),
		outputs: outputFields,
	}
	for _, f := range inputFields {
		adapter.inputs[f.camel] = f
	}

	predictionFields := graphql.Fields{}
	for _, f := range outputFields {
		predictionFields[f.camel] = &graphql.Field{
			Type:        f.scalar,
			Description: f.original,
		}
	}
	prediction := graphql.NewObject(graphql.ObjectConfig{
		Name:   "Prediction",
		Fields: predictionFields,
	})

	arguments := graphql.FieldConfigArgument{}
	for _, f := range inputFields {
		arguments[f.camel] = &graphql.ArgumentConfig{
			Type:        graphql.NewNonNull(f.scalar),
			Description: f.original,
		}
	}

	schemaDescription := fmt.Sprintf("input: %s, output: %s", input, output)
	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"prediction": &graphql.Field{
				Type: prediction,
				Args: arguments,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return adapter.resolvePrediction(p.Context, predict, p.Args)
				},
			},
			// Self-introspection
			"schema": &graphql.Field{
				Type: graphql.String,
				Resolve: func(graphql.ResolveParams) (any, error) {
					return schemaDescription, nil
				},
			},
		},
	})

	built, err := graphql.NewSchema(graphql.SchemaConfig{Query: query})
	if err != nil {
		return nil, fmt.Errorf("failed to build graphql schema: %w", err)
	}
	adapter.schema = built
	return adapter, nil
}

func (a *Adapter) resolvePrediction(ctx context.Context, predict PredictFunc, args map[string]any) (any, error) {
	record, err := a.RemapArguments(args)
	if err != nil {
		return nil, err
	}
	result, err := predict(ctx, table.FromRecord(a.columns, record))
	if err != nil {
		return nil, err
	}

	response := make(map[string]any, len(a.outputs))
	for _, f := range a.outputs {
		value, ok := result[f.original]
		if !ok {
			return nil, fmt.Errorf("unable to build response object Prediction from %v", result)
		}
		response[f.camel] = value
	}
	return response, nil
}

// RemapArguments maps camelCased query arguments back to the original column
// names recorded at build time.
func (a *Adapter) RemapArguments(args map[string]any) (map[string]any, error) {
	record := make(map[string]any, len(args))
	for name, value := range args {
		input, ok := a.inputs[name]
		if !ok {
			return nil, fmt.Errorf("invalid input, field %q is unknown", name)
		}
		record[input.original] = value
	}
	return record, nil
}

// Execute runs a raw query body against the built schema. A JSON envelope
// holding query and variables keys is unwrapped first; otherwise the body is
// the query itself. An InvalidModelInputError reported by the executor is
// re-raised unwrapped; all other execution errors are joined into one failure.
func (a *Adapter) Execute(ctx context.Context, query string) (map[string]any, error) {
	variables := map[string]any{}
	trimmed := strings.TrimSpace(query)
	if strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}") {
		var envelope struct {
			Query     string         `json:"query"`
			Variables map[string]any `json:"variables"`
		}
		if err := json.Unmarshal([]byte(trimmed), &envelope); err == nil && envelope.Query != "" {
			query = envelope.Query
			variables = envelope.Variables
		}
	}

	result := graphql.Do(graphql.Params{
		Schema:         a.schema,
		RequestString:  query,
		VariableValues: variables,
		Context:        ctx,
	})
	if len(result.Errors) > 0 {
		for _, reported := range result.Errors {
			if invalid, ok := ierrors.AsInvalidInput(originalError(reported)); ok {
				return nil, invalid
			}
		}
		messages := make([]string, len(result.Errors))
		for i, reported := range result.Errors {
			messages[i] = reported.Error()
		}
		return nil, fmt.Errorf("unable to execute graphql query: %s", strings.Join(messages, "; "))
	}

	data, _ := result.Data.(map[string]any)
	return data, nil
}

// originalError walks the graphql error wrappers down to the resolver error.
func originalError(err error) error {
	for err != nil {
		switch typed := err.(type) {
		case gqlerrors.FormattedError:
			err = typed.OriginalError()
		case *gqlerrors.Error:
			err = typed.OriginalError
		default:
			return err
		}
	}
	return nil
}
