package inference

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/odahu/odahu-mlflow-aws/pkg/inference/codec"
	"github.com/odahu/odahu-mlflow-aws/pkg/inference/dispatch"
	"github.com/odahu/odahu-mlflow-aws/pkg/inference/table"
)

// TestHandler exercises the full request-handling chain against a model
// loaded in-process, bypassing any transport. It is the local-testing
// counterpart of the HTTP and Lambda surfaces.
type TestHandler struct {
	handler *Handler
}

// NewTestHandler wires the config to an in-process dispatcher over the model.
func NewTestHandler(cfg Config, model dispatch.Model) (*TestHandler, error) {
	cfg.Dispatcher = dispatch.NewInProcess(model)
	handler, err := NewHandler(cfg)
	if err != nil {
		return nil, err
	}
	return &TestHandler{handler: handler}, nil
}

// Handler exposes the wrapped handler for direct pipeline calls.
func (t *TestHandler) Handler() *Handler {
	return t.handler
}

// Query submits a single record as CSV and returns the decoded response
// object. Column order follows the input schema when one is declared.
func (t *TestHandler) Query(ctx context.Context, record map[string]any) (map[string]any, error) {
	columns := t.handler.cfg.InputSchema.Names()
	if len(columns) == 0 {
		for name := range record {
			columns = append(columns, name)
		}
		sort.Strings(columns)
	}

	var builder strings.Builder
	writer := csv.NewWriter(&builder)
	row := make([]string, len(columns))
	for i, name := range columns {
		row[i] = fmt.Sprint(record[name])
	}
	if err := writer.Write(columns); err != nil {
		return nil, err
	}
	if err := writer.Write(row); err != nil {
		return nil, err
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}

	return t.roundTrip(ctx, builder.String(), codec.ContentTypeCSV)
}

// QueryTable submits tabular input as records-oriented JSON and returns the
// decoded response object.
func (t *TestHandler) QueryTable(ctx context.Context, input *table.Table) (map[string]any, error) {
	body, err := codec.PredictionsToJSON(input)
	if err != nil {
		return nil, err
	}
	return t.roundTrip(ctx, body, codec.ContentTypeJSON)
}

// QueryGraphQL executes a query document against the handler's invocation
// schema and returns the structured result data.
func (t *TestHandler) QueryGraphQL(ctx context.Context, query string) (map[string]any, error) {
	response, err := t.handler.HandleRequest(ctx, NewEnvelope(query, codec.ContentTypeGraphQL))
	if err != nil {
		return nil, err
	}
	return parseResponse(response)
}

func (t *TestHandler) roundTrip(ctx context.Context, body, contentType string) (map[string]any, error) {
	response, err := t.handler.HandleRequest(ctx, NewEnvelope(body, contentType))
	if err != nil {
		return nil, err
	}
	return parseResponse(response)
}

func parseResponse(response *Envelope) (map[string]any, error) {
	content, err := response.ContentText()
	if err != nil {
		return nil, err
	}
	var parsed map[string]any
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse handler response as JSON: %w", err)
	}
	return parsed, nil
}
