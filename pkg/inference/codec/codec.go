// Package codec maps wire bytes to tabular model input and model output back
// to normalized JSON, keyed by the MLflow scoring protocol content types.
package codec

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	ierrors "github.com/odahu/odahu-mlflow-aws/pkg/inference/errors"
	"github.com/odahu/odahu-mlflow-aws/pkg/inference/schema"
	"github.com/odahu/odahu-mlflow-aws/pkg/inference/table"
)

// Content types understood by Decode.
const (
	ContentTypeCSV            = "text/csv"
	ContentTypeJSON           = "application/json"
	ContentTypeJSONSplit      = "application/json; format=pandas-split"
	ContentTypeJSONRecords    = "application/json; format=pandas-records"
	ContentTypeJSONNumpySplit = "application/json-numpy-split"
	ContentTypeGraphQL        = "application/graphql"
)

// Decode parses a request body into the tabular form the model consumes.
// Schema violations surface as *errors.InvalidModelInputError; an unhandled
// content type surfaces as *errors.NotImplementedError.
func Decode(contentType string, body string, input schema.Schema) (any, error) {
	switch contentType {
	case ContentTypeCSV:
		return parseCSV(body, input)
	case ContentTypeJSON:
		return inferAndParseJSON(body, input)
	case ContentTypeJSONSplit:
		return parseSplitJSON(body, input)
	case ContentTypeJSONRecords:
		return parseRecordsJSON(body, input)
	case ContentTypeJSONNumpySplit:
		return parseNumericSplitJSON(body)
	default:
		return nil, &ierrors.NotImplementedError{
			ErrorMsg: fmt.Sprintf("not implemented yet for content type %s", contentType),
		}
	}
}

func parseCSV(body string, input schema.Schema) (*table.Table, error) {
	reader := csv.NewReader(strings.NewReader(body))
	header, err := reader.Read()
	if err != nil {
		return nil, invalidInput("failed to parse input as CSV: %v", err)
	}
	t := table.New(header...)
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, invalidInput("failed to parse input as CSV: %v", err)
		}
		values := make([]any, len(row))
		for i, cell := range row {
			values[i], err = convertCell(header[i], cell, input)
			if err != nil {
				return nil, err
			}
		}
		if err := t.AppendRow(values...); err != nil {
			return nil, invalidInput("%v", err)
		}
	}
	return t, nil
}

// splitDocument is the standard split-table JSON shape.
type splitDocument struct {
	Columns []string          `json:"columns"`
	Index   []json.RawMessage `json:"index"`
	Data    [][]any           `json:"data"`
}

func inferAndParseJSON(body string, input schema.Schema) (*table.Table, error) {
	var parsed any
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		return nil, invalidInput("failed to parse input as JSON: %v", err)
	}
	switch value := parsed.(type) {
	case map[string]any:
		_, hasColumns := value["columns"]
		_, hasData := value["data"]
		if hasColumns && hasData {
			return parseSplitJSON(body, input)
		}
		// A flat object is a single record.
		return recordsToTable([]map[string]any{value}, input)
	case []any:
		return parseRecordsJSON(body, input)
	default:
		return nil, invalidInput("unable to infer JSON orientation of input")
	}
}

func parseSplitJSON(body string, input schema.Schema) (*table.Table, error) {
	var doc splitDocument
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return nil, invalidInput("failed to parse input as split-oriented JSON: %v", err)
	}
	if len(doc.Columns) == 0 {
		return nil, invalidInput("split-oriented JSON input declares no columns")
	}
	records := make([]map[string]any, len(doc.Data))
	for i, row := range doc.Data {
		if len(row) != len(doc.Columns) {
			return nil, invalidInput(
				"split-oriented JSON row has %d value(s), input declares %d column(s)",
				len(row), len(doc.Columns),
			)
		}
		record := make(map[string]any, len(row))
		for idx, name := range doc.Columns {
			record[name] = row[idx]
		}
		records[i] = record
	}
	return recordsToTable(records, input)
}

func parseRecordsJSON(body string, input schema.Schema) (*table.Table, error) {
	var records []map[string]any
	if err := json.Unmarshal([]byte(body), &records); err != nil {
		// A single object is also accepted as one record.
		var record map[string]any
		if errSingle := json.Unmarshal([]byte(body), &record); errSingle != nil {
			return nil, invalidInput("failed to parse input as records-oriented JSON: %v", err)
		}
		records = []map[string]any{record}
	}
	return recordsToTable(records, input)
}

func parseNumericSplitJSON(body string) (*table.Table, error) {
	var doc splitDocument
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return nil, invalidInput("failed to parse input as numeric split-oriented JSON: %v", err)
	}
	t := table.New(doc.Columns...)
	for _, row := range doc.Data {
		values := make([]any, len(row))
		for i, cell := range row {
			number, ok := cell.(float64)
			if !ok {
				return nil, invalidInput("numeric split-oriented JSON contains a non-numeric value %v", cell)
			}
			values[i] = number
		}
		if err := t.AppendRow(values...); err != nil {
			return nil, invalidInput("%v", err)
		}
	}
	return t, nil
}

// recordsToTable enforces the input schema when one is declared: column order
// follows the schema, every schema column must be present and convertible.
// Without a schema the record keys of the first record define the columns.
func recordsToTable(records []map[string]any, input schema.Schema) (*table.Table, error) {
	var columns []string
	if len(input) > 0 {
		columns = input.Names()
	} else {
		if len(records) == 0 {
			return nil, invalidInput("records are not found in input")
		}
		for name := range records[0] {
			columns = append(columns, name)
		}
	}
	t := table.New(columns...)
	for _, record := range records {
		values := make([]any, len(columns))
		for i, name := range columns {
			raw, present := record[name]
			if len(input) > 0 && !present {
				return nil, invalidInput("input is missing a value for column %s", name)
			}
			converted, err := convertJSONValue(name, raw, input)
			if err != nil {
				return nil, err
			}
			values[i] = converted
		}
		if err := t.AppendRow(values...); err != nil {
			return nil, invalidInput("%v", err)
		}
	}
	return t, nil
}

func invalidInput(format string, args ...any) error {
	return &ierrors.InvalidModelInputError{ErrorMsg: fmt.Sprintf(format, args...)}
}
