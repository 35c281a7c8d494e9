// Package output renders command results in the format the user asked for:
// a console table, JSON or YAML.
package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"
)

// Format selects the presentation of command output.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(value string) (Format, error) {
	switch Format(value) {
	case FormatTable, FormatJSON, FormatYAML:
		return Format(value), nil
	}
	return "", fmt.Errorf("%s is an invalid type of output, valid types are: %s, %s, %s",
		value, FormatTable, FormatJSON, FormatYAML)
}

// Column describes one table column: a header and a value extractor.
type Column[T any] struct {
	Name  string
	Value func(row T) string
}

// Print renders the rows in the requested format. JSON and YAML marshal the
// rows themselves; the table format goes through the column extractors.
func Print[T any](w io.Writer, format Format, rows []T, columns []Column[T], maxWidth int) error {
	switch format {
	case FormatJSON:
		if len(rows) == 0 {
			_, err := fmt.Fprintln(w, "[]")
			return err
		}
		encoded, err := json.MarshalIndent(rows, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode output as JSON: %w", err)
		}
		_, err = fmt.Fprintln(w, string(encoded))
		return err

	case FormatYAML:
		encoded, err := yaml.Marshal(rows)
		if err != nil {
			return fmt.Errorf("failed to encode output as YAML: %w", err)
		}
		_, err = fmt.Fprintln(w, string(encoded))
		return err

	case FormatTable:
		if len(rows) == 0 {
			return nil
		}
		table := tablewriter.NewWriter(w)
		headers := make([]string, len(columns))
		for i, column := range columns {
			headers[i] = column.Name
		}
		table.SetHeader(headers)
		table.SetBorder(false)
		table.SetAutoWrapText(true)
		if maxWidth > 0 {
			table.SetColWidth(maxWidth / len(columns))
		}
		for _, row := range rows {
			cells := make([]string, len(columns))
			for i, column := range columns {
				cells[i] = column.Value(row)
			}
			table.Append(cells)
		}
		table.Render()
		return nil
	}
	return fmt.Errorf("unknown output format %q", format)
}
