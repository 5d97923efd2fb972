/*
Copyright © 2025 crmstack authors
SPDX-License-Identifier: Apache-2.0
*/
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Format represents the output format type.
type Format string

const (
	// FormatTable outputs data in aligned table format.
	FormatTable Format = "table"
	// FormatJSON outputs data in JSON format.
	FormatJSON Format = "json"
	// FormatYAML outputs data in YAML format.
	FormatYAML Format = "yaml"
)

// IsUnknown reports whether the format is not one of the supported values.
func (f Format) IsUnknown() bool {
	switch f {
	case FormatTable, FormatJSON, FormatYAML:
		return false
	default:
		return true
	}
}

// SupportedFormats returns all supported output format names.
func SupportedFormats() []string {
	return []string{string(FormatTable), string(FormatJSON), string(FormatYAML)}
}

// Tabler is implemented by summary types that know how to render themselves
// as a human-readable table.
type Tabler interface {
	Table(w io.Writer) error
}

// Writer serializes run summaries in the selected format.
type Writer struct {
	format Format
	output io.Writer
}

// NewWriter creates a Writer. If output is nil, os.Stdout is used. Unknown
// formats fall back to table with a warning.
func NewWriter(format Format, output io.Writer) *Writer {
	if output == nil {
		output = os.Stdout
	}
	if format.IsUnknown() {
		slog.Warn("unknown format, defaulting to table", "format", format)
		format = FormatTable
	}
	return &Writer{format: format, output: output}
}

// Write serializes v. For table format, v must implement Tabler.
func (w *Writer) Write(v any) error {
	switch w.format {
	case FormatJSON:
		enc := json.NewEncoder(w.output)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to serialize to json: %w", err)
		}
		return nil

	case FormatYAML:
		data, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to serialize to yaml: %w", err)
		}
		_, err = w.output.Write(data)
		return err

	default:
		tabler, ok := v.(Tabler)
		if !ok {
			return fmt.Errorf("value of type %T does not support table output", v)
		}
		return tabler.Table(w.output)
	}
}
