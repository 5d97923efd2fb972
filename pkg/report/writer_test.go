/*
Copyright © 2025 crmstack authors
SPDX-License-Identifier: Apache-2.0
*/
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSummary struct {
	Name  string `json:"name" yaml:"name"`
	Count int    `json:"count" yaml:"count"`
}

func (f fakeSummary) Table(w io.Writer) error {
	_, err := fmt.Fprintf(w, "%s\t%d\n", f.Name, f.Count)
	return err
}

func TestWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(FormatJSON, &buf)

	require.NoError(t, w.Write(fakeSummary{Name: "deploy", Count: 7}))

	var decoded fakeSummary
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "deploy", decoded.Name)
	assert.Equal(t, 7, decoded.Count)
}

func TestWriterYAML(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(FormatYAML, &buf)

	require.NoError(t, w.Write(fakeSummary{Name: "demo", Count: 3}))
	assert.Contains(t, buf.String(), "name: demo")
	assert.Contains(t, buf.String(), "count: 3")
}

func TestWriterTable(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(FormatTable, &buf)

	require.NoError(t, w.Write(fakeSummary{Name: "verify", Count: 2}))
	assert.Contains(t, buf.String(), "verify")
}

func TestWriterTableRequiresTabler(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(FormatTable, &buf)

	err := w.Write(map[string]int{"a": 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not support table output")
}

func TestWriterUnknownFormatFallsBack(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(Format("xml"), &buf)
	assert.Equal(t, FormatTable, w.format)
}

func TestFormatIsUnknown(t *testing.T) {
	assert.False(t, FormatTable.IsUnknown())
	assert.False(t, FormatJSON.IsUnknown())
	assert.False(t, FormatYAML.IsUnknown())
	assert.True(t, Format("csv").IsUnknown())
}

func TestConsoleOutput(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)

	c.Header("Deployment")
	c.Pass("web tier ready")
	c.Fail("database unreachable")
	c.Warn("rollout timed out, continuing")
	c.Info("entry point: %s", "172.18.0.10")
	c.Detail("line one\nline two")

	out := buf.String()
	assert.Contains(t, out, "=== Deployment ===")
	assert.Contains(t, out, "✓ web tier ready")
	assert.Contains(t, out, "✗ database unreachable")
	assert.Contains(t, out, "! rollout timed out, continuing")
	assert.Contains(t, out, "entry point: 172.18.0.10")
	assert.Contains(t, out, "line one")
}
