/*
Copyright © 2025 crmstack authors
SPDX-License-Identifier: Apache-2.0
*/
package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Console writes colored human-readable progress lines. All structured data
// goes through Writer; Console is only for the interleaved narrative.
type Console struct {
	out io.Writer

	header  *color.Color
	pass    *color.Color
	fail    *color.Color
	warn    *color.Color
	neutral *color.Color
}

// NewConsole creates a Console writing to out. If out is nil, os.Stdout is
// used.
func NewConsole(out io.Writer) *Console {
	if out == nil {
		out = os.Stdout
	}
	return &Console{
		out:     out,
		header:  color.New(color.FgCyan, color.Bold),
		pass:    color.New(color.FgGreen),
		fail:    color.New(color.FgRed),
		warn:    color.New(color.FgYellow),
		neutral: color.New(color.Faint),
	}
}

// Header prints a prominent section banner.
func (c *Console) Header(title string) {
	c.header.Fprintf(c.out, "\n=== %s ===\n", title)
}

// Section prints a sub-section marker.
func (c *Console) Section(title string) {
	c.header.Fprintf(c.out, "\n--- %s ---\n", title)
}

// Pass prints a green check line.
func (c *Console) Pass(format string, args ...any) {
	c.pass.Fprintf(c.out, "  ✓ "+format+"\n", args...)
}

// Fail prints a red cross line.
func (c *Console) Fail(format string, args ...any) {
	c.fail.Fprintf(c.out, "  ✗ "+format+"\n", args...)
}

// Warn prints a yellow warning line.
func (c *Console) Warn(format string, args ...any) {
	c.warn.Fprintf(c.out, "  ! "+format+"\n", args...)
}

// Info prints a plain informational line.
func (c *Console) Info(format string, args ...any) {
	fmt.Fprintf(c.out, "  "+format+"\n", args...)
}

// Detail prints a faint line for command output excerpts.
func (c *Console) Detail(text string) {
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		c.neutral.Fprintf(c.out, "    %s\n", line)
	}
}
