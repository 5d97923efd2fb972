/*
Copyright © 2025 crmstack authors
SPDX-License-Identifier: Apache-2.0
*/
package demo

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"
)

// GateResult is the readiness outcome for one tier.
type GateResult struct {
	Tier    string        `json:"tier" yaml:"tier"`
	Ready   bool          `json:"ready" yaml:"ready"`
	Detail  string        `json:"detail,omitempty" yaml:"detail,omitempty"`
	Elapsed time.Duration `json:"elapsed" yaml:"elapsed"`
}

// SmokeResult is one request of the application smoke test.
type SmokeResult struct {
	Method  string `json:"method" yaml:"method"`
	Path    string `json:"path" yaml:"path"`
	Status  int    `json:"status,omitempty" yaml:"status,omitempty"`
	Passed  bool   `json:"passed" yaml:"passed"`
	Skipped bool   `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Detail  string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// Report is the full result of a demo run.
type Report struct {
	Namespace  string        `json:"namespace" yaml:"namespace"`
	EntryPoint string        `json:"entryPoint,omitempty" yaml:"entryPoint,omitempty"`
	Gate       []GateResult  `json:"gate" yaml:"gate"`
	Checks     []CheckResult `json:"checks" yaml:"checks"`
	Policies   []string      `json:"policies" yaml:"policies"`
	Endpoints  string        `json:"endpoints,omitempty" yaml:"endpoints,omitempty"`
	Smoke      []SmokeResult `json:"smoke" yaml:"smoke"`
}

// Mismatches counts checks whose observed reachability contradicted the
// policy expectation.
func (r *Report) Mismatches() int {
	n := 0
	for _, c := range r.Checks {
		if c.Outcome == OutcomeMismatch {
			n++
		}
	}
	return n
}

// Table renders the report for terminal output.
func (r *Report) Table(out io.Writer) error {
	tw := tabwriter.NewWriter(out, 0, 8, 2, ' ', 0)

	fmt.Fprintf(tw, "NAMESPACE\t%s\n", r.Namespace)
	if r.EntryPoint != "" {
		fmt.Fprintf(tw, "ENTRY POINT\thttp://%s\n", r.EntryPoint)
	}
	fmt.Fprintf(tw, "MISMATCHES\t%d\n", r.Mismatches())
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "TIER\tREADY\tELAPSED")
	for _, g := range r.Gate {
		fmt.Fprintf(tw, "%s\t%t\t%s\n", g.Tier, g.Ready, g.Elapsed.Round(time.Millisecond))
	}
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "CHECK\tEXPECT\tREACHABLE\tOUTCOME")
	for _, c := range r.Checks {
		fmt.Fprintf(tw, "%s\t%s\t%t\t%s\n", c.Name, c.Expect, c.Reachable, c.Outcome)
	}
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "POLICY")
	for _, name := range r.Policies {
		fmt.Fprintf(tw, "%s\n", name)
	}
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "SMOKE\tSTATUS\tPASSED")
	for _, s := range r.Smoke {
		status := fmt.Sprintf("%d", s.Status)
		if s.Skipped {
			status = "skipped"
		}
		fmt.Fprintf(tw, "%s %s\t%s\t%t\n", s.Method, s.Path, status, s.Passed)
	}

	return tw.Flush()
}
