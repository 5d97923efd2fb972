/*
Copyright © 2025 crmstack authors
SPDX-License-Identifier: Apache-2.0
*/
package verify

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// NodeInfo is one cluster node in the verification report.
type NodeInfo struct {
	Name  string `json:"name" yaml:"name"`
	Roles string `json:"roles" yaml:"roles"`
	Ready bool   `json:"ready" yaml:"ready"`
}

// PodInfo is one application pod in the verification report.
type PodInfo struct {
	Name  string `json:"name" yaml:"name"`
	Tier  string `json:"tier" yaml:"tier"`
	Phase string `json:"phase" yaml:"phase"`
	Ready bool   `json:"ready" yaml:"ready"`
}

// ServiceInfo is one Service in the verification report.
type ServiceInfo struct {
	Name  string `json:"name" yaml:"name"`
	Type  string `json:"type" yaml:"type"`
	Ports string `json:"ports" yaml:"ports"`
}

// ProbeResult is the outcome of one in-pod connectivity probe.
type ProbeResult struct {
	Name   string `json:"name" yaml:"name"`
	Pod    string `json:"pod,omitempty" yaml:"pod,omitempty"`
	URL    string `json:"url,omitempty" yaml:"url,omitempty"`
	Passed bool   `json:"passed" yaml:"passed"`
	Err    string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Report is the full result of a verification run.
type Report struct {
	Namespace  string        `json:"namespace" yaml:"namespace"`
	Nodes      []NodeInfo    `json:"nodes" yaml:"nodes"`
	Pods       []PodInfo     `json:"pods" yaml:"pods"`
	Services   []ServiceInfo `json:"services" yaml:"services"`
	Policies   []string      `json:"policies" yaml:"policies"`
	Probes     []ProbeResult `json:"probes" yaml:"probes"`
	EntryPoint string        `json:"entryPoint,omitempty" yaml:"entryPoint,omitempty"`
}

// Healthy reports whether every node is ready, every pod is ready, and every
// probe passed.
func (r *Report) Healthy() bool {
	for _, n := range r.Nodes {
		if !n.Ready {
			return false
		}
	}
	for _, p := range r.Pods {
		if !p.Ready {
			return false
		}
	}
	for _, p := range r.Probes {
		if !p.Passed {
			return false
		}
	}
	return true
}

// Table renders the report for terminal output.
func (r *Report) Table(out io.Writer) error {
	tw := tabwriter.NewWriter(out, 0, 8, 2, ' ', 0)

	fmt.Fprintf(tw, "NAMESPACE\t%s\n", r.Namespace)
	if r.EntryPoint != "" {
		fmt.Fprintf(tw, "ENTRY POINT\thttp://%s\n", r.EntryPoint)
	} else {
		fmt.Fprintf(tw, "ENTRY POINT\t(pending) %s\n", PortForwardHint(r.Namespace))
	}
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "NODE\tROLES\tREADY")
	for _, n := range r.Nodes {
		fmt.Fprintf(tw, "%s\t%s\t%t\n", n.Name, n.Roles, n.Ready)
	}
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "POD\tTIER\tPHASE\tREADY")
	for _, p := range r.Pods {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\n", p.Name, p.Tier, p.Phase, p.Ready)
	}
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "SERVICE\tTYPE\tPORTS")
	for _, s := range r.Services {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Name, s.Type, s.Ports)
	}
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "POLICY")
	for _, name := range r.Policies {
		fmt.Fprintf(tw, "%s\n", name)
	}
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "PROBE\tPASSED\tDETAIL")
	for _, p := range r.Probes {
		detail := p.URL
		if p.Err != "" {
			detail = p.Err
		}
		fmt.Fprintf(tw, "%s\t%t\t%s\n", p.Name, p.Passed, detail)
	}

	return tw.Flush()
}
