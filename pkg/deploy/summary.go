/*
Copyright © 2025 crmstack authors
SPDX-License-Identifier: Apache-2.0
*/
package deploy

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/demokit/crmstack/pkg/k8s/waiter"
)

// StepOutcome classifies how a pipeline step ended. It extends the waiter
// outcomes with "skipped" for steps that did not need to run.
type StepOutcome string

const (
	// StepSucceeded means the step completed.
	StepSucceeded StepOutcome = "succeeded"
	// StepTimedOut means a readiness wait gave up; the pipeline continued.
	StepTimedOut StepOutcome = "timed-out"
	// StepFailed means the step errored.
	StepFailed StepOutcome = "failed"
	// StepSkipped means the step was not needed (e.g. reused cluster).
	StepSkipped StepOutcome = "skipped"
)

// fromWaitOutcome maps a waiter outcome onto a step outcome.
func fromWaitOutcome(o waiter.Outcome) StepOutcome {
	switch o {
	case waiter.OutcomeSucceeded:
		return StepSucceeded
	case waiter.OutcomeTimedOut:
		return StepTimedOut
	default:
		return StepFailed
	}
}

// StepResult is one recorded pipeline step.
type StepResult struct {
	Name    string        `json:"name" yaml:"name"`
	Outcome StepOutcome   `json:"outcome" yaml:"outcome"`
	Detail  string        `json:"detail,omitempty" yaml:"detail,omitempty"`
	Elapsed time.Duration `json:"elapsed" yaml:"elapsed"`
}

// Summary is the structured record of a deployment run. It replaces the
// original script's habit of burying wait timeouts in scrollback.
type Summary struct {
	RunID     string       `json:"runId" yaml:"runId"`
	Cluster   string       `json:"cluster" yaml:"cluster"`
	Namespace string       `json:"namespace" yaml:"namespace"`
	Started   time.Time    `json:"started" yaml:"started"`
	Elapsed   time.Duration `json:"elapsed" yaml:"elapsed"`
	Steps     []StepResult `json:"steps" yaml:"steps"`
}

// record appends a step result.
func (s *Summary) record(name string, outcome StepOutcome, detail string, elapsed time.Duration) {
	s.Steps = append(s.Steps, StepResult{
		Name:    name,
		Outcome: outcome,
		Detail:  detail,
		Elapsed: elapsed,
	})
}

// TimedOut returns the names of steps whose readiness wait gave up.
func (s *Summary) TimedOut() []string {
	var names []string
	for _, step := range s.Steps {
		if step.Outcome == StepTimedOut {
			names = append(names, step.Name)
		}
	}
	return names
}

// Table implements report.Tabler.
func (s *Summary) Table(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "RUN\t%s\n", s.RunID)
	fmt.Fprintf(tw, "CLUSTER\t%s\n", s.Cluster)
	fmt.Fprintf(tw, "NAMESPACE\t%s\n", s.Namespace)
	fmt.Fprintf(tw, "ELAPSED\t%s\n", s.Elapsed.Round(time.Millisecond))
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "STEP\tOUTCOME\tELAPSED\tDETAIL")
	for _, step := range s.Steps {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			step.Name, step.Outcome, step.Elapsed.Round(time.Millisecond), step.Detail)
	}

	return tw.Flush()
}
