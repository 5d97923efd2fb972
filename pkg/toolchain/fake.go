/*
Copyright © 2025 crmstack authors
SPDX-License-Identifier: Apache-2.0
*/
package toolchain

import (
	"context"
	"strings"
	"sync"
)

// Call records a single invocation seen by the FakeRunner.
type Call struct {
	Name string
	Args []string
}

// String renders the call as a single command line, handy for assertions.
func (c Call) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// FakeRunner is a scripted Runner for tests. Results are matched by command
// line prefix; unmatched commands succeed with empty output.
type FakeRunner struct {
	mu      sync.Mutex
	calls   []Call
	scripts map[string]*Result
}

// NewFakeRunner creates an empty FakeRunner.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{scripts: map[string]*Result{}}
}

// Script registers the result returned when a command line starts with the
// given prefix (e.g. "kind get clusters").
func (f *FakeRunner) Script(prefix string, result *Result) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scripts[prefix] = result
}

// Run implements Runner.
func (f *FakeRunner) Run(_ context.Context, name string, args ...string) *Result {
	f.mu.Lock()
	defer f.mu.Unlock()

	call := Call{Name: name, Args: args}
	f.calls = append(f.calls, call)

	line := call.String()
	var best string
	for prefix := range f.scripts {
		if strings.HasPrefix(line, prefix) && len(prefix) > len(best) {
			best = prefix
		}
	}
	if best != "" {
		return f.scripts[best]
	}
	return &Result{}
}

// Calls returns a copy of all recorded invocations in order.
func (f *FakeRunner) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// CommandLines returns every recorded invocation as a rendered command line.
func (f *FakeRunner) CommandLines() []string {
	calls := f.Calls()
	lines := make([]string, len(calls))
	for i, c := range calls {
		lines[i] = c.String()
	}
	return lines
}
