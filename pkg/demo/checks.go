/*
Copyright © 2025 crmstack authors
SPDX-License-Identifier: Apache-2.0
*/
package demo

// Expect states whether a network path should be open or closed under the
// tier isolation policies.
type Expect string

const (
	// ExpectAllowed marks a path the policies must permit.
	ExpectAllowed Expect = "allowed"
	// ExpectBlocked marks a path the policies must deny.
	ExpectBlocked Expect = "blocked"
)

// Check is one connectivity assertion between two points of the stack.
// From and To name tiers, or "external" for traffic originating outside
// the cluster.
type Check struct {
	Name   string `json:"name" yaml:"name"`
	From   string `json:"from" yaml:"from"`
	To     string `json:"to" yaml:"to"`
	Expect Expect `json:"expect" yaml:"expect"`
}

// CheckOutcome classifies an executed check.
type CheckOutcome string

const (
	// OutcomePass means the observed reachability matched the expectation.
	OutcomePass CheckOutcome = "pass"
	// OutcomeMismatch means it did not. A reachable blocked path is the
	// serious case: the policy is not enforcing.
	OutcomeMismatch CheckOutcome = "mismatch"
	// OutcomeSkipped means the check could not run, e.g. no external entry
	// point exists for an external-origin check.
	OutcomeSkipped CheckOutcome = "skipped"
)

// CheckResult is the recorded outcome of one Check.
type CheckResult struct {
	Check     `yaml:",inline"`
	Reachable bool         `json:"reachable" yaml:"reachable"`
	Outcome   CheckOutcome `json:"outcome" yaml:"outcome"`
	Detail    string       `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// classify compares observation against expectation.
func classify(expect Expect, reachable bool) CheckOutcome {
	if (expect == ExpectAllowed) == reachable {
		return OutcomePass
	}
	return OutcomeMismatch
}

// DefaultChecks is the demo's connectivity matrix: each tier may talk only
// to the tier directly below it, and only the web tier is exposed.
func DefaultChecks() []Check {
	return []Check{
		{Name: "external-to-web", From: "external", To: "web", Expect: ExpectAllowed},
		{Name: "web-to-api", From: "web", To: "api", Expect: ExpectAllowed},
		{Name: "api-to-database", From: "api", To: "database", Expect: ExpectAllowed},
		{Name: "external-to-api", From: "external", To: "api", Expect: ExpectBlocked},
		{Name: "external-to-database", From: "external", To: "database", Expect: ExpectBlocked},
		{Name: "web-to-database", From: "web", To: "database", Expect: ExpectBlocked},
	}
}
