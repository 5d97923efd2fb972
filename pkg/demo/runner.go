/*
Copyright © 2025 crmstack authors
SPDX-License-Identifier: Apache-2.0
*/
package demo

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"

	"github.com/demokit/crmstack/pkg/defaults"
	"github.com/demokit/crmstack/pkg/deploy"
	"github.com/demokit/crmstack/pkg/k8s/probe"
	"github.com/demokit/crmstack/pkg/k8s/waiter"
	"github.com/demokit/crmstack/pkg/report"
	"github.com/demokit/crmstack/pkg/verify"
)

const (
	ciliumNamespace = "kube-system"
	ciliumSelector  = "k8s-app=cilium"
	ciliumContainer = "cilium-agent"

	customersPath = "/api/customers"

	// smokeBodyLimit caps the response excerpt echoed to the console and
	// carried in the report.
	smokeBodyLimit = 512
)

var tierPorts = map[string]int{
	"web":      80,
	"api":      3000,
	"database": 5432,
}

var tierServices = map[string]string{
	"web":      verify.WebService,
	"api":      verify.APIService,
	"database": "crm-database",
}

var tierSelectors = map[string]string{
	"web":      deploy.SelectorWeb,
	"api":      deploy.SelectorAPI,
	"database": deploy.SelectorDatabase,
}

// tierWaiter is the waiter.Waiter surface the readiness gate needs.
type tierWaiter interface {
	PodsReady(ctx context.Context, namespace, selector string, minReady int, timeout time.Duration) waiter.Result
}

// dialFunc matches net.Dialer.DialContext, injectable for tests.
type dialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// Options configures a demo run.
type Options struct {
	Namespace   string
	TierTimeout time.Duration
	SettleDelay time.Duration
}

func (o Options) withDefaults() Options {
	if o.TierTimeout == 0 {
		o.TierTimeout = defaults.TierRolloutTimeout
	}
	if o.SettleDelay == 0 {
		o.SettleDelay = defaults.PolicySettleDelay
	}
	return o
}

// Runner drives the policy demonstration: it gates on tier readiness, runs
// the connectivity matrix, collects policy observability, and exercises the
// app through its entry point. Mismatches are findings in the report, never
// early exits.
type Runner struct {
	clientset  kubernetes.Interface
	dynamic    dynamic.Interface
	prober     probe.Prober
	waiter     tierWaiter
	console    *report.Console
	httpClient *http.Client
	dial       dialFunc
	opts       Options
}

// NewRunner wires a Runner from its collaborators.
func NewRunner(clientset kubernetes.Interface, dyn dynamic.Interface, prober probe.Prober, tierWaiter tierWaiter, console *report.Console, opts Options) *Runner {
	dialer := &net.Dialer{Timeout: defaults.ProbeRequestTimeout}
	return &Runner{
		clientset:  clientset,
		dynamic:    dyn,
		prober:     prober,
		waiter:     tierWaiter,
		console:    console,
		httpClient: &http.Client{Timeout: defaults.ProbeTimeout},
		dial:       dialer.DialContext,
		opts:       opts.withDefaults(),
	}
}

// Run executes the full demonstration and returns its report. Only gate
// failures and cluster access errors are returned as err; check mismatches
// are recorded in the report.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	rep := &Report{Namespace: r.opts.Namespace}

	if err := r.gate(ctx, rep); err != nil {
		return rep, err
	}

	if addr, ok := verify.EntryPoint(ctx, r.clientset, r.opts.Namespace); ok {
		rep.EntryPoint = addr
	}

	r.runChecks(ctx, rep)
	r.observability(ctx, rep)
	r.smokeTest(ctx, rep)

	if n := rep.Mismatches(); n > 0 {
		r.console.Fail("%d connectivity checks did not match the policy expectations", n)
	} else {
		r.console.Pass("all connectivity checks matched the policy expectations")
	}
	return rep, nil
}

// gate waits for all three tiers in parallel, then lets the freshly applied
// policies settle before probing.
func (r *Runner) gate(ctx context.Context, rep *Report) error {
	r.console.Header("Readiness gate")

	tiers := []string{"database", "api", "web"}
	results := make([]waiter.Result, len(tiers))

	g, gctx := errgroup.WithContext(ctx)
	for i, tier := range tiers {
		i, tier := i, tier
		g.Go(func() error {
			result := r.waiter.PodsReady(gctx, r.opts.Namespace, tierSelectors[tier], 1, r.opts.TierTimeout)
			results[i] = result
			if result.Outcome == waiter.OutcomeFailed {
				return result.Err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("readiness gate failed: %w", err)
	}

	for i, tier := range tiers {
		rep.Gate = append(rep.Gate, GateResult{
			Tier:    tier,
			Ready:   results[i].Succeeded(),
			Detail:  results[i].Detail,
			Elapsed: results[i].Elapsed,
		})
		if results[i].Succeeded() {
			r.console.Pass("%s tier ready", tier)
		} else {
			r.console.Warn("%s tier not ready, probing anyway: %s", tier, results[i].Detail)
		}
	}

	select {
	case <-time.After(r.opts.SettleDelay):
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

func (r *Runner) runChecks(ctx context.Context, rep *Report) {
	r.console.Header("Connectivity checks")

	for _, check := range DefaultChecks() {
		result := r.runCheck(ctx, rep.EntryPoint, check)
		rep.Checks = append(rep.Checks, result)

		switch result.Outcome {
		case OutcomePass:
			r.console.Pass("%s: %s as expected (%s)", check.Name, check.Expect, result.Detail)
		case OutcomeSkipped:
			r.console.Warn("%s: skipped, %s", check.Name, result.Detail)
		default:
			if check.Expect == ExpectBlocked {
				r.console.Fail("%s: path is OPEN but should be blocked, policy is not enforcing", check.Name)
			} else {
				r.console.Fail("%s: path is blocked but should be allowed (%s)", check.Name, result.Detail)
			}
		}
	}
}

func (r *Runner) runCheck(ctx context.Context, entryPoint string, check Check) CheckResult {
	result := CheckResult{Check: check}

	var reachable bool
	var detail string

	if check.From == "external" {
		if entryPoint == "" {
			result.Outcome = OutcomeSkipped
			result.Detail = "no external entry point; " + verify.PortForwardHint(r.opts.Namespace)
			return result
		}
		reachable, detail = r.externalProbe(ctx, entryPoint, check.To)
	} else {
		reachable, detail = r.podProbe(ctx, check.From, check.To)
	}

	result.Reachable = reachable
	result.Detail = detail
	result.Outcome = classify(check.Expect, reachable)
	return result
}

// externalProbe reaches for a tier from outside the cluster. The web tier
// gets a real HTTP request; the backing tiers only need a TCP reachability
// answer.
func (r *Runner) externalProbe(ctx context.Context, entryPoint, to string) (bool, string) {
	addr := net.JoinHostPort(entryPoint, fmt.Sprintf("%d", tierPorts[to]))

	if to == "web" {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+addr, nil)
		if err != nil {
			return false, err.Error()
		}
		resp, err := r.httpClient.Do(req)
		if err != nil {
			return false, err.Error()
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode < 500, fmt.Sprintf("GET http://%s -> %d", addr, resp.StatusCode)
	}

	dialCtx, cancel := context.WithTimeout(ctx, defaults.ProbeRequestTimeout)
	defer cancel()
	conn, err := r.dial(dialCtx, "tcp", addr)
	if err != nil {
		return false, fmt.Sprintf("dial %s: %v", addr, err)
	}
	conn.Close()
	return true, "tcp connect to " + addr
}

// podProbe executes the probe command inside a pod of the source tier.
func (r *Runner) podProbe(ctx context.Context, from, to string) (bool, string) {
	pod, err := probe.FindRunningPod(ctx, r.clientset, r.opts.Namespace, tierSelectors[from])
	if err != nil {
		return false, err.Error()
	}

	host := fmt.Sprintf("%s.%s.svc.cluster.local", tierServices[to], r.opts.Namespace)
	timeout := int(defaults.ProbeRequestTimeout.Seconds())

	var command []string
	if to == "api" {
		command = probe.HTTPCommand(fmt.Sprintf("http://%s:%d/health", host, tierPorts[to]), timeout)
	} else {
		command = probe.TCPCommand(host, tierPorts[to], timeout)
	}

	result := r.prober.Exec(ctx, r.opts.Namespace, pod, "", command)
	if result.Err != nil {
		return false, fmt.Sprintf("exec in %s: %v", pod, result.Err)
	}
	if result.ExitCode != 0 {
		return false, fmt.Sprintf("probe from %s exited %d", pod, result.ExitCode)
	}
	return true, fmt.Sprintf("probe from %s succeeded", pod)
}

// observability captures the Cilium view of the demo: per-endpoint policy
// enforcement state and the applied policies.
func (r *Runner) observability(ctx context.Context, rep *Report) {
	r.console.Header("Policy observability")

	pod, err := probe.FindRunningPod(ctx, r.clientset, ciliumNamespace, ciliumSelector)
	if err != nil {
		r.console.Warn("no cilium agent pod found: %v", err)
	} else {
		result := r.prober.Exec(ctx, ciliumNamespace, pod, ciliumContainer,
			[]string{"cilium", "endpoint", "list"})
		if result.Ok() {
			rep.Endpoints = result.Stdout
			r.console.Info("endpoint state from %s:", pod)
			r.console.Detail(result.Stdout)
		} else {
			r.console.Warn("cilium endpoint list failed in %s (exit %d)", pod, result.ExitCode)
		}
	}

	policies, err := r.dynamic.Resource(verify.PolicyGVR).Namespace(r.opts.Namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		r.console.Warn("failed to list network policies: %v", err)
		return
	}
	for _, policy := range policies.Items {
		rep.Policies = append(rep.Policies, policy.GetName())
		r.console.Info("policy %s", policy.GetName())
	}
}

// smokeTest exercises the CRM API through the entry point: list customers,
// then create one.
func (r *Runner) smokeTest(ctx context.Context, rep *Report) {
	r.console.Header("Application smoke test")

	if rep.EntryPoint == "" {
		hint := verify.PortForwardHint(r.opts.Namespace)
		r.console.Warn("no entry point; run the smoke test manually after: %s", hint)
		rep.Smoke = append(rep.Smoke, SmokeResult{
			Method: http.MethodGet, Path: customersPath, Skipped: true, Detail: hint,
		})
		return
	}

	base := "http://" + net.JoinHostPort(rep.EntryPoint, fmt.Sprintf("%d", tierPorts["web"]))

	rep.Smoke = append(rep.Smoke, r.smokeRequest(ctx, http.MethodGet, base+customersPath, nil))

	body := []byte(`{"name":"Demo Customer","email":"demo@example.com","company":"Demo Corp"}`)
	rep.Smoke = append(rep.Smoke, r.smokeRequest(ctx, http.MethodPost, base+customersPath, body))
}

func (r *Runner) smokeRequest(ctx context.Context, method, url string, body []byte) SmokeResult {
	result := SmokeResult{Method: method, Path: customersPath}

	reqCtx, cancel := context.WithTimeout(ctx, defaults.SmokeTestTimeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(reqCtx, method, url, reader)
	if err != nil {
		result.Detail = err.Error()
		r.console.Fail("%s %s: %v", method, customersPath, err)
		return result
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		result.Detail = err.Error()
		r.console.Fail("%s %s: %v", method, customersPath, err)
		return result
	}
	defer resp.Body.Close()
	excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, smokeBodyLimit))
	_, _ = io.Copy(io.Discard, resp.Body)

	result.Status = resp.StatusCode
	result.Detail = strings.TrimSpace(string(excerpt))
	result.Passed = resp.StatusCode >= 200 && resp.StatusCode < 300
	if result.Passed {
		r.console.Pass("%s %s -> %d", method, customersPath, resp.StatusCode)
	} else {
		r.console.Fail("%s %s -> %d", method, customersPath, resp.StatusCode)
	}
	if result.Detail != "" {
		r.console.Detail(result.Detail)
	}
	return result
}
