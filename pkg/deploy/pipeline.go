/*
Copyright © 2025 crmstack authors
SPDX-License-Identifier: Apache-2.0
*/
package deploy

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/demokit/crmstack/pkg/defaults"
	"github.com/demokit/crmstack/pkg/k8s/waiter"
	"github.com/demokit/crmstack/pkg/prompt"
	"github.com/demokit/crmstack/pkg/report"
)

// clusterProvisioner is the kind.Provisioner surface the pipeline needs.
type clusterProvisioner interface {
	Exists(ctx context.Context) (bool, error)
	Create(ctx context.Context) error
	Delete(ctx context.Context) error
	LoadImage(ctx context.Context, image string) error
}

// cniInstaller is the cilium.Installer surface the pipeline needs.
type cniInstaller interface {
	Install(ctx context.Context) error
	WaitReady(ctx context.Context, timeout time.Duration) waiter.Result
}

// objectApplier is the manifest.Applier surface the pipeline needs.
type objectApplier interface {
	Apply(ctx context.Context, objs []*unstructured.Unstructured) error
}

// tierWaiter is the waiter.Waiter surface the pipeline needs.
type tierWaiter interface {
	PodsReady(ctx context.Context, namespace, selector string, minReady int, timeout time.Duration) waiter.Result
}

// Options configures a deployment run.
type Options struct {
	Cluster   string
	Namespace string

	// AppImage is the locally built API image to load into the cluster.
	// Empty skips the load (the manifests then rely on pullable images).
	AppImage string

	CiliumTimeout time.Duration
	TierTimeout   time.Duration
}

// withDefaults fills unset timeouts.
func (o Options) withDefaults() Options {
	if o.CiliumTimeout == 0 {
		o.CiliumTimeout = defaults.CiliumReadyTimeout
	}
	if o.TierTimeout == 0 {
		o.TierTimeout = defaults.TierRolloutTimeout
	}
	return o
}

// Pipeline drives the full deployment: cluster, CNI, tiers, policies.
// Fatal errors abort the run; readiness-wait timeouts are recorded in the
// summary and the pipeline continues.
type Pipeline struct {
	provisioner clusterProvisioner
	cni         cniInstaller
	applier     objectApplier
	waiter      tierWaiter
	prompter    prompt.Prompter
	console     *report.Console
	opts        Options
}

// NewPipeline wires a Pipeline from its collaborators.
func NewPipeline(
	provisioner clusterProvisioner,
	cni cniInstaller,
	applier objectApplier,
	tierWaiter tierWaiter,
	prompter prompt.Prompter,
	console *report.Console,
	opts Options,
) *Pipeline {
	return &Pipeline{
		provisioner: provisioner,
		cni:         cni,
		applier:     applier,
		waiter:      tierWaiter,
		prompter:    prompter,
		console:     console,
		opts:        opts.withDefaults(),
	}
}

// Run executes the deployment plan. The returned summary is valid even when
// err is non-nil: it records every step up to the failure.
func (p *Pipeline) Run(ctx context.Context, plan *Plan) (*Summary, error) {
	started := time.Now()
	summary := &Summary{
		RunID:     uuid.NewString(),
		Cluster:   p.opts.Cluster,
		Namespace: p.opts.Namespace,
		Started:   started,
	}
	defer func() { summary.Elapsed = time.Since(started) }()

	if err := p.ensureCluster(ctx, summary); err != nil {
		return summary, err
	}

	if err := p.loadImage(ctx, summary); err != nil {
		return summary, err
	}

	if err := p.installCNI(ctx, summary); err != nil {
		return summary, err
	}

	if err := p.rollout(ctx, summary, plan); err != nil {
		return summary, err
	}

	if err := p.applyPolicies(ctx, summary, plan); err != nil {
		return summary, err
	}

	if timedOut := summary.TimedOut(); len(timedOut) > 0 {
		p.console.Warn("some readiness waits timed out: %v", timedOut)
		slog.Warn("deployment finished with wait timeouts", "steps", timedOut)
	}

	return summary, nil
}

func (p *Pipeline) ensureCluster(ctx context.Context, summary *Summary) error {
	p.console.Header("Cluster")
	start := time.Now()

	exists, err := p.provisioner.Exists(ctx)
	if err != nil {
		summary.record("cluster", StepFailed, err.Error(), time.Since(start))
		return err
	}

	if exists {
		const reuse, recreate = 0, 1
		choice := p.prompter.Choose(
			fmt.Sprintf("cluster %q already exists", p.opts.Cluster),
			[]string{"reuse it", "delete and recreate"},
			reuse,
		)
		if choice == reuse {
			p.console.Info("reusing existing cluster %q", p.opts.Cluster)
			summary.record("cluster", StepSkipped, "reused existing cluster", time.Since(start))
			return nil
		}

		if err := p.provisioner.Delete(ctx); err != nil {
			summary.record("cluster", StepFailed, err.Error(), time.Since(start))
			return err
		}
	}

	var createErr error
	report.Spin("creating kind cluster", func() {
		createErr = p.provisioner.Create(ctx)
	})
	if createErr != nil {
		summary.record("cluster", StepFailed, createErr.Error(), time.Since(start))
		return createErr
	}

	p.console.Pass("cluster %q created", p.opts.Cluster)
	summary.record("cluster", StepSucceeded, "1 control-plane, 2 workers, default CNI disabled", time.Since(start))
	return nil
}

func (p *Pipeline) loadImage(ctx context.Context, summary *Summary) error {
	start := time.Now()

	if p.opts.AppImage == "" {
		summary.record("image-load", StepSkipped, "no app image configured", time.Since(start))
		return nil
	}

	if err := p.provisioner.LoadImage(ctx, p.opts.AppImage); err != nil {
		summary.record("image-load", StepFailed, err.Error(), time.Since(start))
		return err
	}

	p.console.Pass("image %q loaded into cluster", p.opts.AppImage)
	summary.record("image-load", StepSucceeded, p.opts.AppImage, time.Since(start))
	return nil
}

func (p *Pipeline) installCNI(ctx context.Context, summary *Summary) error {
	p.console.Header("Cilium")
	start := time.Now()

	if err := p.cni.Install(ctx); err != nil {
		summary.record("cilium-install", StepFailed, err.Error(), time.Since(start))
		return err
	}
	summary.record("cilium-install", StepSucceeded, "", time.Since(start))

	var result waiter.Result
	report.Spin("waiting for cilium", func() {
		result = p.cni.WaitReady(ctx, p.opts.CiliumTimeout)
	})

	outcome := fromWaitOutcome(result.Outcome)
	summary.record("cilium-ready", outcome, result.Detail, result.Elapsed)

	switch outcome {
	case StepSucceeded:
		p.console.Pass("cilium ready")
	case StepTimedOut:
		// tolerated: pods may still settle while tiers roll out
		p.console.Warn("cilium not ready after %s, continuing: %s", p.opts.CiliumTimeout, result.Detail)
	default:
		return result.Err
	}
	return nil
}

func (p *Pipeline) rollout(ctx context.Context, summary *Summary, plan *Plan) error {
	p.console.Header("Application rollout")
	start := time.Now()

	if err := p.applier.Apply(ctx, plan.Namespace); err != nil {
		summary.record("namespace", StepFailed, err.Error(), time.Since(start))
		return err
	}
	summary.record("namespace", StepSucceeded, p.opts.Namespace, time.Since(start))

	for _, tier := range plan.Tiers {
		tierStart := time.Now()
		stepName := "tier:" + tier.Name

		if err := p.applier.Apply(ctx, tier.objects); err != nil {
			summary.record(stepName, StepFailed, err.Error(), time.Since(tierStart))
			return err
		}

		var result waiter.Result
		report.Spin("waiting for "+tier.Name+" tier", func() {
			result = p.waiter.PodsReady(ctx, p.opts.Namespace, tier.Selector, tier.MinReady, p.opts.TierTimeout)
		})

		outcome := fromWaitOutcome(result.Outcome)
		summary.record(stepName, outcome, result.Detail, time.Since(tierStart))

		switch outcome {
		case StepSucceeded:
			p.console.Pass("%s tier ready (%s)", tier.Name, result.Detail)
		case StepTimedOut:
			// best effort: record and move on to the next tier
			p.console.Warn("%s tier not ready after %s, continuing: %s",
				tier.Name, p.opts.TierTimeout, result.Detail)
			slog.Warn("tier rollout wait timed out",
				"tier", tier.Name, "timeout", p.opts.TierTimeout, "detail", result.Detail)
		default:
			return result.Err
		}
	}

	return nil
}

func (p *Pipeline) applyPolicies(ctx context.Context, summary *Summary, plan *Plan) error {
	p.console.Header("Network policies")
	start := time.Now()

	if err := p.applier.Apply(ctx, plan.Policies); err != nil {
		summary.record("policies", StepFailed, err.Error(), time.Since(start))
		return err
	}

	p.console.Pass("%d network policies applied", len(plan.Policies))
	summary.record("policies", StepSucceeded,
		fmt.Sprintf("%d policies", len(plan.Policies)), time.Since(start))
	return nil
}
