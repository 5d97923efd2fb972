/*
Copyright © 2025 crmstack authors
SPDX-License-Identifier: Apache-2.0
*/
package cilium

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"k8s.io/client-go/kubernetes"

	"github.com/demokit/crmstack/pkg/defaults"
	apperrors "github.com/demokit/crmstack/pkg/errors"
	"github.com/demokit/crmstack/pkg/k8s/waiter"
	"github.com/demokit/crmstack/pkg/toolchain"
	"github.com/demokit/crmstack/pkg/version"
)

const (
	// Namespace is where the Cilium chart installs its workloads.
	Namespace = "kube-system"

	// DefaultChartVersion is the pinned Cilium chart version the demo is
	// known to work with.
	DefaultChartVersion = "1.16.5"

	repoName  = "cilium"
	repoURL   = "https://helm.cilium.io"
	chartName = "cilium/cilium"

	agentDaemonSet     = "cilium"
	operatorDeployment = "cilium-operator"
)

// minChartVersion is the oldest chart version with the policy and Hubble
// options the demo configures.
var minChartVersion = version.Version{Major: 1, Minor: 14}

// Installer installs Cilium via helm and waits for it to become ready.
type Installer struct {
	runner       toolchain.Runner
	clientset    kubernetes.Interface
	chartVersion string
}

// NewInstaller creates an Installer. An empty chartVersion selects
// DefaultChartVersion.
func NewInstaller(runner toolchain.Runner, clientset kubernetes.Interface, chartVersion string) (*Installer, error) {
	if chartVersion == "" {
		chartVersion = DefaultChartVersion
	}

	v, err := version.Parse(chartVersion)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidRequest,
			fmt.Sprintf("invalid cilium chart version %q", chartVersion), err)
	}
	if !v.AtLeast(minChartVersion) {
		return nil, apperrors.NewWithContext(apperrors.ErrCodeInvalidRequest,
			"cilium chart version too old",
			map[string]any{"requested": chartVersion, "minimum": minChartVersion.String()})
	}

	return &Installer{
		runner:       runner,
		clientset:    clientset,
		chartVersion: chartVersion,
	}, nil
}

// ChartVersion returns the effective chart version.
func (i *Installer) ChartVersion() string {
	return i.chartVersion
}

// Install adds the Cilium chart repo and installs or upgrades the release.
// `helm repo add` with --force-update and `helm upgrade --install` make the
// whole sequence idempotent across re-runs.
func (i *Installer) Install(ctx context.Context) error {
	slog.Info("installing cilium", "chartVersion", i.chartVersion)

	ctx, cancel := context.WithTimeout(ctx, defaults.HelmInstallTimeout)
	defer cancel()

	result := i.runner.Run(ctx, "helm", "repo", "add", repoName, repoURL, "--force-update")
	if err := result.Error("helm repo add"); err != nil {
		return err
	}

	result = i.runner.Run(ctx, "helm", "repo", "update", repoName)
	if err := result.Error("helm repo update"); err != nil {
		return err
	}

	result = i.runner.Run(ctx, "helm", "upgrade", "--install", repoName, chartName,
		"--version", i.chartVersion,
		"--namespace", Namespace,
		"--set", "ipam.mode=kubernetes",
		"--set", "kubeProxyReplacement=false",
		"--set", "hubble.relay.enabled=true",
		"--set", "hubble.ui.enabled=true",
	)
	return result.Error("helm upgrade --install")
}

// WaitReady blocks until the Cilium agent DaemonSet and operator Deployment
// report ready, or the timeout elapses. The timeout is a single budget shared
// by both waits. The outcome is returned, not swallowed; the caller decides
// whether a timeout is fatal.
func (i *Installer) WaitReady(ctx context.Context, timeout time.Duration) waiter.Result {
	w := waiter.New(i.clientset)
	start := time.Now()

	result := w.DaemonSetReady(ctx, Namespace, agentDaemonSet, timeout)
	if !result.Succeeded() {
		return result
	}

	remaining := timeout - time.Since(start)
	if remaining <= 0 {
		return waiter.Result{
			Outcome: waiter.OutcomeTimedOut,
			Detail:  fmt.Sprintf("no budget left to wait for %s", operatorDeployment),
			Elapsed: time.Since(start),
		}
	}
	return w.DeploymentAvailable(ctx, Namespace, operatorDeployment, remaining)
}
