/*
Copyright © 2025 crmstack authors
SPDX-License-Identifier: Apache-2.0
*/
package cilium

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/kubernetes/fake"
	k8stesting "k8s.io/client-go/testing"

	"github.com/demokit/crmstack/pkg/defaults"
	"github.com/demokit/crmstack/pkg/k8s/waiter"
	"github.com/demokit/crmstack/pkg/toolchain"
)

// deadlineRunner records the time remaining on each call's context deadline.
type deadlineRunner struct {
	*toolchain.FakeRunner
	remaining []time.Duration
}

func (r *deadlineRunner) Run(ctx context.Context, name string, args ...string) *toolchain.Result {
	var left time.Duration
	if d, ok := ctx.Deadline(); ok {
		left = time.Until(d)
	}
	r.remaining = append(r.remaining, left)
	return r.FakeRunner.Run(ctx, name, args...)
}

func TestNewInstallerDefaultsVersion(t *testing.T) {
	i, err := NewInstaller(toolchain.NewFakeRunner(), fake.NewSimpleClientset(), "")
	require.NoError(t, err)
	assert.Equal(t, DefaultChartVersion, i.ChartVersion())
}

func TestNewInstallerRejectsBadVersion(t *testing.T) {
	_, err := NewInstaller(toolchain.NewFakeRunner(), fake.NewSimpleClientset(), "not-a-version")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid cilium chart version")
}

func TestNewInstallerRejectsOldVersion(t *testing.T) {
	_, err := NewInstaller(toolchain.NewFakeRunner(), fake.NewSimpleClientset(), "1.10.0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too old")
}

func TestInstallSequence(t *testing.T) {
	fakeRunner := toolchain.NewFakeRunner()
	i, err := NewInstaller(fakeRunner, fake.NewSimpleClientset(), "1.16.5")
	require.NoError(t, err)

	require.NoError(t, i.Install(context.Background()))

	lines := fakeRunner.CommandLines()
	require.Len(t, lines, 3)
	assert.Equal(t, "helm repo add cilium https://helm.cilium.io --force-update", lines[0])
	assert.Equal(t, "helm repo update cilium", lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "helm upgrade --install cilium cilium/cilium --version 1.16.5"))
	assert.Contains(t, lines[2], "--namespace kube-system")
	assert.Contains(t, lines[2], "ipam.mode=kubernetes")
	assert.Contains(t, lines[2], "hubble.relay.enabled=true")
}

func TestInstallStopsOnRepoFailure(t *testing.T) {
	fakeRunner := toolchain.NewFakeRunner()
	fakeRunner.Script("helm repo add", &toolchain.Result{ExitCode: 1, Stderr: "network unreachable"})

	i, err := NewInstaller(fakeRunner, fake.NewSimpleClientset(), "")
	require.NoError(t, err)

	err = i.Install(context.Background())
	require.Error(t, err)
	assert.Len(t, fakeRunner.Calls(), 1)
}

func TestWaitReady(t *testing.T) {
	ds := &appsv1.DaemonSet{
		ObjectMeta: metav1.ObjectMeta{Name: "cilium", Namespace: Namespace},
		Status:     appsv1.DaemonSetStatus{DesiredNumberScheduled: 3, NumberReady: 3},
	}
	dep := &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{Name: "cilium-operator", Namespace: Namespace},
		Status: appsv1.DeploymentStatus{
			Conditions: []appsv1.DeploymentCondition{
				{Type: appsv1.DeploymentAvailable, Status: corev1.ConditionTrue},
			},
		},
	}

	i, err := NewInstaller(toolchain.NewFakeRunner(), fake.NewSimpleClientset(ds, dep), "")
	require.NoError(t, err)

	result := i.WaitReady(context.Background(), 2*time.Second)
	assert.True(t, result.Succeeded())
}

func TestInstallCarriesHelmDeadline(t *testing.T) {
	runner := &deadlineRunner{FakeRunner: toolchain.NewFakeRunner()}
	i, err := NewInstaller(runner, fake.NewSimpleClientset(), "")
	require.NoError(t, err)

	require.NoError(t, i.Install(context.Background()))

	require.Len(t, runner.remaining, 3)
	for n, left := range runner.remaining {
		assert.Greater(t, left, time.Duration(0), "call %d has no deadline", n)
		assert.LessOrEqual(t, left, defaults.HelmInstallTimeout)
	}
}

func TestWaitReadyBudgetCoversBothWaits(t *testing.T) {
	// the agent DaemonSet check eats most of the budget; the operator
	// Deployment never appears, so the second wait may only burn what is
	// left instead of a fresh full timeout
	ds := &appsv1.DaemonSet{
		ObjectMeta: metav1.ObjectMeta{Name: "cilium", Namespace: Namespace},
		Status:     appsv1.DaemonSetStatus{DesiredNumberScheduled: 3, NumberReady: 3},
	}

	clientset := fake.NewSimpleClientset(ds)
	clientset.PrependReactor("get", "daemonsets", func(k8stesting.Action) (bool, runtime.Object, error) {
		time.Sleep(150 * time.Millisecond)
		return false, nil, nil
	})

	i, err := NewInstaller(toolchain.NewFakeRunner(), clientset, "")
	require.NoError(t, err)

	budget := 200 * time.Millisecond
	start := time.Now()
	result := i.WaitReady(context.Background(), budget)
	elapsed := time.Since(start)

	assert.Equal(t, waiter.OutcomeTimedOut, result.Outcome)
	assert.Less(t, elapsed, budget+100*time.Millisecond)
}
