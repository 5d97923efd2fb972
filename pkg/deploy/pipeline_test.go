/*
Copyright © 2025 crmstack authors
SPDX-License-Identifier: Apache-2.0
*/
package deploy

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/demokit/crmstack/pkg/k8s/waiter"
	"github.com/demokit/crmstack/pkg/prompt"
	"github.com/demokit/crmstack/pkg/report"
)

type fakeProvisioner struct {
	exists    bool
	existsErr error
	createErr error

	created, deleted bool
	loadedImage      string
}

func (f *fakeProvisioner) Exists(context.Context) (bool, error) { return f.exists, f.existsErr }
func (f *fakeProvisioner) Create(context.Context) error {
	f.created = true
	return f.createErr
}
func (f *fakeProvisioner) Delete(context.Context) error {
	f.deleted = true
	return nil
}
func (f *fakeProvisioner) LoadImage(_ context.Context, image string) error {
	f.loadedImage = image
	return nil
}

type fakeCNI struct {
	installErr error
	waitResult waiter.Result
	installed  bool
}

func (f *fakeCNI) Install(context.Context) error {
	f.installed = true
	return f.installErr
}
func (f *fakeCNI) WaitReady(context.Context, time.Duration) waiter.Result {
	if f.waitResult.Outcome == "" {
		return waiter.Result{Outcome: waiter.OutcomeSucceeded}
	}
	return f.waitResult
}

type fakeApplier struct {
	applied [][]*unstructured.Unstructured
	failOn  string // object name that triggers an error
}

func (f *fakeApplier) Apply(_ context.Context, objs []*unstructured.Unstructured) error {
	f.applied = append(f.applied, objs)
	for _, o := range objs {
		if f.failOn != "" && o.GetName() == f.failOn {
			return errors.New("apply failed on " + f.failOn)
		}
	}
	return nil
}

type fakeWaiter struct {
	results map[string]waiter.Result // keyed by selector
	waited  []string
}

func (f *fakeWaiter) PodsReady(_ context.Context, _, selector string, _ int, _ time.Duration) waiter.Result {
	f.waited = append(f.waited, selector)
	if r, ok := f.results[selector]; ok {
		return r
	}
	return waiter.Result{Outcome: waiter.OutcomeSucceeded, Detail: "1/1 pods ready"}
}

func testPipeline(t *testing.T, prov *fakeProvisioner, cni *fakeCNI, applier *fakeApplier, w *fakeWaiter, prompter prompt.Prompter) *Pipeline {
	t.Helper()
	if prompter == nil {
		prompter = prompt.Static{}
	}
	return NewPipeline(prov, cni, applier, w,
		prompter,
		report.NewConsole(&bytes.Buffer{}),
		Options{Cluster: "crm-demo", Namespace: "crm-demo", AppImage: "crm-api:demo"},
	)
}

func loadTestPlan(t *testing.T) *Plan {
	t.Helper()
	plan, err := LoadPlan("")
	require.NoError(t, err)
	return plan
}

func stepNames(s *Summary) []string {
	names := make([]string, len(s.Steps))
	for i, step := range s.Steps {
		names[i] = step.Name
	}
	return names
}

func TestRunHappyPath(t *testing.T) {
	prov := &fakeProvisioner{}
	cni := &fakeCNI{}
	applier := &fakeApplier{}
	w := &fakeWaiter{}

	p := testPipeline(t, prov, cni, applier, w, nil)
	summary, err := p.Run(context.Background(), loadTestPlan(t))
	require.NoError(t, err)

	assert.True(t, prov.created)
	assert.True(t, cni.installed)
	assert.Equal(t, "crm-api:demo", prov.loadedImage)

	// strict tier order: database before api before web
	assert.Equal(t, []string{SelectorDatabase, SelectorAPI, SelectorWeb}, w.waited)

	assert.Equal(t, []string{
		"cluster", "image-load", "cilium-install", "cilium-ready",
		"namespace", "tier:database", "tier:api", "tier:web", "policies",
	}, stepNames(summary))

	assert.NotEmpty(t, summary.RunID)
	assert.Empty(t, summary.TimedOut())
}

func TestRunReusesExistingCluster(t *testing.T) {
	prov := &fakeProvisioner{exists: true}
	p := testPipeline(t, prov, &fakeCNI{}, &fakeApplier{}, &fakeWaiter{}, prompt.Static{ChooseAnswer: 0})

	summary, err := p.Run(context.Background(), loadTestPlan(t))
	require.NoError(t, err)

	assert.False(t, prov.created)
	assert.False(t, prov.deleted)
	assert.Equal(t, StepSkipped, summary.Steps[0].Outcome)
}

func TestRunRecreatesClusterOnRequest(t *testing.T) {
	prov := &fakeProvisioner{exists: true}
	p := testPipeline(t, prov, &fakeCNI{}, &fakeApplier{}, &fakeWaiter{}, prompt.Static{ChooseAnswer: 1})

	_, err := p.Run(context.Background(), loadTestPlan(t))
	require.NoError(t, err)

	assert.True(t, prov.deleted)
	assert.True(t, prov.created)
}

func TestRunContinuesAfterTierTimeout(t *testing.T) {
	w := &fakeWaiter{results: map[string]waiter.Result{
		SelectorDatabase: {Outcome: waiter.OutcomeTimedOut, Detail: "0/1 pods ready", Err: errors.New("timed out")},
	}}
	applier := &fakeApplier{}

	p := testPipeline(t, &fakeProvisioner{}, &fakeCNI{}, applier, w, nil)
	summary, err := p.Run(context.Background(), loadTestPlan(t))

	// a wait timeout is not fatal
	require.NoError(t, err)
	assert.Equal(t, []string{"tier:database"}, summary.TimedOut())

	// later tiers and policies still ran
	assert.Equal(t, []string{SelectorDatabase, SelectorAPI, SelectorWeb}, w.waited)
	assert.Contains(t, stepNames(summary), "policies")
}

func TestRunAbortsOnApplyFailure(t *testing.T) {
	applier := &fakeApplier{failOn: "crm-api"}

	p := testPipeline(t, &fakeProvisioner{}, &fakeCNI{}, applier, &fakeWaiter{}, nil)
	summary, err := p.Run(context.Background(), loadTestPlan(t))

	require.Error(t, err)
	names := stepNames(summary)
	assert.Contains(t, names, "tier:api")
	assert.NotContains(t, names, "tier:web")
	assert.NotContains(t, names, "policies")
	assert.Equal(t, StepFailed, summary.Steps[len(summary.Steps)-1].Outcome)
}

func TestRunAbortsOnCreateFailure(t *testing.T) {
	prov := &fakeProvisioner{createErr: errors.New("docker daemon not running")}

	p := testPipeline(t, prov, &fakeCNI{}, &fakeApplier{}, &fakeWaiter{}, nil)
	summary, err := p.Run(context.Background(), loadTestPlan(t))

	require.Error(t, err)
	require.Len(t, summary.Steps, 1)
	assert.Equal(t, StepFailed, summary.Steps[0].Outcome)
}

func TestRunSkipsImageLoadWhenUnset(t *testing.T) {
	prov := &fakeProvisioner{}
	p := NewPipeline(prov, &fakeCNI{}, &fakeApplier{}, &fakeWaiter{},
		prompt.Static{}, report.NewConsole(&bytes.Buffer{}),
		Options{Cluster: "crm-demo", Namespace: "crm-demo"},
	)

	summary, err := p.Run(context.Background(), loadTestPlan(t))
	require.NoError(t, err)

	assert.Empty(t, prov.loadedImage)
	assert.Equal(t, StepSkipped, summary.Steps[1].Outcome)
}
