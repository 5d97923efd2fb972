/*
Copyright © 2025 crmstack authors
SPDX-License-Identifier: Apache-2.0
*/
package manifest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/api/meta"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/types"
	dynamicfake "k8s.io/client-go/dynamic/fake"
	clienttesting "k8s.io/client-go/testing"
)

func testMapper() meta.RESTMapper {
	mapper := meta.NewDefaultRESTMapper([]schema.GroupVersion{
		{Version: "v1"},
		{Group: "apps", Version: "v1"},
		{Group: "cilium.io", Version: "v2"},
	})
	mapper.Add(schema.GroupVersionKind{Version: "v1", Kind: "Namespace"}, meta.RESTScopeRoot)
	mapper.Add(schema.GroupVersionKind{Version: "v1", Kind: "Service"}, meta.RESTScopeNamespace)
	mapper.Add(schema.GroupVersionKind{Group: "apps", Version: "v1", Kind: "Deployment"}, meta.RESTScopeNamespace)
	mapper.Add(schema.GroupVersionKind{Group: "cilium.io", Version: "v2", Kind: "CiliumNetworkPolicy"}, meta.RESTScopeNamespace)
	return mapper
}

// newRecordingDynamicClient returns a dynamic fake whose patch reactor simply
// echoes the request, so tests can audit the recorded actions without
// depending on the tracker's server-side-apply emulation.
func newRecordingDynamicClient(t *testing.T) *dynamicfake.FakeDynamicClient {
	t.Helper()
	scheme := runtime.NewScheme()
	dyn := dynamicfake.NewSimpleDynamicClient(scheme)
	dyn.PrependReactor("patch", "*", func(action clienttesting.Action) (bool, runtime.Object, error) {
		return true, &unstructured.Unstructured{}, nil
	})
	return dyn
}

func obj(apiVersion, kind, name, namespace string) *unstructured.Unstructured {
	u := &unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": apiVersion,
		"kind":       kind,
		"metadata":   map[string]interface{}{"name": name},
	}}
	if namespace != "" {
		u.SetNamespace(namespace)
	}
	return u
}

func TestApplyUsesServerSideApply(t *testing.T) {
	dyn := newRecordingDynamicClient(t)
	applier := NewApplier(dyn, testMapper(), "crm-demo")

	err := applier.ApplyOne(context.Background(), obj("apps/v1", "Deployment", "crm-web", "crm-demo"))
	require.NoError(t, err)

	actions := dyn.Actions()
	require.Len(t, actions, 1)

	patch, ok := actions[0].(clienttesting.PatchAction)
	require.True(t, ok)
	assert.Equal(t, types.ApplyPatchType, patch.GetPatchType())
	assert.Equal(t, "crm-web", patch.GetName())
	assert.Equal(t, "crm-demo", patch.GetNamespace())
	assert.Equal(t, "deployments", patch.GetResource().Resource)
}

func TestApplyDefaultsNamespace(t *testing.T) {
	dyn := newRecordingDynamicClient(t)
	applier := NewApplier(dyn, testMapper(), "crm-demo")

	err := applier.ApplyOne(context.Background(), obj("v1", "Service", "crm-api", ""))
	require.NoError(t, err)

	patch := dyn.Actions()[0].(clienttesting.PatchAction)
	assert.Equal(t, "crm-demo", patch.GetNamespace())
}

func TestApplyClusterScoped(t *testing.T) {
	dyn := newRecordingDynamicClient(t)
	applier := NewApplier(dyn, testMapper(), "crm-demo")

	err := applier.ApplyOne(context.Background(), obj("v1", "Namespace", "crm-demo", ""))
	require.NoError(t, err)

	patch := dyn.Actions()[0].(clienttesting.PatchAction)
	assert.Empty(t, patch.GetNamespace())
	assert.Equal(t, "namespaces", patch.GetResource().Resource)
}

func TestApplyUnknownKind(t *testing.T) {
	dyn := newRecordingDynamicClient(t)
	applier := NewApplier(dyn, testMapper(), "crm-demo")

	err := applier.ApplyOne(context.Background(), obj("example.com/v1", "Widget", "w", ""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to resolve")
}

func TestApplyOrderAndFirstFailure(t *testing.T) {
	dyn := newRecordingDynamicClient(t)
	applier := NewApplier(dyn, testMapper(), "crm-demo")

	objs := []*unstructured.Unstructured{
		obj("v1", "Namespace", "crm-demo", ""),
		obj("example.com/v1", "Widget", "w", ""), // unresolvable
		obj("apps/v1", "Deployment", "crm-web", "crm-demo"),
	}

	err := applier.Apply(context.Background(), objs)
	require.Error(t, err)
	// the failure stops the sequence before the deployment
	assert.Len(t, dyn.Actions(), 1)
}
