/*
Copyright © 2025 crmstack authors
SPDX-License-Identifier: Apache-2.0
*/
package manifest

import (
	"context"
	"fmt"
	"log/slog"

	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/dynamic"
	"sigs.k8s.io/yaml"
)

// FieldManager identifies crmstack in server-side apply managed fields.
const FieldManager = "crmstack"

// Applier applies unstructured objects through the dynamic client using
// server-side apply, so repeated runs converge instead of conflicting.
type Applier struct {
	dynamic dynamic.Interface
	mapper  meta.RESTMapper

	// defaultNamespace is set on namespaced objects without a namespace.
	defaultNamespace string
}

// NewApplier creates an Applier.
func NewApplier(dyn dynamic.Interface, mapper meta.RESTMapper, defaultNamespace string) *Applier {
	return &Applier{
		dynamic:          dyn,
		mapper:           mapper,
		defaultNamespace: defaultNamespace,
	}
}

// Apply applies the objects in order, stopping at the first failure.
func (a *Applier) Apply(ctx context.Context, objs []*unstructured.Unstructured) error {
	for _, obj := range objs {
		if err := a.ApplyOne(ctx, obj); err != nil {
			return err
		}
	}
	return nil
}

// ApplyOne applies a single object via server-side apply.
func (a *Applier) ApplyOne(ctx context.Context, obj *unstructured.Unstructured) error {
	gvk := obj.GroupVersionKind()
	mapping, err := a.mapper.RESTMapping(gvk.GroupKind(), gvk.Version)
	if err != nil {
		return fmt.Errorf("failed to resolve %s/%s: %w", gvk.Kind, obj.GetName(), err)
	}

	var rsc dynamic.ResourceInterface
	if mapping.Scope.Name() == meta.RESTScopeNameNamespace {
		ns := obj.GetNamespace()
		if ns == "" {
			ns = a.defaultNamespace
			obj.SetNamespace(ns)
		}
		rsc = a.dynamic.Resource(mapping.Resource).Namespace(ns)
	} else {
		rsc = a.dynamic.Resource(mapping.Resource)
	}

	data, err := yaml.Marshal(obj.Object)
	if err != nil {
		return fmt.Errorf("failed to marshal %s/%s: %w", gvk.Kind, obj.GetName(), err)
	}

	slog.Debug("applying object",
		"kind", gvk.Kind,
		"name", obj.GetName(),
		"namespace", obj.GetNamespace())

	_, err = rsc.Patch(ctx, obj.GetName(), types.ApplyPatchType, data, metav1.PatchOptions{
		FieldManager: FieldManager,
	})
	if err != nil {
		return fmt.Errorf("failed to apply %s/%s: %w", gvk.Kind, obj.GetName(), err)
	}
	return nil
}
