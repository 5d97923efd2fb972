/*
Copyright © 2025 crmstack authors
SPDX-License-Identifier: Apache-2.0
*/
package deploy

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/demokit/crmstack/pkg/k8s/manifest"
)

//go:embed manifests/*.yaml
var embeddedManifests embed.FS

// Manifest file names, shared by the embedded defaults and --manifest-dir
// overrides. The numeric prefixes document the apply order.
const (
	namespaceManifest = "00-namespace.yaml"
	databaseManifest  = "10-database.yaml"
	apiManifest       = "20-api.yaml"
	webManifest       = "30-web.yaml"
	policyManifest    = "40-network-policies.yaml"
)

// Tier label selectors. The manifests label every workload with its tier
// under app.kubernetes.io/component.
const (
	SelectorDatabase = "app.kubernetes.io/component=database"
	SelectorAPI      = "app.kubernetes.io/component=api"
	SelectorWeb      = "app.kubernetes.io/component=web"
)

// Tier is one application layer to roll out and wait on.
type Tier struct {
	Name     string
	Selector string
	MinReady int
	objects  []*unstructured.Unstructured
}

// Plan is the ordered set of objects the deployment applies: namespace
// first, then tiers (each waited on before the next), then policies.
type Plan struct {
	Namespace []*unstructured.Unstructured
	Tiers     []Tier
	Policies  []*unstructured.Unstructured
}

// LoadPlan builds the deployment plan. When dir is empty the manifests
// embedded in the binary are used; otherwise files with the same names are
// read from dir, letting users customize the app without rebuilding.
func LoadPlan(dir string) (*Plan, error) {
	read := func(name string) ([]*unstructured.Unstructured, error) {
		if dir == "" {
			data, err := embeddedManifests.ReadFile(filepath.Join("manifests", name))
			if err != nil {
				return nil, fmt.Errorf("failed to read embedded manifest %s: %w", name, err)
			}
			return manifest.Decode(data)
		}

		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("manifest %s not found in %s: %w", name, dir, err)
		}
		return manifest.Load(path)
	}

	ns, err := read(namespaceManifest)
	if err != nil {
		return nil, err
	}

	db, err := read(databaseManifest)
	if err != nil {
		return nil, err
	}
	api, err := read(apiManifest)
	if err != nil {
		return nil, err
	}
	web, err := read(webManifest)
	if err != nil {
		return nil, err
	}

	policies, err := read(policyManifest)
	if err != nil {
		return nil, err
	}

	return &Plan{
		Namespace: ns,
		Tiers: []Tier{
			{Name: "database", Selector: SelectorDatabase, MinReady: 1, objects: db},
			{Name: "api", Selector: SelectorAPI, MinReady: 1, objects: api},
			{Name: "web", Selector: SelectorWeb, MinReady: 1, objects: web},
		},
		Policies: policies,
	}, nil
}
