/*
Copyright © 2025 crmstack authors
SPDX-License-Identifier: Apache-2.0
*/
package kind

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config models the subset of the kind cluster configuration the demo needs.
// Serialized with yaml.v3 and passed to `kind create cluster --config`.
type Config struct {
	Kind       string     `yaml:"kind"`
	APIVersion string     `yaml:"apiVersion"`
	Networking Networking `yaml:"networking"`
	Nodes      []Node     `yaml:"nodes"`
}

// Networking holds the cluster networking options.
type Networking struct {
	// DisableDefaultCNI turns off kindnet so Cilium can be installed instead.
	DisableDefaultCNI bool `yaml:"disableDefaultCNI"`
}

// Node is a single cluster node declaration.
type Node struct {
	Role string `yaml:"role"`
}

// Node roles understood by kind.
const (
	RoleControlPlane = "control-plane"
	RoleWorker       = "worker"
)

// DefaultConfig returns the fixed demo topology: one control-plane node, two
// workers, and the default CNI disabled.
func DefaultConfig() Config {
	return Config{
		Kind:       "Cluster",
		APIVersion: "kind.x-k8s.io/v1alpha4",
		Networking: Networking{DisableDefaultCNI: true},
		Nodes: []Node{
			{Role: RoleControlPlane},
			{Role: RoleWorker},
			{Role: RoleWorker},
		},
	}
}

// writeConfigFile marshals the config to a temp file and returns its path.
// The caller owns removal.
func writeConfigFile(cfg Config) (string, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("failed to marshal kind config: %w", err)
	}

	f, err := os.CreateTemp("", "crmstack-kind-*.yaml")
	if err != nil {
		return "", fmt.Errorf("failed to create kind config file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write kind config: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to close kind config: %w", err)
	}

	return f.Name(), nil
}
