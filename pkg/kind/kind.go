/*
Copyright © 2025 crmstack authors
SPDX-License-Identifier: Apache-2.0
*/
package kind

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/distribution/reference"

	"github.com/demokit/crmstack/pkg/defaults"
	apperrors "github.com/demokit/crmstack/pkg/errors"
	"github.com/demokit/crmstack/pkg/toolchain"
)

// Provisioner manages the lifecycle of a named kind cluster through the kind
// binary.
type Provisioner struct {
	runner  toolchain.Runner
	cluster string
}

// NewProvisioner creates a Provisioner for the named cluster.
func NewProvisioner(runner toolchain.Runner, cluster string) *Provisioner {
	return &Provisioner{runner: runner, cluster: cluster}
}

// Cluster returns the managed cluster name.
func (p *Provisioner) Cluster() string {
	return p.cluster
}

// Exists reports whether a cluster with the managed name is already present.
func (p *Provisioner) Exists(ctx context.Context) (bool, error) {
	result := p.runner.Run(ctx, "kind", "get", "clusters")
	if !result.Ok() {
		return false, result.Error("kind get clusters")
	}

	for _, line := range strings.Split(result.Stdout, "\n") {
		if strings.TrimSpace(line) == p.cluster {
			return true, nil
		}
	}
	return false, nil
}

// Create stands up the cluster using the fixed demo topology.
func (p *Provisioner) Create(ctx context.Context) error {
	return p.CreateWithConfig(ctx, DefaultConfig())
}

// CreateWithConfig stands up the cluster from the given topology.
func (p *Provisioner) CreateWithConfig(ctx context.Context, cfg Config) error {
	path, err := writeConfigFile(cfg)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInternal, "failed to prepare kind config", err)
	}
	defer os.Remove(path)

	slog.Info("creating kind cluster",
		"cluster", p.cluster,
		"nodes", len(cfg.Nodes),
		"defaultCNI", !cfg.Networking.DisableDefaultCNI)

	runCtx, cancel := context.WithTimeout(ctx, defaults.ClusterCreateTimeout)
	defer cancel()

	result := p.runner.Run(runCtx, "kind", "create", "cluster",
		"--name", p.cluster,
		"--config", path,
	)
	return result.Error("kind create cluster")
}

// Delete removes the cluster. Deleting a cluster that does not exist is not
// an error for kind, so Delete is idempotent.
func (p *Provisioner) Delete(ctx context.Context) error {
	slog.Info("deleting kind cluster", "cluster", p.cluster)

	runCtx, cancel := context.WithTimeout(ctx, defaults.ClusterDeleteTimeout)
	defer cancel()

	result := p.runner.Run(runCtx, "kind", "delete", "cluster", "--name", p.cluster)
	return result.Error("kind delete cluster")
}

// LoadImage loads a locally built container image into every cluster node.
// The reference is validated before kind is invoked so a typo fails with a
// clear message instead of a node-level containerd error.
func (p *Provisioner) LoadImage(ctx context.Context, image string) error {
	if _, err := reference.ParseNormalizedNamed(image); err != nil {
		return apperrors.WrapWithContext(
			apperrors.ErrCodeInvalidRequest,
			"invalid image reference",
			err,
			map[string]any{"image": image},
		)
	}

	slog.Info("loading image into cluster", "cluster", p.cluster, "image", image)

	runCtx, cancel := context.WithTimeout(ctx, defaults.ImageLoadTimeout)
	defer cancel()

	result := p.runner.Run(runCtx, "kind", "load", "docker-image", image, "--name", p.cluster)
	return result.Error("kind load docker-image")
}

// Nodes lists the node container names of the cluster.
func (p *Provisioner) Nodes(ctx context.Context) ([]string, error) {
	result := p.runner.Run(ctx, "kind", "get", "nodes", "--name", p.cluster)
	if !result.Ok() {
		return nil, result.Error("kind get nodes")
	}

	var nodes []string
	for _, line := range strings.Split(result.Stdout, "\n") {
		if name := strings.TrimSpace(line); name != "" {
			nodes = append(nodes, name)
		}
	}
	return nodes, nil
}
