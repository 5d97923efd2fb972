/*
Copyright © 2025 crmstack authors
SPDX-License-Identifier: Apache-2.0
*/
package defaults

import "time"

// Cluster provisioning timeouts for kind subprocess operations.
const (
	// ClusterCreateTimeout is the maximum duration for kind cluster creation,
	// including node image pulls on a cold cache.
	ClusterCreateTimeout = 10 * time.Minute

	// ClusterDeleteTimeout is the maximum duration for kind cluster deletion.
	ClusterDeleteTimeout = 2 * time.Minute

	// ImageLoadTimeout is the maximum duration for loading the application
	// image into the kind nodes.
	ImageLoadTimeout = 5 * time.Minute
)

// CNI timeouts for Cilium installation and readiness.
const (
	// HelmInstallTimeout is the maximum duration for the Cilium chart install.
	HelmInstallTimeout = 5 * time.Minute

	// CiliumReadyTimeout is the maximum duration to wait for the Cilium
	// DaemonSet and operator Deployment to report ready.
	CiliumReadyTimeout = 5 * time.Minute
)

// Rollout timeouts for application tier readiness.
const (
	// TierRolloutTimeout is the per-tier wait for pods to report Ready.
	// A timeout here is recorded and the pipeline continues.
	TierRolloutTimeout = 3 * time.Minute

	// ReadinessPollInterval is the poll cadence for readiness checks.
	ReadinessPollInterval = 2 * time.Second

	// PolicySettleDelay is the pause after all tiers report ready before
	// traffic checks run, giving the CNI time to plumb policy state.
	PolicySettleDelay = 5 * time.Second
)

// Probe timeouts for connectivity checks.
const (
	// ProbeTimeout bounds a single in-pod connectivity probe.
	ProbeTimeout = 15 * time.Second

	// ProbeRequestTimeout is the timeout passed to the in-pod HTTP client
	// (wget -T). Shorter than ProbeTimeout so the probe command fails on
	// its own before the exec stream is torn down.
	ProbeRequestTimeout = 5 * time.Second

	// SmokeTestTimeout bounds each HTTP call of the functional smoke test.
	SmokeTestTimeout = 10 * time.Second
)
