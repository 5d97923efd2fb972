/*
Copyright © 2025 crmstack authors
SPDX-License-Identifier: Apache-2.0
*/
package defaults

import (
	"testing"
	"time"
)

// The relationships below are what the pipeline relies on; the absolute
// values are tunable.
func TestTimeoutRelationships(t *testing.T) {
	if ProbeRequestTimeout >= ProbeTimeout {
		t.Errorf("in-pod request timeout (%v) must be shorter than the probe exec timeout (%v)",
			ProbeRequestTimeout, ProbeTimeout)
	}
	if ReadinessPollInterval >= TierRolloutTimeout {
		t.Errorf("poll interval (%v) must be shorter than the rollout timeout (%v)",
			ReadinessPollInterval, TierRolloutTimeout)
	}
}

func TestTimeoutsArePositive(t *testing.T) {
	for name, d := range map[string]time.Duration{
		"ClusterCreateTimeout":  ClusterCreateTimeout,
		"ClusterDeleteTimeout":  ClusterDeleteTimeout,
		"ImageLoadTimeout":      ImageLoadTimeout,
		"HelmInstallTimeout":    HelmInstallTimeout,
		"CiliumReadyTimeout":    CiliumReadyTimeout,
		"TierRolloutTimeout":    TierRolloutTimeout,
		"ReadinessPollInterval": ReadinessPollInterval,
		"PolicySettleDelay":     PolicySettleDelay,
		"ProbeTimeout":          ProbeTimeout,
		"ProbeRequestTimeout":   ProbeRequestTimeout,
		"SmokeTestTimeout":      SmokeTestTimeout,
	} {
		if d <= 0 {
			t.Errorf("%s must be positive, got %v", name, d)
		}
	}
}
