/*
Copyright © 2025 crmstack authors
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/demokit/crmstack/pkg/defaults"
	"github.com/demokit/crmstack/pkg/deploy"
	"github.com/demokit/crmstack/pkg/k8s/probe"
	"github.com/demokit/crmstack/pkg/kind"
	"github.com/demokit/crmstack/pkg/report"
	"github.com/demokit/crmstack/pkg/toolchain"
	"github.com/demokit/crmstack/pkg/verify"
)

func deployCmd() *cli.Command {
	return &cli.Command{
		Name:                  "deploy",
		EnableShellCompletion: true,
		Usage:                 "Create the kind cluster and deploy the demo stack",
		Description: `Stand up the full demo environment:

  1. Verify the local toolchain (kind, helm, docker).
  2. Create a kind cluster with the default CNI disabled, or reuse an
     existing one after confirmation.
  3. Install Cilium through helm and wait for the agent and operator.
  4. Apply the namespace and the database, api, and web tiers in order,
     waiting for each tier's pods between applies.
  5. Apply the tier isolation CiliumNetworkPolicies.
  6. Run a read-only verification pass over the result.

Readiness waits that time out do not abort the run; they are recorded in
the final summary so a slow image pull does not kill the deployment.

# Examples

Deploy with defaults:
  crmstack deploy

Deploy a locally built API image and custom manifests:
  crmstack deploy --app-image crm-api:dev --manifest-dir ./manifests`,
		Flags: []cli.Flag{
			clusterFlag,
			namespaceFlag,
			kubeconfigFlag,
			&cli.StringFlag{
				Name:    "app-image",
				Usage:   "Locally built API image to load into the cluster (skipped when empty)",
				Sources: cli.EnvVars("CRMSTACK_APP_IMAGE"),
			},
			&cli.StringFlag{
				Name:    "manifest-dir",
				Usage:   "Directory of manifests to deploy instead of the embedded defaults",
				Sources: cli.EnvVars("CRMSTACK_MANIFEST_DIR"),
			},
			&cli.StringFlag{
				Name:    "cilium-version",
				Usage:   "Cilium helm chart version",
				Sources: cli.EnvVars("CRMSTACK_CILIUM_VERSION"),
			},
			&cli.DurationFlag{
				Name:  "cilium-timeout",
				Usage: "How long to wait for Cilium to become ready",
				Value: defaults.CiliumReadyTimeout,
			},
			&cli.DurationFlag{
				Name:  "tier-timeout",
				Usage: "How long to wait for each tier's pods",
				Value: defaults.TierRolloutTimeout,
			},
			formatFlag,
			yesFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if _, err := parseOutputFormat(cmd); err != nil {
				return err
			}

			if err := toolchain.Check(nil); err != nil {
				return err
			}

			plan, err := deploy.LoadPlan(cmd.String("manifest-dir"))
			if err != nil {
				return err
			}

			runner := toolchain.NewExecRunner()
			lazy := &lazyClients{kubeconfig: cmd.String("kubeconfig")}
			namespace := cmd.String("namespace")
			console := report.NewConsole(os.Stdout)

			pipeline := deploy.NewPipeline(
				kind.NewProvisioner(runner, cmd.String("cluster-name")),
				&lazyCNI{runner: runner, lazy: lazy, chartVersion: cmd.String("cilium-version")},
				&lazyApplier{lazy: lazy, namespace: namespace},
				&lazyWaiter{lazy: lazy},
				prompterFor(cmd),
				console,
				deploy.Options{
					Cluster:       cmd.String("cluster-name"),
					Namespace:     namespace,
					AppImage:      cmd.String("app-image"),
					CiliumTimeout: cmd.Duration("cilium-timeout"),
					TierTimeout:   cmd.Duration("tier-timeout"),
				},
			)

			summary, runErr := pipeline.Run(ctx, plan)

			// post-deploy status pass; findings are informational here
			if runErr == nil {
				if clients, err := lazy.get(); err == nil {
					v := verify.New(clients.Clientset, clients.Dynamic,
						probe.NewSPDYProber(clients.Clientset, clients.Config),
						console, namespace)
					if _, err := v.Run(ctx); err != nil {
						console.Warn("post-deploy verification incomplete: %v", err)
					}
				}
			}

			if summary != nil {
				if err := writeSummary(cmd, summary); err != nil {
					return err
				}
			}
			return runErr
		},
	}
}
