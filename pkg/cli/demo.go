/*
Copyright © 2025 crmstack authors
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/demokit/crmstack/pkg/defaults"
	"github.com/demokit/crmstack/pkg/demo"
	"github.com/demokit/crmstack/pkg/k8s/client"
	"github.com/demokit/crmstack/pkg/k8s/probe"
	"github.com/demokit/crmstack/pkg/k8s/waiter"
	"github.com/demokit/crmstack/pkg/report"
)

func demoCmd() *cli.Command {
	return &cli.Command{
		Name:                  "demo",
		EnableShellCompletion: true,
		Usage:                 "Demonstrate which traffic paths the policies allow and block",
		Description: `Run the network policy demonstration:

  1. Wait for all three tiers in parallel, then let the policies settle.
  2. Probe the allowed paths: external to web, web to api, api to
     database. Each must succeed.
  3. Probe the blocked paths: external to api, external to database,
     web to database. Each must be unreachable; a reachable blocked
     path is flagged as a policy enforcement failure.
  4. Show the Cilium endpoint policy state and the applied policies.
  5. Smoke test the application through its entry point: list and
     create customers via the HTTP API.

Mismatches never abort the remaining checks; the command reports them
all on the console and in the summary.`,
		Flags: []cli.Flag{
			namespaceFlag,
			kubeconfigFlag,
			&cli.DurationFlag{
				Name:  "tier-timeout",
				Usage: "How long the readiness gate waits for each tier",
				Value: defaults.TierRolloutTimeout,
			},
			&cli.DurationFlag{
				Name:  "settle-delay",
				Usage: "Pause between the readiness gate and the first probe",
				Value: defaults.PolicySettleDelay,
			},
			formatFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if _, err := parseOutputFormat(cmd); err != nil {
				return err
			}

			clients, err := client.Build(cmd.String("kubeconfig"))
			if err != nil {
				return err
			}

			runner := demo.NewRunner(
				clients.Clientset,
				clients.Dynamic,
				probe.NewSPDYProber(clients.Clientset, clients.Config),
				waiter.New(clients.Clientset),
				report.NewConsole(os.Stdout),
				demo.Options{
					Namespace:   cmd.String("namespace"),
					TierTimeout: cmd.Duration("tier-timeout"),
					SettleDelay: cmd.Duration("settle-delay"),
				},
			)

			rep, err := runner.Run(ctx)
			if err != nil {
				return err
			}
			if err := writeSummary(cmd, rep); err != nil {
				return err
			}

			if n := rep.Mismatches(); n > 0 {
				slog.Warn("connectivity checks contradicted the policy expectations", "mismatches", n)
			}
			return nil
		},
	}
}
