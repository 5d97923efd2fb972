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

	"github.com/demokit/crmstack/pkg/k8s/client"
	"github.com/demokit/crmstack/pkg/k8s/probe"
	"github.com/demokit/crmstack/pkg/report"
	"github.com/demokit/crmstack/pkg/verify"
)

func verifyCmd() *cli.Command {
	return &cli.Command{
		Name:                  "verify",
		EnableShellCompletion: true,
		Usage:                 "Inspect the deployed stack without changing it",
		Description: `Verify a deployed demo environment:

  - Cluster nodes and their readiness.
  - Pods and Services in the demo namespace.
  - Applied CiliumNetworkPolicy objects.
  - In-pod connectivity probes: the web tier's own endpoint and the
    web-to-api service path.
  - The external entry point of the web Service, with port-forward
    instructions when no LoadBalancer address has been assigned.

Every cluster access is a read; verify never mutates state. Findings are
reported on the console and in the summary; only cluster access failures
make the command exit non-zero.`,
		Flags: []cli.Flag{
			namespaceFlag,
			kubeconfigFlag,
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

			v := verify.New(
				clients.Clientset,
				clients.Dynamic,
				probe.NewSPDYProber(clients.Clientset, clients.Config),
				report.NewConsole(os.Stdout),
				cmd.String("namespace"),
			)

			rep, err := v.Run(ctx)
			if err != nil {
				return err
			}
			if err := writeSummary(cmd, rep); err != nil {
				return err
			}

			if !rep.Healthy() {
				slog.Warn("verification found problems, see report")
			}
			return nil
		},
	}
}
