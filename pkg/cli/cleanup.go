/*
Copyright © 2025 crmstack authors
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/demokit/crmstack/pkg/kind"
	"github.com/demokit/crmstack/pkg/prompt"
	"github.com/demokit/crmstack/pkg/report"
	"github.com/demokit/crmstack/pkg/toolchain"
)

// clusterDeleter is the kind.Provisioner surface cleanup needs.
type clusterDeleter interface {
	Exists(ctx context.Context) (bool, error)
	Delete(ctx context.Context) error
}

func cleanupCmd() *cli.Command {
	return &cli.Command{
		Name:                  "cleanup",
		EnableShellCompletion: true,
		Usage:                 "Delete the kind cluster and everything in it",
		Description: `Tear down the demo environment by deleting the kind cluster. The app,
Cilium, and all policies live inside the cluster, so nothing else is left
behind.

Deletion asks for confirmation; pass --yes to skip the prompt. Without a
terminal the prompt declines, so scripted use must pass --yes.`,
		Flags: []cli.Flag{
			clusterFlag,
			yesFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cluster := cmd.String("cluster-name")
			provisioner := kind.NewProvisioner(toolchain.NewExecRunner(), cluster)
			return runCleanup(ctx, provisioner, prompterFor(cmd), report.NewConsole(os.Stdout), cluster)
		},
	}
}

// runCleanup deletes the cluster after confirmation. Declining the prompt
// leaves the cluster untouched.
func runCleanup(ctx context.Context, provisioner clusterDeleter, prompter prompt.Prompter, console *report.Console, cluster string) error {
	exists, err := provisioner.Exists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		console.Info("cluster %q not found, nothing to clean up", cluster)
		return nil
	}

	if !prompter.Confirm(fmt.Sprintf("delete kind cluster %q and everything in it", cluster)) {
		console.Warn("cleanup aborted")
		return nil
	}

	if err := provisioner.Delete(ctx); err != nil {
		return err
	}
	console.Pass("cluster %q deleted", cluster)
	return nil
}
