/*
Copyright © 2025 crmstack authors
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/demokit/crmstack/pkg/logging"
	"github.com/demokit/crmstack/pkg/report"
)

const (
	name           = "crmstack"
	versionDefault = "dev"
)

var (
	// overridden during build with ldflags
	version = versionDefault
	commit  = "unknown"
	date    = "unknown"
)

// Flags shared across commands.
var (
	clusterFlag = &cli.StringFlag{
		Name:    "cluster-name",
		Usage:   "Name of the kind cluster",
		Sources: cli.EnvVars("CRMSTACK_CLUSTER_NAME"),
		Value:   "crm-demo",
	}

	namespaceFlag = &cli.StringFlag{
		Name:    "namespace",
		Aliases: []string{"n"},
		Usage:   "Namespace the demo app lives in",
		Sources: cli.EnvVars("CRMSTACK_NAMESPACE"),
		Value:   "crm-demo",
	}

	kubeconfigFlag = &cli.StringFlag{
		Name:    "kubeconfig",
		Usage:   "Path to kubeconfig (default: $KUBECONFIG, then ~/.kube/config)",
		Sources: cli.EnvVars("CRMSTACK_KUBECONFIG"),
	}

	formatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"t"},
		Usage: fmt.Sprintf("Summary output format (supported values: %s)",
			strings.Join(report.SupportedFormats(), ", ")),
		Sources: cli.EnvVars("CRMSTACK_FORMAT"),
		Value:   string(report.FormatTable),
	}

	yesFlag = &cli.BoolFlag{
		Name:    "yes",
		Aliases: []string{"y"},
		Usage:   "Assume the default answer to every prompt",
		Sources: cli.EnvVars("CRMSTACK_YES"),
	}
)

// Root builds the top-level command.
func Root() *cli.Command {
	return &cli.Command{
		Name:                  name,
		EnableShellCompletion: true,
		Usage:                 "Three-tier CRM demo on kind with Cilium network policies",
		Description: `crmstack stands up a local three-tier CRM demo application (web, api,
database) on a kind cluster with Cilium as the CNI, applies tier isolation
network policies, and demonstrates which traffic paths the policies allow
and block.

Running crmstack with no command runs deploy.

Typical session:

  crmstack deploy
  crmstack verify
  crmstack demo
  crmstack cleanup`,
		DefaultCommand: "deploy",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Sources: cli.EnvVars("CRMSTACK_LOG_LEVEL"),
				Value:   "info",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			logging.SetDefaultStructuredLoggerWithLevel(name, version, cmd.String("log-level"))
			slog.Debug("starting",
				"name", name,
				"version", version,
				"commit", commit,
				"date", date)
			return ctx, nil
		},
		Commands: []*cli.Command{
			deployCmd(),
			verifyCmd(),
			demoCmd(),
			cleanupCmd(),
		},
	}
}

// Execute runs the CLI. It is called by main.main() and handles SIGINT and
// SIGTERM by cancelling the command context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := Root().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
