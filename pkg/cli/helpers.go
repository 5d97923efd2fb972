/*
Copyright © 2025 crmstack authors
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/urfave/cli/v3"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/demokit/crmstack/pkg/cilium"
	"github.com/demokit/crmstack/pkg/k8s/client"
	"github.com/demokit/crmstack/pkg/k8s/manifest"
	"github.com/demokit/crmstack/pkg/k8s/waiter"
	"github.com/demokit/crmstack/pkg/prompt"
	"github.com/demokit/crmstack/pkg/report"
	"github.com/demokit/crmstack/pkg/toolchain"
)

// parseOutputFormat validates the --format flag.
func parseOutputFormat(cmd *cli.Command) (report.Format, error) {
	format := report.Format(cmd.String("format"))
	if format.IsUnknown() {
		return "", fmt.Errorf("unknown output format: %q", format)
	}
	return format, nil
}

// prompterFor picks the Prompter for the command. --yes answers every prompt
// with its default, which reuses an existing cluster on deploy and confirms
// deletion on cleanup.
func prompterFor(cmd *cli.Command) prompt.Prompter {
	if cmd.Bool("yes") {
		return prompt.Static{ConfirmAnswer: true}
	}
	return prompt.New()
}

// writeSummary renders a summary value in the requested format to stdout.
func writeSummary(cmd *cli.Command, v any) error {
	format, err := parseOutputFormat(cmd)
	if err != nil {
		return err
	}
	return report.NewWriter(format, os.Stdout).Write(v)
}

// lazyClients defers cluster client construction until first use. The deploy
// command needs this: its kubeconfig context only exists once the kind
// cluster has been created, which happens mid-run.
type lazyClients struct {
	kubeconfig string

	once    sync.Once
	clients *client.Clients
	err     error
}

func (l *lazyClients) get() (*client.Clients, error) {
	l.once.Do(func() {
		l.clients, l.err = client.Build(l.kubeconfig)
	})
	return l.clients, l.err
}

// lazyApplier builds a manifest.Applier on first Apply.
type lazyApplier struct {
	lazy      *lazyClients
	namespace string
}

func (a *lazyApplier) Apply(ctx context.Context, objs []*unstructured.Unstructured) error {
	c, err := a.lazy.get()
	if err != nil {
		return err
	}
	return manifest.NewApplier(c.Dynamic, c.Mapper, a.namespace).Apply(ctx, objs)
}

// lazyWaiter builds a waiter.Waiter on first use.
type lazyWaiter struct {
	lazy *lazyClients
}

func (w *lazyWaiter) PodsReady(ctx context.Context, namespace, selector string, minReady int, timeout time.Duration) waiter.Result {
	c, err := w.lazy.get()
	if err != nil {
		return waiter.Result{Outcome: waiter.OutcomeFailed, Detail: err.Error(), Err: err}
	}
	return waiter.New(c.Clientset).PodsReady(ctx, namespace, selector, minReady, timeout)
}

// lazyCNI installs Cilium through helm immediately but only touches the
// cluster API for the readiness wait.
type lazyCNI struct {
	runner       toolchain.Runner
	lazy         *lazyClients
	chartVersion string
}

func (c *lazyCNI) installer(clientset client.Interface) (*cilium.Installer, error) {
	return cilium.NewInstaller(c.runner, clientset, c.chartVersion)
}

func (c *lazyCNI) Install(ctx context.Context) error {
	inst, err := c.installer(nil)
	if err != nil {
		return err
	}
	return inst.Install(ctx)
}

func (c *lazyCNI) WaitReady(ctx context.Context, timeout time.Duration) waiter.Result {
	clients, err := c.lazy.get()
	if err != nil {
		return waiter.Result{Outcome: waiter.OutcomeFailed, Detail: err.Error(), Err: err}
	}
	inst, err := c.installer(clients.Clientset)
	if err != nil {
		return waiter.Result{Outcome: waiter.OutcomeFailed, Detail: err.Error(), Err: err}
	}
	return inst.WaitReady(ctx, timeout)
}
