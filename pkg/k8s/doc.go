// Package k8s provides Kubernetes integration for crmstack.
//
// This package contains sub-packages for cluster interaction:
//
// # Sub-packages
//
// client: Singleton Kubernetes clients with automatic authentication
//
//	clients, err := client.Get()
//	if err != nil {
//	    return err
//	}
//	// clients.Clientset for typed queries, clients.Dynamic for apply
//
// manifest: YAML manifest loading and server-side apply
//
//	objs, err := manifest.LoadDir(dir)
//	applier := manifest.NewApplier(clients.Dynamic, clients.Mapper, namespace)
//	err = applier.Apply(ctx, objs)
//
// waiter: readiness waits with explicit outcomes instead of swallowed errors
//
//	result := waiter.New(clients.Clientset).
//	    PodsReady(ctx, ns, "app.kubernetes.io/component=web", 2, timeout)
//	if result.Outcome == waiter.OutcomeTimedOut { ... }
//
// probe: in-pod connectivity probes over the exec subresource
//
//	prober := probe.NewSPDYProber(clients.Clientset, clients.Config)
//	res := prober.Exec(ctx, ns, pod, "", probe.HTTPCommand(url, 5))
//
// # Design notes
//
//   - The client package uses sync.Once so a single set of clients is shared
//     across the process, preventing connection exhaustion.
//   - Authentication is discovered automatically: KUBECONFIG, ~/.kube/config,
//     then in-cluster service account.
//   - Waits never sleep blindly; they poll or watch the API with a bounded
//     context and report timeouts as data.
package k8s
