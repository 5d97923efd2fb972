// Package cli implements the command-line interface for the crmstack demo tool.
//
// # Overview
//
// The crmstack CLI stands up and tears down a local three-tier CRM demo
// application on a kind cluster with Cilium as the CNI, and demonstrates how
// CiliumNetworkPolicies isolate the tiers from each other and from the
// outside world.
//
// # Commands
//
// deploy - Create the cluster and deploy the stack:
//
//	crmstack deploy [--app-image IMAGE] [--manifest-dir DIR]
//
// Creates a kind cluster with the default CNI disabled, installs Cilium via
// helm, applies the database, api, and web tiers in order, and finishes with
// the tier isolation network policies. Ends with a structured step summary.
//
// verify - Inspect the deployed stack:
//
//	crmstack verify [--namespace NS] [--format yaml|json|table]
//
// Read-only checks of nodes, pods, services, policies, and in-pod
// connectivity probes, plus entry point discovery.
//
// demo - Demonstrate the policies:
//
//	crmstack demo
//
// Probes the allowed and blocked traffic paths, shows the Cilium policy
// state, and smoke tests the CRM API through the entry point.
//
// cleanup - Delete the cluster:
//
//	crmstack cleanup [--yes]
//
// # Global Flags
//
//	--log-level    Log level: debug, info, warn, error (default: info)
//	--help, -h     Show command help
//	--version, -v  Show version information
//
// All flags can also be set through CRMSTACK_* environment variables, e.g.
// CRMSTACK_CLUSTER_NAME or CRMSTACK_NAMESPACE.
package cli
