/*
Copyright © 2025 crmstack authors
SPDX-License-Identifier: Apache-2.0
*/
package verify

import (
	"context"
	"fmt"
	"strings"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"

	"github.com/demokit/crmstack/pkg/defaults"
	"github.com/demokit/crmstack/pkg/deploy"
	"github.com/demokit/crmstack/pkg/k8s/probe"
	"github.com/demokit/crmstack/pkg/report"
)

const (
	// WebService is the entry-point Service for the demo app.
	WebService = "crm-web"

	// APIService is the in-cluster DNS name of the API tier Service.
	APIService = "crm-api"

	apiPort = 3000
	webPort = 80
)

// PolicyGVR identifies CiliumNetworkPolicy objects for the dynamic client.
var PolicyGVR = schema.GroupVersionResource{
	Group:    "cilium.io",
	Version:  "v2",
	Resource: "ciliumnetworkpolicies",
}

// Verifier inspects a deployed stack without mutating it. Every cluster
// access is a read; the in-pod probes only fetch URLs.
type Verifier struct {
	clientset kubernetes.Interface
	dynamic   dynamic.Interface
	prober    probe.Prober
	console   *report.Console
	namespace string
}

// New creates a Verifier for the given namespace.
func New(clientset kubernetes.Interface, dyn dynamic.Interface, prober probe.Prober, console *report.Console, namespace string) *Verifier {
	return &Verifier{
		clientset: clientset,
		dynamic:   dyn,
		prober:    prober,
		console:   console,
		namespace: namespace,
	}
}

// Run collects cluster state and runs the connectivity probes. The returned
// report is valid even when err is non-nil.
func (v *Verifier) Run(ctx context.Context) (*Report, error) {
	r := &Report{Namespace: v.namespace}

	if err := v.collectNodes(ctx, r); err != nil {
		return r, err
	}
	if err := v.collectWorkloads(ctx, r); err != nil {
		return r, err
	}
	if err := v.collectPolicies(ctx, r); err != nil {
		return r, err
	}

	v.runProbes(ctx, r)
	v.discoverEntryPoint(ctx, r)

	return r, nil
}

func (v *Verifier) collectNodes(ctx context.Context, r *Report) error {
	v.console.Header("Nodes")

	nodes, err := v.clientset.CoreV1().Nodes().List(ctx, metav1.ListOptions{})
	if err != nil {
		return fmt.Errorf("failed to list nodes: %w", err)
	}

	for _, node := range nodes.Items {
		info := NodeInfo{
			Name:  node.Name,
			Ready: nodeReady(node),
			Roles: nodeRoles(node),
		}
		r.Nodes = append(r.Nodes, info)
		if info.Ready {
			v.console.Pass("%s (%s)", info.Name, info.Roles)
		} else {
			v.console.Fail("%s (%s) not ready", info.Name, info.Roles)
		}
	}
	return nil
}

func (v *Verifier) collectWorkloads(ctx context.Context, r *Report) error {
	v.console.Header("Workloads in " + v.namespace)

	pods, err := v.clientset.CoreV1().Pods(v.namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return fmt.Errorf("failed to list pods: %w", err)
	}
	for _, pod := range pods.Items {
		info := PodInfo{
			Name:  pod.Name,
			Tier:  pod.Labels["app.kubernetes.io/component"],
			Phase: string(pod.Status.Phase),
			Ready: podReady(pod),
		}
		r.Pods = append(r.Pods, info)
		if info.Ready {
			v.console.Pass("pod %s [%s] %s", info.Name, info.Tier, info.Phase)
		} else {
			v.console.Warn("pod %s [%s] %s, not ready", info.Name, info.Tier, info.Phase)
		}
	}

	services, err := v.clientset.CoreV1().Services(v.namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return fmt.Errorf("failed to list services: %w", err)
	}
	for _, svc := range services.Items {
		ports := make([]string, 0, len(svc.Spec.Ports))
		for _, p := range svc.Spec.Ports {
			ports = append(ports, fmt.Sprintf("%d/%s", p.Port, p.Protocol))
		}
		info := ServiceInfo{
			Name:  svc.Name,
			Type:  string(svc.Spec.Type),
			Ports: strings.Join(ports, ","),
		}
		r.Services = append(r.Services, info)
		v.console.Info("service %s %s %s", info.Name, info.Type, info.Ports)
	}
	return nil
}

func (v *Verifier) collectPolicies(ctx context.Context, r *Report) error {
	v.console.Header("Network policies")

	policies, err := v.dynamic.Resource(PolicyGVR).Namespace(v.namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return fmt.Errorf("failed to list cilium network policies: %w", err)
	}

	for _, policy := range policies.Items {
		r.Policies = append(r.Policies, policy.GetName())
		v.console.Pass("policy %s", policy.GetName())
	}
	if len(r.Policies) == 0 {
		v.console.Warn("no CiliumNetworkPolicy objects in %s", v.namespace)
	}
	return nil
}

// runProbes executes the two in-pod HTTP probes from a web tier pod. Probe
// failures are recorded, not returned: a blocked path is a finding for the
// report, not an error in the verifier.
func (v *Verifier) runProbes(ctx context.Context, r *Report) {
	v.console.Header("Connectivity probes")

	pod, err := probe.FindRunningPod(ctx, v.clientset, v.namespace, deploy.SelectorWeb)
	if err != nil {
		v.console.Fail("no running web pod to probe from: %v", err)
		r.Probes = append(r.Probes, ProbeResult{Name: "web-self", Err: err.Error()})
		return
	}

	checks := []struct {
		name string
		url  string
	}{
		{"web-self", fmt.Sprintf("http://127.0.0.1:%d", webPort)},
		{"web-to-api", fmt.Sprintf("http://%s.%s.svc.cluster.local:%d/health", APIService, v.namespace, apiPort)},
	}

	timeout := int(defaults.ProbeRequestTimeout.Seconds())
	for _, check := range checks {
		result := v.prober.Exec(ctx, v.namespace, pod, "", probe.HTTPCommand(check.url, timeout))

		pr := ProbeResult{Name: check.name, Pod: pod, URL: check.url, Passed: result.Ok()}
		if result.Err != nil {
			pr.Err = result.Err.Error()
		} else if result.ExitCode != 0 {
			pr.Err = fmt.Sprintf("exit code %d", result.ExitCode)
		}
		r.Probes = append(r.Probes, pr)

		if pr.Passed {
			v.console.Pass("%s: %s reachable from %s", check.name, check.url, pod)
		} else {
			v.console.Fail("%s: %s unreachable from %s (%s)", check.name, check.url, pod, pr.Err)
		}
	}
}

// discoverEntryPoint resolves the external address of the web Service. kind
// has no cloud load balancer, so a pending ingress is normal and the report
// falls back to port-forward instructions.
func (v *Verifier) discoverEntryPoint(ctx context.Context, r *Report) {
	v.console.Header("Entry point")

	addr, ok := EntryPoint(ctx, v.clientset, v.namespace)
	if ok {
		r.EntryPoint = addr
		v.console.Pass("web entry point: http://%s", addr)
		return
	}

	v.console.Warn("LoadBalancer ingress pending; use a port-forward instead:")
	v.console.Detail(PortForwardHint(v.namespace))
}

// EntryPoint returns the LoadBalancer address of the web Service, or false
// when no ingress has been assigned.
func EntryPoint(ctx context.Context, clientset kubernetes.Interface, namespace string) (string, bool) {
	svc, err := clientset.CoreV1().Services(namespace).Get(ctx, WebService, metav1.GetOptions{})
	if err != nil {
		return "", false
	}

	for _, ingress := range svc.Status.LoadBalancer.Ingress {
		if ingress.IP != "" {
			return ingress.IP, true
		}
		if ingress.Hostname != "" {
			return ingress.Hostname, true
		}
	}
	return "", false
}

// PortForwardHint returns the kubectl command that exposes the web Service
// locally when no LoadBalancer address is available.
func PortForwardHint(namespace string) string {
	return fmt.Sprintf("kubectl -n %s port-forward svc/%s 8080:%d", namespace, WebService, webPort)
}

func nodeReady(node corev1.Node) bool {
	for _, cond := range node.Status.Conditions {
		if cond.Type == corev1.NodeReady {
			return cond.Status == corev1.ConditionTrue
		}
	}
	return false
}

func nodeRoles(node corev1.Node) string {
	var roles []string
	for label := range node.Labels {
		if role, ok := strings.CutPrefix(label, "node-role.kubernetes.io/"); ok && role != "" {
			roles = append(roles, role)
		}
	}
	if len(roles) == 0 {
		return "worker"
	}
	return strings.Join(roles, ",")
}

func podReady(pod corev1.Pod) bool {
	for _, cond := range pod.Status.Conditions {
		if cond.Type == corev1.PodReady {
			return cond.Status == corev1.ConditionTrue
		}
	}
	return false
}
