/*
Copyright © 2025 crmstack authors
SPDX-License-Identifier: Apache-2.0
*/
package probe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/remotecommand"
	utilexec "k8s.io/client-go/util/exec"

	apperrors "github.com/demokit/crmstack/pkg/errors"
)

// ExecResult is the outcome of a command executed inside a pod.
type ExecResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	// Err is set when the exec stream itself failed, not when the command
	// exited non-zero.
	Err error
}

// Ok reports whether the command ran and exited zero.
func (r ExecResult) Ok() bool {
	return r.Err == nil && r.ExitCode == 0
}

// Prober executes probe commands inside running pods. The interface allows
// the demo and verify drivers to be tested without a live exec subresource.
type Prober interface {
	Exec(ctx context.Context, namespace, pod, container string, command []string) ExecResult
}

// SPDYProber executes commands through the exec subresource over SPDY.
type SPDYProber struct {
	clientset kubernetes.Interface
	config    *rest.Config
}

// NewSPDYProber creates a Prober backed by remotecommand.
func NewSPDYProber(clientset kubernetes.Interface, config *rest.Config) *SPDYProber {
	return &SPDYProber{clientset: clientset, config: config}
}

// Exec runs the command in the pod without a TTY and captures both streams.
// A non-zero command exit is reported via ExitCode; Err is reserved for
// failures to establish or run the stream.
func (p *SPDYProber) Exec(ctx context.Context, namespace, pod, container string, command []string) ExecResult {
	req := p.clientset.CoreV1().RESTClient().Post().
		Namespace(namespace).
		Resource("pods").
		Name(pod).
		SubResource("exec").
		VersionedParams(&corev1.PodExecOptions{
			Container: container,
			Command:   command,
			Stdout:    true,
			Stderr:    true,
		}, scheme.ParameterCodec)

	executor, err := remotecommand.NewSPDYExecutor(p.config, http.MethodPost, req.URL())
	if err != nil {
		return ExecResult{Err: fmt.Errorf("failed to create executor: %w", err), ExitCode: -1}
	}

	var stdout, stderr bytes.Buffer
	err = executor.StreamWithContext(ctx, remotecommand.StreamOptions{
		Stdout: &stdout,
		Stderr: &stderr,
	})

	result := ExecResult{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		var codeErr utilexec.CodeExitError
		if errors.As(err, &codeErr) {
			result.ExitCode = codeErr.Code
		} else {
			result.ExitCode = -1
			result.Err = err
		}
	}
	return result
}

// FindRunningPod returns the name of a running pod matching the selector.
func FindRunningPod(ctx context.Context, clientset kubernetes.Interface, namespace, selector string) (string, error) {
	pods, err := clientset.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{
		LabelSelector: selector,
	})
	if err != nil {
		return "", fmt.Errorf("failed to list pods: %w", err)
	}

	for _, pod := range pods.Items {
		if pod.Status.Phase == corev1.PodRunning {
			return pod.Name, nil
		}
	}

	return "", apperrors.NewWithContext(
		apperrors.ErrCodeNotFound,
		"no running pod found",
		map[string]any{"namespace": namespace, "selector": selector},
	)
}

// HTTPCommand builds the in-pod HTTP probe command. wget ships in the
// busybox-based tier images, which keeps the probe dependency-free.
func HTTPCommand(url string, timeoutSeconds int) []string {
	return []string{"wget", "-q", "-O-", "-T", fmt.Sprintf("%d", timeoutSeconds), url}
}

// TCPCommand builds the in-pod TCP reachability probe command.
func TCPCommand(host string, port, timeoutSeconds int) []string {
	return []string{"nc", "-z", "-w", fmt.Sprintf("%d", timeoutSeconds), host, fmt.Sprintf("%d", port)}
}
