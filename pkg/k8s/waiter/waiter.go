/*
Copyright © 2025 crmstack authors
SPDX-License-Identifier: Apache-2.0
*/
package waiter

import (
	"context"
	"errors"
	"fmt"
	"time"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/apimachinery/pkg/watch"
	"k8s.io/client-go/kubernetes"

	"github.com/demokit/crmstack/pkg/defaults"
)

// Outcome classifies how a wait ended. A timeout is a first-class outcome,
// not an error: the deployment pipeline records it and keeps going.
type Outcome string

const (
	// OutcomeSucceeded means the readiness condition was met in time.
	OutcomeSucceeded Outcome = "succeeded"
	// OutcomeTimedOut means the deadline elapsed before the condition held.
	OutcomeTimedOut Outcome = "timed-out"
	// OutcomeFailed means the wait ended for a reason other than timing out,
	// e.g. an API error or a resource entering a terminal failed state.
	OutcomeFailed Outcome = "failed"
)

// Result describes a finished wait.
type Result struct {
	Outcome Outcome       `json:"outcome" yaml:"outcome"`
	Detail  string        `json:"detail,omitempty" yaml:"detail,omitempty"`
	Elapsed time.Duration `json:"elapsed" yaml:"elapsed"`
	Err     error         `json:"-" yaml:"-"`
}

// Succeeded reports whether the condition was met.
func (r Result) Succeeded() bool {
	return r.Outcome == OutcomeSucceeded
}

// Waiter blocks on readiness conditions against the cluster API.
type Waiter struct {
	clientset kubernetes.Interface
	interval  time.Duration
}

// New creates a Waiter with the default poll interval.
func New(clientset kubernetes.Interface) *Waiter {
	return &Waiter{clientset: clientset, interval: defaults.ReadinessPollInterval}
}

// NewWithInterval creates a Waiter with a custom poll interval, used by
// tests to keep polling fast.
func NewWithInterval(clientset kubernetes.Interface, interval time.Duration) *Waiter {
	return &Waiter{clientset: clientset, interval: interval}
}

// PodsReady waits until at least minReady pods matching the selector in the
// namespace report the Ready condition.
func (w *Waiter) PodsReady(ctx context.Context, namespace, selector string, minReady int, timeout time.Duration) Result {
	start := time.Now()
	var lastReady, lastTotal int

	err := wait.PollUntilContextTimeout(ctx, w.interval, timeout, true,
		func(ctx context.Context) (bool, error) {
			pods, err := w.clientset.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{
				LabelSelector: selector,
			})
			if err != nil {
				return false, err
			}

			ready := 0
			for _, pod := range pods.Items {
				if podReady(&pod) {
					ready++
				}
			}
			lastReady, lastTotal = ready, len(pods.Items)
			return ready >= minReady, nil
		},
	)

	return w.classify(err, start, fmt.Sprintf("%d/%d pods ready (selector %s)", lastReady, lastTotal, selector))
}

// DaemonSetReady waits until the named DaemonSet has as many ready pods as
// desired, with at least one desired.
func (w *Waiter) DaemonSetReady(ctx context.Context, namespace, name string, timeout time.Duration) Result {
	start := time.Now()
	var lastDetail string

	err := wait.PollUntilContextTimeout(ctx, w.interval, timeout, true,
		func(ctx context.Context) (bool, error) {
			ds, err := w.clientset.AppsV1().DaemonSets(namespace).Get(ctx, name, metav1.GetOptions{})
			if err != nil {
				return false, err
			}
			lastDetail = fmt.Sprintf("%s: %d/%d ready", name,
				ds.Status.NumberReady, ds.Status.DesiredNumberScheduled)
			return ds.Status.DesiredNumberScheduled > 0 &&
				ds.Status.NumberReady == ds.Status.DesiredNumberScheduled, nil
		},
	)

	return w.classify(err, start, lastDetail)
}

// DeploymentAvailable waits for the named Deployment to report the Available
// condition. The current state is checked first, then a watch picks up
// subsequent status transitions without polling.
func (w *Waiter) DeploymentAvailable(ctx context.Context, namespace, name string, timeout time.Duration) Result {
	start := time.Now()

	dep, err := w.clientset.AppsV1().Deployments(namespace).Get(ctx, name, metav1.GetOptions{})
	if err == nil && deploymentAvailable(dep) {
		return Result{Outcome: OutcomeSucceeded, Detail: name + " available", Elapsed: time.Since(start)}
	}

	watcher, err := w.clientset.AppsV1().Deployments(namespace).Watch(ctx, metav1.ListOptions{
		FieldSelector: "metadata.name=" + name,
	})
	if err != nil {
		return Result{Outcome: OutcomeFailed, Detail: "watch failed", Elapsed: time.Since(start), Err: err}
	}
	defer watcher.Stop()

	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	for {
		select {
		case <-timeoutCtx.Done():
			if errors.Is(timeoutCtx.Err(), context.DeadlineExceeded) {
				return Result{
					Outcome: OutcomeTimedOut,
					Detail:  fmt.Sprintf("%s not available after %v", name, timeout),
					Elapsed: time.Since(start),
					Err:     timeoutCtx.Err(),
				}
			}
			return Result{Outcome: OutcomeFailed, Detail: "canceled", Elapsed: time.Since(start), Err: timeoutCtx.Err()}

		case event, ok := <-watcher.ResultChan():
			if !ok {
				return Result{
					Outcome: OutcomeFailed,
					Detail:  "watch channel closed unexpectedly",
					Elapsed: time.Since(start),
					Err:     errors.New("watch channel closed"),
				}
			}
			if event.Type == watch.Error {
				return Result{
					Outcome: OutcomeFailed,
					Detail:  fmt.Sprintf("watch error: %v", event.Object),
					Elapsed: time.Since(start),
					Err:     fmt.Errorf("watch error: %v", event.Object),
				}
			}

			dep, ok := event.Object.(*appsv1.Deployment)
			if !ok {
				continue
			}
			if deploymentAvailable(dep) {
				return Result{Outcome: OutcomeSucceeded, Detail: name + " available", Elapsed: time.Since(start)}
			}
		}
	}
}

func (w *Waiter) classify(err error, start time.Time, detail string) Result {
	elapsed := time.Since(start)
	switch {
	case err == nil:
		return Result{Outcome: OutcomeSucceeded, Detail: detail, Elapsed: elapsed}
	case wait.Interrupted(err):
		return Result{Outcome: OutcomeTimedOut, Detail: detail, Elapsed: elapsed, Err: err}
	default:
		return Result{Outcome: OutcomeFailed, Detail: detail, Elapsed: elapsed, Err: err}
	}
}

func podReady(pod *corev1.Pod) bool {
	if pod.Status.Phase != corev1.PodRunning {
		return false
	}
	for _, cond := range pod.Status.Conditions {
		if cond.Type == corev1.PodReady && cond.Status == corev1.ConditionTrue {
			return true
		}
	}
	return false
}

func deploymentAvailable(dep *appsv1.Deployment) bool {
	for _, cond := range dep.Status.Conditions {
		if cond.Type == appsv1.DeploymentAvailable && cond.Status == corev1.ConditionTrue {
			return true
		}
	}
	return false
}
