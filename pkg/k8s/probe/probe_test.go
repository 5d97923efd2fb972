/*
Copyright © 2025 crmstack authors
SPDX-License-Identifier: Apache-2.0
*/
package probe

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"

	apperrors "github.com/demokit/crmstack/pkg/errors"
)

func pod(name, component string, phase corev1.PodPhase) *corev1.Pod {
	return &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: "crm-demo",
			Labels:    map[string]string{"app.kubernetes.io/component": component},
		},
		Status: corev1.PodStatus{Phase: phase},
	}
}

func TestFindRunningPod(t *testing.T) {
	clientset := fake.NewSimpleClientset(
		pod("crm-web-pending", "web", corev1.PodPending),
		pod("crm-web-running", "web", corev1.PodRunning),
	)

	name, err := FindRunningPod(context.Background(), clientset, "crm-demo", "app.kubernetes.io/component=web")
	require.NoError(t, err)
	assert.Equal(t, "crm-web-running", name)
}

func TestFindRunningPodNoneRunning(t *testing.T) {
	clientset := fake.NewSimpleClientset(pod("crm-db-0", "database", corev1.PodPending))

	_, err := FindRunningPod(context.Background(), clientset, "crm-demo", "app.kubernetes.io/component=database")
	require.Error(t, err)

	var structured *apperrors.StructuredError
	require.True(t, errors.As(err, &structured))
	assert.Equal(t, apperrors.ErrCodeNotFound, structured.Code)
}

func TestExecResultOk(t *testing.T) {
	assert.True(t, ExecResult{}.Ok())
	assert.False(t, ExecResult{ExitCode: 1}.Ok())
	assert.False(t, ExecResult{Err: errors.New("stream failed"), ExitCode: -1}.Ok())
}

func TestHTTPCommand(t *testing.T) {
	cmd := HTTPCommand("http://crm-api.crm-demo.svc.cluster.local:3000/health", 5)
	assert.Equal(t, []string{"wget", "-q", "-O-", "-T", "5",
		"http://crm-api.crm-demo.svc.cluster.local:3000/health"}, cmd)
}

func TestTCPCommand(t *testing.T) {
	cmd := TCPCommand("crm-database.crm-demo.svc.cluster.local", 5432, 5)
	assert.Equal(t, []string{"nc", "-z", "-w", "5",
		"crm-database.crm-demo.svc.cluster.local", "5432"}, cmd)
}
