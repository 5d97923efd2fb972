/*
Copyright © 2025 crmstack authors
SPDX-License-Identifier: Apache-2.0
*/
package client

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// TestBuild_PathResolution exercises the kubeconfig path resolution logic
// without attempting to connect to a cluster.
func TestBuild_PathResolution(t *testing.T) {
	originalKubeconfig := os.Getenv("KUBECONFIG")
	defer func() {
		if originalKubeconfig != "" {
			os.Setenv("KUBECONFIG", originalKubeconfig)
		} else {
			os.Unsetenv("KUBECONFIG")
		}
	}()

	tests := []struct {
		name          string
		kubeconfigArg string
		kubeconfigEnv string
		errorContains string
	}{
		{
			name:          "explicit invalid path",
			kubeconfigArg: "/nonexistent/path/to/kubeconfig",
			errorContains: "failed to build kube config",
		},
		{
			name:          "env var with invalid path",
			kubeconfigEnv: "/nonexistent/env/kubeconfig",
			errorContains: "failed to build kube config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.kubeconfigEnv != "" {
				os.Setenv("KUBECONFIG", tt.kubeconfigEnv)
			} else {
				os.Unsetenv("KUBECONFIG")
			}

			_, err := Build(tt.kubeconfigArg)
			if err == nil {
				t.Fatal("Build() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.errorContains) {
				t.Errorf("Build() error = %v, want error containing %q", err, tt.errorContains)
			}
		})
	}
}

// TestBuild_InvalidContent verifies that malformed kubeconfig content fails
// with a wrapped error naming the path.
func TestBuild_InvalidContent(t *testing.T) {
	tmpDir := t.TempDir()
	invalidConfig := filepath.Join(tmpDir, "invalid-kubeconfig")

	if err := os.WriteFile(invalidConfig, []byte("invalid yaml content"), 0600); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	_, err := Build(invalidConfig)
	if err == nil {
		t.Fatal("Build() with invalid config should return error")
	}
	if !strings.Contains(err.Error(), "failed to build kube config") {
		t.Errorf("Build() error = %v, want error containing 'failed to build kube config'", err)
	}
}

// TestGet_Singleton verifies Get returns the exact same results on every
// call, regardless of whether initialization succeeded.
func TestGet_Singleton(t *testing.T) {
	clientOnce = sync.Once{}
	cachedClients = nil
	clientErr = nil
	defer func() {
		clientOnce = sync.Once{}
		cachedClients = nil
		clientErr = nil
	}()

	clients1, err1 := Get()
	clients2, err2 := Get()

	// nolint:errorlint // intentionally checking pointer equality (singleton pattern)
	if err1 != err2 {
		t.Errorf("Get() should return same error instance: first=%v, second=%v", err1, err2)
	}
	if clients1 != clients2 {
		t.Error("Get() should return the same clients instance")
	}
}
