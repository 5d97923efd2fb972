/*
Copyright © 2025 crmstack authors
SPDX-License-Identifier: Apache-2.0
*/
package client

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"k8s.io/client-go/discovery"
	"k8s.io/client-go/discovery/cached/memory"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/restmapper"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/util/homedir"
	"k8s.io/apimachinery/pkg/api/meta"
)

// Interface is an alias for kubernetes.Interface to allow easier mocking in
// tests via fake.NewClientset().
type Interface = kubernetes.Interface

// Clients bundles the typed and dynamic clients sharing one rest.Config.
type Clients struct {
	Clientset Interface
	Dynamic   dynamic.Interface
	Mapper    meta.RESTMapper
	Config    *rest.Config
}

var (
	clientOnce    sync.Once
	cachedClients *Clients
	clientErr     error
)

// Get returns singleton clients, creating them on first call. Subsequent
// calls return the cached clients for connection reuse.
//
// Configuration is discovered from, in order: the KUBECONFIG environment
// variable, ~/.kube/config, and finally the in-cluster service account.
func Get() (*Clients, error) {
	clientOnce.Do(func() {
		cachedClients, clientErr = Build("")
	})
	return cachedClients, clientErr
}

// Build creates clients from the given kubeconfig path, bypassing the
// singleton cache. An empty path triggers automatic discovery. Use Get for
// most cases; Build exists for explicit control over the kubeconfig source.
func Build(kubeconfig string) (*Clients, error) {
	config, err := buildConfig(kubeconfig)
	if err != nil {
		return nil, err
	}

	clientset, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes client: %w", err)
	}

	dyn, err := dynamic.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create dynamic client: %w", err)
	}

	disco, err := discovery.NewDiscoveryClientForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create discovery client: %w", err)
	}
	mapper := restmapper.NewDeferredDiscoveryRESTMapper(memory.NewMemCacheClient(disco))

	return &Clients{
		Clientset: clientset,
		Dynamic:   dyn,
		Mapper:    mapper,
		Config:    config,
	}, nil
}

func buildConfig(kubeconfig string) (*rest.Config, error) {
	if kubeconfig == "" {
		kubeconfig = os.Getenv("KUBECONFIG")

		if kubeconfig == "" {
			kubeconfig = filepath.Join(homedir.HomeDir(), ".kube", "config")
			if _, err := os.Stat(kubeconfig); os.IsNotExist(err) {
				kubeconfig = ""
			}
		}
	}

	// Use InClusterConfig directly when no kubeconfig is available.
	if kubeconfig == "" {
		config, err := rest.InClusterConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to get in-cluster config: %w", err)
		}
		return config, nil
	}

	config, err := clientcmd.BuildConfigFromFlags("", kubeconfig)
	if err != nil {
		return nil, fmt.Errorf("failed to build kube config from %s: %w", kubeconfig, err)
	}
	return config, nil
}
