// Package client builds the Kubernetes clients used by crmstack: a typed
// clientset for status queries and readiness waits, a dynamic client plus
// RESTMapper for applying arbitrary manifests, and the shared rest.Config
// needed for SPDY pod exec.
package client
