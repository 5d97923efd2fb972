// Package defaults centralizes timeout constants used across crmstack.
//
// Keeping these in one place makes the wait behavior of the deployment and
// demo pipelines auditable, and keeps individual packages from growing their
// own magic numbers.
package defaults
