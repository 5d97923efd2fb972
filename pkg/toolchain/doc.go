// Package toolchain handles the external binaries crmstack shells out to.
//
// It provides the prerequisite check that aborts before any cluster action
// when kind, helm, or docker are missing, and the Runner abstraction used to
// invoke them with context-aware cancellation and captured output.
package toolchain
