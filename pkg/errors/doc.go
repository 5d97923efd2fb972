// Package errors provides structured error types for better observability
// and programmatic error handling across the application.
//
// Example usage:
//
//	err := errors.WrapWithContext(
//	    errors.ErrCodeExternalCommand,
//	    "failed to create kind cluster",
//	    cause,
//	    map[string]interface{}{
//	        "cluster": clusterName,
//	        "stderr":  stderrExcerpt,
//	    },
//	)
package errors
