// Package logging provides structured logging for crmstack commands.
//
// It wraps the standard library slog package with project defaults: JSON
// records on stderr, module and version context on every record, and source
// location tracking when the level is debug.
//
// The level is taken from the LOG_LEVEL environment variable or the
// --log-level flag, whichever the caller passes through:
//
//	logging.SetDefaultStructuredLoggerWithLevel("crmstack", version, "debug")
//	slog.Info("cluster ready", "name", clusterName)
package logging
