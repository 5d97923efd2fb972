/*
Copyright © 2025 crmstack authors
SPDX-License-Identifier: Apache-2.0
*/
package logging

import (
	"log/slog"
	"os"
	"strings"
)

const logLevelEnvVar = "LOG_LEVEL"

// ParseLevel converts a level name into a slog.Level. It is case-insensitive
// and accepts both "warn" and "warning". Unknown or empty values default to
// slog.LevelInfo.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewStructuredLogger creates a JSON slog.Logger writing to stderr with the
// module name and version attached to every record. Source location is
// included when the level is debug.
func NewStructuredLogger(module, version, level string) *slog.Logger {
	lvl := ParseLevel(level)
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level:     lvl,
		AddSource: lvl == slog.LevelDebug,
	})
	return slog.New(handler).With(
		"module", module,
		"version", version,
	)
}

// SetDefaultStructuredLogger installs the structured logger as the process
// default, taking the level from the LOG_LEVEL environment variable.
func SetDefaultStructuredLogger(module, version string) {
	SetDefaultStructuredLoggerWithLevel(module, version, os.Getenv(logLevelEnvVar))
}

// SetDefaultStructuredLoggerWithLevel installs the structured logger as the
// process default with an explicit level, overriding LOG_LEVEL.
func SetDefaultStructuredLoggerWithLevel(module, version, level string) {
	if level == "" {
		level = os.Getenv(logLevelEnvVar)
	}
	slog.SetDefault(NewStructuredLogger(module, version, level))
}
