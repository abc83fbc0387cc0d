// Package logging assembles structured slog loggers and formatting helpers used
// across echoes components.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so stage code can automatically
// tag log lines with run IDs, stages, and correlation IDs. Loggers are always
// passed in explicitly; the package keeps no global logger. A no-op logger is
// provided for tests and wiring code that has nothing to log to.
package logging
