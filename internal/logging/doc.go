// Package logging provides structured logging for btrbkgen built on log/slog.
//
// The package offers a TTY-optimized text handler with color support, a JSON
// handler for machine consumption, a multi-handler for simultaneous console
// and file output, and helpers for carrying a logger through a context and
// for logging inside tests.
package logging
