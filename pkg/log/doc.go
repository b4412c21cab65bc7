// Package log configures [log/slog] handlers for depfence.
//
// The "text" format renders through charmbracelet/log for humans, while
// "json" and "logfmt" are intended for CI systems that parse stderr.
package log
