// Package log provides logging for the harvester with automatic trimming
// of oversized attribute values, built on top of the standard slog package.
//
// This package extends slog to provide:
//   - Truncation of long string attributes (page bodies, chapter text)
//   - Configurable log levels with verbose mode support
//   - Consistent log formatting across the application
//
// # Trimming
//
// The TrimHandler shortens string attribute values that exceed a configured
// rune length. Harvest runs routinely pass whole HTML documents and chapter
// paragraphs through Debug logging; without a cap a single record can dump
// megabytes of markup into the log. Truncated values end with a marker noting
// how many characters were dropped, so the full size stays visible.
//
// # Usage
//
//	// Create a logger with trimmed text output
//	logger := log.NewLogger(os.Stderr, true) // verbose=true
//
//	// Use as a standard slog.Logger
//	logger.Debug("page fetched",
//	    "url", "http://example.com/1234.html",
//	    "body", body, // trimmed to 256 runes
//	)
//
//	// Set as default logger
//	slog.SetDefault(logger)
//
// NewJSONLogger produces the same behavior with JSON output for structured
// log aggregation.
package log
