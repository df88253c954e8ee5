// Package model defines the core data structures shared across the crawler:
// chapters, sub-pages, the per-run session state, and run summaries.
package model
