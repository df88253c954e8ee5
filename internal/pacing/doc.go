// Package pacing adapts the delay between chapter fetches to observed
// server latency. It never paces more aggressively than a fixed floor,
// and jitters every delay to avoid a periodic request signature.
package pacing
