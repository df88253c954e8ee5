// Package fetcher performs single-document HTTP retrieval with
// classified failures, per-kind retry backoff, and latency recording
// for adaptive pacing.
package fetcher
