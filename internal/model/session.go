package model

import (
	"sync"
	"time"
)

// LatencyWindowCap is the maximum number of latency samples retained in
// a session. Older samples are evicted first.
const LatencyWindowCap = 50

// Session holds the mutable state of one traversal run. Exactly one
// traversal owns a Session at a time, but latency samples and failed
// URLs may be appended from concurrently completing fetches, so those
// two are guarded by a mutex.
type Session struct {
	// StartURL is the validated URL the chain traversal began from.
	StartURL string

	// StartedAt is when the traversal began.
	StartedAt time.Time

	mu                  sync.Mutex
	position            int
	totalChapters       int
	totalWords          int
	consecutiveFailures int
	failedURLs          map[string]struct{}
	failedOrder         []string
	latencies           []time.Duration
}

// NewSession creates a Session for a traversal starting at startURL.
func NewSession(startURL string) *Session {
	return &Session{
		StartURL:   startURL,
		StartedAt:  time.Now(),
		position:   1,
		failedURLs: make(map[string]struct{}),
	}
}

// Position returns the 1-based position of the current chapter in the chain.
func (s *Session) Position() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.position
}

// Advance moves the chain position forward by one chapter.
func (s *Session) Advance() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.position++
}

// AddChapter records one successfully persisted chapter and its word
// count, and resets the consecutive failure streak.
func (s *Session) AddChapter(words int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalChapters++
	s.totalWords += words
	s.consecutiveFailures = 0
}

// Totals returns the number of persisted chapters and their combined
// word count.
func (s *Session) Totals() (chapters, words int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalChapters, s.totalWords
}

// RecordFailure increments the consecutive failure streak and returns
// the new value.
func (s *Session) RecordFailure() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.consecutiveFailures++
	return s.consecutiveFailures
}

// ConsecutiveFailures returns the current failure streak.
func (s *Session) ConsecutiveFailures() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.consecutiveFailures
}

// RecordFailedURL adds a permanently failed URL to the session.
// The set is append-only for the lifetime of the run; duplicate
// additions are ignored.
func (s *Session) RecordFailedURL(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.failedURLs[url]; ok {
		return
	}
	s.failedURLs[url] = struct{}{}
	s.failedOrder = append(s.failedOrder, url)
}

// FailedURLs returns the permanently failed URLs in insertion order.
func (s *Session) FailedURLs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.failedOrder))
	copy(out, s.failedOrder)
	return out
}

// FailedCount returns the number of permanently failed URLs.
func (s *Session) FailedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.failedURLs)
}

// RecordLatency appends a fetch round-trip time to the latency window,
// evicting the oldest sample beyond LatencyWindowCap. Safe to call from
// any completing fetch.
func (s *Session) RecordLatency(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latencies = append(s.latencies, d)
	if len(s.latencies) > LatencyWindowCap {
		s.latencies = s.latencies[len(s.latencies)-LatencyWindowCap:]
	}
}

// RecentMeanLatency returns the mean of the most recent n latency
// samples. ok is false when the window is empty.
func (s *Session) RecentMeanLatency(n int) (mean time.Duration, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.latencies) == 0 || n <= 0 {
		return 0, false
	}
	start := len(s.latencies) - n
	if start < 0 {
		start = 0
	}
	window := s.latencies[start:]
	var sum time.Duration
	for _, d := range window {
		sum += d
	}
	return sum / time.Duration(len(window)), true
}

// LatencyCount returns the number of samples currently in the window.
func (s *Session) LatencyCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.latencies)
}
