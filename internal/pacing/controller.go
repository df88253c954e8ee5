package pacing

import (
	"math/rand"
	"sync"
	"time"

	"github.com/jianjiandamowang97/novel/internal/model"
)

// Pacing parameters.
const (
	// meanSampleCount is how many recent latency samples feed the mean.
	meanSampleCount = 10

	// minLoadFactor is the floor: pacing never becomes aggressive even
	// when the server answers quickly.
	minLoadFactor = 1.5
)

// loadThresholds maps mean latency to a load factor, slowest first.
// The walker multiplies the base delay by the factor of the first
// threshold the mean exceeds.
var loadThresholds = []struct {
	latency time.Duration
	factor  float64
}{
	{5 * time.Second, 3.0},
	{3 * time.Second, 2.5},
	{1500 * time.Millisecond, 2.0},
}

// Controller computes the delay applied before each chapter fetch from
// the session's latency window. It is consulted once per chapter, not
// per sub-page.
type Controller struct {
	session   *model.Session
	baseDelay time.Duration

	mu         sync.Mutex
	loadFactor float64
	randFloat  func() float64
}

// Option configures a Controller.
type Option func(*Controller)

// WithRandFloat replaces the jitter source. Tests use this to pin the
// uniform multiplier.
func WithRandFloat(fn func() float64) Option {
	return func(c *Controller) {
		c.randFloat = fn
	}
}

// New creates a Controller reading latency samples from session.
func New(session *model.Session, baseDelay time.Duration, opts ...Option) *Controller {
	c := &Controller{
		session:    session,
		baseDelay:  baseDelay,
		loadFactor: minLoadFactor,
		randFloat:  rand.Float64,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// NextDelay returns the delay to wait before the next chapter fetch.
// With no latency data yet it returns exactly twice the base delay.
// Otherwise it maps the mean of the recent samples to a load factor and
// returns baseDelay x factor x U(1.0, 2.0).
func (c *Controller) NextDelay() time.Duration {
	mean, ok := c.session.RecentMeanLatency(meanSampleCount)
	if !ok {
		return 2 * c.baseDelay
	}

	factor := minLoadFactor
	for _, t := range loadThresholds {
		if mean > t.latency {
			factor = t.factor
			break
		}
	}

	c.mu.Lock()
	c.loadFactor = factor
	jitter := 1.0 + c.randFloat()
	c.mu.Unlock()

	return time.Duration(float64(c.baseDelay) * factor * jitter)
}

// LoadFactor returns the most recently computed load factor, for
// progress reporting.
func (c *Controller) LoadFactor() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadFactor
}
