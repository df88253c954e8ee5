package pacing

import (
	"testing"
	"time"

	"github.com/jianjiandamowang97/novel/internal/model"
)

func TestNextDelayEmptyHistory(t *testing.T) {
	t.Parallel()

	session := model.NewSession("http://example.com/1.html")
	c := New(session, 1500*time.Millisecond)

	if got := c.NextDelay(); got != 3*time.Second {
		t.Errorf("NextDelay() = %v, want exactly 2x base delay (3s)", got)
	}
}

func TestNextDelayLoadFactors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		mean       time.Duration
		wantFactor float64
	}{
		{name: "very slow server", mean: 6 * time.Second, wantFactor: 3.0},
		{name: "slow server", mean: 4 * time.Second, wantFactor: 2.5},
		{name: "moderate load", mean: 2 * time.Second, wantFactor: 2.0},
		{name: "fast server keeps the floor", mean: 200 * time.Millisecond, wantFactor: 1.5},
		{name: "boundary 1.5s stays at floor", mean: 1500 * time.Millisecond, wantFactor: 1.5},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			session := model.NewSession("http://example.com/1.html")
			session.RecordLatency(tt.mean)

			base := time.Second
			// Pin jitter to its lower bound so the factor is observable.
			c := New(session, base, WithRandFloat(func() float64 { return 0 }))

			got := c.NextDelay()
			want := time.Duration(float64(base) * tt.wantFactor)
			if got != want {
				t.Errorf("NextDelay() = %v, want %v (factor %.1f)", got, want, tt.wantFactor)
			}
			if c.LoadFactor() != tt.wantFactor {
				t.Errorf("LoadFactor() = %.1f, want %.1f", c.LoadFactor(), tt.wantFactor)
			}
		})
	}
}

func TestNextDelayJitterBounds(t *testing.T) {
	t.Parallel()

	session := model.NewSession("http://example.com/1.html")
	session.RecordLatency(100 * time.Millisecond)

	base := time.Second
	c := New(session, base)

	// Floor factor 1.5, jitter in [1.0, 2.0): every delay must land in
	// [1.5s, 3.0s).
	for i := 0; i < 200; i++ {
		got := c.NextDelay()
		if got < 1500*time.Millisecond || got >= 3*time.Second {
			t.Fatalf("NextDelay() = %v, outside [1.5s, 3s)", got)
		}
	}
}

func TestNextDelayUsesRecentMean(t *testing.T) {
	t.Parallel()

	session := model.NewSession("http://example.com/1.html")
	// Eleven slow samples followed by ten fast ones: only the most
	// recent ten count, so the mean must be fast.
	for i := 0; i < 11; i++ {
		session.RecordLatency(10 * time.Second)
	}
	for i := 0; i < 10; i++ {
		session.RecordLatency(100 * time.Millisecond)
	}

	c := New(session, time.Second, WithRandFloat(func() float64 { return 0 }))
	if got := c.NextDelay(); got != 1500*time.Millisecond {
		t.Errorf("NextDelay() = %v, want 1.5s (floor factor over fast window)", got)
	}
}
