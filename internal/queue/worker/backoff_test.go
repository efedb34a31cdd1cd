package worker

import (
	"testing"
	"time"
)

func TestExponentialBackoffGrows(t *testing.T) {
	// jitter adds up to 250ms, so compare against the floor of each step
	for attempt, floor := range []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second} {
		if d := ExponentialBackoff(attempt); d < floor {
			t.Fatalf("ExponentialBackoff(%d) = %v, want >= %v", attempt, d, floor)
		}
	}
}

func TestExponentialBackoffCap(t *testing.T) {
	max := 5*time.Minute + 250*time.Millisecond
	if d := ExponentialBackoff(30); d > max {
		t.Fatalf("ExponentialBackoff(30) = %v, want <= %v", d, max)
	}
}
