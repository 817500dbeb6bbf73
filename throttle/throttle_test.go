package throttle

import (
	"testing"
	"time"
)

const oneMinute = time.Minute

// TestRandomThrottlerCoversAllBuckets checks the distribution's coverage:
// slicing a 5-minute window into 5 one-minute buckets, 100 draws should
// land at least one sample in every bucket.
func TestRandomThrottlerCoversAllBuckets(t *testing.T) {
	window := 5 * oneMinute
	th := NewSeededRandomThrottler(window, 42)

	buckets := make([]int, 5)
	for i := 0; i < 100; i++ {
		d := th.NextDelay()
		idx := int(d / oneMinute)
		if idx >= len(buckets) {
			idx = len(buckets) - 1
		}
		buckets[idx]++
	}

	for i, count := range buckets {
		if count == 0 {
			t.Fatalf("bucket %d received no samples out of 100 draws: %v", i, buckets)
		}
	}
}

func TestRandomThrottlerStaysWithinWindow(t *testing.T) {
	th := NewSeededRandomThrottler(10*oneMinute, 7)
	for i := 0; i < 1000; i++ {
		d := th.NextDelay()
		if d < 0 || d >= th.Window {
			t.Fatalf("delay %s out of bounds [0, %s)", d, th.Window)
		}
	}
}

func TestNewRandomThrottlerDefaultsWindow(t *testing.T) {
	th := NewRandomThrottler(0)
	if th.Window != DefaultWindow {
		t.Fatalf("expect default window %s, got %s", DefaultWindow, th.Window)
	}
}
