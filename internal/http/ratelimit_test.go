package http

import (
	"testing"
	"time"
)

func TestRateLimiterWindow(t *testing.T) {
	rl := newRateLimiter(2, time.Minute)
	defer rl.stop()
	now := time.Date(2025, 6, 3, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	for i, want := range []bool{true, true, false} {
		if got := rl.allow("198.51.100.7"); got != want {
			t.Fatalf("request %d allowed = %t, want %t", i+1, got, want)
		}
	}
	if !rl.allow("198.51.100.8") {
		t.Error("limit leaked across clients")
	}

	now = now.Add(61 * time.Second)
	if !rl.allow("198.51.100.7") {
		t.Error("window did not reset")
	}

	now = now.Add(3 * time.Minute)
	rl.cleanupStaleEntries()
	rl.mu.Lock()
	n := len(rl.clients)
	rl.mu.Unlock()
	if n != 0 {
		t.Errorf("%d stale clients kept", n)
	}
	rl.stop()
}
