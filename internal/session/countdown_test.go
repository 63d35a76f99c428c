package session

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestCountdownExpiresOnce(t *testing.T) {
	var (
		mu      sync.Mutex
		ticks   []time.Duration
		expired int32
	)
	c := NewCountdown(time.Now().Add(40*time.Millisecond), 5*time.Millisecond,
		func(left time.Duration) {
			mu.Lock()
			ticks = append(ticks, left)
			mu.Unlock()
		},
		func() { atomic.AddInt32(&expired, 1) },
	)
	c.Start(context.Background())

	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("countdown did not expire")
	}
	c.Stop()

	if got := atomic.LoadInt32(&expired); got != 1 {
		t.Fatalf("expected one expiry, got %d", got)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(ticks) < 2 {
		t.Fatalf("expected several ticks, got %v", ticks)
	}
	if ticks[len(ticks)-1] != 0 {
		t.Fatalf("expected final tick at zero, got %v", ticks[len(ticks)-1])
	}
	for i := 1; i < len(ticks); i++ {
		if ticks[i] > ticks[i-1] {
			t.Fatalf("remaining time went up: %v", ticks)
		}
	}
}

func TestCountdownStopPreventsExpiry(t *testing.T) {
	var expired int32
	c := NewCountdown(time.Now().Add(time.Hour), time.Millisecond, nil, func() {
		atomic.AddInt32(&expired, 1)
	})
	c.Start(context.Background())
	c.Stop()

	select {
	case <-c.Done():
	default:
		t.Fatalf("expected done closed after stop")
	}
	if atomic.LoadInt32(&expired) != 0 {
		t.Fatalf("expiry fired after stop")
	}
}

func TestCountdownPastDeadlineExpiresImmediately(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	expired := make(chan struct{}, 1)
	c := NewCountdownWithClock(now.Add(-time.Minute), time.Second, nil, func() {
		expired <- struct{}{}
	}, func() time.Time { return now })

	if c.Remaining() != 0 {
		t.Fatalf("expected zero remaining, got %v", c.Remaining())
	}
	c.Start(context.Background())
	select {
	case <-expired:
	case <-time.After(time.Second):
		t.Fatalf("expected immediate expiry")
	}
}

func TestCountdownContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var expired int32
	c := NewCountdown(time.Now().Add(time.Hour), time.Millisecond, nil, func() {
		atomic.AddInt32(&expired, 1)
	})
	c.Start(ctx)
	cancel()

	select {
	case <-c.Done():
	case <-time.After(time.Second):
		t.Fatalf("countdown ignored context cancel")
	}
	if atomic.LoadInt32(&expired) != 0 {
		t.Fatalf("expiry fired after cancel")
	}
}

func TestCountdownStopWithoutStart(t *testing.T) {
	c := NewCountdown(time.Now().Add(time.Minute), time.Second, nil, nil)
	c.Stop()
	c.Stop()
	select {
	case <-c.Done():
	default:
		t.Fatalf("expected done closed")
	}
}
