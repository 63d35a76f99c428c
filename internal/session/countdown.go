package session

import (
	"context"
	"sync"
	"time"
)

// Countdown reports the time left until a deadline at a fixed interval and
// calls onExpire once when the deadline passes. Stop cancels it; onExpire is
// not called after Stop returns.
type Countdown struct {
	deadline time.Time
	interval time.Duration
	now      func() time.Time
	onTick   func(remaining time.Duration)
	onExpire func()

	startOnce sync.Once
	stopOnce  sync.Once
	cancel    context.CancelFunc
	done      chan struct{}
}

func NewCountdown(deadline time.Time, interval time.Duration, onTick func(time.Duration), onExpire func()) *Countdown {
	return NewCountdownWithClock(deadline, interval, onTick, onExpire, time.Now)
}

// NewCountdownWithClock is test-only for deterministic remaining times.
func NewCountdownWithClock(deadline time.Time, interval time.Duration, onTick func(time.Duration), onExpire func(), now func() time.Time) *Countdown {
	if interval <= 0 {
		interval = time.Second
	}
	if onTick == nil {
		onTick = func(time.Duration) {}
	}
	if onExpire == nil {
		onExpire = func() {}
	}
	return &Countdown{
		deadline: deadline,
		interval: interval,
		now:      now,
		onTick:   onTick,
		onExpire: onExpire,
		cancel:   func() {},
		done:     make(chan struct{}),
	}
}

// Remaining is the time left, never negative.
func (c *Countdown) Remaining() time.Duration {
	left := c.deadline.Sub(c.now())
	if left < 0 {
		return 0
	}
	return left
}

// Start runs the countdown in its own goroutine until expiry, Stop or ctx is done.
func (c *Countdown) Start(ctx context.Context) {
	c.startOnce.Do(func() {
		ctx, cancel := context.WithCancel(ctx)
		c.cancel = cancel
		go c.run(ctx)
	})
}

// Stop cancels the countdown and waits for its goroutine to exit.
func (c *Countdown) Stop() {
	c.stopOnce.Do(func() {
		started := false
		c.startOnce.Do(func() { close(c.done) })
		select {
		case <-c.done:
		default:
			started = true
		}
		c.cancel()
		if started {
			<-c.done
		}
	})
}

// Done is closed once the countdown has expired or was stopped.
func (c *Countdown) Done() <-chan struct{} {
	return c.done
}

func (c *Countdown) run(ctx context.Context) {
	defer close(c.done)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		left := c.Remaining()
		c.onTick(left)
		if left <= 0 {
			if ctx.Err() == nil {
				c.onExpire()
			}
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
