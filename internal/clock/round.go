package clock

import (
	"sync"
	"time"
)

// Default round timings.
const (
	DefaultRound = 60 * time.Second
	DefaultBreak = 5 * time.Second
	DefaultPoll  = 200 * time.Millisecond
)

// RoundClock runs at most one round countdown and one break countdown at a
// time. Starting either cancels the previous one of the same kind.
type RoundClock struct {
	clk   Clock
	Round time.Duration
	Break time.Duration
	Poll  time.Duration

	mu        sync.Mutex
	countdown *Handle
	brk       *Handle
}

// NewRoundClock returns a RoundClock with the given durations. Non-positive
// round and poll durations and a negative break fall back to the defaults.
func NewRoundClock(clk Clock, round, brk, poll time.Duration) *RoundClock {
	if round <= 0 {
		round = DefaultRound
	}
	if brk < 0 {
		brk = DefaultBreak
	}
	if poll <= 0 {
		poll = DefaultPoll
	}
	return &RoundClock{clk: clk, Round: round, Break: brk, Poll: poll}
}

// StartCountdown polls until deadline, calling onTick with the remaining time
// and onElapsed exactly once when the deadline passes.
func (c *RoundClock) StartCountdown(deadline time.Time, onTick func(time.Duration), onElapsed func()) *Handle {
	h := newHandle(c.clk, deadline, c.Poll, onTick, onElapsed)
	c.mu.Lock()
	prev := c.countdown
	c.countdown = h
	c.mu.Unlock()
	if prev != nil {
		prev.Cancel()
	}
	h.start()
	return h
}

// StartBreak runs the break countdown from now.
func (c *RoundClock) StartBreak(onTick func(time.Duration), onElapsed func()) *Handle {
	h := newHandle(c.clk, c.clk.Now().Add(c.Break), c.Poll, onTick, onElapsed)
	c.mu.Lock()
	prev := c.brk
	c.brk = h
	c.mu.Unlock()
	if prev != nil {
		prev.Cancel()
	}
	h.start()
	return h
}

// Stop cancels both countdowns.
func (c *RoundClock) Stop() {
	c.mu.Lock()
	countdown, brk := c.countdown, c.brk
	c.countdown, c.brk = nil, nil
	c.mu.Unlock()
	if countdown != nil {
		countdown.Cancel()
	}
	if brk != nil {
		brk.Cancel()
	}
}

// Handle is a running countdown.
type Handle struct {
	clk       Clock
	deadline  time.Time
	interval  time.Duration
	onTick    func(time.Duration)
	onElapsed func()

	mu    sync.Mutex
	done  bool
	timer Timer
}

func newHandle(clk Clock, deadline time.Time, interval time.Duration, onTick func(time.Duration), onElapsed func()) *Handle {
	return &Handle{
		clk:       clk,
		deadline:  deadline,
		interval:  interval,
		onTick:    onTick,
		onElapsed: onElapsed,
	}
}

// Deadline returns the time the countdown elapses.
func (h *Handle) Deadline() time.Time {
	return h.deadline
}

// Cancel stops the countdown. It is safe to call more than once.
func (h *Handle) Cancel() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.done = true
	if h.timer != nil {
		h.timer.Stop()
		h.timer = nil
	}
}

// Done reports whether the countdown fired or was cancelled.
func (h *Handle) Done() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.done
}

func (h *Handle) start() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.done {
		return
	}
	h.timer = h.clk.AfterFunc(h.nextWait(h.deadline.Sub(h.clk.Now())), h.poll)
}

// nextWait never sleeps past the deadline, so elapse is not rounded up to a poll tick.
func (h *Handle) nextWait(remaining time.Duration) time.Duration {
	if remaining < 0 {
		return 0
	}
	if remaining < h.interval {
		return remaining
	}
	return h.interval
}

func (h *Handle) poll() {
	h.mu.Lock()
	if h.done {
		h.mu.Unlock()
		return
	}
	remaining := h.deadline.Sub(h.clk.Now())
	if remaining <= 0 {
		h.done = true
		h.timer = nil
		h.mu.Unlock()
		if h.onElapsed != nil {
			h.onElapsed()
		}
		return
	}
	h.timer = h.clk.AfterFunc(h.nextWait(remaining), h.poll)
	h.mu.Unlock()
	if h.onTick != nil {
		h.onTick(remaining)
	}
}
