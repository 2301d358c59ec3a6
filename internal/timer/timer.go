// SPDX-FileCopyrightText: 2024 codingiran
// SPDX-License-Identifier: Apache-2.0

// Package timer provides a cancelable, restartable delayed-execution
// primitive.  A Timer is single-purpose and single-owner: it runs at most
// one scheduled action at a time, in one-shot or repeating mode.
package timer

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

var ErrMisconfiguredTimer = errors.New("misconfigured timer")

// Timer schedules a handler to run after an interval, either once or
// repeatedly.  Starting a timer cancels any outstanding run first, so two
// runs of the same timer never race.  Once Stop returns, no new handler
// invocation will begin; a cancellation token is checked immediately before
// each invocation.
type Timer struct {
	handler       func()
	cancelHandler func()
	repeats       bool
	immediate     bool

	m        sync.Mutex
	interval time.Duration
	gen      uint64
	stop     chan struct{}
}

// Option is a functional option type for Timer.
type Option interface {
	apply(*Timer) error
}

type optionFunc func(*Timer) error

func (f optionFunc) apply(t *Timer) error {
	return f(t)
}

// Repeats makes the timer fire every interval instead of once.
func Repeats() Option {
	return optionFunc(
		func(t *Timer) error {
			t.repeats = true
			return nil
		})
}

// FireImmediately makes a repeating timer fire once right away when
// started, before settling into its interval.
func FireImmediately() Option {
	return optionFunc(
		func(t *Timer) error {
			t.immediate = true
			return nil
		})
}

// OnCancel registers a handler invoked at most once per run, only when the
// run is cooperatively cancelled.  It is never invoked when a one-shot run
// completes normally.
func OnCancel(f func()) Option {
	return optionFunc(
		func(t *Timer) error {
			t.cancelHandler = f
			return nil
		})
}

// New creates a timer that invokes handler after interval once Start is
// called.  The timer is idle until then.
func New(interval time.Duration, handler func(), opts ...Option) (*Timer, error) {
	if interval < 0 {
		return nil, fmt.Errorf("%w: negative interval", ErrMisconfiguredTimer)
	}
	if handler == nil {
		return nil, fmt.Errorf("%w: nil handler", ErrMisconfiguredTimer)
	}

	t := Timer{
		interval: interval,
		handler:  handler,
	}

	for _, opt := range opts {
		if opt != nil {
			if err := opt.apply(&t); err != nil {
				return nil, err
			}
		}
	}

	if t.immediate && !t.repeats {
		return nil, fmt.Errorf("%w: FireImmediately requires Repeats", ErrMisconfiguredTimer)
	}

	return &t, nil
}

// Start schedules the timer, cancelling any outstanding run first.
func (t *Timer) Start() {
	t.m.Lock()
	cancelled := t.cancelRunLocked()
	t.gen++
	stop := make(chan struct{})
	t.stop = stop
	go t.run(t.gen, stop, t.interval)
	t.m.Unlock()

	if cancelled && t.cancelHandler != nil {
		t.cancelHandler()
	}
}

// Stop cancels the current run, if any.  Safe to call when idle.  After
// Stop returns, the handler will not begin a new invocation for the
// cancelled run.
func (t *Timer) Stop() {
	t.m.Lock()
	cancelled := t.cancelRunLocked()
	t.m.Unlock()

	if cancelled && t.cancelHandler != nil {
		t.cancelHandler()
	}
}

// Restart cancels any outstanding run and schedules a new one.  It is
// identical to Start, which already cancels first.
func (t *Timer) Restart() {
	t.Start()
}

// SetInterval updates the period.  If the timer is active it is restarted
// with the new interval.
func (t *Timer) SetInterval(interval time.Duration) error {
	if interval < 0 {
		return fmt.Errorf("%w: negative interval", ErrMisconfiguredTimer)
	}

	t.m.Lock()
	t.interval = interval
	active := t.stop != nil
	t.m.Unlock()

	if active {
		t.Restart()
	}
	return nil
}

// Active reports whether a run is currently scheduled.
func (t *Timer) Active() bool {
	t.m.Lock()
	defer t.m.Unlock()
	return t.stop != nil
}

// Interval returns the current period.
func (t *Timer) Interval() time.Duration {
	t.m.Lock()
	defer t.m.Unlock()
	return t.interval
}

// cancelRunLocked cancels the outstanding run and invalidates any in-flight
// fire.  Returns whether a run was actually cancelled.
func (t *Timer) cancelRunLocked() bool {
	if t.stop == nil {
		return false
	}
	close(t.stop)
	t.stop = nil
	t.gen++
	return true
}

func (t *Timer) run(gen uint64, stop chan struct{}, interval time.Duration) {
	if t.repeats && t.immediate {
		if !t.fire(gen) {
			return
		}
	}

	tick := time.NewTimer(interval)
	defer tick.Stop()

	for {
		select {
		case <-stop:
			return
		case <-tick.C:
			if !t.fire(gen) {
				return
			}
			if !t.repeats {
				t.complete(gen)
				return
			}
			tick.Reset(interval)
		}
	}
}

// fire invokes the handler unless this run has been cancelled.  The
// cancellation token is checked immediately before invocation.
func (t *Timer) fire(gen uint64) bool {
	t.m.Lock()
	if gen != t.gen || t.stop == nil {
		t.m.Unlock()
		return false
	}
	t.m.Unlock()

	t.handler()
	return true
}

// complete marks a one-shot run as finished without treating it as a
// cancellation.
func (t *Timer) complete(gen uint64) {
	t.m.Lock()
	if gen == t.gen {
		t.stop = nil
	}
	t.m.Unlock()
}
