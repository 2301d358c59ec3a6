// SPDX-FileCopyrightText: 2024 codingiran
// SPDX-License-Identifier: Apache-2.0

package reconnect

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/codingiran/WebSocketClient/internal/backend"
	"github.com/codingiran/WebSocketClient/internal/netmon"
)

// Never is the policy that refuses every reconnect.
type Never struct {
	Defaults
}

func (Never) Method(Reason, uint, netmon.Path) Method {
	return NoRetry("reconnect disabled")
}

// ShouldReconnect always declines so pending retries are cleaned up.
func (Never) ShouldReconnect(backend.Event) bool {
	return false
}

// Exponential backs off geometrically: delay = Base^attempt * Scale, capped
// at MaxInterval, then perturbed by symmetric uniform jitter of
// ±delay*Jitter and floored at zero.
type Exponential struct {
	Defaults

	// Base is the growth factor.  Zero means 2.
	Base float64

	// Scale multiplies the growth term.  Zero means 500ms.
	Scale time.Duration

	// MaxInterval caps the un-jittered delay.  Zero means 600s.
	MaxInterval time.Duration

	// Jitter is the symmetric perturbation fraction.  The zero value means
	// no jitter; DefaultExponential sets 0.2.
	Jitter float64

	// MaxRetries is the attempt budget.  Zero means unlimited.
	MaxRetries uint

	// Rand overrides the jitter source with a function returning a value
	// in [0, 1).  Nil uses the shared PRNG.
	Rand func() float64
}

// DefaultExponential returns the exponential policy with the stock
// parameters: base 2, scale 500ms, max interval 600s, jitter 0.2.
func DefaultExponential() *Exponential {
	return &Exponential{
		Base:        2,
		Scale:       500 * time.Millisecond,
		MaxInterval: 600 * time.Second,
		Jitter:      0.2,
	}
}

func (e *Exponential) Method(_ Reason, attempt uint, path netmon.Path) Method {
	base := e.Base
	if base == 0 {
		base = 2
	}
	scale := e.Scale
	if scale == 0 {
		scale = 500 * time.Millisecond
	}
	maxInterval := e.MaxInterval
	if maxInterval == 0 {
		maxInterval = 600 * time.Second
	}

	if m, ok := gate(attempt, e.MaxRetries, path); !ok {
		return m
	}

	delay := time.Duration(math.Pow(base, float64(attempt)) * float64(scale))
	if delay > maxInterval || delay < 0 {
		// A negative product means the power overflowed.
		delay = maxInterval
	}

	return RetryAfter(jitter(delay, e.Jitter, e.Rand))
}

// Fixed retries after a constant delay.
type Fixed struct {
	Defaults

	// Delay is the constant interval between attempts.
	Delay time.Duration

	// MaxRetries is the attempt budget.  Zero means unlimited.
	MaxRetries uint
}

func (f *Fixed) Method(_ Reason, attempt uint, path netmon.Path) Method {
	if m, ok := gate(attempt, f.MaxRetries, path); !ok {
		return m
	}
	return RetryAfter(f.Delay)
}

// Linear grows the delay proportionally to the attempt count:
// delay = Delay*attempt, capped at MaxInterval.
type Linear struct {
	Defaults

	// Delay is the per-attempt increment.
	Delay time.Duration

	// MaxInterval caps the computed delay.  Zero means no cap.
	MaxInterval time.Duration

	// MaxRetries is the attempt budget.  Zero means unlimited.
	MaxRetries uint
}

func (l *Linear) Method(_ Reason, attempt uint, path netmon.Path) Method {
	if m, ok := gate(attempt, l.MaxRetries, path); !ok {
		return m
	}

	delay := l.Delay * time.Duration(attempt)
	if l.MaxInterval > 0 && (delay > l.MaxInterval || delay < 0) {
		delay = l.MaxInterval
	}
	return RetryAfter(delay)
}

// jitter perturbs delay by a symmetric uniform fraction and floors the
// result at zero.
func jitter(delay time.Duration, fraction float64, src func() float64) time.Duration {
	if fraction == 0 || delay == 0 {
		return delay
	}
	if src == nil {
		src = rand.Float64
	}

	// Uniform in [-fraction, +fraction).
	offset := fraction * (2*src() - 1)
	jittered := time.Duration(float64(delay) * (1 + offset))
	if jittered < 0 {
		return 0
	}
	return jittered
}
