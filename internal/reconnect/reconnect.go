// SPDX-FileCopyrightText: 2024 codingiran
// SPDX-License-Identifier: Apache-2.0

// Package reconnect holds the pluggable policy deciding whether and when the
// controller should retry a failed connection.  Policies are pure decision
// functions; scheduling and attempt counting stay with the controller.
package reconnect

import (
	"fmt"
	"time"

	"github.com/codingiran/WebSocketClient/internal/backend"
	"github.com/codingiran/WebSocketClient/internal/netmon"
)

// Reason describes what prompted a reconnect evaluation.  It is carried
// through the decision unchanged and reported back to the consumer.  It is
// a sealed sum type.
type Reason interface {
	isReason()
	fmt.Stringer
}

// SuggestedByEvent marks a reconnect prompted by a backend event, such as an
// abnormal disconnect or a transport error.
type SuggestedByEvent struct {
	Event backend.Event
}

// NetworkRecovery marks a reconnect prompted by the network path becoming
// satisfied after an outage.
type NetworkRecovery struct {
	Path netmon.Path
}

func (SuggestedByEvent) isReason() {}
func (NetworkRecovery) isReason()  {}

func (r SuggestedByEvent) String() string {
	return fmt.Sprintf("suggested by event: %s", r.Event)
}

func (r NetworkRecovery) String() string {
	return fmt.Sprintf("network recovery: satisfied=%t", r.Path.Satisfied)
}

// MethodKind identifies the variant of a Method.
type MethodKind int

const (
	// MethodNone declines to reconnect.
	MethodNone MethodKind = iota

	// MethodDelay schedules a reconnect after an interval.
	MethodDelay
)

// Method is a policy's answer to "should I reconnect, and after how long?".
// A Delay with a non-positive interval is treated by the controller as "do
// not schedule", distinct from None which carries the refusal reason.
type Method struct {
	Kind     MethodKind
	Reason   string
	Interval time.Duration
}

// NoRetry returns a Method declining to reconnect for the given reason.
func NoRetry(reason string) Method {
	return Method{Kind: MethodNone, Reason: reason}
}

// RetryAfter returns a Method scheduling a reconnect after d.
func RetryAfter(d time.Duration) Method {
	return Method{Kind: MethodDelay, Interval: d}
}

// IsNone reports whether the method declines to reconnect.
func (m Method) IsNone() bool {
	return m.Kind == MethodNone
}

func (m Method) String() string {
	if m.IsNone() {
		return fmt.Sprintf("none(%s)", m.Reason)
	}
	return fmt.Sprintf("delay(%s)", m.Interval)
}

// Strategy decides whether and when to reconnect.  Implementations must be
// deterministic given identical inputs, except for explicitly randomized
// jitter.
type Strategy interface {
	// Method is the primary decision: given what prompted the evaluation,
	// how many attempts have been issued, and the current network path,
	// answer with a refusal or a delay.
	Method(reason Reason, attempt uint, path netmon.Path) Method

	// ImmediateOnRecovery reports whether a network-recovery reconnect may
	// bypass the computed delay and fire at once.
	ImmediateOnRecovery(path netmon.Path) bool

	// ShouldReconnect reports whether the given backend event warrants a
	// reconnect evaluation at all.
	ShouldReconnect(evt backend.Event) bool
}

// Defaults provides the stock answers for the secondary Strategy decisions.
// Concrete policies embed it and override what they need.
type Defaults struct{}

// ImmediateOnRecovery bypasses any backoff delay accrued while offline and
// reconnects at once when the network recovers.
func (Defaults) ImmediateOnRecovery(netmon.Path) bool {
	return true
}

// ShouldReconnect treats abnormal closures, transport errors, transport
// cancellation and explicit backend reconnect suggestions as cause for
// evaluation.  Final gating (network satisfied, retry budget) is applied by
// Method regardless.
func (Defaults) ShouldReconnect(evt backend.Event) bool {
	switch e := evt.(type) {
	case backend.Disconnected:
		return e.Code.IsAbnormal()
	case backend.TransportError, backend.Cancelled, backend.ReconnectSuggested:
		return true
	}
	return false
}

// gate applies the checks shared by every retrying policy.  A maxRetries of
// zero means no retry budget.
func gate(attempt, maxRetries uint, path netmon.Path) (Method, bool) {
	if !path.Satisfied {
		return NoRetry("network not satisfied"), false
	}
	if maxRetries > 0 && attempt >= maxRetries {
		return NoRetry("max retry reached"), false
	}
	return Method{}, true
}
