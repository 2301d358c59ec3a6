// SPDX-FileCopyrightText: 2024 codingiran
// SPDX-License-Identifier: Apache-2.0

// Package event defines the consumer-facing notifications emitted by the
// connection controller and the listener interfaces that receive them.
// Consumers register only the listeners they care about.
package event

import (
	"fmt"
	"time"

	"github.com/codingiran/WebSocketClient/internal/backend"
	"github.com/codingiran/WebSocketClient/internal/netmon"
	"github.com/codingiran/WebSocketClient/internal/reconnect"
)

// CancelFunc is the interface that provides a method to cancel a listener.
type CancelFunc func()

// ClosureState classifies a closed connection.
type ClosureState int

const (
	// ClosureNormal means the consumer or the strategy intentionally ended
	// the session.
	ClosureNormal ClosureState = iota

	// ClosureAbnormal means the session ended through failure: a backend
	// error, an abnormal close code, or transport cancellation.
	ClosureAbnormal
)

func (c ClosureState) String() string {
	if c == ClosureNormal {
		return "normal"
	}
	return "abnormal"
}

// Status is the connection status.  The zero value is StatusClosedNormal,
// which is also a fresh controller's initial state.
type Status int

const (
	StatusClosedNormal Status = iota
	StatusClosedAbnormal
	StatusConnecting
	StatusConnected
)

// Closed returns the closed status for the given closure state.
func Closed(c ClosureState) Status {
	if c == ClosureNormal {
		return StatusClosedNormal
	}
	return StatusClosedAbnormal
}

// IsClosed reports whether the status is one of the closed variants.
func (s Status) IsClosed() bool {
	return s == StatusClosedNormal || s == StatusClosedAbnormal
}

// Closure returns the closure state and whether the status is closed at
// all.
func (s Status) Closure() (ClosureState, bool) {
	switch s {
	case StatusClosedNormal:
		return ClosureNormal, true
	case StatusClosedAbnormal:
		return ClosureAbnormal, true
	}
	return ClosureNormal, false
}

func (s Status) String() string {
	switch s {
	case StatusClosedNormal:
		return "closed(normal)"
	case StatusClosedAbnormal:
		return "closed(abnormal)"
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	}
	return fmt.Sprintf("status %d", int(s))
}

// StatusChange is the event sent on every real status transition.  A
// transition to the current status produces no event.
type StatusChange struct {
	// At holds the time of the transition.
	At time.Time

	// Previous is the status before the transition.
	Previous Status

	// Current is the status after the transition.
	Current Status
}

// StatusListener is the interface that must be implemented by types that
// want to receive StatusChange notifications.
type StatusListener interface {
	OnStatusChange(StatusChange)
}

// StatusListenerFunc is a function type that implements StatusListener.
type StatusListenerFunc func(StatusChange)

func (f StatusListenerFunc) OnStatusChange(s StatusChange) {
	f(s)
}

// Msg wraps a raw backend event for delivery to the consumer.
type Msg struct {
	// At holds the time the event was processed.
	At time.Time

	// Event is the raw backend event, unaltered.
	Event backend.Event
}

// MsgListener is the interface that must be implemented by types that want
// to receive every raw backend event.
type MsgListener interface {
	OnMessage(Msg)
}

// MsgListenerFunc is a function type that implements MsgListener.
type MsgListenerFunc func(Msg)

func (f MsgListenerFunc) OnMessage(m Msg) {
	f(m)
}

// HeartbeatType is the type of heartbeat that occurred.
type HeartbeatType int

const (
	PING HeartbeatType = iota
	PONG
)

// Heartbeat is the event sent when an auto-ping is written or a pong is
// received.
type Heartbeat struct {
	// At holds the time when the heartbeat occurred.
	At time.Time

	// Type is the type of heartbeat that occurred.
	Type HeartbeatType
}

// HeartbeatListener is the interface that must be implemented by types that
// want to receive Heartbeat notifications.
type HeartbeatListener interface {
	OnHeartbeat(Heartbeat)
}

// HeartbeatListenerFunc is a function type that implements
// HeartbeatListener.
type HeartbeatListenerFunc func(Heartbeat)

func (f HeartbeatListenerFunc) OnHeartbeat(h Heartbeat) {
	f(h)
}

// WillReconnect is sent when a scheduled reconnect attempt is about to be
// issued.
type WillReconnect struct {
	// At holds the time of the notification.
	At time.Time

	// Reason is what prompted the reconnect, unaltered.
	Reason reconnect.Reason

	// Delay is the interval the attempt was scheduled with.
	Delay time.Duration
}

// WillReconnectListener is the interface that must be implemented by types
// that want to know a reconnect attempt is imminent.
type WillReconnectListener interface {
	OnWillReconnect(WillReconnect)
}

// WillReconnectListenerFunc is a function type that implements
// WillReconnectListener.
type WillReconnectListenerFunc func(WillReconnect)

func (f WillReconnectListenerFunc) OnWillReconnect(w WillReconnect) {
	f(w)
}

// DidReconnect is sent after a reconnect attempt was actually issued.
type DidReconnect struct {
	// At holds the time of the notification.
	At time.Time

	// Reason is what prompted the reconnect, unaltered.
	Reason reconnect.Reason

	// Attempt is the attempt count including this attempt.
	Attempt uint
}

// DidReconnectListener is the interface that must be implemented by types
// that want to know a reconnect attempt was issued.
type DidReconnectListener interface {
	OnDidReconnect(DidReconnect)
}

// DidReconnectListenerFunc is a function type that implements
// DidReconnectListener.
type DidReconnectListenerFunc func(DidReconnect)

func (f DidReconnectListenerFunc) OnDidReconnect(d DidReconnect) {
	f(d)
}

// NetworkPath wraps a debounced network path update.
type NetworkPath struct {
	// At holds the time of the update.
	At time.Time

	// Path is the reported path.
	Path netmon.Path
}

// NetworkListener is the interface that must be implemented by types that
// want to receive network path updates.
type NetworkListener interface {
	OnNetworkPathChange(NetworkPath)
}

// NetworkListenerFunc is a function type that implements NetworkListener.
type NetworkListenerFunc func(NetworkPath)

func (f NetworkListenerFunc) OnNetworkPathChange(n NetworkPath) {
	f(n)
}
