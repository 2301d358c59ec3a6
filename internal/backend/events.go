// SPDX-FileCopyrightText: 2024 codingiran
// SPDX-License-Identifier: Apache-2.0

package backend

import (
	"fmt"
	"net/http"

	"github.com/codingiran/WebSocketClient/internal/closecode"
)

// Event is a transport event emitted by a Backend.  It is a sealed sum
// type; the concrete variants below are the only implementations.
type Event interface {
	isEvent()
	fmt.Stringer
}

// Connected reports a completed handshake.
type Connected struct {
	// Headers are the response headers from the upgrade, when available.
	Headers http.Header
}

// Disconnected reports a closed connection along with the peer's close code
// and reason.  Code.IsAbnormal classifies the closure.
type Disconnected struct {
	Code   closecode.CloseCode
	Reason string
}

// TextMessage carries an inbound text frame.
type TextMessage struct {
	Text string
}

// BinaryMessage carries an inbound binary frame.
type BinaryMessage struct {
	Data []byte
}

// Pong reports a pong received from the peer.
type Pong struct{}

// Cancelled reports that the transport was torn down without a close
// handshake, for example because its context was cancelled.
type Cancelled struct{}

// ReconnectSuggested is a hint from the transport that the connection is
// degraded and a reconnect is advisable, distinct from an abnormal closure.
type ReconnectSuggested struct{}

// TransportError reports a transport failure, including failed connection
// attempts.
type TransportError struct {
	Err error
}

func (Connected) isEvent()          {}
func (Disconnected) isEvent()       {}
func (TextMessage) isEvent()        {}
func (BinaryMessage) isEvent()      {}
func (Pong) isEvent()               {}
func (Cancelled) isEvent()          {}
func (ReconnectSuggested) isEvent() {}
func (TransportError) isEvent()     {}

func (Connected) String() string { return "connected" }

func (e Disconnected) String() string {
	return fmt.Sprintf("disconnected(%s, %q)", e.Code, e.Reason)
}

func (e TextMessage) String() string {
	return fmt.Sprintf("text(%d bytes)", len(e.Text))
}

func (e BinaryMessage) String() string {
	return fmt.Sprintf("binary(%d bytes)", len(e.Data))
}

func (Pong) String() string               { return "pong" }
func (Cancelled) String() string          { return "cancelled" }
func (ReconnectSuggested) String() string { return "reconnect suggested" }

func (e TransportError) String() string {
	return fmt.Sprintf("error(%v)", e.Err)
}
