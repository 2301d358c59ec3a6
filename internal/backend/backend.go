// SPDX-FileCopyrightText: 2024 codingiran
// SPDX-License-Identifier: Apache-2.0

// Package backend defines the boundary between the connection controller and
// the wire-level WebSocket transport.  A Backend performs the handshake,
// framing and I/O; the controller only consumes its event stream and issues
// connect/disconnect/write requests.
package backend

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/codingiran/WebSocketClient/internal/closecode"
)

var (
	// ErrAlreadyConnected is returned by Connect when a connection attempt
	// is already in flight or established.
	ErrAlreadyConnected = errors.New("backend already connected")

	// ErrNotConnected is returned by Write and Disconnect when there is no
	// established connection.
	ErrNotConnected = errors.New("backend not connected")

	// ErrBackendClosed is returned once Close has been called.
	ErrBackendClosed = errors.New("backend closed")
)

// Request describes the target of a connection attempt.
type Request struct {
	// URL is the ws:// or wss:// endpoint to dial.
	URL string

	// Headers are additional headers sent with the upgrade request.
	Headers http.Header

	// ConnectTimeout bounds the dial, including the HTTP upgrade.
	ConnectTimeout time.Duration

	// HTTPClient optionally overrides the client used for the upgrade
	// request.
	HTTPClient *http.Client
}

// Backend is the transport consumed by the controller.  Connect and
// Disconnect are asynchronous: they return quickly and report their outcome
// on the event stream.  A synchronous error indicates misuse, such as
// connecting twice.
//
// A Backend instance is owned by exactly one controller.
type Backend interface {
	// Connect starts a connection attempt toward the request target.  The
	// result arrives on the event stream as either Connected or
	// TransportError.
	Connect(ctx context.Context, req Request) error

	// Disconnect closes the current connection with the given close code
	// and reason.  A Disconnected event follows.
	Disconnect(ctx context.Context, code closecode.CloseCode, reason string) error

	// Write sends a frame on the current connection.  This call blocks
	// until the write completes.
	Write(ctx context.Context, frame Frame) error

	// Events returns the stream of transport events.  The channel is
	// closed when the backend is torn down via Close.
	Events() <-chan Event

	// Close tears the backend down, releasing the connection if any and
	// closing the event stream.  The backend is not reusable afterward.
	Close() error
}
