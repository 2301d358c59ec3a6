// SPDX-FileCopyrightText: 2024 codingiran
// SPDX-License-Identifier: Apache-2.0

// Package gorillaws implements the transport backend on top of
// github.com/gorilla/websocket.
package gorillaws

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/codingiran/WebSocketClient/internal/backend"
	"github.com/codingiran/WebSocketClient/internal/closecode"
)

var ErrMisconfiguredBackend = errors.New("misconfigured backend")

const defaultControlTimeout = 10 * time.Second

// Backend is a gorilla/websocket transport.  Dialing happens on its own
// goroutine; outcomes and incoming frames arrive on the event stream.
//
// gorilla connections permit one concurrent writer, so all writes, control
// frames included, go through a write mutex.
type Backend struct {
	logger    *zap.Logger
	readLimit int64

	events chan backend.Event
	done   chan struct{}
	wg     sync.WaitGroup

	closeOnce sync.Once

	m           sync.Mutex
	conn        *websocket.Conn
	dialing     bool
	closed      bool
	localClose  bool
	dialAborted bool
	cancelDial  context.CancelFunc

	writeM sync.Mutex
}

// Option is a functional option type for Backend.
type Option interface {
	apply(*Backend) error
}

type optionFunc func(*Backend) error

func (f optionFunc) apply(b *Backend) error {
	return f(b)
}

// Logger sets the logger for the backend.
func Logger(logger *zap.Logger) Option {
	return optionFunc(
		func(b *Backend) error {
			if logger == nil {
				return fmt.Errorf("%w: nil logger", ErrMisconfiguredBackend)
			}
			b.logger = logger
			return nil
		})
}

// MaxMessageSize limits the size of received messages, in bytes.
func MaxMessageSize(limit int64) Option {
	return optionFunc(
		func(b *Backend) error {
			if limit < 0 {
				return fmt.Errorf("%w: negative max message size", ErrMisconfiguredBackend)
			}
			b.readLimit = limit
			return nil
		})
}

// New creates a gorilla/websocket backend.
func New(opts ...Option) (*Backend, error) {
	b := Backend{
		logger: zap.NewNop(),
		events: make(chan backend.Event, 32),
		done:   make(chan struct{}),
	}

	for _, opt := range opts {
		if opt != nil {
			if err := opt.apply(&b); err != nil {
				return nil, err
			}
		}
	}

	return &b, nil
}

func (b *Backend) Connect(ctx context.Context, req backend.Request) error {
	b.m.Lock()
	defer b.m.Unlock()

	if b.closed {
		return backend.ErrBackendClosed
	}
	if b.dialing || b.conn != nil {
		return backend.ErrAlreadyConnected
	}

	var (
		dialCtx context.Context
		cancel  context.CancelFunc
	)
	if req.ConnectTimeout > 0 {
		dialCtx, cancel = context.WithTimeout(ctx, req.ConnectTimeout)
	} else {
		dialCtx, cancel = context.WithCancel(ctx)
	}

	b.dialing = true
	b.cancelDial = cancel

	b.wg.Add(1)
	go b.dial(dialCtx, cancel, req)

	return nil
}

func (b *Backend) dial(ctx context.Context, cancel context.CancelFunc, req backend.Request) {
	defer b.wg.Done()
	defer cancel()

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: req.ConnectTimeout,
	}
	if req.HTTPClient != nil {
		dialer.Jar = req.HTTPClient.Jar
	}

	conn, resp, err := dialer.DialContext(ctx, req.URL, req.Headers) //nolint:bodyclose // the library owns resp.Body

	b.m.Lock()
	b.dialing = false
	b.cancelDial = nil
	aborted := b.dialAborted
	b.dialAborted = false

	if err != nil {
		b.m.Unlock()
		b.logger.Debug("dial failed", zap.String("url", req.URL), zap.Error(err))
		if aborted {
			// Disconnect aborted the dial and already reported the closure.
			return
		}
		if errors.Is(err, context.Canceled) {
			b.emit(backend.Cancelled{})
		} else {
			b.emit(backend.TransportError{Err: err})
		}
		return
	}

	if b.closed || aborted {
		b.m.Unlock()
		_ = conn.Close()
		return
	}

	if b.readLimit > 0 {
		conn.SetReadLimit(b.readLimit)
	}
	conn.SetPongHandler(func(string) error {
		b.emit(backend.Pong{})
		return nil
	})
	b.conn = conn
	b.localClose = false
	b.m.Unlock()

	var headers map[string][]string
	if resp != nil {
		headers = resp.Header
	}
	b.emit(backend.Connected{Headers: headers})

	b.wg.Add(1)
	go b.readLoop(conn)
}

func (b *Backend) readLoop(conn *websocket.Conn) {
	defer b.wg.Done()

	for {
		typ, data, err := conn.ReadMessage()
		if err != nil {
			b.finishRead(conn, err)
			return
		}

		switch typ {
		case websocket.TextMessage:
			b.emit(backend.TextMessage{Text: string(data)})
		case websocket.BinaryMessage:
			b.emit(backend.BinaryMessage{Data: data})
		}
	}
}

// finishRead clears the connection and reports how it ended.  A closure we
// initiated ourselves was already reported by Disconnect or Close.
func (b *Backend) finishRead(conn *websocket.Conn, err error) {
	b.m.Lock()
	local := b.localClose
	if b.conn == conn {
		b.conn = nil
	}
	b.m.Unlock()

	_ = conn.Close()

	if local {
		return
	}

	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		b.emit(backend.Disconnected{
			Code:   closecode.FromInt(ce.Code),
			Reason: ce.Text,
		})
		return
	}
	b.emit(backend.TransportError{Err: err})
}

func (b *Backend) Disconnect(_ context.Context, code closecode.CloseCode, reason string) error {
	b.m.Lock()
	conn := b.conn
	cancel := b.cancelDial
	if conn != nil {
		b.conn = nil
		b.localClose = true
	} else if cancel != nil {
		// Mark the abort before cancelling so the dial goroutine never
		// reports this intentional closure as a transport failure.
		b.dialAborted = true
	}
	b.m.Unlock()

	if conn == nil {
		if cancel == nil {
			return backend.ErrNotConnected
		}
		cancel()
		b.emit(backend.Disconnected{Code: code, Reason: reason})
		return nil
	}

	b.writeM.Lock()
	err := conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(int(code), reason),
		time.Now().Add(defaultControlTimeout))
	b.writeM.Unlock()

	_ = conn.Close()
	b.emit(backend.Disconnected{Code: code, Reason: reason})
	return err
}

func (b *Backend) Write(_ context.Context, frame backend.Frame) error {
	b.m.Lock()
	conn := b.conn
	b.m.Unlock()

	if conn == nil {
		return backend.ErrNotConnected
	}

	b.writeM.Lock()
	defer b.writeM.Unlock()

	switch frame.Kind {
	case backend.FramePing:
		// The pong arrives through the pong handler on the read loop.
		return conn.WriteControl(websocket.PingMessage, nil,
			time.Now().Add(defaultControlTimeout))
	case backend.FrameText:
		return conn.WriteMessage(websocket.TextMessage, []byte(frame.Text))
	case backend.FrameBinary:
		return conn.WriteMessage(websocket.BinaryMessage, frame.Data)
	default:
		return fmt.Errorf("%w: unknown frame kind %d", ErrMisconfiguredBackend, frame.Kind)
	}
}

func (b *Backend) Events() <-chan backend.Event {
	return b.events
}

func (b *Backend) Close() error {
	b.closeOnce.Do(func() {
		b.m.Lock()
		b.closed = true
		b.localClose = true
		conn := b.conn
		b.conn = nil
		cancel := b.cancelDial
		b.m.Unlock()

		close(b.done)
		if cancel != nil {
			cancel()
		}
		if conn != nil {
			_ = conn.Close()
		}

		b.wg.Wait()
		close(b.events)
	})
	return nil
}

// emit delivers an event unless the backend has been torn down.
func (b *Backend) emit(evt backend.Event) {
	select {
	case <-b.done:
	case b.events <- evt:
	}
}
