// SPDX-FileCopyrightText: 2024 codingiran
// SPDX-License-Identifier: Apache-2.0

// Package wsclient implements the resilient-connection controller.  It owns
// the connection lifecycle above a pluggable transport backend: status
// transitions, auto-ping, reconnect scheduling driven by a pluggable
// strategy, and reaction to network path changes.
//
// All mutable state is guarded by a single mutex; every entry point (user
// calls, backend events, network callbacks, timer fires) funnels through it,
// so check-then-act sequences are race free.  Listeners are invoked on that
// serialized context and must not call back into the client.
package wsclient

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/xmidt-org/eventor"
	"go.uber.org/zap"

	"github.com/codingiran/WebSocketClient/internal/backend"
	"github.com/codingiran/WebSocketClient/internal/closecode"
	"github.com/codingiran/WebSocketClient/internal/netmon"
	"github.com/codingiran/WebSocketClient/internal/reconnect"
	"github.com/codingiran/WebSocketClient/internal/timer"
	"github.com/codingiran/WebSocketClient/internal/wsclient/event"
)

var ErrMisconfiguredClient = errors.New("misconfigured client")

// Client is the connection controller.  Create one with New, call Start to
// begin consuming backend events and watching the network, then drive it
// with Connect, Disconnect and Send.  The client is reusable across
// arbitrarily many connect/disconnect cycles until Stop.
type Client struct {
	// request describes the connection target.
	request backend.Request

	// backend is the transport this client controls.
	backend backend.Backend

	// strategy decides whether and when to reconnect.
	strategy reconnect.Strategy

	// monitor watches the network path.
	monitor netmon.Monitor

	// autoPingInterval is the period between automatic pings while
	// connected.  Zero disables auto-ping.
	autoPingInterval time.Duration

	// networkDebounce is the debounce used when building the default
	// network monitor.
	networkDebounce time.Duration

	// nowFunc is the now function for the client.
	nowFunc func() time.Time

	// logger is the logger for the client.
	logger *zap.Logger

	statusListeners        eventor.Eventor[event.StatusListener]
	msgListeners           eventor.Eventor[event.MsgListener]
	heartbeatListeners     eventor.Eventor[event.HeartbeatListener]
	willReconnectListeners eventor.Eventor[event.WillReconnectListener]
	didReconnectListeners  eventor.Eventor[event.DidReconnectListener]
	networkListeners       eventor.Eventor[event.NetworkListener]

	m        sync.Mutex
	wg       sync.WaitGroup
	ctx      context.Context
	shutdown context.CancelFunc
	stopped  bool

	status         event.Status
	reconnectCount uint
	pingTimer      *timer.Timer
	reconnectTimer *timer.Timer
	pathCancel     netmon.CancelFunc

	// resume holds a reconnect requested while still connected.  The socket
	// must close first; the pending attempt is scheduled once the resulting
	// closure event lands.
	resume *pendingReconnect
}

type pendingReconnect struct {
	reason    reconnect.Reason
	immediate bool
}

// New creates a new client with the given options.  A backend and a target
// URL are required; everything else has defaults.
func New(opts ...Option) (*Client, error) {
	c := Client{
		strategy:        reconnect.DefaultExponential(),
		networkDebounce: time.Second,
		nowFunc:         time.Now,
		logger:          zap.NewNop(),
	}

	opts = append(opts,
		validateBackend(),
		validateURL(),
		validateStrategy(),
		validateNowFunc(),
	)

	for _, opt := range opts {
		if opt != nil {
			if err := opt.apply(&c); err != nil {
				return nil, err
			}
		}
	}

	if c.monitor == nil {
		monitor, err := netmon.New(
			netmon.Debounce(c.networkDebounce),
			netmon.Logger(c.logger.Named("netmon")),
		)
		if err != nil {
			return nil, err
		}
		c.monitor = monitor
	}

	return &c, nil
}

// Start begins consuming the backend event stream and watching the network
// path.  It does not connect; call Connect for that.  Calling Start twice
// is a no-op, as is calling Start on a stopped client.
func (c *Client) Start() {
	c.m.Lock()
	defer c.m.Unlock()

	if c.shutdown != nil || c.stopped {
		return
	}

	c.ctx, c.shutdown = context.WithCancel(context.Background())

	c.wg.Add(1)
	go c.eventLoop(c.ctx)

	c.pathCancel = c.monitor.AddPathListener(
		netmon.PathListenerFunc(c.onPathUpdate))
	c.monitor.Fire()
}

// Stop tears the client down: cancels timers, unsubscribes from the network
// monitor, closes the backend and stops consuming its events.  The client
// is not reusable afterward.
func (c *Client) Stop() {
	c.m.Lock()
	if c.shutdown == nil {
		c.m.Unlock()
		return
	}
	shutdown := c.shutdown
	c.shutdown = nil
	c.stopped = true

	c.disableAutoPingLocked()
	c.destroyReconnectTimerLocked(true)
	c.resume = nil
	if c.pathCancel != nil {
		c.pathCancel()
		c.pathCancel = nil
	}
	c.m.Unlock()

	c.monitor.Invalidate()
	shutdown()
	if err := c.backend.Close(); err != nil {
		c.logger.Debug("backend close", zap.Error(err))
	}
	c.wg.Wait()
}

// Connect initiates a connection attempt.  It returns true when the attempt
// was issued, not when the connection is established; the outcome arrives
// through status and event notifications.  Connect is rejected while the
// client is connecting or connected, or before Start.
func (c *Client) Connect() bool {
	c.m.Lock()
	defer c.m.Unlock()
	return c.connectLocked()
}

// Disconnect intentionally ends the session with the given close code and
// reason.  It is always permitted: auto-ping is disabled and any pending
// reconnect is destroyed (with the attempt count reset) before the backend
// is asked to close, so no reconnect fires after this call returns.
func (c *Client) Disconnect(code closecode.CloseCode, reason string) {
	c.m.Lock()
	c.disconnectLocked(code, reason)
	c.m.Unlock()
}

// Send writes a frame on the established connection.  Frames sent while not
// connected are dropped and logged, never an error; only backend transport
// failures are returned.
func (c *Client) Send(ctx context.Context, frame backend.Frame) error {
	c.m.Lock()
	if c.status != event.StatusConnected {
		c.logger.Warn("send dropped",
			zap.Stringer("status", c.status),
			zap.Stringer("frame", frame.Kind),
		)
		c.m.Unlock()
		return nil
	}
	c.m.Unlock()

	return c.backend.Write(ctx, frame)
}

// Status returns the current connection status.
func (c *Client) Status() event.Status {
	c.m.Lock()
	defer c.m.Unlock()
	return c.status
}

// ReconnectCount returns the number of reconnect attempts issued since the
// last successful connection or explicit disconnect.
func (c *Client) ReconnectCount() uint {
	c.m.Lock()
	defer c.m.Unlock()
	return c.reconnectCount
}

func (c *Client) connectLocked() bool {
	if c.shutdown == nil {
		c.logger.Warn("connect rejected: client not started")
		return false
	}
	if !c.status.IsClosed() {
		c.logger.Warn("connect rejected", zap.Stringer("status", c.status))
		return false
	}

	c.setStatusLocked(event.StatusConnecting)

	if err := c.backend.Connect(c.ctx, c.request); err != nil {
		c.logger.Error("backend connect failed", zap.Error(err))
		c.setStatusLocked(event.StatusClosedAbnormal)
		return false
	}
	return true
}

func (c *Client) disconnectLocked(code closecode.CloseCode, reason string) {
	c.disableAutoPingLocked()
	c.destroyReconnectTimerLocked(true)
	c.resume = nil

	ctx := c.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	if err := c.backend.Disconnect(ctx, code, reason); err != nil {
		c.logger.Debug("backend disconnect", zap.Error(err))
	}
}

// setStatusLocked is the single status update path.  Setting the current
// status again is a no-op: no side effects, no notification.  On a real
// transition the new status is stored, transition side effects run, and the
// consumer is notified exactly once, in that order.
func (c *Client) setStatusLocked(next event.Status) {
	if next == c.status {
		return
	}
	prev := c.status
	c.status = next

	switch {
	case next == event.StatusConnected:
		// The attempt succeeded.
		c.destroyReconnectTimerLocked(true)
		c.resume = nil
		c.enableAutoPingLocked()
	case next.IsClosed():
		c.disableAutoPingLocked()
		closure, _ := next.Closure()
		// An abnormal closure keeps the attempt count so backoff
		// continues to escalate across repeated failures.
		c.destroyReconnectTimerLocked(closure == event.ClosureNormal)
	}

	c.logger.Debug("status transition",
		zap.Stringer("from", prev),
		zap.Stringer("to", next),
	)

	change := event.StatusChange{At: c.nowFunc(), Previous: prev, Current: next}
	c.statusListeners.Visit(func(l event.StatusListener) {
		l.OnStatusChange(change)
	})
}

// eventLoop is the single consumer of the backend event stream.  Events are
// processed in the order the backend emits them.
func (c *Client) eventLoop(ctx context.Context) {
	defer c.wg.Done()

	events := c.backend.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			c.handleEvent(evt)
		}
	}
}

func (c *Client) handleEvent(evt backend.Event) {
	c.m.Lock()
	defer c.m.Unlock()

	switch e := evt.(type) {
	case backend.Connected:
		c.setStatusLocked(event.StatusConnected)
	case backend.Disconnected:
		if e.Code.IsAbnormal() {
			c.setStatusLocked(event.StatusClosedAbnormal)
		} else {
			c.setStatusLocked(event.StatusClosedNormal)
		}
	case backend.TransportError, backend.Cancelled:
		c.setStatusLocked(event.StatusClosedAbnormal)
	case backend.Pong:
		hb := event.Heartbeat{At: c.nowFunc(), Type: event.PONG}
		c.heartbeatListeners.Visit(func(l event.HeartbeatListener) {
			l.OnHeartbeat(hb)
		})
	}

	msg := event.Msg{At: c.nowFunc(), Event: evt}
	c.msgListeners.Visit(func(l event.MsgListener) {
		l.OnMessage(msg)
	})

	switch {
	case c.strategy.ShouldReconnect(evt):
		c.reconnectLocked(reconnect.SuggestedByEvent{Event: evt}, false)
	case c.resume != nil && c.status.IsClosed():
		// The closure this reconnect was waiting on has landed.
		pending := c.resume
		c.resume = nil
		c.reconnectLocked(pending.reason, pending.immediate)
	default:
		// No pending retries survive an event the strategy declines.
		c.destroyReconnectTimerLocked(true)
	}
}

// onPathUpdate is the network monitor callback.  The very first report
// after subscribing is never treated as a recovery, and a recovery only
// matters while closed abnormally: it never interrupts an intentional
// closure or an in-progress connect.
func (c *Client) onPathUpdate(path netmon.Path) {
	c.m.Lock()
	defer c.m.Unlock()

	np := event.NetworkPath{At: c.nowFunc(), Path: path}
	c.networkListeners.Visit(func(l event.NetworkListener) {
		l.OnNetworkPathChange(np)
	})

	if !path.Satisfied {
		return
	}
	if path.FirstUpdate {
		c.logger.Debug("ignoring first network path update")
		return
	}
	if c.status != event.StatusClosedAbnormal {
		return
	}

	immediate := c.strategy.ImmediateOnRecovery(path)
	c.reconnectLocked(reconnect.NetworkRecovery{Path: path}, immediate)
}

// reconnectLocked evaluates the strategy and schedules a reconnect attempt.
// A reconnect while already connecting is skipped so attempts never
// duplicate.
func (c *Client) reconnectLocked(reason reconnect.Reason, immediate bool) {
	// This evaluation supersedes any reconnect deferred behind a closure
	// that has not landed yet; a stale one must never fire later with an
	// outdated reason.
	c.resume = nil

	if c.status == event.StatusConnecting {
		c.logger.Debug("reconnect skipped: already connecting")
		return
	}

	method := c.strategy.Method(reason, c.reconnectCount, c.monitor.CurrentPath())
	if method.IsNone() {
		c.logger.Info("reconnect declined", zap.String("reason", method.Reason))
		return
	}
	if method.Interval <= 0 {
		c.logger.Debug("reconnect not scheduled: non-positive delay")
		return
	}

	if c.status == event.StatusConnected {
		// Close the still-open socket first so the retry starts clean; the
		// attempt is scheduled once the closure event arrives.
		c.disconnectLocked(closecode.NormalClosure, "reconnect requested")
		c.resume = &pendingReconnect{reason: reason, immediate: immediate}
		return
	}

	delay := method.Interval
	if immediate {
		delay = 0
	}

	// The old timer is destroyed strictly before a new one is scheduled.
	c.destroyReconnectTimerLocked(false)

	var t *timer.Timer
	t, err := timer.New(delay, func() {
		c.executeReconnect(t, reason, delay)
	})
	if err != nil {
		// Unreachable: delay is non-negative and the handler is set.
		c.logger.Error("failed to build reconnect timer", zap.Error(err))
		return
	}

	c.reconnectTimer = t
	c.logger.Info("reconnect scheduled",
		zap.Duration("delay", delay),
		zap.String("reason", reason.String()),
	)
	t.Start()
}

// executeReconnect runs when the reconnect timer fires.  The attempt count
// increments only when connect was actually issued; a rejected connect (the
// status changed while the timer was pending) does not count.
func (c *Client) executeReconnect(t *timer.Timer, reason reconnect.Reason, delay time.Duration) {
	c.m.Lock()
	defer c.m.Unlock()

	if c.reconnectTimer != t {
		// Destroyed or replaced after this fire was already in flight.
		return
	}
	c.reconnectTimer = nil

	will := event.WillReconnect{At: c.nowFunc(), Reason: reason, Delay: delay}
	c.willReconnectListeners.Visit(func(l event.WillReconnectListener) {
		l.OnWillReconnect(will)
	})

	if !c.connectLocked() {
		return
	}

	c.reconnectCount++
	did := event.DidReconnect{At: c.nowFunc(), Reason: reason, Attempt: c.reconnectCount}
	c.didReconnectListeners.Visit(func(l event.DidReconnectListener) {
		l.OnDidReconnect(did)
	})
}

// destroyReconnectTimerLocked cancels any pending reconnect.  The attempt
// count is reset only when the caller says so: a successful connection or
// an intentional closure resets it, an abnormal closure preserves it.
func (c *Client) destroyReconnectTimerLocked(reset bool) {
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
	if reset {
		c.reconnectCount = 0
	}
}

func (c *Client) enableAutoPingLocked() {
	if c.autoPingInterval <= 0 {
		return
	}
	if c.pingTimer != nil {
		c.pingTimer.Stop()
	}

	var t *timer.Timer
	t, err := timer.New(c.autoPingInterval, func() {
		c.sendAutoPing(t)
	}, timer.Repeats())
	if err != nil {
		// Unreachable: the interval was validated at construction.
		c.logger.Error("failed to build ping timer", zap.Error(err))
		return
	}

	c.pingTimer = t
	t.Start()
}

func (c *Client) disableAutoPingLocked() {
	if c.pingTimer != nil {
		c.pingTimer.Stop()
		c.pingTimer = nil
	}
}

func (c *Client) sendAutoPing(t *timer.Timer) {
	c.m.Lock()
	if c.pingTimer != t || c.status != event.StatusConnected {
		c.m.Unlock()
		return
	}
	ctx := c.ctx
	hb := event.Heartbeat{At: c.nowFunc(), Type: event.PING}
	c.m.Unlock()

	if err := c.backend.Write(ctx, backend.Ping()); err != nil {
		c.logger.Warn("auto-ping write failed", zap.Error(err))
		return
	}

	c.heartbeatListeners.Visit(func(l event.HeartbeatListener) {
		l.OnHeartbeat(hb)
	})
}
