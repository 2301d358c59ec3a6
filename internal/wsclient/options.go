// SPDX-FileCopyrightText: 2024 codingiran
// SPDX-License-Identifier: Apache-2.0

package wsclient

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/codingiran/WebSocketClient/internal/backend"
	"github.com/codingiran/WebSocketClient/internal/netmon"
	"github.com/codingiran/WebSocketClient/internal/reconnect"
	"github.com/codingiran/WebSocketClient/internal/wsclient/event"
)

// Option is a functional option type for Client.
type Option interface {
	apply(*Client) error
}

type optionFunc func(*Client) error

func (f optionFunc) apply(c *Client) error {
	return f(c)
}

// URL sets the ws:// or wss:// endpoint to connect to.
func URL(url string) Option {
	return optionFunc(
		func(c *Client) error {
			c.request.URL = url
			return nil
		})
}

// AdditionalHeaders sets additional headers sent with the upgrade request.
func AdditionalHeaders(headers http.Header) Option {
	return optionFunc(
		func(c *Client) error {
			if c.request.Headers == nil {
				c.request.Headers = http.Header{}
			}
			for k, values := range headers {
				for _, value := range values {
					c.request.Headers.Add(k, value)
				}
			}
			return nil
		})
}

// ConnectTimeout bounds each connection attempt.  If this is not set, the
// backend's default applies.
func ConnectTimeout(d time.Duration) Option {
	return optionFunc(
		func(c *Client) error {
			if d < 0 {
				return fmt.Errorf("%w: negative ConnectTimeout", ErrMisconfiguredClient)
			}
			c.request.ConnectTimeout = d
			return nil
		})
}

// HTTPClient overrides the HTTP client used for the upgrade request.
func HTTPClient(client *http.Client) Option {
	return optionFunc(
		func(c *Client) error {
			c.request.HTTPClient = client
			return nil
		})
}

// Backend sets the transport backend the client controls.  Required.
func Backend(b backend.Backend) Option {
	return optionFunc(
		func(c *Client) error {
			c.backend = b
			return nil
		})
}

// Strategy sets the reconnect strategy.  If this is not set, the default is
// the exponential policy with stock parameters.
func Strategy(s reconnect.Strategy) Option {
	return optionFunc(
		func(c *Client) error {
			c.strategy = s
			return nil
		})
}

// NetworkMonitor overrides the network path monitor.  If this is not set, a
// debounced interface monitor is built using NetworkDebounce.
func NetworkMonitor(m netmon.Monitor) Option {
	return optionFunc(
		func(c *Client) error {
			if m == nil {
				return fmt.Errorf("%w: nil network monitor", ErrMisconfiguredClient)
			}
			c.monitor = m
			return nil
		})
}

// NetworkDebounce sets the debounce for the default network monitor.  If
// this is not set, the default is 1 second.
func NetworkDebounce(d time.Duration) Option {
	return optionFunc(
		func(c *Client) error {
			if d <= 0 {
				return fmt.Errorf("%w: non-positive NetworkDebounce", ErrMisconfiguredClient)
			}
			c.networkDebounce = d
			return nil
		})
}

// AutoPingInterval sets the period between automatic pings while connected.
// Zero disables auto-ping.
func AutoPingInterval(d time.Duration) Option {
	return optionFunc(
		func(c *Client) error {
			if d < 0 {
				return fmt.Errorf("%w: negative AutoPingInterval", ErrMisconfiguredClient)
			}
			c.autoPingInterval = d
			return nil
		})
}

// Logger sets the logger for the client.
func Logger(logger *zap.Logger) Option {
	return optionFunc(
		func(c *Client) error {
			if logger == nil {
				return fmt.Errorf("%w: nil logger", ErrMisconfiguredClient)
			}
			c.logger = logger
			return nil
		})
}

// NowFunc sets the now function for the client.
func NowFunc(f func() time.Time) Option {
	return optionFunc(
		func(c *Client) error {
			if f == nil {
				return fmt.Errorf("%w: nil NowFunc", ErrMisconfiguredClient)
			}
			c.nowFunc = f
			return nil
		})
}

// AddStatusListener adds a status listener to the client.
func AddStatusListener(listener event.StatusListener, cancel ...*event.CancelFunc) Option {
	return optionFunc(
		func(c *Client) error {
			var ignored event.CancelFunc
			cancel = append(cancel, &ignored)
			*cancel[0] = event.CancelFunc(c.statusListeners.Add(listener))
			return nil
		})
}

// AddMessageListener adds a listener for every raw backend event.
func AddMessageListener(listener event.MsgListener, cancel ...*event.CancelFunc) Option {
	return optionFunc(
		func(c *Client) error {
			var ignored event.CancelFunc
			cancel = append(cancel, &ignored)
			*cancel[0] = event.CancelFunc(c.msgListeners.Add(listener))
			return nil
		})
}

// AddHeartbeatListener adds a heartbeat listener to the client.
func AddHeartbeatListener(listener event.HeartbeatListener, cancel ...*event.CancelFunc) Option {
	return optionFunc(
		func(c *Client) error {
			var ignored event.CancelFunc
			cancel = append(cancel, &ignored)
			*cancel[0] = event.CancelFunc(c.heartbeatListeners.Add(listener))
			return nil
		})
}

// AddWillReconnectListener adds a will-reconnect listener to the client.
func AddWillReconnectListener(listener event.WillReconnectListener, cancel ...*event.CancelFunc) Option {
	return optionFunc(
		func(c *Client) error {
			var ignored event.CancelFunc
			cancel = append(cancel, &ignored)
			*cancel[0] = event.CancelFunc(c.willReconnectListeners.Add(listener))
			return nil
		})
}

// AddDidReconnectListener adds a did-reconnect listener to the client.
func AddDidReconnectListener(listener event.DidReconnectListener, cancel ...*event.CancelFunc) Option {
	return optionFunc(
		func(c *Client) error {
			var ignored event.CancelFunc
			cancel = append(cancel, &ignored)
			*cancel[0] = event.CancelFunc(c.didReconnectListeners.Add(listener))
			return nil
		})
}

// AddNetworkListener adds a network path listener to the client.
func AddNetworkListener(listener event.NetworkListener, cancel ...*event.CancelFunc) Option {
	return optionFunc(
		func(c *Client) error {
			var ignored event.CancelFunc
			cancel = append(cancel, &ignored)
			*cancel[0] = event.CancelFunc(c.networkListeners.Add(listener))
			return nil
		})
}
