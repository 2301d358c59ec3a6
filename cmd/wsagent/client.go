// SPDX-FileCopyrightText: 2024 codingiran
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/codingiran/WebSocketClient/internal/backend"
	"github.com/codingiran/WebSocketClient/internal/backend/coderws"
	"github.com/codingiran/WebSocketClient/internal/backend/gorillaws"
	"github.com/codingiran/WebSocketClient/internal/reconnect"
	"github.com/codingiran/WebSocketClient/internal/wsclient"
	"github.com/codingiran/WebSocketClient/internal/wsclient/event"
)

var (
	ErrClientConfig = errors.New("client configuration error")
)

func provideBackend(cfg Connection, logger *zap.Logger) (backend.Backend, error) {
	switch cfg.Backend {
	case "", "coder":
		return coderws.New(
			coderws.Logger(logger.Named("coderws")),
			coderws.MaxMessageSize(cfg.MaxMessageBytes),
		)
	case "gorilla":
		return gorillaws.New(
			gorillaws.Logger(logger.Named("gorillaws")),
			gorillaws.MaxMessageSize(cfg.MaxMessageBytes),
		)
	}

	return nil, fmt.Errorf("%w: unknown backend %q", ErrClientConfig, cfg.Backend)
}

func provideStrategy(cfg Reconnect) (reconnect.Strategy, error) {
	switch cfg.Policy {
	case "", "exponential":
		s := reconnect.DefaultExponential()
		if cfg.Base != 0 {
			s.Base = cfg.Base
		}
		if cfg.Scale != 0 {
			s.Scale = cfg.Scale
		}
		if cfg.MaxInterval != 0 {
			s.MaxInterval = cfg.MaxInterval
		}
		if cfg.Jitter != 0 {
			s.Jitter = cfg.Jitter
		}
		s.MaxRetries = cfg.MaxRetries
		return s, nil
	case "fixed":
		return &reconnect.Fixed{
			Delay:      cfg.Delay,
			MaxRetries: cfg.MaxRetries,
		}, nil
	case "linear":
		return &reconnect.Linear{
			Delay:       cfg.Delay,
			MaxInterval: cfg.MaxInterval,
			MaxRetries:  cfg.MaxRetries,
		}, nil
	case "none":
		return reconnect.Never{}, nil
	}

	return nil, fmt.Errorf("%w: unknown reconnect policy %q", ErrClientConfig, cfg.Policy)
}

type clientIn struct {
	fx.In
	Logger     *zap.Logger
	CLI        *CLI
	Connection Connection
	Network    Network
	Backend    backend.Backend
	Strategy   reconnect.Strategy
}

type clientOut struct {
	fx.Out
	Client          *wsclient.Client
	EventCancelList []event.CancelFunc
}

func provideClient(in clientIn) (clientOut, error) {
	headers := http.Header{}
	for k, values := range in.Connection.AdditionalHeaders {
		for _, value := range values {
			headers.Add(k, value)
		}
	}
	// Tag every connection of this process lifetime for server-side
	// correlation.
	headers.Set("X-Session-Id", uuid.NewString())

	httpClient, err := in.Connection.HTTPClient.NewClient()
	if err != nil {
		return clientOut{}, errors.Join(ErrClientConfig, err)
	}

	// Configuration options
	opts := []wsclient.Option{
		wsclient.URL(in.Connection.URL),
		wsclient.AdditionalHeaders(headers),
		wsclient.ConnectTimeout(in.Connection.ConnectTimeout),
		wsclient.AutoPingInterval(in.Connection.AutoPingInterval),
		wsclient.HTTPClient(httpClient),
		wsclient.Backend(in.Backend),
		wsclient.Strategy(in.Strategy),
		wsclient.Logger(in.Logger.Named("wsclient")),
		wsclient.NowFunc(time.Now),
	}
	if in.Network.Debounce > 0 {
		opts = append(opts, wsclient.NetworkDebounce(in.Network.Debounce))
	}

	// Listener options
	var (
		status, msg, heartbeat, will, did, network event.CancelFunc
		cancelList                                 []event.CancelFunc
	)
	if in.CLI.Dev {
		logger := in.Logger.Named("wsclient")
		opts = append(opts,
			wsclient.AddStatusListener(
				event.StatusListenerFunc(
					func(e event.StatusChange) {
						logger.Info("status listener", zap.Any("event", e))
					}), &status),
			wsclient.AddMessageListener(
				event.MsgListenerFunc(
					func(e event.Msg) {
						logger.Info("message listener", zap.Any("event", e))
					}), &msg),
			wsclient.AddHeartbeatListener(
				event.HeartbeatListenerFunc(
					func(e event.Heartbeat) {
						logger.Info("heartbeat listener", zap.Any("event", e))
					}), &heartbeat),
			wsclient.AddWillReconnectListener(
				event.WillReconnectListenerFunc(
					func(e event.WillReconnect) {
						logger.Info("will-reconnect listener", zap.Any("event", e))
					}), &will),
			wsclient.AddDidReconnectListener(
				event.DidReconnectListenerFunc(
					func(e event.DidReconnect) {
						logger.Info("did-reconnect listener", zap.Any("event", e))
					}), &did),
			wsclient.AddNetworkListener(
				event.NetworkListenerFunc(
					func(e event.NetworkPath) {
						logger.Info("network listener", zap.Any("event", e))
					}), &network),
		)
		cancelList = append(cancelList, status, msg, heartbeat, will, did, network)
	}

	client, err := wsclient.New(opts...)
	if err != nil {
		return clientOut{}, errors.Join(ErrClientConfig, err)
	}

	return clientOut{
		Client:          client,
		EventCancelList: cancelList,
	}, nil
}
