// SPDX-FileCopyrightText: 2024 codingiran
// SPDX-License-Identifier: Apache-2.0

package coderws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codingiran/WebSocketClient/internal/backend"
	"github.com/codingiran/WebSocketClient/internal/closecode"
)

func wsURL(s *httptest.Server) string {
	return strings.Replace(s.URL, "http://", "ws://", 1)
}

func nextEvent(t *testing.T, events <-chan backend.Event) backend.Event {
	t.Helper()
	select {
	case evt, ok := <-events:
		require.True(t, ok, "event stream closed unexpectedly")
		return evt
	case <-time.After(5 * time.Second):
		require.FailNow(t, "timed out waiting for event")
		return nil
	}
}

func echoServer(t *testing.T) *httptest.Server {
	t.Helper()
	s := httptest.NewServer(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, err := websocket.Accept(w, r, nil)
			if err != nil {
				return
			}
			defer c.CloseNow()

			ctx := r.Context()
			for {
				typ, data, err := c.Read(ctx)
				if err != nil {
					return
				}
				if err = c.Write(ctx, typ, data); err != nil {
					return
				}
			}
		}))
	t.Cleanup(s.Close)
	return s
}

func TestEndToEnd(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	s := echoServer(t)

	b, err := New()
	require.NoError(err)
	defer b.Close()

	ctx := context.Background()
	require.NoError(b.Connect(ctx, backend.Request{URL: wsURL(s)}))

	evt := nextEvent(t, b.Events())
	require.IsType(backend.Connected{}, evt)

	// A second connect while established is misuse.
	assert.ErrorIs(b.Connect(ctx, backend.Request{URL: wsURL(s)}),
		backend.ErrAlreadyConnected)

	require.NoError(b.Write(ctx, backend.Text("hello")))
	evt = nextEvent(t, b.Events())
	require.Equal(backend.TextMessage{Text: "hello"}, evt)

	require.NoError(b.Write(ctx, backend.Binary([]byte{0x01, 0x02})))
	evt = nextEvent(t, b.Events())
	require.Equal(backend.BinaryMessage{Data: []byte{0x01, 0x02}}, evt)

	require.NoError(b.Write(ctx, backend.Ping()))
	evt = nextEvent(t, b.Events())
	require.IsType(backend.Pong{}, evt)

	require.NoError(b.Disconnect(ctx, closecode.NormalClosure, "done"))
	evt = nextEvent(t, b.Events())
	require.Equal(
		backend.Disconnected{Code: closecode.NormalClosure, Reason: "done"},
		evt)

	assert.ErrorIs(b.Write(ctx, backend.Text("late")), backend.ErrNotConnected)
}

func TestDialFailure(t *testing.T) {
	require := require.New(t)

	b, err := New()
	require.NoError(err)
	defer b.Close()

	require.NoError(b.Connect(context.Background(), backend.Request{
		URL:            "ws://127.0.0.1:0/nope",
		ConnectTimeout: time.Second,
	}))

	evt := nextEvent(t, b.Events())
	require.IsType(backend.TransportError{}, evt)
}

func TestServerInitiatedClose(t *testing.T) {
	require := require.New(t)

	s := httptest.NewServer(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, err := websocket.Accept(w, r, nil)
			if err != nil {
				return
			}
			c.Close(websocket.StatusGoingAway, "bye")
		}))
	t.Cleanup(s.Close)

	b, err := New()
	require.NoError(err)
	defer b.Close()

	require.NoError(b.Connect(context.Background(), backend.Request{URL: wsURL(s)}))

	evt := nextEvent(t, b.Events())
	require.IsType(backend.Connected{}, evt)

	evt = nextEvent(t, b.Events())
	require.IsType(backend.Disconnected{}, evt)
	require.Equal(closecode.GoingAway, evt.(backend.Disconnected).Code)
}

func TestDisconnectAbortsDial(t *testing.T) {
	require := require.New(t)

	// A server that never answers the upgrade keeps the dial in flight.
	s := httptest.NewServer(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}))
	t.Cleanup(s.Close)

	b, err := New()
	require.NoError(err)
	defer b.Close()

	require.NoError(b.Connect(context.Background(), backend.Request{URL: wsURL(s)}))
	require.NoError(b.Disconnect(context.Background(), closecode.NormalClosure, "user quit"))

	// The intentional closure is reported as such, never as a transport
	// failure.
	evt := nextEvent(t, b.Events())
	require.Equal(
		backend.Disconnected{Code: closecode.NormalClosure, Reason: "user quit"},
		evt)

	select {
	case extra, ok := <-b.Events():
		if ok {
			require.FailNowf("unexpected event", "%s", extra)
		}
	case <-time.After(100 * time.Millisecond):
	}
}

func TestLifecycleErrors(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	b, err := New()
	require.NoError(err)

	ctx := context.Background()
	assert.ErrorIs(b.Write(ctx, backend.Text("x")), backend.ErrNotConnected)
	assert.ErrorIs(b.Disconnect(ctx, closecode.NormalClosure, ""), backend.ErrNotConnected)

	require.NoError(b.Close())
	assert.ErrorIs(b.Connect(ctx, backend.Request{URL: "ws://example.com"}),
		backend.ErrBackendClosed)

	// The event stream is closed after teardown.
	_, ok := <-b.Events()
	assert.False(ok)

	// Close twice is safe.
	assert.NoError(b.Close())
}

func TestNew(t *testing.T) {
	tests := []struct {
		description string
		opts        []Option
		expectedErr error
	}{
		{
			description: "defaults",
		}, {
			description: "with limits",
			opts:        []Option{MaxMessageSize(1 << 20)},
		}, {
			description: "nil logger",
			opts:        []Option{Logger(nil)},
			expectedErr: ErrMisconfiguredBackend,
		}, {
			description: "negative max message size",
			opts:        []Option{MaxMessageSize(-1)},
			expectedErr: ErrMisconfiguredBackend,
		},
	}
	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			assert := assert.New(t)

			got, err := New(tc.opts...)

			if tc.expectedErr != nil {
				assert.ErrorIs(err, tc.expectedErr)
				assert.Nil(got)
				return
			}
			assert.NoError(err)
			assert.NotNil(got)
		})
	}
}
