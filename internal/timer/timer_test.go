// SPDX-FileCopyrightText: 2024 codingiran
// SPDX-License-Identifier: Apache-2.0

package timer

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		description string
		interval    time.Duration
		handler     func()
		opts        []Option
		expectedErr error
	}{
		{
			description: "valid one-shot",
			interval:    time.Second,
			handler:     func() {},
		}, {
			description: "zero interval is allowed",
			interval:    0,
			handler:     func() {},
		}, {
			description: "negative interval",
			interval:    -1,
			handler:     func() {},
			expectedErr: ErrMisconfiguredTimer,
		}, {
			description: "nil handler",
			interval:    time.Second,
			expectedErr: ErrMisconfiguredTimer,
		}, {
			description: "fire immediately requires repeats",
			interval:    time.Second,
			handler:     func() {},
			opts:        []Option{FireImmediately()},
			expectedErr: ErrMisconfiguredTimer,
		}, {
			description: "repeating with immediate fire",
			interval:    time.Second,
			handler:     func() {},
			opts:        []Option{Repeats(), FireImmediately()},
		},
	}
	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			assert := assert.New(t)

			got, err := New(tc.interval, tc.handler, tc.opts...)

			if tc.expectedErr != nil {
				assert.ErrorIs(err, tc.expectedErr)
				assert.Nil(got)
				return
			}

			assert.NoError(err)
			assert.NotNil(got)
			assert.False(got.Active())
		})
	}
}

func TestOneShotFires(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	var fired atomic.Int32
	tm, err := New(10*time.Millisecond, func() { fired.Add(1) })
	require.NoError(err)

	tm.Start()
	assert.True(tm.Active())

	time.Sleep(100 * time.Millisecond)
	assert.Equal(int32(1), fired.Load())
	assert.False(tm.Active())
}

func TestStopPreventsFiring(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	var fired atomic.Int32
	tm, err := New(50*time.Millisecond, func() { fired.Add(1) })
	require.NoError(err)

	tm.Start()
	tm.Stop()
	assert.False(tm.Active())

	time.Sleep(120 * time.Millisecond)
	assert.Equal(int32(0), fired.Load())
}

func TestStopWhenIdle(t *testing.T) {
	require := require.New(t)

	tm, err := New(time.Second, func() {})
	require.NoError(err)

	// Safe no-ops.
	tm.Stop()
	tm.Stop()
}

func TestRepeats(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	var fired atomic.Int32
	tm, err := New(10*time.Millisecond, func() { fired.Add(1) }, Repeats())
	require.NoError(err)

	tm.Start()
	time.Sleep(105 * time.Millisecond)
	tm.Stop()

	got := fired.Load()
	assert.GreaterOrEqual(got, int32(3))

	// No further firing after Stop.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(got, fired.Load())
}

func TestFireImmediately(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	var fired atomic.Int32
	tm, err := New(time.Hour, func() { fired.Add(1) }, Repeats(), FireImmediately())
	require.NoError(err)

	tm.Start()
	time.Sleep(50 * time.Millisecond)
	tm.Stop()

	assert.Equal(int32(1), fired.Load())
}

func TestStartCancelsPreviousRun(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	var fired atomic.Int32
	tm, err := New(30*time.Millisecond, func() { fired.Add(1) })
	require.NoError(err)

	// Restarting before the interval elapses pushes the deadline out, so
	// only one firing is observed.
	tm.Start()
	time.Sleep(10 * time.Millisecond)
	tm.Start()
	time.Sleep(100 * time.Millisecond)

	assert.Equal(int32(1), fired.Load())
}

func TestRestart(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	var fired atomic.Int32
	tm, err := New(30*time.Millisecond, func() { fired.Add(1) })
	require.NoError(err)

	// Restart supersedes the outstanding run; the timer fires once, from
	// the restarted deadline.
	tm.Start()
	time.Sleep(10 * time.Millisecond)
	tm.Restart()
	time.Sleep(100 * time.Millisecond)
	assert.Equal(int32(1), fired.Load())

	// Restart when idle simply schedules a run.
	tm.Restart()
	time.Sleep(100 * time.Millisecond)
	assert.Equal(int32(2), fired.Load())
}

func TestOnCancel(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	var cancelled atomic.Int32
	tm, err := New(time.Hour, func() {}, OnCancel(func() { cancelled.Add(1) }))
	require.NoError(err)

	// Not invoked when idle.
	tm.Stop()
	assert.Equal(int32(0), cancelled.Load())

	tm.Start()
	tm.Stop()
	assert.Equal(int32(1), cancelled.Load())

	// At most once per run.
	tm.Stop()
	assert.Equal(int32(1), cancelled.Load())
}

func TestOnCancelNotInvokedOnCompletion(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	var cancelled atomic.Int32
	done := make(chan struct{})
	tm, err := New(time.Millisecond, func() { close(done) },
		OnCancel(func() { cancelled.Add(1) }))
	require.NoError(err)

	tm.Start()
	<-done
	time.Sleep(20 * time.Millisecond)
	tm.Stop()

	assert.Equal(int32(0), cancelled.Load())
}

func TestSetInterval(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	var fired atomic.Int32
	tm, err := New(time.Hour, func() { fired.Add(1) })
	require.NoError(err)

	assert.ErrorIs(tm.SetInterval(-1), ErrMisconfiguredTimer)

	// Updating while idle does not schedule anything.
	require.NoError(tm.SetInterval(10 * time.Millisecond))
	assert.Equal(10*time.Millisecond, tm.Interval())
	assert.False(tm.Active())

	// Updating while active restarts with the new interval.
	require.NoError(tm.SetInterval(time.Hour))
	tm.Start()
	require.NoError(tm.SetInterval(10 * time.Millisecond))
	time.Sleep(100 * time.Millisecond)
	assert.Equal(int32(1), fired.Load())
}
