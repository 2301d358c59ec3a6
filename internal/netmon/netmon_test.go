// SPDX-FileCopyrightText: 2024 codingiran
// SPDX-License-Identifier: Apache-2.0

package netmon

import (
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// fakeLister is a swappable interface table.
type fakeLister struct {
	m      sync.Mutex
	ifaces []net.Interface
	err    error
}

func (f *fakeLister) Interfaces() ([]net.Interface, error) {
	f.m.Lock()
	defer f.m.Unlock()
	return f.ifaces, f.err
}

func (f *fakeLister) set(ifaces []net.Interface, err error) {
	f.m.Lock()
	defer f.m.Unlock()
	f.ifaces = ifaces
	f.err = err
}

var (
	eth0 = net.Interface{
		Name:  "eth0",
		Flags: net.FlagUp | net.FlagRunning,
	}
	lo = net.Interface{
		Name:  "lo",
		Flags: net.FlagUp | net.FlagRunning | net.FlagLoopback,
	}
	downEth = net.Interface{
		Name: "eth1",
	}
)

func TestNew(t *testing.T) {
	tests := []struct {
		description string
		opts        []Option
		expectedErr error
	}{
		{
			description: "defaults",
		}, {
			description: "custom debounce and lister",
			opts: []Option{
				Debounce(10 * time.Millisecond),
				Lister(&fakeLister{}),
			},
		}, {
			description: "non-positive debounce",
			opts:        []Option{Debounce(0)},
			expectedErr: ErrMisconfiguredMonitor,
		}, {
			description: "nil lister",
			opts:        []Option{Lister(nil)},
			expectedErr: ErrMisconfiguredMonitor,
		}, {
			description: "nil logger",
			opts:        []Option{Logger(nil)},
			expectedErr: ErrMisconfiguredMonitor,
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

func TestRunningInterfaces(t *testing.T) {
	assert := assert.New(t)

	names, err := runningInterfaces(&fakeLister{ifaces: []net.Interface{lo, eth0, downEth}})
	assert.NoError(err)
	assert.Equal([]string{"eth0"}, names)

	_, err = runningInterfaces(&fakeLister{err: errors.New("enumeration failed")})
	assert.Error(err)
}

type InterfaceMonitorSuite struct {
	suite.Suite
	lister  *fakeLister
	monitor *InterfaceMonitor
	updates chan Path
	cancel  CancelFunc
}

func TestInterfaceMonitorSuite(t *testing.T) {
	suite.Run(t, new(InterfaceMonitorSuite))
}

func (suite *InterfaceMonitorSuite) SetupTest() {
	suite.lister = &fakeLister{ifaces: []net.Interface{eth0}}

	monitor, err := New(
		Debounce(10*time.Millisecond),
		Lister(suite.lister),
	)
	suite.Require().NoError(err)

	suite.monitor = monitor
	suite.updates = make(chan Path, 16)
	suite.cancel = monitor.AddPathListener(
		PathListenerFunc(func(p Path) {
			suite.updates <- p
		}))
}

func (suite *InterfaceMonitorSuite) TearDownTest() {
	suite.monitor.Invalidate()
	suite.cancel()
}

func (suite *InterfaceMonitorSuite) nextUpdate() Path {
	select {
	case p := <-suite.updates:
		return p
	case <-time.After(time.Second):
		suite.Require().FailNow("timed out waiting for path update")
	}
	return Path{}
}

func (suite *InterfaceMonitorSuite) TestFirstUpdate() {
	suite.False(suite.monitor.IsActive())
	suite.monitor.Fire()
	suite.True(suite.monitor.IsActive())

	p := suite.nextUpdate()
	suite.True(p.FirstUpdate)
	suite.True(p.Satisfied)
	suite.Equal([]string{"eth0"}, p.Interfaces)
	suite.Equal(p.Satisfied, suite.monitor.CurrentPath().Satisfied)
}

func (suite *InterfaceMonitorSuite) TestSettledChangesOnly() {
	suite.monitor.Fire()
	_ = suite.nextUpdate()

	// No change, no update.
	select {
	case p := <-suite.updates:
		suite.Require().FailNowf("unexpected update", "%+v", p)
	case <-time.After(50 * time.Millisecond):
	}

	// Path loss is reported once.
	suite.lister.set([]net.Interface{downEth}, nil)
	p := suite.nextUpdate()
	suite.False(p.Satisfied)
	suite.False(p.FirstUpdate)

	// Recovery is reported once.
	suite.lister.set([]net.Interface{eth0}, nil)
	p = suite.nextUpdate()
	suite.True(p.Satisfied)
	suite.False(p.FirstUpdate)
}

func (suite *InterfaceMonitorSuite) TestInvalidateStopsUpdates() {
	suite.monitor.Fire()
	_ = suite.nextUpdate()

	suite.monitor.Invalidate()
	suite.False(suite.monitor.IsActive())

	suite.lister.set(nil, nil)
	select {
	case p := <-suite.updates:
		suite.Require().FailNowf("unexpected update", "%+v", p)
	case <-time.After(50 * time.Millisecond):
	}

	// Firing again starts a fresh subscription.
	suite.monitor.Fire()
	p := suite.nextUpdate()
	suite.True(p.FirstUpdate)
	suite.False(p.Satisfied)
}

func (suite *InterfaceMonitorSuite) TestListerErrorsAreSkipped() {
	suite.monitor.Fire()
	_ = suite.nextUpdate()

	suite.lister.set(nil, errors.New("some network error"))
	select {
	case p := <-suite.updates:
		suite.Require().FailNowf("unexpected update", "%+v", p)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestNewInterfaceLister(t *testing.T) {
	require := require.New(t)

	lister := NewInterfaceLister()
	require.NotNil(lister)

	_, err := lister.Interfaces()
	require.NoError(err)
}
