// SPDX-FileCopyrightText: 2024 codingiran
// SPDX-License-Identifier: Apache-2.0

// Package netmon watches the operating system's network path and reports
// debounced satisfied/unsatisfied transitions.  The connection controller
// subscribes to it to learn when the network has recovered.
package netmon

import (
	"errors"
	"fmt"
	"net"
	"sort"
	"sync"
	"time"

	"github.com/xmidt-org/eventor"
	"go.uber.org/zap"

	"github.com/codingiran/WebSocketClient/internal/timer"
)

var ErrMisconfiguredMonitor = errors.New("misconfigured network monitor")

// Path is a snapshot of the network path.
type Path struct {
	// Satisfied reports whether the path can carry traffic.
	Satisfied bool

	// FirstUpdate marks the first report after monitoring started.  A
	// satisfied first update is not a recovery; no network transition
	// actually occurred.
	FirstUpdate bool

	// Interfaces holds the names of the running, non-loopback interfaces
	// backing the path, sorted.
	Interfaces []string
}

// CancelFunc removes a previously added listener.
type CancelFunc func()

// PathListener is the interface that must be implemented by types that want
// to receive Path updates.
type PathListener interface {
	OnPathUpdate(Path)
}

// PathListenerFunc is a function type that implements PathListener.
type PathListenerFunc func(Path)

func (f PathListenerFunc) OnPathUpdate(p Path) {
	f(p)
}

// Monitor is the network watcher consumed by the controller.
type Monitor interface {
	// Fire starts monitoring.
	Fire()

	// Invalidate stops monitoring.  A subsequent Fire begins a fresh
	// subscription, including first-update semantics.
	Invalidate()

	// IsActive reports whether monitoring is running.
	IsActive() bool

	// CurrentPath returns the most recently observed path.
	CurrentPath() Path

	// AddPathListener registers a listener for debounced path updates.
	AddPathListener(PathListener) CancelFunc
}

// InterfaceLister enumerates the host's network interfaces.  It exists so
// tests can substitute a fake.
type InterfaceLister interface {
	Interfaces() ([]net.Interface, error)
}

type interfaceLister struct{}

func (interfaceLister) Interfaces() ([]net.Interface, error) {
	return net.Interfaces()
}

// NewInterfaceLister returns an InterfaceLister backed by net.Interfaces.
func NewInterfaceLister() InterfaceLister {
	return interfaceLister{}
}

// InterfaceMonitor implements Monitor by sampling the host's interfaces
// once per debounce period and reporting only settled changes.
type InterfaceMonitor struct {
	lister   InterfaceLister
	debounce time.Duration
	logger   *zap.Logger

	listeners eventor.Eventor[PathListener]

	m       sync.Mutex
	active  bool
	seeded  bool
	current Path
	poll    *timer.Timer
}

// Option is a functional option type for InterfaceMonitor.
type Option interface {
	apply(*InterfaceMonitor) error
}

type optionFunc func(*InterfaceMonitor) error

func (f optionFunc) apply(im *InterfaceMonitor) error {
	return f(im)
}

// Debounce sets the settling period between path samples.  If this is not
// set, the default is 1 second.
func Debounce(d time.Duration) Option {
	return optionFunc(
		func(im *InterfaceMonitor) error {
			if d <= 0 {
				return fmt.Errorf("%w: non-positive debounce", ErrMisconfiguredMonitor)
			}
			im.debounce = d
			return nil
		})
}

// Lister sets the interface source.
func Lister(l InterfaceLister) Option {
	return optionFunc(
		func(im *InterfaceMonitor) error {
			if l == nil {
				return fmt.Errorf("%w: nil interface lister", ErrMisconfiguredMonitor)
			}
			im.lister = l
			return nil
		})
}

// Logger sets the logger for the monitor.
func Logger(logger *zap.Logger) Option {
	return optionFunc(
		func(im *InterfaceMonitor) error {
			if logger == nil {
				return fmt.Errorf("%w: nil logger", ErrMisconfiguredMonitor)
			}
			im.logger = logger
			return nil
		})
}

// New creates an InterfaceMonitor with the given options.
func New(opts ...Option) (*InterfaceMonitor, error) {
	im := InterfaceMonitor{
		lister:   NewInterfaceLister(),
		debounce: time.Second,
		logger:   zap.NewNop(),
	}

	for _, opt := range opts {
		if opt != nil {
			if err := opt.apply(&im); err != nil {
				return nil, err
			}
		}
	}

	return &im, nil
}

// AddPathListener registers a listener for debounced path updates.
func (im *InterfaceMonitor) AddPathListener(l PathListener) CancelFunc {
	return CancelFunc(im.listeners.Add(l))
}

// Fire starts monitoring.  Calling Fire while active is a no-op.
func (im *InterfaceMonitor) Fire() {
	im.m.Lock()
	defer im.m.Unlock()

	if im.active {
		return
	}

	poll, err := timer.New(im.debounce, im.sample, timer.Repeats(), timer.FireImmediately())
	if err != nil {
		// Unreachable: debounce and handler are validated at construction.
		im.logger.Error("failed to build poll timer", zap.Error(err))
		return
	}

	im.active = true
	im.seeded = false
	im.current = Path{}
	im.poll = poll
	poll.Start()
}

// Invalidate stops monitoring.
func (im *InterfaceMonitor) Invalidate() {
	im.m.Lock()
	defer im.m.Unlock()

	if !im.active {
		return
	}

	im.poll.Stop()
	im.poll = nil
	im.active = false
}

// IsActive reports whether monitoring is running.
func (im *InterfaceMonitor) IsActive() bool {
	im.m.Lock()
	defer im.m.Unlock()
	return im.active
}

// CurrentPath returns the most recently observed path.
func (im *InterfaceMonitor) CurrentPath() Path {
	im.m.Lock()
	defer im.m.Unlock()
	return im.current
}

// sample reads the interface table and emits a path update when the settled
// state differs from the last report.
func (im *InterfaceMonitor) sample() {
	names, err := runningInterfaces(im.lister)
	if err != nil {
		im.logger.Warn("interface enumeration failed", zap.Error(err))
		return
	}

	path := Path{
		Satisfied:  len(names) > 0,
		Interfaces: names,
	}

	im.m.Lock()
	if !im.active {
		im.m.Unlock()
		return
	}

	first := !im.seeded
	if first {
		im.seeded = true
		path.FirstUpdate = true
	} else if path.Satisfied == im.current.Satisfied &&
		equalNames(path.Interfaces, im.current.Interfaces) {
		im.m.Unlock()
		return
	}
	im.current = path
	im.m.Unlock()

	im.logger.Debug("network path update",
		zap.Bool("satisfied", path.Satisfied),
		zap.Bool("first_update", path.FirstUpdate),
		zap.Strings("interfaces", path.Interfaces),
	)

	im.listeners.Visit(func(l PathListener) {
		l.OnPathUpdate(path)
	})
}

// runningInterfaces returns the sorted names of running, non-loopback
// interfaces.
func runningInterfaces(lister InterfaceLister) ([]string, error) {
	ifaces, err := lister.Interfaces()
	if err != nil {
		return nil, err
	}

	names := []string{}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagRunning == 0 {
			continue
		}
		if iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		names = append(names, iface.Name)
	}
	sort.Strings(names)

	return names, nil
}

func equalNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
