// Package display drives the window compositing, power management and
// vsync handling shared by the Exynos display controllers.
//
// A Context owns one controller.  Commits and power transitions are
// serialized by the Context, interrupts are handled lock-free and may arrive
// at any time on another goroutine.
package display

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/exp/slog"
	"periph.io/x/conn/v3/gpio"

	"github.com/clktmr/exynos/debug"
	"github.com/clktmr/exynos/irq"
	"github.com/clktmr/exynos/regs"
	"github.com/clktmr/exynos/shadow"
)

var (
	ErrWindow  = errors.New("display: window out of range")
	ErrNoPlane = errors.New("display: window has no plane")
	ErrClock   = errors.New("display: clock enable failed")
)

// Timeouts bound every wait for the hardware.  None of them is fatal.
type Timeouts struct {
	Vblank         time.Duration
	UpdateInterval time.Duration
	ResetInterval  time.Duration
	ResetAttempts  int
}

var DefaultTimeouts = Timeouts{
	Vblank:         50 * time.Millisecond,
	UpdateInterval: shadow.DefaultInterval,
	ResetInterval:  10 * time.Microsecond,
	ResetAttempts:  2000,
}

type Config struct {
	// Pipe is the index reported to the Compositor.
	Pipe int

	// Clocks are enabled in order on power on and disabled in reverse order.
	Clocks []Clock
	Power  Power

	Timeouts Timeouts
	Clock    clockwork.Clock
	Logger   *slog.Logger
}

type window struct {
	plane    Plane
	hasPlane bool

	desired bool // requested by the compositor
	enabled bool // scanned out by the hardware
	resume  bool // enable again after power on
}

// WindowState is a snapshot of a window's bookkeeping.
type WindowState struct {
	Plane         Plane
	Desired       bool
	Enabled       bool
	PendingResume bool
}

// Context is the driver state of a single display controller.
type Context struct {
	mtx sync.Mutex

	backend    Backend
	compositor Compositor
	shadow     *shadow.Domain
	clocks     []Clock
	power      Power
	pipe       int
	timeouts   Timeouts
	clock      clockwork.Clock
	log        *slog.Logger

	windows   []window
	state     State
	suspended bool

	vblankOn      bool // interrupts enabled in hardware
	vblankRestore bool // reenable interrupts on power on

	// Shared with interrupt handlers.
	clocksOn   atomic.Bool
	irqOn      atomic.Bool
	waiting    atomic.Int32
	winUpdated atomic.Bool
	triggering atomic.Int32
	vblank     irq.Event
}

func New(backend Backend, compositor Compositor, cfg Config) *Context {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Timeouts == (Timeouts{}) {
		cfg.Timeouts = DefaultTimeouts
	}
	if cfg.Logger == nil {
		cfg.Logger = debug.Logger(backend.String())
	}

	c := &Context{
		backend:    backend,
		compositor: compositor,
		shadow:     shadow.NewDomain(backend.Bus(), backend.Shadow(), cfg.Clock),
		clocks:     cfg.Clocks,
		power:      cfg.Power,
		pipe:       cfg.Pipe,
		timeouts:   cfg.Timeouts,
		clock:      cfg.Clock,
		log:        cfg.Logger.With(slog.Int("pipe", cfg.Pipe)),
		windows:    make([]window, backend.Windows()),
	}
	c.shadow.Interval = cfg.Timeouts.UpdateInterval
	c.reset()
	return c
}

// reset puts the software state into its power on default.  The hardware is
// reset on every power on instead, as it isn't clocked yet.
func (c *Context) reset() {
	clear(c.windows)
	c.state = Off
	c.suspended = true
	c.vblankOn, c.vblankRestore = false, false
	c.clocksOn.Store(false)
	c.irqOn.Store(false)
	c.waiting.Store(0)
	c.winUpdated.Store(false)
	c.triggering.Store(0)
}

func (c *Context) String() string {
	return fmt.Sprintf("%s.%d", c.backend, c.pipe)
}

// Halt turns the display off.  It implements conn.Resource.
func (c *Context) Halt() error {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.state != On {
		return nil
	}
	return c.dpms(Off)
}

func (c *Context) State() State {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.state
}

// Suspended reports whether the controller is unclocked.
func (c *Context) Suspended() bool {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.suspended
}

func (c *Context) Window(win int) (WindowState, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if err := c.checkWindow(win); err != nil {
		return WindowState{}, err
	}
	w := &c.windows[win]
	return WindowState{
		Plane:         w.plane,
		Desired:       w.desired,
		Enabled:       w.enabled,
		PendingResume: w.resume,
	}, nil
}

// Triggers returns the number of global updates requested so far.
func (c *Context) Triggers() uint64 {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.shadow.Triggers()
}

// Dump returns the values of all registers worth inspecting.  The registers
// can't be read while the controller is suspended.
func (c *Context) Dump() ([]regs.Offset, []uint32, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.suspended {
		return nil, nil, ErrSuspended
	}
	offs := c.backend.Registers()
	return offs, regs.Snapshot(c.backend.Bus(), offs...), nil
}

// Signature returns a checksum over the registers returned by Dump.  Equal
// configurations result in equal signatures.
func (c *Context) Signature() (uint8, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.suspended {
		return 0, ErrSuspended
	}
	return regs.Signature(c.backend.Bus(), c.backend.Registers()...), nil
}

// ServeIRQ handles the controller's interrupts from line until ctx is
// canceled.
func (c *Context) ServeIRQ(ctx context.Context, line irq.Line) error {
	return irq.Serve(ctx, line, c.HandleIRQ)
}

// WatchTE handles a command mode panel's tearing effect signal until ctx is
// canceled.
func (c *Context) WatchTE(ctx context.Context, pin gpio.PinIn) error {
	return irq.WatchTE(ctx, pin, c.HandleTE)
}

func (c *Context) checkWindow(win int) error {
	if win < c.backend.FirstWindow() || win >= len(c.windows) {
		return fmt.Errorf("%w: %d", ErrWindow, win)
	}
	return nil
}
