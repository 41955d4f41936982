package display

import (
	"errors"
	"fmt"
	"image"

	"golang.org/x/exp/slog"

	"github.com/clktmr/exynos/internal/poll"
)

var ErrTransition = errors.New("display: illegal power transition")

// State is a DPMS power state.
type State uint8

const (
	On State = iota
	Standby
	Suspend
	Off
)

var stateNames = [...]string{"on", "standby", "suspend", "off"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

func ParseState(s string) (State, error) {
	for i, name := range stateNames {
		if name == s {
			return State(i), nil
		}
	}
	return Off, fmt.Errorf("display: unknown power state %q", s)
}

var transitions = [4][4]bool{
	On:      {Standby: true, Suspend: true, Off: true},
	Standby: {On: true, Suspend: true, Off: true},
	Suspend: {On: true, Standby: true},
	Off:     {On: true, Standby: true},
}

// Legal reports whether the display may go from state s to t.
func Legal(s, t State) bool {
	return int(s) < len(transitions) && int(t) < len(transitions) && transitions[s][t]
}

// DPMS changes the display's power state.  Illegal transitions are rejected
// without changing anything.
func (c *Context) DPMS(s State) error {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.dpms(s)
}

func (c *Context) dpms(s State) error {
	if !Legal(c.state, s) {
		c.log.Error("rejected power transition", slog.String("from", c.state.String()), slog.String("to", s.String()))
		return fmt.Errorf("%w: %v to %v", ErrTransition, c.state, s)
	}

	c.log.Debug("power transition", slog.String("from", c.state.String()), slog.String("to", s.String()))
	if s == On {
		if err := c.powerOn(); err != nil {
			return err
		}
		if err := c.apply(); err != nil {
			c.log.Warn("restoring configuration failed", slog.Any("err", err))
		}
	} else {
		c.powerOff()
	}
	c.state = s
	return nil
}

// powerOn clocks the controller, resets it and restores the windows and
// interrupts.  The caller applies the configuration.  If a clock fails, everything already enabled is undone and
// the display stays suspended.
func (c *Context) powerOn() error {
	if !c.suspended {
		return nil
	}

	if c.power != nil {
		if err := c.power.Get(); err != nil {
			return fmt.Errorf("display: power domain: %w", err)
		}
	}
	for i, clk := range c.clocks {
		if err := clk.Enable(); err != nil {
			for j := i - 1; j >= 0; j-- {
				c.clocks[j].Disable()
			}
			if c.power != nil {
				c.power.Put()
			}
			c.log.Error("power on failed", slog.Int("clock", i), slog.Any("err", err))
			return fmt.Errorf("%w: clock %d: %w", ErrClock, i, err)
		}
	}
	c.clocksOn.Store(true)

	c.hwReset()
	c.backend.Init()
	c.suspended = false

	c.resumeWindows()
	if c.vblankRestore {
		c.enableInterrupts(true)
		c.vblankOn, c.vblankRestore = true, false
	}
	return nil
}

// powerOff disables all windows, halts the controller and gates its clocks.
func (c *Context) powerOff() {
	if c.suspended {
		return
	}

	c.suspendWindows()
	if c.vblankOn {
		c.enableInterrupts(false)
		c.vblankOn, c.vblankRestore = false, true
	}
	c.hwReset()

	c.clocksOn.Store(false)
	for i := len(c.clocks) - 1; i >= 0; i-- {
		c.clocks[i].Disable()
	}
	if c.power != nil {
		c.power.Put()
	}
	c.suspended = true
	c.winUpdated.Store(false)
	c.triggering.Store(0)
}

// hwReset stops the output and runs the controller's software reset.  An
// unresponsive controller is only logged, it must be possible to power it off
// anyway.
func (c *Context) hwReset() {
	interval, attempts := c.timeouts.ResetInterval, c.timeouts.ResetAttempts

	c.backend.Stop()
	if err := poll.Until(c.clock, interval, attempts, c.backend.Stopped); err != nil {
		c.log.Warn("controller didn't stop", slog.Any("err", err))
	}
	c.backend.SoftReset()
	if err := poll.Until(c.clock, interval, attempts, c.backend.ResetDone); err != nil {
		c.log.Warn("software reset failed", slog.Any("err", err))
	}
}

// PageFlip shows p on window win.  If the display is suspended, it's woken up
// for this single frame and suspended again afterwards.
func (c *Context) PageFlip(win int, p Plane) error {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	if c.state != Suspend {
		if err := c.setPlane(win, p); err != nil {
			return err
		}
		if err := c.commitWindow(win); err != nil {
			return err
		}
		c.windows[win].desired = true
		return nil
	}

	// TODO The flip uses the full screen, the connector's resolution might
	// be the better choice.
	m := c.compositor.Mode(c.pipe)
	full := image.Rect(0, 0, m.Hdisplay, m.Vdisplay)
	p.Dst = full
	p.Src = full.Add(p.Src.Min)
	if err := c.setPlane(win, p); err != nil {
		return err
	}
	c.windows[win].desired = true
	return c.flipSuspended()
}

// flipSuspended runs Suspend -> Standby -> Suspend with the controller
// clocked while in Standby, so a single queued frame reaches the panel.
func (c *Context) flipSuspended() error {
	c.log.Debug("waking suspended display for a single flip")

	c.state = Standby
	defer func() {
		c.powerOff()
		c.state = Suspend
	}()

	if err := c.powerOn(); err != nil {
		return err
	}
	if err := c.apply(); err != nil {
		return err
	}
	if !c.vblankOn {
		c.enableInterrupts(true)
		defer c.enableInterrupts(false)
	}
	c.waitVblank()
	return nil
}
