// Package shadow implements the shadow register protocol of the display
// controllers.
//
// Window registers are double buffered by the hardware.  While a window's
// protect bit is set, the hardware won't latch the window's shadow registers,
// so a new configuration becomes visible atomically once the bit is cleared
// and the next update boundary is reached.  A well-formed commit is:
//
//	d.WaitIdle()
//	w := d.Protect(win)
//	w.Write(...)
//	w.Release()
//	d.Trigger()
package shadow

import (
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/clktmr/exynos/debug"
	"github.com/clktmr/exynos/internal/poll"
	"github.com/clktmr/exynos/regs"
)

const (
	DefaultTimeout  = 2 * (time.Second / 60)
	DefaultInterval = 500 * time.Microsecond
)

// ErrTimeout is returned if the hardware didn't acknowledge a pending update
// in time.  It's not fatal, the hardware might have latched anyway.
var ErrTimeout = fmt.Errorf("shadow: update pending: %w", poll.ErrTimeout)

// Layout describes where a controller keeps its shadow control bits.
type Layout struct {
	Shadow  regs.Offset
	Protect func(win int) uint32

	// Update holds the standalone update bit, which is set by software and
	// cleared by hardware once the shadow registers were latched.  A zero
	// Standalone means the controller latches on every vsync instead.
	Update     regs.Offset
	Standalone uint32
}

// Domain serializes nothing by itself.  All methods must be called with the
// display's commit lock held.
type Domain struct {
	Timeout  time.Duration
	Interval time.Duration

	regs     regs.File
	layout   Layout
	clock    clockwork.Clock
	held     uint32
	triggers uint64
}

func NewDomain(bus regs.Bus, layout Layout, clock clockwork.Clock) *Domain {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Domain{
		Timeout:  DefaultTimeout,
		Interval: DefaultInterval,
		regs:     regs.File{Bus: bus},
		layout:   layout,
		clock:    clock,
	}
}

// WaitIdle polls until a previously triggered update was latched.  It returns
// ErrTimeout after Timeout has passed.
func (d *Domain) WaitIdle() error {
	if d.layout.Standalone == 0 {
		return nil
	}
	err := poll.Within(d.clock, d.Timeout, d.Interval, func() bool {
		return d.regs.Read(d.layout.Update)&d.layout.Standalone == 0
	})
	if err != nil {
		return ErrTimeout
	}
	return nil
}

// Protect keeps the hardware from latching window win's registers until the
// returned Window is released.  The window's registers must only be written
// through the returned Window.
func (d *Domain) Protect(win int) *Window {
	debug.Assert(d.held&(1<<win) == 0, "shadow: window already protected")
	bit := d.layout.Protect(win)
	d.regs.SetBits(d.layout.Shadow, bit, bit)
	d.held |= 1 << win
	return &Window{domain: d, index: win, bit: bit}
}

// Protected reports whether window win is currently inside a protect bracket.
func (d *Domain) Protected(win int) bool {
	return d.held&(1<<win) != 0
}

// Trigger requests the hardware to latch all unprotected shadow registers at
// the next safe boundary.
func (d *Domain) Trigger() {
	if d.layout.Standalone != 0 {
		d.regs.SetBits(d.layout.Update, d.layout.Standalone, d.layout.Standalone)
	}
	d.triggers++
}

// Triggers returns the number of updates triggered so far.
func (d *Domain) Triggers() uint64 {
	return d.triggers
}

// Window grants write access to a protected window's registers.
type Window struct {
	domain   *Domain
	index    int
	bit      uint32
	released bool
}

func (w *Window) Index() int {
	return w.index
}

func (w *Window) check() {
	if w.released {
		panic(fmt.Sprintf("shadow: window %d accessed after release", w.index))
	}
}

func (w *Window) Read(off regs.Offset) uint32 {
	w.check()
	return w.domain.regs.Read(off)
}

func (w *Window) Write(off regs.Offset, v uint32) {
	w.check()
	w.domain.regs.Write(off, v)
}

func (w *Window) SetBits(off regs.Offset, mask, v uint32) {
	w.check()
	w.domain.regs.SetBits(off, mask, v)
}

// Release clears the protect bit.  Releasing twice has no effect.
func (w *Window) Release() {
	if w.released {
		return
	}
	w.domain.regs.SetBits(w.domain.layout.Shadow, w.bit, 0)
	w.domain.held &^= 1 << w.index
	w.released = true
}
