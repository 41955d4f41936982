package display

import (
	"fmt"
	"io/fs"

	"github.com/clktmr/exynos/irq"
)

// ErrSuspended is returned for requests that need a powered display.  It
// matches fs.ErrPermission.
var ErrSuspended = fmt.Errorf("display: suspended: %w", fs.ErrPermission)

// EnableVblank enables the vsync interrupt.
func (c *Context) EnableVblank() error {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.suspended {
		return ErrSuspended
	}
	if !c.vblankOn {
		c.enableInterrupts(true)
		c.vblankOn = true
	}
	return nil
}

// DisableVblank disables the vsync interrupt.  It does nothing while
// suspended.
func (c *Context) DisableVblank() {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.suspended || !c.vblankOn {
		return
	}
	c.enableInterrupts(false)
	c.vblankOn = false
}

// enableInterrupts switches the controller's interrupts.  A transfer in
// flight won't report its completion once they are off.
func (c *Context) enableInterrupts(on bool) {
	c.backend.EnableInterrupts(on)
	c.irqOn.Store(on)
	if !on {
		c.triggering.Store(0)
	}
}

// VblankEnabled reports whether the vsync interrupt is enabled in hardware.
func (c *Context) VblankEnabled() bool {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.vblankOn
}

// WaitForVblank blocks until the next vsync interrupt and reports whether it
// arrived.  It gives up after a timeout, a display that stopped generating
// interrupts must not block its users.
func (c *Context) WaitForVblank() bool {
	if !c.clocksOn.Load() {
		return false
	}
	return c.waitVblank()
}

func (c *Context) waitVblank() bool {
	armed := c.vblank.Arm()
	c.waiting.Add(1)
	woken := irq.Wait(c.clock, armed, c.timeouts.Vblank)
	c.waiting.Add(-1)
	if !woken {
		c.log.Warn("vblank wait timed out")
	}
	return woken
}

// HandleIRQ services the controller's interrupt.  It must be called for each
// interrupt and never blocks.
func (c *Context) HandleIRQ() {
	// Late interrupt after power off, registers aren't accessible.
	if !c.clocksOn.Load() {
		return
	}

	status := c.backend.AckInterrupts()
	if status&StatusCommandDone != 0 {
		c.transferDone()
	}
	if status&(StatusFrame|StatusCommandDone) != 0 {
		c.compositor.PageFlipFinished(c.pipe)
		c.compositor.HandleVblank(c.pipe)
	}

	if c.waiting.Load() > 0 {
		c.vblank.Signal()
	}
}

// HandleTE services a tearing effect pulse of a command mode panel.  A
// pending window update is pushed to the panel, unless a transfer is still in
// flight.
func (c *Context) HandleTE() {
	if !c.clocksOn.Load() || !c.backend.NeedsTrigger() {
		return
	}
	if c.triggering.Load() != 0 {
		return
	}
	if !c.winUpdated.CompareAndSwap(true, false) {
		return
	}
	c.triggering.Add(1)
	c.backend.Trigger()
	if !c.irqOn.Load() {
		// No completion interrupt will arrive.
		c.transferDone()
	}
}

// transferDone retires a transfer in flight.  The counter may have been
// cleared concurrently by disabling the interrupt, it never goes negative.
func (c *Context) transferDone() {
	for {
		n := c.triggering.Load()
		if n <= 0 || c.triggering.CompareAndSwap(n, n-1) {
			return
		}
	}
}
