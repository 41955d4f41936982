package decon

import (
	"sync/atomic"

	"github.com/clktmr/exynos/drivers/display"
	"github.com/clktmr/exynos/irq"
	"github.com/clktmr/exynos/regs"
)

// Emulator is a DECON register block backed by memory.  It emulates the bits
// the hardware sets or clears by itself, so a Controller can run against it
// without a SoC.
type Emulator struct {
	*regs.Sim

	line *irq.Soft

	stallUpdate atomic.Bool
	stallReset  atomic.Bool
	stallStop   atomic.Bool

	resets     atomic.Int32
	swTriggers atomic.Int32
	updates    atomic.Int32
	torn       atomic.Int32
}

func NewEmulator() *Emulator {
	e := &Emulator{Sim: regs.NewSim(), line: irq.NewSoft()}

	e.OnStore(vidcon0, func(old, v uint32) uint32 {
		if v&uint32(swReset) != 0 {
			if e.stallReset.Load() {
				return v
			}
			e.resets.Add(1)
			return 0
		}
		v &^= uint32(stopStatus)
		if v&uint32(envid) != 0 || (old&uint32(stopStatus) != 0 && e.stallStop.Load()) {
			v |= uint32(stopStatus)
		}
		return v
	})
	e.OnStore(update, func(old, v uint32) uint32 {
		if v&standaloneUpdate == 0 {
			return v
		}
		if e.stallUpdate.Load() {
			return v
		}
		e.updates.Add(1)
		return v &^ standaloneUpdate
	})
	e.OnStore(trigcon, func(old, v uint32) uint32 {
		if v&uint32(trigSwCmd) != 0 {
			e.swTriggers.Add(1)
		}
		return v &^ uint32(trigSwCmd)
	})
	e.OnStore(vidintcon1, func(old, v uint32) uint32 {
		return old &^ v
	})

	owner := make(map[regs.Offset]int)
	for win := range Windows {
		for _, reg := range []func(int) regs.Offset{wincon, vidosdA, vidosdB, vidosdC, vidosdD, vidwadd0, vidwadd1, vidwadd2, winmap} {
			owner[reg(win)] = win
		}
	}
	e.Observe(func(a regs.Access) {
		win, ok := owner[a.Off]
		if a.Store && ok && e.Peek(shadowcon)&protect(win) == 0 {
			e.torn.Add(1)
		}
	})
	return e
}

// Torn returns the number of window register writes that happened while the
// window wasn't protected.
func (e *Emulator) Torn() int { return int(e.torn.Load()) }

// StallUpdate keeps the standalone update bit set, as if the hardware never
// reached an update boundary.
func (e *Emulator) StallUpdate(on bool) { e.stallUpdate.Store(on) }

// StallReset keeps the software reset bit set.
func (e *Emulator) StallReset(on bool) { e.stallReset.Store(on) }

// StallStop keeps the controller running after the output was disabled.
func (e *Emulator) StallStop(on bool) { e.stallStop.Store(on) }

// Latch completes a stalled update.
func (e *Emulator) Latch() {
	e.Modify(update, func(v uint32) uint32 { return v &^ standaloneUpdate })
}

func (e *Emulator) Resets() int     { return int(e.resets.Load()) }
func (e *Emulator) SwTriggers() int { return int(e.swTriggers.Load()) }
func (e *Emulator) Updates() int    { return int(e.updates.Load()) }

// Raise latches the interrupt conditions in status if interrupts are enabled
// and fires the interrupt line.
func (e *Emulator) Raise(status display.Status) {
	if e.Peek(vidintcon0)&uint32(intEnable) == 0 {
		return
	}
	var pending uint32
	if status&display.StatusFrame != 0 {
		pending |= uint32(pendFrame)
	}
	if status&display.StatusCommandDone != 0 {
		pending |= uint32(pendFrameDone)
	}
	if status&display.StatusUnderrun != 0 {
		pending |= uint32(pendFifo)
	}
	e.Modify(vidintcon1, func(v uint32) uint32 { return v | pending })
	e.line.Fire()
}

// Line fires whenever Raise latched an enabled interrupt.
func (e *Emulator) Line() *irq.Soft { return e.line }

// WindowEnabled reports whether the window's enable bit is set.
func (e *Emulator) WindowEnabled(win int) bool {
	return e.Peek(wincon(win))&uint32(winEnable) != 0
}

// OutputEnabled reports whether the controller scans out.
func (e *Emulator) OutputEnabled() bool {
	return e.Peek(vidcon0)&uint32(envid) != 0
}

// InterruptsEnabled reports whether the controller raises interrupts.
func (e *Emulator) InterruptsEnabled() bool {
	return e.Peek(vidintcon0)&uint32(intEnable) != 0
}

// Protected reports whether any window's shadow registers are protected.
func (e *Emulator) Protected() bool {
	return e.Peek(shadowcon) != 0
}

// BurstNarrow reports whether the window uses the 8 word DMA burst.
func (e *Emulator) BurstNarrow(win int) bool {
	return e.Peek(wincon(win))&uint32(burstMask) == uint32(burst8)
}
