package fimd

import (
	"sync/atomic"

	"github.com/clktmr/exynos/drivers/display"
	"github.com/clktmr/exynos/irq"
	"github.com/clktmr/exynos/regs"
)

// Emulator is a FIMD register block backed by memory, see decon.Emulator.
type Emulator struct {
	*regs.Sim

	line *irq.Soft

	stallStop  atomic.Bool
	swTriggers atomic.Int32
	frames     atomic.Int32
	torn       atomic.Int32
}

func NewEmulator() *Emulator {
	e := &Emulator{Sim: regs.NewSim(), line: irq.NewSoft()}

	e.OnStore(vidcon0, func(old, v uint32) uint32 {
		// ENVID reads back as set until the current frame finished.
		if v&uint32(envid) == 0 && old&uint32(envid) != 0 && e.stallStop.Load() {
			v |= uint32(envid)
		}
		return v
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

// StallStop keeps the controller running after the output was disabled.
func (e *Emulator) StallStop(on bool) { e.stallStop.Store(on) }

func (e *Emulator) SwTriggers() int { return int(e.swTriggers.Load()) }

// Frames returns the number of frame interrupts raised.  Each of them
// latched the unprotected shadow registers.
func (e *Emulator) Frames() int { return int(e.frames.Load()) }

// Raise latches the interrupt conditions in status if interrupts are enabled
// and fires the interrupt line.
func (e *Emulator) Raise(status display.Status) {
	if status&display.StatusFrame != 0 {
		e.frames.Add(1)
	}
	if e.Peek(vidintcon0)&uint32(intEnable) == 0 {
		return
	}
	var pending uint32
	if status&display.StatusFrame != 0 {
		pending |= uint32(pendFrame)
	}
	if status&display.StatusCommandDone != 0 {
		pending |= uint32(pendI80)
	}
	if status&display.StatusUnderrun != 0 {
		pending |= uint32(pendFifo)
	}
	e.Modify(vidintcon1, func(v uint32) uint32 { return v | pending })
	e.line.Fire()
}

func (e *Emulator) Line() *irq.Soft { return e.line }

func (e *Emulator) WindowEnabled(win int) bool {
	return e.Peek(wincon(win))&uint32(winEnable) != 0 && e.Peek(shadowcon)&chEnable(win) != 0
}

func (e *Emulator) OutputEnabled() bool {
	return e.Peek(vidcon0)&uint32(envid) != 0
}

func (e *Emulator) InterruptsEnabled() bool {
	return e.Peek(vidintcon0)&uint32(intEnable) != 0
}

// Protected reports whether any window's shadow registers are protected.
func (e *Emulator) Protected() bool {
	return e.Peek(shadowcon)&(0x1f<<10) != 0
}

func (e *Emulator) BurstNarrow(win int) bool {
	return e.Peek(wincon(win))&uint32(burstMask) == uint32(burst8)
}
