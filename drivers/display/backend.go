package display

import (
	"github.com/clktmr/exynos/regs"
	"github.com/clktmr/exynos/shadow"
)

// Status is a set of pending interrupt conditions.
type Status uint32

const (
	StatusFrame       Status = 1 << iota // vsync or frame start
	StatusCommandDone                    // command mode panel finished a frame transfer
	StatusUnderrun                       // FIFO ran empty during scanout
)

// Interface is the kind of panel interface a controller drives.
type Interface uint8

const (
	RGB Interface = iota // video mode, continuous scanout
	I80                  // command mode, frames are pushed into the panel's GRAM
)

// Trigger selects what starts a frame transfer on command mode panels.
type Trigger uint8

const (
	HardwareTrigger Trigger = iota // the controller follows the TE signal itself
	SoftwareTrigger                // the driver issues a trigger on each TE pulse
)

// Backend programs the registers of a specific controller.  Backends don't
// keep any state that must survive a power cycle and don't lock, the Context
// serializes all calls except the interrupt related ones.
type Backend interface {
	String() string

	Bus() regs.Bus
	Shadow() shadow.Layout

	// Windows returns the number of hardware windows, FirstWindow the lowest
	// one controlled by the driver.
	Windows() int
	FirstWindow() int

	// Stop disables the output immediately.  Stopped reports whether the
	// controller has actually halted.
	Stop()
	Stopped() bool

	// SoftReset asserts the software reset, ResetDone reports its completion.
	SoftReset()
	ResetDone() bool

	// Init writes the static configuration after a reset.
	Init()

	// WindowControl validates p and returns the window's control word with
	// the enable bit cleared.  It must not access any registers.
	WindowControl(p *Plane) (uint32, error)
	WriteWindow(w *shadow.Window, p *Plane, ctrl uint32)
	EnableWindow(w *shadow.Window, on bool)

	CheckMode(m Mode) error
	WriteTiming(m Mode)
	EnableOutput(on bool)

	// NeedsTrigger reports whether each frame must be started by calling
	// Trigger, which is safe to call from interrupt handlers.
	NeedsTrigger() bool
	Trigger()

	// EnableInterrupts and AckInterrupts are safe to call from interrupt
	// handlers.
	EnableInterrupts(on bool)
	AckInterrupts() Status

	// Registers lists all registers worth dumping.
	Registers() []regs.Offset
}

// Clock is a gateable clock feeding the controller.
type Clock interface {
	Enable() error
	Disable()
}

// Power is a reference counted power domain.
type Power interface {
	Get() error
	Put()
}

// Compositor is notified about frame completion.  Its methods are called from
// the interrupt handler and must not block.
type Compositor interface {
	Mode(pipe int) Mode
	HandleVblank(pipe int)
	PageFlipFinished(pipe int)
}
