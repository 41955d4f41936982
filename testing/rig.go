package testing

import (
	"context"
	"errors"
	"image"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"periph.io/x/conn/v3/physic"

	"github.com/clktmr/exynos/debug"
	"github.com/clktmr/exynos/decon"
	"github.com/clktmr/exynos/drivers/display"
	"github.com/clktmr/exynos/fimd"
	"github.com/clktmr/exynos/irq"
	"github.com/clktmr/exynos/regs"
)

// WVGA is a 800x480 mode refreshing at 60Hz.
var WVGA = display.Mode{
	Clock:    29_232 * physic.KiloHertz,
	Hdisplay: 800, HsyncStart: 840, HsyncEnd: 888, Htotal: 928,
	Vdisplay: 480, VsyncStart: 493, VsyncEnd: 495, Vtotal: 525,
}

// Timeouts are short enough to let tests run into them.
var Timeouts = display.Timeouts{
	Vblank:         50 * time.Millisecond,
	UpdateInterval: 100 * time.Microsecond,
	ResetInterval:  time.Microsecond,
	ResetAttempts:  50,
}

// Hardware is an emulated display controller.
type Hardware interface {
	regs.Bus
	Peek(off regs.Offset) uint32
	Trace() []regs.Access
	ResetTrace()
	Observe(fn func(regs.Access))

	Raise(status display.Status)
	Line() *irq.Soft
	StallStop(on bool)
	SwTriggers() int

	WindowEnabled(win int) bool
	OutputEnabled() bool
	InterruptsEnabled() bool
	Protected() bool
	BurstNarrow(win int) bool
	Torn() int
}

// Events records the order of clock and power domain operations.
type Events struct {
	mtx sync.Mutex
	log []string
}

func (e *Events) add(ev string) {
	e.mtx.Lock()
	e.log = append(e.log, ev)
	e.mtx.Unlock()
}

// Take returns all events recorded since the last call.
func (e *Events) Take() []string {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	log := e.log
	e.log = nil
	return log
}

var ErrInjected = errors.New("injected failure")

// Clock is a display.Clock failing on demand.
type Clock struct {
	Name string
	Fail bool

	on     bool
	events *Events
}

func (c *Clock) Enable() error {
	c.events.add("enable " + c.Name)
	if c.Fail {
		return ErrInjected
	}
	c.on = true
	return nil
}

func (c *Clock) Disable() {
	c.events.add("disable " + c.Name)
	c.on = false
}

func (c *Clock) On() bool { return c.on }

// Power is a display.Power counting its references.
type Power struct {
	Fail bool

	refs   int
	events *Events
}

func (p *Power) Get() error {
	p.events.add("get power")
	if p.Fail {
		return ErrInjected
	}
	p.refs++
	return nil
}

func (p *Power) Put() {
	p.events.add("put power")
	p.refs--
}

func (p *Power) Refs() int { return p.refs }

// Compositor is a display.Compositor counting its notifications.
type Compositor struct {
	mtx  sync.Mutex
	mode display.Mode

	vblanks atomic.Int32
	flips   atomic.Int32
}

func (c *Compositor) Mode(pipe int) display.Mode {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.mode
}

func (c *Compositor) SetMode(m display.Mode) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.mode = m
}

func (c *Compositor) HandleVblank(pipe int)     { c.vblanks.Add(1) }
func (c *Compositor) PageFlipFinished(pipe int) { c.flips.Add(1) }

func (c *Compositor) Vblanks() int { return int(c.vblanks.Load()) }
func (c *Compositor) Flips() int   { return int(c.flips.Load()) }

// Rig is a display context driving emulated hardware.
type Rig struct {
	HW         Hardware
	Display    *display.Context
	Clocks     []*Clock
	Power      *Power
	Compositor *Compositor
	Events     *Events
}

func newRig(t testing.TB, hw Hardware, backend display.Backend) *Rig {
	t.Helper()
	r := &Rig{
		HW:         hw,
		Compositor: &Compositor{mode: WVGA},
		Events:     &Events{},
	}
	r.Power = &Power{events: r.Events}
	cfg := display.Config{
		Power:    r.Power,
		Timeouts: Timeouts,
		Logger:   debug.Logger(t.Name()),
	}
	for _, name := range []string{"bus", "pixel"} {
		clk := &Clock{Name: name, events: r.Events}
		r.Clocks = append(r.Clocks, clk)
		cfg.Clocks = append(cfg.Clocks, clk)
	}
	r.Display = display.New(backend, r.Compositor, cfg)
	return r
}

// NewDECON returns a rig for a DECON controller.
func NewDECON(t testing.TB, cfg decon.Config) (*Rig, *decon.Emulator) {
	t.Helper()
	emu := decon.NewEmulator()
	return newRig(t, emu, decon.New(emu, cfg)), emu
}

// NewFIMD returns a rig for a FIMD controller.
func NewFIMD(t testing.TB, cfg fimd.Config) (*Rig, *fimd.Emulator) {
	t.Helper()
	emu := fimd.NewEmulator()
	return newRig(t, emu, fimd.New(emu, cfg)), emu
}

// ServeIRQ handles the emulated interrupt line until the test finished.
func (r *Rig) ServeIRQ(t testing.TB) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.Display.ServeIRQ(ctx, r.HW.Line())
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

// PowerOn turns the display on or fails the test.
func (r *Rig) PowerOn(t testing.TB) {
	t.Helper()
	if err := r.Display.DPMS(display.On); err != nil {
		t.Fatal(err)
	}
	r.Events.Take()
}

// Plane returns a plane showing a w×h buffer at the screen's origin.
func Plane(format display.PixelFormat, w, h int) display.Plane {
	return display.Plane{
		Format: format,
		Addr:   0x4000_0000,
		Pitch:  w * format.BytesPerPixel(),
		Src:    image.Rect(0, 0, w, h),
		Dst:    image.Rect(0, 0, w, h),
	}
}
