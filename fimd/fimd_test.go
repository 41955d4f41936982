package fimd

import (
	"image"
	"testing"

	"github.com/jonboulle/clockwork"
	"periph.io/x/conn/v3/physic"

	"github.com/clktmr/exynos/drivers/display"
	"github.com/clktmr/exynos/regs"
	"github.com/clktmr/exynos/shadow"
)

var wvga = display.Mode{
	Clock:    29_232 * physic.KiloHertz,
	Hdisplay: 800, HsyncStart: 840, HsyncEnd: 888, Htotal: 928,
	Vdisplay: 480, VsyncStart: 493, VsyncEnd: 495, Vtotal: 525,
	Flags: display.NHsync | display.PVsync,
}

func TestWindowControl(t *testing.T) {
	tests := map[string]struct {
		format display.PixelFormat
		bpp    uint8
		bits   uint32
	}{
		"XRGB1555": {display.XRGB1555, bpp16XRGB1555, uint32(hwordSwap)},
		"RGB565":   {display.RGB565, bpp16RGB565, uint32(hwordSwap)},
		"XRGB8888": {display.XRGB8888, bpp24XRGB8888, uint32(wordSwap)},
		"ARGB8888": {display.ARGB8888, bpp32ARGB8888, regs.Bits(wordSwap, bldPix, alphaSel)},
	}
	c := New(NewEmulator(), Config{})
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			p := display.Plane{
				Format: tc.format,
				Pitch:  64 * tc.format.BytesPerPixel(),
				Src:    image.Rect(0, 0, 64, 64),
				Dst:    image.Rect(0, 0, 64, 64),
			}
			ctrl, err := c.WindowControl(&p)
			if err != nil {
				t.Fatal(err)
			}
			want := bppMode.Encode(tc.bpp) | tc.bits | uint32(burst8)
			if ctrl != want {
				t.Fatalf("expected %#08x, got %#08x", want, ctrl)
			}
		})
	}
}

func TestEnableWindow(t *testing.T) {
	emu := NewEmulator()
	c := New(emu, Config{FirstWindow: 1})
	d := shadow.NewDomain(emu, c.Shadow(), clockwork.NewFakeClock())

	p := display.Plane{
		Format: display.RGB565,
		Addr:   0x2000_0000,
		Pitch:  800 * 2,
		Src:    image.Rect(0, 0, 800, 480),
		Dst:    image.Rect(0, 0, 800, 480),
	}
	ctrl, err := c.WindowControl(&p)
	if err != nil {
		t.Fatal(err)
	}

	w := d.Protect(1)
	c.WriteWindow(w, &p, ctrl)
	c.EnableWindow(w, true)
	if emu.Peek(shadowcon) != protect(1)|chEnable(1) {
		t.Fatalf("unexpected shadow control %#08x", emu.Peek(shadowcon))
	}
	w.Release()
	if !emu.WindowEnabled(1) || emu.Protected() {
		t.Fatal("window not enabled")
	}
	if got := emu.Peek(vidosdD(1)); got != 800*480*2/4 {
		t.Errorf("expected size %d words, got %d", 800*480*2/4, got)
	}
	if got := emu.Peek(vidosdC(1)); got != osdAlphaOpaque {
		t.Errorf("expected opaque alpha, got %#x", got)
	}

	w = d.Protect(1)
	c.EnableWindow(w, false)
	w.Release()
	if emu.WindowEnabled(1) || emu.Peek(shadowcon) != 0 {
		t.Fatal("window still enabled")
	}
}

func TestLatchOnVsync(t *testing.T) {
	emu := NewEmulator()
	c := New(emu, Config{})
	d := shadow.NewDomain(emu, c.Shadow(), clockwork.NewFakeClock())
	if err := d.WaitIdle(); err != nil {
		t.Fatal(err)
	}
	d.Trigger()
	if len(emu.Trace()) != 0 {
		t.Fatal("trigger wrote registers")
	}

	// Frames are counted even with the interrupt masked.
	emu.Raise(display.StatusFrame)
	emu.Raise(display.StatusCommandDone)
	if emu.Frames() != 1 {
		t.Fatalf("expected 1 frame, got %d", emu.Frames())
	}
	if emu.Peek(vidintcon1) != 0 {
		t.Fatal("masked interrupt latched")
	}
}

func TestClockDivider(t *testing.T) {
	tests := map[string]struct {
		rate physic.Frequency
		want uint32
		err  bool
	}{
		"undivided": {0, 0, false},
		"exact":     {4 * wvga.Clock, clkVal.Encode(3) | uint32(clkDir), false},
		"roundUp":   {4*wvga.Clock + 1, clkVal.Encode(4) | uint32(clkDir), false},
		"slower":    {wvga.Clock / 2, 0, false},
		"tooFast":   {300 * wvga.Clock, 0, true},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			emu := NewEmulator()
			c := New(emu, Config{ClockRate: tc.rate})
			err := c.CheckMode(wvga)
			if tc.err {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			c.WriteTiming(wvga)
			mask := clkVal.Mask() | uint32(clkDir)
			if got := emu.Peek(vidcon0) & mask; got != tc.want {
				t.Fatalf("expected %#08x, got %#08x", tc.want, got)
			}
		})
	}
}

func TestWriteTiming(t *testing.T) {
	emu := NewEmulator()
	c := New(emu, Config{InvertVclk: true})
	emu.Poke(vidcon0, uint32(envid|envidF))
	c.WriteTiming(wvga)

	tests := map[string]struct {
		off  regs.Offset
		want uint32
	}{
		"polarity": {vidcon1, regs.Bits(invHsync, invVclk)},
		"vertical": {vidtcon0, porchBack.Encode(29) | porchFront.Encode(12) | syncWidth.Encode(1)},
		"horizont": {vidtcon1, porchBack.Encode(39) | porchFront.Encode(39) | syncWidth.Encode(47)},
		"size":     {vidtcon2, lineVal.Encode(479) | hozVal.Encode(799)},
		"output":   {vidcon0, regs.Bits(envid, envidF)},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			if got := emu.Peek(tc.off); got != tc.want {
				t.Fatalf("expected %#08x, got %#08x", tc.want, got)
			}
		})
	}
}

func TestInit(t *testing.T) {
	tests := map[string]struct {
		cfg     Config
		out     uint8
		trigger uint32
	}{
		"video":     {Config{}, outRGB, 0},
		"commandSW": {Config{Interface: display.I80, Trigger: display.SoftwareTrigger}, outI80, regs.Bits(trigEnable, trigHwMask)},
		"commandHW": {Config{Interface: display.I80, Trigger: display.HardwareTrigger}, outI80, regs.Bits(trigEnable, trigHwEnable)},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			emu := NewEmulator()
			New(emu, tc.cfg).Init()
			if got := vidOut.Decode(emu.Peek(vidcon0)); got != tc.out {
				t.Errorf("expected output %d, got %d", tc.out, got)
			}
			if got := emu.Peek(trigcon); got != tc.trigger {
				t.Errorf("expected trigger control %#08x, got %#08x", tc.trigger, got)
			}
		})
	}
}

func TestStop(t *testing.T) {
	emu := NewEmulator()
	c := New(emu, Config{})
	c.EnableOutput(true)
	emu.StallStop(true)
	c.Stop()
	if c.Stopped() {
		t.Fatal("stopped while frame in progress")
	}
	emu.StallStop(false)
	c.Stop()
	if !c.Stopped() {
		t.Fatal("not stopped")
	}
	c.SoftReset()
	if !c.ResetDone() {
		t.Fatal("reset not done")
	}
}

func TestInterrupts(t *testing.T) {
	emu := NewEmulator()
	c := New(emu, Config{Interface: display.I80})
	c.EnableInterrupts(true)
	if got := emu.Peek(vidintcon0); got != regs.Bits(intEnable, intI80Done) {
		t.Fatalf("unexpected interrupt control %#08x", got)
	}
	emu.Raise(display.StatusCommandDone)
	if got := c.AckInterrupts(); got != display.StatusCommandDone {
		t.Fatalf("expected command done, got %v", got)
	}
	if got := c.AckInterrupts(); got != 0 {
		t.Fatalf("status not cleared: %v", got)
	}
}
