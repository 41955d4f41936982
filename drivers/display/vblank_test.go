package display_test

import (
	"context"
	"errors"
	"image"
	"io/fs"
	"slices"
	"testing"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"

	"github.com/clktmr/exynos/decon"
	"github.com/clktmr/exynos/drivers/display"
	exytesting "github.com/clktmr/exynos/testing"
)

// raiseWhenWaiting raises status once a goroutine waits for vblank.
func raiseWhenWaiting(r *exytesting.Rig, status display.Status) {
	go func() {
		deadline := time.Now().Add(time.Second)
		for !r.Display.Waiting() && time.Now().Before(deadline) {
			time.Sleep(100 * time.Microsecond)
		}
		r.HW.Raise(status)
	}()
}

// eventually polls cond for up to a second.
func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met")
		}
		time.Sleep(100 * time.Microsecond)
	}
}

func TestEnableVblankSuspended(t *testing.T) {
	r, emu := exytesting.NewDECON(t, decon.Config{})
	err := r.Display.EnableVblank()
	if !errors.Is(err, display.ErrSuspended) || !errors.Is(err, fs.ErrPermission) {
		t.Fatalf("expected ErrSuspended, got %v", err)
	}
	r.Display.DisableVblank()
	if len(emu.Trace()) != 0 {
		t.Fatal("registers written while suspended")
	}
}

func TestVblankRestore(t *testing.T) {
	r, emu := exytesting.NewDECON(t, decon.Config{})
	r.PowerOn(t)
	for range 2 {
		if err := r.Display.EnableVblank(); err != nil {
			t.Fatal(err)
		}
	}
	if !emu.InterruptsEnabled() || !r.Display.VblankEnabled() {
		t.Fatal("vblank not enabled")
	}

	if err := r.Display.DPMS(display.Suspend); err != nil {
		t.Fatal(err)
	}
	if emu.InterruptsEnabled() || r.Display.VblankEnabled() {
		t.Fatal("vblank enabled while suspended")
	}
	r.Display.DisableVblank()

	if err := r.Display.DPMS(display.On); err != nil {
		t.Fatal(err)
	}
	if !emu.InterruptsEnabled() || !r.Display.VblankEnabled() {
		t.Fatal("vblank not restored")
	}

	r.Display.DisableVblank()
	if emu.InterruptsEnabled() {
		t.Fatal("vblank still enabled")
	}
}

func TestWaitForVblank(t *testing.T) {
	r, _ := exytesting.NewDECON(t, decon.Config{})
	r.ServeIRQ(t)
	r.PowerOn(t)
	if err := r.Display.EnableVblank(); err != nil {
		t.Fatal(err)
	}

	raiseWhenWaiting(r, display.StatusFrame)
	if !r.Display.WaitForVblank() {
		t.Fatal("vblank wait timed out")
	}
	if r.Display.Waiting() {
		t.Fatal("waiter still registered")
	}
	if r.Compositor.Vblanks() != 1 || r.Compositor.Flips() != 1 {
		t.Fatalf("expected one notification, got %d vblanks and %d flips",
			r.Compositor.Vblanks(), r.Compositor.Flips())
	}
}

func TestConcurrentWaiters(t *testing.T) {
	r, _ := exytesting.NewDECON(t, decon.Config{})
	r.ServeIRQ(t)
	r.PowerOn(t)
	if err := r.Display.EnableVblank(); err != nil {
		t.Fatal(err)
	}

	const waiters = 3
	results := make(chan bool, waiters)
	for range waiters {
		go func() { results <- r.Display.WaitForVblank() }()
	}
	eventually(t, func() bool { return r.Display.Waiters() == waiters })
	r.HW.Raise(display.StatusFrame)
	for range waiters {
		if !<-results {
			t.Fatal("waiter missed the vblank")
		}
	}
	if r.Display.Waiting() {
		t.Fatal("waiter still registered")
	}
}

func TestWaitForVblankTimeout(t *testing.T) {
	r, _ := exytesting.NewDECON(t, decon.Config{})
	r.ServeIRQ(t)
	r.PowerOn(t)

	start := time.Now()
	if r.Display.WaitForVblank() {
		t.Fatal("woken without interrupt")
	}
	if d := time.Since(start); d < exytesting.Timeouts.Vblank || d > time.Second {
		t.Fatalf("unexpected wait of %v", d)
	}
	if r.Display.Waiting() {
		t.Fatal("waiter still registered after timeout")
	}

	if r.Display.DPMS(display.Off) != nil || r.Display.WaitForVblank() {
		t.Fatal("waited on suspended display")
	}
}

func TestLateInterrupt(t *testing.T) {
	r, emu := exytesting.NewDECON(t, decon.Config{})
	r.PowerOn(t)
	r.Display.EnableVblank()
	emu.Raise(display.StatusFrame)
	if err := r.Display.DPMS(display.Off); err != nil {
		t.Fatal(err)
	}

	emu.ResetTrace()
	r.Display.HandleIRQ()
	if r.Compositor.Vblanks() != 0 || len(emu.Trace()) != 0 {
		t.Fatal("interrupt handled without clocks")
	}
}

func TestCommandModeTrigger(t *testing.T) {
	r, emu := exytesting.NewDECON(t, decon.Config{Interface: display.I80, Trigger: display.SoftwareTrigger})
	r.PowerOn(t)
	r.Display.EnableVblank()
	r.Display.SetPlane(1, exytesting.Plane(display.XRGB8888, 800, 480))

	// The commit during power on requested a transfer.
	r.Display.HandleTE()
	if emu.SwTriggers() != 1 || r.Display.InFlight() != 1 {
		t.Fatalf("expected one transfer, got %d", emu.SwTriggers())
	}

	r.Display.WinCommit(1)
	r.Display.HandleTE()
	if emu.SwTriggers() != 1 {
		t.Fatal("triggered while transfer in flight")
	}

	emu.Raise(display.StatusCommandDone)
	r.Display.HandleIRQ()
	if r.Display.InFlight() != 0 || r.Compositor.Flips() != 1 {
		t.Fatal("transfer not completed")
	}

	r.Display.HandleTE()
	if emu.SwTriggers() != 2 {
		t.Fatal("pending update not transferred")
	}
	emu.Raise(display.StatusCommandDone)
	r.Display.HandleIRQ()
	r.Display.HandleTE()
	if emu.SwTriggers() != 2 {
		t.Fatal("triggered without update")
	}
}

func TestTriggerWithoutVblank(t *testing.T) {
	r, emu := exytesting.NewDECON(t, decon.Config{Interface: display.I80, Trigger: display.SoftwareTrigger})
	r.PowerOn(t)
	r.Display.SetPlane(1, exytesting.Plane(display.XRGB8888, 800, 480))

	for i := 1; i <= 3; i++ {
		if err := r.Display.WinCommit(1); err != nil {
			t.Fatal(err)
		}
		// Masked, the handler never sees it.
		emu.Raise(display.StatusCommandDone)
		r.Display.HandleIRQ()
		r.Display.HandleTE()
		if emu.SwTriggers() != i || r.Display.InFlight() != 0 {
			t.Fatalf("update %d: %d transfers, %d in flight", i, emu.SwTriggers(), r.Display.InFlight())
		}
	}
}

func TestDisableVblankInFlight(t *testing.T) {
	r, emu := exytesting.NewDECON(t, decon.Config{Interface: display.I80, Trigger: display.SoftwareTrigger})
	r.PowerOn(t)
	r.Display.EnableVblank()
	r.Display.SetPlane(1, exytesting.Plane(display.XRGB8888, 800, 480))

	r.Display.HandleTE()
	if r.Display.InFlight() != 1 {
		t.Fatal("transfer not in flight")
	}
	r.Display.DisableVblank()
	if r.Display.InFlight() != 0 {
		t.Fatal("transfer still in flight without completion interrupt")
	}

	r.Display.WinCommit(1)
	r.Display.HandleTE()
	if emu.SwTriggers() != 2 {
		t.Fatalf("expected 2 transfers, got %d", emu.SwTriggers())
	}
}

func TestHardwareTrigger(t *testing.T) {
	r, emu := exytesting.NewDECON(t, decon.Config{Interface: display.I80, Trigger: display.HardwareTrigger})
	r.PowerOn(t)
	r.Display.HandleTE()
	if emu.SwTriggers() != 0 || r.Display.InFlight() != 0 {
		t.Fatal("software trigger with hardware trigger mode")
	}
}

func TestWatchTE(t *testing.T) {
	r, emu := exytesting.NewDECON(t, decon.Config{Interface: display.I80, Trigger: display.SoftwareTrigger})
	r.PowerOn(t)

	pin := &gpiotest.Pin{N: "TE", Num: 3, EdgesChan: make(chan gpio.Level, 1)}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- r.Display.WatchTE(ctx, pin) }()

	// Edges sent before the pin was configured are flushed, keep pulsing.
	eventually(t, func() bool {
		select {
		case pin.EdgesChan <- gpio.High:
		default:
		}
		return emu.SwTriggers() == 1
	})
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSuspendedFlip(t *testing.T) {
	r, emu := exytesting.NewDECON(t, decon.Config{FirstWindow: 1})
	r.ServeIRQ(t)
	r.PowerOn(t)
	if err := r.Display.DPMS(display.Suspend); err != nil {
		t.Fatal(err)
	}
	r.Events.Take()

	p := exytesting.Plane(display.XRGB8888, 800, 480)
	p.Src = image.Rect(0, 0, 100, 100)
	p.Dst = image.Rect(10, 10, 110, 110)
	raiseWhenWaiting(r, display.StatusFrame)
	if err := r.Display.PageFlip(1, p); err != nil {
		t.Fatal(err)
	}

	if r.Display.State() != display.Suspend || !r.Display.Suspended() {
		t.Fatalf("expected suspend, got %v", r.Display.State())
	}
	want := []string{"get power", "enable bus", "enable pixel", "disable pixel", "disable bus", "put power"}
	if got := r.Events.Take(); !slices.Equal(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	ws, _ := r.Display.Window(1)
	if full := image.Rect(0, 0, 800, 480); ws.Plane.Dst != full || ws.Plane.Src != full {
		t.Fatalf("flip not full screen: %v %v", ws.Plane.Src, ws.Plane.Dst)
	}
	if !ws.Desired || !ws.PendingResume {
		t.Fatalf("unexpected window state %+v", ws)
	}
	if r.Compositor.Flips() != 1 {
		t.Fatalf("expected one flip, got %d", r.Compositor.Flips())
	}
	if emu.InterruptsEnabled() || r.Display.VblankEnabled() {
		t.Fatal("interrupts left enabled")
	}
}

func TestSuspendedFlipInvalidMode(t *testing.T) {
	r, emu := exytesting.NewDECON(t, decon.Config{FirstWindow: 1})
	r.ServeIRQ(t)
	r.PowerOn(t)
	if err := r.Display.DPMS(display.Suspend); err != nil {
		t.Fatal(err)
	}
	m := exytesting.WVGA
	m.Clock = 0
	r.Compositor.SetMode(m)
	r.Events.Take()

	err := r.Display.PageFlip(1, exytesting.Plane(display.XRGB8888, 800, 480))
	if !errors.Is(err, display.ErrMode) {
		t.Fatalf("expected ErrMode, got %v", err)
	}
	if r.Display.State() != display.Suspend || !r.Display.Suspended() {
		t.Fatalf("expected suspend, got %v", r.Display.State())
	}
	want := []string{"get power", "enable bus", "enable pixel", "disable pixel", "disable bus", "put power"}
	if got := r.Events.Take(); !slices.Equal(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if r.Compositor.Flips() != 0 || emu.OutputEnabled() {
		t.Fatal("invalid mode scanned out")
	}
}
