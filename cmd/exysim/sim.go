package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/buildkite/shellwords"
	"github.com/jonboulle/clockwork"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"github.com/clktmr/exynos/decon"
	"github.com/clktmr/exynos/drivers/display"
	"github.com/clktmr/exynos/fimd"
	"github.com/clktmr/exynos/irq"
	"github.com/clktmr/exynos/regs"
)

type config struct {
	backend     string
	iface       string
	swTrigger   bool
	firstWindow int
	vsync       bool
	trace       bool

	// Real hardware instead of an emulator.
	phys  uint64
	uio   int
	tePin string
}

// regsSize covers the register block of both controllers.
const regsSize = 0x1000

var errNoEmulator = errors.New("not available on real hardware")

// emulator is implemented by decon.Emulator and fimd.Emulator.
type emulator interface {
	regs.Bus
	Observe(fn func(regs.Access))
	Raise(status display.Status)
	Line() *irq.Soft
}

// wvga is the mode of the simulated panel.
var wvga = display.Mode{
	Clock:    29_232 * physic.KiloHertz,
	Hdisplay: 800, HsyncStart: 840, HsyncEnd: 888, Htotal: 928,
	Vdisplay: 480, VsyncStart: 493, VsyncEnd: 495, Vtotal: 525,
}

type compositor struct{}

func (compositor) Mode(pipe int) display.Mode { return wvga }
func (compositor) HandleVblank(pipe int)      {}
func (compositor) PageFlipFinished(pipe int)  {}

var errUsage = errors.New("usage")

type sim struct {
	clock   clockwork.Clock
	out     io.Writer
	emu     emulator // nil when driving real hardware
	display *display.Context
	closers []io.Closer
	wg      sync.WaitGroup
}

func newSim(ctx context.Context, cfg config, out io.Writer) (*sim, error) {
	iface := display.RGB
	switch cfg.iface {
	case "rgb":
	case "i80":
		iface = display.I80
	default:
		return nil, fmt.Errorf("unknown interface %q", cfg.iface)
	}
	trigger := display.HardwareTrigger
	if cfg.swTrigger {
		trigger = display.SoftwareTrigger
	}

	s := &sim{clock: clockwork.NewRealClock(), out: out}
	var bus regs.Bus
	var line irq.Line
	if cfg.phys != 0 {
		phys, err := regs.Map(cfg.phys, regsSize)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, phys)
		bus = phys
		if cfg.uio >= 0 {
			uio, err := irq.OpenUIO(cfg.uio)
			if err != nil {
				s.close()
				return nil, err
			}
			s.closers = append(s.closers, uio)
			line = uio
		}
	} else {
		switch cfg.backend {
		case "decon":
			s.emu = decon.NewEmulator()
		case "fimd":
			s.emu = fimd.NewEmulator()
		default:
			return nil, fmt.Errorf("unknown backend %q", cfg.backend)
		}
		bus, line = s.emu, s.emu.Line()
		if cfg.trace {
			s.emu.Observe(func(a regs.Access) {
				if a.Store {
					fmt.Fprintf(out, "  %v <- %#08x\n", a.Off, a.Value)
				}
			})
		}
	}

	var backend display.Backend
	switch cfg.backend {
	case "decon":
		backend = decon.New(bus, decon.Config{FirstWindow: cfg.firstWindow, Interface: iface, Trigger: trigger})
	case "fimd":
		backend = fimd.New(bus, fimd.Config{FirstWindow: cfg.firstWindow, Interface: iface, Trigger: trigger})
	default:
		s.close()
		return nil, fmt.Errorf("unknown backend %q", cfg.backend)
	}
	s.display = display.New(backend, compositor{}, display.Config{Clock: s.clock})

	if cfg.tePin != "" {
		if _, err := host.Init(); err != nil {
			s.close()
			return nil, err
		}
		pin := gpioreg.ByName(cfg.tePin)
		if pin == nil {
			s.close()
			return nil, fmt.Errorf("unknown gpio %q", cfg.tePin)
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := s.display.WatchTE(ctx, pin); !errors.Is(err, context.Canceled) {
				fmt.Fprintln(out, "te:", err)
			}
		}()
	}

	if line == nil {
		return s, nil
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.display.ServeIRQ(ctx, line); !errors.Is(err, context.Canceled) {
			fmt.Fprintln(out, "irq:", err)
		}
	}()
	if cfg.vsync && s.emu != nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.vsync(ctx)
		}()
	}
	return s, nil
}

// vsync raises a frame interrupt every frame period.
func (s *sim) vsync(ctx context.Context) {
	t := s.clock.NewTicker(wvga.FramePeriod())
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.Chan():
			s.emu.Raise(display.StatusFrame)
		}
	}
}

// wait returns once all goroutines of the simulation ended and releases the
// hardware.
func (s *sim) wait() {
	s.wg.Wait()
	s.close()
}

func (s *sim) close() {
	for _, c := range s.closers {
		c.Close()
	}
	s.closers = nil
}

// run executes a script, stopping at the first failing command.
func (s *sim) run(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		args, err := shellwords.SplitPosix(text)
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if err := s.exec(args); err != nil {
			return fmt.Errorf("line %d: %s: %w", line, args[0], err)
		}
	}
	return scanner.Err()
}

func (s *sim) exec(args []string) error {
	d := s.display
	switch args[0] {
	case "dpms":
		if len(args) != 2 {
			return errUsage
		}
		state, err := display.ParseState(args[1])
		if err != nil {
			return err
		}
		return d.DPMS(state)
	case "plane", "flip":
		if len(args) != 5 && len(args) != 7 {
			return errUsage
		}
		win, p, err := parsePlane(args[1:])
		if err != nil {
			return err
		}
		if args[0] == "flip" {
			return d.PageFlip(win, p)
		}
		return d.SetPlane(win, p)
	case "fill":
		if len(args) != 3 {
			return errUsage
		}
		win, err := strconv.Atoi(args[1])
		if err != nil {
			return err
		}
		rgb, err := strconv.ParseUint(args[2], 16, 24)
		if err != nil {
			return err
		}
		ws, err := d.Window(win)
		if err != nil {
			return err
		}
		ws.Plane.Fill = color.RGBA{R: uint8(rgb >> 16), G: uint8(rgb >> 8), B: uint8(rgb), A: 0xff}
		return d.SetPlane(win, ws.Plane)
	case "commit":
		switch len(args) {
		case 1:
			return d.Commit()
		case 2:
			win, err := strconv.Atoi(args[1])
			if err != nil {
				return err
			}
			return d.WinCommit(win)
		}
		return errUsage
	case "disable":
		if len(args) != 2 {
			return errUsage
		}
		win, err := strconv.Atoi(args[1])
		if err != nil {
			return err
		}
		return d.WinDisable(win)
	case "vblank":
		if len(args) != 2 {
			return errUsage
		}
		switch args[1] {
		case "on":
			return d.EnableVblank()
		case "off":
			d.DisableVblank()
		case "wait":
			fmt.Fprintf(s.out, "vblank %v\n", d.WaitForVblank())
		default:
			return errUsage
		}
	case "irq":
		if len(args) != 2 {
			return errUsage
		}
		status, ok := map[string]display.Status{
			"frame":    display.StatusFrame,
			"done":     display.StatusCommandDone,
			"underrun": display.StatusUnderrun,
		}[args[1]]
		if !ok {
			return errUsage
		}
		if s.emu == nil {
			return errNoEmulator
		}
		s.emu.Raise(status)
	case "te":
		d.HandleTE()
	case "state":
		s.printState()
	case "dump":
		offs, vals, err := d.Dump()
		if err != nil {
			return err
		}
		for i, off := range offs {
			fmt.Fprintf(s.out, "%v %#08x\n", off, vals[i])
		}
		sig, _ := d.Signature()
		fmt.Fprintf(s.out, "signature %#02x\n", sig)
	default:
		return fmt.Errorf("unknown command")
	}
	return nil
}

func (s *sim) printState() {
	d := s.display
	fmt.Fprintf(s.out, "%v %v suspended=%v vblank=%v triggers=%d\n",
		d, d.State(), d.Suspended(), d.VblankEnabled(), d.Triggers())
	for win := range decon.Windows {
		ws, err := d.Window(win)
		if err != nil || ws.Plane.Format == display.FormatInvalid {
			continue
		}
		fmt.Fprintf(s.out, "  win%d %v %v desired=%v enabled=%v resume=%v\n",
			win, ws.Plane.Format, ws.Plane.Dst, ws.Desired, ws.Enabled, ws.PendingResume)
	}
}

// parsePlane parses "<win> <format> <w> <h> [x y]".
func parsePlane(args []string) (int, display.Plane, error) {
	var p display.Plane
	nums := make([]int, 0, 5)
	for i, arg := range args {
		if i == 1 {
			continue
		}
		n, err := strconv.Atoi(arg)
		if err != nil {
			return 0, p, err
		}
		nums = append(nums, n)
	}
	format, err := display.ParseFormat(args[1])
	if err != nil {
		return 0, p, err
	}

	w, h := nums[1], nums[2]
	p = display.Plane{
		Format: format,
		Addr:   0x4000_0000,
		Pitch:  w * format.BytesPerPixel(),
		Src:    image.Rect(0, 0, w, h),
		Dst:    image.Rect(0, 0, w, h),
	}
	if len(nums) == 5 {
		p.Dst = p.Dst.Add(image.Pt(nums[3], nums[4]))
	}
	return nums[0], p, nil
}
