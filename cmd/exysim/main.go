package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"golang.org/x/exp/slog"

	"github.com/clktmr/exynos/debug"
	"github.com/clktmr/exynos/drivers/display"
)

const usageString = `exysim runs display controller scripts against an emulated Exynos DECON or
FIMD.

Usage:

	%s [flags] [script]

The script is read from stdin if omitted.  Each line holds one command:

	dpms <on|standby|suspend|off>      change the power state
	plane <win> <format> <w> <h> [x y] configure a window's plane
	fill <win> <rrggbb>                fill a window with a solid color
	commit [win]                       commit a single window or everything
	disable <win>                      disable a window
	flip <win> <format> <w> <h>        page flip, waking a suspended display
	vblank <on|off|wait>               control and wait for vsync interrupts
	irq <frame|done|underrun>          raise an interrupt
	te                                 pulse the tearing effect signal
	state                              print power and window state
	dump                               print all registers and their signature

Real hardware is driven with -phys, the irq command is only available on the
emulator.

The flags are:

`

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), usageString, os.Args[0])
	flag.PrintDefaults()
}

func main() {
	var cfg config
	flag.StringVar(&cfg.backend, "backend", "decon", "emulated `controller` (decon or fimd)")
	flag.StringVar(&cfg.iface, "iface", "rgb", "panel `interface` (rgb or i80)")
	flag.BoolVar(&cfg.swTrigger, "swtrigger", false, "trigger command mode frames by software")
	flag.IntVar(&cfg.firstWindow, "first", 0, "lowest `window` controlled by the driver")
	flag.BoolVar(&cfg.vsync, "vsync", false, "raise frame interrupts at the mode's refresh rate")
	flag.BoolVar(&cfg.trace, "trace", false, "print every register store")
	flag.Uint64Var(&cfg.phys, "phys", 0, "drive the controller at physical `address` instead of an emulator")
	flag.IntVar(&cfg.uio, "uio", -1, "serve interrupts from /dev/uio`N`")
	flag.StringVar(&cfg.tePin, "te", "", "watch the tearing effect signal on `gpio`")
	logLevel := flag.String("log", "warn", "log `level`")
	flag.Usage = usage
	flag.Parse()

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		os.Exit(1)
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	debug.SetLogger(slog.New(h))

	if flag.NArg() > 1 {
		flag.Usage()
		os.Exit(1)
	}
	if err := run(cfg, flag.Arg(0)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run executes the script at path, or stdin if path is empty.  The display
// is turned off before the registers are unmapped.
func run(cfg config, path string) error {
	var script io.Reader = os.Stdin
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		script = f
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s, err := newSim(ctx, cfg, os.Stdout)
	if err != nil {
		return err
	}
	defer s.wait()
	defer cancel()

	if err := s.run(script); err != nil {
		return err
	}
	if s.display.State() != display.Off {
		return s.display.Halt()
	}
	return nil
}
