// Package decon programs the DECON display controller found on Exynos 5433
// and Exynos 7 SoCs.
//
// DECON double buffers its window registers and latches them on a standalone
// update request.  It drives either a video mode (RGB) or a command mode
// (I80) panel.
package decon

import (
	"fmt"

	"github.com/clktmr/exynos/drivers/display"
	"github.com/clktmr/exynos/regs"
	"github.com/clktmr/exynos/shadow"
)

// Windows is the number of hardware windows.
const Windows = 5

type Config struct {
	// FirstWindow is the lowest window controlled by the driver, windows
	// below are reserved, e.g. for the TV path.
	FirstWindow int

	Interface display.Interface
	Trigger   display.Trigger

	// Sysreg maps the LCDBLK system registers.  If set, the bypass bit at
	// LcdblkBypassShift in the register at LcdblkOffset is set on power on.
	Sysreg            regs.Bus
	LcdblkOffset      regs.Offset
	LcdblkBypassShift uint8
}

// Controller implements display.Backend.
type Controller struct {
	regs regs.File
	cfg  Config
}

func New(bus regs.Bus, cfg Config) *Controller {
	if cfg.FirstWindow < 0 || cfg.FirstWindow >= Windows {
		panic(fmt.Sprintf("decon: invalid first window %d", cfg.FirstWindow))
	}
	return &Controller{regs: regs.File{Bus: bus}, cfg: cfg}
}

func (c *Controller) String() string   { return "decon" }
func (c *Controller) Bus() regs.Bus    { return c.regs.Bus }
func (c *Controller) Windows() int     { return Windows }
func (c *Controller) FirstWindow() int { return c.cfg.FirstWindow }

func (c *Controller) Shadow() shadow.Layout {
	return shadow.Layout{
		Shadow:     shadowcon,
		Protect:    protect,
		Update:     update,
		Standalone: standaloneUpdate,
	}
}

func (c *Controller) commandMode() bool {
	return c.cfg.Interface == display.I80
}

func (c *Controller) Stop() {
	c.regs.Write(vidcon0, 0)
}

func (c *Controller) Stopped() bool {
	return c.regs.Read(vidcon0)&uint32(stopStatus) == 0
}

func (c *Controller) SoftReset() {
	c.regs.Write(vidcon0, uint32(swReset))
}

func (c *Controller) ResetDone() bool {
	return c.regs.Read(vidcon0)&uint32(swReset) == 0
}

func (c *Controller) Init() {
	if c.cfg.Sysreg != nil {
		bit := uint32(1) << c.cfg.LcdblkBypassShift
		regs.File{Bus: c.cfg.Sysreg}.SetBits(c.cfg.LcdblkOffset, bit, bit)
	}

	if c.commandMode() {
		c.regs.Write(vidoutcon0, outType.Encode(outI80))
		trig := regs.Bits(trigPerFrame, trigEnable, trigTEMask, trigSwEnable)
		if c.cfg.Trigger == display.HardwareTrigger {
			trig |= uint32(trigHwEnable)
		}
		c.regs.Write(trigcon, trig)
	} else {
		c.regs.Write(vidoutcon0, outType.Encode(outRGB))
		c.regs.Write(trigcon, regs.Bits(trigTEMask, trigSwEnable))
	}
}

func (c *Controller) WindowControl(p *display.Plane) (uint32, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	if !osdX.FitsInt(p.Dst.Max.X-1) || !osdY.FitsInt(p.Dst.Max.Y-1) {
		return 0, fmt.Errorf("%w: %v exceeds window range", display.ErrGeometry, p.Dst)
	}
	if !pageWidth.FitsInt(p.Pitch) {
		return 0, fmt.Errorf("%w: pitch %d", display.ErrGeometry, p.Pitch)
	}

	var ctrl uint32
	switch p.Format {
	case display.XRGB1555:
		ctrl = bppMode.Encode(bpp16XRGB1555) | uint32(hwordSwap)
	case display.RGB565:
		ctrl = bppMode.Encode(bpp16RGB565) | uint32(hwordSwap)
	case display.XRGB8888:
		ctrl = bppMode.Encode(bpp24XRGB8888) | uint32(wordSwap)
	case display.ARGB8888:
		ctrl = bppMode.Encode(bpp32ARGB8888) | regs.Bits(wordSwap, bldPix, alphaSel, alphaMul)
	default:
		return 0, fmt.Errorf("%w: %v", display.ErrFormat, p.Format)
	}

	if p.NarrowBurst() {
		ctrl |= uint32(burst8)
	} else {
		ctrl |= uint32(burst16)
	}
	return ctrl, nil
}

func (c *Controller) WriteWindow(w *shadow.Window, p *display.Plane, ctrl uint32) {
	win := w.Index()
	bpp := p.Format.BytesPerPixel()

	w.Write(vidosdA(win), osdX.Encode(uint16(p.Dst.Min.X))|osdY.Encode(uint16(p.Dst.Min.Y)))
	w.Write(vidosdB(win), osdX.Encode(uint16(p.Dst.Max.X-1))|osdY.Encode(uint16(p.Dst.Max.Y-1)))
	w.Write(vidosdC(win), osdAlphaOpaque)
	w.Write(vidosdD(win), osdAlphaOpaque)

	w.Write(vidwadd0(win), p.StartAddr())
	w.Write(vidwadd1(win), p.EndAddr())
	width := uint32(p.Src.Dx() * bpp)
	w.Write(vidwadd2(win), offSize.Encode(uint32(p.Pitch)-width)|pageWidth.Encode(width))

	if p.Fill != nil {
		w.Write(winmap(win), mapColorEnable|display.RGB888(p.Fill))
	} else {
		w.Write(winmap(win), 0)
	}

	w.Write(wincon(win), ctrl&^uint32(winEnable))
}

func (c *Controller) EnableWindow(w *shadow.Window, on bool) {
	v := uint32(0)
	if on {
		v = uint32(winEnable)
	}
	w.SetBits(wincon(w.Index()), uint32(winEnable), v)
}

func (c *Controller) CheckMode(m display.Mode) error {
	if err := m.Validate(); err != nil {
		return err
	}
	hbp, hfp, hsw, vbp, vfp, vsw := m.Porches()
	for _, v := range []int{hbp, hfp, hsw, vbp, vfp, vsw} {
		if !porchBack.FitsInt(v - 1) {
			return fmt.Errorf("%w: porch %d out of range", display.ErrMode, v)
		}
	}
	if !hozVal.FitsInt(m.Hdisplay-1) || !lineVal.FitsInt(m.Lines()-1) {
		return fmt.Errorf("%w: %v too large", display.ErrMode, m)
	}
	return nil
}

func (c *Controller) WriteTiming(m display.Mode) {
	if !c.commandMode() {
		hbp, hfp, hsw, vbp, vfp, vsw := m.Porches()
		c.regs.Write(vidtcon00, porchBack.Encode(uint16(vbp-1))|porchFront.Encode(uint16(vfp-1)))
		c.regs.Write(vidtcon01, syncWidth.Encode(uint16(vsw-1)))
		c.regs.Write(vidtcon10, porchBack.Encode(uint16(hbp-1))|porchFront.Encode(uint16(hfp-1)))
		c.regs.Write(vidtcon11, syncWidth.Encode(uint16(hsw-1)))
	}
	c.regs.Write(vidtcon20, lineVal.Encode(uint16(m.Lines()-1))|hozVal.Encode(uint16(m.Hdisplay-1)))

	interlace := uint32(0)
	if m.Flags&display.Interlace != 0 {
		interlace = uint32(outInterlace)
	}
	c.regs.SetBits(vidoutcon0, uint32(outInterlace), interlace)
}

func (c *Controller) EnableOutput(on bool) {
	mask := regs.Bits(envid, envidF)
	v := uint32(0)
	if on {
		v = mask
	}
	c.regs.SetBits(vidcon0, mask, v)
}

func (c *Controller) NeedsTrigger() bool {
	return c.commandMode() && c.cfg.Trigger == display.SoftwareTrigger
}

func (c *Controller) Trigger() {
	c.regs.SetBits(trigcon, uint32(trigSwCmd), uint32(trigSwCmd))
}

func (c *Controller) EnableInterrupts(on bool) {
	if !on {
		c.regs.Write(vidintcon0, 0)
		return
	}
	v := uint32(intEnable)
	if c.commandMode() {
		v |= uint32(intFrameDone)
	} else {
		v |= regs.Bits(intFrame, intFrameSelFP)
	}
	c.regs.Write(vidintcon0, v)
}

func (c *Controller) AckInterrupts() (status display.Status) {
	pending := c.regs.Read(vidintcon1)
	if pending == 0 {
		return 0
	}
	c.regs.Write(vidintcon1, pending)

	if pending&uint32(pendFrame) != 0 {
		status |= display.StatusFrame
	}
	if pending&uint32(pendFrameDone) != 0 {
		status |= display.StatusCommandDone
	}
	if pending&uint32(pendFifo) != 0 {
		status |= display.StatusUnderrun
	}
	return
}

func (c *Controller) Registers() []regs.Offset {
	offs := []regs.Offset{vidcon0, vidoutcon0, shadowcon, vidintcon0,
		vidtcon00, vidtcon01, vidtcon10, vidtcon11, vidtcon20, trigcon}
	for win := range Windows {
		offs = append(offs, wincon(win), vidosdA(win), vidosdB(win),
			vidosdC(win), vidosdD(win), vidwadd0(win), vidwadd1(win),
			vidwadd2(win), winmap(win))
	}
	return offs
}
