// Package fimd programs the FIMD display controller of older Exynos SoCs
// (Exynos 4 and 5250/5420).
//
// FIMD has no standalone update, unprotected shadow registers are latched at
// every vsync.  The pixel clock is derived from the controller's source clock
// by an integer divider.
package fimd

import (
	"fmt"

	"periph.io/x/conn/v3/physic"

	"github.com/clktmr/exynos/drivers/display"
	"github.com/clktmr/exynos/regs"
	"github.com/clktmr/exynos/shadow"
)

// Windows is the number of hardware windows.
const Windows = 5

type Config struct {
	FirstWindow int

	Interface display.Interface
	Trigger   display.Trigger

	// ClockRate is the rate of the source clock the pixel clock is divided
	// from.  If zero, the source clock is used undivided.
	ClockRate physic.Frequency

	// Signal polarities not described by the mode.
	InvertVclk bool
	InvertVden bool

	// Sysreg maps the LCDBLK system registers, see decon.Config.
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
		panic(fmt.Sprintf("fimd: invalid first window %d", cfg.FirstWindow))
	}
	return &Controller{regs: regs.File{Bus: bus}, cfg: cfg}
}

func (c *Controller) String() string   { return "fimd" }
func (c *Controller) Bus() regs.Bus    { return c.regs.Bus }
func (c *Controller) Windows() int     { return Windows }
func (c *Controller) FirstWindow() int { return c.cfg.FirstWindow }

func (c *Controller) Shadow() shadow.Layout {
	return shadow.Layout{Shadow: shadowcon, Protect: protect}
}

func (c *Controller) commandMode() bool {
	return c.cfg.Interface == display.I80
}

// Stop disables the output at the end of the current frame.
func (c *Controller) Stop() {
	c.regs.SetBits(vidcon0, regs.Bits(envid, envidF), 0)
}

func (c *Controller) Stopped() bool {
	return c.regs.Read(vidcon0)&uint32(envid) == 0
}

// FIMD has no software reset, the registers keep their values until the
// power domain is turned off.
func (c *Controller) SoftReset()      {}
func (c *Controller) ResetDone() bool { return true }

func (c *Controller) Init() {
	if c.cfg.Sysreg != nil {
		bit := uint32(1) << c.cfg.LcdblkBypassShift
		regs.File{Bus: c.cfg.Sysreg}.SetBits(c.cfg.LcdblkOffset, bit, bit)
	}

	out := outRGB
	if c.commandMode() {
		out = outI80
	}
	c.regs.SetBits(vidcon0, vidOut.Mask(), vidOut.Encode(out))

	if !c.commandMode() {
		c.regs.Write(trigcon, 0)
		c.regs.Write(i80ifcon0, 0)
		return
	}
	trig := uint32(trigEnable)
	if c.cfg.Trigger == display.HardwareTrigger {
		trig |= uint32(trigHwEnable)
	} else {
		trig |= uint32(trigHwMask)
	}
	c.regs.Write(trigcon, trig)
	c.regs.Write(i80ifcon0, i80Enable)
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
		ctrl = bppMode.Encode(bpp32ARGB8888) | regs.Bits(wordSwap, bldPix, alphaSel)
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

	w.Write(vidwadd0(win), p.StartAddr())
	w.Write(vidwadd1(win), p.EndAddr())
	width := uint32(p.Src.Dx() * bpp)
	w.Write(vidwadd2(win), offSize.Encode(uint32(p.Pitch)-width)|pageWidth.Encode(width))

	w.Write(vidosdA(win), osdX.Encode(uint16(p.Dst.Min.X))|osdY.Encode(uint16(p.Dst.Min.Y)))
	w.Write(vidosdB(win), osdX.Encode(uint16(p.Dst.Max.X-1))|osdY.Encode(uint16(p.Dst.Max.Y-1)))
	if off, ok := osdAlpha(win); ok {
		w.Write(off, osdAlphaOpaque)
	}
	if off, ok := osdSize(win); ok {
		w.Write(off, sizeWords.Encode(uint32(p.Dst.Dx()*p.Dst.Dy()*bpp/4)))
	}

	if p.Fill != nil {
		w.Write(winmap(win), mapColorEnable|display.RGB888(p.Fill))
	} else {
		w.Write(winmap(win), 0)
	}

	w.Write(wincon(win), ctrl&^uint32(winEnable))
}

// EnableWindow switches both the window and its DMA channel.
func (c *Controller) EnableWindow(w *shadow.Window, on bool) {
	win := w.Index()
	ctrl, ch := uint32(0), uint32(0)
	if on {
		ctrl, ch = uint32(winEnable), chEnable(win)
	}
	w.SetBits(wincon(win), uint32(winEnable), ctrl)
	w.SetBits(shadowcon, chEnable(win), ch)
}

// divider returns the pixel clock divider for m, zero if the source clock is
// used undivided.
func (c *Controller) divider(m display.Mode) int {
	if c.cfg.ClockRate <= 0 || m.Clock <= 0 {
		return 0
	}
	return int((c.cfg.ClockRate + m.Clock - 1) / m.Clock)
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
	if div := c.divider(m); div > 1 && !clkVal.FitsInt(div-1) {
		return fmt.Errorf("%w: pixel clock %v can't be divided from %v", display.ErrMode, m.Clock, c.cfg.ClockRate)
	}
	return nil
}

func (c *Controller) WriteTiming(m display.Mode) {
	if !c.commandMode() {
		pol := uint32(0)
		if m.Flags&display.NHsync != 0 {
			pol |= uint32(invHsync)
		}
		if m.Flags&display.NVsync != 0 {
			pol |= uint32(invVsync)
		}
		if c.cfg.InvertVclk {
			pol |= uint32(invVclk)
		}
		if c.cfg.InvertVden {
			pol |= uint32(invVden)
		}
		c.regs.SetBits(vidcon1, uint32(polarity), pol)

		hbp, hfp, hsw, vbp, vfp, vsw := m.Porches()
		c.regs.Write(vidtcon0, porchBack.Encode(uint16(vbp-1))|porchFront.Encode(uint16(vfp-1))|syncWidth.Encode(uint16(vsw-1)))
		c.regs.Write(vidtcon1, porchBack.Encode(uint16(hbp-1))|porchFront.Encode(uint16(hfp-1))|syncWidth.Encode(uint16(hsw-1)))
	}
	c.regs.Write(vidtcon2, lineVal.Encode(uint16(m.Lines()-1))|hozVal.Encode(uint16(m.Hdisplay-1)))

	mask := clkVal.Mask() | regs.Bits(clkDir, interlace)
	v := uint32(0)
	if div := c.divider(m); div > 1 {
		v |= clkVal.Encode(uint16(div-1)) | uint32(clkDir)
	}
	if m.Flags&display.Interlace != 0 {
		v |= uint32(interlace)
	}
	c.regs.SetBits(vidcon0, mask, v)
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
		v |= uint32(intI80Done)
	} else {
		v |= regs.Bits(intFrame, frameSelFP)
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
	if pending&uint32(pendI80) != 0 {
		status |= display.StatusCommandDone
	}
	if pending&uint32(pendFifo) != 0 {
		status |= display.StatusUnderrun
	}
	return
}

func (c *Controller) Registers() []regs.Offset {
	offs := []regs.Offset{vidcon0, vidcon1, vidtcon0, vidtcon1, vidtcon2,
		shadowcon, vidintcon0, trigcon, i80ifcon0}
	for win := range Windows {
		offs = append(offs, wincon(win), vidosdA(win), vidosdB(win),
			vidosdC(win), vidosdD(win), vidwadd0(win), vidwadd1(win),
			vidwadd2(win), winmap(win))
	}
	return offs
}
