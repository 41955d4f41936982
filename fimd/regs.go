package fimd

import (
	"github.com/clktmr/exynos/regs"
)

const (
	vidcon0    regs.Offset = 0x0000
	vidcon1    regs.Offset = 0x0004
	vidtcon0   regs.Offset = 0x0010
	vidtcon1   regs.Offset = 0x0014
	vidtcon2   regs.Offset = 0x0018
	shadowcon  regs.Offset = 0x0034
	vidintcon0 regs.Offset = 0x0130
	vidintcon1 regs.Offset = 0x0134
	trigcon    regs.Offset = 0x01a4
	i80ifcon0  regs.Offset = 0x01b0
)

func wincon(win int) regs.Offset   { return 0x0020 + regs.Offset(win)*0x4 }
func vidosdA(win int) regs.Offset  { return 0x0040 + regs.Offset(win)*0x10 }
func vidosdB(win int) regs.Offset  { return 0x0044 + regs.Offset(win)*0x10 }
func vidosdC(win int) regs.Offset  { return 0x0048 + regs.Offset(win)*0x10 }
func vidosdD(win int) regs.Offset  { return 0x004c + regs.Offset(win)*0x10 }
func vidwadd0(win int) regs.Offset { return 0x00a0 + regs.Offset(win)*0x8 }
func vidwadd1(win int) regs.Offset { return 0x00d0 + regs.Offset(win)*0x8 }
func vidwadd2(win int) regs.Offset { return 0x0100 + regs.Offset(win)*0x4 }
func winmap(win int) regs.Offset   { return 0x0180 + regs.Offset(win)*0x4 }

// osdSize returns the register holding the window's size in words.  Windows
// 3 and 4 have none.
func osdSize(win int) (regs.Offset, bool) {
	switch win {
	case 0:
		return vidosdC(0), true
	case 1, 2:
		return vidosdD(win), true
	}
	return 0, false
}

// osdAlpha returns the register holding the window's alpha values.  Window 0
// is never blended.
func osdAlpha(win int) (regs.Offset, bool) {
	if win == 0 {
		return 0, false
	}
	return vidosdC(win), true
}

type vidcontrol0 uint32

const (
	envidF    vidcontrol0 = 1 << 0
	envid     vidcontrol0 = 1 << 1
	clkDir    vidcontrol0 = 1 << 4
	interlace vidcontrol0 = 1 << 29
)

var (
	clkVal = regs.Field[uint16]{Shift: 6, Width: 8}
	vidOut = regs.Field[uint8]{Shift: 26, Width: 3}
)

const (
	outRGB uint8 = 0
	outI80 uint8 = 2
)

type vidcontrol1 uint32

const (
	invVden  vidcontrol1 = 1 << 4
	invVsync vidcontrol1 = 1 << 5
	invHsync vidcontrol1 = 1 << 6
	invVclk  vidcontrol1 = 1 << 7
	polarity             = invVden | invVsync | invHsync | invVclk
)

var (
	porchBack  = regs.Field[uint16]{Shift: 16, Width: 8}
	porchFront = regs.Field[uint16]{Shift: 8, Width: 8}
	syncWidth  = regs.Field[uint16]{Shift: 0, Width: 8}
	lineVal    = regs.Field[uint16]{Shift: 11, Width: 11}
	hozVal     = regs.Field[uint16]{Shift: 0, Width: 11}
)

type wincontrol uint32

const (
	winEnable wincontrol = 1 << 0
	alphaSel  wincontrol = 1 << 1
	bldPix    wincontrol = 1 << 6
	wordSwap  wincontrol = 1 << 15
	hwordSwap wincontrol = 1 << 16
	burstMask wincontrol = 0x3 << 9
	burst16   wincontrol = 0x0 << 9
	burst8    wincontrol = 0x1 << 9
)

var bppMode = regs.Field[uint8]{Shift: 2, Width: 4}

const (
	bpp16XRGB1555 uint8 = 0x7
	bpp16RGB565   uint8 = 0x5
	bpp24XRGB8888 uint8 = 0xb
	bpp32ARGB8888 uint8 = 0xd
)

var (
	osdX = regs.Field[uint16]{Shift: 11, Width: 11}
	osdY = regs.Field[uint16]{Shift: 0, Width: 11}

	offSize   = regs.Field[uint32]{Shift: 13, Width: 13}
	pageWidth = regs.Field[uint32]{Shift: 0, Width: 13}
	sizeWords = regs.Field[uint32]{Shift: 0, Width: 24}
)

const (
	osdAlphaOpaque = 0x0fff
	mapColorEnable = 1 << 24
)

func chEnable(win int) uint32 { return 1 << win }
func protect(win int) uint32  { return 1 << (10 + win) }

type intcontrol uint32

const (
	intEnable  intcontrol = 1 << 0
	intFrame   intcontrol = 1 << 12
	intI80Done intcontrol = 1 << 17
	frameSelFP intcontrol = 0x3 << 15
)

// Pending interrupts, write 1 to clear.
type intpending uint32

const (
	pendFifo  intpending = 1 << 0
	pendFrame intpending = 1 << 1
	pendI80   intpending = 1 << 2
)

type trigcontrol uint32

const (
	trigEnable   trigcontrol = 1 << 0
	trigSwCmd    trigcontrol = 1 << 1
	trigHwEnable trigcontrol = 1 << 3
	trigHwMask   trigcontrol = 1 << 4
)

const i80Enable = 1 << 0
