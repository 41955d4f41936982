package decon

import (
	"github.com/clktmr/exynos/regs"
)

const (
	vidcon0    regs.Offset = 0x0000
	vidoutcon0 regs.Offset = 0x0010
	shadowcon  regs.Offset = 0x0030
	vidintcon0 regs.Offset = 0x0040
	vidintcon1 regs.Offset = 0x0044
	vidtcon00  regs.Offset = 0x0310
	vidtcon01  regs.Offset = 0x0314
	vidtcon10  regs.Offset = 0x0318
	vidtcon11  regs.Offset = 0x031c
	vidtcon20  regs.Offset = 0x0320
	trigcon    regs.Offset = 0x0380
	update     regs.Offset = 0x0710
)

func wincon(win int) regs.Offset   { return 0x0050 + regs.Offset(win)*0x4 }
func vidosdA(win int) regs.Offset  { return 0x0080 + regs.Offset(win)*0x20 }
func vidosdB(win int) regs.Offset  { return 0x0084 + regs.Offset(win)*0x20 }
func vidosdC(win int) regs.Offset  { return 0x0088 + regs.Offset(win)*0x20 }
func vidosdD(win int) regs.Offset  { return 0x008c + regs.Offset(win)*0x20 }
func vidwadd0(win int) regs.Offset { return 0x0150 + regs.Offset(win)*0x10 }
func vidwadd1(win int) regs.Offset { return 0x01b0 + regs.Offset(win)*0x10 }
func vidwadd2(win int) regs.Offset { return 0x0210 + regs.Offset(win)*0x4 }
func winmap(win int) regs.Offset   { return 0x0340 + regs.Offset(win)*0x4 }

type vidcon uint32

const (
	envidF vidcon = 1 << 0
	envid  vidcon = 1 << 1
	// Set as long as the output hasn't stopped yet.
	stopStatus vidcon = 1 << 2
	swReset    vidcon = 1 << 28
)

type vidoutcon uint32

const (
	outInterlace vidoutcon = 1 << 10
)

var outType = regs.Field[uint8]{Shift: 0, Width: 2}

const (
	outRGB uint8 = 0
	outI80 uint8 = 2
)

type wincontrol uint32

const (
	winEnable wincontrol = 1 << 0
	alphaSel  wincontrol = 1 << 1
	bldPix    wincontrol = 1 << 6
	alphaMul  wincontrol = 1 << 7
	wordSwap  wincontrol = 1 << 15
	hwordSwap wincontrol = 1 << 16
	burstMask wincontrol = 0x3 << 10
	burst16   wincontrol = 0x0 << 10
	burst8    wincontrol = 0x1 << 10
)

var bppMode = regs.Field[uint8]{Shift: 2, Width: 5}

const (
	bpp16XRGB1555 uint8 = 0x4
	bpp16RGB565   uint8 = 0x5
	bpp24XRGB8888 uint8 = 0xb
	bpp32ARGB8888 uint8 = 0xd
)

// Window position and size fields, shared by VIDOSDxA and VIDOSDxB.
var (
	osdX = regs.Field[uint16]{Shift: 13, Width: 13}
	osdY = regs.Field[uint16]{Shift: 0, Width: 13}
)

var (
	offSize   = regs.Field[uint32]{Shift: 14, Width: 14}
	pageWidth = regs.Field[uint32]{Shift: 0, Width: 14}
)

const (
	osdAlphaOpaque = 0x00ff_ffff
	mapColorEnable = 1 << 24
)

type intcontrol uint32

const (
	intEnable     intcontrol = 1 << 0
	intFrame      intcontrol = 1 << 12
	intFrameSelFP intcontrol = 1 << 15
	intFrameDone  intcontrol = 1 << 17
)

// Pending interrupts, write 1 to clear.
type intpending uint32

const (
	pendFifo      intpending = 1 << 0
	pendFrame     intpending = 1 << 1
	pendFrameDone intpending = 1 << 2
)

var (
	porchBack  = regs.Field[uint16]{Shift: 16, Width: 12}
	porchFront = regs.Field[uint16]{Shift: 0, Width: 12}
	syncWidth  = regs.Field[uint16]{Shift: 0, Width: 12}
	lineVal    = regs.Field[uint16]{Shift: 16, Width: 14}
	hozVal     = regs.Field[uint16]{Shift: 0, Width: 14}
)

type trigcontrol uint32

const (
	trigSwEnable trigcontrol = 1 << 0
	trigSwCmd    trigcontrol = 1 << 1
	trigHwEnable trigcontrol = 1 << 2
	trigTEMask   trigcontrol = 1 << 29
	trigEnable   trigcontrol = 1 << 30
	trigPerFrame trigcontrol = 1 << 31
)

const standaloneUpdate = 1 << 0

func protect(win int) uint32 { return 1 << (10 + win) }
