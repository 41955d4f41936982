package display

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

var (
	ErrFormat   = errors.New("display: unsupported pixel format")
	ErrGeometry = errors.New("display: invalid plane geometry")
)

// PixelFormat is the memory layout of a plane's pixels.
type PixelFormat uint32

const (
	FormatInvalid PixelFormat = iota
	XRGB1555                  // 16 bit, 5:5:5 with unused top bit
	RGB565                    // 16 bit, 5:6:5
	XRGB8888                  // 24 bit 8:8:8 in a 32 bit word
	ARGB8888                  // 32 bit 8:8:8:8 with alpha
)

var formatNames = [...]string{"invalid", "XRGB1555", "RGB565", "XRGB8888", "ARGB8888"}

func (f PixelFormat) String() string {
	if int(f) < len(formatNames) {
		return formatNames[f]
	}
	return fmt.Sprintf("PixelFormat(%d)", uint32(f))
}

// BytesPerPixel returns zero for unknown formats.
func (f PixelFormat) BytesPerPixel() int {
	switch f {
	case XRGB1555, RGB565:
		return 2
	case XRGB8888, ARGB8888:
		return 4
	}
	return 0
}

func (f PixelFormat) HasAlpha() bool {
	return f == ARGB8888
}

// ParseFormat returns the format named s, as returned by String.
func ParseFormat(s string) (PixelFormat, error) {
	for i, name := range formatNames[1:] {
		if name == s {
			return PixelFormat(i + 1), nil
		}
	}
	return FormatInvalid, fmt.Errorf("%w: %q", ErrFormat, s)
}

// MinBurstWidth is the minimum effective scanout width in pixels for using the
// widest DMA burst.  Narrower planes, e.g. cursors, make the DMA unstable with
// wide bursts and must fall back to the next smaller burst length.
const MinBurstWidth = 128

// Plane is the configuration of a hardware window.
type Plane struct {
	Format PixelFormat

	// Addr is the DMA address of the buffer's first pixel, Pitch the number
	// of bytes between two lines.
	Addr  uint32
	Pitch int

	// Src selects the scanned out part of the buffer.  Dst is the position
	// on the screen and must be the same size, windows can't scale.
	Src, Dst image.Rectangle

	// Fill replaces the buffer's content with a solid color if set.
	Fill color.Color
}

// EffectiveWidth returns the scanout width in pixels including the padding
// between the end of a line and the start of the next one.
func (p *Plane) EffectiveWidth() int {
	bpp := p.Format.BytesPerPixel()
	if bpp == 0 {
		return 0
	}
	padding := p.Pitch/bpp - p.Src.Dx()
	return padding + p.Src.Dx()
}

// NarrowBurst reports whether the plane needs a shorter DMA burst.
func (p *Plane) NarrowBurst() bool {
	return p.EffectiveWidth() < MinBurstWidth
}

// Validate checks everything about p that doesn't depend on the hardware.
func (p *Plane) Validate() error {
	bpp := p.Format.BytesPerPixel()
	if bpp == 0 {
		return fmt.Errorf("%w: %v", ErrFormat, p.Format)
	}
	switch {
	case p.Src.Empty():
		return fmt.Errorf("%w: empty source %v", ErrGeometry, p.Src)
	case p.Src.Size() != p.Dst.Size():
		return fmt.Errorf("%w: can't scale %v to %v", ErrGeometry, p.Src.Size(), p.Dst.Size())
	case p.Src.Min.X < 0 || p.Src.Min.Y < 0 || p.Dst.Min.X < 0 || p.Dst.Min.Y < 0:
		return fmt.Errorf("%w: negative position", ErrGeometry)
	case p.Pitch < p.Src.Max.X*bpp:
		return fmt.Errorf("%w: pitch %d too small for %d pixels", ErrGeometry, p.Pitch, p.Src.Max.X)
	}
	return nil
}

// StartAddr returns the DMA address of the first scanned out pixel.
func (p *Plane) StartAddr() uint32 {
	return p.Addr + uint32(p.Src.Min.Y*p.Pitch+p.Src.Min.X*p.Format.BytesPerPixel())
}

// EndAddr returns the DMA address after the last scanned out line.
func (p *Plane) EndAddr() uint32 {
	return p.StartAddr() + uint32(p.Pitch*p.Src.Dy())
}

// RGB888 converts c to the 24 bit color used by window color maps.
func RGB888(c color.Color) uint32 {
	r, g, b, _ := c.RGBA()
	return (r>>8)<<16 | (g>>8)<<8 | b>>8
}
