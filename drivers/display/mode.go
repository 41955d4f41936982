package display

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/physic"
)

var ErrMode = errors.New("display: invalid mode")

type ModeFlag uint32

const (
	PHsync ModeFlag = 1 << iota
	NHsync
	PVsync
	NVsync
	Interlace
)

// Mode is a display timing, laid out like a DRM mode line.
type Mode struct {
	Clock physic.Frequency

	Hdisplay, HsyncStart, HsyncEnd, Htotal int
	Vdisplay, VsyncStart, VsyncEnd, Vtotal int

	Flags ModeFlag
}

// Porches returns the timing values a controller needs.  For interlaced
// modes the vertical values are per field.
func (m Mode) Porches() (hbp, hfp, hsw, vbp, vfp, vsw int) {
	hbp = m.Htotal - m.HsyncEnd
	hfp = m.HsyncStart - m.Hdisplay
	hsw = m.HsyncEnd - m.HsyncStart
	vbp = m.Vtotal - m.VsyncEnd
	vfp = m.VsyncStart - m.Vdisplay
	vsw = m.VsyncEnd - m.VsyncStart
	if m.Flags&Interlace != 0 {
		vbp, vfp, vsw = vbp/2, vfp/2, max(vsw/2, 1)
	}
	return
}

// Lines returns the number of active lines per field.
func (m Mode) Lines() int {
	if m.Flags&Interlace != 0 {
		return m.Vdisplay / 2
	}
	return m.Vdisplay
}

func (m Mode) Validate() error {
	switch {
	case m.Hdisplay <= 0 || m.Vdisplay <= 0:
		return fmt.Errorf("%w: %dx%d", ErrMode, m.Hdisplay, m.Vdisplay)
	case m.HsyncStart <= m.Hdisplay || m.HsyncEnd <= m.HsyncStart || m.Htotal <= m.HsyncEnd:
		return fmt.Errorf("%w: horizontal %d/%d/%d/%d", ErrMode, m.Hdisplay, m.HsyncStart, m.HsyncEnd, m.Htotal)
	case m.VsyncStart <= m.Vdisplay || m.VsyncEnd <= m.VsyncStart || m.Vtotal <= m.VsyncEnd:
		return fmt.Errorf("%w: vertical %d/%d/%d/%d", ErrMode, m.Vdisplay, m.VsyncStart, m.VsyncEnd, m.Vtotal)
	case m.Clock <= 0:
		return fmt.Errorf("%w: pixel clock %v", ErrMode, m.Clock)
	}
	return nil
}

// Refresh returns the frame rate.
func (m Mode) Refresh() physic.Frequency {
	if m.Htotal <= 0 || m.Vtotal <= 0 {
		return 0
	}
	return m.Clock / physic.Frequency(m.Htotal*m.Vtotal)
}

// FramePeriod returns the duration of one frame, or zero if unknown.
func (m Mode) FramePeriod() time.Duration {
	r := m.Refresh()
	if r <= 0 {
		return 0
	}
	return r.Period()
}

func (m Mode) String() string {
	s := fmt.Sprintf("%dx%d@%v", m.Hdisplay, m.Vdisplay, m.Refresh())
	if m.Flags&Interlace != 0 {
		s += "i"
	}
	return s
}
