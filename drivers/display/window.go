package display

import (
	"fmt"

	"golang.org/x/exp/slog"

	"github.com/clktmr/exynos/debug"
)

// SetPlane stores the configuration of window win without committing it.
// Invalid configurations are rejected and leave the window unchanged.
func (c *Context) SetPlane(win int, p Plane) error {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.setPlane(win, p)
}

func (c *Context) setPlane(win int, p Plane) error {
	if err := c.checkWindow(win); err != nil {
		return err
	}
	if _, err := c.backend.WindowControl(&p); err != nil {
		c.log.Error("rejected plane", slog.Int("window", win), slog.Any("err", err))
		return err
	}
	c.windows[win].plane = p
	c.windows[win].hasPlane = true
	return nil
}

// WinCommit shows window win with its current plane.  While the display is
// suspended the commit is deferred until the next power on.
func (c *Context) WinCommit(win int) error {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if err := c.checkWindow(win); err != nil {
		return err
	}
	if err := c.commitWindow(win); err != nil {
		return err
	}
	c.windows[win].desired = true
	return nil
}

// WinDisable hides window win.
func (c *Context) WinDisable(win int) error {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if err := c.checkWindow(win); err != nil {
		return err
	}
	c.windows[win].desired = false
	c.disableWindow(win)
	return nil
}

func (c *Context) windowControl(win int) (uint32, error) {
	w := &c.windows[win]
	if !w.hasPlane {
		return 0, fmt.Errorf("%w: %d", ErrNoPlane, win)
	}
	ctrl, err := c.backend.WindowControl(&w.plane)
	if err != nil {
		c.log.Error("aborted window commit", slog.Int("window", win), slog.Any("err", err))
		return 0, err
	}
	return ctrl, nil
}

func (c *Context) commitWindow(win int) error {
	ctrl, err := c.windowControl(win)
	if err != nil {
		return err
	}

	debug.AssertIndex(win, c.backend.FirstWindow(), len(c.windows), "display: commit of reserved window")
	w := &c.windows[win]
	if c.suspended {
		w.resume = true
		return nil
	}

	c.waitIdle()
	sw := c.shadow.Protect(win)
	c.backend.WriteWindow(sw, &w.plane, ctrl)
	c.backend.EnableWindow(sw, true)
	sw.Release()
	c.trigger()

	w.enabled = true
	return nil
}

func (c *Context) disableWindow(win int) {
	debug.AssertIndex(win, c.backend.FirstWindow(), len(c.windows), "display: disable of reserved window")
	w := &c.windows[win]
	if c.suspended {
		w.resume = false
		return
	}

	c.waitIdle()
	sw := c.shadow.Protect(win)
	c.backend.EnableWindow(sw, false)
	sw.Release()
	c.trigger()

	w.enabled = false
}

// suspendWindows disables all windows, remembering which ones to enable again
// by resumeWindows.
func (c *Context) suspendWindows() {
	for win := c.backend.FirstWindow(); win < len(c.windows); win++ {
		w := &c.windows[win]
		w.resume = w.enabled
		if w.enabled {
			c.disableWindow(win)
		}
	}
}

func (c *Context) resumeWindows() {
	for win := c.backend.FirstWindow(); win < len(c.windows); win++ {
		w := &c.windows[win]
		if w.resume {
			w.enabled = true
			w.resume = false
		}
	}
}

func (c *Context) waitIdle() {
	if err := c.shadow.WaitIdle(); err != nil {
		c.log.Warn("shadow update still pending, continuing", slog.Any("err", err))
	}
}

func (c *Context) trigger() {
	c.shadow.Trigger()
	if c.backend.NeedsTrigger() {
		c.winUpdated.Store(true)
	}
}
