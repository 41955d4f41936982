package display

import (
	"golang.org/x/exp/slog"

	"github.com/clktmr/exynos/debug"
)

// Commit applies the complete configuration: all windows, the display timing
// from the compositor's current mode and the output enable.  Configuration
// errors are reported before any register is touched.
//
// Committing twice without changes in between writes the same registers with
// the same values.
func (c *Context) Commit() error {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.apply()
}

func (c *Context) apply() error {
	for win := c.backend.FirstWindow(); win < len(c.windows); win++ {
		if !c.windows[win].desired {
			continue
		}
		if _, err := c.windowControl(win); err != nil {
			return err
		}
	}
	m := c.compositor.Mode(c.pipe)
	if err := c.backend.CheckMode(m); err != nil {
		c.log.Error("aborted commit", slog.String("mode", m.String()), slog.Any("err", err))
		return err
	}
	if period := m.FramePeriod(); period > 0 {
		c.shadow.Timeout = 2 * period
	}

	for win := c.backend.FirstWindow(); win < len(c.windows); win++ {
		if c.windows[win].desired {
			if err := c.commitWindow(win); err != nil {
				return err
			}
		} else {
			c.disableWindow(win)
		}
	}

	if c.suspended {
		return nil
	}

	c.waitIdle()
	c.backend.WriteTiming(m)
	c.backend.EnableOutput(true)
	c.trigger()

	if debug.Enabled {
		for win := range c.windows {
			debug.Assert(!c.shadow.Protected(win), "display: window left protected")
		}
	}
	return nil
}
