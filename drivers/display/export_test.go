package display

// Waiting reports whether a goroutine is registered as vblank waiter.
func (c *Context) Waiting() bool {
	return c.waiting.Load() != 0
}

// InFlight returns the number of software triggers not yet completed.
func (c *Context) InFlight() int32 {
	return c.triggering.Load()
}

// Waiters returns the number of goroutines waiting for vblank.
func (c *Context) Waiters() int32 {
	return c.waiting.Load()
}
