package irq

import (
	"context"
	"fmt"

	"periph.io/x/conn/v3/gpio"
)

// WatchTE calls handler on every rising edge of a panel's tearing effect
// signal until ctx is canceled.
func WatchTE(ctx context.Context, pin gpio.PinIn, handler func()) error {
	if err := pin.In(gpio.PullNoChange, gpio.RisingEdge); err != nil {
		return fmt.Errorf("irq: te pin %s: %w", pin, err)
	}
	for ctx.Err() == nil {
		if pin.WaitForEdge(pollTimeout) {
			handler()
		}
	}
	return ctx.Err()
}
