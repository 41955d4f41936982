// Package irq connects hardware interrupts to driver handlers.
//
// Handlers run on a dedicated goroutine per interrupt line and must never
// block on locks held by the goroutines they wake up.
package irq

import (
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
)

// Event wakes every goroutine waiting on it.  It can be signalled from an
// interrupt handler without blocking.
type Event struct {
	gen atomic.Pointer[chan struct{}]
}

// Arm returns a channel which is closed by the next Signal.  Waiters must arm
// before they announce themselves to the signalling side, so a Signal racing
// with the announcement isn't lost.
func (e *Event) Arm() <-chan struct{} {
	for {
		if ch := e.gen.Load(); ch != nil {
			return *ch
		}
		ch := make(chan struct{})
		if e.gen.CompareAndSwap(nil, &ch) {
			return ch
		}
	}
}

// Signal wakes all goroutines that armed since the previous Signal.  It does
// nothing if nobody is armed.
func (e *Event) Signal() {
	if ch := e.gen.Swap(nil); ch != nil {
		close(*ch)
	}
}

// Wait blocks until armed is closed or timeout has passed.  It returns false
// on timeout.
func Wait(clock clockwork.Clock, armed <-chan struct{}, timeout time.Duration) bool {
	select {
	case <-armed:
		return true
	case <-clock.After(timeout):
		return false
	}
}
