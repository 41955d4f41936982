// Package poll implements bounded polling of hardware status bits.
package poll

import (
	"errors"
	"time"

	"github.com/jonboulle/clockwork"
)

var ErrTimeout = errors.New("poll: timeout")

// Until calls done until it returns true, sleeping interval between calls.
// It gives up after sleeping attempts times and returns ErrTimeout.
func Until(clock clockwork.Clock, interval time.Duration, attempts int, done func() bool) error {
	for range attempts {
		if done() {
			return nil
		}
		clock.Sleep(interval)
	}
	if done() {
		return nil
	}
	return ErrTimeout
}

// Within is like Until, but derives the number of attempts from a timeout.
func Within(clock clockwork.Clock, timeout, interval time.Duration, done func() bool) error {
	attempts := 1
	if interval > 0 {
		attempts = int((timeout + interval - 1) / interval)
	}
	return Until(clock, interval, attempts, done)
}
