package irq

import (
	"context"
	"errors"
	"time"
)

var ErrClosed = errors.New("irq: line closed")

// Line is a source of interrupts.
type Line interface {
	// Wait blocks until the line fired or timeout has passed.  It returns
	// false on timeout.
	Wait(timeout time.Duration) (bool, error)

	// Ack reenables the line after the handler ran.
	Ack() error
}

// pollTimeout bounds how long Serve takes to notice a canceled context.
const pollTimeout = 100 * time.Millisecond

// Serve calls handler for each interrupt on line until ctx is canceled or the
// line fails.
func Serve(ctx context.Context, line Line, handler func()) error {
	for ctx.Err() == nil {
		fired, err := line.Wait(pollTimeout)
		if err != nil {
			return err
		}
		if !fired {
			continue
		}
		handler()
		if err := line.Ack(); err != nil {
			return err
		}
	}
	return ctx.Err()
}

// Soft is a Line fired by software, e.g. by a register simulator.
type Soft struct {
	pending chan struct{}
	closed  chan struct{}
}

func NewSoft() *Soft {
	return &Soft{
		pending: make(chan struct{}, 1),
		closed:  make(chan struct{}),
	}
}

// Fire raises the line.  Multiple raises before the handler ran coalesce, like
// a level triggered interrupt.
func (s *Soft) Fire() {
	select {
	case s.pending <- struct{}{}:
	default:
	}
}

func (s *Soft) Close() {
	close(s.closed)
}

func (s *Soft) Wait(timeout time.Duration) (bool, error) {
	select {
	case <-s.pending:
		return true, nil
	case <-s.closed:
		return false, ErrClosed
	case <-time.After(timeout):
		return false, nil
	}
}

func (s *Soft) Ack() error {
	return nil
}
