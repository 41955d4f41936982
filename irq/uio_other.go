//go:build !linux

package irq

import (
	"errors"
	"time"
)

// UIO is only available on linux.
type UIO struct{}

func OpenUIO(minor int) (*UIO, error) {
	return nil, errors.New("irq: uio not supported on this platform")
}

func (u *UIO) Wait(timeout time.Duration) (bool, error) { return false, ErrClosed }
func (u *UIO) Ack() error                               { return ErrClosed }
func (u *UIO) Close() error                             { return nil }
