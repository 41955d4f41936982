package irq

import (
	"encoding/binary"
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// UIO is an interrupt line exported by the kernel's userspace I/O framework.
// Reading the device returns the interrupt count, writing a 1 unmasks it.
type UIO struct {
	fd   int
	path string
}

func OpenUIO(minor int) (*UIO, error) {
	path := fmt.Sprintf("/dev/uio%d", minor)
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("irq: open %s: %w", path, err)
	}
	u := &UIO{fd: fd, path: path}
	if err := u.Ack(); err != nil {
		unix.Close(fd)
		return nil, err
	}
	return u, nil
}

func (u *UIO) Wait(timeout time.Duration) (bool, error) {
	fds := []unix.PollFd{{Fd: int32(u.fd), Events: unix.POLLIN}}
	n, err := unix.Poll(fds, int(timeout/time.Millisecond))
	if err == unix.EINTR {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("irq: poll %s: %w", u.path, err)
	}
	if n == 0 {
		return false, nil
	}

	var buf [4]byte
	if _, err := unix.Read(u.fd, buf[:]); err != nil {
		return false, fmt.Errorf("irq: read %s: %w", u.path, err)
	}
	return true, nil
}

func (u *UIO) Ack() error {
	var buf [4]byte
	binary.NativeEndian.PutUint32(buf[:], 1)
	if _, err := unix.Write(u.fd, buf[:]); err != nil {
		return fmt.Errorf("irq: unmask %s: %w", u.path, err)
	}
	return nil
}

func (u *UIO) Close() error {
	return unix.Close(u.fd)
}
