//go:build linux

package nrf5x

import (
	"encoding/binary"
	"fmt"
	"os"
)

// UIO is an interrupt controller backed by a Linux userspace-IO device
// bound to the RNG interrupt line. Writing 1 or 0 to the device unmasks or
// masks the interrupt; a blocking read returns when the next interrupt
// fires. It implements trng.Controller.
//
// A UIO device exposes a single interrupt, so the irq argument of the
// controller methods is ignored.
type UIO struct {
	f *os.File
}

// OpenUIO opens a UIO device node, e.g. "/dev/uio0".
func OpenUIO(path string) (*UIO, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &UIO{f: f}, nil
}

// Close releases the device.
func (u *UIO) Close() error {
	return u.f.Close()
}

// Enable unmasks the interrupt.
func (u *UIO) Enable(irq uint) { u.irqcontrol(1) }

// Disable masks the interrupt.
func (u *UIO) Disable(irq uint) { u.irqcontrol(0) }

// ClearPending is a no-op: the UIO event count is consumed by Wait, so
// there is no separate pending latch to clear from userspace.
func (u *UIO) ClearPending(irq uint) {}

// Wait blocks until the interrupt fires, returning the event count.
func (u *UIO) Wait() (uint32, error) {
	var buf [4]byte
	if _, err := u.f.Read(buf[:]); err != nil {
		return 0, fmt.Errorf("uio read: %w", err)
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

func (u *UIO) irqcontrol(v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, _ = u.f.Write(buf[:])
}
