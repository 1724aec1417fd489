//go:build linux

package nrf5x

import (
	"encoding/binary"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Order is the register byte order of the peripheral bus.
var Order = binary.LittleEndian

// RNG peripheral base address and interrupt line on nRF5x parts.
const (
	Base = 0x4000D000
	IRQ  = 13
)

// Register offsets within the RNG block.
const (
	regTasksStart   = 0x000
	regEventsValRdy = 0x100
	regInten        = 0x300
	regIntenSet     = 0x304
	regIntenClr     = 0x308
	regValue        = 0x508

	mapSize = 0x1000
)

// RegisterBlock is the RNG register window mapped from /dev/mem. It
// implements trng.Registers.
type RegisterBlock struct {
	f   *os.File
	mem []byte
}

// Map opens /dev/mem and maps the RNG register block. Requires a kernel
// that allows the mapping and sufficient privileges.
func Map() (*RegisterBlock, error) {
	f, err := os.OpenFile("/dev/mem", os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, fmt.Errorf("open /dev/mem: %w", err)
	}
	mem, err := unix.Mmap(int(f.Fd()), Base, mapSize,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("mmap RNG block: %w", err)
	}
	return &RegisterBlock{f: f, mem: mem}, nil
}

// Close unmaps the register window.
func (r *RegisterBlock) Close() error {
	err := unix.Munmap(r.mem)
	if cerr := r.f.Close(); err == nil {
		err = cerr
	}
	r.mem = nil
	return err
}

// Start triggers the start task.
func (r *RegisterBlock) Start() { r.write(regTasksStart, 1) }

// ClearValueReady clears the value-ready event.
func (r *RegisterBlock) ClearValueReady() { r.write(regEventsValRdy, 0) }

// Value reads the value register.
func (r *RegisterBlock) Value() byte { return byte(r.read(regValue)) }

// IntEnable sets the value-ready interrupt enable through both the mirror
// and the set register.
func (r *RegisterBlock) IntEnable() {
	r.write(regInten, 1)
	r.write(regIntenSet, 1)
}

// IntDisable clears the value-ready interrupt enable.
func (r *RegisterBlock) IntDisable() {
	r.write(regIntenClr, 1)
	r.write(regInten, 0)
}

func (r *RegisterBlock) read(off int) uint32 {
	return Order.Uint32(r.mem[off : off+4])
}

func (r *RegisterBlock) write(off int, v uint32) {
	Order.PutUint32(r.mem[off:off+4], v)
}
