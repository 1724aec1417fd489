package sim

import (
	"github.com/Thiagojm/trng_go_drv/entropy"
)

// Peripheral models the nRF5x RNG register block: a start task, a
// value-ready event, peripheral-local interrupt enable bits and a one-byte
// value register. It implements trng.Registers.
//
// Writing the start task draws one byte from the entropy source, latches it
// in the value register and sets the value-ready event; if the interrupt
// enable is set, the IRQ line is asserted on the controller. Reading the
// value register does not consume the latch.
//
// A source error latches no event, which looks to the driver like stalled
// hardware: no interrupt ever arrives. The error is kept for inspection.
type Peripheral struct {
	src entropy.Source
	ctl *Controller
	irq uint

	value      byte
	valueReady bool
	inten      bool
	err        error
}

// NewPeripheral returns a peripheral backed by src, raising irq on ctl.
func NewPeripheral(src entropy.Source, ctl *Controller, irq uint) *Peripheral {
	return &Peripheral{src: src, ctl: ctl, irq: irq}
}

// Start triggers one byte of generation.
func (p *Peripheral) Start() {
	b, err := p.src.Byte()
	if err != nil {
		p.err = err
		return
	}
	p.value = b
	p.valueReady = true
	if p.inten {
		p.ctl.Assert(p.irq)
	}
}

// ClearValueReady clears the value-ready event.
func (p *Peripheral) ClearValueReady() {
	p.valueReady = false
}

// Value reads the value register.
func (p *Peripheral) Value() byte {
	return p.value
}

// IntEnable sets the peripheral interrupt enable. If the value-ready event
// is already set, the line is asserted immediately, as the event register
// is level-coupled to the interrupt output.
func (p *Peripheral) IntEnable() {
	p.inten = true
	if p.valueReady {
		p.ctl.Assert(p.irq)
	}
}

// IntDisable clears the peripheral interrupt enable.
func (p *Peripheral) IntDisable() {
	p.inten = false
}

// ValueReady reports the state of the value-ready event register.
func (p *Peripheral) ValueReady() bool {
	return p.valueReady
}

// Err returns the last entropy source error, if any. A non-nil error means
// generation has stalled.
func (p *Peripheral) Err() error {
	return p.err
}
