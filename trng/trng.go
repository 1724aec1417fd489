package trng

import "iter"

// wordBytes is the number of hardware samples folded into one delivered word.
const wordBytes = 4

// Continuation is the client's answer to a delivered word: whether it wants
// the driver to immediately start generating the next one.
type Continuation int

const (
	// Done indicates the client has all the randomness it needs for now.
	// Generation stays idle until the next explicit Get.
	Done Continuation = iota
	// More indicates the client wants another word as soon as possible.
	More
)

// Client receives completed words. RandomnessAvailable is invoked from the
// interrupt handler with a single-use sequence that yields at most one
// 32-bit word; drawing the word marks it consumed. The returned
// Continuation decides whether generation is re-armed immediately.
type Client interface {
	RandomnessAvailable(words iter.Seq[uint32]) Continuation
}

// Registers is the peripheral register surface the driver drives. All
// methods map to single register writes or reads on real hardware.
type Registers interface {
	// Start triggers the start task; the peripheral begins generating
	// one random byte.
	Start()
	// ClearValueReady clears the value-ready event register.
	ClearValueReady()
	// Value reads the value register, yielding the latest random byte.
	Value() byte
	// IntEnable sets the peripheral-local interrupt enable bits for the
	// value-ready event.
	IntEnable()
	// IntDisable clears the peripheral-local interrupt enable bits.
	IntDisable()
}

// Controller is the interrupt controller surface, keyed by IRQ number.
type Controller interface {
	Enable(irq uint)
	Disable(irq uint)
	ClearPending(irq uint)
}

// Driver assembles 32-bit random words from single-byte hardware samples.
//
// The index/word pair is mutated only inside HandleInterrupt, which masks
// its own interrupt source at entry; on a single-core target no further
// synchronization is needed. Get and SetClient run in the client's context
// and never touch the accumulator.
type Driver struct {
	regs   Registers
	ctl    Controller
	irq    uint
	client Client

	// index counts accumulated bytes: 0..3 collecting, 4 word ready.
	index int
	// word holds the accumulated sample bits at byte positions below index.
	word uint32
}

// New returns a driver bound to a register block and the interrupt
// controller line identified by irq. The caller is responsible for routing
// the peripheral's interrupt to HandleInterrupt.
func New(regs Registers, ctl Controller, irq uint) *Driver {
	return &Driver{regs: regs, ctl: ctl, irq: irq}
}

// SetClient registers the sole consumer of generated words, replacing any
// previous registration. It does not disturb in-flight generation.
func (d *Driver) SetClient(c Client) {
	d.client = c
}

// Get requests generation of a new word. It is also used internally to
// re-arm the peripheral between bytes and between words, and is safe to
// call repeatedly.
func (d *Driver) Get() {
	d.regs.ClearValueReady()
	d.ctl.Enable(d.irq)
	d.regs.IntEnable()
	d.regs.Start()
}

// HandleInterrupt services one value-ready event. Only the value-ready
// event can raise this interrupt.
func (d *Driver) HandleInterrupt() {
	// Mask the source before touching state so a re-arm later in the
	// handler cannot preempt it.
	d.regs.IntDisable()
	d.ctl.Disable(d.irq)
	d.ctl.ClearPending(d.irq)

	b := d.regs.Value()

	switch e := d.index; {
	case e < wordBytes:
		// Byte 0 lands in the least significant position, byte 3 in
		// the most significant. Clients depend on this ordering.
		d.word |= uint32(b) << (8 * e)
		d.index = e + 1
		d.Get()
	case e == wordBytes:
		if d.client == nil {
			// Nobody wants this word. Drop it and go idle until
			// the next explicit Get.
			d.reset()
			return
		}
		if d.client.RandomnessAvailable(d.take()) != Done {
			d.Get()
		}
	default:
		// index beyond a full word should be unreachable. Resync
		// rather than stay wedged.
		d.reset()
	}
}

// take returns the single-use delivery sequence handed to the client. It
// yields exactly one word if a full word is ready at draw time, resetting
// the accumulator as a side effect; any later draw yields nothing.
func (d *Driver) take() iter.Seq[uint32] {
	return func(yield func(uint32) bool) {
		for d.index == wordBytes {
			w := d.word
			d.reset()
			if !yield(w) {
				return
			}
		}
	}
}

func (d *Driver) reset() {
	d.index = 0
	d.word = 0
}
