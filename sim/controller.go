package sim

const numIRQs = 64

// Controller models a simple interrupt controller with 64 sources. Pending
// and enable state are single bitmasks; each source may have one handler
// registered. It implements trng.Controller.
//
// Interrupts are not dispatched from within Assert; they are latched and
// delivered by Step, which mirrors hardware raising the line only after the
// current instruction finishes and keeps tests in control of interleaving.
type Controller struct {
	handlers [numIRQs]func()
	enabled  uint64
	pending  uint64
}

// SetHandler registers fn as the service routine for irq, replacing any
// previous registration. A nil fn removes the routine.
func (c *Controller) SetHandler(irq uint, fn func()) {
	c.handlers[irq%numIRQs] = fn
}

// Enable unmasks irq.
func (c *Controller) Enable(irq uint) {
	c.enabled |= 1 << (irq % numIRQs)
}

// Disable masks irq. Pending state is kept, as on real controllers.
func (c *Controller) Disable(irq uint) {
	c.enabled &^= 1 << (irq % numIRQs)
}

// ClearPending drops any latched interrupt for irq.
func (c *Controller) ClearPending(irq uint) {
	c.pending &^= 1 << (irq % numIRQs)
}

// Assert latches irq pending. Peripherals call this to raise their line.
func (c *Controller) Assert(irq uint) {
	c.pending |= 1 << (irq % numIRQs)
}

// Pending reports whether irq is latched.
func (c *Controller) Pending(irq uint) bool {
	return c.pending&(1<<(irq%numIRQs)) != 0
}

// Step dispatches the lowest-numbered pending and enabled interrupt,
// clearing its pending bit before invoking the handler. It reports whether
// an interrupt fired.
func (c *Controller) Step() bool {
	live := c.pending & c.enabled
	if live == 0 {
		return false
	}
	var irq uint
	for ; live&1 == 0; live >>= 1 {
		irq++
	}
	c.pending &^= 1 << irq
	if fn := c.handlers[irq]; fn != nil {
		fn()
	}
	return true
}

// Run steps until no interrupt is deliverable or limit interrupts have
// fired, returning the number of interrupts dispatched. A limit of zero or
// less means no limit; callers relying on that must ensure the handlers
// eventually stop re-arming.
func (c *Controller) Run(limit int) int {
	fired := 0
	for c.Step() {
		fired++
		if limit > 0 && fired == limit {
			break
		}
	}
	return fired
}
