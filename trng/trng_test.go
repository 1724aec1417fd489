package trng

import (
	"iter"
	"testing"

	"github.com/stretchr/testify/assert"
)

// fakeRegs serves scripted bytes from the value register and records every
// register operation in order.
type fakeRegs struct {
	bytes []byte
	pos   int
	ops   []string
}

func (r *fakeRegs) Start()           { r.ops = append(r.ops, "start"); r.pos++ }
func (r *fakeRegs) ClearValueReady() { r.ops = append(r.ops, "clrvalrdy") }
func (r *fakeRegs) IntEnable()       { r.ops = append(r.ops, "inten") }
func (r *fakeRegs) IntDisable()      { r.ops = append(r.ops, "intdis") }

func (r *fakeRegs) Value() byte {
	r.ops = append(r.ops, "value")
	if r.pos == 0 || r.pos > len(r.bytes) {
		return 0
	}
	return r.bytes[r.pos-1]
}

func (r *fakeRegs) starts() int {
	n := 0
	for _, op := range r.ops {
		if op == "start" {
			n++
		}
	}
	return n
}

type fakeCtl struct {
	ops []string
}

func (c *fakeCtl) Enable(irq uint)       { c.ops = append(c.ops, "enable") }
func (c *fakeCtl) Disable(irq uint)      { c.ops = append(c.ops, "disable") }
func (c *fakeCtl) ClearPending(irq uint) { c.ops = append(c.ops, "clrpend") }

// collectClient drains every delivered sequence into words and answers with
// a scripted continuation.
type collectClient struct {
	words  []uint32
	answer Continuation
}

func (c *collectClient) RandomnessAvailable(words iter.Seq[uint32]) Continuation {
	for w := range words {
		c.words = append(c.words, w)
	}
	return c.answer
}

// pump services value-ready interrupts until the driver stops re-arming or
// limit is reached, returning the number of interrupts handled. Each Start
// advances the scripted byte stream; an interrupt is due whenever a Start
// has not been serviced yet.
func pump(d *Driver, regs *fakeRegs, limit int) int {
	handled := 0
	for handled < regs.starts() && handled < limit {
		d.HandleInterrupt()
		handled++
	}
	return handled
}

func TestWordAssemblyOrder(t *testing.T) {
	assert := assert.New(t)

	regs := &fakeRegs{bytes: []byte{0x11, 0x22, 0x33, 0x44}}
	client := &collectClient{answer: Done}
	d := New(regs, &fakeCtl{}, 13)
	d.SetClient(client)

	d.Get()
	pump(d, regs, 100)

	assert.Equal([]uint32{0x44332211}, client.words)
	assert.Equal(0, d.index)
	assert.Equal(uint32(0), d.word)
	// Done means no re-arm: 1 Get + 4 per-byte re-arms.
	assert.Equal(5, regs.starts())
}

func TestDeliveryIteratorSingleUse(t *testing.T) {
	assert := assert.New(t)

	var saved iter.Seq[uint32]
	client := clientFunc(func(words iter.Seq[uint32]) Continuation {
		saved = words
		return Done
	})

	regs := &fakeRegs{bytes: []byte{1, 2, 3, 4}}
	d := New(regs, &fakeCtl{}, 13)
	d.SetClient(client)

	d.Get()
	pump(d, regs, 100)

	first := drain(saved)
	assert.Equal([]uint32{0x04030201}, first)
	assert.Equal(0, d.index)
	assert.Equal(uint32(0), d.word)

	// The same iterator drawn again is stale and yields nothing.
	assert.Empty(drain(saved))
}

func TestNoClientDiscardsWord(t *testing.T) {
	assert := assert.New(t)

	regs := &fakeRegs{bytes: []byte{0xAA, 0xBB, 0xCC, 0xDD}}
	d := New(regs, &fakeCtl{}, 13)

	d.Get()
	handled := pump(d, regs, 100)

	// 4 byte interrupts plus the word-ready one; no re-arm after that.
	assert.Equal(5, handled)
	assert.Equal(5, regs.starts())
	assert.Equal(0, d.index)
	assert.Equal(uint32(0), d.word)
}

func TestMoreKeepsGenerating(t *testing.T) {
	assert := assert.New(t)

	const cycles = 5
	var stream []byte
	for i := 0; i < cycles*5; i++ {
		stream = append(stream, byte(i*7+3))
	}
	regs := &fakeRegs{bytes: stream}

	client := &collectClient{answer: More}
	d := New(regs, &fakeCtl{}, 13)
	d.SetClient(client)

	d.Get()
	// 5 interrupts per word; cap the pump right after the fifth word is
	// delivered so the trailing re-arm is still visible.
	pump(d, regs, cycles*5)

	assert.Len(client.words, cycles)
	for i, w := range client.words {
		// The word-ready interrupt of each cycle discards the byte
		// generated by the fourth re-arm, so words sit on a 5-byte
		// stride of the generated stream.
		b := stream[i*5 : i*5+4]
		want := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
		assert.Equal(want, w, "word %d", i)
	}
	// Still live: the last delivery re-armed generation.
	assert.Equal("start", regs.ops[len(regs.ops)-1])
}

func TestInvalidIndexRecovers(t *testing.T) {
	assert := assert.New(t)

	regs := &fakeRegs{bytes: []byte{9}}
	client := &collectClient{answer: Done}
	d := New(regs, &fakeCtl{}, 13)
	d.SetClient(client)

	d.Get()
	d.index = 5
	d.word = 0xDEADBEEF
	d.HandleInterrupt()

	assert.Empty(client.words)
	assert.Equal(0, d.index)
	assert.Equal(uint32(0), d.word)
}

func TestSetClientReplacesRegistration(t *testing.T) {
	assert := assert.New(t)

	first := &collectClient{answer: Done}
	second := &collectClient{answer: Done}

	regs := &fakeRegs{bytes: []byte{1, 0, 0, 0}}
	d := New(regs, &fakeCtl{}, 13)
	d.SetClient(first)
	d.SetClient(second)

	d.Get()
	pump(d, regs, 100)

	assert.Empty(first.words)
	assert.Equal([]uint32{1}, second.words)
}

func TestInterruptMaskingOrder(t *testing.T) {
	assert := assert.New(t)

	regs := &fakeRegs{bytes: []byte{5}}
	ctl := &fakeCtl{}
	d := New(regs, ctl, 13)

	d.Get()
	assert.Equal([]string{"clrvalrdy", "inten", "start"}, regs.ops)
	assert.Equal([]string{"enable"}, ctl.ops)

	regs.ops = nil
	ctl.ops = nil
	d.HandleInterrupt()

	// The handler masks both levels and clears pending before reading
	// the value register, then re-arms for the next byte.
	assert.Equal([]string{"intdis", "value", "clrvalrdy", "inten", "start"}, regs.ops)
	assert.Equal([]string{"disable", "clrpend", "enable"}, ctl.ops)
}

// clientFunc adapts a bare function to the Client interface.
type clientFunc func(iter.Seq[uint32]) Continuation

func (f clientFunc) RandomnessAvailable(words iter.Seq[uint32]) Continuation {
	return f(words)
}

func drain(words iter.Seq[uint32]) []uint32 {
	var got []uint32
	for w := range words {
		got = append(got, w)
	}
	return got
}
