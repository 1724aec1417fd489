package entropy

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/gousb"
)

// FTDI vendor/product for BitBabbler devices.
const (
	ftdiVendorID = 0x0403
	bbProductID  = 0x7840
)

// MPSSE opcodes used during init and reads.
const (
	mpsseNoClkDiv5        = 0x8A
	mpsseNoAdaptiveClk    = 0x97
	mpsseNo3PhaseClk      = 0x8D
	mpsseSetDataLow       = 0x80
	mpsseSetDataHigh      = 0x82
	mpsseSetClkDivisor    = 0x86
	mpsseSendImmediate    = 0x87
	mpsseNoLoopback       = 0x85
	mpsseDataByteInPosMSB = 0x20
)

// FTDI vendor-specific SIO requests.
const (
	ftdiReqReset       = 0x00
	ftdiReqSetFlowCtrl = 0x02
	ftdiReqSetEvtChar  = 0x06
	ftdiReqSetErrChar  = 0x07
	ftdiReqSetLatency  = 0x09
	ftdiReqSetBitmode  = 0x0B
)

const (
	ftdiResetSIO     = 0
	ftdiFlowRtsCts   = 0x0100
	ftdiBitmodeReset = 0x0000
	ftdiBitmodeMpsse = 0x0200
)

// bbBlock is how many bytes one MPSSE read fetches per refill.
const bbBlock = 512

// DetectBitBabbler reports whether at least one BitBabbler device is
// attached, using cross-platform gousb enumeration.
func DetectBitBabbler() (bool, error) {
	ctx := gousb.NewContext()
	defer ctx.Close()

	devs, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return desc.Vendor == gousb.ID(ftdiVendorID) && desc.Product == gousb.ID(bbProductID)
	})
	for _, d := range devs {
		d.Close()
	}
	if err != nil {
		return false, fmt.Errorf("enumerating usb devices: %w", err)
	}
	return len(devs) > 0, nil
}

// BitBabbler is an entropy source backed by a BitBabbler FTDI device in
// MPSSE mode. It holds the device open and serves bytes from an internal
// block buffer.
type BitBabbler struct {
	ctx       *gousb.Context
	dev       *gousb.Device
	cfg       *gousb.Config
	intf      *gousb.Interface
	inEp      *gousb.InEndpoint
	outEp     *gousb.OutEndpoint
	maxPacket int
	buf       []byte
}

// OpenBitBabbler opens the first BitBabbler found and runs the vendor MPSSE
// init sequence. bitrate is the MPSSE clock in Hz (0 picks 2.5 MHz);
// latencyMs is the FTDI latency timer (0 picks 1 ms).
func OpenBitBabbler(bitrate uint, latencyMs uint8) (*BitBabbler, error) {
	if bitrate == 0 {
		bitrate = 2_500_000
	}
	if latencyMs == 0 {
		latencyMs = 1
	}

	ctx := gousb.NewContext()
	dev, err := ctx.OpenDeviceWithVIDPID(gousb.ID(ftdiVendorID), gousb.ID(bbProductID))
	if err != nil {
		ctx.Close()
		return nil, err
	}
	if dev == nil {
		ctx.Close()
		return nil, errors.New("BitBabbler device not found")
	}
	_ = dev.SetAutoDetach(true)

	cfg, err := dev.Config(1)
	if err != nil {
		dev.Close()
		ctx.Close()
		return nil, err
	}
	intf, err := cfg.Interface(0, 0)
	if err != nil {
		cfg.Close()
		dev.Close()
		ctx.Close()
		return nil, err
	}

	b := &BitBabbler{ctx: ctx, dev: dev, cfg: cfg, intf: intf}
	for _, ep := range intf.Setting.Endpoints {
		if ep.TransferType != gousb.TransferTypeBulk {
			continue
		}
		switch ep.Direction {
		case gousb.EndpointDirectionIn:
			b.inEp, err = intf.InEndpoint(ep.Number)
		case gousb.EndpointDirectionOut:
			b.outEp, err = intf.OutEndpoint(ep.Number)
		}
		if err != nil {
			b.Close()
			return nil, err
		}
	}
	if b.inEp == nil || b.outEp == nil {
		b.Close()
		return nil, errors.New("bulk endpoints not found")
	}
	b.maxPacket = int(b.inEp.Desc.MaxPacketSize)

	if err := b.initMPSSE(bitrate, latencyMs); err != nil {
		b.Close()
		return nil, err
	}
	return b, nil
}

// Byte returns the next device byte, refilling the block buffer as needed.
func (b *BitBabbler) Byte() (byte, error) {
	if len(b.buf) == 0 {
		if err := b.refill(); err != nil {
			return 0, err
		}
	}
	v := b.buf[0]
	b.buf = b.buf[1:]
	return v, nil
}

// Close releases all USB resources.
func (b *BitBabbler) Close() error {
	if b.intf != nil {
		b.intf.Close()
	}
	if b.cfg != nil {
		b.cfg.Close()
	}
	if b.dev != nil {
		b.dev.Close()
	}
	if b.ctx != nil {
		b.ctx.Close()
	}
	return nil
}

// initMPSSE follows the vendor init path: reset, purge, special chars off,
// latency, flow control, bitmode reset then MPSSE, sync check, clocking.
func (b *BitBabbler) initMPSSE(bitrate uint, latencyMs uint8) error {
	if err := b.control(ftdiReqReset, ftdiResetSIO, 1); err != nil {
		return err
	}
	b.purgeRead()
	if err := b.control(ftdiReqSetEvtChar, 0, 1); err != nil {
		return err
	}
	if err := b.control(ftdiReqSetErrChar, 0, 1); err != nil {
		return err
	}
	if err := b.control(ftdiReqSetLatency, uint16(latencyMs), 1); err != nil {
		return err
	}
	if err := b.control(ftdiReqSetFlowCtrl, 0, ftdiFlowRtsCts|1); err != nil {
		return err
	}
	if err := b.control(ftdiReqSetBitmode, ftdiBitmodeReset, 1); err != nil {
		return err
	}
	if err := b.control(ftdiReqSetBitmode, ftdiBitmodeMpsse, 1); err != nil {
		return err
	}
	time.Sleep(50 * time.Millisecond)

	// Bad-opcode sync handshake; retry once, some devices need a beat.
	ok := b.checkSync(0xAA) && b.checkSync(0xAB)
	if !ok {
		ok = b.checkSync(0xAA) && b.checkSync(0xAB)
	}
	if !ok {
		return errors.New("MPSSE sync failed")
	}

	clkDiv := uint16(30000000/bitrate - 1)
	cmd := []byte{
		mpsseNoClkDiv5,
		mpsseNoAdaptiveClk,
		mpsseNo3PhaseClk,
		mpsseSetDataLow,
		0x00, // outputs low
		0x0B, // direction: CLK, DO, CS outputs
		mpsseSetDataHigh,
		0x00,
		0x00, // high pins as inputs
		mpsseSetClkDivisor,
		byte(clkDiv & 0xFF),
		byte(clkDiv >> 8),
		mpsseNoLoopback,
	}
	if _, err := b.outEp.Write(cmd); err != nil {
		return err
	}
	time.Sleep(30 * time.Millisecond)
	b.purgeRead()
	return nil
}

// refill issues one MPSSE block read, stripping the 2-byte FTDI status
// header carried at the start of every IN packet.
func (b *BitBabbler) refill() error {
	n := bbBlock
	cmd := []byte{
		mpsseDataByteInPosMSB,
		byte((n - 1) & 0xFF),
		byte((n - 1) >> 8),
		mpsseSendImmediate,
	}
	if _, err := b.outEp.Write(cmd); err != nil {
		return err
	}

	out := make([]byte, 0, n)
	tmp := make([]byte, roundUpToPacket(n, b.maxPacket)+b.maxPacket)
	for len(out) < n {
		m, err := b.inEp.Read(tmp)
		if err != nil {
			return err
		}
		if m <= 2 {
			continue
		}
		for offset := 0; offset < m && len(out) < n; offset += b.maxPacket {
			end := offset + b.maxPacket
			if end > m {
				end = m
			}
			if end-offset <= 2 {
				break
			}
			chunk := tmp[offset+2 : end]
			if take := n - len(out); len(chunk) > take {
				chunk = chunk[:take]
			}
			out = append(out, chunk...)
		}
	}
	b.buf = out
	return nil
}

func (b *BitBabbler) control(req uint8, value, index uint16) error {
	typ := uint8(gousb.ControlOut) | uint8(gousb.ControlVendor) | uint8(gousb.ControlDevice)
	_, err := b.dev.Control(typ, req, value, index, nil)
	return err
}

func (b *BitBabbler) purgeRead() {
	buf := make([]byte, 8192)
	for i := 0; i < 10; i++ {
		n, _ := b.inEp.Read(buf)
		if n <= 2 {
			return
		}
	}
}

func (b *BitBabbler) checkSync(cmd byte) bool {
	if _, err := b.outEp.Write([]byte{cmd, mpsseSendImmediate}); err != nil {
		return false
	}
	buf := make([]byte, 512)
	for i := 0; i < 10; i++ {
		n, _ := b.inEp.Read(buf)
		if n == 4 && buf[2] == 0xFA && buf[3] == cmd {
			return true
		}
	}
	return false
}

func roundUpToPacket(n, max int) int {
	if max <= 0 || n%max == 0 {
		return n
	}
	return (n/max + 1) * max
}
