package entropy

import (
	"errors"
	"fmt"
	"time"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// TrueRNGPrefix is the prefix in a serial port's product or friendly name
// that identifies a TrueRNG device.
const TrueRNGPrefix = "TrueRNG"

// trueRNGBlock is how many bytes are read from the port per refill. The
// device streams continuously, so reading in blocks keeps per-byte cost low.
const trueRNGBlock = 64

// DetectTrueRNG reports whether a TrueRNG serial device is present.
func DetectTrueRNG() (bool, error) {
	port, err := FindTrueRNGPort()
	if err != nil {
		return false, err
	}
	return port != "", nil
}

// FindTrueRNGPort returns the port path of the first TrueRNG device found,
// or "" if none is connected.
func FindTrueRNGPort() (string, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return "", fmt.Errorf("enumerating ports: %w", err)
	}
	for _, p := range ports {
		if p != nil && isTrueRNG(p) && p.Name != "" {
			return p.Name, nil
		}
	}
	return "", nil
}

// TrueRNG is an entropy source backed by a TrueRNG serial device. It holds
// the port open and serves bytes from an internal block buffer.
type TrueRNG struct {
	port serial.Port
	buf  []byte
}

// OpenTrueRNG locates and opens a TrueRNG device: port at 3M baud, DTR set,
// stale input flushed. The OS clamps the baud rate on models that do not
// support it.
func OpenTrueRNG() (*TrueRNG, error) {
	name, err := FindTrueRNGPort()
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, errors.New("TrueRNG device not found")
	}

	mode := &serial.Mode{
		BaudRate: 3000000,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	_ = port.SetDTR(true)
	_ = port.SetReadTimeout(1000 * time.Millisecond)
	if err := port.ResetInputBuffer(); err != nil {
		// not fatal, proceed
	}
	return &TrueRNG{port: port}, nil
}

// Byte returns the next device byte, refilling the block buffer as needed.
func (t *TrueRNG) Byte() (byte, error) {
	if len(t.buf) == 0 {
		if err := t.refill(); err != nil {
			return 0, err
		}
	}
	b := t.buf[0]
	t.buf = t.buf[1:]
	return b, nil
}

// Close releases the serial port.
func (t *TrueRNG) Close() error {
	return t.port.Close()
}

func (t *TrueRNG) refill() error {
	buf := make([]byte, trueRNGBlock)
	total := 0
	deadline := time.Now().Add(10 * time.Second)
	for total < len(buf) {
		if time.Now().After(deadline) {
			return fmt.Errorf("read timeout after 10s: read %d/%d bytes", total, len(buf))
		}
		n, err := t.port.Read(buf[total:])
		if err != nil {
			return fmt.Errorf("read error: %w", err)
		}
		total += n
		if n == 0 {
			time.Sleep(5 * time.Millisecond)
		}
	}
	t.buf = buf
	return nil
}

func isTrueRNG(p *enumerator.PortDetails) bool {
	if p.IsUSB && hasPrefix(p.Product, TrueRNGPrefix) {
		return true
	}
	if p.IsUSB && hasPrefix(p.SerialNumber, TrueRNGPrefix) {
		return true
	}
	if hasPrefix(p.Name, TrueRNGPrefix) {
		return true
	}
	// Common TrueRNG VID/PID pairs.
	if p.VID == "16D0" && (p.PID == "0AA0" || p.PID == "0AA2" || p.PID == "0AA4") {
		return true
	}
	return false
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}
