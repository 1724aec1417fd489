// Package entropy provides byte-at-a-time randomness sources used to back
// the simulated TRNG peripheral: a deterministic seedable generator, a
// TrueRNG serial device and a BitBabbler USB device. Device-backed sources
// read in blocks and serve single bytes from an internal buffer, since the
// peripheral model consumes exactly one byte per start task.
package entropy
