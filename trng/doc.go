// Package trng implements an interrupt-driven driver for a hardware true
// random number generator peripheral of the nRF5x family. The peripheral
// produces one random byte per value-ready event; the driver accumulates
// four consecutive bytes into a 32-bit word and hands each completed word
// to a single registered client through a one-shot iterator.
//
// The register block and the interrupt controller are supplied as
// interfaces, so the driver runs unchanged against real memory-mapped
// hardware (see package nrf5x) or against a software model (see package
// sim).
package trng
