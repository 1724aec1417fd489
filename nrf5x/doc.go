// Package nrf5x binds the trng driver to real nRF5x RNG hardware from a
// Linux host: the register block is accessed through an mmap window over
// /dev/mem, and interrupt delivery goes through a UIO device that exposes
// the RNG interrupt line. Both halves satisfy the interfaces in package
// trng.
package nrf5x
