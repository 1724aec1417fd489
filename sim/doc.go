// Package sim provides a software model of the TRNG peripheral and its
// interrupt controller, so the driver in package trng can run and be tested
// without target hardware. The peripheral draws its "generated" bytes from
// an entropy.Source, which may be a deterministic generator or a real
// external device.
package sim
