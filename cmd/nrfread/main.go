//go:build linux

// nrfread reads random words from a real nRF5x RNG peripheral through the
// /dev/mem register mapping and a UIO interrupt device, and prints them in
// hex.
package main

import (
	"flag"
	"fmt"
	"iter"
	"log"

	"github.com/Thiagojm/trng_go_drv/nrf5x"
	"github.com/Thiagojm/trng_go_drv/trng"
)

// printClient prints each word and asks for more until count is reached.
type printClient struct {
	remaining int
}

func (c *printClient) RandomnessAvailable(words iter.Seq[uint32]) trng.Continuation {
	for w := range words {
		fmt.Printf("%08x\n", w)
		c.remaining--
	}
	if c.remaining > 0 {
		return trng.More
	}
	return trng.Done
}

func main() {
	words := flag.Int("words", 8, "number of 32-bit words to read")
	uioPath := flag.String("uio", "/dev/uio0", "UIO device bound to the RNG interrupt")
	flag.Parse()

	if *words <= 0 {
		log.Fatal("-words must be > 0")
	}

	regs, err := nrf5x.Map()
	if err != nil {
		log.Fatalf("map registers: %v", err)
	}
	defer regs.Close()

	uio, err := nrf5x.OpenUIO(*uioPath)
	if err != nil {
		log.Fatalf("open uio: %v", err)
	}
	defer uio.Close()

	driver := trng.New(regs, uio, nrf5x.IRQ)
	client := &printClient{remaining: *words}
	driver.SetClient(client)

	driver.Get()
	for client.remaining > 0 {
		if _, err := uio.Wait(); err != nil {
			log.Fatalf("wait for interrupt: %v", err)
		}
		driver.HandleInterrupt()
	}
}
