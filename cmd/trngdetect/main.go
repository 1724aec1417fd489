// trngdetect reports which hardware entropy devices are attached: TrueRNG
// serial devices and BitBabbler USB devices.
package main

import (
	"fmt"
	"os"

	"github.com/Thiagojm/trng_go_drv/entropy"
)

func main() {
	found := 0

	port, err := entropy.FindTrueRNGPort()
	switch {
	case err != nil:
		fmt.Fprintf(os.Stderr, "trng detect: %v\n", err)
	case port != "":
		fmt.Printf("TrueRNG: %s\n", port)
		found++
	default:
		fmt.Println("TrueRNG: not found")
	}

	present, err := entropy.DetectBitBabbler()
	switch {
	case err != nil:
		fmt.Fprintf(os.Stderr, "bitb detect: %v\n", err)
	case present:
		fmt.Println("BitBabbler: found (VID 0x0403 PID 0x7840)")
		found++
	default:
		fmt.Println("BitBabbler: not found")
	}

	if found == 0 {
		os.Exit(1)
	}
}
