// collect runs the TRNG driver against the simulated peripheral and
// records one 32-bit word per interval tick: raw words to a .bin file and
// timestamp,ones rows to a .csv, named per the capture convention.
package main

import (
	"bufio"
	"context"
	"encoding/binary"
	"flag"
	"fmt"
	"io"
	"iter"
	"log"
	"math/bits"
	"os"
	"os/signal"
	"time"

	"github.com/Thiagojm/trng_go_drv/entropy"
	"github.com/Thiagojm/trng_go_drv/naming"
	"github.com/Thiagojm/trng_go_drv/sim"
	"github.com/Thiagojm/trng_go_drv/trng"
)

const irq = 13

// wordClient captures a single delivered word and stops generation, so the
// collection cadence is controlled by the ticker rather than the driver.
type wordClient struct {
	word uint32
	got  bool
}

func (c *wordClient) RandomnessAvailable(words iter.Seq[uint32]) trng.Continuation {
	for w := range words {
		c.word = w
		c.got = true
	}
	return trng.Done
}

// openSource maps the source flag to an entropy backend, returning a closer
// when a device is held open.
func openSource(src naming.Source, seed uint64) (entropy.Source, io.Closer, error) {
	switch src {
	case naming.SourcePseudo:
		p, err := entropy.NewPseudo(seed)
		return p, nil, err
	case naming.SourceTrueRNG:
		t, err := entropy.OpenTrueRNG()
		if err != nil {
			return nil, nil, err
		}
		return t, t, nil
	case naming.SourceBitBabbler:
		b, err := entropy.OpenBitBabbler(2_500_000, 1)
		if err != nil {
			return nil, nil, err
		}
		return b, b, nil
	}
	return nil, nil, fmt.Errorf("unsupported source: %s", src)
}

func main() {
	wordsFlag := flag.Int("words", 1000, "number of 32-bit words to collect (required > 0)")
	intervalSec := flag.Int("interval", 1, "interval between words in seconds (required > 0)")
	sourceFlag := flag.String("source", "pseudo", "entropy source: pseudo|trng|bitb")
	seedFlag := flag.Uint64("seed", 0, "pseudo source seed; 0 picks a random seed")
	outDir := flag.String("outdir", "data", "output directory for files")
	flag.Parse()

	if *wordsFlag <= 0 {
		log.Fatal("-words must be > 0")
	}
	if *intervalSec <= 0 {
		log.Fatal("-interval must be > 0")
	}

	src := naming.Source(*sourceFlag)
	if err := src.Validate(); err != nil {
		log.Fatalf("invalid -source: %v", err)
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("creating outdir: %v", err)
	}

	startTime := time.Now()
	binPath, csvPath, err := naming.BuildBinCSVPaths(*outDir, startTime, src, *wordsFlag, *intervalSec)
	if err != nil {
		log.Fatalf("build filenames: %v", err)
	}

	binFile, err := os.OpenFile(binPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		log.Fatalf("open bin file: %v", err)
	}
	defer func() { _ = binFile.Close() }()
	binBuf := bufio.NewWriter(binFile)
	defer binBuf.Flush()

	csvFile, err := os.OpenFile(csvPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		log.Fatalf("open csv file: %v", err)
	}
	defer func() { _ = csvFile.Close() }()
	csvBuf := bufio.NewWriter(csvFile)
	defer csvBuf.Flush()

	source, closer, err := openSource(src, *seedFlag)
	if err != nil {
		log.Fatalf("open %s source: %v", src, err)
	}
	if closer != nil {
		defer closer.Close()
	}

	// Wire the driver to the simulated peripheral.
	ctl := &sim.Controller{}
	per := sim.NewPeripheral(source, ctl, irq)
	driver := trng.New(per, ctl, irq)
	ctl.SetHandler(irq, driver.HandleInterrupt)

	client := &wordClient{}
	driver.SetClient(client)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	interval := time.Duration(*intervalSec) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("collecting %d words every %s from %s", *wordsFlag, interval.String(), string(src))
	for n := 0; n < *wordsFlag; n++ {
		select {
		case <-ctx.Done():
			return
		default:
		}

		client.got = false
		driver.Get()
		ctl.Run(0)
		if !client.got {
			log.Printf("peripheral stalled: %v", per.Err())
			return
		}

		var raw [4]byte
		binary.LittleEndian.PutUint32(raw[:], client.word)
		if _, werr := binBuf.Write(raw[:]); werr != nil {
			log.Fatalf("write bin: %v", werr)
		}
		_ = binBuf.Flush()

		ones := bits.OnesCount32(client.word)
		ts := time.Now().Format("20060102T15:04:05")
		if _, werr := fmt.Fprintf(csvBuf, "%s,%d\n", ts, ones); werr != nil {
			log.Fatalf("write csv: %v", werr)
		}
		_ = csvBuf.Flush()

		fmt.Printf("word %d: 0x%08X ones=%d/32 at %s\n", n+1, client.word, ones, ts)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
