package entropy

import (
	crand "crypto/rand"
	"encoding/binary"
	mrand "math/rand"
)

// Pseudo is a deterministic pseudorandom source. With a fixed seed it
// replays the same byte stream, which makes simulated captures
// reproducible; with seed 0 it seeds itself from crypto/rand.
type Pseudo struct {
	r *mrand.Rand
}

// NewPseudo creates a pseudorandom source. If seed is zero, a random seed
// is drawn from crypto/rand.
func NewPseudo(seed uint64) (*Pseudo, error) {
	if seed == 0 {
		var s [8]byte
		if _, err := crand.Read(s[:]); err != nil {
			return nil, err
		}
		seed = binary.LittleEndian.Uint64(s[:])
	}
	return &Pseudo{r: mrand.New(mrand.NewSource(int64(seed)))}, nil
}

// Byte returns the next byte of the stream. It never fails.
func (p *Pseudo) Byte() (byte, error) {
	return byte(p.r.Intn(256)), nil
}
