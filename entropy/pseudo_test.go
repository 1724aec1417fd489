package entropy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPseudoDeterministic(t *testing.T) {
	assert := assert.New(t)

	a, err := NewPseudo(42)
	assert.NoError(err)
	b, err := NewPseudo(42)
	assert.NoError(err)

	for i := 0; i < 256; i++ {
		x, err := a.Byte()
		assert.NoError(err)
		y, err := b.Byte()
		assert.NoError(err)
		assert.Equal(x, y, "byte %d", i)
	}
}

func TestPseudoSelfSeeds(t *testing.T) {
	assert := assert.New(t)

	p, err := NewPseudo(0)
	assert.NoError(err)

	// Just confirm the stream flows; a random seed carries no fixed
	// expectation.
	for i := 0; i < 16; i++ {
		_, err := p.Byte()
		assert.NoError(err)
	}
}
