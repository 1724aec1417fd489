package naming

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuildBaseName(t *testing.T) {
	assert := assert.New(t)

	now := time.Date(2025, 3, 1, 14, 30, 5, 0, time.UTC)

	base, err := BuildBaseName(now, SourcePseudo, 1000, 1)
	assert.NoError(err)
	assert.Equal("20250301T143005_pseudo_w1000_i1", base)

	_, err = BuildBaseName(now, Source("dice"), 1000, 1)
	assert.Error(err)
	_, err = BuildBaseName(now, SourceTrueRNG, 0, 1)
	assert.Error(err)
	_, err = BuildBaseName(now, SourceTrueRNG, 1000, 0)
	assert.Error(err)
}

func TestSourceValidate(t *testing.T) {
	assert := assert.New(t)

	assert.NoError(SourceTrueRNG.Validate())
	assert.NoError(SourceBitBabbler.Validate())
	assert.NoError(SourcePseudo.Validate())
	assert.Error(Source("").Validate())
}

func TestBuildBinCSVPaths(t *testing.T) {
	assert := assert.New(t)

	now := time.Date(2025, 3, 1, 14, 30, 5, 0, time.UTC)
	bin, csv, err := BuildBinCSVPaths("data", now, SourceBitBabbler, 64, 2)
	assert.NoError(err)
	assert.Equal(filepath.Join("data", "20250301T143005_bitb_w64_i2.bin"), bin)
	assert.Equal(filepath.Join("data", "20250301T143005_bitb_w64_i2.csv"), csv)

	bin, _, err = BuildBinCSVPaths("", now, SourceBitBabbler, 64, 2)
	assert.NoError(err)
	assert.Equal("20250301T143005_bitb_w64_i2.bin", bin)
}

func TestWithExt(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("base.bin", WithExt("base", "bin"))
	assert.Equal("base.bin", WithExt("base", ".bin"))
	assert.Equal("base", WithExt("base", ""))
}
