package naming

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Source identifies the entropy backend feeding the simulated peripheral
// for a capture run. Allowed values are: "trng" (TrueRNG serial device),
// "bitb" (BitBabbler), and "pseudo" (deterministic PRNG).
type Source string

const (
	SourceTrueRNG    Source = "trng"
	SourceBitBabbler Source = "bitb"
	SourcePseudo     Source = "pseudo"
)

// Validate checks whether s is one of the allowed source identifiers.
func (s Source) Validate() error {
	if s == SourceTrueRNG || s == SourceBitBabbler || s == SourcePseudo {
		return nil
	}
	return fmt.Errorf("invalid source: %q (allowed: trng, bitb, pseudo)", string(s))
}

// BuildBaseName builds the base filename for a word capture using the
// convention:
//
//	YYYYMMDDTHHMMSS_{source}_w{words}_i{interval}
//
// where:
// - source ∈ {trng, bitb, pseudo}
// - words > 0 is the number of 32-bit words collected
// - interval > 0 is the interval in seconds between word requests
// The timestamp is generated from the provided time instant.
func BuildBaseName(now time.Time, source Source, words int, intervalSeconds int) (string, error) {
	if err := source.Validate(); err != nil {
		return "", err
	}
	if words <= 0 {
		return "", errors.New("words must be > 0")
	}
	if intervalSeconds <= 0 {
		return "", errors.New("intervalSeconds must be > 0")
	}
	stamp := now.Format("20060102T150405")
	return fmt.Sprintf("%s_%s_w%d_i%d", stamp, string(source), words, intervalSeconds), nil
}

// WithExt appends an extension (without leading dot) to a base name.
// If ext contains a leading dot, it is preserved once. Empty ext returns base.
func WithExt(base string, ext string) string {
	if ext == "" {
		return base
	}
	extClean := ext
	if strings.HasPrefix(ext, ".") {
		extClean = strings.TrimPrefix(ext, ".")
	}
	return base + "." + extClean
}

// JoinDir builds a path joining an optional directory with the filename.
// If dir is empty, it returns name as-is.
func JoinDir(dir string, name string) string {
	if dir == "" {
		return name
	}
	return filepath.Join(dir, name)
}

// BuildBinCSVNames builds both .bin and .csv filenames (without directory)
// based on the convention.
func BuildBinCSVNames(now time.Time, source Source, words int, intervalSeconds int) (binName string, csvName string, err error) {
	base, err := BuildBaseName(now, source, words, intervalSeconds)
	if err != nil {
		return "", "", err
	}
	return WithExt(base, ".bin"), WithExt(base, ".csv"), nil
}

// BuildBinCSVPaths builds full paths for .bin and .csv inside dir (dir may
// be empty).
func BuildBinCSVPaths(dir string, now time.Time, source Source, words int, intervalSeconds int) (binPath string, csvPath string, err error) {
	binName, csvName, err := BuildBinCSVNames(now, source, words, intervalSeconds)
	if err != nil {
		return "", "", err
	}
	return JoinDir(dir, binName), JoinDir(dir, csvName), nil
}
