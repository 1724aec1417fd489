package entropy

// Source yields one byte of randomness per call. An error means the source
// cannot currently produce data; the simulated peripheral treats that as a
// hardware stall.
type Source interface {
	Byte() (byte, error)
}
