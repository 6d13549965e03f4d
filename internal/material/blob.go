package material

import (
	"encoding/binary"
	"fmt"
	"math"
)

// decodeFloats unpacks a little-endian float64 array.
func decodeFloats(b []byte) ([]float64, error) {
	if len(b)%8 != 0 {
		return nil, fmt.Errorf("float blob length %d is not a multiple of 8", len(b))
	}
	out := make([]float64, len(b)/8)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[8*i:]))
	}
	return out, nil
}

// decodeInts unpacks n atomic numbers stored as int32 or, failing that,
// int64.
func decodeInts(b []byte, n int) ([]int, error) {
	out := make([]int, n)
	switch len(b) {
	case 4 * n:
		for i := range out {
			out[i] = int(int32(binary.LittleEndian.Uint32(b[4*i:])))
		}
	case 8 * n:
		for i := range out {
			out[i] = int(int64(binary.LittleEndian.Uint64(b[8*i:])))
		}
	default:
		return nil, fmt.Errorf("numbers blob is %d bytes for %d atoms", len(b), n)
	}
	return out, nil
}
