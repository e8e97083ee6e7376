// Package murmur implements the 32-bit MurmurHash2 digest used to place keys
// into buckets.
package murmur

import "encoding/binary"

const (
	m = 0x5bd1e995
	r = 24
)

// Sum32 returns the MurmurHash2 digest of b with a zero seed.
func Sum32(b []byte) uint32 {
	var h uint32

	for len(b) >= 4 {
		k := binary.LittleEndian.Uint32(b)

		k *= m
		k ^= k >> r
		k *= m

		h *= m
		h ^= k

		b = b[4:]
	}

	// Tail bytes fold from the highest index down.
	if len(b) > 0 {
		for i := len(b) - 1; i >= 0; i-- {
			h ^= uint32(b[i]) << (8 * uint(i))
		}
		h *= m
	}

	h ^= h >> 13
	h *= m
	h ^= h >> 15

	return h
}
