package bench

import (
	"fmt"
	"io"

	"github.com/cespare/xxhash/v2"
	"github.com/dustin/go-humanize"
	"github.com/emirpasic/gods/maps/treemap"
	"github.com/spaolacci/murmur3"

	"github.com/theflywheel/chainmap/internal/murmur"
)

// Hasher is a named 32-bit digest function.
type Hasher struct {
	Name string
	Sum  func([]byte) uint32
}

// Hashers returns the map's own digest followed by the reference hashes it is
// measured against.
func Hashers() []Hasher {
	return []Hasher{
		{Name: "murmur2", Sum: murmur.Sum32},
		{Name: "xxhash", Sum: func(b []byte) uint32 { return uint32(xxhash.Sum64(b)) }},
		{Name: "murmur3", Sum: murmur3.Sum32},
	}
}

// Distribution is the bucket occupancy that a set of keys produces under one
// hasher at one capacity.
type Distribution struct {
	Hasher       string
	Capacity     int
	Keys         int
	EmptyBuckets int
	LongestChain int
	// ChiSquare compares bucket counts against a uniform spread; values close
	// to Capacity-1 are expected from a good hash.
	ChiSquare float64
	// Histogram maps chain length to the number of buckets with that length,
	// ordered by chain length.
	Histogram *treemap.Map
}

// Distribute places keys into capacity buckets with h.
func Distribute(h Hasher, keys [][]byte, capacity int) Distribution {
	counts := make([]int, capacity)
	for _, k := range keys {
		counts[h.Sum(k)%uint32(capacity)]++
	}

	d := Distribution{
		Hasher:    h.Name,
		Capacity:  capacity,
		Keys:      len(keys),
		Histogram: treemap.NewWithIntComparator(),
	}
	expected := float64(len(keys)) / float64(capacity)
	for _, c := range counts {
		if c == 0 {
			d.EmptyBuckets++
		}
		if c > d.LongestChain {
			d.LongestChain = c
		}
		if expected > 0 {
			diff := float64(c) - expected
			d.ChiSquare += diff * diff / expected
		}

		n := 0
		if v, ok := d.Histogram.Get(c); ok {
			n = v.(int)
		}
		d.Histogram.Put(c, n+1)
	}
	return d
}

// WriteDistribution prints d with its histogram in chain-length order.
func WriteDistribution(w io.Writer, d Distribution) {
	fmt.Fprintf(w, "%-8s capacity=%s keys=%s empty=%s longest=%d chi2=%.1f\n",
		d.Hasher,
		humanize.Comma(int64(d.Capacity)),
		humanize.Comma(int64(d.Keys)),
		humanize.Comma(int64(d.EmptyBuckets)),
		d.LongestChain,
		d.ChiSquare)

	it := d.Histogram.Iterator()
	for it.Next() {
		fmt.Fprintf(w, "  chain %3d: %s buckets\n", it.Key().(int), humanize.Comma(int64(it.Value().(int))))
	}
}
