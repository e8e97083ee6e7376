package chainmap

import (
	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"

	"github.com/theflywheel/chainmap/internal/ladder"
	"github.com/theflywheel/chainmap/internal/murmur"
)

// MaxKeyLen is the longest key a map accepts, in bytes.
const MaxKeyLen = 128

// Map is a hash table keyed by byte strings with collision chaining. It grows
// before an insert would push the load factor past 3/4 and shrinks after a
// removal drops it below 1/4.
//
// A Map is not safe for concurrent use.
type Map[V any] struct {
	s      store[V]
	count  int
	gen    uint64
	logger zerolog.Logger

	// copyIn, if set, is applied to a value when it is stored.
	copyIn func(V) V
}

// Stats describes the occupancy of a map's buckets.
type Stats struct {
	Capacity     int
	Count        int
	LoadFactor   float64
	UsedBuckets  int
	LongestChain int
	Generation   uint64
}

// New creates an empty map at the smallest capacity.
func New[V any](opts ...Option) *Map[V] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Map[V]{
		s:      newStore[V](ladder.Floor()),
		logger: o.logger,
	}
}

func (m *Map[V]) live() bool {
	return m != nil && m.s.heads != nil
}

func (m *Map[V]) checkKey(key []byte) error {
	if !m.live() {
		return invalidArgf("map is nil or freed")
	}
	if len(key) == 0 {
		return invalidArgf("empty key")
	}
	return nil
}

func (m *Map[V]) checkPut(key []byte) error {
	if err := m.checkKey(key); err != nil {
		return err
	}
	if len(key) > MaxKeyLen {
		return errors.Wrapf(ErrKeyTooLong, "key length %d exceeds %d", len(key), MaxKeyLen)
	}
	return nil
}

// growThreshold is ceil(capacity * 3/4).
func growThreshold(capacity int) int {
	return (3*capacity + 3) / 4
}

// Put inserts key with value. It fails with ErrAlreadyExists if the key is
// present. A growth performed before the insert stays in effect even if the
// insert itself fails.
func (m *Map[V]) Put(key []byte, value V) error {
	if err := m.checkPut(key); err != nil {
		return err
	}

	if m.count >= growThreshold(m.s.capacity()) {
		next, err := ladder.Grow(m.s.capacity())
		if err != nil {
			return errors.Mark(err, ErrCapacityExhausted)
		}
		m.resize(next, false)
	}

	hash := murmur.Sum32(key)
	if idx, _ := m.s.find(key, hash); idx != nilIndex {
		return errors.Wrapf(ErrAlreadyExists, "key %q", key)
	}

	if m.copyIn != nil {
		value = m.copyIn(value)
	}
	m.s.insert(key, hash, value)
	m.count++
	m.gen++
	return nil
}

// Get returns the value stored under key.
func (m *Map[V]) Get(key []byte) (V, error) {
	var zero V
	if err := m.checkKey(key); err != nil {
		return zero, err
	}

	hash := murmur.Sum32(key)
	idx, _ := m.s.find(key, hash)
	if idx == nilIndex {
		return zero, ErrNotFound
	}
	return m.s.entries[idx].value, nil
}

// Remove deletes key and returns the value it held. The map may shrink
// afterwards; the shrink never fails the removal.
func (m *Map[V]) Remove(key []byte) (V, error) {
	var zero V
	if err := m.checkKey(key); err != nil {
		return zero, err
	}

	hash := murmur.Sum32(key)
	idx, prev := m.s.find(key, hash)
	if idx == nilIndex {
		return zero, ErrNotFound
	}

	v := m.s.remove(idx, prev)
	m.count--
	m.gen++

	capacity := m.s.capacity()
	if m.count < capacity/4 && capacity > ladder.Floor() {
		if next, ok := ladder.Shrink(capacity); ok {
			m.resize(next, true)
		}
	}
	return v, nil
}

func (m *Map[V]) resize(capacity int, compact bool) {
	from := m.s.capacity()
	m.s.relink(capacity, compact)
	m.gen++
	m.logger.Debug().
		Int("from", from).
		Int("to", capacity).
		Int("count", m.count).
		Msg("chainmap resized")
}

// Len returns the number of entries.
func (m *Map[V]) Len() int {
	if m == nil {
		return 0
	}
	return m.count
}

// Cap returns the number of buckets.
func (m *Map[V]) Cap() int {
	if m == nil {
		return 0
	}
	return m.s.capacity()
}

// Free drops every entry and the bucket array. Any later call on the map
// fails with ErrInvalidArgument.
func (m *Map[V]) Free() error {
	if !m.live() {
		return invalidArgf("map is nil or already freed")
	}
	m.s = store[V]{}
	m.count = 0
	m.gen++
	return nil
}

// Stats walks every chain and reports bucket occupancy.
func (m *Map[V]) Stats() Stats {
	if !m.live() {
		return Stats{}
	}
	used, longest := m.s.chainStats()
	return Stats{
		Capacity:     m.s.capacity(),
		Count:        m.count,
		LoadFactor:   float64(m.count) / float64(m.s.capacity()),
		UsedBuckets:  used,
		LongestChain: longest,
		Generation:   m.gen,
	}
}
