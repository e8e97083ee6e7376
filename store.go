package chainmap

import "bytes"

const nilIndex int32 = -1

type entry[V any] struct {
	key   []byte
	hash  uint32
	next  int32
	value V
}

// store is an array of collision chains over an arena of entries. Chains link
// entries by arena index, so moving an entry between buckets only rewrites
// indices and never touches the key or value.
type store[V any] struct {
	heads   []int32
	entries []entry[V]
	free    []int32
}

func newStore[V any](capacity int) store[V] {
	return store[V]{heads: newHeads(capacity)}
}

func newHeads(n int) []int32 {
	heads := make([]int32, n)
	for i := range heads {
		heads[i] = nilIndex
	}
	return heads
}

func (s *store[V]) capacity() int {
	return len(s.heads)
}

func (s *store[V]) bucket(hash uint32) int {
	return int(hash % uint32(len(s.heads)))
}

// find returns the arena index of key and of its predecessor in the chain, or
// nilIndex for both if the key is absent.
func (s *store[V]) find(key []byte, hash uint32) (idx, prev int32) {
	prev = nilIndex
	for i := s.heads[s.bucket(hash)]; i != nilIndex; i = s.entries[i].next {
		e := &s.entries[i]
		if e.hash == hash && bytes.Equal(e.key, key) {
			return i, prev
		}
		prev = i
	}
	return nilIndex, nilIndex
}

// insert copies key into a new entry and links it at the head of its bucket.
func (s *store[V]) insert(key []byte, hash uint32, value V) {
	k := make([]byte, len(key))
	copy(k, key)

	b := s.bucket(hash)
	e := entry[V]{key: k, hash: hash, next: s.heads[b], value: value}

	var idx int32
	if n := len(s.free); n > 0 {
		idx = s.free[n-1]
		s.free = s.free[:n-1]
		s.entries[idx] = e
	} else {
		idx = int32(len(s.entries))
		s.entries = append(s.entries, e)
	}
	s.heads[b] = idx
}

// remove unlinks the entry at idx, whose chain predecessor is prev, and
// returns its value. The arena slot goes on the free list.
func (s *store[V]) remove(idx, prev int32) V {
	e := &s.entries[idx]
	if prev == nilIndex {
		s.heads[s.bucket(e.hash)] = e.next
	} else {
		s.entries[prev].next = e.next
	}

	v := e.value
	s.entries[idx] = entry[V]{next: nilIndex}
	s.free = append(s.free, idx)
	return v
}

// relink moves every entry into a new bucket array of the given capacity
// using the cached digests. With compact set the arena is rebuilt densely and
// the free list dropped.
func (s *store[V]) relink(capacity int, compact bool) {
	heads := newHeads(capacity)

	if !compact {
		for b := range s.heads {
			for i := s.heads[b]; i != nilIndex; {
				e := &s.entries[i]
				next := e.next
				nb := e.hash % uint32(capacity)
				e.next = heads[nb]
				heads[nb] = i
				i = next
			}
		}
		s.heads = heads
		return
	}

	entries := make([]entry[V], 0, len(s.entries)-len(s.free))
	for b := range s.heads {
		for i := s.heads[b]; i != nilIndex; i = s.entries[i].next {
			e := s.entries[i]
			nb := e.hash % uint32(capacity)
			e.next = heads[nb]
			heads[nb] = int32(len(entries))
			entries = append(entries, e)
		}
	}
	s.heads = heads
	s.entries = entries
	s.free = nil
}

// seek returns the first non-empty bucket at or after from and its head entry,
// or (capacity, nilIndex) if there is none.
func (s *store[V]) seek(from int) (int, int32) {
	for b := from; b < len(s.heads); b++ {
		if s.heads[b] != nilIndex {
			return b, s.heads[b]
		}
	}
	return len(s.heads), nilIndex
}

func (s *store[V]) chainStats() (used, longest int) {
	for _, head := range s.heads {
		n := 0
		for i := head; i != nilIndex; i = s.entries[i].next {
			n++
		}
		if n > 0 {
			used++
		}
		if n > longest {
			longest = n
		}
	}
	return used, longest
}
