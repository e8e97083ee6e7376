package chainmap

// Cursor walks the entries of a Map in bucket order. It does not modify the
// map. Any Put, Remove, resize or Free on the map after the cursor was created
// makes Next fail with ErrStaleCursor.
type Cursor[V any] struct {
	m      *Map[V]
	bucket int
	cur    int32
	gen    uint64
}

// Iter returns a cursor positioned at the first entry. It returns nil for a
// nil or freed map.
func (m *Map[V]) Iter() *Cursor[V] {
	if !m.live() {
		return nil
	}
	c := &Cursor[V]{m: m, gen: m.gen}
	c.bucket, c.cur = m.s.seek(0)
	return c
}

// Next returns the current entry and advances. The key aliases the map's own
// copy and must not be modified; it stays valid until the map is mutated.
// After the last entry Next returns ErrCursorExhausted.
func (c *Cursor[V]) Next() ([]byte, V, error) {
	var zero V
	if c == nil || c.m == nil {
		return nil, zero, invalidArgf("cursor is nil or closed")
	}
	if c.cur == nilIndex {
		return nil, zero, ErrCursorExhausted
	}
	if c.gen != c.m.gen {
		return nil, zero, ErrStaleCursor
	}

	s := &c.m.s
	e := &s.entries[c.cur]
	key := e.key[:len(e.key):len(e.key)]
	value := e.value

	if e.next != nilIndex {
		c.cur = e.next
	} else {
		c.bucket, c.cur = s.seek(c.bucket + 1)
	}
	return key, value, nil
}

// Close releases the cursor. The map and its entries are untouched.
func (c *Cursor[V]) Close() error {
	if c == nil || c.m == nil {
		return invalidArgf("cursor is nil or already closed")
	}
	c.m = nil
	c.cur = nilIndex
	return nil
}
