package chainmap

import "github.com/cockroachdb/errors"

// FixedMap stores values that are byte buffers of one size, chosen when the
// map is created. Values are copied in on Put and copied out into caller
// buffers, so the caller never holds a reference into the map.
type FixedMap struct {
	m    *Map[[]byte]
	size int
}

// NewFixed creates an empty map for values of exactly size bytes. Zero is a
// valid size.
func NewFixed(size int, opts ...Option) (*FixedMap, error) {
	if size < 0 {
		return nil, errors.Wrapf(ErrInvalidArgument, "negative element size %d", size)
	}
	m := New[[]byte](opts...)
	m.copyIn = func(v []byte) []byte {
		c := make([]byte, len(v))
		copy(c, v)
		return c
	}
	return &FixedMap{m: m, size: size}, nil
}

// ElemSize returns the value size fixed at creation.
func (f *FixedMap) ElemSize() int {
	if f == nil {
		return 0
	}
	return f.size
}

func (f *FixedMap) checkBuf(name string, b []byte) error {
	if b == nil {
		return invalidArgf("nil %s buffer", name)
	}
	if len(b) != f.size {
		return invalidArgf("%s buffer is %d bytes, want %d", name, len(b), f.size)
	}
	return nil
}

// Put stores a copy of value under key.
func (f *FixedMap) Put(key, value []byte) error {
	if f == nil {
		return invalidArgf("map is nil")
	}
	if err := f.m.checkKey(key); err != nil {
		return err
	}
	if err := f.checkBuf("value", value); err != nil {
		return err
	}
	return f.m.Put(key, value)
}

// Get copies the value stored under key into out.
func (f *FixedMap) Get(key, out []byte) error {
	if f == nil {
		return invalidArgf("map is nil")
	}
	if err := f.checkBuf("output", out); err != nil {
		return err
	}
	v, err := f.m.Get(key)
	if err != nil {
		return err
	}
	copy(out, v)
	return nil
}

// Remove deletes key and copies the value it held into out.
func (f *FixedMap) Remove(key, out []byte) error {
	if f == nil {
		return invalidArgf("map is nil")
	}
	if err := f.checkBuf("output", out); err != nil {
		return err
	}
	v, err := f.m.Remove(key)
	if err != nil {
		return err
	}
	copy(out, v)
	return nil
}

// Len returns the number of entries.
func (f *FixedMap) Len() int {
	if f == nil {
		return 0
	}
	return f.m.Len()
}

// Cap returns the number of buckets.
func (f *FixedMap) Cap() int {
	if f == nil {
		return 0
	}
	return f.m.Cap()
}

// Stats reports bucket occupancy.
func (f *FixedMap) Stats() Stats {
	if f == nil {
		return Stats{}
	}
	return f.m.Stats()
}

// Free releases every entry. Later calls fail with ErrInvalidArgument.
func (f *FixedMap) Free() error {
	if f == nil {
		return invalidArgf("map is nil")
	}
	return f.m.Free()
}

// FixedCursor walks a FixedMap, copying each value into a caller buffer.
type FixedCursor struct {
	c    *Cursor[[]byte]
	size int
}

// Iter returns a cursor at the first entry, or nil for a nil or freed map.
func (f *FixedMap) Iter() *FixedCursor {
	if f == nil {
		return nil
	}
	c := f.m.Iter()
	if c == nil {
		return nil
	}
	return &FixedCursor{c: c, size: f.size}
}

// Next copies the current value into out, returns the current key and
// advances. The key is borrowed from the map, as with Cursor.Next.
func (fc *FixedCursor) Next(out []byte) ([]byte, error) {
	if fc == nil {
		return nil, invalidArgf("cursor is nil")
	}
	if out == nil || len(out) != fc.size {
		return nil, invalidArgf("output buffer is %d bytes, want %d", len(out), fc.size)
	}
	key, v, err := fc.c.Next()
	if err != nil {
		return nil, err
	}
	copy(out, v)
	return key, nil
}

// Close releases the cursor.
func (fc *FixedCursor) Close() error {
	if fc == nil {
		return invalidArgf("cursor is nil")
	}
	return fc.c.Close()
}
