package chainmap_test

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theflywheel/chainmap"
)

func key(i int) []byte {
	return []byte(fmt.Sprintf("key%d", i))
}

func TestBasicOperations(t *testing.T) {
	m := chainmap.New[string]()
	k := []byte("MyKey\x00")

	require.NoError(t, m.Put(k, "HelloWorld"))

	v, err := m.Get(k)
	require.NoError(t, err)
	assert.Equal(t, "HelloWorld", v)

	v, err = m.Remove(k)
	require.NoError(t, err)
	assert.Equal(t, "HelloWorld", v)

	_, err = m.Get(k)
	assert.True(t, errors.Is(err, chainmap.ErrNotFound))

	require.NoError(t, m.Free())
}

func TestMultipleValues(t *testing.T) {
	m := chainmap.New[int]()
	values := map[string]int{"key1": 100, "key2": 200, "key3": 300}

	for k, v := range values {
		require.NoError(t, m.Put([]byte(k), v))
	}
	for k, want := range values {
		got, err := m.Get([]byte(k))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	assert.Equal(t, 3, m.Len())
}

func TestCollisionHandling(t *testing.T) {
	m := chainmap.New[int]()
	keys := []string{"key1", "key2", "key3", "key4", "key5", "key6", "key7", "key8", "key9", "key10"}

	for i, k := range keys {
		require.NoError(t, m.Put([]byte(k+"\x00"), i*100))
	}
	for i, k := range keys {
		got, err := m.Get([]byte(k + "\x00"))
		require.NoError(t, err)
		assert.Equal(t, i*100, got)
	}
}

func TestRoundTripBinaryKeys(t *testing.T) {
	m := chainmap.New[int]()

	keys := [][]byte{
		{0x00},
		{0xff, 0x00, 0xff},
		{0x80, 0x81, 0x82, 0x83, 0x84},
		bytes.Repeat([]byte{0xaa}, chainmap.MaxKeyLen),
	}
	for i, k := range keys {
		require.NoError(t, m.Put(k, i))
	}
	for i, k := range keys {
		got, err := m.Get(k)
		require.NoError(t, err)
		assert.Equal(t, i, got)
	}
}

func TestKeysDifferingOnlyInLength(t *testing.T) {
	m := chainmap.New[int]()
	require.NoError(t, m.Put([]byte("key1"), 1))
	require.NoError(t, m.Put([]byte("key1\x00"), 2))

	v, err := m.Get([]byte("key1"))
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	v, err = m.Get([]byte("key1\x00"))
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestStoredKeyIsCopied(t *testing.T) {
	m := chainmap.New[int]()
	k := []byte("mutable")
	require.NoError(t, m.Put(k, 7))

	k[0] = 'M'
	_, err := m.Get(k)
	assert.True(t, errors.Is(err, chainmap.ErrNotFound))

	v, err := m.Get([]byte("mutable"))
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestDuplicateKey(t *testing.T) {
	m := chainmap.New[int]()
	k := []byte("duplicate")

	require.NoError(t, m.Put(k, 1))
	err := m.Put(k, 2)
	require.Error(t, err)
	assert.True(t, errors.Is(err, chainmap.ErrAlreadyExists))

	assert.Equal(t, 1, m.Len())
	v, err := m.Get(k)
	require.NoError(t, err)
	assert.Equal(t, 1, v, "existing value must be unchanged")
}

func TestDuplicateKeyKeepsGrowth(t *testing.T) {
	m := chainmap.New[int]()
	for i := 0; i < 24; i++ {
		require.NoError(t, m.Put(key(i), i))
	}
	require.Equal(t, 31, m.Cap())

	err := m.Put(key(0), 0)
	assert.True(t, errors.Is(err, chainmap.ErrAlreadyExists))
	assert.Equal(t, 24, m.Len())
	assert.Equal(t, 67, m.Cap(), "growth before a failed insert is not rolled back")
}

func TestKeyLengthBoundary(t *testing.T) {
	m := chainmap.New[int]()

	maxKey := bytes.Repeat([]byte("k"), chainmap.MaxKeyLen)
	require.NoError(t, m.Put(maxKey, 128))

	longKey := bytes.Repeat([]byte("k"), chainmap.MaxKeyLen+1)
	err := m.Put(longKey, 129)
	require.Error(t, err)
	assert.True(t, errors.Is(err, chainmap.ErrKeyTooLong))
	assert.Equal(t, 1, m.Len())

	// Long keys are simply absent on lookup.
	_, err = m.Get(longKey)
	assert.True(t, errors.Is(err, chainmap.ErrNotFound))
	_, err = m.Remove(longKey)
	assert.True(t, errors.Is(err, chainmap.ErrNotFound))
}

func TestInvalidArguments(t *testing.T) {
	m := chainmap.New[int]()
	var nilMap *chainmap.Map[int]

	testCases := []struct {
		name string
		fn   func() error
	}{
		{"PutNilMap", func() error { return nilMap.Put([]byte("key"), 1) }},
		{"PutNilKey", func() error { return m.Put(nil, 1) }},
		{"PutEmptyKey", func() error { return m.Put([]byte{}, 1) }},
		{"GetNilMap", func() error { _, err := nilMap.Get([]byte("key")); return err }},
		{"GetNilKey", func() error { _, err := m.Get(nil); return err }},
		{"GetEmptyKey", func() error { _, err := m.Get([]byte{}); return err }},
		{"RemoveNilMap", func() error { _, err := nilMap.Remove([]byte("key")); return err }},
		{"RemoveNilKey", func() error { _, err := m.Remove(nil); return err }},
		{"RemoveEmptyKey", func() error { _, err := m.Remove([]byte{}); return err }},
		{"FreeNilMap", func() error { return nilMap.Free() }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.fn()
			require.Error(t, err)
			assert.True(t, errors.Is(err, chainmap.ErrInvalidArgument), "got %v", err)
		})
	}

	assert.Equal(t, 0, m.Len())
	assert.Equal(t, 0, nilMap.Len())
	assert.Equal(t, 0, nilMap.Cap())
}

func TestGetMissingKey(t *testing.T) {
	m := chainmap.New[int]()
	_, err := m.Get([]byte("nonexistent"))
	assert.True(t, errors.Is(err, chainmap.ErrNotFound))

	_, err = m.Remove([]byte("nonexistent"))
	assert.True(t, errors.Is(err, chainmap.ErrNotFound))
}

func TestFree(t *testing.T) {
	m := chainmap.New[int]()
	for i := 0; i < 50; i++ {
		require.NoError(t, m.Put(key(i), i))
	}
	require.NoError(t, m.Free())

	assert.Equal(t, 0, m.Len())
	assert.Equal(t, 0, m.Cap())
	assert.Nil(t, m.Iter())

	err := m.Free()
	assert.True(t, errors.Is(err, chainmap.ErrInvalidArgument))

	err = m.Put(key(1), 1)
	assert.True(t, errors.Is(err, chainmap.ErrInvalidArgument))
	_, err = m.Get(key(1))
	assert.True(t, errors.Is(err, chainmap.ErrInvalidArgument))
	_, err = m.Remove(key(1))
	assert.True(t, errors.Is(err, chainmap.ErrInvalidArgument))
}

func TestKeyHandling(t *testing.T) {
	m := chainmap.New[int]()
	require.NoError(t, m.Put([]byte("testkey\x00"), 123))

	v, err := m.Get([]byte("testkey\x00"))
	require.NoError(t, err)
	assert.Equal(t, 123, v)

	for i := 0; i < 30; i++ {
		require.NoError(t, m.Put(key(i), i*100))

		got, err := m.Get(key(i))
		require.NoErrorf(t, err, "key %d not retrievable immediately after insertion", i)
		assert.Equal(t, i*100, got)
	}

	for i := 29; i >= 0; i-- {
		got, err := m.Get(key(i))
		require.NoError(t, err)
		assert.Equal(t, i*100, got)
	}
}

func TestRemoveOperations(t *testing.T) {
	m := chainmap.New[int]()
	for i := 0; i < 20; i++ {
		require.NoError(t, m.Put(key(i), i*100))
	}

	for i := 0; i < 20; i += 2 {
		v, err := m.Remove(key(i))
		require.NoError(t, err)
		assert.Equal(t, i*100, v)
	}

	for i := 1; i < 20; i += 2 {
		v, err := m.Get(key(i))
		require.NoError(t, err)
		assert.Equal(t, i*100, v)
	}

	for i := 0; i < 20; i += 2 {
		_, err := m.Get(key(i))
		assert.True(t, errors.Is(err, chainmap.ErrNotFound))
	}
	assert.Equal(t, 10, m.Len())
}

func TestGrowthThreshold(t *testing.T) {
	m := chainmap.New[int]()
	assert.Equal(t, 31, m.Cap())

	// ceil(31 * 3/4) = 24 entries fit before the first growth.
	for i := 0; i < 24; i++ {
		require.NoError(t, m.Put(key(i), i))
	}
	assert.Equal(t, 31, m.Cap())

	require.NoError(t, m.Put(key(24), 24))
	assert.Equal(t, 67, m.Cap())
}

func TestResizeMinimal(t *testing.T) {
	m := chainmap.New[int]()

	for i := 0; i < 40; i++ {
		require.NoError(t, m.Put(key(i), i*10))
		v, err := m.Get(key(i))
		require.NoError(t, err)
		assert.Equal(t, i*10, v)
	}

	for i := 0; i < 10; i++ {
		_, err := m.Remove(key(i))
		require.NoError(t, err)
	}

	for i := 10; i < 40; i++ {
		v, err := m.Get(key(i))
		require.NoError(t, err)
		assert.Equal(t, i*10, v)
	}
}

func TestResizeBehavior(t *testing.T) {
	m := chainmap.New[int]()

	for i := 0; i < 100; i++ {
		require.NoError(t, m.Put(key(i), i*10))
	}
	assert.Equal(t, 137, m.Cap())

	for i := 0; i < 100; i++ {
		v, err := m.Get(key(i))
		require.NoError(t, err)
		assert.Equal(t, i*10, v)
	}

	for i := 0; i < 80; i++ {
		v, err := m.Remove(key(i))
		require.NoError(t, err)
		assert.Equal(t, i*10, v)
	}
	// Shrunk from 137 to 67 once the count fell below 137/4.
	assert.Equal(t, 67, m.Cap())
	assert.Equal(t, 20, m.Len())

	for i := 0; i < 80; i++ {
		_, err := m.Get(key(i))
		assert.True(t, errors.Is(err, chainmap.ErrNotFound))
	}
	for i := 80; i < 100; i++ {
		v, err := m.Get(key(i))
		require.NoError(t, err)
		assert.Equal(t, i*10, v)
	}
}

func TestShrinkToFloor(t *testing.T) {
	m := chainmap.New[int]()
	const n = 5000

	for i := 0; i < n; i++ {
		require.NoError(t, m.Put(key(i), i))
	}
	grown := m.Cap()
	assert.Greater(t, grown, 31)

	for i := 0; i < n; i++ {
		v, err := m.Remove(key(i))
		require.NoError(t, err)
		require.Equal(t, i, v)

		// Survivors spot check across every shrink.
		if i%500 == 0 && i+1 < n {
			got, err := m.Get(key(n - 1))
			require.NoError(t, err)
			require.Equal(t, n-1, got)
		}
	}
	assert.Equal(t, 0, m.Len())
	assert.Equal(t, 31, m.Cap())

	// The emptied map is fully usable again.
	require.NoError(t, m.Put(key(1), 1))
	v, err := m.Get(key(1))
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestResizing(t *testing.T) {
	m := chainmap.New[[]byte]()
	numEntries := 5000 // several growth steps

	entryKey := func(i int) []byte { return []byte(fmt.Sprintf("entry-%08d", i)) }
	entryValue := func(i int) []byte { return []byte(fmt.Sprintf("value-%d", i*7)) }

	for i := 0; i < numEntries; i++ {
		require.NoError(t, m.Put(entryKey(i), entryValue(i)))

		got, err := m.Get(entryKey(i))
		require.NoErrorf(t, err, "entry %d not found immediately after insertion", i)
		require.Equal(t, entryValue(i), got)
	}

	for i := 0; i < numEntries; i++ {
		got, err := m.Get(entryKey(i))
		require.NoErrorf(t, err, "entry %d not found after all insertions", i)
		assert.Equal(t, entryValue(i), got)
	}

	st := m.Stats()
	assert.Equal(t, numEntries, st.Count)
	assert.Equal(t, m.Cap(), st.Capacity)
	assert.LessOrEqual(t, st.LoadFactor, 0.75)
	assert.LessOrEqual(t, st.UsedBuckets, st.Capacity)
	assert.GreaterOrEqual(t, st.LongestChain, 1)
}

func TestStatsEmpty(t *testing.T) {
	m := chainmap.New[int]()
	st := m.Stats()
	assert.Equal(t, 31, st.Capacity)
	assert.Zero(t, st.Count)
	assert.Zero(t, st.UsedBuckets)
	assert.Zero(t, st.LongestChain)

	var nilMap *chainmap.Map[int]
	assert.Equal(t, chainmap.Stats{}, nilMap.Stats())
}

func TestResizeLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)

	m := chainmap.New[int](chainmap.WithLogger(logger))
	for i := 0; i < 25; i++ {
		require.NoError(t, m.Put(key(i), i))
	}

	out := buf.String()
	assert.Contains(t, out, "chainmap resized")
	assert.Contains(t, out, `"from":31`)
	assert.Contains(t, out, `"to":67`)
	assert.Equal(t, 1, strings.Count(out, "chainmap resized"))
}

func TestModelAgreement(t *testing.T) {
	m := chainmap.New[int]()
	model := make(map[string]int)

	// Deterministic mix of puts and removes.
	for step := 0; step < 20000; step++ {
		k := key((step * 7919) % 1500)
		if step%3 == 2 {
			v, err := m.Remove(k)
			want, ok := model[string(k)]
			if ok {
				require.NoError(t, err)
				require.Equal(t, want, v)
				delete(model, string(k))
			} else {
				require.True(t, errors.Is(err, chainmap.ErrNotFound))
			}
			continue
		}

		err := m.Put(k, step)
		if _, ok := model[string(k)]; ok {
			require.True(t, errors.Is(err, chainmap.ErrAlreadyExists))
		} else {
			require.NoError(t, err)
			model[string(k)] = step
		}
		require.Equal(t, len(model), m.Len())
	}

	for k, want := range model {
		got, err := m.Get([]byte(k))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}
