/*
Package chainmap provides an in-memory hash table keyed by byte strings.

Map is generic over its value type. FixedMap stores byte values of one size
fixed at creation and copies them in and out of caller buffers.

Basic usage:

	import "github.com/theflywheel/chainmap"

	// Table for 4-byte values
	fm, err := chainmap.NewFixed(4)
	if err != nil {
		log.Fatal(err)
	}
	defer fm.Free()

	value := make([]byte, 4)
	binary.LittleEndian.PutUint32(value, 100)
	if err := fm.Put([]byte("key1"), value); err != nil {
		log.Fatal(err)
	}

	out := make([]byte, 4)
	if err := fm.Get([]byte("key1"), out); err == nil {
		fmt.Println("Value:", binary.LittleEndian.Uint32(out))
	}

Features:

  - Keys are arbitrary bytes of length 1 to MaxKeyLen (128)
  - Duplicate keys are rejected with ErrAlreadyExists rather than overwritten
  - MurmurHash2 digests, cached per entry so resizes never rehash keys
  - Separate chaining for collision resolution
  - Bucket counts drawn from a fixed ladder of primes from 31 to 1147921
  - Cursors detect mutation of the map and fail with ErrStaleCursor
  - Not safe for concurrent use; callers serialise access themselves

Implementation Details:

Entries live in an arena and chains link them by arena index. Before an insert,
if the entry count has reached ceil(capacity*3/4), the map moves to the next
ladder size and relinks every entry into the new bucket array using its cached
digest. After a removal that leaves fewer than capacity/4 entries the map moves
to the previous ladder size the same way, and compacts the arena. Growing past
the largest ladder size fails with ErrCapacityExhausted; a failed shrink is
ignored.

A growth performed by Put is kept even if the insert that triggered it then
fails, for example with ErrAlreadyExists.
*/
package chainmap
