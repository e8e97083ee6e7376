package main

import (
	"encoding/binary"
	"fmt"
	"log"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"

	"github.com/theflywheel/chainmap"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.DebugLevel)

	// Table for 4-byte values; resizes are logged at debug level
	fm, err := chainmap.NewFixed(4, chainmap.WithLogger(logger))
	if err != nil {
		log.Fatalf("Failed to create map: %v", err)
	}
	defer fm.Free()

	fmt.Println("Map created successfully")

	value := make([]byte, 4)
	binary.LittleEndian.PutUint32(value, 100)
	if err := fm.Put([]byte("key1"), value); err != nil {
		log.Fatalf("Failed to insert key1: %v", err)
	}
	binary.LittleEndian.PutUint32(value, 200)
	if err := fm.Put([]byte("key2"), value); err != nil {
		log.Fatalf("Failed to insert key2: %v", err)
	}

	out := make([]byte, 4)
	if err := fm.Get([]byte("key1"), out); err != nil {
		log.Fatalf("Failed to get key1: %v", err)
	}
	fmt.Printf("key1 => %d\n", binary.LittleEndian.Uint32(out))

	// Duplicate keys are rejected, not overwritten
	if err := fm.Put([]byte("key1"), value); errors.Is(err, chainmap.ErrAlreadyExists) {
		fmt.Println("key1 already present")
	}

	if err := fm.Remove([]byte("key1"), out); err != nil {
		log.Fatalf("Failed to remove key1: %v", err)
	}
	fmt.Printf("Removed key1 => %d\n", binary.LittleEndian.Uint32(out))

	if err := fm.Get([]byte("key1"), out); errors.Is(err, chainmap.ErrNotFound) {
		fmt.Println("key1 not found")
	}
	fmt.Printf("Count: %d\n", fm.Len())

	// Insert enough keys to grow the table a few times
	for i := 0; i < 200; i++ {
		binary.LittleEndian.PutUint32(value, uint32(i))
		if err := fm.Put([]byte(fmt.Sprintf("bulk-%d", i)), value); err != nil {
			log.Fatalf("Failed to insert key %d: %v", i, err)
		}
	}

	c := fm.Iter()
	defer c.Close()
	n := 0
	for {
		_, err := c.Next(out)
		if errors.Is(err, chainmap.ErrCursorExhausted) {
			break
		}
		if err != nil {
			log.Fatalf("Iteration failed: %v", err)
		}
		n++
	}

	st := fm.Stats()
	fmt.Printf("Iterated %d entries; capacity=%d load=%.2f longest chain=%d\n",
		n, st.Capacity, st.LoadFactor, st.LongestChain)
	fmt.Println("Example completed successfully")
}
