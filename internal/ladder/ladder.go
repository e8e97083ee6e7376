// Package ladder holds the fixed sequence of table sizes a map moves between
// when it grows or shrinks.
package ladder

import "github.com/cockroachdb/errors"

// ErrExhausted is returned by Grow when no larger size exists.
var ErrExhausted = errors.New("capacity ladder exhausted")

// Primes, each roughly twice the previous one.
var sizes = [...]int{
	31,
	67,
	137,
	277,
	557,
	1117,
	2237,
	4481,
	8963,
	17929,
	35863,
	71741,
	143483,
	286973,
	573953,
	1147921,
}

// Floor is the smallest size and the capacity of a new map.
func Floor() int { return sizes[0] }

// Max is the largest size.
func Max() int { return sizes[len(sizes)-1] }

// Sizes returns a copy of the ladder.
func Sizes() []int {
	out := make([]int, len(sizes))
	copy(out, sizes[:])
	return out
}

// Grow returns the smallest size strictly greater than cur.
func Grow(cur int) (int, error) {
	for _, s := range sizes {
		if s > cur {
			return s, nil
		}
	}
	return 0, errors.Wrapf(ErrExhausted, "no size above %d", cur)
}

// Shrink returns the largest size strictly less than cur. It reports false if
// cur is already at or below the floor.
func Shrink(cur int) (int, bool) {
	if cur <= sizes[0] {
		return 0, false
	}
	prev := sizes[0]
	for _, s := range sizes {
		if s >= cur {
			break
		}
		prev = s
	}
	return prev, true
}
