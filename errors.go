package chainmap

import "github.com/cockroachdb/errors"

var (
	// ErrInvalidArgument is returned for nil maps, cursors or buffers, empty
	// keys and value buffers of the wrong size.
	ErrInvalidArgument = errors.New("chainmap: invalid argument")

	// ErrKeyTooLong is returned by Put for keys longer than MaxKeyLen.
	ErrKeyTooLong = errors.New("chainmap: key too long")

	ErrAlreadyExists = errors.New("chainmap: key already exists")
	ErrNotFound      = errors.New("chainmap: key not found")

	// ErrCapacityExhausted is returned by Put when the map must grow but is
	// already at the largest supported capacity.
	ErrCapacityExhausted = errors.New("chainmap: capacity exhausted")

	// ErrStaleCursor is returned by a cursor whose map was mutated or resized
	// after the cursor was created.
	ErrStaleCursor = errors.New("chainmap: cursor invalidated by mutation")

	// ErrCursorExhausted is returned once a cursor has produced every entry.
	// It also matches ErrNotFound.
	ErrCursorExhausted = errors.Mark(errors.New("chainmap: cursor exhausted"), ErrNotFound)
)

func invalidArgf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidArgument, format, args...)
}
