package types

import "errors"

// Error taxonomy. Every fallible operation wraps one of these sentinels
// so callers can classify failures with errors.Is; the only condition
// that does not surface as an error is a bitmap double-free, which
// panics because it means the metadata has diverged from reality.
var (
	// ErrIO: a block transfer moved fewer bytes than BlockSize.
	ErrIO = errors.New("i/o failure")

	// ErrCorrupted: the on-disk state contradicts the format
	// (bad superblock magic, bitmap/counter desynchronization).
	ErrCorrupted = errors.New("corrupted filesystem")

	// ErrNoSpace: an allocation was requested with a zero free counter.
	ErrNoSpace = errors.New("no free space")

	// ErrRange: a logical block index beyond the direct-pointer array,
	// or a read/write span crossing a block boundary.
	ErrRange = errors.New("out of range")

	// ErrUnsupported: a feature the format reserves but does not
	// implement, such as extent addressing.
	ErrUnsupported = errors.New("unsupported feature")

	// ErrInvalid: a caller-supplied argument outside the valid domain.
	ErrInvalid = errors.New("invalid argument")
)
