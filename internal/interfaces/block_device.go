// Package interfaces declares the contracts between NumbFS components.
package interfaces

// BlockDevice provides fixed-size aligned block access to a file or
// block device. A transfer always moves exactly one block at byte offset
// blkno * BlockSize; any short transfer is an I/O failure, never
// retried. The device performs no bounds checking against the zone
// layout; passing a valid block number is the caller's contract.
//
// NumbFS assumes a single process with exclusive access to the device;
// nothing at this layer arbitrates concurrent writers.
type BlockDevice interface {
	// ReadBlock reads the block at the specified block number.
	ReadBlock(blkno uint32) ([]byte, error)

	// WriteBlock writes one full block at the specified block number.
	WriteBlock(blkno uint32, data []byte) error

	// Size returns the total size of the device in bytes.
	Size() int64

	// TotalBlocks returns the number of whole blocks on the device.
	TotalBlocks() uint32

	// Close releases the underlying device handle.
	Close() error
}
