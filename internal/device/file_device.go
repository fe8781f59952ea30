// Package device implements interfaces.BlockDevice over a regular file
// or a block device node.
package device

import (
	"fmt"
	"os"

	"github.com/numbfs/go-numbfs/internal/interfaces"
	"github.com/numbfs/go-numbfs/internal/types"
)

// FileDevice is a file-backed block device. All transfers are exactly
// one block; a short read or write surfaces as types.ErrIO.
type FileDevice struct {
	file *os.File
	size int64
}

// Ensure interface compliance
var _ interfaces.BlockDevice = (*FileDevice)(nil)

// Open opens an existing image read-write.
func Open(path string) (*FileDevice, error) {
	return open(path, os.O_RDWR)
}

// OpenReadOnly opens an existing image for inspection.
func OpenReadOnly(path string) (*FileDevice, error) {
	return open(path, os.O_RDONLY)
}

// Create opens an image read-write, creating it if it does not exist.
func Create(path string) (*FileDevice, error) {
	return open(path, os.O_RDWR|os.O_CREATE)
}

func open(path string, flag int) (*FileDevice, error) {
	if path == "" {
		return nil, fmt.Errorf("device path cannot be empty: %w", types.ErrInvalid)
	}

	file, err := os.OpenFile(path, flag, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open device %s: %w", path, err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat device %s: %w", path, err)
	}

	return &FileDevice{
		file: file,
		size: info.Size(),
	}, nil
}

// Truncate grows or shrinks the backing file and updates the cached
// size. Used by the format tool when building a fresh image file.
func (d *FileDevice) Truncate(size int64) error {
	if err := d.file.Truncate(size); err != nil {
		return fmt.Errorf("failed to truncate device: %w", err)
	}
	d.size = size
	return nil
}

// ReadBlock reads the block at blkno.
func (d *FileDevice) ReadBlock(blkno uint32) ([]byte, error) {
	buf := make([]byte, types.BlockSize)
	n, err := d.file.ReadAt(buf, int64(blkno)*types.BlockSize)
	if n != types.BlockSize {
		return nil, fmt.Errorf("failed to read block@%d (%d bytes): %w", blkno, n, types.ErrIO)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read block@%d: %w", blkno, types.ErrIO)
	}
	return buf, nil
}

// WriteBlock writes one full block at blkno.
func (d *FileDevice) WriteBlock(blkno uint32, data []byte) error {
	if len(data) != types.BlockSize {
		return fmt.Errorf("write block@%d: buffer is %d bytes, want %d: %w",
			blkno, len(data), types.BlockSize, types.ErrInvalid)
	}
	n, err := d.file.WriteAt(data, int64(blkno)*types.BlockSize)
	if err != nil || n != types.BlockSize {
		return fmt.Errorf("failed to write block@%d: %w", blkno, types.ErrIO)
	}
	return nil
}

// Size returns the device size in bytes.
func (d *FileDevice) Size() int64 { return d.size }

// TotalBlocks returns the number of whole blocks on the device.
func (d *FileDevice) TotalBlocks() uint32 {
	return uint32(d.size / types.BlockSize)
}

// Close releases the underlying file handle.
func (d *FileDevice) Close() error { return d.file.Close() }
