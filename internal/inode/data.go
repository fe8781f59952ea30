package inode

import (
	"fmt"

	"github.com/numbfs/go-numbfs/internal/types"
)

// BlockAddr resolves the data-zone block index holding the pos-th byte
// of the inode's address space.
//
// With alloc set, a hole is backed on demand: a data block is taken
// from the bitmap, zero-filled on disk, and its index is recorded in
// the in-memory pointer array only; persisting the mirror is the
// caller's responsibility. Without alloc, a hole resolves to
// types.HoleAddr.
//
// The format has no indirect or extent addressing: extent requests are
// rejected with types.ErrUnsupported and any position beyond the
// direct-pointer span with types.ErrRange.
func (ino *Inode) BlockAddr(pos uint32, alloc, extent bool) (int32, error) {
	if extent {
		return 0, fmt.Errorf("extent addressing: %w", types.ErrUnsupported)
	}

	index := pos / types.BlockSize
	if index >= types.NumDataEntries {
		return 0, fmt.Errorf("pos@%d beyond %d direct blocks: %w",
			pos, types.NumDataEntries, types.ErrRange)
	}

	if alloc && ino.Data[index] == types.HoleAddr {
		blk, err := ino.sb.AllocBlock()
		if err != nil {
			return 0, err
		}

		// New blocks must read back as zeros before any sub-block
		// write lands in them.
		zero := make([]byte, types.BlockSize)
		if err := ino.sb.Device().WriteBlock(ino.sb.Geometry().DataBlock(blk), zero); err != nil {
			return 0, err
		}

		ino.Data[index] = int32(blk)
	}

	return ino.Data[index], nil
}

// WriteRange writes buf at offset in the inode's address space. The
// span must stay within one block; splitting cross-block writes is the
// caller's responsibility. The inode size grows to cover the span, the
// data block is updated read-modify-write, and the mirror is persisted
// unconditionally before returning so size and pointers are never stale
// relative to the data written.
func (ino *Inode) WriteRange(buf []byte, offset uint32) error {
	off := offset % types.BlockSize
	if off+uint32(len(buf)) > types.BlockSize {
		return fmt.Errorf("write of %d bytes at offset %d crosses a block boundary: %w",
			len(buf), offset, types.ErrRange)
	}

	// Extend the size; anything between the old end and offset stays
	// a hole.
	if end := offset + uint32(len(buf)); end > ino.Size {
		ino.Size = end
	}

	target, err := ino.BlockAddr(offset, true, false)
	if err != nil {
		return err
	}

	phys := ino.sb.Geometry().DataBlock(uint32(target))
	block, err := ino.sb.Device().ReadBlock(phys)
	if err != nil {
		return err
	}

	copy(block[off:], buf)

	if err := ino.sb.Device().WriteBlock(phys, block); err != nil {
		return err
	}

	return ino.Store()
}

// ReadRange reads length bytes at offset in the inode's address space.
// The span must stay within one block. A hole, or any offset at or past
// the inode size, yields a zero-filled buffer without touching the
// device; at this layer holes and reads past end-of-file are
// indistinguishable.
func (ino *Inode) ReadRange(offset, length uint32) ([]byte, error) {
	off := offset % types.BlockSize
	if off+length > types.BlockSize {
		return nil, fmt.Errorf("read of %d bytes at offset %d crosses a block boundary: %w",
			length, offset, types.ErrRange)
	}

	target, err := ino.BlockAddr(offset, false, false)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, length)
	if offset >= ino.Size || target == types.HoleAddr {
		return buf, nil
	}

	block, err := ino.sb.Device().ReadBlock(ino.sb.Geometry().DataBlock(uint32(target)))
	if err != nil {
		return nil, err
	}

	copy(buf, block[off:off+length])
	return buf, nil
}
