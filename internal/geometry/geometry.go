// Package geometry computes the NumbFS zone layout for a device.
//
// Geometry is a pure function of the device size and the inode count.
// It is computed once at format time to produce the zone start offsets;
// after that the offsets stored in the superblock are authoritative and
// are never recomputed at mount time.
package geometry

import (
	"fmt"

	"github.com/numbfs/go-numbfs/internal/types"
)

// Geometry describes the block-aligned, non-overlapping zones of a
// formatted device, in fixed order: reserved block 0, superblock at
// block 1, inode bitmap, inode table, block bitmap, data.
type Geometry struct {
	TotalBlocks  uint32
	TotalInodes  uint32
	DataBlocks   uint32
	IBitmapStart uint32
	InodeStart   uint32
	BBitmapStart uint32
	DataStart    uint32
}

func divRoundUp(n, d uint32) uint32 {
	return (n + d - 1) / d
}

// bitmapBlocks returns the number of blocks needed to hold one bit per
// unit, packed 8 per byte.
func bitmapBlocks(units uint32) uint32 {
	return divRoundUp(divRoundUp(units, types.BitsPerByte), types.BlockSize)
}

// Compute derives the zone layout for a device of deviceSize bytes
// holding inodeCount inodes. The inode count must be a positive
// multiple of 8 so the inode bitmap has no partial bytes. The device
// must be large enough for the reserved block, the superblock, both
// bitmaps, the full inode table and at least one data block.
func Compute(deviceSize int64, inodeCount uint32) (Geometry, error) {
	if inodeCount == 0 || inodeCount%types.BitsPerByte != 0 {
		return Geometry{}, fmt.Errorf(
			"inode count %d must be a positive multiple of 8: %w",
			inodeCount, types.ErrInvalid)
	}

	total := uint32(deviceSize / types.BlockSize)

	g := Geometry{
		TotalBlocks: total,
		TotalInodes: inodeCount,
	}

	// Zone walk. Blocks 0 and 1 are the reserved block and the superblock.
	g.IBitmapStart = 2
	g.InodeStart = g.IBitmapStart + bitmapBlocks(inodeCount)
	g.BBitmapStart = g.InodeStart + divRoundUp(inodeCount*types.InodeSize, types.BlockSize)

	if total <= g.BBitmapStart+1 {
		return Geometry{}, fmt.Errorf(
			"device too small (%d bytes) for %d inodes: %w",
			deviceSize, inodeCount, types.ErrInvalid)
	}

	// Whatever remains after the metadata zones is split between the
	// block bitmap and the data zone it covers.
	remain := total - g.BBitmapStart - 1
	g.DataBlocks = remain - bitmapBlocks(remain)
	g.DataStart = g.BBitmapStart + bitmapBlocks(g.DataBlocks)

	if g.DataBlocks == 0 {
		return Geometry{}, fmt.Errorf(
			"device too small (%d bytes), no room for data blocks: %w",
			deviceSize, types.ErrInvalid)
	}

	return g, nil
}

// InodeBlock returns the table block containing inode nid.
func (g Geometry) InodeBlock(nid uint32) uint32 {
	return g.InodeStart + nid/types.InodesPerBlock
}

// DataBlock maps a data-zone block index to its physical block number.
func (g Geometry) DataBlock(index uint32) uint32 {
	return g.DataStart + index
}
