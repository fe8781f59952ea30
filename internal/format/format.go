// Package format creates a NumbFS filesystem on a block device.
package format

import (
	"fmt"

	"github.com/numbfs/go-numbfs/internal/directory"
	"github.com/numbfs/go-numbfs/internal/geometry"
	"github.com/numbfs/go-numbfs/internal/inode"
	"github.com/numbfs/go-numbfs/internal/interfaces"
	"github.com/numbfs/go-numbfs/internal/superblock"
	"github.com/numbfs/go-numbfs/internal/types"
)

// DefaultInodes is the inode count used when the caller does not choose
// one.
const DefaultInodes = 4096

// Options control a format run.
type Options struct {
	// InodeCount is the number of inode slots; 0 means DefaultInodes.
	// Must be a positive multiple of 8.
	InodeCount uint32

	// Size caps how many device bytes the filesystem may use; 0 means
	// the whole device. Formatting fails if the device is smaller.
	Size int64
}

// Run formats the device and returns the resulting superblock mirror.
// The mirror's counters reflect the post-format state (root directory
// allocated) and are the only time the on-disk counters are persisted.
func Run(dev interfaces.BlockDevice, opts Options) (*superblock.Superblock, error) {
	inodes := opts.InodeCount
	if inodes == 0 {
		inodes = DefaultInodes
	}

	size := dev.Size()
	if opts.Size != 0 {
		if dev.Size() < opts.Size {
			return nil, fmt.Errorf(
				"device size (%d) is smaller than required size (%d): %w",
				dev.Size(), opts.Size, types.ErrInvalid)
		}
		size = opts.Size
	}

	geo, err := geometry.Compute(size, inodes)
	if err != nil {
		return nil, err
	}

	// Clear every metadata block: both bitmaps and the inode table
	// start all-zero.
	zero := make([]byte, types.BlockSize)
	for blk := geo.IBitmapStart; blk < geo.DataStart; blk++ {
		if err := dev.WriteBlock(blk, zero); err != nil {
			return nil, fmt.Errorf("failed to clear metadata block@%d: %w", blk, err)
		}
	}

	// Every inode starts fully sparse: stamp the hole sentinel into
	// each pointer slot of the table.
	table := make([]byte, types.BlockSize)
	inode.InitTableBlock(table)
	for blk := geo.InodeStart; blk < geo.BBitmapStart; blk++ {
		if err := dev.WriteBlock(blk, table); err != nil {
			return nil, fmt.Errorf("failed to init inode table block@%d: %w", blk, err)
		}
	}

	sb := superblock.New(dev, geo)

	// Inode 0 is reserved so the first real allocation yields the
	// fixed root inode id.
	reserved, err := sb.AllocInode()
	if err != nil {
		return nil, err
	}
	if reserved != 0 {
		return nil, fmt.Errorf("reserved inode allocation returned %d: %w",
			reserved, types.ErrCorrupted)
	}

	// The root directory is its own parent.
	root, err := directory.Make(sb, types.RootInode)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare root inode: %w", err)
	}
	if root != types.RootInode {
		return nil, fmt.Errorf("root allocated as inode %d, want %d: %w",
			root, types.RootInode, types.ErrCorrupted)
	}

	if err := sb.Write(); err != nil {
		return nil, err
	}
	return sb, nil
}
