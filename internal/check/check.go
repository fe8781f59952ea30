// Package check inspects a formatted NumbFS image: usage statistics,
// counter consistency and per-inode dumps.
//
// All accounting is recomputed by popcount over the bitmaps. The free
// counters stored in the superblock are written only at format time and
// may legitimately drift afterwards; they are reported, never trusted.
package check

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/numbfs/go-numbfs/internal/directory"
	"github.com/numbfs/go-numbfs/internal/inode"
	"github.com/numbfs/go-numbfs/internal/superblock"
	"github.com/numbfs/go-numbfs/internal/types"
)

// Usage summarizes one bitmap zone.
type Usage struct {
	Total uint32
	Used  uint32 // popcount of the bitmap
	Free  uint32 // Total - Used

	// StoredFree is the counter persisted in the superblock at format
	// time.
	StoredFree uint32
}

// Consistent reports whether the stored counter still matches the
// bitmap population.
func (u Usage) Consistent() bool { return u.Free == u.StoredFree }

// Report is the outcome of a consistency scan.
type Report struct {
	VolumeUUID uuid.UUID
	Inodes     Usage
	Blocks     Usage
}

// Clean reports whether both stored counters match their bitmaps.
func (r *Report) Clean() bool {
	return r.Inodes.Consistent() && r.Blocks.Consistent()
}

// Run scans both bitmaps and compares their population counts against
// the superblock counters.
func Run(sb *superblock.Superblock) (*Report, error) {
	geo := sb.Geometry()

	iused, err := sb.InodeRegion().Popcount()
	if err != nil {
		return nil, fmt.Errorf("failed to scan inode bitmap: %w", err)
	}

	bused, err := sb.BlockRegion().Popcount()
	if err != nil {
		return nil, fmt.Errorf("failed to scan block bitmap: %w", err)
	}

	return &Report{
		VolumeUUID: sb.VolumeUUID,
		Inodes: Usage{
			Total:      geo.TotalInodes,
			Used:       iused,
			Free:       geo.TotalInodes - iused,
			StoredFree: sb.FreeInodes,
		},
		Blocks: Usage{
			Total:      geo.DataBlocks,
			Used:       bused,
			Free:       geo.DataBlocks - bused,
			StoredFree: sb.FreeBlocks,
		},
	}, nil
}

// InodeInfo is a decoded inode plus, for directories, its entries.
type InodeInfo struct {
	Nid     uint32
	Mode    uint32
	Nlink   uint16
	Uid     uint16
	Gid     uint16
	Size    uint32
	Data    [types.NumDataEntries]int32
	Entries []directory.Entry // nil unless the inode is a directory
}

// TypeName renders the inode type the way the inspect tool prints it.
func (info *InodeInfo) TypeName() string {
	switch {
	case types.IsDir(info.Mode):
		return "DIR"
	case types.IsSymlink(info.Mode):
		return "SYMLINK"
	default:
		return "REGULAR"
	}
}

// InspectInode loads one inode and, for directories, lists its entries.
func InspectInode(sb *superblock.Superblock, nid uint32) (*InodeInfo, error) {
	ino, err := inode.Load(sb, nid)
	if err != nil {
		return nil, err
	}

	info := &InodeInfo{
		Nid:   ino.Nid,
		Mode:  ino.Mode,
		Nlink: ino.Nlink,
		Uid:   ino.Uid,
		Gid:   ino.Gid,
		Size:  ino.Size,
		Data:  ino.Data,
	}

	if types.IsDir(ino.Mode) {
		entries, err := directory.List(ino)
		if err != nil {
			return nil, err
		}
		info.Entries = entries
	}
	return info, nil
}
