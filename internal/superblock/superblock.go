// Package superblock reads and writes the 128-byte NumbFS superblock
// and maintains its in-memory mirror.
//
// The mirror is the sole owner of the open device handle and the zone
// geometry. Its free counters are updated synchronously on every
// allocation and free, but the on-disk superblock is written exactly
// once, at format time: after mount the bitmaps are the source of truth
// for free-space accounting and the stored counters may drift.
package superblock

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"

	"github.com/numbfs/go-numbfs/internal/bitmap"
	"github.com/numbfs/go-numbfs/internal/geometry"
	"github.com/numbfs/go-numbfs/internal/interfaces"
	"github.com/numbfs/go-numbfs/internal/types"
)

// Superblock is the in-memory mirror of the on-disk superblock.
type Superblock struct {
	Feature    uint32
	FreeInodes uint32
	FreeBlocks uint32

	// VolumeUUID identifies the image. It lives in the reserved region
	// of the on-disk record and is stamped at format time; images
	// formatted by other tools read back as the zero UUID.
	VolumeUUID uuid.UUID

	geo geometry.Geometry
	dev interfaces.BlockDevice
}

// New builds a mirror for a freshly computed geometry, with every inode
// and data block free. Used by the format path before anything is
// persisted.
func New(dev interfaces.BlockDevice, geo geometry.Geometry) *Superblock {
	return &Superblock{
		FreeInodes: geo.TotalInodes,
		FreeBlocks: geo.DataBlocks,
		VolumeUUID: uuid.New(),
		geo:        geo,
		dev:        dev,
	}
}

// Read loads block 1 from the device, validates the magic number and
// decodes the superblock into a mirror bound to the device.
func Read(dev interfaces.BlockDevice) (*Superblock, error) {
	buf, err := dev.ReadBlock(types.SuperblockBlock)
	if err != nil {
		return nil, fmt.Errorf("failed to read superblock: %w", err)
	}

	raw := parseSuperblock(buf)
	if raw.Magic != types.Magic {
		return nil, fmt.Errorf(
			"invalid superblock magic: got 0x%08X, want 0x%08X: %w",
			raw.Magic, types.Magic, types.ErrCorrupted)
	}

	sb := &Superblock{
		Feature:    raw.Feature,
		FreeInodes: raw.FreeInodes,
		FreeBlocks: raw.FreeBlocks,
		dev:        dev,
		geo: geometry.Geometry{
			TotalBlocks:  dev.TotalBlocks(),
			IBitmapStart: raw.IBitmapStart,
			InodeStart:   raw.InodeStart,
			BBitmapStart: raw.BBitmapStart,
			DataStart:    raw.DataStart,
			TotalInodes:  raw.TotalInodes,
			DataBlocks:   raw.DataBlocks,
		},
	}
	copy(sb.VolumeUUID[:], raw.Reserved[0:16])

	return sb, nil
}

// parseSuperblock decodes the raw on-disk record from a superblock
// block.
func parseSuperblock(data []byte) *types.Superblock {
	raw := &types.Superblock{}
	raw.Magic = binary.LittleEndian.Uint32(data[0:4])
	raw.Feature = binary.LittleEndian.Uint32(data[4:8])
	raw.IBitmapStart = binary.LittleEndian.Uint32(data[8:12])
	raw.InodeStart = binary.LittleEndian.Uint32(data[12:16])
	raw.BBitmapStart = binary.LittleEndian.Uint32(data[16:20])
	raw.DataStart = binary.LittleEndian.Uint32(data[20:24])
	raw.TotalInodes = binary.LittleEndian.Uint32(data[24:28])
	raw.FreeInodes = binary.LittleEndian.Uint32(data[28:32])
	raw.DataBlocks = binary.LittleEndian.Uint32(data[32:36])
	raw.FreeBlocks = binary.LittleEndian.Uint32(data[36:40])
	copy(raw.Reserved[:], data[40:types.SuperblockSize])
	return raw
}

// Write encodes the mirror and persists it to block 1. Called once at
// format time; allocations after mount never re-flush the counters.
func (sb *Superblock) Write() error {
	raw := &types.Superblock{
		Magic:        types.Magic,
		Feature:      sb.Feature,
		IBitmapStart: sb.geo.IBitmapStart,
		InodeStart:   sb.geo.InodeStart,
		BBitmapStart: sb.geo.BBitmapStart,
		DataStart:    sb.geo.DataStart,
		TotalInodes:  sb.geo.TotalInodes,
		FreeInodes:   sb.FreeInodes,
		DataBlocks:   sb.geo.DataBlocks,
		FreeBlocks:   sb.FreeBlocks,
	}
	copy(raw.Reserved[0:16], sb.VolumeUUID[:])

	buf := make([]byte, types.BlockSize)
	binary.LittleEndian.PutUint32(buf[0:4], raw.Magic)
	binary.LittleEndian.PutUint32(buf[4:8], raw.Feature)
	binary.LittleEndian.PutUint32(buf[8:12], raw.IBitmapStart)
	binary.LittleEndian.PutUint32(buf[12:16], raw.InodeStart)
	binary.LittleEndian.PutUint32(buf[16:20], raw.BBitmapStart)
	binary.LittleEndian.PutUint32(buf[20:24], raw.DataStart)
	binary.LittleEndian.PutUint32(buf[24:28], raw.TotalInodes)
	binary.LittleEndian.PutUint32(buf[28:32], raw.FreeInodes)
	binary.LittleEndian.PutUint32(buf[32:36], raw.DataBlocks)
	binary.LittleEndian.PutUint32(buf[36:40], raw.FreeBlocks)
	copy(buf[40:types.SuperblockSize], raw.Reserved[:])

	if err := sb.dev.WriteBlock(types.SuperblockBlock, buf); err != nil {
		return fmt.Errorf("failed to write superblock: %w", err)
	}
	return nil
}

// Device returns the open device handle the mirror owns.
func (sb *Superblock) Device() interfaces.BlockDevice { return sb.dev }

// Geometry returns the zone layout.
func (sb *Superblock) Geometry() geometry.Geometry { return sb.geo }

// InodeRegion returns the inode bitmap backed by this mirror's free
// counter.
func (sb *Superblock) InodeRegion() bitmap.Region {
	return bitmap.Region{
		Dev:       sb.dev,
		Start:     sb.geo.IBitmapStart,
		Units:     sb.geo.TotalInodes,
		FreeCount: &sb.FreeInodes,
	}
}

// BlockRegion returns the data-block bitmap backed by this mirror's
// free counter.
func (sb *Superblock) BlockRegion() bitmap.Region {
	return bitmap.Region{
		Dev:       sb.dev,
		Start:     sb.geo.BBitmapStart,
		Units:     sb.geo.DataBlocks,
		FreeCount: &sb.FreeBlocks,
	}
}

// AllocInode returns a free inode id.
func (sb *Superblock) AllocInode() (uint32, error) {
	nid, err := sb.InodeRegion().Allocate()
	if err != nil {
		return 0, fmt.Errorf("failed to alloc inode: %w", err)
	}
	return nid, nil
}

// FreeInode releases inode id nid.
func (sb *Superblock) FreeInode(nid uint32) error {
	return sb.InodeRegion().Free(nid)
}

// AllocBlock returns a free data-zone block index.
func (sb *Superblock) AllocBlock() (uint32, error) {
	blk, err := sb.BlockRegion().Allocate()
	if err != nil {
		return 0, fmt.Errorf("failed to alloc data block: %w", err)
	}
	return blk, nil
}

// FreeBlock releases the data-zone block index blk.
func (sb *Superblock) FreeBlock(blk uint32) error {
	return sb.BlockRegion().Free(blk)
}
