// Package inode implements the 64-byte NumbFS inode codec and the
// logical-to-physical block translation for file data, including
// sparse-hole handling.
package inode

import (
	"encoding/binary"
	"fmt"

	"github.com/numbfs/go-numbfs/internal/superblock"
	"github.com/numbfs/go-numbfs/internal/types"
)

// VerifyStores enables a verification layer in Store: every persisted
// inode is immediately re-read and compared field by field against the
// mirror, and any mismatch panics. Meant to catch codec bugs during
// development; production paths leave it off.
var VerifyStores = false

// Inode is the transient in-memory mirror of one on-disk inode record.
// It borrows the superblock mirror (and through it the device handle)
// and owns only its own field values. Mutations live in memory until
// Store is called; there is no write-back cache layer.
type Inode struct {
	Nid        uint32
	Mode       uint32
	Nlink      uint16
	Uid        uint16
	Gid        uint16
	Size       uint32
	XattrStart uint32
	XattrCount uint8

	// Data is the direct pointer array. Each slot holds a data-zone
	// block index, or types.HoleAddr for a block never written.
	Data [types.NumDataEntries]int32

	sb *superblock.Superblock
}

// New returns a fresh, unpersisted mirror for nid with every pointer
// holed.
func New(sb *superblock.Superblock, nid uint32) *Inode {
	ino := &Inode{Nid: nid, sb: sb}
	for i := range ino.Data {
		ino.Data[i] = types.HoleAddr
	}
	return ino
}

// Load reads the inode record for nid from its containing table block
// and returns a mirror bound to the superblock.
func Load(sb *superblock.Superblock, nid uint32) (*Inode, error) {
	if nid >= sb.Geometry().TotalInodes {
		return nil, fmt.Errorf("inode %d out of range %d: %w",
			nid, sb.Geometry().TotalInodes, types.ErrInvalid)
	}

	buf, err := sb.Device().ReadBlock(sb.Geometry().InodeBlock(nid))
	if err != nil {
		return nil, fmt.Errorf("failed to load inode@%d: %w", nid, err)
	}

	raw := parseInode(buf, int(nid%types.InodesPerBlock))
	ino := &Inode{
		Nid:        nid,
		Mode:       raw.Mode,
		Nlink:      raw.Nlink,
		Uid:        raw.Uid,
		Gid:        raw.Gid,
		Size:       raw.Size,
		XattrStart: raw.XattrStart,
		XattrCount: raw.XattrCount,
		Data:       raw.Data,
		sb:         sb,
	}
	return ino, nil
}

// Store persists the mirror into its slot of the shared table block.
// The block is re-read first because other inodes live in it.
func (ino *Inode) Store() error {
	blk := ino.sb.Geometry().InodeBlock(ino.Nid)
	buf, err := ino.sb.Device().ReadBlock(blk)
	if err != nil {
		return fmt.Errorf("failed to read inode table block@%d: %w", blk, err)
	}

	encodeInode(buf, int(ino.Nid%types.InodesPerBlock), ino.raw())

	if err := ino.sb.Device().WriteBlock(blk, buf); err != nil {
		return fmt.Errorf("failed to dump inode@%d: %w", ino.Nid, err)
	}

	if VerifyStores {
		ino.verifyStored()
	}
	return nil
}

func (ino *Inode) raw() *types.Inode {
	return &types.Inode{
		Ino:        uint16(ino.Nid),
		Nlink:      ino.Nlink,
		Uid:        ino.Uid,
		Gid:        ino.Gid,
		Mode:       ino.Mode,
		Size:       ino.Size,
		XattrStart: ino.XattrStart,
		XattrCount: ino.XattrCount,
		Data:       ino.Data,
	}
}

// verifyStored re-reads the inode just written and panics on any field
// mismatch.
func (ino *Inode) verifyStored() {
	buf, err := ino.sb.Device().ReadBlock(ino.sb.Geometry().InodeBlock(ino.Nid))
	if err != nil {
		panic(fmt.Sprintf("numbfs: verify re-read of inode@%d failed: %v", ino.Nid, err))
	}
	got := parseInode(buf, int(ino.Nid%types.InodesPerBlock))
	want := ino.raw()
	if *got != *want {
		panic(fmt.Sprintf("numbfs: inode@%d readback mismatch: got %+v, want %+v",
			ino.Nid, got, want))
	}
}

// parseInode decodes the inode record at the given slot of a table
// block.
func parseInode(block []byte, slot int) *types.Inode {
	data := block[slot*types.InodeSize : (slot+1)*types.InodeSize]

	raw := &types.Inode{}
	raw.Ino = binary.LittleEndian.Uint16(data[0:2])
	raw.Nlink = binary.LittleEndian.Uint16(data[2:4])
	raw.Uid = binary.LittleEndian.Uint16(data[4:6])
	raw.Gid = binary.LittleEndian.Uint16(data[6:8])
	raw.Mode = binary.LittleEndian.Uint32(data[8:12])
	raw.Size = binary.LittleEndian.Uint32(data[12:16])
	raw.XattrStart = binary.LittleEndian.Uint32(data[16:20])
	raw.XattrCount = data[20]
	copy(raw.Reserved[:], data[21:24])
	for i := 0; i < types.NumDataEntries; i++ {
		raw.Data[i] = int32(binary.LittleEndian.Uint32(data[24+4*i : 28+4*i]))
	}
	return raw
}

// encodeInode writes the record into the given slot of a table block,
// leaving the other slots untouched.
func encodeInode(block []byte, slot int, raw *types.Inode) {
	data := block[slot*types.InodeSize : (slot+1)*types.InodeSize]

	binary.LittleEndian.PutUint16(data[0:2], raw.Ino)
	binary.LittleEndian.PutUint16(data[2:4], raw.Nlink)
	binary.LittleEndian.PutUint16(data[4:6], raw.Uid)
	binary.LittleEndian.PutUint16(data[6:8], raw.Gid)
	binary.LittleEndian.PutUint32(data[8:12], raw.Mode)
	binary.LittleEndian.PutUint32(data[12:16], raw.Size)
	binary.LittleEndian.PutUint32(data[16:20], raw.XattrStart)
	data[20] = raw.XattrCount
	copy(data[21:24], raw.Reserved[:])
	for i := 0; i < types.NumDataEntries; i++ {
		binary.LittleEndian.PutUint32(data[24+4*i:28+4*i], uint32(raw.Data[i]))
	}
}

// InitTableBlock stamps the hole sentinel into every pointer slot of an
// otherwise zeroed inode table block, so freshly formatted inodes start
// fully sparse.
func InitTableBlock(block []byte) {
	hole := types.HoleAddr
	for slot := 0; slot < types.InodesPerBlock; slot++ {
		base := slot * types.InodeSize
		for i := 0; i < types.NumDataEntries; i++ {
			binary.LittleEndian.PutUint32(
				block[base+24+4*i:base+28+4*i], uint32(hole))
		}
	}
}

// Superblock returns the superblock mirror this inode borrows.
func (ino *Inode) Superblock() *superblock.Superblock { return ino.sb }
