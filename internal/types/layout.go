// Package types defines the NumbFS on-disk layout: fixed constants, the
// raw record structures, and the error taxonomy shared by every component.
//
// All on-disk integers are little-endian. The device is divided into
// block-aligned zones in a fixed order:
//
//	| reserved | superblock | inode bitmap | inode table | block bitmap | data |
package types

import "unsafe"

const (
	// BlockSize is the uniform transfer unit for the whole device.
	BlockSize = 512

	BitsPerByte = 8

	// BitsPerBlock is the number of bitmap units covered by one bitmap block.
	BitsPerBlock = BlockSize * BitsPerByte

	// Magic identifies a NumbFS superblock ("NUMB").
	Magic uint32 = 0x4E554D42

	// SuperblockBlock is the block number holding the superblock.
	// Block 0 is reserved.
	SuperblockBlock = 1

	// RootInode is the fixed inode id of the root directory,
	// created at format time. Inode 0 is reserved and never allocated.
	RootInode uint32 = 1

	// NumDataEntries is the number of direct data-block pointers per inode.
	// There is no indirect or extent addressing; files are capped at
	// NumDataEntries * BlockSize bytes.
	NumDataEntries = 10

	// MaxFileSize is the largest byte size a file can reach.
	MaxFileSize = NumDataEntries * BlockSize

	// MaxNameLen is the fixed width of a directory entry's name buffer.
	MaxNameLen = 60

	// HoleAddr marks a direct pointer slot with no data block behind it.
	// Reads of a hole yield zeros; a block is allocated lazily on write.
	HoleAddr int32 = -32
)

// On-disk record sizes.
const (
	SuperblockSize     = 128
	SuperblockReserved = 88
	InodeSize          = 64
	DirentSize         = 64

	// InodesPerBlock is the number of inode records per table block.
	InodesPerBlock = BlockSize / InodeSize
)

// Directory entry types, matching the values the original tooling
// inherited from dirent(3).
const (
	EntryDir     uint8 = 4
	EntryRegular uint8 = 8
	EntrySymlink uint8 = 10
)

// Inode mode bits. The low 12 bits are permission bits.
const (
	ModeDir     uint32 = 0o040000
	ModeRegular uint32 = 0o100000
	ModeSymlink uint32 = 0o120000

	ModeTypeMask uint32 = 0o170000

	// DefaultDirPerm is the permission set given to bootstrap directories.
	DefaultDirPerm uint32 = 0o755
)

// Superblock is the raw 128-byte on-disk superblock record.
type Superblock struct {
	Magic        uint32
	Feature      uint32
	IBitmapStart uint32
	InodeStart   uint32
	BBitmapStart uint32
	DataStart    uint32
	TotalInodes  uint32
	FreeInodes   uint32
	DataBlocks   uint32
	FreeBlocks   uint32
	Reserved     [SuperblockReserved]byte
}

// Inode is the raw 64-byte on-disk inode record.
type Inode struct {
	Ino        uint16
	Nlink      uint16
	Uid        uint16
	Gid        uint16
	Mode       uint32
	Size       uint32
	XattrStart uint32
	XattrCount uint8
	Reserved   [3]byte
	Data       [NumDataEntries]int32
}

// Dirent is the raw 64-byte on-disk directory entry record. Directory
// content is a flat sequential array of these records with no index
// structure; the name buffer is only meaningful up to NameLen.
type Dirent struct {
	NameLen uint8
	Type    uint8
	Name    [MaxNameLen]byte
	Ino     uint16
}

// Layout guards: the three record sizes are part of the format contract.
// A platform whose struct layout disagrees fails to compile.
var (
	_ [SuperblockSize]byte = [unsafe.Sizeof(Superblock{})]byte{}
	_ [InodeSize]byte      = [unsafe.Sizeof(Inode{})]byte{}
	_ [DirentSize]byte     = [unsafe.Sizeof(Dirent{})]byte{}
)

// IsDir reports whether mode describes a directory.
func IsDir(mode uint32) bool { return mode&ModeTypeMask == ModeDir }

// IsSymlink reports whether mode describes a symbolic link.
func IsSymlink(mode uint32) bool { return mode&ModeTypeMask == ModeSymlink }
