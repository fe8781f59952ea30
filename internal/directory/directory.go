// Package directory implements the 64-byte NumbFS directory entry codec
// and the canonical empty-directory bootstrap.
//
// Directory content is a flat, unordered sequential array of fixed-size
// entries stored in the directory inode's own data blocks; there is no
// hashing or index structure. The first two entries are conventionally
// "." and "..".
package directory

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/numbfs/go-numbfs/internal/inode"
	"github.com/numbfs/go-numbfs/internal/superblock"
	"github.com/numbfs/go-numbfs/internal/types"
)

// Entry is one decoded directory entry.
type Entry struct {
	Name string
	Type uint8
	Ino  uint16
}

// Make allocates a fresh inode, initializes it as an empty directory
// with "." pointing at itself and ".." pointing at parent, persists the
// entries through the sparse write path and returns the new inode id.
func Make(sb *superblock.Superblock, parent uint32) (uint32, error) {
	nid, err := sb.AllocInode()
	if err != nil {
		return 0, err
	}

	ino := inode.New(sb, nid)
	ino.Mode = types.ModeDir | types.DefaultDirPerm
	ino.Nlink = 2
	ino.Uid = uint16(os.Getuid())
	ino.Gid = uint16(os.Getgid())
	ino.Size = 0

	buf := make([]byte, 2*types.DirentSize)
	encodeEntry(buf[0:types.DirentSize], Entry{
		Name: ".",
		Type: types.EntryDir,
		Ino:  uint16(nid),
	})
	encodeEntry(buf[types.DirentSize:], Entry{
		Name: "..",
		Type: types.EntryDir,
		Ino:  uint16(parent),
	})

	// WriteRange grows the size to both records and persists the inode.
	if err := ino.WriteRange(buf, 0); err != nil {
		return 0, fmt.Errorf("failed to write dir entries for inode@%d: %w", nid, err)
	}
	return nid, nil
}

// List decodes every entry of a directory inode in storage order.
func List(ino *inode.Inode) ([]Entry, error) {
	if !types.IsDir(ino.Mode) {
		return nil, fmt.Errorf("inode@%d is not a directory: %w", ino.Nid, types.ErrInvalid)
	}

	count := ino.Size / types.DirentSize
	entries := make([]Entry, 0, count)
	for i := uint32(0); i < count; i++ {
		// Entry records never straddle blocks: the block size is a
		// multiple of the record size.
		buf, err := ino.ReadRange(i*types.DirentSize, types.DirentSize)
		if err != nil {
			return nil, err
		}

		entry, err := parseEntry(buf)
		if err != nil {
			return nil, fmt.Errorf("entry %d of inode@%d: %w", i, ino.Nid, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// encodeEntry writes one record into a DirentSize-byte buffer. The name
// buffer beyond the name is zeroed but carries no meaning on disk.
func encodeEntry(data []byte, entry Entry) {
	raw := &types.Dirent{
		NameLen: uint8(len(entry.Name)),
		Type:    entry.Type,
		Ino:     entry.Ino,
	}
	copy(raw.Name[:], entry.Name)

	data[0] = raw.NameLen
	data[1] = raw.Type
	copy(data[2:2+types.MaxNameLen], raw.Name[:])
	binary.LittleEndian.PutUint16(data[2+types.MaxNameLen:types.DirentSize], raw.Ino)
}

// parseEntry decodes one DirentSize-byte record.
func parseEntry(data []byte) (Entry, error) {
	raw := &types.Dirent{
		NameLen: data[0],
		Type:    data[1],
		Ino:     binary.LittleEndian.Uint16(data[2+types.MaxNameLen : types.DirentSize]),
	}
	copy(raw.Name[:], data[2:2+types.MaxNameLen])

	if raw.NameLen > types.MaxNameLen {
		return Entry{}, fmt.Errorf("name length %d exceeds %d: %w",
			raw.NameLen, types.MaxNameLen, types.ErrCorrupted)
	}

	return Entry{
		Name: string(raw.Name[:raw.NameLen]),
		Type: raw.Type,
		Ino:  raw.Ino,
	}, nil
}
