// Package bitmap implements the first-fit free-space allocator shared by
// inode and data-block allocation.
//
// A bitmap zone holds one bit per allocatable unit, packed 8 per byte
// across as many full blocks as the unit count needs; bit 1 means
// allocated. There is no cache layer: every allocate and free
// round-trips to the device so the on-disk bitmap is always current.
package bitmap

import (
	"fmt"
	"math/bits"

	"github.com/numbfs/go-numbfs/internal/interfaces"
	"github.com/numbfs/go-numbfs/internal/types"
)

// Region is one independently-addressed bitmap instance: a zone start
// block, the unit count it covers, and the in-memory free counter it
// keeps synchronized. The counter lives in the superblock mirror and is
// not re-flushed to disk here.
type Region struct {
	Dev       interfaces.BlockDevice
	Start     uint32  // first block of the bitmap zone
	Units     uint32  // number of allocatable units
	FreeCount *uint32 // mirror's free counter for this region
}

// block returns the bitmap block covering unit.
func (r Region) block(unit uint32) uint32 {
	return r.Start + unit/types.BitsPerBlock
}

// byteIndex returns the byte within the block covering unit.
func byteIndex(unit uint32) uint32 {
	return (unit % types.BitsPerBlock) / types.BitsPerByte
}

// bitIndex returns the bit within the byte covering unit.
func bitIndex(unit uint32) uint32 {
	return unit % types.BitsPerByte
}

// Allocate selects the lowest free unit, marks it allocated, writes the
// containing bitmap block back and decrements the free counter.
//
// Allocation is always first-fit by ascending index, which makes the
// allocation order deterministic for a known bitmap state. Returns
// types.ErrNoSpace without scanning when the counter is already zero;
// a scan that exhausts all units while the counter claimed space left
// means the counter and bitmap have desynchronized and returns
// types.ErrCorrupted.
func (r Region) Allocate() (uint32, error) {
	if *r.FreeCount == 0 {
		return 0, fmt.Errorf("bitmap@%d exhausted: %w", r.Start, types.ErrNoSpace)
	}

	var buf []byte
	var err error
	for unit := uint32(0); unit < r.Units; unit++ {
		if unit%types.BitsPerBlock == 0 {
			buf, err = r.Dev.ReadBlock(r.block(unit))
			if err != nil {
				return 0, err
			}
		}

		byt, bit := byteIndex(unit), bitIndex(unit)
		if buf[byt]&(1<<bit) != 0 {
			continue
		}

		buf[byt] |= 1 << bit
		if err := r.Dev.WriteBlock(r.block(unit), buf); err != nil {
			return 0, err
		}
		*r.FreeCount--
		return unit, nil
	}

	return 0, fmt.Errorf(
		"bitmap@%d has no free bit but free counter is %d: %w",
		r.Start, *r.FreeCount, types.ErrCorrupted)
}

// Free releases unit, writes the containing bitmap block back and
// increments the free counter. Freeing a unit that is not allocated is
// an unrecoverable invariant violation and panics: the bitmap and its
// counters no longer describe reality, and continuing risks silent
// data corruption.
func (r Region) Free(unit uint32) error {
	if unit >= r.Units {
		return fmt.Errorf("unit %d out of bitmap range %d: %w",
			unit, r.Units, types.ErrInvalid)
	}

	buf, err := r.Dev.ReadBlock(r.block(unit))
	if err != nil {
		return err
	}

	byt, bit := byteIndex(unit), bitIndex(unit)
	if buf[byt]&(1<<bit) == 0 {
		panic(fmt.Sprintf("numbfs: double free of unit %d in bitmap@%d", unit, r.Start))
	}

	buf[byt] &^= 1 << bit
	if err := r.Dev.WriteBlock(r.block(unit), buf); err != nil {
		return err
	}
	*r.FreeCount++
	return nil
}

// Popcount counts the allocated units by reading the bitmap zone,
// ignoring any trailing bits beyond the unit count. The bitmap, not the
// stored free counter, is the source of truth for space accounting.
func (r Region) Popcount() (uint32, error) {
	var used uint32
	remaining := r.Units

	for blk := r.Start; remaining > 0; blk++ {
		buf, err := r.Dev.ReadBlock(blk)
		if err != nil {
			return 0, err
		}

		n := remaining
		if n > types.BitsPerBlock {
			n = types.BitsPerBlock
		}

		for i := uint32(0); i < n/types.BitsPerByte; i++ {
			used += uint32(bits.OnesCount8(buf[i]))
		}
		if tail := n % types.BitsPerByte; tail != 0 {
			mask := byte(1<<tail - 1)
			used += uint32(bits.OnesCount8(buf[n/types.BitsPerByte] & mask))
		}
		remaining -= n
	}

	return used, nil
}
