package superblock

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/numbfs/go-numbfs/internal/device"
	"github.com/numbfs/go-numbfs/internal/geometry"
	"github.com/numbfs/go-numbfs/internal/types"
)

func newTestDevice(t *testing.T, size int64) *device.FileDevice {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sb.img")
	file, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, file.Truncate(size))
	require.NoError(t, file.Close())

	dev, err := device.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { dev.Close() })
	return dev
}

func TestWriteReadRoundTrip(t *testing.T) {
	dev := newTestDevice(t, 10<<20)

	geo, err := geometry.Compute(dev.Size(), 4096)
	require.NoError(t, err)

	sb := New(dev, geo)
	sb.FreeInodes = 4094
	sb.FreeBlocks = geo.DataBlocks - 1
	require.NotEqual(t, uuid.Nil, sb.VolumeUUID)
	require.NoError(t, sb.Write())

	got, err := Read(dev)
	require.NoError(t, err)

	assert.Equal(t, geo, got.Geometry())
	assert.Equal(t, uint32(4094), got.FreeInodes)
	assert.Equal(t, geo.DataBlocks-1, got.FreeBlocks)
	assert.Equal(t, uint32(0), got.Feature)
	assert.Equal(t, sb.VolumeUUID, got.VolumeUUID)
}

func TestReadRejectsBadMagic(t *testing.T) {
	dev := newTestDevice(t, 10<<20)

	// an all-zero block 1 has no NumbFS magic
	sb, err := Read(dev)
	assert.ErrorIs(t, err, types.ErrCorrupted)
	assert.Nil(t, sb)
}

func TestRegionsShareMirrorCounters(t *testing.T) {
	dev := newTestDevice(t, 10<<20)

	geo, err := geometry.Compute(dev.Size(), 4096)
	require.NoError(t, err)
	sb := New(dev, geo)

	nid, err := sb.AllocInode()
	require.NoError(t, err)
	assert.Equal(t, uint32(0), nid)
	assert.Equal(t, geo.TotalInodes-1, sb.FreeInodes)

	blk, err := sb.AllocBlock()
	require.NoError(t, err)
	assert.Equal(t, uint32(0), blk)
	assert.Equal(t, geo.DataBlocks-1, sb.FreeBlocks)

	require.NoError(t, sb.FreeInode(nid))
	require.NoError(t, sb.FreeBlock(blk))
	assert.Equal(t, geo.TotalInodes, sb.FreeInodes)
	assert.Equal(t, geo.DataBlocks, sb.FreeBlocks)
}

func TestCountersNotReflushedAfterWrite(t *testing.T) {
	dev := newTestDevice(t, 10<<20)

	geo, err := geometry.Compute(dev.Size(), 4096)
	require.NoError(t, err)
	sb := New(dev, geo)
	require.NoError(t, sb.Write())

	// allocations after the format-time write touch only the mirror
	_, err = sb.AllocInode()
	require.NoError(t, err)

	ondisk, err := Read(dev)
	require.NoError(t, err)
	assert.Equal(t, geo.TotalInodes, ondisk.FreeInodes)
	assert.Equal(t, geo.TotalInodes-1, sb.FreeInodes)
}
