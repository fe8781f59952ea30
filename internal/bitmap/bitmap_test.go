package bitmap

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/numbfs/go-numbfs/internal/device"
	"github.com/numbfs/go-numbfs/internal/types"
)

// newTestRegion builds a bitmap region starting at block 0 of a sparse
// image (bits read as zero), with its free counter matching the unit
// count.
func newTestRegion(t *testing.T, units uint32) (Region, *uint32) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bitmap.img")
	file, err := os.Create(path)
	require.NoError(t, err)

	blocks := int64((units + types.BitsPerBlock - 1) / types.BitsPerBlock)
	require.NoError(t, file.Truncate(blocks*types.BlockSize))
	require.NoError(t, file.Close())

	dev, err := device.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { dev.Close() })

	free := units
	return Region{Dev: dev, Start: 0, Units: units, FreeCount: &free}, &free
}

func TestFirstFitDeterminism(t *testing.T) {
	region, _ := newTestRegion(t, 100)

	// an empty bitmap hands out ascending indices
	for want := uint32(0); want < 10; want++ {
		got, err := region.Allocate()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	// the lowest freed index is reused first
	require.NoError(t, region.Free(3))
	require.NoError(t, region.Free(7))

	got, err := region.Allocate()
	require.NoError(t, err)
	assert.Equal(t, uint32(3), got)
}

func TestAllocFreeRoundTrip(t *testing.T) {
	const n = 20
	region, free := newTestRegion(t, 64)

	checkCounter := func() {
		used, err := region.Popcount()
		require.NoError(t, err)
		assert.Equal(t, region.Units-used, *free,
			"free counter must equal unit count minus bitmap population")
	}

	units := make([]uint32, 0, n)
	for i := 0; i < n; i++ {
		unit, err := region.Allocate()
		require.NoError(t, err)
		units = append(units, unit)
		checkCounter()
	}

	rand.Shuffle(len(units), func(i, j int) {
		units[i], units[j] = units[j], units[i]
	})
	for _, unit := range units {
		require.NoError(t, region.Free(unit))
		checkCounter()
	}

	assert.Equal(t, region.Units, *free)
}

func TestAllocationCrossesBitmapBlocks(t *testing.T) {
	region, _ := newTestRegion(t, types.BitsPerBlock+16)

	for i := uint32(0); i < types.BitsPerBlock+16; i++ {
		got, err := region.Allocate()
		require.NoError(t, err)
		require.Equal(t, i, got)
	}

	// unit indices past the first bitmap block land in the second
	require.NoError(t, region.Free(types.BitsPerBlock+3))
	got, err := region.Allocate()
	require.NoError(t, err)
	assert.Equal(t, uint32(types.BitsPerBlock+3), got)
}

func TestExhaustion(t *testing.T) {
	region, free := newTestRegion(t, 8)

	for i := 0; i < 8; i++ {
		_, err := region.Allocate()
		require.NoError(t, err)
	}

	assert.Equal(t, uint32(0), *free)
	_, err := region.Allocate()
	assert.ErrorIs(t, err, types.ErrNoSpace)
}

func TestFreeOutOfRange(t *testing.T) {
	region, _ := newTestRegion(t, 8)
	assert.ErrorIs(t, region.Free(8), types.ErrInvalid)
	assert.ErrorIs(t, region.Free(1000), types.ErrInvalid)
}

func TestDoubleFreePanics(t *testing.T) {
	region, _ := newTestRegion(t, 8)

	unit, err := region.Allocate()
	require.NoError(t, err)
	require.NoError(t, region.Free(unit))

	assert.Panics(t, func() { _ = region.Free(unit) })
}

func TestDesyncedCounterIsCorruption(t *testing.T) {
	region, _ := newTestRegion(t, 8)

	// every bit set on disk while the counter still claims free units
	buf := make([]byte, types.BlockSize)
	buf[0] = 0xFF
	require.NoError(t, region.Dev.WriteBlock(0, buf))

	_, err := region.Allocate()
	assert.ErrorIs(t, err, types.ErrCorrupted)
}

func TestPopcountIgnoresTrailingBits(t *testing.T) {
	region, _ := newTestRegion(t, 12)

	// set bits beyond the unit count; only the first 12 may be counted
	buf := make([]byte, types.BlockSize)
	buf[0] = 0xFF
	buf[1] = 0xFF
	buf[2] = 0xFF
	require.NoError(t, region.Dev.WriteBlock(0, buf))

	used, err := region.Popcount()
	require.NoError(t, err)
	assert.Equal(t, uint32(12), used)
}
