package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/numbfs/go-numbfs/internal/types"
)

func TestComputeZoneOrder(t *testing.T) {
	tests := []struct {
		name       string
		deviceSize int64
		inodes     uint32
	}{
		{"1MiB/512 inodes", 1 << 20, 512},
		{"10MiB/4096 inodes", 10 << 20, 4096},
		{"64MiB/8192 inodes", 64 << 20, 8192},
		{"odd size/24 inodes", 3<<20 + 1337, 24},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := Compute(tt.deviceSize, tt.inodes)
			require.NoError(t, err)

			// zone starts strictly increase in the fixed order
			assert.Equal(t, uint32(2), g.IBitmapStart)
			assert.Less(t, g.IBitmapStart, g.InodeStart)
			assert.Less(t, g.InodeStart, g.BBitmapStart)
			assert.Less(t, g.BBitmapStart, g.DataStart)

			// the data zone fits within the device
			assert.LessOrEqual(t, g.DataStart+g.DataBlocks, g.TotalBlocks)
			assert.Greater(t, g.DataBlocks, uint32(0))
			assert.Equal(t, tt.inodes, g.TotalInodes)
		})
	}
}

func TestComputeReferenceLayout(t *testing.T) {
	// 10 MiB image, 4096 inodes: the layout every formatted test image
	// in this repo uses.
	g, err := Compute(10<<20, 4096)
	require.NoError(t, err)

	assert.Equal(t, uint32(20480), g.TotalBlocks)
	assert.Equal(t, uint32(2), g.IBitmapStart)
	assert.Equal(t, uint32(3), g.InodeStart)
	assert.Equal(t, uint32(515), g.BBitmapStart)
	assert.Equal(t, uint32(520), g.DataStart)
	assert.Equal(t, uint32(19959), g.DataBlocks)
}

func TestComputeRejectsBadArguments(t *testing.T) {
	tests := []struct {
		name       string
		deviceSize int64
		inodes     uint32
	}{
		{"zero inodes", 10 << 20, 0},
		{"inodes not multiple of 8", 10 << 20, 4097},
		{"device smaller than metadata", 4 * types.BlockSize, 4096},
		{"no room for data blocks", 517 * types.BlockSize, 4096},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compute(tt.deviceSize, tt.inodes)
			assert.ErrorIs(t, err, types.ErrInvalid)
		})
	}
}

func TestBlockHelpers(t *testing.T) {
	g, err := Compute(10<<20, 4096)
	require.NoError(t, err)

	assert.Equal(t, g.InodeStart, g.InodeBlock(0))
	assert.Equal(t, g.InodeStart, g.InodeBlock(types.InodesPerBlock-1))
	assert.Equal(t, g.InodeStart+1, g.InodeBlock(types.InodesPerBlock))
	assert.Equal(t, g.DataStart+17, g.DataBlock(17))
}
