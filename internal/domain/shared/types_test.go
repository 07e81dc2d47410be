package shared

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkPos_PackRoundTrip(t *testing.T) {
	cases := []ChunkPos{
		{0, 0},
		{1, 0},
		{0, 1},
		{-1, -1},
		{-1, 5},
		{5, -1},
		{math.MaxInt32, math.MinInt32},
		{math.MinInt32, math.MaxInt32},
		{1875000, -1875000},
	}

	for _, c := range cases {
		t.Run(c.String(), func(t *testing.T) {
			assert.Equal(t, c, UnpackChunkPos(c.Pack()))
		})
	}
}

func TestChunkPos_PackLayout(t *testing.T) {
	// z in the high word, x in the low word, x not sign-extended
	assert.Equal(t, int64(5)<<32|3, ChunkPos{X: 3, Z: 5}.Pack())
	assert.Equal(t, int64(0xFFFFFFFF), ChunkPos{X: -1, Z: 0}.Pack())
	assert.Equal(t, int64(-1)<<32|2, ChunkPos{X: 2, Z: -1}.Pack())
}

func TestChunkPos_SpawnPoint(t *testing.T) {
	assert.Equal(t, BlockPos{X: 55, Y: 64, Z: 88}, ChunkPos{X: 3, Z: 5}.SpawnPoint())
	assert.Equal(t, BlockPos{X: -9, Y: 64, Z: -24}, ChunkPos{X: -1, Z: -2}.SpawnPoint())
}

func TestChunkPos_RegionAndLocal(t *testing.T) {
	tests := []struct {
		chunk  ChunkPos
		region RegionPos
		local  LocalChunkPos
	}{
		{ChunkPos{0, 0}, RegionPos{0, 0}, LocalChunkPos{0, 0}},
		{ChunkPos{31, 31}, RegionPos{0, 0}, LocalChunkPos{31, 31}},
		{ChunkPos{32, 0}, RegionPos{1, 0}, LocalChunkPos{0, 0}},
		{ChunkPos{-1, -1}, RegionPos{-1, -1}, LocalChunkPos{31, 31}},
		{ChunkPos{-32, -33}, RegionPos{-1, -2}, LocalChunkPos{0, 31}},
	}

	for _, tt := range tests {
		t.Run(tt.chunk.String(), func(t *testing.T) {
			assert.Equal(t, tt.region, tt.chunk.Region())
			assert.Equal(t, tt.local, tt.chunk.Local())
			assert.Equal(t, tt.chunk, tt.local.World(tt.region))
		})
	}
}

func TestLocalChunkPos_IndexBijection(t *testing.T) {
	seen := make(map[LocalChunkPos]bool, RegionSlots)
	for i := 0; i < RegionSlots; i++ {
		l := LocalFromIndex(i)
		require.True(t, l.IsValid())
		require.False(t, seen[l], "slot %v produced twice", l)
		seen[l] = true
		assert.Equal(t, i, l.Index())
	}
	assert.Equal(t, LocalChunkPos{X: 1, Z: 0}, LocalFromIndex(1))
	assert.Equal(t, LocalChunkPos{X: 0, Z: 1}, LocalFromIndex(32))
}

func TestRegionPos_FileName(t *testing.T) {
	assert.Equal(t, "r.0.0.mca", RegionPos{}.FileName("mca"))
	assert.Equal(t, "r.-1.2.mcr", RegionPos{X: -1, Z: 2}.FileName("mcr"))
}

func TestDomainErrors_MatchSentinels(t *testing.T) {
	cause := errors.New("disk on fire")

	err := ErrIOf(cause, "read", "/tmp/x")
	assert.ErrorIs(t, err, ErrIO)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrInvalidMetadata)

	err = ErrMalformedMetadata(cause, "level.dat")
	assert.ErrorIs(t, err, ErrInvalidMetadata)
	assert.Contains(t, err.Error(), "invalid world-metadata format")

	err = ErrInvalidArgumentf("width %d too small", 3)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Contains(t, err.Error(), "width 3 too small")
}

func TestHasCode(t *testing.T) {
	ioErr := ErrIOf(errors.New("permission denied"), "write", "level.dat")
	conflict := NewDomainErrorf(ErrCodeBackupConflict, "backup %s exists", "level.dat.mlg-backup")
	restore := WrapDomainError(errors.Join(ioErr, conflict), ErrCodeRestoreFailed, "2 of 4 files could not be restored")

	tests := []struct {
		name string
		err  error
		code int
		want bool
	}{
		{"nil", nil, ErrCodeIO, false},
		{"plain error", errors.New("boom"), ErrCodeIO, false},
		{"direct", conflict, ErrCodeBackupConflict, true},
		{"other code", conflict, ErrCodeIO, false},
		{"outer wrapper", restore, ErrCodeRestoreFailed, true},
		{"joined inner io", restore, ErrCodeIO, true},
		{"joined inner conflict", restore, ErrCodeBackupConflict, true},
		{"absent from chain", restore, ErrCodeInvalidMetadata, false},
		{"fmt wrapped", fmt.Errorf("open world: %w", conflict), ErrCodeBackupConflict, true},
		{"unknown code", conflict, 9999, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasCode(tt.err, tt.code))
		})
	}
}
