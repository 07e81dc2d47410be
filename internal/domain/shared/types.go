package shared

import (
	"fmt"
)

const (
	// ChunkSize is the edge length of a chunk in blocks.
	ChunkSize = 16
	// RegionSize is the edge length of a region in chunks.
	RegionSize = 32
	// RegionSlots is the number of chunk slots in one region file.
	RegionSlots = RegionSize * RegionSize

	// SpawnHeight is the y coordinate used when a spawn is derived from a chunk.
	SpawnHeight = 64
)

// ChunkPos is a chunk coordinate relative to the world origin.
type ChunkPos struct {
	X int32 `json:"x"`
	Z int32 `json:"z"`
}

// NewChunkPos creates a new world chunk position
func NewChunkPos(x, z int32) ChunkPos {
	return ChunkPos{X: x, Z: z}
}

// String returns string representation of position
func (c ChunkPos) String() string {
	return fmt.Sprintf("chunk(%d,%d)", c.X, c.Z)
}

// Pack encodes the position the way chunks.dat stores forced chunks:
// z in the upper 32 bits, x in the lower 32 bits.
func (c ChunkPos) Pack() int64 {
	return int64(c.Z)<<32 | int64(uint32(c.X))
}

// UnpackChunkPos reverses Pack.
func UnpackChunkPos(v int64) ChunkPos {
	return ChunkPos{X: int32(uint32(v)), Z: int32(v >> 32)}
}

// Region returns the region file containing this chunk.
func (c ChunkPos) Region() RegionPos {
	return RegionPos{X: floorDiv(c.X, RegionSize), Z: floorDiv(c.Z, RegionSize)}
}

// Local returns the chunk's slot inside its region file.
func (c ChunkPos) Local() LocalChunkPos {
	return LocalChunkPos{X: int(floorMod(c.X, RegionSize)), Z: int(floorMod(c.Z, RegionSize))}
}

// SpawnPoint returns the block position used as a spawn inside this chunk.
func (c ChunkPos) SpawnPoint() BlockPos {
	return BlockPos{
		X: c.X*ChunkSize + 7,
		Y: SpawnHeight,
		Z: c.Z*ChunkSize + 8,
	}
}

// LocalChunkPos is a chunk slot inside a single region file, both axes in [0,32).
type LocalChunkPos struct {
	X int `json:"x"`
	Z int `json:"z"`
}

// LocalFromIndex maps a header index in [0,1024) to its slot.
func LocalFromIndex(i int) LocalChunkPos {
	return LocalChunkPos{X: i % RegionSize, Z: i / RegionSize}
}

// Index maps the slot to its position in the region header.
func (l LocalChunkPos) Index() int {
	return l.Z*RegionSize + l.X
}

// IsValid reports whether both axes are inside the region grid.
func (l LocalChunkPos) IsValid() bool {
	return l.X >= 0 && l.X < RegionSize && l.Z >= 0 && l.Z < RegionSize
}

// World converts the slot back to a world chunk position within region r.
func (l LocalChunkPos) World(r RegionPos) ChunkPos {
	return ChunkPos{X: r.X*RegionSize + int32(l.X), Z: r.Z*RegionSize + int32(l.Z)}
}

func (l LocalChunkPos) String() string {
	return fmt.Sprintf("local(%d,%d)", l.X, l.Z)
}

// RegionPos identifies a region file in the world grid.
type RegionPos struct {
	X int32 `json:"x"`
	Z int32 `json:"z"`
}

// NewRegionPos creates a new region position
func NewRegionPos(x, z int32) RegionPos {
	return RegionPos{X: x, Z: z}
}

// FileName returns the region file name, e.g. "r.-1.2.mca".
func (r RegionPos) FileName(ext string) string {
	return fmt.Sprintf("r.%d.%d.%s", r.X, r.Z, ext)
}

func (r RegionPos) String() string {
	return fmt.Sprintf("region(%d,%d)", r.X, r.Z)
}

// BlockPos is an absolute block position. Y is height.
type BlockPos struct {
	X int32 `json:"x"`
	Y int32 `json:"y"`
	Z int32 `json:"z"`
}

// NewBlockPos creates a new block position
func NewBlockPos(x, y, z int32) BlockPos {
	return BlockPos{X: x, Y: y, Z: z}
}

func (b BlockPos) String() string {
	return fmt.Sprintf("(%d,%d,%d)", b.X, b.Y, b.Z)
}

func floorDiv(a, b int32) int32 {
	q := a / b
	if r := a % b; r != 0 && (r < 0) != (b < 0) {
		q--
	}
	return q
}

func floorMod(a, b int32) int32 {
	r := a % b
	if r < 0 {
		r += b
	}
	return r
}
