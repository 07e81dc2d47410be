package query

import (
	"github.com/danghamo/mlg/internal/domain/shared"
	"github.com/danghamo/mlg/internal/world"
)

// World Queries

// AvailableChunksQuery lists the chunks present in one region file. With
// WorldCoordinates set the result holds world chunk positions instead of
// slots local to the region.
type AvailableChunksQuery struct {
	BaseQuery
	Region           shared.RegionPos `json:"region"`
	Dimension        world.Dimension  `json:"dimension"`
	WorldCoordinates bool             `json:"world_coordinates"`
}

// NewAvailableChunksQuery creates a new available chunks query
func NewAvailableChunksQuery(region shared.RegionPos, dim world.Dimension, worldCoords bool) AvailableChunksQuery {
	return AvailableChunksQuery{
		BaseQuery:        NewBaseQuery("AvailableChunks"),
		Region:           region,
		Dimension:        dim,
		WorldCoordinates: worldCoords,
	}
}

// LocateChunkQuery finds the region file and slot of a world chunk
type LocateChunkQuery struct {
	BaseQuery
	Chunk     shared.ChunkPos `json:"chunk"`
	Dimension world.Dimension `json:"dimension"`
}

// NewLocateChunkQuery creates a new locate chunk query
func NewLocateChunkQuery(chunk shared.ChunkPos, dim world.Dimension) LocateChunkQuery {
	return LocateChunkQuery{
		BaseQuery: NewBaseQuery("LocateChunk"),
		Chunk:     chunk,
		Dimension: dim,
	}
}

// GenerateSpawnpointsQuery computes a grid of spawn chunks
type GenerateSpawnpointsQuery struct {
	BaseQuery
	StartX    int `json:"start_x"`
	StartZ    int `json:"start_z"`
	Width     int `json:"width"`
	Height    int `json:"height"`
	Increment int `json:"increment"`
}

// NewGenerateSpawnpointsQuery creates a new spawn grid query
func NewGenerateSpawnpointsQuery(startX, startZ, width, height, increment int) GenerateSpawnpointsQuery {
	return GenerateSpawnpointsQuery{
		BaseQuery: NewBaseQuery("GenerateSpawnpoints"),
		StartX:    startX,
		StartZ:    startZ,
		Width:     width,
		Height:    height,
		Increment: increment,
	}
}

// GetSpawnQuery reads the spawn stored in level.dat
type GetSpawnQuery struct {
	BaseQuery
}

// NewGetSpawnQuery creates a new get spawn query
func NewGetSpawnQuery() GetSpawnQuery {
	return GetSpawnQuery{BaseQuery: NewBaseQuery("GetSpawn")}
}

// GetForcedChunksQuery reads the forced chunks of a dimension
type GetForcedChunksQuery struct {
	BaseQuery
	Dimension world.Dimension `json:"dimension"`
}

// NewGetForcedChunksQuery creates a new get forced chunks query
func NewGetForcedChunksQuery(dim world.Dimension) GetForcedChunksQuery {
	return GetForcedChunksQuery{
		BaseQuery: NewBaseQuery("GetForcedChunks"),
		Dimension: dim,
	}
}
