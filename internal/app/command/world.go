package command

import (
	"github.com/danghamo/mlg/internal/domain/shared"
	"github.com/danghamo/mlg/internal/world"
)

// World Commands

// SetSpawnChunkCommand moves the spawn into a chunk
type SetSpawnChunkCommand struct {
	BaseCommand
	Chunk shared.ChunkPos `json:"chunk"`
}

// NewSetSpawnChunkCommand creates a new set spawn chunk command
func NewSetSpawnChunkCommand(chunk shared.ChunkPos) SetSpawnChunkCommand {
	return SetSpawnChunkCommand{
		BaseCommand: NewBaseCommand("SetSpawnChunk"),
		Chunk:       chunk,
	}
}

// SetSpawnCommand moves the spawn to a block position
type SetSpawnCommand struct {
	BaseCommand
	Position shared.BlockPos `json:"position"`
}

// NewSetSpawnCommand creates a new set spawn command
func NewSetSpawnCommand(pos shared.BlockPos) SetSpawnCommand {
	return SetSpawnCommand{
		BaseCommand: NewBaseCommand("SetSpawn"),
		Position:    pos,
	}
}

// SetForcedChunksCommand replaces the forced chunks of a dimension
type SetForcedChunksCommand struct {
	BaseCommand
	Dimension world.Dimension   `json:"dimension"`
	Chunks    []shared.ChunkPos `json:"chunks"`
}

// NewSetForcedChunksCommand creates a new set forced chunks command
func NewSetForcedChunksCommand(dim world.Dimension, chunks []shared.ChunkPos) SetForcedChunksCommand {
	return SetForcedChunksCommand{
		BaseCommand: NewBaseCommand("SetForcedChunks"),
		Dimension:   dim,
		Chunks:      chunks,
	}
}

// ResetChangesCommand restores every file touched by the session
type ResetChangesCommand struct {
	BaseCommand
}

// NewResetChangesCommand creates a new reset changes command
func NewResetChangesCommand() ResetChangesCommand {
	return ResetChangesCommand{BaseCommand: NewBaseCommand("ResetChanges")}
}
