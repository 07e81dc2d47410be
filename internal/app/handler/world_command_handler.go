package handler

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/danghamo/mlg/internal/app/command"
	"github.com/danghamo/mlg/internal/domain/shared"
	"github.com/danghamo/mlg/internal/world"
	"github.com/danghamo/mlg/pkg/logger"
)

// WorldEditor is the part of a world session the handlers drive.
// *world.Session implements it.
type WorldEditor interface {
	SetSpawnChunk(chunk shared.ChunkPos) error
	SetSpawn(pos shared.BlockPos) error
	Spawn() (shared.BlockPos, error)
	SetForcedChunks(chunks []shared.ChunkPos, dim world.Dimension) error
	ForcedChunks(dim world.Dimension) ([]shared.ChunkPos, error)
	AvailableChunksList(regionX, regionZ int32, dim world.Dimension) []shared.LocalChunkPos
	AvailableWorldChunks(pos shared.RegionPos, dim world.Dimension) []shared.ChunkPos
	LocateChunk(chunk shared.ChunkPos, dim world.Dimension) (world.ChunkInfo, error)
	ResetChanges() error
}

// WorldCommandHandler handles all world-related commands
type WorldCommandHandler struct {
	session WorldEditor
	logger  *logger.Logger
}

// NewWorldCommandHandler creates a new world command handler
func NewWorldCommandHandler(session WorldEditor, log *logger.Logger) *WorldCommandHandler {
	return &WorldCommandHandler{
		session: session,
		logger:  log.WithComponent("world-command-handler"),
	}
}

// Handle handles world commands
func (h *WorldCommandHandler) Handle(ctx context.Context, cmd command.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	h.logger.Debug("Handling command",
		zap.String("command_id", cmd.CommandID()),
		zap.String("command_type", cmd.CommandType()),
	)

	switch c := cmd.(type) {
	case command.SetSpawnChunkCommand:
		return h.handleSetSpawnChunk(c.Chunk)
	case command.SetSpawnCommand:
		return h.handleSetSpawn(c.Position)
	case command.SetForcedChunksCommand:
		return h.handleSetForcedChunks(c)
	case command.ResetChangesCommand:
		return h.handleResetChanges()
	default:
		return fmt.Errorf("unknown command type: %T", cmd)
	}
}

func (h *WorldCommandHandler) handleSetSpawnChunk(chunk shared.ChunkPos) error {
	if err := h.session.SetSpawnChunk(chunk); err != nil {
		h.logger.Error("Failed to set spawn chunk", zap.Stringer("chunk", chunk), zap.Error(err))
		return err
	}
	h.logger.Info("Spawn moved into chunk",
		zap.Stringer("chunk", chunk),
		zap.Stringer("spawn", chunk.SpawnPoint()),
	)
	return nil
}

func (h *WorldCommandHandler) handleSetSpawn(pos shared.BlockPos) error {
	if err := h.session.SetSpawn(pos); err != nil {
		h.logger.Error("Failed to set spawn", zap.Stringer("spawn", pos), zap.Error(err))
		return err
	}
	h.logger.Info("Spawn updated", zap.Stringer("spawn", pos))
	return nil
}

func (h *WorldCommandHandler) handleSetForcedChunks(cmd command.SetForcedChunksCommand) error {
	if err := h.session.SetForcedChunks(cmd.Chunks, cmd.Dimension); err != nil {
		h.logger.Error("Failed to set forced chunks",
			zap.Stringer("dimension", cmd.Dimension),
			zap.Error(err),
		)
		return err
	}
	h.logger.Info("Forced chunks updated",
		zap.Stringer("dimension", cmd.Dimension),
		zap.Int("count", len(cmd.Chunks)),
	)
	return nil
}

func (h *WorldCommandHandler) handleResetChanges() error {
	if err := h.session.ResetChanges(); err != nil {
		return err
	}
	h.logger.Info("World changes reset")
	return nil
}
