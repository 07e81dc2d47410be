package handler

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/danghamo/mlg/internal/app/query"
	"github.com/danghamo/mlg/internal/world"
	"github.com/danghamo/mlg/pkg/logger"
)

// WorldQueryHandler handles all world-related queries
type WorldQueryHandler struct {
	session WorldEditor
	logger  *logger.Logger
}

// NewWorldQueryHandler creates a new world query handler. session may be nil
// when only GenerateSpawnpointsQuery is used.
func NewWorldQueryHandler(session WorldEditor, log *logger.Logger) *WorldQueryHandler {
	return &WorldQueryHandler{
		session: session,
		logger:  log.WithComponent("world-query-handler"),
	}
}

// Handle handles world queries
func (h *WorldQueryHandler) Handle(ctx context.Context, q query.Query) (interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	h.logger.Debug("Handling query",
		zap.String("query_id", q.QueryID()),
		zap.String("query_type", q.QueryType()),
	)

	if _, ok := q.(query.GenerateSpawnpointsQuery); !ok && h.session == nil {
		return nil, fmt.Errorf("query %s needs an open world", q.QueryType())
	}

	switch qry := q.(type) {
	case query.GenerateSpawnpointsQuery:
		return world.GenerateSpawnpoints(qry.StartX, qry.StartZ, qry.Width, qry.Height, qry.Increment)
	case query.AvailableChunksQuery:
		if qry.WorldCoordinates {
			return h.session.AvailableWorldChunks(qry.Region, qry.Dimension), nil
		}
		return h.session.AvailableChunksList(qry.Region.X, qry.Region.Z, qry.Dimension), nil
	case query.LocateChunkQuery:
		return h.session.LocateChunk(qry.Chunk, qry.Dimension)
	case query.GetSpawnQuery:
		return h.session.Spawn()
	case query.GetForcedChunksQuery:
		return h.session.ForcedChunks(qry.Dimension)
	default:
		return nil, fmt.Errorf("unknown query type: %T", q)
	}
}
