package memory

import (
	"context"
	"time"

	"go.uber.org/zap"

	"twinmem/internal/model"
	"twinmem/pkg/errors"
)

// Ingest writes one logical chunk into both stores and returns its chunk_id.
//
// There is no shared transaction across the stores. The protocol is a fixed
// two-stage upsert: vector first, then graph, both keyed by chunk_id. A
// failure after the vector write is reported as a partial-write error naming
// the chunk and the failed half; the caller decides whether to retry, which
// is safe because both stores upsert by key.
func (s *Service) Ingest(ctx context.Context, input model.ChunkInput) (string, error) {
	if err := input.Validate(); err != nil {
		return "", err
	}

	chunk := input.Resolve(time.Now())

	embedding, err := s.embedder.Embed(ctx, chunk.TextContent)
	if err != nil {
		s.logger.Error("Ingestion aborted at embedding stage",
			zap.String("chunk_id", chunk.ChunkID),
			zap.Error(err),
		)
		return "", err
	}
	chunk.Embedding = embedding

	// Once writing starts the call runs to completion; a caller abort here
	// would leave one-sided state with no one left to read the error.
	writeCtx := context.WithoutCancel(ctx)

	if err := s.vector.UpsertChunk(writeCtx, chunk); err != nil {
		s.logger.Error("Vector write failed, no state written",
			zap.String("chunk_id", chunk.ChunkID),
			zap.Error(err),
		)
		return "", err
	}

	if err := s.graph.UpsertChunk(writeCtx, chunk); err != nil {
		s.logger.Error("Graph write failed after vector write succeeded",
			zap.String("chunk_id", chunk.ChunkID),
			zap.Error(err),
		)
		return "", errors.NewPartialWrite(chunk.ChunkID, errors.StoreVector, errors.StoreGraph, err)
	}

	s.logger.Info("Chunk ingested",
		zap.String("chunk_id", chunk.ChunkID),
		zap.String("user_id", chunk.UserID),
		zap.String("source_type", string(chunk.SourceType)),
	)
	return chunk.ChunkID, nil
}
