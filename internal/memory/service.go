package memory

import (
	"context"

	"go.uber.org/zap"

	"twinmem/internal/model"
	"twinmem/pkg/logger"
)

// Embedder turns text into a fixed-length vector
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// GraphStore is the relationship store boundary. Implementations must be
// safe for concurrent use; the process shares one handle across requests.
type GraphStore interface {
	UpsertChunk(ctx context.Context, chunk *model.Chunk) error
	QueryStatements(ctx context.Context, q model.PreferenceQuery) ([]model.PreferenceStatement, error)
	UpdateDocumentMetadata(ctx context.Context, documentID string, update model.DocumentMetadataUpdate) (bool, error)
	ClearAll(ctx context.Context) error
}

// VectorStore is the similarity store boundary
type VectorStore interface {
	UpsertChunk(ctx context.Context, chunk *model.Chunk) error
	Search(ctx context.Context, q model.PreferenceQuery, embedding []float32) ([]model.PreferenceStatement, error)
	ClearAll(ctx context.Context) error
}

// Service coordinates the two stores and the embedding provider. It owns no
// state of its own; every call builds its own accumulator.
type Service struct {
	embedder Embedder
	graph    GraphStore
	vector   VectorStore
	logger   *zap.Logger
}

// NewService creates the coordination service
func NewService(embedder Embedder, graph GraphStore, vector VectorStore) *Service {
	return &Service{
		embedder: embedder,
		graph:    graph,
		vector:   vector,
		logger:   logger.Get(),
	}
}
