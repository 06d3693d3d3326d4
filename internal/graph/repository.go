package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"twinmem/pkg/logger"
)

// Repository handles all Neo4j database operations
type Repository struct {
	driver neo4j.DriverWithContext
	logger *zap.Logger
}

// NewRepository creates a new graph repository
func NewRepository(driver neo4j.DriverWithContext) *Repository {
	return &Repository{
		driver: driver,
		logger: logger.Get(),
	}
}

// Close closes the Neo4j driver connection
func (r *Repository) Close() error {
	return r.driver.Close(context.Background())
}

// uniqueKeyConstraints maps node labels to their natural unique key property.
// Repeated ingestion MERGEs on these keys, so upserts never duplicate nodes.
var uniqueKeyConstraints = map[string]string{
	"User":     "user_id",
	"Session":  "session_id",
	"Project":  "project_id",
	"Message":  "message_id",
	"Document": "document_id",
	"Chunk":    "chunk_id",
}

// EnsureConstraints creates the per-label unique key constraints if missing
func (r *Repository) EnsureConstraints(ctx context.Context) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	for label, key := range uniqueKeyConstraints {
		query := fmt.Sprintf(
			"CREATE CONSTRAINT %s_%s_unique IF NOT EXISTS FOR (n:%s) REQUIRE n.%s IS UNIQUE",
			label, key, label, key,
		)
		if _, err := session.Run(ctx, query, nil); err != nil {
			return fmt.Errorf("failed to create constraint for %s.%s: %w", label, key, err)
		}
	}

	r.logger.Info("Graph constraints ensured", zap.Int("count", len(uniqueKeyConstraints)))
	return nil
}
