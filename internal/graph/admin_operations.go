package graph

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"twinmem/pkg/errors"
)

// ============================================================================
// Bulk Admin Operations
// ============================================================================

// clearBatchSize bounds how many nodes each delete transaction touches
const clearBatchSize = 10000

// ClearAll deletes every node and relationship from the graph in batches so
// large datasets do not blow a single transaction.
func (r *Repository) ClearAll(ctx context.Context) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	query := `
		MATCH (n)
		WITH n LIMIT $batchSize
		DETACH DELETE n
		RETURN count(n) as deleted
	`

	total := int64(0)
	for {
		result, err := session.Run(ctx, query, map[string]interface{}{"batchSize": clearBatchSize})
		if err != nil {
			return errors.NewGraphStoreFailed("clear_all", "", err)
		}
		record, err := result.Single(ctx)
		if err != nil {
			return errors.NewGraphStoreFailed("clear_all", "", err)
		}
		deleted := getInt64FromRecord(record, "deleted")
		total += deleted
		if deleted < clearBatchSize {
			break
		}
	}

	r.logger.Info("Graph store cleared", zap.Int64("nodes_deleted", total))
	return nil
}
