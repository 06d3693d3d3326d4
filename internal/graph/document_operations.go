package graph

import (
	"context"
	"encoding/json"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"twinmem/internal/model"
	"twinmem/pkg/errors"
)

// ============================================================================
// Document Operations
// ============================================================================

// UpdateDocumentMetadata applies a post-hoc update to an owning document,
// e.g. once a transcript finalizes. Returns false without an error when the
// document does not exist, so callers can tell "not found" from store failure.
func (r *Repository) UpdateDocumentMetadata(ctx context.Context, documentID string, update model.DocumentMetadataUpdate) (bool, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	params := map[string]interface{}{
		"documentID": documentID,
	}

	setClause := ""
	if update.SourceURI != "" {
		params["sourceURI"] = update.SourceURI
		setClause += "SET d.source_uri = $sourceURI\n"
	}
	if len(update.Metadata) > 0 {
		blob, err := json.Marshal(update.Metadata)
		if err != nil {
			return false, errors.NewGraphStoreFailed("update_document_metadata", documentID, err)
		}
		params["metadata"] = string(blob)
		setClause += "SET d.metadata = $metadata\n"
	}

	query := `
		MATCH (d:Document {document_id: $documentID})
	` + setClause + `
		RETURN count(d) as updated
	`

	result, err := session.Run(ctx, query, params)
	if err != nil {
		return false, errors.NewGraphStoreFailed("update_document_metadata", documentID, err)
	}

	record, err := result.Single(ctx)
	if err != nil {
		return false, errors.NewGraphStoreFailed("update_document_metadata", documentID, err)
	}

	if getInt64FromRecord(record, "updated") == 0 {
		return false, nil
	}

	r.logger.Info("Document metadata updated", zap.String("document_id", documentID))
	return true, nil
}
