package graph

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"twinmem/internal/model"
	"twinmem/pkg/errors"
)

// ============================================================================
// Chunk Upsert Operations
// ============================================================================

// UpsertChunk writes the chunk and its surrounding nodes into the graph.
// Every node is MERGEd on its natural unique key, so re-ingesting the same
// chunk_id is a no-op structurally and only refreshes properties.
func (r *Repository) UpsertChunk(ctx context.Context, chunk *model.Chunk) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	var parts []string
	params := map[string]interface{}{
		"userID":            chunk.UserID,
		"chunkID":           chunk.ChunkID,
		"textContent":       chunk.TextContent,
		"sourceType":        string(chunk.SourceType),
		"timestamp":         chunk.Timestamp.UTC().Format(time.RFC3339),
		"isTwinInteraction": chunk.IsTwinInteraction,
		"isPrivate":         chunk.IsPrivate,
	}

	parts = append(parts, "MERGE (u:User {user_id: $userID})")

	if chunk.SessionID != "" {
		params["sessionID"] = chunk.SessionID
		parts = append(parts,
			"MERGE (s:Session {session_id: $sessionID})",
			"MERGE (u)-[:PARTICIPATED_IN]->(s)",
		)
	}

	if chunk.ProjectID != "" {
		params["projectID"] = chunk.ProjectID
		parts = append(parts,
			"MERGE (p:Project {project_id: $projectID})",
			"MERGE (u)-[:PARTICIPATED_IN]->(p)",
		)
	}

	if chunk.MessageID != "" {
		params["messageID"] = chunk.MessageID
		parts = append(parts,
			"MERGE (m:Message {message_id: $messageID})",
			"MERGE (u)-[:AUTHORED]->(m)",
		)
		if chunk.SessionID != "" {
			parts = append(parts, "MERGE (m)-[:POSTED_IN]->(s)")
		}
	}

	if chunk.DocumentID != "" {
		params["documentID"] = chunk.DocumentID
		parts = append(parts,
			"MERGE (d:Document {document_id: $documentID})",
			"SET d.user_id = $userID",
		)
	}

	parts = append(parts,
		"MERGE (c:Chunk {chunk_id: $chunkID})",
		`SET c.text_content = $textContent,
		    c.user_id = $userID,
		    c.source_type = $sourceType,
		    c.timestamp = datetime($timestamp),
		    c.is_twin_interaction = $isTwinInteraction,
		    c.is_private = $isPrivate`,
	)

	if chunk.SessionID != "" {
		parts = append(parts, "SET c.session_id = $sessionID")
	}
	if chunk.ProjectID != "" {
		parts = append(parts, "SET c.project_id = $projectID")
	}
	if len(chunk.Metadata) > 0 {
		blob, err := json.Marshal(chunk.Metadata)
		if err != nil {
			return errors.NewGraphStoreFailed("upsert_chunk", chunk.ChunkID, err)
		}
		params["metadata"] = string(blob)
		parts = append(parts, "SET c.metadata = $metadata")
	}

	// Attach the chunk to its container, message taking precedence
	if chunk.MessageID != "" {
		parts = append(parts, "MERGE (c)-[:PART_OF]->(m)")
	} else if chunk.DocumentID != "" {
		parts = append(parts, "MERGE (c)-[:PART_OF]->(d)")
	}

	parts = append(parts, "RETURN c.chunk_id as chunk_id")

	query := strings.Join(parts, "\n")
	result, err := session.Run(ctx, query, params)
	if err != nil {
		return errors.NewGraphStoreFailed("upsert_chunk", chunk.ChunkID, err)
	}
	if _, err := result.Single(ctx); err != nil {
		return errors.NewGraphStoreFailed("upsert_chunk", chunk.ChunkID, err)
	}

	r.logger.Debug("Chunk upserted into graph",
		zap.String("chunk_id", chunk.ChunkID),
		zap.String("user_id", chunk.UserID),
	)
	return nil
}
