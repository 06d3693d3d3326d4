package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"twinmem/internal/model"
	"twinmem/pkg/errors"
)

// ============================================================================
// Preference Search Operations
// ============================================================================

// QueryStatements finds chunks linked to a user by relationship traversal that
// mention the topic. Chunks are reached through both containers: messages the
// user authored and documents the user owns. The twin-interaction filter is
// part of the query itself so per-source counts stay honest.
func (r *Repository) QueryStatements(ctx context.Context, q model.PreferenceQuery) ([]model.PreferenceStatement, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	limit := q.Limit
	if limit < 1 {
		limit = 10
	}

	params := map[string]interface{}{
		"userID": q.UserID,
		"topic":  q.Topic,
	}
	if q.SessionID != "" {
		params["sessionID"] = q.SessionID
	}
	if q.ProjectID != "" {
		params["projectID"] = q.ProjectID
	}

	query := fmt.Sprintf(`
		MATCH (u:User {user_id: $userID})
		OPTIONAL MATCH (u)-[:AUTHORED]->(:Message)<-[:PART_OF]-(mc:Chunk)
		WHERE %s
		WITH collect(DISTINCT {chunk_id: mc.chunk_id, text: mc.text_content, ts: mc.timestamp}) as fromMessages
		OPTIONAL MATCH (dc:Chunk)-[:PART_OF]->(:Document {user_id: $userID})
		WHERE %s
		WITH fromMessages, collect(DISTINCT {chunk_id: dc.chunk_id, text: dc.text_content, ts: dc.timestamp}) as fromDocuments
		RETURN fromMessages + fromDocuments as results
	`, chunkFilter("mc", q), chunkFilter("dc", q))

	result, err := session.Run(ctx, query, params)
	if err != nil {
		return nil, errors.NewGraphStoreFailed("query_statements", q.UserID, err)
	}

	var statements []model.PreferenceStatement
	seen := make(map[string]bool)

	if result.Next(ctx) {
		record := result.Record()
		if resultList, ok := record.Get("results"); ok {
			if items, ok := resultList.([]interface{}); ok {
				for _, item := range items {
					m, ok := item.(map[string]interface{})
					if !ok {
						continue
					}
					chunkID := getStringFromMap(m, "chunk_id", "")
					text := getStringFromMap(m, "text", "")
					if chunkID == "" || text == "" || seen[chunkID] {
						continue
					}
					seen[chunkID] = true
					statements = append(statements, model.PreferenceStatement{
						ChunkID:   chunkID,
						Statement: text,
						Source:    model.StatementSourceGraph,
						Timestamp: getTimeFromMap(m, "ts"),
					})
				}
			}
		}
	}
	if err := result.Err(); err != nil {
		return nil, errors.NewGraphStoreFailed("query_statements", q.UserID, err)
	}

	if len(statements) > limit {
		statements = statements[:limit]
	}

	return statements, nil
}

// chunkFilter renders the WHERE clause for a chunk alias in the traversal query
func chunkFilter(alias string, q model.PreferenceQuery) string {
	conditions := []string{
		fmt.Sprintf("toLower(%s.text_content) CONTAINS toLower($topic)", alias),
	}
	if !q.IncludeTwinInteractions {
		conditions = append(conditions, fmt.Sprintf("%s.is_twin_interaction = false", alias))
	}
	if q.SessionID != "" {
		conditions = append(conditions, fmt.Sprintf("%s.session_id = $sessionID", alias))
	}
	if q.ProjectID != "" {
		conditions = append(conditions, fmt.Sprintf("%s.project_id = $projectID", alias))
	}
	return strings.Join(conditions, " AND ")
}
