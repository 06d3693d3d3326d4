package vector

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"

	"twinmem/internal/model"
	"twinmem/pkg/errors"
	"twinmem/pkg/logger"
)

// Store is the pgvector-backed similarity store. One Store wraps one shared
// connection pool and is safe for concurrent use.
type Store struct {
	db         *sqlx.DB
	dimensions int
	logger     *zap.Logger
}

// NewStore opens the Postgres connection pool
func NewStore(dsn string, dimensions int) (*Store, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, errors.NewVectorStoreFailed("connect", "", err)
	}
	return &Store{
		db:         db,
		dimensions: dimensions,
		logger:     logger.Get(),
	}, nil
}

// NewStoreWithDB wraps an existing connection pool, mainly for tests
func NewStoreWithDB(db *sqlx.DB, dimensions int) *Store {
	return &Store{
		db:         db,
		dimensions: dimensions,
		logger:     logger.Get(),
	}
}

// Close closes the connection pool
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies connectivity
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return errors.NewVectorStoreFailed("ping", "", err)
	}
	return nil
}

// EnsureSchema creates the chunk table and the cosine index if missing.
// The vector column width is fixed at client construction time.
func (s *Store) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS memory_chunks (
				chunk_id            TEXT PRIMARY KEY,
				user_id             TEXT NOT NULL,
				text_content        TEXT NOT NULL,
				embedding           vector(%d) NOT NULL,
				source_type         TEXT NOT NULL,
				project_id          TEXT,
				session_id          TEXT,
				message_id          TEXT,
				document_id         TEXT,
				ts                  TIMESTAMPTZ NOT NULL,
				is_twin_interaction BOOLEAN NOT NULL DEFAULT FALSE,
				is_private          BOOLEAN NOT NULL DEFAULT FALSE,
				metadata            JSONB
			)`, s.dimensions),
		`CREATE INDEX IF NOT EXISTS memory_chunks_user_idx ON memory_chunks (user_id)`,
		`CREATE INDEX IF NOT EXISTS memory_chunks_embedding_idx
			ON memory_chunks USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return errors.NewVectorStoreFailed("ensure_schema", "", err)
		}
	}

	s.logger.Info("Vector store schema ensured", zap.Int("dimensions", s.dimensions))
	return nil
}

// UpsertChunk writes one chunk record keyed by chunk_id. Re-ingesting the
// same chunk_id replaces the row instead of inserting a duplicate.
func (s *Store) UpsertChunk(ctx context.Context, chunk *model.Chunk) error {
	const query = `
		INSERT INTO memory_chunks (
			chunk_id, user_id, text_content, embedding, source_type,
			project_id, session_id, message_id, document_id, ts,
			is_twin_interaction, is_private, metadata
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (chunk_id) DO UPDATE SET
			user_id             = EXCLUDED.user_id,
			text_content        = EXCLUDED.text_content,
			embedding           = EXCLUDED.embedding,
			source_type         = EXCLUDED.source_type,
			project_id          = EXCLUDED.project_id,
			session_id          = EXCLUDED.session_id,
			message_id          = EXCLUDED.message_id,
			document_id         = EXCLUDED.document_id,
			ts                  = EXCLUDED.ts,
			is_twin_interaction = EXCLUDED.is_twin_interaction,
			is_private          = EXCLUDED.is_private,
			metadata            = EXCLUDED.metadata
	`

	var metadata interface{}
	if len(chunk.Metadata) > 0 {
		blob, err := json.Marshal(chunk.Metadata)
		if err != nil {
			return errors.NewVectorStoreFailed("upsert_chunk", chunk.ChunkID, err)
		}
		metadata = blob
	}

	_, err := s.db.ExecContext(ctx, query,
		chunk.ChunkID,
		chunk.UserID,
		chunk.TextContent,
		pgvector.NewVector(chunk.Embedding),
		string(chunk.SourceType),
		nullable(chunk.ProjectID),
		nullable(chunk.SessionID),
		nullable(chunk.MessageID),
		nullable(chunk.DocumentID),
		chunk.Timestamp,
		chunk.IsTwinInteraction,
		chunk.IsPrivate,
		metadata,
	)
	if err != nil {
		return errors.NewVectorStoreFailed("upsert_chunk", chunk.ChunkID, err)
	}

	s.logger.Debug("Chunk upserted into vector store", zap.String("chunk_id", chunk.ChunkID))
	return nil
}

// Search runs a filtered cosine similarity search. Scores are cosine
// similarity in [0,1]; rows below the threshold are cut in SQL, as is the
// twin-interaction filter, so per-source counts need no post-hoc fixing.
func (s *Store) Search(ctx context.Context, q model.PreferenceQuery, embedding []float32) ([]model.PreferenceStatement, error) {
	limit := q.Limit
	if limit < 1 {
		limit = 10
	}

	conditions := []string{"user_id = $2"}
	args := []interface{}{pgvector.NewVector(embedding), q.UserID}

	if q.ProjectID != "" {
		args = append(args, q.ProjectID)
		conditions = append(conditions, fmt.Sprintf("project_id = $%d", len(args)))
	}
	if q.SessionID != "" {
		args = append(args, q.SessionID)
		conditions = append(conditions, fmt.Sprintf("session_id = $%d", len(args)))
	}
	if !q.IncludeTwinInteractions {
		conditions = append(conditions, "is_twin_interaction = FALSE")
	}
	if q.ScoreThreshold > 0 {
		args = append(args, q.ScoreThreshold)
		conditions = append(conditions, fmt.Sprintf("1 - (embedding <=> $1) >= $%d", len(args)))
	}

	args = append(args, limit)
	query := fmt.Sprintf(`
		SELECT chunk_id, text_content, 1 - (embedding <=> $1) AS score, ts
		FROM memory_chunks
		WHERE %s
		ORDER BY embedding <=> $1
		LIMIT $%d
	`, strings.Join(conditions, " AND "), len(args))

	var rows []searchRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.NewVectorStoreFailed("search", q.UserID, err)
	}

	statements := make([]model.PreferenceStatement, 0, len(rows))
	for _, row := range rows {
		statements = append(statements, model.PreferenceStatement{
			ChunkID:   row.ChunkID,
			Statement: row.TextContent,
			Source:    model.StatementSourceVector,
			Score:     row.Score,
			Timestamp: row.Timestamp,
		})
	}

	return statements, nil
}

// ClearAll deletes every chunk record
func (s *Store) ClearAll(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `TRUNCATE memory_chunks`); err != nil {
		return errors.NewVectorStoreFailed("clear_all", "", err)
	}
	s.logger.Info("Vector store cleared")
	return nil
}

// CountByUser returns how many chunks a user has stored
func (s *Store) CountByUser(ctx context.Context, userID string) (int64, error) {
	var n int64
	if err := s.db.GetContext(ctx, &n, `SELECT count(*) FROM memory_chunks WHERE user_id = $1`, userID); err != nil {
		return 0, errors.NewVectorStoreFailed("count_by_user", userID, err)
	}
	return n, nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
