package model

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"twinmem/pkg/errors"
)

// SourceType identifies what kind of content a chunk was cut from
type SourceType string

const (
	SourceTypeMessage       SourceType = "message"
	SourceTypeDocumentChunk SourceType = "document_chunk"
	SourceTypeOther         SourceType = "other"
)

// StatementSource tags which store a retrieved statement came from
type StatementSource string

const (
	StatementSourceGraph  StatementSource = "graph"
	StatementSourceVector StatementSource = "vector"
)

// ChunkInput is the caller-facing record handed to the ingestion coordinator.
// Optional fields are pointers or zero values; defaults are resolved by Resolve.
type ChunkInput struct {
	ChunkID           string                 `json:"chunk_id,omitempty"`
	TextContent       string                 `json:"text_content"`
	UserID            string                 `json:"user_id"`
	SourceType        SourceType             `json:"source_type,omitempty"`
	ProjectID         string                 `json:"project_id,omitempty"`
	SessionID         string                 `json:"session_id,omitempty"`
	MessageID         string                 `json:"message_id,omitempty"`
	DocumentID        string                 `json:"document_id,omitempty"`
	Timestamp         time.Time              `json:"timestamp,omitempty"`
	IsTwinInteraction bool                   `json:"is_twin_interaction,omitempty"`
	IsPrivate         *bool                  `json:"is_private,omitempty"`
	Metadata          map[string]interface{} `json:"metadata,omitempty"`
}

// Chunk is the resolved, store-agnostic unit written to both stores
type Chunk struct {
	ChunkID           string                 `json:"chunk_id"`
	TextContent       string                 `json:"text_content"`
	Embedding         []float32              `json:"-"`
	UserID            string                 `json:"user_id"`
	SourceType        SourceType             `json:"source_type"`
	ProjectID         string                 `json:"project_id,omitempty"`
	SessionID         string                 `json:"session_id,omitempty"`
	MessageID         string                 `json:"message_id,omitempty"`
	DocumentID        string                 `json:"document_id,omitempty"`
	Timestamp         time.Time              `json:"timestamp"`
	IsTwinInteraction bool                   `json:"is_twin_interaction"`
	IsPrivate         bool                   `json:"is_private"`
	Metadata          map[string]interface{} `json:"metadata,omitempty"`
}

// Validate checks the required fields before any network call is made
func (in *ChunkInput) Validate() error {
	if strings.TrimSpace(in.TextContent) == "" {
		return errors.NewValidationFailed("text_content", "cannot be empty")
	}
	if strings.TrimSpace(in.UserID) == "" {
		return errors.NewValidationFailed("user_id", "cannot be empty")
	}
	return nil
}

// Resolve applies defaults and produces the chunk to be written.
// chunk_id is generated when absent, timestamp defaults to now, and
// is_private falls back to is_twin_interaction when not set explicitly.
func (in *ChunkInput) Resolve(now time.Time) *Chunk {
	chunkID := strings.TrimSpace(in.ChunkID)
	if chunkID == "" {
		chunkID = uuid.NewString()
	}

	ts := in.Timestamp
	if ts.IsZero() {
		ts = now
	}

	isPrivate := in.IsTwinInteraction
	if in.IsPrivate != nil {
		isPrivate = *in.IsPrivate
	}

	sourceType := in.SourceType
	if sourceType == "" {
		sourceType = SourceTypeMessage
	}

	return &Chunk{
		ChunkID:           chunkID,
		TextContent:       strings.TrimSpace(in.TextContent),
		UserID:            strings.TrimSpace(in.UserID),
		SourceType:        sourceType,
		ProjectID:         in.ProjectID,
		SessionID:         in.SessionID,
		MessageID:         in.MessageID,
		DocumentID:        in.DocumentID,
		Timestamp:         ts,
		IsTwinInteraction: in.IsTwinInteraction,
		IsPrivate:         isPrivate,
		Metadata:          in.Metadata,
	}
}

// PreferenceStatement is a retrieval-time view of a chunk: its text plus the
// provenance tag and, for vector hits, a similarity score.
type PreferenceStatement struct {
	ChunkID   string          `json:"chunk_id"`
	Statement string          `json:"statement"`
	Source    StatementSource `json:"source"`
	Score     float64         `json:"score"`
	Timestamp time.Time       `json:"timestamp,omitempty"`
}

// PreferenceQuery holds the parameters of one preference lookup
type PreferenceQuery struct {
	UserID                  string  `json:"user_id"`
	Topic                   string  `json:"topic"`
	ProjectID               string  `json:"project_id,omitempty"`
	SessionID               string  `json:"session_id,omitempty"`
	Limit                   int     `json:"limit"`
	ScoreThreshold          float64 `json:"score_threshold,omitempty"`
	IncludeTwinInteractions bool    `json:"include_twin_interactions"`
}

// Validate checks the required query fields
func (q *PreferenceQuery) Validate() error {
	if strings.TrimSpace(q.UserID) == "" {
		return errors.NewValidationFailed("user_id", "cannot be empty")
	}
	if strings.TrimSpace(q.Topic) == "" {
		return errors.NewValidationFailed("topic", "cannot be empty")
	}
	return nil
}

// PreferenceResult is the merged answer from both stores
type PreferenceResult struct {
	Statements         []PreferenceStatement `json:"statements"`
	HasPreferences     bool                  `json:"has_preferences"`
	GraphResultsCount  int                   `json:"graph_results_count"`
	VectorResultsCount int                   `json:"vector_results_count"`
}

// StoreOutcome is the per-store sub-result of a bulk operation
type StoreOutcome struct {
	Store   string `json:"store"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// ClearResult reports the outcome of clearing both stores
type ClearResult struct {
	Graph  StoreOutcome `json:"graph"`
	Vector StoreOutcome `json:"vector"`
}

// DocumentMetadataUpdate carries a post-hoc update to an owning document
type DocumentMetadataUpdate struct {
	SourceURI string                 `json:"source_uri,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}
