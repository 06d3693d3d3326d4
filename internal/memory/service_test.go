package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"twinmem/internal/model"
	"twinmem/pkg/errors"
)

// Mock implementations for testing

type mockEmbedder struct {
	mu    sync.Mutex
	calls int
	err   error
	vec   []float32
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.vec != nil {
		return m.vec, nil
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func (m *mockEmbedder) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockGraphStore struct {
	mu         sync.Mutex
	chunks     map[string]*model.Chunk
	documents  map[string]bool
	statements []model.PreferenceStatement
	upsertErr  error
	queryErr   error
	clearErr   error
	queryDelay time.Duration
	cleared    bool
}

func newMockGraphStore() *mockGraphStore {
	return &mockGraphStore{
		chunks:    make(map[string]*model.Chunk),
		documents: make(map[string]bool),
	}
}

func (m *mockGraphStore) UpsertChunk(ctx context.Context, chunk *model.Chunk) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chunks[chunk.ChunkID] = chunk
	return nil
}

func (m *mockGraphStore) QueryStatements(ctx context.Context, q model.PreferenceQuery) ([]model.PreferenceStatement, error) {
	if m.queryDelay > 0 {
		select {
		case <-time.After(m.queryDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	return m.statements, nil
}

func (m *mockGraphStore) UpdateDocumentMetadata(ctx context.Context, documentID string, update model.DocumentMetadataUpdate) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.documents[documentID], nil
}

func (m *mockGraphStore) ClearAll(ctx context.Context) error {
	if m.clearErr != nil {
		return m.clearErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleared = true
	m.chunks = make(map[string]*model.Chunk)
	return nil
}

type mockVectorStore struct {
	mu          sync.Mutex
	chunks      map[string]*model.Chunk
	statements  []model.PreferenceStatement
	upsertErr   error
	searchErr   error
	clearErr    error
	searchDelay time.Duration
	cleared     bool
}

func newMockVectorStore() *mockVectorStore {
	return &mockVectorStore{chunks: make(map[string]*model.Chunk)}
}

func (m *mockVectorStore) UpsertChunk(ctx context.Context, chunk *model.Chunk) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chunks[chunk.ChunkID] = chunk
	return nil
}

func (m *mockVectorStore) Search(ctx context.Context, q model.PreferenceQuery, embedding []float32) ([]model.PreferenceStatement, error) {
	if m.searchDelay > 0 {
		select {
		case <-time.After(m.searchDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.statements, nil
}

func (m *mockVectorStore) ClearAll(ctx context.Context) error {
	if m.clearErr != nil {
		return m.clearErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleared = true
	m.chunks = make(map[string]*model.Chunk)
	return nil
}

func newTestService() (*Service, *mockEmbedder, *mockGraphStore, *mockVectorStore) {
	embedder := &mockEmbedder{}
	graph := newMockGraphStore()
	vector := newMockVectorStore()
	return NewService(embedder, graph, vector), embedder, graph, vector
}

// Ingestion tests

func TestIngest_ValidationSkipsNetworkCalls(t *testing.T) {
	svc, embedder, _, _ := newTestService()

	_, err := svc.Ingest(context.Background(), model.ChunkInput{
		TextContent: "   ",
		UserID:      "user-1",
	})
	if err == nil {
		t.Fatal("Expected validation error for empty text_content")
	}
	if !errors.IsValidation(err) {
		t.Errorf("Expected validation error, got %T", err)
	}
	if embedder.callCount() != 0 {
		t.Errorf("Embedder called %d times before validation passed", embedder.callCount())
	}

	_, err = svc.Ingest(context.Background(), model.ChunkInput{
		TextContent: "something",
		UserID:      "",
	})
	if !errors.IsValidation(err) {
		t.Errorf("Expected validation error for empty user_id, got %v", err)
	}
}

func TestIngest_WritesBothStores(t *testing.T) {
	svc, _, graph, vector := newTestService()

	chunkID, err := svc.Ingest(context.Background(), model.ChunkInput{
		TextContent: "I like sailing",
		UserID:      "user-1",
		SessionID:   "session-1",
		MessageID:   "msg-1",
	})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if chunkID == "" {
		t.Fatal("Expected generated chunk_id")
	}
	if graph.chunks[chunkID] == nil {
		t.Error("Chunk missing from graph store")
	}
	if vector.chunks[chunkID] == nil {
		t.Error("Chunk missing from vector store")
	}
	if len(vector.chunks[chunkID].Embedding) == 0 {
		t.Error("Stored chunk has no embedding")
	}
}

func TestIngest_Idempotent(t *testing.T) {
	svc, _, graph, vector := newTestService()

	input := model.ChunkInput{
		ChunkID:     "chunk-42",
		TextContent: "I like sailing",
		UserID:      "user-1",
	}

	first, err := svc.Ingest(context.Background(), input)
	if err != nil {
		t.Fatalf("First ingest failed: %v", err)
	}
	second, err := svc.Ingest(context.Background(), input)
	if err != nil {
		t.Fatalf("Second ingest failed: %v", err)
	}
	if first != second || first != "chunk-42" {
		t.Errorf("Expected stable chunk_id chunk-42, got %s then %s", first, second)
	}
	if len(graph.chunks) != 1 {
		t.Errorf("Expected 1 graph record, got %d", len(graph.chunks))
	}
	if len(vector.chunks) != 1 {
		t.Errorf("Expected 1 vector record, got %d", len(vector.chunks))
	}
}

func TestIngest_PrivacyDefaulting(t *testing.T) {
	svc, _, _, vector := newTestService()

	// is_private absent: defaults to is_twin_interaction
	chunkID, err := svc.Ingest(context.Background(), model.ChunkInput{
		TextContent:       "between me and my twin",
		UserID:            "user-1",
		IsTwinInteraction: true,
	})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if !vector.chunks[chunkID].IsPrivate {
		t.Error("Expected is_private=true by default for twin interaction")
	}

	// explicit is_private=false overrides the default
	explicit := false
	chunkID, err = svc.Ingest(context.Background(), model.ChunkInput{
		TextContent:       "twin but shareable",
		UserID:            "user-1",
		IsTwinInteraction: true,
		IsPrivate:         &explicit,
	})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if vector.chunks[chunkID].IsPrivate {
		t.Error("Explicit is_private=false should override twin default")
	}
}

func TestIngest_EmbeddingFailureWritesNothing(t *testing.T) {
	svc, embedder, graph, vector := newTestService()
	embedder.err = fmt.Errorf("provider down")

	_, err := svc.Ingest(context.Background(), model.ChunkInput{
		TextContent: "text",
		UserID:      "user-1",
	})
	if err == nil {
		t.Fatal("Expected error when embedding fails")
	}
	if len(graph.chunks) != 0 || len(vector.chunks) != 0 {
		t.Error("No store write should happen when embedding fails")
	}
}

func TestIngest_PartialWriteReported(t *testing.T) {
	svc, _, graph, vector := newTestService()
	graph.upsertErr = fmt.Errorf("neo4j unavailable")

	_, err := svc.Ingest(context.Background(), model.ChunkInput{
		ChunkID:     "chunk-7",
		TextContent: "text",
		UserID:      "user-1",
	})
	if err == nil {
		t.Fatal("Expected partial write error")
	}

	pw, ok := err.(*errors.ErrPartialWrite)
	if !ok {
		t.Fatalf("Expected *ErrPartialWrite, got %T", err)
	}
	if pw.ChunkID != "chunk-7" {
		t.Errorf("Partial write error should carry the chunk_id, got %s", pw.ChunkID)
	}
	if pw.FailedStore != errors.StoreGraph || pw.SucceededStore != errors.StoreVector {
		t.Errorf("Expected vector-succeeded/graph-failed, got %s/%s", pw.SucceededStore, pw.FailedStore)
	}
	// The vector half really was written
	if vector.chunks["chunk-7"] == nil {
		t.Error("Vector write should have happened before the graph failure")
	}
}

func TestIngest_VectorFailureIsTotalFailure(t *testing.T) {
	svc, _, graph, vector := newTestService()
	vector.upsertErr = fmt.Errorf("postgres unavailable")

	_, err := svc.Ingest(context.Background(), model.ChunkInput{
		TextContent: "text",
		UserID:      "user-1",
	})
	if err == nil {
		t.Fatal("Expected error when vector write fails")
	}
	if errors.IsPartialWrite(err) {
		t.Error("Vector-first failure leaves no partial state and must not be classified as one")
	}
	if len(graph.chunks) != 0 {
		t.Error("Graph write should not be attempted after vector failure")
	}
}

// Retrieval tests

func graphStatement(chunkID, text string) model.PreferenceStatement {
	return model.PreferenceStatement{ChunkID: chunkID, Statement: text, Source: model.StatementSourceGraph}
}

func vectorStatement(chunkID, text string, score float64) model.PreferenceStatement {
	return model.PreferenceStatement{ChunkID: chunkID, Statement: text, Source: model.StatementSourceVector, Score: score}
}

func TestQueryPreference_MergesBothSources(t *testing.T) {
	svc, _, graph, vector := newTestService()
	graph.statements = []model.PreferenceStatement{graphStatement("g1", "graph stmt")}
	vector.statements = []model.PreferenceStatement{vectorStatement("v1", "vector stmt", 0.9)}

	result, err := svc.QueryPreference(context.Background(), model.PreferenceQuery{
		UserID: "user-1",
		Topic:  "coffee",
		Limit:  10,
	})
	if err != nil {
		t.Fatalf("QueryPreference failed: %v", err)
	}
	if len(result.Statements) != 2 {
		t.Fatalf("Expected 2 statements, got %d", len(result.Statements))
	}
	if result.GraphResultsCount != 1 || result.VectorResultsCount != 1 {
		t.Errorf("Expected per-source counts 1/1, got %d/%d", result.GraphResultsCount, result.VectorResultsCount)
	}
	if !result.HasPreferences {
		t.Error("HasPreferences should be true")
	}
	// Scored vector hit outranks the unscored graph entry
	if result.Statements[0].ChunkID != "v1" {
		t.Errorf("Expected scored vector statement first, got %s", result.Statements[0].ChunkID)
	}
}

func TestQueryPreference_DedupGraphWins(t *testing.T) {
	svc, _, graph, vector := newTestService()
	graph.statements = []model.PreferenceStatement{graphStatement("shared", "from graph")}
	vector.statements = []model.PreferenceStatement{vectorStatement("shared", "from vector", 0.95)}

	result, err := svc.QueryPreference(context.Background(), model.PreferenceQuery{
		UserID: "user-1",
		Topic:  "coffee",
		Limit:  10,
	})
	if err != nil {
		t.Fatalf("QueryPreference failed: %v", err)
	}
	if len(result.Statements) != 1 {
		t.Fatalf("Expected 1 deduplicated statement, got %d", len(result.Statements))
	}
	if result.Statements[0].Source != model.StatementSourceGraph {
		t.Errorf("Expected graph to win on duplicate chunk_id, got source %s", result.Statements[0].Source)
	}
	if result.Statements[0].Statement != "from graph" {
		t.Errorf("Expected graph statement text, got %q", result.Statements[0].Statement)
	}
}

func TestQueryPreference_GracefulGraphDegradation(t *testing.T) {
	svc, _, graph, vector := newTestService()
	graph.queryErr = fmt.Errorf("neo4j down")
	vector.statements = []model.PreferenceStatement{
		vectorStatement("v1", "a", 0.9),
		vectorStatement("v2", "b", 0.8),
		vectorStatement("v3", "c", 0.7),
	}

	result, err := svc.QueryPreference(context.Background(), model.PreferenceQuery{
		UserID: "user-1",
		Topic:  "coffee",
		Limit:  10,
	})
	if err != nil {
		t.Fatalf("Single-source failure must not raise, got %v", err)
	}
	if len(result.Statements) != 3 {
		t.Fatalf("Expected exactly the 3 vector results, got %d", len(result.Statements))
	}
	if result.GraphResultsCount != 0 {
		t.Errorf("Expected graph_results_count=0, got %d", result.GraphResultsCount)
	}
	if !result.HasPreferences {
		t.Error("HasPreferences should be true with vector results present")
	}
}

func TestQueryPreference_EmbeddingFailureDegradesToGraph(t *testing.T) {
	svc, embedder, graph, _ := newTestService()
	embedder.err = fmt.Errorf("provider down")
	graph.statements = []model.PreferenceStatement{graphStatement("g1", "graph stmt")}

	result, err := svc.QueryPreference(context.Background(), model.PreferenceQuery{
		UserID: "user-1",
		Topic:  "coffee",
		Limit:  10,
	})
	if err != nil {
		t.Fatalf("Graph source alone should still answer, got %v", err)
	}
	if result.VectorResultsCount != 0 {
		t.Errorf("Expected vector_results_count=0, got %d", result.VectorResultsCount)
	}
	if len(result.Statements) != 1 {
		t.Errorf("Expected 1 graph statement, got %d", len(result.Statements))
	}
}

func TestQueryPreference_TwoSourceFailure(t *testing.T) {
	svc, _, graph, vector := newTestService()
	graph.queryErr = fmt.Errorf("neo4j down")
	vector.searchErr = fmt.Errorf("postgres down")

	_, err := svc.QueryPreference(context.Background(), model.PreferenceQuery{
		UserID: "user-1",
		Topic:  "coffee",
		Limit:  10,
	})
	if err == nil {
		t.Fatal("Expected two-source failure error")
	}
	if _, ok := err.(*errors.ErrTwoSourceFailure); !ok {
		t.Errorf("Expected *ErrTwoSourceFailure, got %T", err)
	}
}

func TestQueryPreference_EmptyIsNotAnError(t *testing.T) {
	svc, _, _, _ := newTestService()

	result, err := svc.QueryPreference(context.Background(), model.PreferenceQuery{
		UserID: "user-1",
		Topic:  "coffee",
		Limit:  10,
	})
	if err != nil {
		t.Fatalf("Empty results from healthy sources must not raise, got %v", err)
	}
	if result.HasPreferences {
		t.Error("HasPreferences should be false for an empty result")
	}
	if len(result.Statements) != 0 {
		t.Errorf("Expected no statements, got %d", len(result.Statements))
	}
}

func TestQueryPreference_Truncation(t *testing.T) {
	svc, _, graph, vector := newTestService()
	graph.statements = []model.PreferenceStatement{
		graphStatement("g1", "a"),
		graphStatement("g2", "b"),
		graphStatement("g3", "c"),
	}
	vector.statements = []model.PreferenceStatement{
		vectorStatement("v1", "d", 0.9),
		vectorStatement("v2", "e", 0.8),
		vectorStatement("v3", "f", 0.7),
		vectorStatement("v4", "g", 0.6),
		vectorStatement("v5", "h", 0.5),
	}

	result, err := svc.QueryPreference(context.Background(), model.PreferenceQuery{
		UserID: "user-1",
		Topic:  "coffee",
		Limit:  5,
	})
	if err != nil {
		t.Fatalf("QueryPreference failed: %v", err)
	}
	if len(result.Statements) != 5 {
		t.Fatalf("Expected list truncated to 5, got %d", len(result.Statements))
	}
	// The 5 highest-scoring of the 8 unique entries are the scored vector hits
	for i, want := range []string{"v1", "v2", "v3", "v4", "v5"} {
		if result.Statements[i].ChunkID != want {
			t.Errorf("Position %d: expected %s, got %s", i, want, result.Statements[i].ChunkID)
		}
	}
	// Raw counts are pre-truncation
	if result.GraphResultsCount != 3 || result.VectorResultsCount != 5 {
		t.Errorf("Expected raw counts 3/5, got %d/%d", result.GraphResultsCount, result.VectorResultsCount)
	}
}

func TestQueryPreference_ConcurrentFanOut(t *testing.T) {
	svc, _, graph, vector := newTestService()
	graph.queryDelay = 60 * time.Millisecond
	vector.searchDelay = 60 * time.Millisecond

	start := time.Now()
	_, err := svc.QueryPreference(context.Background(), model.PreferenceQuery{
		UserID: "user-1",
		Topic:  "coffee",
		Limit:  10,
	})
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("QueryPreference failed: %v", err)
	}
	// Sequential execution would take >= 120ms
	if elapsed >= 110*time.Millisecond {
		t.Errorf("Retrieval latency %v suggests sequential source queries", elapsed)
	}
}

// Bulk management tests

func TestClearAll_BothAttemptedOnFailure(t *testing.T) {
	svc, _, graph, vector := newTestService()
	graph.clearErr = fmt.Errorf("neo4j down")

	result, err := svc.ClearAll(context.Background())
	if err == nil {
		t.Fatal("Expected error when graph clear fails")
	}
	cf, ok := err.(*errors.ErrStoreClearFailed)
	if !ok {
		t.Fatalf("Expected *ErrStoreClearFailed, got %T", err)
	}
	if len(cf.FailedStores) != 1 || cf.FailedStores[0] != errors.StoreGraph {
		t.Errorf("Expected failed store [graph], got %v", cf.FailedStores)
	}
	if !vector.cleared {
		t.Error("Vector clear should be attempted despite graph failure")
	}
	if result.Graph.Success || !result.Vector.Success {
		t.Errorf("Sub-results wrong: graph=%+v vector=%+v", result.Graph, result.Vector)
	}
}

func TestClearAll_Success(t *testing.T) {
	svc, _, graph, vector := newTestService()

	result, err := svc.ClearAll(context.Background())
	if err != nil {
		t.Fatalf("ClearAll failed: %v", err)
	}
	if !graph.cleared || !vector.cleared {
		t.Error("Both stores should be cleared")
	}
	if !result.Graph.Success || !result.Vector.Success {
		t.Error("Both sub-results should report success")
	}
}

func TestUpdateDocumentMetadata_NotFound(t *testing.T) {
	svc, _, graph, _ := newTestService()
	graph.documents["doc-1"] = true

	found, err := svc.UpdateDocumentMetadata(context.Background(), "doc-1", model.DocumentMetadataUpdate{SourceURI: "s3://x"})
	if err != nil || !found {
		t.Errorf("Expected found=true for existing doc, got %v/%v", found, err)
	}

	found, err = svc.UpdateDocumentMetadata(context.Background(), "no-such-doc", model.DocumentMetadataUpdate{SourceURI: "s3://x"})
	if err != nil {
		t.Fatalf("Not-found must not be an error, got %v", err)
	}
	if found {
		t.Error("Expected found=false for nonexistent doc")
	}
}
