package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"twinmem/internal/embedding"
	"twinmem/internal/graph"
	"twinmem/internal/memory"
	"twinmem/internal/model"
	"twinmem/internal/vector"
	"twinmem/pkg/config"
	"twinmem/pkg/logger"
)

// Seeds both stores with a small fixture set through the real ingestion path,
// so the stored data matches production shape exactly.
func main() {
	userID := flag.String("user-id", "demo-user", "User ID to seed data for")
	force := flag.Bool("force", false, "Clear both stores before seeding")
	flag.Parse()

	// Initialize logger
	if err := logger.Init("development"); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting store seeding...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Initialize Neo4j driver
	driver, err := neo4j.NewDriverWithContext(
		cfg.Neo4jURI,
		neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""),
	)
	if err != nil {
		log.Fatal("Failed to create Neo4j driver", zap.Error(err))
	}
	defer driver.Close(context.Background())

	ctx := context.Background()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		log.Fatal("Failed to verify Neo4j connectivity", zap.Error(err))
	}

	graphRepo := graph.NewRepository(driver)
	if err := graphRepo.EnsureConstraints(ctx); err != nil {
		log.Fatal("Failed to ensure graph constraints", zap.Error(err))
	}

	vectorStore, err := vector.NewStore(cfg.PostgresDSN, cfg.EmbeddingDimensions)
	if err != nil {
		log.Fatal("Failed to create vector store", zap.Error(err))
	}
	defer vectorStore.Close()

	if err := vectorStore.EnsureSchema(ctx); err != nil {
		log.Fatal("Failed to ensure vector store schema", zap.Error(err))
	}

	embedder := embedding.NewClient(cfg.EmbeddingBaseURL, cfg.EmbeddingAPIKey, cfg.EmbeddingModel, cfg.EmbeddingDimensions)
	svc := memory.NewService(embedder, graphRepo, vectorStore)

	if *force {
		log.Info("Clearing both stores...")
		if _, err := svc.ClearAll(ctx); err != nil {
			log.Fatal("Failed to clear stores", zap.Error(err))
		}
	}

	fixtures := []model.ChunkInput{
		{
			TextContent: "I prefer concise answers without preamble",
			UserID:      *userID,
			SessionID:   "seed-session-1",
			MessageID:   "seed-msg-1",
			SourceType:  model.SourceTypeMessage,
		},
		{
			TextContent: "My favorite editor is Neovim and I use a dark colorscheme",
			UserID:      *userID,
			SessionID:   "seed-session-1",
			MessageID:   "seed-msg-2",
			SourceType:  model.SourceTypeMessage,
		},
		{
			TextContent:       "Remind me about my dentist appointment on Fridays",
			UserID:            *userID,
			SessionID:         "seed-session-2",
			MessageID:         "seed-msg-3",
			SourceType:        model.SourceTypeMessage,
			IsTwinInteraction: true,
		},
		{
			TextContent: "Quarterly planning doc: ship the retrieval rework by end of Q3",
			UserID:      *userID,
			ProjectID:   "seed-project-1",
			DocumentID:  "seed-doc-1",
			SourceType:  model.SourceTypeDocumentChunk,
		},
	}

	for _, fixture := range fixtures {
		chunkID, err := svc.Ingest(ctx, fixture)
		if err != nil {
			log.Fatal("Failed to ingest fixture", zap.Error(err))
		}
		log.Info("Fixture ingested", zap.String("chunk_id", chunkID))
	}

	log.Info("Seeding complete",
		zap.String("user_id", *userID),
		zap.Int("chunks", len(fixtures)),
	)
}
