package embedding

import (
	"context"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"twinmem/pkg/errors"
	"twinmem/pkg/logger"
)

// Client wraps an OpenAI-compatible embeddings endpoint. The base URL is
// configurable so a local proxy (LiteLLM etc.) can stand in for the real API.
type Client struct {
	client     *openai.Client
	model      string
	dimensions int
	logger     *zap.Logger
}

// NewClient creates a new embeddings client
func NewClient(baseURL, apiKey, model string, dimensions int) *Client {
	// A dummy key keeps the SDK happy when talking to a keyless local proxy
	if apiKey == "" {
		apiKey = "dummy-key"
	}

	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}

	return &Client{
		client:     openai.NewClientWithConfig(config),
		model:      model,
		dimensions: dimensions,
		logger:     logger.Get(),
	}
}

// Dimensions returns the configured target vector length
func (c *Client) Dimensions() int {
	return c.dimensions
}

// Embed turns one text into a fixed-length vector
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input:      []string{text},
		Model:      openai.EmbeddingModel(c.model),
		Dimensions: c.dimensions,
	})
	if err != nil {
		c.logger.Error("Embedding request failed",
			zap.String("model", c.model),
			zap.Error(err),
		)
		return nil, errors.NewEmbeddingFailed(c.model, err)
	}

	if len(resp.Data) == 0 {
		return nil, errors.NewEmbeddingFailed(c.model, nil)
	}

	vec := resp.Data[0].Embedding
	if c.dimensions > 0 && len(vec) != c.dimensions {
		return nil, errors.NewEmbeddingDimensionMismatch(c.dimensions, len(vec))
	}

	return vec, nil
}
