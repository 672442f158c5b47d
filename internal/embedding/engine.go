// Package embedding generates vector embeddings for the semantic document
// index. The default backend is a local Ollama server.
package embedding

import (
	"context"
	"fmt"
)

// Engine generates vector embeddings for text.
type Engine interface {
	// Embed generates the embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, aligned by index.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the dimensionality of the embeddings.
	Dimensions() int

	// Name returns the engine name for logs and health reports.
	Name() string
}

// HealthChecker is an optional interface for engines that can verify the
// backing service is reachable before batch work starts.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Config holds embedding engine configuration.
type Config struct {
	Provider string `envconfig:"EMBEDDING_PROVIDER" default:"ollama"`

	OllamaEndpoint string `envconfig:"OLLAMA_ENDPOINT" default:"http://localhost:11434"`
	OllamaModel    string `envconfig:"OLLAMA_MODEL" default:"embeddinggemma"`
	// Dimensions must match the model; embeddinggemma produces 768.
	Dimensions int `envconfig:"EMBEDDING_DIMENSIONS" default:"768"`
}

// NewEngine creates an embedding engine from configuration.
func NewEngine(cfg Config) (Engine, error) {
	switch cfg.Provider {
	case "ollama":
		return NewOllamaEngine(cfg.OllamaEndpoint, cfg.OllamaModel, cfg.Dimensions)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s (use 'ollama')", cfg.Provider)
	}
}
