package model

import (
	"errors"
	"fmt"
	"time"
)

// ================ Config ================

// SessionConfig controls conversation persistence.
type SessionConfig struct {
	TTL       time.Duration `envconfig:"SESSION_TTL" default:"24h"`
	KeyPrefix string        `envconfig:"SESSION_KEY_PREFIX" default:"conversation"`
	// ContextTurns bounds how many prior utterances feed the classifier.
	ContextTurns int `envconfig:"SESSION_CONTEXT_TURNS" default:"3"`
}

// ProviderDeepSeek and ProviderGemini select the chat-model backend.
const (
	ProviderDeepSeek = "deepseek"
	ProviderGemini   = "gemini"
)

// DeepSeekConfig configures the OpenAI-compatible DeepSeek endpoint.
type DeepSeekConfig struct {
	APIKey  string `envconfig:"DEEPSEEK_API_KEY"`
	BaseURL string `envconfig:"DEEPSEEK_BASE_URL" default:"https://api.deepseek.com/v1"`
	Model   string `envconfig:"DEEPSEEK_MODEL" default:"deepseek-chat"`
}

// GeminiConfig configures the Gemini backend.
type GeminiConfig struct {
	APIKey  string `envconfig:"GEMINI_API_KEY"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`
	Model   string `envconfig:"GEMINI_MODEL" default:"gemini-2.5-flash"`
}

// ChatModelConfig selects and configures the generative-model backend.
type ChatModelConfig struct {
	Provider string        `envconfig:"LLM_PROVIDER" default:"deepseek"`
	Timeout  time.Duration `envconfig:"LLM_TIMEOUT" default:"30s"`
	DeepSeek DeepSeekConfig
	Gemini   GeminiConfig
}

// Validate checks the selected provider has the credentials it needs. The
// health endpoint reuses it as the model dependency check.
func (c ChatModelConfig) Validate() error {
	switch c.Provider {
	case ProviderDeepSeek, "":
		if c.DeepSeek.APIKey == "" {
			return errors.New("deepseek api key is empty")
		}
	case ProviderGemini:
		if c.Gemini.APIKey == "" {
			return errors.New("gemini api key is empty")
		}
	default:
		return fmt.Errorf("unknown llm provider %q", c.Provider)
	}
	return nil
}
