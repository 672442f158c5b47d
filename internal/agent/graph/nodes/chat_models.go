package nodes

import (
	"context"
	"fmt"
	"net/http"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/openai"
	einomodel "github.com/cloudwego/eino/components/model"
	"google.golang.org/genai"

	"github.com/partpilot/server/internal/agent/model"
	"github.com/partpilot/server/internal/rules"
	logx "github.com/partpilot/server/pkg/logger"
)

// ChatModels holds one configured chat model per pipeline role. All three
// talk to the same provider; they differ only in sampling parameters, since
// classification wants near-deterministic output while the conversational
// reply does not.
type ChatModels struct {
	Classify einomodel.BaseChatModel
	Rank     einomodel.BaseChatModel
	Reply    einomodel.BaseChatModel

	// ModelName is the provider's model id, used for usage pricing.
	ModelName string
}

// NewChatModels creates the role models for the configured provider.
func NewChatModels(ctx context.Context, cfg model.ChatModelConfig, gen rules.Generation) (*ChatModels, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Provider {
	case model.ProviderDeepSeek, "":
		return newDeepSeekModels(ctx, cfg, gen)
	case model.ProviderGemini:
		return newGeminiModels(ctx, cfg, gen)
	}
	return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
}

func newDeepSeekModels(ctx context.Context, cfg model.ChatModelConfig, gen rules.Generation) (*ChatModels, error) {
	build := func(role string, params rules.GenerationParams) (einomodel.BaseChatModel, error) {
		temperature := params.Temperature
		maxTokens := params.MaxTokens
		cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
			APIKey:      cfg.DeepSeek.APIKey,
			BaseURL:     cfg.DeepSeek.BaseURL,
			Model:       cfg.DeepSeek.Model,
			Timeout:     cfg.Timeout,
			Temperature: &temperature,
			MaxTokens:   &maxTokens,
		})
		if err != nil {
			logx.Error().Err(err).Str("role", role).Msg("Error creating DeepSeek model")
			return nil, fmt.Errorf("error creating deepseek %s model: %w", role, err)
		}
		return cm, nil
	}

	classify, err := build("classify", gen.Classify)
	if err != nil {
		return nil, err
	}
	rank, err := build("rank", gen.Rank)
	if err != nil {
		return nil, err
	}
	reply, err := build("reply", gen.Reply)
	if err != nil {
		return nil, err
	}

	return &ChatModels{
		Classify:  classify,
		Rank:      rank,
		Reply:     reply,
		ModelName: cfg.DeepSeek.Model,
	}, nil
}

func newGeminiModels(ctx context.Context, cfg model.ChatModelConfig, gen rules.Generation) (*ChatModels, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.Gemini.APIKey,
		Backend: genai.BackendGeminiAPI,
		HTTPClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
	if cfg.Gemini.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = cfg.Gemini.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating gemini client: %w", err)
	}

	build := func(role string, params rules.GenerationParams) (einomodel.BaseChatModel, error) {
		temperature := params.Temperature
		maxTokens := params.MaxTokens
		cm, err := gemini.NewChatModel(ctx, &gemini.Config{
			Client:      client,
			Model:       cfg.Gemini.Model,
			Temperature: &temperature,
			MaxTokens:   &maxTokens,
		})
		if err != nil {
			logx.Error().Err(err).Str("role", role).Msg("Error creating Gemini model")
			return nil, fmt.Errorf("error creating gemini %s model: %w", role, err)
		}
		return cm, nil
	}

	classify, err := build("classify", gen.Classify)
	if err != nil {
		return nil, err
	}
	rank, err := build("rank", gen.Rank)
	if err != nil {
		return nil, err
	}
	reply, err := build("reply", gen.Reply)
	if err != nil {
		return nil, err
	}

	return &ChatModels{
		Classify:  classify,
		Rank:      rank,
		Reply:     reply,
		ModelName: cfg.Gemini.Model,
	}, nil
}
