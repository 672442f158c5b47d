package nodes

import (
	"context"
	"fmt"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/partpilot/server/internal/agent/graph/parsers"
	"github.com/partpilot/server/internal/agent/graph/prompts"
	"github.com/partpilot/server/internal/agent/model"
	"github.com/partpilot/server/internal/rules"
	logx "github.com/partpilot/server/pkg/logger"
)

// Classifier turns one utterance plus the accumulated conversation context
// into an intent and entity set. Classify never returns an error: any model
// or parse failure degrades to the general_question fallback so the turn
// keeps moving.
type Classifier struct {
	llm          einomodel.BaseChatModel
	rules        *rules.Rules
	contextTurns int
}

// NewClassifier wires the classification model and the deterministic token
// rules. contextTurns bounds how many prior utterances feed the prompt.
func NewClassifier(llm einomodel.BaseChatModel, r *rules.Rules, contextTurns int) *Classifier {
	return &Classifier{llm: llm, rules: r, contextTurns: contextTurns}
}

// Classify produces this turn's classification.
func (c *Classifier) Classify(ctx context.Context, state *model.ConversationState) *model.Classification {
	result, err := c.classifyLLM(ctx, state)
	if err != nil {
		logx.Warn().
			Err(err).
			Str("conversation_id", state.ConversationID).
			Msg("classification failed, using fallback")
		result = model.FallbackClassification(state.UserQuery)
	}
	c.supplementCodes(result, state.UserQuery)
	return result
}

func (c *Classifier) classifyLLM(ctx context.Context, state *model.ConversationState) (*model.Classification, error) {
	system, err := prompts.RenderClassifySystem(ctx)
	if err != nil {
		return nil, fmt.Errorf("render classify prompt: %w", err)
	}
	messages := []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(prompts.ClassifyUser(state, c.contextTurns)),
	}

	resp, err := c.llm.Generate(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("classify generate: %w", err)
	}
	return parsers.ParseClassification(resp.Content)
}

// supplementCodes backfills part and model numbers the model missed using
// the deterministic token rules. It never overrides an extracted value, and
// only digit-bearing codes qualify as model numbers so ordinary words in a
// shouting-case utterance are not mistaken for one.
func (c *Classifier) supplementCodes(result *model.Classification, query string) {
	if result.Entities == nil {
		result.Entities = map[string]string{}
	}
	if result.Entities["part_number"] == "" {
		if parts := c.rules.PartNumbersIn(query); len(parts) > 0 {
			result.Entities["part_number"] = parts[0]
		}
	}
	if result.Entities["model_number"] == "" {
		for _, code := range c.rules.CodesIn(query) {
			if c.rules.LooksLikePartNumber(code) || !hasDigit(code) {
				continue
			}
			result.Entities["model_number"] = code
			break
		}
	}
}

func hasDigit(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			return true
		}
	}
	return false
}
