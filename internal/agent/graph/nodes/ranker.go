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

// Ranker asks the model to pick the best candidates from this turn's search
// results and justify the choice. Rank never returns an error and never
// invents parts: picks are validated against the candidate set, and any
// failure falls back to the first candidates in retrieval order without a
// second model call.
type Ranker struct {
	llm   einomodel.BaseChatModel
	rules *rules.Rules
}

// NewRanker wires the ranking model and the retrieval limits.
func NewRanker(llm einomodel.BaseChatModel, r *rules.Rules) *Ranker {
	return &Ranker{llm: llm, rules: r}
}

// Rank returns the recommended subset and the overall justification.
func (r *Ranker) Rank(ctx context.Context, state *model.ConversationState) ([]model.RecommendedPart, string) {
	candidates := state.SearchResults
	if len(candidates) == 0 {
		return nil, "No products found matching your query."
	}
	if max := r.rules.Retrieval.RankerInput; len(candidates) > max {
		candidates = candidates[:max]
	}

	result, err := r.rankLLM(ctx, state, candidates)
	if err != nil {
		logx.Warn().
			Err(err).
			Str("conversation_id", state.ConversationID).
			Int("candidates", len(candidates)).
			Msg("ranking failed, falling back to retrieval order")
		return model.FallbackRecommendations(candidates, r.rules.Retrieval.RankerOutput), model.FallbackReasoning
	}

	picks := result.Resolve(candidates)
	if dropped := len(result.RecommendedParts) - len(picks); dropped > 0 {
		logx.Debug().
			Str("conversation_id", state.ConversationID).
			Int("dropped", dropped).
			Msg("ranker picked unknown part numbers, dropped")
	}
	return picks, result.OverallReasoning
}

func (r *Ranker) rankLLM(ctx context.Context, state *model.ConversationState, candidates []model.Part) (*model.RankResult, error) {
	system, err := prompts.RenderRankSystem(ctx, r.rules.Retrieval.RankerOutput)
	if err != nil {
		return nil, fmt.Errorf("render rank prompt: %w", err)
	}
	user, err := prompts.RankUser(state, candidates)
	if err != nil {
		return nil, err
	}
	messages := []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(user),
	}

	resp, err := r.llm.Generate(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("rank generate: %w", err)
	}
	return parsers.ParseRankResult(resp.Content)
}
