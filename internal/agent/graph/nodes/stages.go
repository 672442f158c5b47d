package nodes

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/compose"

	"github.com/partpilot/server/internal/agent/model"
	"github.com/partpilot/server/internal/retrieval"
	"github.com/partpilot/server/internal/semantic"
	logx "github.com/partpilot/server/pkg/logger"
)

// Node names for the chat pipeline graph.
const (
	NodeUnderstand    = "understand"
	NodeSearch        = "search"
	NodeGatherContext = "gather_context"
	NodeRecommend     = "recommend"
	NodeRespond       = "respond"
)

// NewStagePreHandler records the stage visit on the turn state. The first
// stage to run also stamps the conversation id and start time.
func NewStagePreHandler(stage string) func(context.Context, *model.ConversationState, *model.TurnState) (*model.ConversationState, error) {
	return func(ctx context.Context, in *model.ConversationState, state *model.TurnState) (*model.ConversationState, error) {
		if state.StartedAt.IsZero() {
			state.ConversationID = in.ConversationID
			state.StartedAt = time.Now()
		}
		state.VisitStage(stage)
		return in, nil
	}
}

// NewUnderstandNode classifies the utterance and merges the result into the
// conversation slots.
func NewUnderstandNode(classifier *Classifier) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, state *model.ConversationState) (*model.ConversationState, error) {
		result := classifier.Classify(ctx, state)
		state.ApplyClassification(result)
		state.ResolveWaiting()

		logx.Debug().
			Str("conversation_id", state.ConversationID).
			Str("intent", state.Intent.String()).
			Float64("confidence", state.Confidence).
			Str("method", result.Method).
			Msg("utterance classified")
		return state, nil
	})
}

// NewSearchNode runs catalog retrieval for the classified intent. A store
// failure aborts the turn.
func NewSearchNode(retriever *retrieval.Retriever) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, state *model.ConversationState) (*model.ConversationState, error) {
		parts, err := retriever.Search(ctx, state)
		if err != nil {
			logx.Error().
				Err(err).
				Str("conversation_id", state.ConversationID).
				Str("intent", state.Intent.String()).
				Msg("product search failed")
			return nil, fmt.Errorf("product search: %w", err)
		}

		state.SearchResults = parts
		logx.Debug().
			Str("conversation_id", state.ConversationID).
			Int("results", len(parts)).
			Msg("product search done")
		return state, nil
	})
}

// NewGatherContextNode pulls repair and installation documents relevant to
// the utterance. Lookup failures inside the gatherer degrade to no docs.
func NewGatherContextNode(gatherer *semantic.Gatherer) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, state *model.ConversationState) (*model.ConversationState, error) {
		state.RelevantDocs = gatherer.Gather(ctx, state)
		return state, nil
	})
}

// NewRecommendNode ranks this turn's search results.
func NewRecommendNode(ranker *Ranker) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, state *model.ConversationState) (*model.ConversationState, error) {
		picks, reasoning := ranker.Rank(ctx, state)
		state.RecommendedParts = picks
		state.Reasoning = reasoning

		logx.Debug().
			Str("conversation_id", state.ConversationID).
			Int("recommended", len(picks)).
			Msg("candidates ranked")
		return state, nil
	})
}

// NewRespondNode renders the final reply and closes the turn.
func NewRespondNode(responder *Responder) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, state *model.ConversationState) (*model.ConversationState, error) {
		reply, err := responder.Respond(ctx, state)
		if err != nil {
			logx.Error().
				Err(err).
				Str("conversation_id", state.ConversationID).
				Str("intent", state.Intent.String()).
				Msg("response rendering failed")
			return nil, fmt.Errorf("render response: %w", err)
		}

		state.FinishTurn(reply)
		return state, nil
	})
}

// NewSearchCondition routes the classified turn either into retrieval or
// straight to the reply for conversational intents.
func NewSearchCondition() func(context.Context, *model.ConversationState) (string, error) {
	return func(ctx context.Context, state *model.ConversationState) (string, error) {
		if state.Intent.NeedsSearch() {
			return NodeSearch, nil
		}
		logx.Debug().
			Str("conversation_id", state.ConversationID).
			Str("intent", state.Intent.String()).
			Msg("skipping retrieval for conversational intent")
		return NodeRespond, nil
	}
}

// NewContextCondition routes after retrieval: empty results answer
// immediately, diagnostic intents gather documents first, everything else
// goes straight to ranking.
func NewContextCondition() func(context.Context, *model.ConversationState) (string, error) {
	return func(ctx context.Context, state *model.ConversationState) (string, error) {
		if len(state.SearchResults) == 0 {
			logx.Debug().
				Str("conversation_id", state.ConversationID).
				Str("intent", state.Intent.String()).
				Msg("no search results, responding directly")
			return NodeRespond, nil
		}
		if state.Intent.NeedsContext() {
			return NodeGatherContext, nil
		}
		return NodeRecommend, nil
	}
}
