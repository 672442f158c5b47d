// Package semantic enriches a turn with documents from the embedding index:
// troubleshooting notes for diagnoses, guides for installation questions.
package semantic

import (
	"context"

	"github.com/partpilot/server/internal/agent/model"
	logx "github.com/partpilot/server/pkg/logger"
)

// Gatherer fetches supporting documents for the current turn.
type Gatherer struct {
	index model.SemanticIndex
	limit int
}

func New(index model.SemanticIndex, limit int) *Gatherer {
	if limit <= 0 {
		limit = 5
	}
	return &Gatherer{index: index, limit: limit}
}

// Gather queries the index with the raw user query. Context is an optional
// enrichment, so index failures degrade to no documents instead of failing
// the turn.
func (g *Gatherer) Gather(ctx context.Context, state *model.ConversationState) []model.SemanticDoc {
	docType := docTypeFor(state.Intent)

	docs, err := g.index.Query(ctx, state.UserQuery, docType, g.limit)
	if err != nil {
		logx.Warn().
			Err(err).
			Str("conversationID", state.ConversationID).
			Str("docType", docType).
			Msg("semantic search failed, continuing without context")
		return nil
	}

	logx.Debug().
		Str("conversationID", state.ConversationID).
		Str("docType", docType).
		Int("docs", len(docs)).
		Msg("gathered semantic context")
	return docs
}

// docTypeFor narrows the index to the slice that suits the intent. Other
// intents search untyped.
func docTypeFor(intent model.Intent) string {
	switch intent {
	case model.IntentInstallationHelp:
		return "installation"
	case model.IntentDiagnoseIssue:
		return "troubleshooting"
	default:
		return ""
	}
}
