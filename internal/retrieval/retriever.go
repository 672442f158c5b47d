// Package retrieval turns a classified conversation state into catalog
// candidates. Each intent gets its own search strategy.
package retrieval

import (
	"context"
	"strings"

	"github.com/partpilot/server/internal/agent/model"
	"github.com/partpilot/server/internal/rules"
	logx "github.com/partpilot/server/pkg/logger"
)

// Retriever dispatches catalog searches by intent.
type Retriever struct {
	catalog model.CatalogStore
	rules   *rules.Rules
}

func New(catalog model.CatalogStore, r *rules.Rules) *Retriever {
	return &Retriever{catalog: catalog, rules: r}
}

// Search fills the candidate list for the current turn. A known part number
// short-circuits every other strategy; otherwise strategy follows intent.
// No matches is an empty slice, not an error.
func (r *Retriever) Search(ctx context.Context, state *model.ConversationState) ([]model.Part, error) {
	query := state.SearchQuery
	if query == "" {
		query = state.UserQuery
	}

	logx.Debug().
		Str("conversationID", state.ConversationID).
		Str("intent", string(state.Intent)).
		Str("query", query).
		Str("category", state.ApplianceType).
		Str("brand", state.Brand).
		Msg("dispatching product search")

	if state.PartNumber != "" {
		part, err := r.catalog.GetPart(ctx, state.PartNumber)
		if err != nil {
			return nil, err
		}
		if part != nil {
			return []model.Part{*part}, nil
		}
	}

	switch state.Intent {
	case model.IntentCompatibilityCheck:
		return r.compatibilitySearch(ctx, state, query)
	case model.IntentDiagnoseIssue:
		return r.diagnosisSearch(ctx, state, query)
	case model.IntentSearchPart, model.IntentProductDetails, model.IntentInstallationHelp:
		return r.keywordSearch(ctx, state, query)
	default:
		return nil, nil
	}
}

// compatibilitySearch only falls back to free text when the user has named
// neither a part nor a model. A part number that missed the catalog, or a
// model with no part yet, both leave the candidate list empty so the
// responder can ask for what is missing.
func (r *Retriever) compatibilitySearch(ctx context.Context, state *model.ConversationState, query string) ([]model.Part, error) {
	if state.PartNumber != "" || state.ModelNumber != "" {
		return nil, nil
	}
	return r.catalog.SearchParts(ctx, query, state.ApplianceType, r.rules.Retrieval.CompatSearchLimit)
}

// diagnosisSearch maps the symptom to part search terms and merges the
// per-term results, deduplicated by part number in first-seen order.
func (r *Retriever) diagnosisSearch(ctx context.Context, state *model.ConversationState, query string) ([]model.Part, error) {
	terms := r.rules.SearchTermsFor(state.Symptom, state.ApplianceType, query)

	logx.Debug().
		Str("conversationID", state.ConversationID).
		Strs("terms", terms).
		Msg("diagnosis search terms")

	var merged []model.Part
	seen := make(map[string]bool)
	for _, term := range terms {
		results, err := r.catalog.SearchParts(ctx, term, state.ApplianceType, r.rules.Retrieval.DiagnosisPerTerm)
		if err != nil {
			return nil, err
		}
		for _, part := range results {
			if seen[part.PartNumber] {
				continue
			}
			seen[part.PartNumber] = true
			merged = append(merged, part)
		}
	}

	if len(merged) > r.rules.Retrieval.DiagnosisCap {
		merged = merged[:r.rules.Retrieval.DiagnosisCap]
	}
	return merged, nil
}

// keywordSearch over-fetches so a brand filter still leaves enough results.
func (r *Retriever) keywordSearch(ctx context.Context, state *model.ConversationState, query string) ([]model.Part, error) {
	results, err := r.catalog.SearchParts(ctx, query, state.ApplianceType, r.rules.Retrieval.SearchLimit)
	if err != nil {
		return nil, err
	}

	if state.Brand == "" || len(results) == 0 {
		return results, nil
	}

	filtered := results[:0]
	for _, part := range results {
		if strings.EqualFold(part.Brand, state.Brand) {
			filtered = append(filtered, part)
		}
	}
	return filtered, nil
}
