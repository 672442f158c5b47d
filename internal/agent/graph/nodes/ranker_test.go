package nodes

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partpilot/server/internal/agent/model"
	"github.com/partpilot/server/internal/rules"
)

func TestRankEmptyCandidates(t *testing.T) {
	llm := &scriptedModel{}
	r := NewRanker(llm, rules.Default())

	state := turnState(model.IntentSearchPart, "water filter")
	picks, reasoning := r.Rank(context.Background(), state)

	assert.Empty(t, picks)
	assert.Equal(t, "No products found matching your query.", reasoning)
	assert.Empty(t, llm.calls, "no candidates must mean no model call")
}

func TestRankResolvesPicksInRetrievalOrder(t *testing.T) {
	llm := &scriptedModel{reply: `{
		"recommended_parts": [
			{"part_number": "PS22222222", "relevance_score": 0.7, "reason": "close match"},
			{"part_number": "PS11111111", "relevance_score": 0.9, "reason": "exact symptom"}
		],
		"overall_reasoning": "both address the failure"
	}`}
	r := NewRanker(llm, rules.Default())

	state := turnState(model.IntentDiagnoseIssue, "fridge not making ice")
	state.SearchResults = []model.Part{
		candidate("PS11111111", "Ice Maker Assembly", 89.99),
		candidate("PS22222222", "Water Inlet Valve", 45.50),
		candidate("PS33333333", "Door Gasket", 30.00),
	}

	picks, reasoning := r.Rank(context.Background(), state)

	require.Len(t, picks, 2)
	assert.Equal(t, "PS11111111", picks[0].PartNumber)
	assert.Equal(t, "PS22222222", picks[1].PartNumber)
	assert.Equal(t, 0.9, picks[0].RelevanceScore)
	assert.Equal(t, "both address the failure", reasoning)
}

func TestRankFallsBackOnModelError(t *testing.T) {
	llm := &scriptedModel{err: errors.New("upstream unavailable")}
	r := NewRanker(llm, rules.Default())

	state := turnState(model.IntentSearchPart, "water filter")
	state.SearchResults = []model.Part{
		candidate("PS11111111", "Water Filter", 49.99),
		candidate("PS22222222", "Water Filter Housing", 25.00),
		candidate("PS33333333", "Filter Bypass Plug", 15.00),
		candidate("PS44444444", "Water Line", 12.00),
	}

	picks, reasoning := r.Rank(context.Background(), state)

	require.Len(t, picks, 3)
	assert.Equal(t, "PS11111111", picks[0].PartNumber)
	assert.Equal(t, "PS22222222", picks[1].PartNumber)
	assert.Equal(t, "PS33333333", picks[2].PartNumber)
	assert.Equal(t, model.FallbackReasoning, reasoning)
	assert.Len(t, llm.calls, 1, "fallback must not retry the model")
}

func TestRankFallsBackOnGarbageReply(t *testing.T) {
	llm := &scriptedModel{reply: "happy to help, the best part is the first one"}
	r := NewRanker(llm, rules.Default())

	state := turnState(model.IntentSearchPart, "water filter")
	state.SearchResults = []model.Part{candidate("PS11111111", "Water Filter", 49.99)}

	picks, reasoning := r.Rank(context.Background(), state)

	require.Len(t, picks, 1)
	assert.Equal(t, "PS11111111", picks[0].PartNumber)
	assert.Equal(t, model.FallbackReasoning, reasoning)
}

func TestRankDropsInventedPartNumbers(t *testing.T) {
	llm := &scriptedModel{reply: `{
		"recommended_parts": [{"part_number": "PS99999999", "relevance_score": 1, "reason": "best"}],
		"overall_reasoning": "confident pick"
	}`}
	r := NewRanker(llm, rules.Default())

	state := turnState(model.IntentSearchPart, "water filter")
	state.SearchResults = []model.Part{candidate("PS11111111", "Water Filter", 49.99)}

	picks, reasoning := r.Rank(context.Background(), state)

	// A parseable answer naming only unknown parts yields no picks rather
	// than a fabricated recommendation.
	assert.Empty(t, picks)
	assert.Equal(t, "confident pick", reasoning)
}

func TestRankCapsCandidatesSentToModel(t *testing.T) {
	llm := &scriptedModel{reply: `{"recommended_parts": [], "overall_reasoning": "none fit"}`}
	r := NewRanker(llm, rules.Default())

	state := turnState(model.IntentSearchPart, "water filter")
	for i := 0; i < 12; i++ {
		number := fmt.Sprintf("PS1000000%d", i)
		state.SearchResults = append(state.SearchResults, candidate(number, "Water Filter", 49.99))
	}

	_, _ = r.Rank(context.Background(), state)

	require.Len(t, llm.calls, 1)
	prompt := llm.lastUserPrompt()
	assert.Contains(t, prompt, "PS10000009")
	assert.NotContains(t, prompt, "PS100000010")
	assert.NotContains(t, prompt, "PS100000011")
}
