package parsers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRankResultPlainJSON(t *testing.T) {
	out, err := ParseRankResult(`{
		"recommended_parts": [
			{"part_number": "PS11701542", "relevance_score": 0.95, "reason": "matches the ice maker symptom"},
			{"part_number": "ps11759673", "relevance_score": 0.7, "reason": "common companion repair"}
		],
		"overall_reasoning": "Both parts address the reported failure."
	}`)
	require.NoError(t, err)

	require.Len(t, out.RecommendedParts, 2)
	assert.Equal(t, "PS11701542", out.RecommendedParts[0].PartNumber)
	assert.Equal(t, "PS11759673", out.RecommendedParts[1].PartNumber, "codes are normalized to upper case")
	assert.Equal(t, 0.95, out.RecommendedParts[0].RelevanceScore)
	assert.Equal(t, "Both parts address the reported failure.", out.OverallReasoning)
}

func TestParseRankResultStripsFences(t *testing.T) {
	fenced := "```json\n{\"recommended_parts\": [], \"overall_reasoning\": \"nothing fits\"}\n```"
	out, err := ParseRankResult(fenced)
	require.NoError(t, err)

	assert.Empty(t, out.RecommendedParts)
	assert.Equal(t, "nothing fits", out.OverallReasoning)
}

func TestParseRankResultMissingKeyIsError(t *testing.T) {
	_, err := ParseRankResult(`{"overall_reasoning": "no picks key"}`)
	assert.Error(t, err)
}

func TestParseRankResultDropsBlankPartNumbers(t *testing.T) {
	out, err := ParseRankResult(`{
		"recommended_parts": [
			{"part_number": "  ", "relevance_score": 0.9, "reason": "hallucinated"},
			{"part_number": "PS1", "relevance_score": 0.8, "reason": "real"}
		],
		"overall_reasoning": "one survives"
	}`)
	require.NoError(t, err)

	require.Len(t, out.RecommendedParts, 1)
	assert.Equal(t, "PS1", out.RecommendedParts[0].PartNumber)
}

func TestParseRankResultRejectsGarbage(t *testing.T) {
	_, err := ParseRankResult("I recommend the ice maker assembly.")
	assert.Error(t, err)

	_, err = ParseRankResult("")
	assert.Error(t, err)
}
