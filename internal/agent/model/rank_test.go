package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func candidates() []Part {
	return []Part{
		{PartNumber: "PS11701542", Name: "Ice Maker Assembly", Price: 89.95, InStock: true},
		{PartNumber: "PS11722167", Name: "Water Inlet Valve", Price: 42.50, InStock: true},
		{PartNumber: "W10190965", Name: "Ice Maker Motor Kit", Price: 129.99, InStock: false},
		{PartNumber: "AP6019471", Name: "Door Gasket", Price: 55.00, InStock: true},
	}
}

func TestResolveDropsUnknownPicks(t *testing.T) {
	result := &RankResult{
		RecommendedParts: []RankedPick{
			{PartNumber: "PS11722167", RelevanceScore: 0.95, Reason: "matches the symptom"},
			{PartNumber: "PS99999999", RelevanceScore: 0.90, Reason: "fabricated"},
			{PartNumber: "PS11701542", RelevanceScore: 0.80, Reason: "common fix"},
		},
	}

	picked := result.Resolve(candidates())

	assert.Len(t, picked, 2)
	assert.Equal(t, "PS11701542", picked[0].PartNumber)
	assert.Equal(t, 0.80, picked[0].RelevanceScore)
	assert.Equal(t, "PS11722167", picked[1].PartNumber)
	assert.Equal(t, 0.95, picked[1].RelevanceScore)
}

func TestResolveKeepsRetrievalOrder(t *testing.T) {
	result := &RankResult{
		RecommendedParts: []RankedPick{
			{PartNumber: "AP6019471"},
			{PartNumber: "PS11701542"},
		},
	}

	picked := result.Resolve(candidates())

	assert.Equal(t, "PS11701542", picked[0].PartNumber)
	assert.Equal(t, "AP6019471", picked[1].PartNumber)
}

func TestFallbackRecommendationsFirstNInOrder(t *testing.T) {
	picked := FallbackRecommendations(candidates(), 3)

	assert.Len(t, picked, 3)
	assert.Equal(t, "PS11701542", picked[0].PartNumber)
	assert.Equal(t, "PS11722167", picked[1].PartNumber)
	assert.Equal(t, "W10190965", picked[2].PartNumber)
}

func TestFallbackRecommendationsShortCandidateList(t *testing.T) {
	picked := FallbackRecommendations(candidates()[:1], 3)
	assert.Len(t, picked, 1)

	picked = FallbackRecommendations(nil, 3)
	assert.Empty(t, picked)
}
