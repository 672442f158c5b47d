package model

// FallbackReasoning is the generic justification used when the ranker model
// fails and the first candidates are returned instead.
const FallbackReasoning = "Here are the most relevant parts based on your search."

// RankedPick is one recommendation in the ranker's structured output.
type RankedPick struct {
	PartNumber     string  `json:"part_number"`
	RelevanceScore float64 `json:"relevance_score"`
	Reason         string  `json:"reason"`
}

// RankResult is the structured output requested from the ranking model.
type RankResult struct {
	RecommendedParts []RankedPick `json:"recommended_parts"`
	OverallReasoning string       `json:"overall_reasoning"`
}

// Resolve matches the ranker's picks against the candidate set, dropping any
// part number the model invented. Survivors keep retrieval order; the pick's
// score and reason ride along.
func (r *RankResult) Resolve(candidates []Part) []RecommendedPart {
	picks := make(map[string]RankedPick, len(r.RecommendedParts))
	for _, pick := range r.RecommendedParts {
		if _, seen := picks[pick.PartNumber]; !seen {
			picks[pick.PartNumber] = pick
		}
	}
	var out []RecommendedPart
	for _, c := range candidates {
		pick, ok := picks[c.PartNumber]
		if !ok {
			continue
		}
		out = append(out, RecommendedPart{
			Part:           c,
			RelevanceScore: pick.RelevanceScore,
			Reason:         pick.Reason,
		})
	}
	return out
}

// FallbackRecommendations deterministically picks the first n candidates in
// retrieval order. It never fails, whatever the ranker returned.
func FallbackRecommendations(candidates []Part, n int) []RecommendedPart {
	if n > len(candidates) {
		n = len(candidates)
	}
	out := make([]RecommendedPart, 0, n)
	for _, c := range candidates[:n] {
		out = append(out, RecommendedPart{Part: c})
	}
	return out
}
