package parsers

import (
	"fmt"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/partpilot/server/internal/agent/model"
)

// ParseRankResult decodes one ranking answer. A document without the
// recommended_parts key is an error even when the JSON itself is valid: the
// ranker must not mistake an unrelated object for an empty recommendation.
func ParseRankResult(content string) (*model.RankResult, error) {
	content = stripFences(guardLen(content))
	if content == "" {
		return nil, fmt.Errorf("empty rank content")
	}

	var res model.RankResult
	if err := sonic.Unmarshal([]byte(content), &res); err != nil {
		return nil, fmt.Errorf("decode rank result %q: %w", safeSnippet(content), err)
	}
	if res.RecommendedParts == nil {
		return nil, fmt.Errorf("rank result missing recommended_parts")
	}

	picks := res.RecommendedParts[:0]
	for _, pick := range res.RecommendedParts {
		pick.PartNumber = strings.ToUpper(strings.TrimSpace(pick.PartNumber))
		if pick.PartNumber == "" {
			continue
		}
		picks = append(picks, pick)
	}
	res.RecommendedParts = picks
	return &res, nil
}
