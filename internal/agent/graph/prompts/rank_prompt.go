package prompts

import (
	"context"
	_ "embed"
	"fmt"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/partpilot/server/internal/agent/model"
)

//go:embed template/rank_prompt.txt
var rankSystemPrompt string

// rankCandidate is the trimmed product view handed to the ranking model.
// Full Part rows carry descriptions and image lists the ranker does not
// need and that would blow the token budget.
type rankCandidate struct {
	PartNumber string  `json:"part_number"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	Brand      string  `json:"brand"`
	InStock    bool    `json:"in_stock"`
}

type rankContext struct {
	UserQuery         string          `json:"user_query"`
	Symptoms          []string        `json:"symptoms"`
	ApplianceType     string          `json:"appliance_type,omitempty"`
	ModelNumber       string          `json:"model_number,omitempty"`
	AvailableProducts []rankCandidate `json:"available_products"`
}

// RenderRankSystem renders the ranking system prompt. topN is the number of
// picks the model is asked for; only the known {top_n} token is substituted
// so the JSON braces in the template survive.
func RenderRankSystem(ctx context.Context, topN int) (string, error) {
	content := strings.NewReplacer(
		"{top_n}", strconv.Itoa(topN),
	).Replace(rankSystemPrompt)
	return renderStatic(ctx, "rank", content)
}

// RankUser serializes the turn's retrieval context for the ranking model.
func RankUser(state *model.ConversationState, candidates []model.Part) (string, error) {
	rc := rankContext{
		UserQuery:         state.UserQuery,
		Symptoms:          state.Symptoms,
		ApplianceType:     state.ApplianceType,
		ModelNumber:       state.ModelNumber,
		AvailableProducts: make([]rankCandidate, 0, len(candidates)),
	}
	if rc.Symptoms == nil {
		rc.Symptoms = []string{}
	}
	for _, p := range candidates {
		rc.AvailableProducts = append(rc.AvailableProducts, rankCandidate{
			PartNumber: p.PartNumber,
			Name:       p.Name,
			Price:      p.Price,
			Brand:      p.Brand,
			InStock:    p.InStock,
		})
	}

	blob, err := sonic.ConfigDefault.MarshalIndent(rc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal rank context: %w", err)
	}
	return "Context: " + string(blob), nil
}
