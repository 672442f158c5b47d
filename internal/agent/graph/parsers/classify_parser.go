package parsers

import (
	"fmt"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/partpilot/server/internal/agent/model"
	logx "github.com/partpilot/server/pkg/logger"
)

// classifyWire mirrors the JSON shape the classification prompt requests.
// Entities arrive as any-typed values because models occasionally emit
// numbers or nulls where strings belong; non-strings are dropped.
type classifyWire struct {
	Intent     string         `json:"intent"`
	Entities   map[string]any `json:"entities"`
	Confidence float64        `json:"confidence"`
	Reasoning  string         `json:"reasoning"`
}

// ParseClassification decodes one classifier answer. An unknown intent label
// degrades to general_question while keeping the extracted entities; a
// malformed document is an error and the caller falls back entirely.
func ParseClassification(content string) (*model.Classification, error) {
	content = stripFences(guardLen(content))
	if content == "" {
		return nil, fmt.Errorf("empty classification content")
	}

	var wire classifyWire
	if err := sonic.Unmarshal([]byte(content), &wire); err != nil {
		return nil, fmt.Errorf("decode classification %q: %w", safeSnippet(content), err)
	}

	intent, known := model.ParseIntent(strings.TrimSpace(wire.Intent))
	if !known {
		logx.Warn().
			Str("component", "classify_parser").
			Str("label", wire.Intent).
			Msg("unknown intent label, treating as general_question")
	}

	c := &model.Classification{
		Intent:     intent,
		Confidence: normalizeConfidence(wire.Confidence),
		Entities:   make(map[string]string, len(wire.Entities)),
		Reasoning:  wire.Reasoning,
		Method:     model.ClassifyMethodLLM,
	}
	for key, raw := range wire.Entities {
		value, ok := raw.(string)
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		// Product and model codes are matched case-sensitively downstream.
		switch key {
		case "part_number", "model_number":
			value = strings.ToUpper(value)
		}
		c.Entities[key] = value
	}
	return c, nil
}

// normalizeConfidence clamps to [0,1]; a missing or zero score gets the
// default the classifier assumes for unscored answers.
func normalizeConfidence(v float64) float64 {
	if v <= 0 {
		return model.DefaultConfidence
	}
	if v > 1 {
		return 1
	}
	return v
}
