package prompts

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/partpilot/server/internal/agent/model"
)

//go:embed template/classify_prompt.txt
var classifySystemPrompt string

// RenderClassifySystem renders the intent-classification system prompt via
// the Eino prompt component so prompt callbacks fire on every turn.
func RenderClassifySystem(ctx context.Context) (string, error) {
	return renderStatic(ctx, "classify", classifySystemPrompt)
}

// ClassifyUser builds the classifier's user prompt: the utterance plus the
// slots and recent history already accumulated on the conversation. The model
// needs the pending waiting_for marker to classify short follow-up answers
// ("WRS325SDHZ") as the intent that asked for them.
func ClassifyUser(state *model.ConversationState, contextTurns int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Classify this query: %q", state.UserQuery)

	var lines []string
	if state.WaitingFor != "" {
		lines = append(lines, fmt.Sprintf("- Assistant is waiting for: %s", state.WaitingFor))
	}
	if state.ApplianceType != "" {
		lines = append(lines, fmt.Sprintf("- Known appliance: %s", state.ApplianceType))
	}
	if state.Brand != "" {
		lines = append(lines, fmt.Sprintf("- Known brand: %s", state.Brand))
	}
	if state.PartNumber != "" {
		lines = append(lines, fmt.Sprintf("- Known part number: %s", state.PartNumber))
	}
	if recent := state.RecentUtterances(contextTurns); len(recent) > 0 {
		lines = append(lines, fmt.Sprintf("- Previous queries: %s", strings.Join(recent, ", ")))
	}
	if state.Intent != "" {
		lines = append(lines, fmt.Sprintf("- Previous intent: %s", state.Intent))
	}

	if len(lines) > 0 {
		b.WriteString("\n\nConversation context:\n")
		b.WriteString(strings.Join(lines, "\n"))
	}
	return b.String()
}
