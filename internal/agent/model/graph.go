package model

import (
	"time"
)

// TurnState stores per-invocation bookkeeping for the Eino graph.
// Concurrency model:
//   - This struct is registered as Graph Local State via compose.WithGenLocalState.
//   - All reads/writes happen only inside Eino state handlers:
//     WithStatePreHandler, WithStatePostHandler, or compose.ProcessState.
//   - Eino serializes access to state within these handlers, so no additional
//     mutex/atomic is required as long as you never touch it outside handlers.
//   - The ConversationState itself flows through the graph as the node
//     input/output value; TurnState only carries the trace and cost tallies.
type TurnState struct {
	ConversationID string
	StartedAt      time.Time
	Stages         []string // stage names in visit order, maintained in handlers

	ModelCalls int
	// Accumulated total LLM cost (USD) across model invocations for this turn
	TotalCostUSD float64
}

// VisitStage appends a stage name to the turn trace.
func (t *TurnState) VisitStage(name string) {
	t.Stages = append(t.Stages, name)
}

// QueryInput represents one incoming user turn.
type QueryInput struct {
	ConversationID string `json:"conversation_id"`
	Query          string `json:"query"`
}
