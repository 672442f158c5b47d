package model

import (
	"context"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Slot names the responder parks a follow-up question on.
const (
	WaitingForModelNumber = "model_number"
	WaitingForPartNumber  = "part_number"
)

// Message is one chat-history entry persisted with the conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ConversationState is the single mutable record threaded through the
// dialogue pipeline. It is owned exclusively by the orchestrator for the
// duration of a turn and persisted to the session store between turns.
//
// Entity slots (ApplianceType, Brand, ModelNumber, PartNumber, Symptom,
// SearchQuery, WaitingFor) survive across turns; a new non-empty value
// overwrites the old one, absence never clears. Symptoms accumulates every
// distinct symptom seen. Intent and Confidence are rewritten every turn.
// Messages and TurnHistory are append-only. Everything under "per-turn
// working set" is recomputed each turn.
type ConversationState struct {
	ConversationID string    `json:"conversation_id"`
	Messages       []Message `json:"messages"`
	TurnHistory    []string  `json:"turn_history"`

	Intent     Intent  `json:"intent"`
	Confidence float64 `json:"confidence"`

	ApplianceType string   `json:"appliance_type"`
	Brand         string   `json:"brand"`
	ModelNumber   string   `json:"model_number"`
	PartNumber    string   `json:"part_number"`
	Symptom       string   `json:"symptom"`
	Symptoms      []string `json:"symptoms"`
	SearchQuery   string   `json:"search_query"`
	WaitingFor    string   `json:"waiting_for"`

	// per-turn working set
	UserQuery        string            `json:"user_query"`
	SearchResults    []Part            `json:"search_results"`
	RelevantDocs     []SemanticDoc     `json:"relevant_docs"`
	RecommendedParts []RecommendedPart `json:"recommended_parts"`
	Reasoning        string            `json:"reasoning"`
	FinalResponse    string            `json:"final_response"`
}

// NewConversationState returns a fresh state for a first turn, all entity
// slots empty.
func NewConversationState(conversationID string) *ConversationState {
	return &ConversationState{
		ConversationID: conversationID,
		Messages:       []Message{},
		TurnHistory:    []string{},
		Symptoms:       []string{},
	}
}

// BeginTurn records the incoming utterance and resets the per-turn working
// set. Persistent slots and history are left untouched.
func (s *ConversationState) BeginTurn(query string) {
	s.UserQuery = query
	s.TurnHistory = append(s.TurnHistory, query)
	s.Messages = append(s.Messages, Message{Role: RoleUser, Content: query})

	s.SearchResults = nil
	s.RelevantDocs = nil
	s.RecommendedParts = nil
	s.Reasoning = ""
	s.FinalResponse = ""
}

// FinishTurn appends the assistant reply to the message history.
func (s *ConversationState) FinishTurn(reply string) {
	s.FinalResponse = reply
	s.Messages = append(s.Messages, Message{Role: RoleAssistant, Content: reply})
}

// ApplyClassification merges a classifier result into the state. Intent and
// Confidence always overwrite; entity slots follow the non-empty-overwrites
// rule. Classifier bookkeeping keys (confidence, method, is_followup, query)
// are not entity slots and are ignored.
func (s *ConversationState) ApplyClassification(c *Classification) {
	if c == nil {
		return
	}
	s.Intent = c.Intent
	s.Confidence = c.Confidence
	for key, value := range c.Entities {
		s.mergeEntity(key, value)
	}
}

func (s *ConversationState) mergeEntity(key, value string) {
	if value == "" {
		return
	}
	switch key {
	case "appliance_type":
		s.ApplianceType = value
	case "brand":
		s.Brand = value
	case "model_number":
		s.ModelNumber = value
	case "part_number":
		s.PartNumber = value
	case "search_query":
		s.SearchQuery = value
	case "waiting_for":
		s.WaitingFor = value
	case "symptom":
		s.Symptom = value
		s.AddSymptom(value)
	}
}

// ResolveWaiting clears the waiting-for marker once the slot it refers to
// has been filled.
func (s *ConversationState) ResolveWaiting() {
	switch s.WaitingFor {
	case WaitingForModelNumber:
		if s.ModelNumber != "" {
			s.WaitingFor = ""
		}
	case WaitingForPartNumber:
		if s.PartNumber != "" {
			s.WaitingFor = ""
		}
	}
}

// AddSymptom appends a symptom if it is not already recorded.
func (s *ConversationState) AddSymptom(symptom string) {
	for _, existing := range s.Symptoms {
		if existing == symptom {
			return
		}
	}
	s.Symptoms = append(s.Symptoms, symptom)
}

// RecentUtterances returns up to n most recent prior utterances, oldest
// first, excluding the current turn's query.
func (s *ConversationState) RecentUtterances(n int) []string {
	history := s.TurnHistory
	if len(history) > 0 && history[len(history)-1] == s.UserQuery {
		history = history[:len(history)-1]
	}
	if len(history) > n {
		history = history[len(history)-n:]
	}
	return history
}

// RecommendedSubsetOf reports whether every recommended part is present in
// the given candidate list, compared by part number.
func (s *ConversationState) RecommendedSubsetOf(candidates []Part) bool {
	known := make(map[string]struct{}, len(candidates))
	for _, p := range candidates {
		known[p.PartNumber] = struct{}{}
	}
	for _, r := range s.RecommendedParts {
		if _, ok := known[r.PartNumber]; !ok {
			return false
		}
	}
	return true
}

// SessionStore persists one ConversationState blob per conversation id with
// a fixed expiry.
type SessionStore interface {
	// Load retrieves the state for a conversation. A miss returns (nil, nil)
	// so callers can start fresh without treating absence as an error.
	Load(ctx context.Context, conversationID string) (*ConversationState, error)

	// Save writes the state and refreshes its expiry.
	Save(ctx context.Context, state *ConversationState) error

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error
}
