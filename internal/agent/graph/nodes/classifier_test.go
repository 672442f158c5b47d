package nodes

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partpilot/server/internal/agent/model"
	"github.com/partpilot/server/internal/rules"
)

func TestClassifyParsesModelReply(t *testing.T) {
	llm := &scriptedModel{reply: `{
		"intent": "diagnose_issue",
		"entities": {"appliance_type": "refrigerator", "symptom": "not making ice"},
		"confidence": 0.92,
		"reasoning": "symptom description"
	}`}
	c := NewClassifier(llm, rules.Default(), 3)

	state := turnState(model.IntentGeneralQuestion, "My fridge is not making ice")
	result := c.Classify(context.Background(), state)

	assert.Equal(t, model.IntentDiagnoseIssue, result.Intent)
	assert.Equal(t, "refrigerator", result.Entities["appliance_type"])
	assert.Equal(t, "not making ice", result.Entities["symptom"])
	assert.Equal(t, 0.92, result.Confidence)
	assert.Equal(t, model.ClassifyMethodLLM, result.Method)
}

func TestClassifyFallsBackOnModelError(t *testing.T) {
	llm := &scriptedModel{err: errors.New("upstream unavailable")}
	c := NewClassifier(llm, rules.Default(), 3)

	state := turnState(model.IntentGeneralQuestion, "is this part compatible?")
	result := c.Classify(context.Background(), state)

	assert.Equal(t, model.IntentGeneralQuestion, result.Intent)
	assert.Equal(t, model.ClassifyMethodFallback, result.Method)
	assert.Equal(t, model.DefaultConfidence, result.Confidence)
}

func TestClassifyFallsBackOnGarbageReply(t *testing.T) {
	llm := &scriptedModel{reply: "Sure! Here is my analysis of your question."}
	c := NewClassifier(llm, rules.Default(), 3)

	state := turnState(model.IntentGeneralQuestion, "hello")
	result := c.Classify(context.Background(), state)

	assert.Equal(t, model.IntentGeneralQuestion, result.Intent)
	assert.Equal(t, model.ClassifyMethodFallback, result.Method)
}

func TestClassifySupplementsPartNumber(t *testing.T) {
	llm := &scriptedModel{reply: `{"intent": "product_details", "entities": {}, "confidence": 0.9}`}
	c := NewClassifier(llm, rules.Default(), 3)

	state := turnState(model.IntentGeneralQuestion, "tell me about ps11701542")
	result := c.Classify(context.Background(), state)

	assert.Equal(t, "PS11701542", result.Entities["part_number"])
}

func TestClassifySupplementsModelNumber(t *testing.T) {
	llm := &scriptedModel{reply: `{"intent": "compatibility_check", "entities": {}, "confidence": 0.9}`}
	c := NewClassifier(llm, rules.Default(), 3)

	state := turnState(model.IntentGeneralQuestion, "will it fit my WDT780SAEM1")
	result := c.Classify(context.Background(), state)

	assert.Equal(t, "WDT780SAEM1", result.Entities["model_number"])
}

func TestClassifySupplementSkipsPlainWords(t *testing.T) {
	llm := &scriptedModel{reply: `{"intent": "general_question", "entities": {}, "confidence": 0.9}`}
	c := NewClassifier(llm, rules.Default(), 3)

	// All-letter words match the code scanner but carry no digits, so they
	// must not be mistaken for model numbers.
	state := turnState(model.IntentGeneralQuestion, "IS THIS WORKING PROPERLY")
	result := c.Classify(context.Background(), state)

	assert.Empty(t, result.Entities["model_number"])
}

func TestClassifyKeepsExtractedCodes(t *testing.T) {
	llm := &scriptedModel{reply: `{
		"intent": "compatibility_check",
		"entities": {"part_number": "PS99999999", "model_number": "XYZ123"},
		"confidence": 0.9
	}`}
	c := NewClassifier(llm, rules.Default(), 3)

	state := turnState(model.IntentGeneralQuestion, "will PS11701542 fit my WDT780SAEM1")
	result := c.Classify(context.Background(), state)

	// The model's own extraction wins over the token-rule supplement.
	assert.Equal(t, "PS99999999", result.Entities["part_number"])
	assert.Equal(t, "XYZ123", result.Entities["model_number"])
}

func TestClassifyPromptCarriesConversationContext(t *testing.T) {
	llm := &scriptedModel{reply: `{"intent": "general_question", "entities": {}, "confidence": 0.9}`}
	c := NewClassifier(llm, rules.Default(), 3)

	state := model.NewConversationState("conv-1")
	state.BeginTurn("my ice maker is broken")
	state.FinishTurn("sorry to hear that")
	state.ApplianceType = "refrigerator"
	state.WaitingFor = model.WaitingForModelNumber
	state.BeginTurn("WDT780SAEM1")

	_ = c.Classify(context.Background(), state)

	require.Len(t, llm.calls, 1)
	prompt := llm.lastUserPrompt()
	assert.Contains(t, prompt, "WDT780SAEM1")
	assert.Contains(t, prompt, "waiting for: model_number")
	assert.Contains(t, prompt, "refrigerator")
	assert.Contains(t, prompt, "my ice maker is broken")
}
