package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseIntent(t *testing.T) {
	for _, in := range Intents {
		parsed, ok := ParseIntent(string(in))
		assert.True(t, ok)
		assert.Equal(t, in, parsed)
	}

	parsed, ok := ParseIntent("order_pizza")
	assert.False(t, ok)
	assert.Equal(t, IntentGeneralQuestion, parsed)
}

func TestNeedsSearch(t *testing.T) {
	wantSearch := map[Intent]bool{
		IntentSearchPart:         true,
		IntentDiagnoseIssue:      true,
		IntentInstallationHelp:   true,
		IntentCompatibilityCheck: true,
		IntentProductDetails:     true,
		IntentGeneralQuestion:    false,
	}
	for in, want := range wantSearch {
		assert.Equal(t, want, in.NeedsSearch(), "intent %s", in)
	}
}

func TestNeedsContext(t *testing.T) {
	wantContext := map[Intent]bool{
		IntentSearchPart:         false,
		IntentDiagnoseIssue:      true,
		IntentInstallationHelp:   true,
		IntentCompatibilityCheck: false,
		IntentProductDetails:     false,
		IntentGeneralQuestion:    false,
	}
	for in, want := range wantContext {
		assert.Equal(t, want, in.NeedsContext(), "intent %s", in)
	}
}

func TestFallbackClassification(t *testing.T) {
	c := FallbackClassification("what's the meaning of life")

	assert.Equal(t, IntentGeneralQuestion, c.Intent)
	assert.Equal(t, DefaultConfidence, c.Confidence)
	assert.Equal(t, ClassifyMethodFallback, c.Method)
	assert.Equal(t, "what's the meaning of life", c.Entities["query"])
}
