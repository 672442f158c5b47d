package render

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partpilot/server/internal/agent/model"
	"github.com/partpilot/server/internal/rules"
)

func noFacts(context.Context, string, string) (*model.CompatibilityFact, error) {
	return nil, nil
}

func factsFor(fact *model.CompatibilityFact) CompatibilityFacts {
	return func(_ context.Context, partNumber, modelNumber string) (*model.CompatibilityFact, error) {
		if fact != nil && fact.PartNumber == partNumber && fact.ModelNumber == modelNumber {
			return fact, nil
		}
		return nil, nil
	}
}

func compatState(query string) *model.ConversationState {
	state := renderState(model.IntentCompatibilityCheck, query)
	return state
}

func TestCompatibilityCrossPartShortCircuit(t *testing.T) {
	r := New(rules.Default(), noGuides)
	state := compatState("will W10190965 work instead of PS11701542?")
	state.RecommendedParts = recommended(icePart())

	reply, waiting, err := r.Compatibility(context.Background(), state, noFacts)
	require.NoError(t, err)
	assert.Empty(t, waiting)
	assert.True(t, strings.HasPrefix(reply, "**Yes, W10190965 and PS11701542 are compatible!**"))
	assert.Contains(t, reply, "listed as compatible replacements for each other")
}

func TestCompatibilityBothMissing(t *testing.T) {
	r := New(rules.Default(), noGuides)
	state := compatState("will this fit my fridge?")

	reply, waiting, err := r.Compatibility(context.Background(), state, noFacts)
	require.NoError(t, err)
	assert.Empty(t, waiting)
	assert.Equal(t, bothMissingReply, reply)
}

func TestCompatibilityPartOnlyAsksForModel(t *testing.T) {
	r := New(rules.Default(), noGuides)
	state := compatState("is the ice maker compatible with my fridge?")
	state.RecommendedParts = recommended(icePart())

	reply, waiting, err := r.Compatibility(context.Background(), state, noFacts)
	require.NoError(t, err)
	assert.Equal(t, model.WaitingForModelNumber, waiting)
	assert.Contains(t, reply, "To check if **Ice Maker Assembly** (PS11701542) will fit")
	assert.Contains(t, reply, "What's your model number?")
}

func TestCompatibilityPartOnlyFlagsSecondPartNumber(t *testing.T) {
	r := New(rules.Default(), noGuides)
	// W10999999 matches the part-number shape but is not in the replace list.
	state := compatState("will it fit W10999999?")
	state.RecommendedParts = recommended(icePart())

	reply, waiting, err := r.Compatibility(context.Background(), state, noFacts)
	require.NoError(t, err)
	assert.Equal(t, model.WaitingForModelNumber, waiting)
	assert.Contains(t, reply, "I notice you mentioned **W10999999** - this appears to be a **part number**, not a model number.")
	assert.Contains(t, reply, "Once you have your model number, I can check if part PS11701542 will fit!")
}

func TestCompatibilityModelOnlyAsksForPart(t *testing.T) {
	r := New(rules.Default(), noGuides)
	state := compatState("will parts fit my WRS325SDHZ?")
	state.ModelNumber = "WRS325SDHZ"

	reply, waiting, err := r.Compatibility(context.Background(), state, noFacts)
	require.NoError(t, err)
	assert.Equal(t, model.WaitingForPartNumber, waiting)
	assert.Contains(t, reply, "I see your model number is **WRS325SDHZ**.")
	assert.Contains(t, reply, `- Or describe the part (like "water filter" or "ice maker")`)
}

func TestCompatibilityDetailedFactHit(t *testing.T) {
	fact := &model.CompatibilityFact{
		PartNumber:      "PS11701542",
		ModelNumber:     "WRS325SDHZ",
		Compatible:      true,
		ConfidenceScore: 0.98,
		Notes:           "Direct replacement.",
	}
	r := New(rules.Default(), noGuides)
	state := compatState("will PS11701542 fit my WRS325SDHZ?")
	state.ModelNumber = "WRS325SDHZ"
	part := icePart()
	part.Specifications.ReplaceParts = nil
	state.RecommendedParts = recommended(part)

	reply, waiting, err := r.Compatibility(context.Background(), state, factsFor(fact))
	require.NoError(t, err)
	assert.Empty(t, waiting)
	assert.Contains(t, reply, "**Compatibility Check**\n\n")
	assert.Contains(t, reply, "**Part:** Ice Maker Assembly (PS11701542)\n")
	assert.Contains(t, reply, "**Your Model:** WRS325SDHZ\n")
	assert.Contains(t, reply, "✅ **Yes, this part is compatible with your WRS325SDHZ!**\n")
	assert.Contains(t, reply, "Confidence: 98%\n")
	assert.Contains(t, reply, "**Note:** Direct replacement.\n")
	assert.Contains(t, reply, "Stock Status: ✅ In stock\n")
}

func TestCompatibilityIncompatibleFactFallsThroughToReplaceList(t *testing.T) {
	fact := &model.CompatibilityFact{
		PartNumber:  "PS11701542",
		ModelNumber: "WRS325SDHZ",
		Compatible:  false,
	}
	r := New(rules.Default(), noGuides)
	state := compatState("check PS11701542 against WRS325SDHZ")
	state.ModelNumber = "WRS325SDHZ"
	part := icePart()
	part.Specifications.ReplaceParts = []string{"wrs325sdhz"}
	state.RecommendedParts = recommended(part)

	reply, _, err := r.Compatibility(context.Background(), state, factsFor(fact))
	require.NoError(t, err)
	assert.Contains(t, reply, "Your model number **WRS325SDHZ** is listed as a compatible replacement.")
	assert.NotContains(t, reply, "Confidence:")
}

func TestCompatibilityUniversalFilterHeuristic(t *testing.T) {
	r := New(rules.Default(), noGuides)
	state := compatState("does this filter fit my WRS325SDHZ?")
	state.ModelNumber = "WRS325SDHZ"
	state.RecommendedParts = recommended(model.Part{
		PartNumber: "PS2179605",
		Name:       "Whirlpool Refrigerator Water Filter",
		Category:   "refrigerator",
		Brand:      "Whirlpool",
		Price:      49.99,
		InStock:    true,
		Specifications: model.Specifications{
			ReplaceParts: []string{"EDR1RXD1", "W10295370", "W10295370A"},
		},
	})

	reply, waiting, err := r.Compatibility(context.Background(), state, noFacts)
	require.NoError(t, err)
	assert.Empty(t, waiting)
	// Universal replies keep the raw product name.
	assert.Contains(t, reply, "✅ **This Whirlpool Refrigerator Water Filter should be compatible with your WRS325SDHZ!**")
	assert.Contains(t, reply, "This is a Whirlpool refrigerator part that works with multiple models.")
	assert.Contains(t, reply, "**Also replaces:** EDR1RXD1, W10295370, W10295370A\n")
	assert.Contains(t, reply, "💡 **Tip:** Double-check the product page to confirm your model is listed.")
}

func TestCompatibilityInconclusive(t *testing.T) {
	r := New(rules.Default(), noGuides)
	state := compatState("check compatibility")
	state.ModelNumber = "XRX900ZZ"
	part := icePart()
	part.Specifications.ReplaceParts = nil
	state.RecommendedParts = recommended(part)

	reply, waiting, err := r.Compatibility(context.Background(), state, noFacts)
	require.NoError(t, err)
	assert.Empty(t, waiting)
	assert.Contains(t, reply, "⚠️ **I couldn't confirm compatibility for this combination.**")
	assert.Contains(t, reply, "2. Look for your model number (XRX900ZZ) in the specifications\n")
	assert.Contains(t, reply, "3. Contact Whirlpool support to confirm\n")
}

func TestCompatibilityFactsErrorPropagates(t *testing.T) {
	failing := func(context.Context, string, string) (*model.CompatibilityFact, error) {
		return nil, errors.New("catalog offline")
	}
	r := New(rules.Default(), noGuides)
	state := compatState("check PS11701542 on WRS325SDHZ")
	state.ModelNumber = "WRS325SDHZ"
	state.RecommendedParts = recommended(icePart())

	_, _, err := r.Compatibility(context.Background(), state, failing)
	assert.Error(t, err)
}
