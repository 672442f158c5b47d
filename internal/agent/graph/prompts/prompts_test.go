package prompts

import (
	"context"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partpilot/server/internal/agent/model"
)

func TestRenderClassifySystemListsEveryIntent(t *testing.T) {
	out, err := RenderClassifySystem(context.Background())
	require.NoError(t, err)
	for _, intent := range model.Intents {
		assert.Contains(t, out, intent.String())
	}
	assert.Contains(t, out, "valid JSON")
}

func TestClassifyUserBareQuery(t *testing.T) {
	state := model.NewConversationState("c1")
	state.BeginTurn("my ice maker stopped working")

	out := ClassifyUser(state, 3)

	assert.Contains(t, out, `"my ice maker stopped working"`)
	assert.NotContains(t, out, "Conversation context")
}

func TestClassifyUserCarriesContext(t *testing.T) {
	state := model.NewConversationState("c1")
	state.TurnHistory = []string{"I need a water filter", "will it fit?"}
	state.Intent = model.IntentCompatibilityCheck
	state.ApplianceType = "refrigerator"
	state.PartNumber = "PS11701542"
	state.WaitingFor = model.WaitingForModelNumber
	state.BeginTurn("WRS325SDHZ")

	out := ClassifyUser(state, 3)

	assert.Contains(t, out, "Assistant is waiting for: model_number")
	assert.Contains(t, out, "Known appliance: refrigerator")
	assert.Contains(t, out, "Known part number: PS11701542")
	assert.Contains(t, out, "Previous queries: I need a water filter, will it fit?")
	assert.Contains(t, out, "Previous intent: compatibility_check")
}

func TestClassifyUserLimitsHistory(t *testing.T) {
	state := model.NewConversationState("c1")
	state.TurnHistory = []string{"one", "two", "three", "four"}
	state.BeginTurn("five")

	out := ClassifyUser(state, 3)

	assert.NotContains(t, out, "one")
	assert.Contains(t, out, "two, three, four")
}

func TestRenderRankSystemSubstitutesTopN(t *testing.T) {
	out, err := RenderRankSystem(context.Background(), 3)
	require.NoError(t, err)
	assert.Contains(t, out, "TOP 3")
	assert.Contains(t, out, "recommended_parts")
	assert.NotContains(t, out, "{top_n}")
}

func TestRankUserSerializesCandidates(t *testing.T) {
	state := model.NewConversationState("c1")
	state.ApplianceType = "refrigerator"
	state.Symptoms = []string{"not making ice"}
	state.BeginTurn("my ice maker stopped working")

	out, err := RankUser(state, []model.Part{
		{PartNumber: "PS1", Name: "Ice Maker Assembly", Price: 109.95, Brand: "Whirlpool", InStock: true},
		{PartNumber: "PS2", Name: "Water Valve", Price: 39.5, Brand: "GE", InStock: false},
	})
	require.NoError(t, err)
	require.True(t, len(out) > len("Context: "))

	var rc rankContext
	require.NoError(t, sonic.Unmarshal([]byte(out[len("Context: "):]), &rc))
	assert.Equal(t, "my ice maker stopped working", rc.UserQuery)
	assert.Equal(t, []string{"not making ice"}, rc.Symptoms)
	require.Len(t, rc.AvailableProducts, 2)
	assert.Equal(t, "PS1", rc.AvailableProducts[0].PartNumber)
	assert.True(t, rc.AvailableProducts[0].InStock)
}

func TestRenderReplySystem(t *testing.T) {
	out, err := RenderReplySystem(context.Background())
	require.NoError(t, err)
	assert.Contains(t, out, "appliance parts assistant")
}
