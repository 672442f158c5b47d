package nodes

import (
	"context"
	"errors"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/partpilot/server/internal/agent/model"
)

// scriptedModel returns one canned reply and records every prompt it saw.
type scriptedModel struct {
	reply string
	err   error
	calls [][]*schema.Message
}

func (m *scriptedModel) Generate(_ context.Context, input []*schema.Message, _ ...einomodel.Option) (*schema.Message, error) {
	m.calls = append(m.calls, input)
	if m.err != nil {
		return nil, m.err
	}
	return schema.AssistantMessage(m.reply, nil), nil
}

func (m *scriptedModel) Stream(context.Context, []*schema.Message, ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("streaming not supported")
}

// lastUserPrompt returns the user message of the most recent call.
func (m *scriptedModel) lastUserPrompt() string {
	if len(m.calls) == 0 {
		return ""
	}
	for _, msg := range m.calls[len(m.calls)-1] {
		if msg.Role == schema.User {
			return msg.Content
		}
	}
	return ""
}

func turnState(intent model.Intent, query string) *model.ConversationState {
	state := model.NewConversationState("conv-1")
	state.BeginTurn(query)
	state.Intent = intent
	return state
}

func candidate(number, name string, price float64) model.Part {
	return model.Part{PartNumber: number, Name: name, Brand: "Whirlpool", Price: price, InStock: true}
}
