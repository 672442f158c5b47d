package nodes

import (
	"context"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/partpilot/server/internal/agent/graph/prompts"
	"github.com/partpilot/server/internal/agent/model"
	"github.com/partpilot/server/internal/render"
	logx "github.com/partpilot/server/pkg/logger"
)

// fallbackReply is returned when the general-question model call fails.
const fallbackReply = "I apologize, but I encountered an error. Could you please try rephrasing your question?"

// Responder turns the finished turn state into the assistant reply. Parts
// intents are rendered from templates; general questions go to the reply
// model. The compatibility intent may leave a waiting-for marker on the
// state when the user still owes a part or model number.
type Responder struct {
	llm      einomodel.BaseChatModel
	renderer *render.Renderer
	facts    render.CompatibilityFacts
}

// NewResponder wires the reply model, the template renderer and the
// compatibility fact lookup.
func NewResponder(llm einomodel.BaseChatModel, renderer *render.Renderer, facts render.CompatibilityFacts) *Responder {
	return &Responder{llm: llm, renderer: renderer, facts: facts}
}

// Respond renders the reply for the turn's intent. Store lookup failures
// propagate; a reply-model failure degrades to a static apology instead.
func (r *Responder) Respond(ctx context.Context, state *model.ConversationState) (string, error) {
	switch state.Intent {
	case model.IntentSearchPart:
		return r.renderer.Search(state), nil
	case model.IntentDiagnoseIssue:
		return r.renderer.Diagnosis(state), nil
	case model.IntentProductDetails:
		return r.renderer.ProductDetails(ctx, state)
	case model.IntentInstallationHelp:
		return r.renderer.Installation(ctx, state)
	case model.IntentCompatibilityCheck:
		reply, waitingFor, err := r.renderer.Compatibility(ctx, state, r.facts)
		if err != nil {
			return "", err
		}
		state.WaitingFor = waitingFor
		return reply, nil
	default:
		return r.generalReply(ctx, state), nil
	}
}

// generalReply asks the model for a free-form answer. Failures are logged
// and swallowed so a chat turn always produces a reply.
func (r *Responder) generalReply(ctx context.Context, state *model.ConversationState) string {
	system, err := prompts.RenderReplySystem(ctx)
	if err != nil {
		logx.Warn().
			Err(err).
			Str("conversation_id", state.ConversationID).
			Msg("reply prompt render failed")
		return fallbackReply
	}
	messages := []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(state.UserQuery),
	}

	resp, err := r.llm.Generate(ctx, messages)
	if err != nil {
		logx.Warn().
			Err(err).
			Str("conversation_id", state.ConversationID).
			Msg("reply generation failed")
		return fallbackReply
	}
	return resp.Content
}
