package prompts

import (
	"context"
	_ "embed"
)

//go:embed template/reply_prompt.txt
var replySystemPrompt string

// RenderReplySystem renders the conversational system prompt used for
// general questions that skip retrieval entirely.
func RenderReplySystem(ctx context.Context) (string, error) {
	return renderStatic(ctx, "reply", replySystemPrompt)
}
