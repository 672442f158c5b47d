package observers

import (
	"context"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/prompt"
	callbackHelper "github.com/cloudwego/eino/utils/callbacks"

	logx "github.com/partpilot/server/pkg/logger"
)

// newPromptHandler traces prompt template rendering. Content stays out of
// the logs; only sizes and template names are recorded.
func newPromptHandler() *callbackHelper.PromptCallbackHandler {
	return &callbackHelper.PromptCallbackHandler{
		OnStart: func(ctx context.Context, info *einocb.RunInfo, input *prompt.CallbackInput) context.Context {
			variables := 0
			if input != nil {
				variables = len(input.Variables)
			}
			logx.Debug().
				Str("prompt", info.Name).
				Int("variables", variables).
				Msg("prompt render started")
			return ctx
		},
		OnEnd: func(ctx context.Context, info *einocb.RunInfo, output *prompt.CallbackOutput) context.Context {
			rendered := 0
			if output != nil {
				for _, msg := range output.Result {
					if msg != nil {
						rendered += len(msg.Content)
					}
				}
			}
			logx.Debug().
				Str("prompt", info.Name).
				Int("rendered_bytes", rendered).
				Msg("prompt render finished")
			return ctx
		},
		OnError: func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			logx.Warn().
				Err(err).
				Str("prompt", info.Name).
				Msg("prompt render failed")
			return ctx
		},
	}
}
