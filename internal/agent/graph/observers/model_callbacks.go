package observers

import (
	"context"

	einocb "github.com/cloudwego/eino/callbacks"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	callbackHelper "github.com/cloudwego/eino/utils/callbacks"

	"github.com/partpilot/server/internal/agent/model"
	"github.com/partpilot/server/internal/metrics"
	logx "github.com/partpilot/server/pkg/logger"
)

// stageOps maps a pipeline stage to the model operation it performs.
var stageOps = map[string]string{
	"understand": "classify",
	"recommend":  "rank",
	"respond":    "reply",
}

// currentOp resolves the running model operation from the turn trace. Model
// calls always happen inside a stage lambda, so the last visited stage names
// the operation.
func currentOp(ctx context.Context) string {
	op := "unknown"
	_ = compose.ProcessState(ctx, func(_ context.Context, state *model.TurnState) error {
		if len(state.Stages) == 0 {
			return nil
		}
		stage := state.Stages[len(state.Stages)-1]
		if mapped, ok := stageOps[stage]; ok {
			op = mapped
		} else {
			op = stage
		}
		return nil
	})
	return op
}

// usageOf extracts token usage from a model callback output.
func usageOf(output *einomodel.CallbackOutput) *schema.TokenUsage {
	if output == nil {
		return nil
	}
	if output.Message != nil && output.Message.ResponseMeta != nil && output.Message.ResponseMeta.Usage != nil {
		return output.Message.ResponseMeta.Usage
	}
	if output.TokenUsage != nil {
		return &schema.TokenUsage{
			PromptTokens:     output.TokenUsage.PromptTokens,
			CompletionTokens: output.TokenUsage.CompletionTokens,
			TotalTokens:      output.TokenUsage.TotalTokens,
		}
	}
	return nil
}

// newModelHandler counts, logs and cost-accounts every chat model call.
func newModelHandler() *callbackHelper.ModelCallbackHandler {
	return &callbackHelper.ModelCallbackHandler{
		OnStart: func(ctx context.Context, info *einocb.RunInfo, input *einomodel.CallbackInput) context.Context {
			messages := 0
			if input != nil {
				messages = len(input.Messages)
			}
			logx.Debug().
				Str("op", currentOp(ctx)).
				Str("component", info.Name).
				Int("messages", messages).
				Msg("model call started")
			return ctx
		},
		OnEnd: func(ctx context.Context, info *einocb.RunInfo, output *einomodel.CallbackOutput) context.Context {
			op := currentOp(ctx)
			metrics.ModelCalls.WithLabelValues(op, metrics.OutcomeOK).Inc()

			modelName := info.Name
			if output != nil && output.Config != nil && output.Config.Model != "" {
				modelName = output.Config.Model
			}

			var totalCost float64
			usage := usageOf(output)
			if usage != nil && model.CostEnabled() {
				_, _, totalCost = model.ComputeCost(usage, model.ResolvePricing(modelName))
			}

			_ = compose.ProcessState(ctx, func(_ context.Context, state *model.TurnState) error {
				state.ModelCalls++
				state.TotalCostUSD += totalCost
				return nil
			})

			event := logx.Debug().Str("op", op).Str("model", modelName)
			if usage != nil {
				event = event.
					Int("prompt_tokens", usage.PromptTokens).
					Int("completion_tokens", usage.CompletionTokens).
					Int("total_tokens", usage.TotalTokens).
					Float64("cost_usd", totalCost)
			}
			event.Msg("model call finished")
			return ctx
		},
		OnError: func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			op := currentOp(ctx)
			metrics.ModelCalls.WithLabelValues(op, metrics.OutcomeError).Inc()

			_ = compose.ProcessState(ctx, func(_ context.Context, state *model.TurnState) error {
				state.ModelCalls++
				return nil
			})

			logx.Warn().Err(err).Str("op", op).Msg("model call failed")
			return ctx
		},
	}
}
