// Package observers logs what the agent graph does through Eino callbacks.
package observers

import (
	"context"
	"strings"
	"time"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	callbackHelper "github.com/cloudwego/eino/utils/callbacks"
	"github.com/rs/zerolog"

	logx "github.com/synapse-ia/salesagent/pkg/logger"
)

type startedAtKey struct{}

func markStart(ctx context.Context) context.Context {
	return context.WithValue(ctx, startedAtKey{}, time.Now())
}

func elapsed(ctx context.Context) time.Duration {
	if t, ok := ctx.Value(startedAtKey{}).(time.Time); ok {
		return time.Since(t)
	}
	return 0
}

// runObserver tags every callback log line with the run it belongs to.
type runObserver struct {
	log zerolog.Logger
}

// ForRun returns a callbacks handler covering the model, tool and prompt
// components of one agent run.
func ForRun(runID string) einocb.Handler {
	o := runObserver{log: logx.With().Str("run_id", runID).Logger()}
	return callbackHelper.NewHandlerHelper().
		ChatModel(o.model()).
		Tool(o.tool()).
		Prompt(o.prompt()).
		Handler()
}

func (o runObserver) failed(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
	o.log.Error().Err(err).
		Str("component", string(info.Component)).
		Str("name", info.Name).
		Dur("elapsed", elapsed(ctx)).
		Msg("Graph component failed")
	return ctx
}

func (o runObserver) model() *callbackHelper.ModelCallbackHandler {
	return &callbackHelper.ModelCallbackHandler{
		OnStart: func(ctx context.Context, info *einocb.RunInfo, in *model.CallbackInput) context.Context {
			ev := o.log.Debug().Str("name", info.Name)
			if in != nil {
				ev = ev.Int("messages", len(in.Messages)).Str("lead", lastLeadMessage(in.Messages))
			}
			ev.Msg("Model call started")
			return markStart(ctx)
		},
		OnEnd: func(ctx context.Context, info *einocb.RunInfo, out *model.CallbackOutput) context.Context {
			ev := o.log.Debug().Str("name", info.Name).Dur("elapsed", elapsed(ctx))
			if out != nil && out.Message != nil {
				ev = ev.Int("reply_chars", len(out.Message.Content)).Int("tool_calls", len(out.Message.ToolCalls))
			}
			if out != nil && out.TokenUsage != nil {
				ev = ev.Int("total_tokens", out.TokenUsage.TotalTokens)
			}
			ev.Msg("Model call finished")
			return ctx
		},
		OnError: o.failed,
	}
}

func (o runObserver) tool() *callbackHelper.ToolCallbackHandler {
	return &callbackHelper.ToolCallbackHandler{
		OnStart: func(ctx context.Context, info *einocb.RunInfo, in *tool.CallbackInput) context.Context {
			ev := o.log.Debug().Str("tool", info.Name)
			if in != nil {
				ev = ev.Str("arguments", in.ArgumentsInJSON)
			}
			ev.Msg("Tool started")
			return markStart(ctx)
		},
		OnEnd: func(ctx context.Context, info *einocb.RunInfo, out *tool.CallbackOutput) context.Context {
			ev := o.log.Info().Str("tool", info.Name).Dur("elapsed", elapsed(ctx))
			if out != nil {
				ev = ev.Str("response", out.Response)
			}
			ev.Msg("Tool finished")
			return ctx
		},
		OnError: o.failed,
	}
}

func (o runObserver) prompt() *callbackHelper.PromptCallbackHandler {
	return &callbackHelper.PromptCallbackHandler{
		OnEnd: func(ctx context.Context, info *einocb.RunInfo, out *prompt.CallbackOutput) context.Context {
			ev := o.log.Debug().Str("name", info.Name)
			if out != nil && len(out.Result) > 0 && out.Result[0] != nil {
				ev = ev.Int("prompt_chars", len(out.Result[0].Content))
			}
			ev.Msg("Persona prompt rendered")
			return ctx
		},
		OnError: o.failed,
	}
}

func lastLeadMessage(msgs []*schema.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if m := msgs[i]; m != nil && m.Role == schema.User {
			return strings.TrimSpace(m.Content)
		}
	}
	return ""
}
