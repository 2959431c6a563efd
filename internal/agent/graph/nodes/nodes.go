package nodes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/synapse-ia/salesagent/internal/agent/graph/conversations"
	"github.com/synapse-ia/salesagent/internal/agent/graph/prompts"
	"github.com/synapse-ia/salesagent/internal/agent/model"
	logx "github.com/synapse-ia/salesagent/pkg/logger"
)

const toolLimitNotice = "SYSTEM NOTICE: You have reached the maximum tool call limit (%d). " +
	"Answer the lead now using what you already know, without calling tools."

// StartRun resets the graph state at the beginning of every run.
func StartRun(maxToolCalls int) func(context.Context, model.QueryInput, *model.RunState) (model.QueryInput, error) {
	return func(_ context.Context, in model.QueryInput, s *model.RunState) (model.QueryInput, error) {
		*s = model.NewRunState(in.ConversationID, in.Persona, maxToolCalls)
		return in, nil
	}
}

// NewInputConverterNode records the lead's message and returns the persona
// system prompt followed by the recent transcript.
func NewInputConverterNode(t *conversations.Transcripts, promptConfig *prompts.PromptConfig) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in model.QueryInput) ([]*schema.Message, error) {
		if err := t.RecordLead(ctx, in.ConversationID, in.Query); err != nil {
			return nil, fmt.Errorf("record lead message: %w", err)
		}
		system, err := prompts.RenderPersonaSystem(ctx, in.Persona, *promptConfig, in.UserID)
		if err != nil {
			return nil, fmt.Errorf("render persona prompt: %w", err)
		}
		msgs, err := t.Window(ctx, in.ConversationID, system)
		if err != nil {
			return nil, fmt.Errorf("load transcript: %w", err)
		}
		return msgs, nil
	})
}

// BeforeResponse appends the node input to the run transcript and, once the
// tool budget runs out, asks the model to wrap up.
func BeforeResponse() func(context.Context, []*schema.Message, *model.RunState) ([]*schema.Message, error) {
	return func(_ context.Context, in []*schema.Message, s *model.RunState) ([]*schema.Message, error) {
		pairToolResults(in, s.Transcript)
		s.Transcript = append(s.Transcript, in...)

		if s.Tools.ExhaustIfSpent() {
			s.Transcript = append(s.Transcript, schema.SystemMessage(fmt.Sprintf(toolLimitNotice, s.Tools.Limit())))
		}
		logx.Debug().Str("conversation_id", s.ConversationID).Str("persona", s.Persona).Msg("Calling response model")
		return s.Transcript, nil
	}
}

// pairToolResults fills missing tool_call_id values on tool results with the
// id of the latest assistant tool call.
func pairToolResults(results, transcript []*schema.Message) {
	var callID string
	for i := len(transcript) - 1; i >= 0; i-- {
		if m := transcript[i]; m != nil && m.Role == schema.Assistant && len(m.ToolCalls) > 0 {
			callID = m.ToolCalls[0].ID
			break
		}
	}
	if strings.TrimSpace(callID) == "" {
		return
	}
	for _, m := range results {
		if m != nil && m.Role == schema.Tool && strings.TrimSpace(m.ToolCallID) == "" {
			m.ToolCallID = callID
		}
	}
}

// AfterResponse prices the model call, names unnamed tool calls and persists
// the reply once the run is about to end.
func AfterResponse(t *conversations.Transcripts, modelName string) func(context.Context, *schema.Message, *model.RunState) (*schema.Message, error) {
	return func(ctx context.Context, out *schema.Message, s *model.RunState) (*schema.Message, error) {
		if out == nil {
			return nil, errors.New("response model returned no message")
		}
		if out.Extra == nil {
			out.Extra = map[string]any{}
		}
		chargeUsage(out, s, modelName)
		out.Extra[ExtraTotalCost] = s.CostUSD
		out.Extra[ExtraToolCalls] = s.Tools.Used
		out.Extra[ExtraPersona] = s.Persona

		for i := range out.ToolCalls {
			if strings.TrimSpace(out.ToolCalls[i].ID) == "" {
				out.ToolCalls[i].ID = s.Tools.NextCallID()
			}
		}
		s.Transcript = append(s.Transcript, out)

		if len(out.ToolCalls) > 0 && !s.Tools.Exhausted {
			return out, nil
		}
		if out.Role == schema.Assistant && strings.TrimSpace(out.Content) != "" {
			if err := t.RecordReply(ctx, s.ConversationID, out.Content); err != nil {
				logx.Error().Err(err).Str("conversation_id", s.ConversationID).Msg("Failed to record agent reply")
			}
		}
		return out, nil
	}
}

func chargeUsage(out *schema.Message, s *model.RunState, modelName string) {
	if out.ResponseMeta == nil {
		return
	}
	cost, ok := model.PriceUsage(modelName, out.ResponseMeta.Usage)
	if !ok {
		return
	}
	out.Extra[ExtraUsageCost] = cost.Extra()
	s.CostUSD += cost.TotalCost

	logx.Debug().
		Str("conversation_id", s.ConversationID).
		Str("model", modelName).
		Int("prompt_tokens", cost.PromptTokens).
		Int("completion_tokens", cost.CompletionTokens).
		Float64("total_cost_usd", cost.TotalCost).
		Msg("LLM usage")
}

// RouteAfterResponse sends tool calls to the executor until the budget is
// exhausted; everything else ends the run.
func RouteAfterResponse(ctx context.Context, out *schema.Message) (string, error) {
	var exhausted bool
	if err := compose.ProcessState(ctx, func(_ context.Context, s *model.RunState) error {
		exhausted = s.Tools.Exhausted
		return nil
	}); err != nil {
		return "", fmt.Errorf("read run state: %w", err)
	}
	if exhausted || len(out.ToolCalls) == 0 {
		return compose.END, nil
	}
	return NodeToolExecutor, nil
}

// BeforeTools spends one round of the tool budget.
func BeforeTools() func(context.Context, *schema.Message, *model.RunState) (*schema.Message, error) {
	return func(_ context.Context, in *schema.Message, s *model.RunState) (*schema.Message, error) {
		if s.Tools.Spend() {
			logx.Warn().
				Str("conversation_id", s.ConversationID).
				Int("used", s.Tools.Used).
				Int("limit", s.Tools.Limit()).
				Msg("Tool budget exceeded")
			return in, nil
		}
		logx.Debug().Str("conversation_id", s.ConversationID).Int("used", s.Tools.Used).Msg("Running tools")
		return in, nil
	}
}
