package graph

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	"github.com/synapse-ia/salesagent/internal/agent/graph/nodes"
	"github.com/synapse-ia/salesagent/internal/agent/graph/observers"
	"github.com/synapse-ia/salesagent/internal/agent/graph/prompts"
	"github.com/synapse-ia/salesagent/internal/agent/model"
	errx "github.com/synapse-ia/salesagent/internal/core/error"
	"github.com/synapse-ia/salesagent/internal/router"
	logx "github.com/synapse-ia/salesagent/pkg/logger"
)

// Runner executes the compiled graph for one user turn.
type Runner interface {
	Invoke(ctx context.Context, in model.QueryInput) (*model.QueryOutput, error)
}

type graphRunner struct {
	runnable compose.Runnable[model.QueryInput, *schema.Message]
	router   *router.Router
}

// persona resolves the requested persona, or asks the router when none is
// given. The second result is the intent the persona serves.
func (r *graphRunner) persona(in model.QueryInput) (model.Persona, string, error) {
	if in.Persona != "" {
		p, ok := prompts.LookupPersona(in.Persona)
		if !ok {
			return model.Persona{}, "", errx.New(fmt.Errorf("unknown persona %q", in.Persona), http.StatusNotFound, "persona not found")
		}
		return p, p.Intent, nil
	}

	d := r.router.Route(in.Query)
	for _, id := range d.Handlers {
		if p, ok := prompts.LookupPersona(id); ok {
			return p, d.Intent.String(), nil
		}
	}
	return model.Persona{}, "", fmt.Errorf("no persona registered for intent %q", d.Intent)
}

func (r *graphRunner) Invoke(ctx context.Context, in model.QueryInput) (*model.QueryOutput, error) {
	if in.Query = strings.TrimSpace(in.Query); in.Query == "" {
		return nil, errx.New(errors.New("query is empty"), http.StatusBadRequest, "message is required")
	}
	in.ConversationID = firstNonEmpty(in.ConversationID, in.UserID, uuid.NewString())

	p, intent, err := r.persona(in)
	if err != nil {
		return nil, err
	}
	in.Persona = p.ID

	res := &model.QueryOutput{
		RunID:          uuid.NewString(),
		ConversationID: in.ConversationID,
		Persona:        p.ID,
		Intent:         intent,
	}
	log := logx.With().
		Str("run_id", res.RunID).
		Str("conversation_id", in.ConversationID).
		Str("persona", p.ID).
		Logger()

	start := time.Now()
	msg, err := r.runnable.Invoke(ctx, in, compose.WithCallbacks(observers.ForRun(res.RunID)))
	if err != nil {
		log.Error().Err(err).Msg("Agent run failed")
		return nil, errx.New(err, http.StatusBadGateway, errx.AgentErrorMessage)
	}
	if msg != nil {
		res.Content = strings.TrimSpace(msg.Content)
		res.CostUSD, _ = msg.Extra[nodes.ExtraTotalCost].(float64)
		res.ToolCalls, _ = msg.Extra[nodes.ExtraToolCalls].(int)
	}

	log.Info().
		Str("intent", intent).
		Int("tool_calls", res.ToolCalls).
		Float64("cost_usd", res.CostUSD).
		Dur("elapsed", time.Since(start)).
		Msg("Agent run finished")
	return res, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
