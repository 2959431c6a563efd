package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/synapse-ia/salesagent/internal/agent/graph/conversations"
	"github.com/synapse-ia/salesagent/internal/agent/graph/nodes"
	"github.com/synapse-ia/salesagent/internal/agent/graph/prompts"
	"github.com/synapse-ia/salesagent/internal/agent/graph/tools"
	"github.com/synapse-ia/salesagent/internal/agent/model"
	"github.com/synapse-ia/salesagent/internal/router"
	logx "github.com/synapse-ia/salesagent/pkg/logger"
)

// Config holds everything needed to compose the response graph.
// When ChatModels is nil a Gemini model is built from APIKey/BaseURL/ResponseModel.
type Config struct {
	APIKey           string
	BaseURL          string
	ChatModels       *nodes.ChatModels
	ResponseModel    model.ResponseModelConfig
	Prompt           prompts.PromptConfig
	Conversation     model.ConversationConfig
	ConversationRepo model.ConversationRepository
	Tools            tools.Dependencies
	Router           *router.Router
}

type salesGraph = compose.Graph[model.QueryInput, *schema.Message]

// BuildResponseGraph wires the persona graph
//
//	START -> InputConverter -> ResponseChatModel <-> ToolExecutor -> END
//
// and returns a Runner that picks the persona for each turn.
func BuildResponseGraph(ctx context.Context, cfg Config) (Runner, error) {
	if cfg.ConversationRepo == nil {
		return nil, errors.New("conversation repo is nil")
	}
	if cfg.Router == nil {
		cfg.Router = router.Default()
	}

	cms := cfg.ChatModels
	if cms == nil {
		var err error
		if cms, err = nodes.NewChatModels(ctx, nodes.ChatModelConfig{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			RespConfig: &cfg.ResponseModel,
		}); err != nil {
			return nil, err
		}
	}
	if cms.Response == nil {
		return nil, errors.New("response model is nil")
	}

	maxTools := cfg.Conversation.Tools.MaxCalls
	transcripts := conversations.NewTranscripts(cfg.ConversationRepo, cfg.Conversation)
	g := compose.NewGraph[model.QueryInput, *schema.Message](
		compose.WithGenLocalState(func(context.Context) *model.RunState { return &model.RunState{} }),
	)

	toolsNode, err := newToolsNode(ctx, cms, cfg.Tools)
	if err != nil {
		return nil, err
	}

	steps := []struct {
		name string
		add  func() error
	}{
		{nodes.NodeInputConverter, func() error {
			return g.AddLambdaNode(nodes.NodeInputConverter,
				nodes.NewInputConverterNode(transcripts, &cfg.Prompt),
				compose.WithStatePreHandler(nodes.StartRun(maxTools)))
		}},
		{nodes.NodeResponseChatModel, func() error {
			return g.AddChatModelNode(nodes.NodeResponseChatModel, cms.Response,
				compose.WithStatePreHandler(nodes.BeforeResponse()),
				compose.WithStatePostHandler(nodes.AfterResponse(transcripts, cms.ResponseModelName)))
		}},
		{nodes.NodeToolExecutor, func() error {
			return g.AddToolsNode(nodes.NodeToolExecutor, toolsNode,
				compose.WithStatePreHandler(nodes.BeforeTools()))
		}},
		{"edges", func() error { return addEdges(g) }},
		{"branch", func() error {
			return g.AddBranch(nodes.NodeResponseChatModel, compose.NewGraphBranch(nodes.RouteAfterResponse,
				map[string]bool{nodes.NodeToolExecutor: true, compose.END: true}))
		}},
	}
	for _, s := range steps {
		if err := s.add(); err != nil {
			return nil, fmt.Errorf("graph %s: %w", s.name, err)
		}
	}

	// every tool round costs two steps; leave room for the wrap-up turn
	runnable, err := g.Compile(ctx, compose.WithMaxRunSteps(max(20, 10+2*maxTools)))
	if err != nil {
		return nil, fmt.Errorf("compile graph: %w", err)
	}

	logx.Debug().Str("model", cms.ResponseModelName).Int("max_tool_calls", maxTools).Msg("Response graph ready")
	return &graphRunner{runnable: runnable, router: cfg.Router}, nil
}

func addEdges(g *salesGraph) error {
	for _, e := range [][2]string{
		{compose.START, nodes.NodeInputConverter},
		{nodes.NodeInputConverter, nodes.NodeResponseChatModel},
		{nodes.NodeToolExecutor, nodes.NodeResponseChatModel},
	} {
		if err := g.AddEdge(e[0], e[1]); err != nil {
			return fmt.Errorf("%s -> %s: %w", e[0], e[1], err)
		}
	}
	return nil
}

// newToolsNode binds the sales tools to the response model and builds the
// node that executes them.
func newToolsNode(ctx context.Context, cms *nodes.ChatModels, deps tools.Dependencies) (*compose.ToolsNode, error) {
	salesTools := tools.GetQueryTools(deps)
	infos, err := tools.GetToolInfos(ctx, salesTools)
	if err != nil {
		return nil, err
	}
	if err := cms.BindTools(infos); err != nil {
		return nil, err
	}

	return compose.NewToolNode(ctx, &compose.ToolsNodeConfig{
		Tools:                salesTools,
		ExecuteSequentially:  true,
		UnknownToolsHandler:  unknownTool,
		ToolArgumentsHandler: sanitizeToolArguments,
	})
}

// unknownTool answers hallucinated tool calls so the run can continue.
func unknownTool(_ context.Context, name, input string) (string, error) {
	logx.Warn().Str("tool_name", name).Str("arguments", input).Msg("Model called an unknown tool")
	b, _ := json.Marshal(map[string]string{"error": "unknown_tool", "name": name})
	return string(b), nil
}

// sanitizeToolArguments is best-effort; it never fails the tool call.
func sanitizeToolArguments(_ context.Context, name, arguments string) (string, error) {
	if name != tools.ToolNotifyLead {
		return arguments, nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return arguments, nil
	}

	for _, key := range []string{"lead_info", "message"} {
		switch v := args[key].(type) {
		case nil:
			delete(args, key)
		case string:
			args[key] = strings.TrimSpace(v)
		default:
			// models sometimes send the summary as an object
			if raw, err := json.Marshal(v); err == nil {
				args[key] = string(raw)
			}
		}
	}

	out, err := json.Marshal(args)
	if err != nil {
		return arguments, nil
	}
	return string(out), nil
}
