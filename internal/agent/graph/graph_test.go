package graph

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synapse-ia/salesagent/internal/agent/graph/nodes"
	"github.com/synapse-ia/salesagent/internal/agent/graph/prompts"
	"github.com/synapse-ia/salesagent/internal/agent/graph/tools"
	"github.com/synapse-ia/salesagent/internal/agent/model"
	"github.com/synapse-ia/salesagent/internal/agent/repo"
	errx "github.com/synapse-ia/salesagent/internal/core/error"
)

// scriptedModel replies with the next scripted message and records every input.
type scriptedModel struct {
	mu      sync.Mutex
	replies []func(in []*schema.Message) (*schema.Message, error)
	inputs  [][]*schema.Message
	tools   []*schema.ToolInfo
}

func (m *scriptedModel) Generate(_ context.Context, in []*schema.Message, _ ...einomodel.Option) (*schema.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.inputs = append(m.inputs, append([]*schema.Message(nil), in...))
	if len(m.replies) == 0 {
		return nil, errors.New("no scripted reply left")
	}
	next := m.replies[0]
	if len(m.replies) > 1 {
		m.replies = m.replies[1:]
	}
	return next(in)
}

func (m *scriptedModel) Stream(context.Context, []*schema.Message, ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("streaming not supported")
}

func (m *scriptedModel) WithTools(tools []*schema.ToolInfo) (einomodel.ToolCallingChatModel, error) {
	m.tools = tools
	return m, nil
}

func (m *scriptedModel) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.inputs)
}

func reply(content string) func([]*schema.Message) (*schema.Message, error) {
	return func([]*schema.Message) (*schema.Message, error) {
		return schema.AssistantMessage(content, nil), nil
	}
}

func notifyCall(args string) func([]*schema.Message) (*schema.Message, error) {
	return func([]*schema.Message) (*schema.Message, error) {
		return schema.AssistantMessage("", []schema.ToolCall{{
			Type:     "function",
			Function: schema.FunctionCall{Name: tools.ToolNotifyLead, Arguments: args},
		}}), nil
	}
}

type recordingSender struct {
	mu   sync.Mutex
	sent []string
}

func (r *recordingSender) SendText(_ context.Context, number, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, number+"|"+text)
	return nil
}

func newRunner(t *testing.T, m *scriptedModel, maxTools int, sender tools.TextSender) (Runner, model.ConversationRepository) {
	t.Helper()
	conversations := repo.NewMemoryConversationRepository(0)

	cfg := Config{
		ChatModels:       &nodes.ChatModels{Response: m, ResponseModelName: "gemini-2.5-flash"},
		Prompt:           prompts.PromptConfig{Business: model.ResponsePromptConfig{BusinessName: "Synapse IA"}},
		ConversationRepo: conversations,
		Tools:            tools.Dependencies{Sender: sender, LeadDestination: "5522999990000"},
	}
	cfg.Conversation.MaxTurns = 10
	cfg.Conversation.Tools.MaxCalls = maxTools

	runner, err := BuildResponseGraph(context.Background(), cfg)
	require.NoError(t, err)
	return runner, conversations
}

func TestRunnerRoutesAndPersists(t *testing.T) {
	ctx := context.Background()
	m := &scriptedModel{replies: []func([]*schema.Message) (*schema.Message, error){
		reply("Entendo a preocupação com o preço."),
	}}
	runner, conversations := newRunner(t, m, 3, nil)

	out, err := runner.Invoke(ctx, model.QueryInput{UserID: "5522992523549", Query: "é muito caro, tenho dúvidas"})
	require.NoError(t, err)

	assert.Equal(t, "Entendo a preocupação com o preço.", out.Content)
	assert.Equal(t, prompts.ObjectionHandler, out.Persona)
	assert.Equal(t, "objection", out.Intent)
	assert.Equal(t, "5522992523549", out.ConversationID, "user id doubles as session id")
	assert.NotEmpty(t, out.RunID)

	require.Equal(t, 1, m.calls())
	first := m.inputs[0]
	require.GreaterOrEqual(t, len(first), 2)
	assert.Equal(t, schema.System, first[0].Role)
	assert.Contains(t, first[0].Content, "tratar objeções")
	assert.Equal(t, "é muito caro, tenho dúvidas", first[len(first)-1].Content)

	require.Len(t, m.tools, 1)
	assert.Equal(t, tools.ToolNotifyLead, m.tools[0].Name)

	h, err := conversations.LoadHistory(ctx, "5522992523549")
	require.NoError(t, err)
	require.Len(t, h.Messages, 2)
	assert.Equal(t, schema.User, h.Messages[0].Role)
	assert.Equal(t, schema.Assistant, h.Messages[1].Role)
}

func TestRunnerReplaysHistory(t *testing.T) {
	ctx := context.Background()
	m := &scriptedModel{replies: []func([]*schema.Message) (*schema.Message, error){
		reply("Olá! Como posso ajudar?"),
		reply("Podemos agendar amanhã."),
	}}
	runner, _ := newRunner(t, m, 3, nil)

	_, err := runner.Invoke(ctx, model.QueryInput{ConversationID: "c1", Query: "Quero saber sobre automacao"})
	require.NoError(t, err)
	out, err := runner.Invoke(ctx, model.QueryInput{ConversationID: "c1", Query: "vamos marcar reunião"})
	require.NoError(t, err)
	assert.Equal(t, prompts.CommunicationManager, out.Persona)

	second := m.inputs[1]
	var contents []string
	for _, msg := range second[1:] {
		contents = append(contents, msg.Content)
	}
	assert.Equal(t, []string{"Quero saber sobre automacao", "Olá! Como posso ajudar?", "vamos marcar reunião"}, contents)
}

func TestRunnerPinnedPersona(t *testing.T) {
	m := &scriptedModel{replies: []func([]*schema.Message) (*schema.Message, error){reply("ok")}}
	runner, _ := newRunner(t, m, 3, nil)

	out, err := runner.Invoke(context.Background(), model.QueryInput{ConversationID: "c1", Query: "é muito caro", Persona: prompts.Closer})
	require.NoError(t, err)
	assert.Equal(t, prompts.Closer, out.Persona)
	assert.Equal(t, "closing", out.Intent)
}

func TestRunnerToolCall(t *testing.T) {
	sender := &recordingSender{}
	m := &scriptedModel{replies: []func([]*schema.Message) (*schema.Message, error){
		notifyCall(`{"lead_info":"  Dra. Ana, escritório trabalhista  "}`),
		func(in []*schema.Message) (*schema.Message, error) {
			last := in[len(in)-1]
			if last.Role != schema.Tool || last.ToolCallID != "call_1" {
				return nil, errors.New("tool result not paired with call id")
			}
			return schema.AssistantMessage("Perfeito, nossa equipe vai entrar em contato.", nil), nil
		},
	}}
	runner, conversations := newRunner(t, m, 3, sender)

	out, err := runner.Invoke(context.Background(), model.QueryInput{ConversationID: "c1", Query: "sou advogado e quero qualificar meu escritório"})
	require.NoError(t, err)

	assert.Equal(t, prompts.LeadQualifier, out.Persona)
	assert.Equal(t, "Perfeito, nossa equipe vai entrar em contato.", out.Content)
	assert.Equal(t, 1, out.ToolCalls)
	require.Len(t, sender.sent, 1)
	assert.True(t, strings.HasPrefix(sender.sent[0], "5522999990000|"))
	assert.Contains(t, sender.sent[0], "Dra. Ana, escritório trabalhista\n")

	n, err := conversations.GetMessageCount(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, 2, n, "tool round trips are not persisted")
}

func TestRunnerToolLimit(t *testing.T) {
	m := &scriptedModel{replies: []func([]*schema.Message) (*schema.Message, error){
		notifyCall(`{"lead_info":"x"}`),
	}}
	runner, _ := newRunner(t, m, 1, &recordingSender{})

	_, err := runner.Invoke(context.Background(), model.QueryInput{ConversationID: "c1", Query: "lead"})
	require.NoError(t, err)
	assert.Equal(t, 2, m.calls(), "loop stops once the limit is reached")

	last := m.inputs[1]
	assert.Contains(t, last[len(last)-1].Content, "maximum tool call limit")
}

func TestRunnerUsageCost(t *testing.T) {
	m := &scriptedModel{replies: []func([]*schema.Message) (*schema.Message, error){
		func([]*schema.Message) (*schema.Message, error) {
			msg := schema.AssistantMessage("ok", nil)
			msg.ResponseMeta = &schema.ResponseMeta{Usage: &schema.TokenUsage{PromptTokens: 1000, CompletionTokens: 100, TotalTokens: 1100}}
			return msg, nil
		},
	}}
	runner, _ := newRunner(t, m, 3, nil)

	out, err := runner.Invoke(context.Background(), model.QueryInput{ConversationID: "c1", Query: "oi"})
	require.NoError(t, err)
	assert.InDelta(t, 0.00055, out.CostUSD, 1e-9)
}

func TestRunnerModelFailure(t *testing.T) {
	m := &scriptedModel{replies: []func([]*schema.Message) (*schema.Message, error){
		func([]*schema.Message) (*schema.Message, error) { return nil, errors.New("quota exceeded") },
	}}
	runner, _ := newRunner(t, m, 3, nil)

	_, err := runner.Invoke(context.Background(), model.QueryInput{ConversationID: "c1", Query: "oi"})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, errx.StatusOf(err, 0))
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestRunnerValidation(t *testing.T) {
	m := &scriptedModel{replies: []func([]*schema.Message) (*schema.Message, error){reply("ok")}}
	runner, _ := newRunner(t, m, 3, nil)

	_, err := runner.Invoke(context.Background(), model.QueryInput{ConversationID: "c1", Query: "   "})
	assert.Equal(t, http.StatusBadRequest, errx.StatusOf(err, 0))

	_, err = runner.Invoke(context.Background(), model.QueryInput{ConversationID: "c1", Query: "oi", Persona: "support"})
	assert.Equal(t, http.StatusNotFound, errx.StatusOf(err, 0))

	assert.Zero(t, m.calls())
}

func TestSanitizeToolArguments(t *testing.T) {
	out, err := sanitizeToolArguments(context.Background(), tools.ToolNotifyLead, `{"lead_info":{"nome":"Ana"},"message":null}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"lead_info":"{\"nome\":\"Ana\"}"}`, out)

	out, err = sanitizeToolArguments(context.Background(), tools.ToolNotifyLead, `not json`)
	require.NoError(t, err)
	assert.Equal(t, "not json", out)
}

func TestUnknownToolAnswersWithError(t *testing.T) {
	out, err := unknownTool(context.Background(), "book_meeting", `{}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"unknown_tool","name":"book_meeting"}`, out)
}
