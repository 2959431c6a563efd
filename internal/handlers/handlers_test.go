package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synapse-ia/salesagent/internal/agent/model"
	errx "github.com/synapse-ia/salesagent/internal/core/error"
	"github.com/synapse-ia/salesagent/internal/router"
	"github.com/synapse-ia/salesagent/internal/whatsapp"
)

type fakeGateway struct {
	body []byte
	ack  whatsapp.Ack
}

func (g *fakeGateway) Handle(_ context.Context, body []byte) whatsapp.Ack {
	g.body = body
	return g.ack
}

type fakeRunner struct {
	in  model.QueryInput
	out *model.QueryOutput
	err error
}

func (r *fakeRunner) Invoke(_ context.Context, in model.QueryInput) (*model.QueryOutput, error) {
	r.in = in
	return r.out, r.err
}

func do(t *testing.T, app *fiber.App, method, target, body string) (*http.Response, string) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(raw)
}

func whatsappApp(gw Gateway, token string) *fiber.App {
	h := NewWhatsAppHandler(gw, WhatsAppInfo{Provider: "Evolution API", Instance: "synapse", Configured: true, VerifyToken: token})
	app := fiber.New()
	app.Get("/whatsapp/status", h.Status)
	app.Get("/whatsapp/webhook", h.Verify)
	app.Post("/whatsapp/webhook", h.Webhook)
	return app
}

func TestWhatsAppStatus(t *testing.T) {
	resp, body := do(t, whatsappApp(&fakeGateway{}, ""), "GET", "/whatsapp/status", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"active","provider":"Evolution API","instance":"synapse","configured":true}`, body)
}

func TestWhatsAppVerify(t *testing.T) {
	tests := []struct {
		name   string
		token  string
		target string
		status int
		body   string
	}{
		{"challenge echoed", "", "/whatsapp/webhook?hub.challenge=42", http.StatusOK, "42"},
		{"token matches", "secret", "/whatsapp/webhook?hub.mode=subscribe&hub.verify_token=secret&hub.challenge=abc", http.StatusOK, "abc"},
		{"token mismatch", "secret", "/whatsapp/webhook?hub.mode=subscribe&hub.verify_token=nope&hub.challenge=abc", http.StatusForbidden, ""},
		{"no challenge", "", "/whatsapp/webhook", http.StatusOK, ""},
		{"liveness check with token configured", "secret", "/whatsapp/webhook", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, whatsappApp(&fakeGateway{}, tt.token), "GET", tt.target, "")
			assert.Equal(t, tt.status, resp.StatusCode)
			if tt.body != "" {
				assert.Equal(t, tt.body, body)
			}
			if tt.status == http.StatusOK && tt.body == "" {
				assert.JSONEq(t, `{"status":"ok","message":"WhatsApp webhook is active"}`, body)
			}
		})
	}
}

func TestWhatsAppWebhookForwardsBody(t *testing.T) {
	gw := &fakeGateway{ack: whatsapp.Ack{Status: whatsapp.StatusProcessed}}
	payload := `{"from":"5511999999999","text":"oi"}`

	resp, body := do(t, whatsappApp(gw, ""), "POST", "/whatsapp/webhook", payload)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"processed"}`, body)
	assert.Equal(t, payload, string(gw.body))
}

func TestWhatsAppWebhookErrorAck(t *testing.T) {
	gw := &fakeGateway{ack: whatsapp.Ack{Status: whatsapp.StatusError, Error: "agent run failed"}}

	resp, body := do(t, whatsappApp(gw, ""), "POST", "/whatsapp/webhook", `{}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.JSONEq(t, `{"status":"error","error":"agent run failed"}`, body)
}

func agentsApp(r *fakeRunner) *fiber.App {
	h := NewAgentHandler(r)
	app := fiber.New()
	app.Get("/agents", h.List)
	app.Post("/agents/:id/runs", h.Run)
	app.Post("/workflows/sales/runs", h.RunWorkflow)
	return app
}

func TestAgentsList(t *testing.T) {
	resp, body := do(t, agentsApp(&fakeRunner{}), "GET", "/agents", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got struct {
		Agents []model.Persona `json:"agents"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &got))
	require.Len(t, got.Agents, 5)
	assert.Equal(t, "lead-qualifier", got.Agents[0].ID)
}

func TestAgentRun(t *testing.T) {
	r := &fakeRunner{out: &model.QueryOutput{RunID: "r1", ConversationID: "s1", Persona: "closer", Content: "Vamos fechar!"}}

	resp, body := do(t, agentsApp(r), "POST", "/agents/closer/runs", `{"message":"quero contratar","user_id":"u1","session_id":"s1"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"content":"Vamos fechar!"`)
	assert.Equal(t, model.QueryInput{ConversationID: "s1", UserID: "u1", Query: "quero contratar", Persona: "closer"}, r.in)
}

func TestAgentRunValidation(t *testing.T) {
	app := agentsApp(&fakeRunner{})

	resp, _ := do(t, app, "POST", "/agents/support/runs", `{"message":"oi"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body := do(t, app, "POST", "/agents/closer/runs", `{"message":"   "}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"error":"message is required"}`, body)

	resp, _ = do(t, app, "POST", "/agents/closer/runs", `{not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWorkflowRunRoutes(t *testing.T) {
	r := &fakeRunner{out: &model.QueryOutput{Persona: "objection-handler", Intent: "objection", Content: "ok"}}

	resp, body := do(t, agentsApp(r), "POST", "/workflows/sales/runs", `{"message":"é muito caro"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, r.in.Persona, "workflow lets the router choose")
	assert.Contains(t, body, `"intent":"objection"`)
}

func TestAgentRunErrorHidesDetail(t *testing.T) {
	r := &fakeRunner{err: errx.New(errors.New("gemini: api key invalid"), http.StatusBadGateway, errx.AgentErrorMessage)}

	resp, body := do(t, agentsApp(r), "POST", "/workflows/sales/runs", `{"message":"oi"}`)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.JSONEq(t, `{"error":"agent run failed"}`, body)
}

func TestRouterClassify(t *testing.T) {
	h := NewRouterHandler(router.Default())
	app := fiber.New()
	app.Post("/router/classify", h.Classify)

	resp, body := do(t, app, "POST", "/router/classify", `{"text":"Vamos agendar uma reunião"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"intent":"communication","handlers":["communication-manager"],"matched":true}`, body)
}

func TestHealthCheck(t *testing.T) {
	h := NewHealthHandler("dev", "testing", "memory")
	app := fiber.New()
	app.Get("/health", h.Check)

	resp, body := do(t, app, "GET", "/health", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"session_backend":"memory"`)
}

func TestAgentRunLimits(t *testing.T) {
	app := agentsApp(&fakeRunner{})

	long := strings.Repeat("a", 4097)
	resp, body := do(t, app, "POST", "/workflows/sales/runs", `{"message":"`+long+`"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "max=4096")

	resp, _ = do(t, app, "POST", "/workflows/sales/runs", `{"message":"oi","session_id":"`+strings.Repeat("s", 129)+`"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
