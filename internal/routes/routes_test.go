package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synapse-ia/salesagent/internal/handlers"
	"github.com/synapse-ia/salesagent/internal/router"
	"github.com/synapse-ia/salesagent/internal/whatsapp"
	"github.com/synapse-ia/salesagent/internal/whatsapp/session"
)

type outbox struct {
	mu   sync.Mutex
	sent []string
}

func (o *outbox) SendText(_ context.Context, number, text string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, number+": "+text)
	return nil
}

func newTestApp(t *testing.T) (*outbox, func(method, target, body string) (int, string)) {
	t.Helper()
	out := &outbox{}
	agent := whatsapp.AgentFunc(func(_ context.Context, req whatsapp.AgentRequest) (string, error) {
		return "eco: " + req.Text, nil
	})
	gw := whatsapp.NewGateway(whatsapp.Config{}, session.NewMemoryStore(0), out, agent)

	app := NewApp("salesagent-test")
	SetupRoutes(app, Handlers{
		Health:   handlers.NewHealthHandler("dev", "testing", session.BackendMemory),
		WhatsApp: handlers.NewWhatsAppHandler(gw, handlers.WhatsAppInfo{Provider: "Evolution API", Instance: "synapse"}),
		Router:   handlers.NewRouterHandler(router.Default()),
	})

	return out, func(method, target, body string) (int, string) {
		req := httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp.StatusCode, string(raw)
	}
}

func TestWebhookPathsShareGateway(t *testing.T) {
	out, call := newTestApp(t)

	status, body := call("POST", "/webhook/agno", `{"body":{"from":"+55 (11) 98888-7777","text":"##ATIVAR##"}}`)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"activated"}`, body)

	status, body = call("POST", "/whatsapp/webhook", `{"key":{"remoteJid":"5511988887777@s.whatsapp.net"},"message":{"conversation":"oi"}}`)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"processed"}`, body)

	require.Len(t, out.sent, 2)
	assert.Equal(t, "5511988887777: "+whatsapp.WelcomeMessage, out.sent[0])
	assert.Equal(t, "5511988887777: eco: oi", out.sent[1])
}

func TestWebhookIgnoresUnknownSender(t *testing.T) {
	out, call := newTestApp(t)

	status, body := call("POST", "/whatsapp/webhook", `{"from":"5511977776666","text":"oi"}`)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"ignored","reason":"Session not activated"}`, body)
	assert.Empty(t, out.sent)
}

func TestLegacyVerifyEchoesChallenge(t *testing.T) {
	_, call := newTestApp(t)

	status, body := call("GET", "/webhook/agno?hub.challenge=42", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "42", body)
}

func TestUnknownRouteIsJSON404(t *testing.T) {
	_, call := newTestApp(t)

	status, body := call("GET", "/nope", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, body, `"error"`)
}

func TestAgentRoutesOptional(t *testing.T) {
	_, call := newTestApp(t)

	status, _ := call("GET", "/agents", "")
	assert.Equal(t, http.StatusNotFound, status)

	status, body := call("GET", "/health", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `"status":"ok"`)
}

func TestCORSPreflight(t *testing.T) {
	app := NewApp("salesagent-test")
	SetupRoutes(app, Handlers{Router: handlers.NewRouterHandler(router.Default())})

	req := httptest.NewRequest("OPTIONS", "/router/classify", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
