// Package whatsapp turns inbound WhatsApp webhook payloads into agent replies,
// gated by a per-sender activation handshake.
package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/synapse-ia/salesagent/internal/whatsapp/session"
	logx "github.com/synapse-ia/salesagent/pkg/logger"
)

const (
	// DefaultActivationKeyword is the token a sender types to start talking to the assistant.
	DefaultActivationKeyword = "##ativar##"

	WelcomeMessage = "Ola! Bem-vindo ao assistente da Synapse IA!\n\n" +
		"Estou aqui para te ajudar com automacoes e IA para advogados.\n\n" +
		"Como posso te ajudar hoje?"

	ApologyMessage = "Desculpe, ocorreu um erro ao processar sua mensagem. Por favor, tente novamente."
)

const (
	ReasonInvalidFormat   = "Invalid message format"
	ReasonNotActivated    = "Session not activated"
	ReasonOutgoingMessage = "Outgoing message"
)

var errEmptyReply = errors.New("agent returned an empty reply")

type Config struct {
	ActivationKeyword string        `envconfig:"WHATSAPP_ACTIVATION_KEYWORD" default:"##ativar##"`
	TestNumber        string        `envconfig:"WHATSAPP_DESTINATION"`
	VerifyToken       string        `envconfig:"WHATSAPP_VERIFY_TOKEN"`
	Persona           string        `envconfig:"WHATSAPP_PERSONA"`
	AgentTimeout      time.Duration `envconfig:"AGENT_TIMEOUT" default:"60s"`
}

// Status is the outcome of handling one inbound webhook call.
type Status string

const (
	StatusIgnored   Status = "ignored"
	StatusActivated Status = "activated"
	StatusProcessed Status = "processed"
	StatusError     Status = "error"
)

// Ack is returned to the webhook caller. Error carries failure detail for
// monitoring only; it is never sent to the chat user.
type Ack struct {
	Status Status `json:"status"`
	Reason string `json:"reason,omitempty"`
	Error  string `json:"error,omitempty"`
}

// HTTPStatus maps the ack onto the webhook response code.
func (a Ack) HTTPStatus() int {
	if a.Status == StatusError {
		return http.StatusInternalServerError
	}
	return http.StatusOK
}

// Sender delivers a text message to a WhatsApp number.
type Sender interface {
	SendText(ctx context.Context, number, text string) error
}

// AgentRequest is one turn handed to the conversational agent.
type AgentRequest struct {
	UserID    string
	SessionID string
	Text      string
	// Persona pins the handler; empty lets the agent route the message itself.
	Persona string
}

// Agent produces the reply text for one turn.
type Agent interface {
	Respond(ctx context.Context, req AgentRequest) (string, error)
}

// AgentFunc adapts a function to Agent.
type AgentFunc func(ctx context.Context, req AgentRequest) (string, error)

func (f AgentFunc) Respond(ctx context.Context, req AgentRequest) (string, error) {
	return f(ctx, req)
}

// Gateway handles inbound WhatsApp messages.
type Gateway struct {
	cfg        Config
	keyword    string
	testNumber string
	sessions   session.Store
	sender     Sender
	agent      Agent
}

func NewGateway(cfg Config, sessions session.Store, sender Sender, agent Agent) *Gateway {
	if cfg.ActivationKeyword == "" {
		cfg.ActivationKeyword = DefaultActivationKeyword
	}
	return &Gateway{
		cfg:        cfg,
		keyword:    strings.ToLower(cfg.ActivationKeyword),
		testNumber: NormaliseSender(cfg.TestNumber),
		sessions:   sessions,
		sender:     sender,
		agent:      agent,
	}
}

func (g *Gateway) isActivation(text string) bool {
	return strings.Contains(strings.ToLower(text), g.keyword)
}

func (g *Gateway) isTestIdentity(sender string) bool {
	return g.testNumber != "" && sender == g.testNumber
}

// Handle processes one raw webhook body. It never panics on bad input: payloads
// without a sender or text are ignored.
func (g *Gateway) Handle(ctx context.Context, body []byte) Ack {
	msg, err := ParseInbound(body)
	if err != nil {
		logx.Debug().Int("bytes", len(body)).Msg("Ignoring unrecognised WhatsApp payload")
		return Ack{Status: StatusIgnored, Reason: ReasonInvalidFormat}
	}
	if msg.FromMe {
		return Ack{Status: StatusIgnored, Reason: ReasonOutgoingMessage}
	}
	return g.HandleMessage(ctx, msg)
}

// HandleMessage runs the activation gate and agent dispatch for a parsed message.
func (g *Gateway) HandleMessage(ctx context.Context, msg InboundMessage) Ack {
	sender := msg.SenderID

	if g.isActivation(msg.Text) {
		was, err := g.sessions.Activate(ctx, sender)
		if err != nil {
			logx.Error().Err(err).Str("sender", sender).Msg("Failed to activate WhatsApp session")
			return Ack{Status: StatusError, Error: err.Error()}
		}
		logx.Info().Str("sender", sender).Bool("already_active", was).Msg("WhatsApp session activated")
		g.send(ctx, sender, WelcomeMessage)
		return Ack{Status: StatusActivated}
	}

	if g.isTestIdentity(sender) {
		if _, err := g.sessions.Activate(ctx, sender); err != nil {
			logx.Warn().Err(err).Str("sender", sender).Msg("Failed to record test identity session")
		}
	} else {
		sess, err := g.sessions.EnsurePending(ctx, sender)
		if err != nil {
			logx.Error().Err(err).Str("sender", sender).Msg("Failed to load WhatsApp session")
			return Ack{Status: StatusError, Error: err.Error()}
		}
		if !sess.Activated {
			logx.Debug().Str("sender", sender).Msg("Ignoring message from inactive session")
			return Ack{Status: StatusIgnored, Reason: ReasonNotActivated}
		}
	}

	reply, err := g.respond(ctx, sender, msg.Text)
	if err != nil {
		logx.Error().Err(err).Str("sender", sender).Msg("Agent failed to process WhatsApp message")
		g.send(ctx, sender, ApologyMessage)
		return Ack{Status: StatusError, Error: err.Error()}
	}

	g.send(ctx, sender, reply)
	return Ack{Status: StatusProcessed}
}

func (g *Gateway) respond(ctx context.Context, sender, text string) (string, error) {
	if g.cfg.AgentTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.AgentTimeout)
		defer cancel()
	}

	start := time.Now()
	reply, err := g.agent.Respond(ctx, AgentRequest{
		UserID:    sender,
		SessionID: sender,
		Text:      text,
		Persona:   g.cfg.Persona,
	})
	if err != nil {
		return "", fmt.Errorf("agent respond: %w", err)
	}
	if strings.TrimSpace(reply) == "" {
		return "", errEmptyReply
	}

	logx.Debug().Str("sender", sender).Dur("elapsed", time.Since(start)).Msg("Agent replied")
	return reply, nil
}

// send is best-effort: failures are logged and never change the ack.
func (g *Gateway) send(ctx context.Context, number, text string) {
	if err := g.sender.SendText(ctx, number, text); err != nil {
		logx.Error().Err(err).Str("number", number).Msg("Failed to send WhatsApp message")
	}
}
