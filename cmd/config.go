package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/synapse-ia/salesagent/internal/agent/model"
	"github.com/synapse-ia/salesagent/internal/core"
	"github.com/synapse-ia/salesagent/internal/provider/evolution"
	"github.com/synapse-ia/salesagent/internal/whatsapp"
	"github.com/synapse-ia/salesagent/internal/whatsapp/session"
	pkgredis "github.com/synapse-ia/salesagent/pkg/redis"
)

// SessionConfig selects where activation state lives.
type SessionConfig struct {
	Backend       string        `envconfig:"SESSION_BACKEND" default:"memory" validate:"oneof=memory redis"`
	TTL           time.Duration `envconfig:"SESSION_TTL" default:"24h" validate:"gte=0s"`
	SweepInterval time.Duration `envconfig:"SESSION_SWEEP_INTERVAL" default:"10m" validate:"gte=0s"`
}

// AppConfig defines all configurable parameters, sourced from environment
// variables (loaded from .env for local runs).
type AppConfig struct {
	Environment core.Environment `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string           `envconfig:"LOG_LEVEL" validate:"omitempty,oneof=trace debug info warn error"`
	Port        string           `envconfig:"PORT" default:"8000" validate:"required,numeric"`

	// Infrastructure
	Redis pkgredis.Config

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Agent configs
	Response      model.ResponseModelConfig
	Prompt        model.ResponsePromptConfig
	Communication model.CommunicationConfig
	Conversation  model.ConversationConfig

	// Channel
	Evolution evolution.Config
	WhatsApp  whatsapp.Config
	Sessions  SessionConfig

	RouterKeywordsFile string `envconfig:"ROUTER_KEYWORDS_FILE"`
}

// validate caches struct info across calls.
var validate = validator.New()

// Validate rejects combinations that cannot start.
func (c *AppConfig) Validate() error {
	var errs []error
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, e := range verrs {
			errs = append(errs, fmt.Errorf("invalid %s: rule %q (value: %v)", e.StructNamespace(), e.Tag(), e.Value()))
		}
	}
	if c.Sessions.Backend == session.BackendRedis && !c.Redis.Enabled() {
		errs = append(errs, errors.New("SESSION_BACKEND=redis requires REDIS_URL"))
	}
	if c.Conversation.TTL < 0 {
		errs = append(errs, errors.New("CONVERSATION_TTL must not be negative"))
	}
	if c.WhatsApp.AgentTimeout < 0 {
		errs = append(errs, errors.New("AGENT_TIMEOUT must not be negative"))
	}
	return errors.Join(errs...)
}

// requireAgent reports whether the LLM side is usable.
func (c *AppConfig) requireAgent() error {
	if c.APIKey == "" {
		return errors.New("GEMINI_API_KEY is required")
	}
	return nil
}

// loadConfig loads envFile (when present) and binds the environment. The
// returned bool reports whether envFile was loaded.
func loadConfig(envFile string) (*AppConfig, bool, error) {
	loaded := false
	if envFile != "" {
		if err := godotenv.Load(envFile); err == nil {
			loaded = true
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, false, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, loaded, fmt.Errorf("failed to process environment config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, loaded, err
	}
	return &cfg, loaded, nil
}
