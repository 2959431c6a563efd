package nodes

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/synapse-ia/salesagent/internal/agent/model"
	logx "github.com/synapse-ia/salesagent/pkg/logger"
)

// ChatModelConfig selects the Gemini endpoint and generation settings.
type ChatModelConfig struct {
	APIKey     string
	BaseURL    string
	RespConfig *model.ResponseModelConfig
}

// ChatModels holds the response model shared by every persona. The name is
// kept separately because pricing is looked up by it.
type ChatModels struct {
	Response          einomodel.ToolCallingChatModel
	ResponseModelName string
}

func (c ChatModelConfig) genaiClient(ctx context.Context) (*genai.Client, error) {
	cc := &genai.ClientConfig{APIKey: c.APIKey, Backend: genai.BackendGeminiAPI}
	if c.BaseURL != "" {
		cc.HTTPOptions.BaseURL = c.BaseURL
	}
	return genai.NewClient(ctx, cc)
}

func (c ChatModelConfig) geminiConfig(client *genai.Client) *gemini.Config {
	rc := c.RespConfig
	gc := &gemini.Config{
		Client:      client,
		Model:       rc.Model,
		Temperature: &rc.Temperature,
		MaxTokens:   &rc.MaxTokens,
	}
	if rc.ThinkingBudget > 0 {
		gc.ThinkingConfig = &genai.ThinkingConfig{ThinkingBudget: genai.Ptr(rc.ThinkingBudget)}
	}
	return gc
}

// NewChatModels connects to Gemini and builds the response model.
func NewChatModels(ctx context.Context, cfg ChatModelConfig) (*ChatModels, error) {
	switch {
	case cfg.RespConfig == nil:
		return nil, errors.New("response model config is nil")
	case cfg.APIKey == "":
		return nil, errors.New("gemini api key is empty")
	}

	client, err := cfg.genaiClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	cm, err := gemini.NewChatModel(ctx, cfg.geminiConfig(client))
	if err != nil {
		return nil, fmt.Errorf("create gemini chat model %s: %w", cfg.RespConfig.Model, err)
	}

	logx.Debug().Str("model", cfg.RespConfig.Model).Msg("Gemini response model ready")
	return &ChatModels{Response: cm, ResponseModelName: cfg.RespConfig.Model}, nil
}

// BindTools swaps the response model for a copy that can call tools.
func (cm *ChatModels) BindTools(tools []*schema.ToolInfo) error {
	bound, err := cm.Response.WithTools(tools)
	if err != nil {
		return fmt.Errorf("bind %d tools: %w", len(tools), err)
	}
	cm.Response = bound
	return nil
}
