package cmd

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/synapse-ia/salesagent/internal/agent/graph"
	"github.com/synapse-ia/salesagent/internal/agent/graph/prompts"
	"github.com/synapse-ia/salesagent/internal/agent/graph/tools"
	"github.com/synapse-ia/salesagent/internal/agent/model"
	"github.com/synapse-ia/salesagent/internal/agent/repo"
	"github.com/synapse-ia/salesagent/internal/router"
	"github.com/synapse-ia/salesagent/internal/whatsapp"
	"github.com/synapse-ia/salesagent/internal/whatsapp/session"
	logx "github.com/synapse-ia/salesagent/pkg/logger"
)

// connectRedis returns nil when no REDIS_URL is configured.
func connectRedis(ctx context.Context, cfg *AppConfig) (*redis.Client, error) {
	if !cfg.Redis.Enabled() {
		return nil, nil
	}
	rdb, err := cfg.Redis.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise Redis client: %w", err)
	}
	logx.Info().Msg("Connected to Redis successfully")
	return rdb, nil
}

func loadRouter(cfg *AppConfig) (*router.Router, error) {
	table, err := router.LoadTable(cfg.RouterKeywordsFile)
	if err != nil {
		return nil, err
	}
	return router.New(table)
}

// newSessionStore builds the activation store for SESSION_BACKEND. The memory
// store is swept in the background until ctx ends.
func newSessionStore(ctx context.Context, cfg *AppConfig, rdb *redis.Client) (session.Store, error) {
	switch cfg.Sessions.Backend {
	case session.BackendRedis:
		if rdb == nil {
			return nil, fmt.Errorf("redis session backend needs a redis client")
		}
		return session.NewRedisStore(rdb, cfg.Sessions.TTL), nil
	case session.BackendMemory:
		store := session.NewMemoryStore(cfg.Sessions.TTL)
		if cfg.Sessions.TTL > 0 && cfg.Sessions.SweepInterval > 0 {
			go store.RunSweeper(ctx, cfg.Sessions.SweepInterval)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.Sessions.Backend)
	}
}

func newConversationRepo(cfg *AppConfig, rdb *redis.Client) model.ConversationRepository {
	if rdb != nil {
		return repo.NewRedisConversationRepository(rdb, cfg.Conversation.TTL)
	}
	logx.Warn().Msg("REDIS_URL not set; conversation history is kept in memory")
	return repo.NewMemoryConversationRepository(cfg.Conversation.TTL)
}

// newRunner builds the agent graph from the environment.
func newRunner(ctx context.Context, cfg *AppConfig, conversations model.ConversationRepository, r *router.Router, sender tools.TextSender) (graph.Runner, error) {
	if err := cfg.requireAgent(); err != nil {
		return nil, err
	}
	return graph.BuildResponseGraph(ctx, graph.Config{
		APIKey:        cfg.APIKey,
		BaseURL:       cfg.BaseURL,
		ResponseModel: cfg.Response,
		Prompt: prompts.PromptConfig{
			Business:      cfg.Prompt,
			Communication: cfg.Communication,
		},
		Conversation:     cfg.Conversation,
		ConversationRepo: conversations,
		Tools: tools.Dependencies{
			Sender:          sender,
			LeadDestination: cfg.WhatsApp.TestNumber,
		},
		Router: r,
	})
}

// agentFor adapts the graph runner to the gateway; the sender number is both
// user and session ID.
func agentFor(runner graph.Runner) whatsapp.AgentFunc {
	return func(ctx context.Context, req whatsapp.AgentRequest) (string, error) {
		out, err := runner.Invoke(ctx, model.QueryInput{
			ConversationID: req.SessionID,
			UserID:         req.UserID,
			Query:          req.Text,
			Persona:        req.Persona,
		})
		if err != nil {
			return "", err
		}
		return out.Content, nil
	}
}
