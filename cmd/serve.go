package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/synapse-ia/salesagent/internal/handlers"
	"github.com/synapse-ia/salesagent/internal/provider/evolution"
	"github.com/synapse-ia/salesagent/internal/routes"
	"github.com/synapse-ia/salesagent/internal/whatsapp"
	logx "github.com/synapse-ia/salesagent/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func (c *cli) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook and agent HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.serve(cmd.Context())
		},
	}
}

func (c *cli) serve(parent context.Context) error {
	cfg := c.cfg
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb, err := connectRedis(ctx, cfg)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
	}

	store, err := newSessionStore(ctx, cfg, rdb)
	if err != nil {
		return err
	}
	r, err := loadRouter(cfg)
	if err != nil {
		return err
	}

	evo := evolution.NewClient(cfg.Evolution)
	if !evo.Configured() {
		logx.Warn().Msg("Evolution API credentials not found - replies will not be delivered")
	}

	runner, err := newRunner(ctx, cfg, newConversationRepo(cfg, rdb), r, evo)
	if err != nil {
		return err
	}
	gateway := whatsapp.NewGateway(cfg.WhatsApp, store, evo, agentFor(runner))

	app := routes.NewApp("salesagent " + Version)
	routes.SetupRoutes(app, routes.Handlers{
		Health: handlers.NewHealthHandler(Version, cfg.Environment.String(), cfg.Sessions.Backend),
		WhatsApp: handlers.NewWhatsAppHandler(gateway, handlers.WhatsAppInfo{
			Provider:    evolution.ProviderName,
			Instance:    evo.Instance(),
			Configured:  evo.Configured(),
			VerifyToken: cfg.WhatsApp.VerifyToken,
		}),
		Agents: handlers.NewAgentHandler(runner),
		Router: handlers.NewRouterHandler(r),
	})

	errCh := make(chan error, 1)
	go func() {
		logx.Info().
			Str("port", cfg.Port).
			Str("environment", cfg.Environment.String()).
			Str("session_backend", cfg.Sessions.Backend).
			Msg("Server starting")
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logx.Info().Msg("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	logx.Info().Msg("Server stopped")
	return nil
}
