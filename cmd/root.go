package cmd

import (
	"os"

	"github.com/spf13/cobra"

	logx "github.com/synapse-ia/salesagent/pkg/logger"
)

// Version is set at build time via -ldflags "-X github.com/synapse-ia/salesagent/cmd.Version=v1.0.0"
var Version = "dev"

type cli struct {
	envFile string
	cfg     *AppConfig
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "salesagent",
		Short:         "WhatsApp sales assistant for Synapse IA",
		Long:          "salesagent receives WhatsApp messages through Evolution API, routes them to a sales persona and replies with a Gemini-backed agent.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, loaded, err := loadConfig(c.envFile)
			if err != nil {
				return err
			}
			logx.Init(logx.LoggerOpts{Environment: cfg.Environment, Level: cfg.LogLevel})
			if !loaded {
				logx.Warn().Str("file", c.envFile).Msg("Could not load .env file; using process environment")
			}
			c.cfg = cfg
			return nil
		},
	}
	root.PersistentFlags().StringVar(&c.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	root.AddCommand(c.serveCmd())
	root.AddCommand(c.routeCmd())
	root.AddCommand(c.askCmd())
	root.AddCommand(c.sendCmd())
	root.AddCommand(versionCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		// no config needed
		PersistentPreRun: func(cmd *cobra.Command, args []string) {},
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("salesagent %s\n", Version)
		},
	}
}

// Execute runs the root cobra command.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		logx.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}
