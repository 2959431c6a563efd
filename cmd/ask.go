package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/synapse-ia/salesagent/internal/agent/model"
	"github.com/synapse-ia/salesagent/internal/provider/evolution"
)

func (c *cli) askCmd() *cobra.Command {
	var (
		sessionID string
		persona   string
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "ask <text>",
		Short: "Run one agent turn from the terminal",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rdb, err := connectRedis(ctx, c.cfg)
			if err != nil {
				return err
			}
			if rdb != nil {
				defer rdb.Close()
			}
			r, err := loadRouter(c.cfg)
			if err != nil {
				return err
			}

			runner, err := newRunner(ctx, c.cfg, newConversationRepo(c.cfg, rdb), r, evolution.NewClient(c.cfg.Evolution))
			if err != nil {
				return err
			}
			out, err := runner.Invoke(ctx, model.QueryInput{
				ConversationID: sessionID,
				UserID:         sessionID,
				Query:          strings.Join(args, " "),
				Persona:        persona,
			})
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s\n", out.Persona, out.Content)
			return err
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "cli", "conversation/session ID")
	cmd.Flags().StringVar(&persona, "persona", "", "persona ID; empty routes by intent")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full run result as JSON")
	return cmd
}
