package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/synapse-ia/salesagent/internal/provider/evolution"
)

func (c *cli) sendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send <number> <text>",
		Short: "Send a WhatsApp text through Evolution API",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := evolution.NewClient(c.cfg.Evolution)
			start := time.Now()
			if err := client.SendText(cmd.Context(), args[0], strings.Join(args[1:], " ")); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "sent to %s via %s (%s)\n",
				evolution.DigitsOnly(args[0]), client.Instance(), time.Since(start).Round(time.Millisecond))
			return err
		},
	}
}
