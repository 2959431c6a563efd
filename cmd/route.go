package cmd

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"
)

func (c *cli) routeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "route <text>",
		Short: "Classify a message and print the routing decision",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := loadRouter(c.cfg)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(r.Route(strings.Join(args, " ")))
		},
	}
}
