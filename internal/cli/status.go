package cli

import (
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show connected clients, whitelist size and restart schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Status
			if err := client.Get("/api/v1/status", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newClientsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clients",
		Short: "List live connections",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Clients
			if err := client.Get("/api/v1/clients", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}
