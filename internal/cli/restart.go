package cli

import (
	"github.com/spf13/cobra"
)

func newRestartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restart",
		Short: "Inspect or change the periodic restart schedule",
	}

	cmd.AddCommand(newRestartShowCmd())
	cmd.AddCommand(newRestartSetCmd())
	cmd.AddCommand(newRestartCancelCmd())

	return cmd
}

func newRestartShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the restart schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Schedule
			if err := client.Get("/api/v1/restart", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newRestartSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <hh:mm|duration>",
		Short: "Schedule a restart every interval",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"interval": args[0]}

			var result Schedule
			if err := client.Put("/api/v1/restart", req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newRestartCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel",
		Short: "Cancel the restart schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Delete("/api/v1/restart"); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).PrintMessage("Restart schedule cancelled")
			return nil
		},
	}
}
