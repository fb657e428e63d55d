package console

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcoot/tkserver/internal/services/restart"
)

const clearScreen = "\033[H\033[2J"

var helpText = []string{
	"Available commands:",
	"  help              - Show this help message",
	"  clients           - Show number of connected clients",
	"  users             - List whitelisted Steam IDs",
	"  clear             - Clear the console",
	"  exit              - Exit server",
	"  setmods           - Set mod list (semicolon separated)",
	"  setupdate         - Enter launcher download link",
	"  setrestart HH:mm  - Schedule periodic restart every HH hours and mm minutes",
	"  cancelrestart     - Cancel scheduled periodic restart",
	"  nextrestart       - Show the next scheduled restart time",
}

func (c *Console) newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tk",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetOut(c.out)
	root.SetErr(c.out)
	root.SetHelpCommand(c.newHelpCmd())

	root.AddCommand(c.newClientsCmd())
	root.AddCommand(c.newUsersCmd())
	root.AddCommand(c.newClearCmd())
	root.AddCommand(c.newExitCmd())
	root.AddCommand(c.newSetModsCmd())
	root.AddCommand(c.newSetUpdateCmd())
	root.AddCommand(c.newSetRestartCmd())
	root.AddCommand(c.newCancelRestartCmd())
	root.AddCommand(c.newNextRestartCmd())

	return root
}

func (c *Console) newHelpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "help",
		Short: "Show available commands",
		Run: func(cmd *cobra.Command, args []string) {
			for _, line := range helpText {
				c.println(line)
			}
		},
	}
}

func (c *Console) newClientsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clients",
		Short: "Show number of connected clients",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			c.println(fmt.Sprintf("[TK] Connected clients: %d", c.clients.Count()))
		},
	}
}

func (c *Console) newUsersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List whitelisted Steam IDs",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			users := c.whitelist.ListAll()
			if len(users) == 0 {
				c.println("[TK] No users registered.")
				return
			}
			for _, u := range users {
				c.println(fmt.Sprintf("[TK] %s | %s", u.ID, u.DisplayName))
			}
		},
	}
}

func (c *Console) newClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear the console",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			c.printf("%s", clearScreen)
		},
	}
}

func (c *Console) newExitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exit",
		Short: "Exit server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c.println("[TK] Server is shutting down...")
			c.whitelist.TruncateMembershipFile(cmd.Context(), c.cfg.RetainLines)
			c.println("[TK] Ready For Exit.")
			return ErrExit
		},
	}
}

func (c *Console) newSetModsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setmods",
		Short: "Set mod list (semicolon separated)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c.printf("[TK] Enter new mod list (separate mods by ';'): ")
			mods, ok := c.nextLine(cmd.Context())
			if !ok {
				return nil
			}
			if err := c.content.SetMods(mods); err != nil {
				return fmt.Errorf("failed to update mod list: %w", err)
			}
			c.println("[TK] Mod list updated.")
			return nil
		},
	}
}

func (c *Console) newSetUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setupdate",
		Short: "Enter launcher download link",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c.printf("[TK] Enter launcher download link: ")
			link, ok := c.nextLine(cmd.Context())
			if !ok {
				return nil
			}
			if err := c.content.SetLink(link); err != nil {
				return fmt.Errorf("error saving link file: %w", err)
			}
			c.println("[TK] Saved successfully to LinkLauncher.txt")
			return nil
		},
	}
}

func (c *Console) newSetRestartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setrestart <interval>",
		Short: "Schedule periodic restart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := restart.ParseInterval(args[0])
			if err != nil {
				c.println("[TK] Invalid time format. Use format like '0:05' (hh:mm).")
				return nil
			}
			next, err := c.scheduler.SetInterval(d)
			if err != nil {
				return err
			}
			c.println(fmt.Sprintf("[TK] Restart interval set to: %s (next at %s)", d, next.Format(time.DateTime)))
			return nil
		},
	}
}

func (c *Console) newCancelRestartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancelrestart",
		Short: "Cancel scheduled periodic restart",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			c.scheduler.Cancel()
			c.println("[TK] Restart scheduling canceled.")
		},
	}
}

func (c *Console) newNextRestartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "nextrestart",
		Short: "Show the next scheduled restart time",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			next, ok := c.scheduler.PeekNextDeadline()
			if !ok {
				c.println("[TK] No restart scheduled.")
				return
			}
			c.println("[TK] Next restart scheduled at: " + next.Format(time.DateTime))
		},
	}
}
