package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfg    *Config
	client *Client
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "tkctl",
		Short: "Operator CLI for the TK whitelist server",
		Long: `tkctl inspects a running TK whitelist server through its admin API,
speaks the line protocol to the game port for diagnostics, and can read the
whitelist files directly while the server is stopped.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			client = NewClient(cfg.AdminURL, cfg.Token, cfg.Timeout)
			return nil
		},
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfg.AdminURL, "admin", cfg.AdminURL, "Admin API URL (env: TKCTL_ADMIN)")
	rootCmd.PersistentFlags().StringVar(&cfg.Token, "token", cfg.Token, "Admin API bearer token (env: TKCTL_TOKEN)")
	rootCmd.PersistentFlags().StringVar(&cfg.Addr, "addr", cfg.Addr, "Game server address (env: TKCTL_ADDR)")
	rootCmd.PersistentFlags().StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "Server data directory (env: TKCTL_DATA_DIR)")
	rootCmd.PersistentFlags().StringVar(&cfg.Version, "client-version", cfg.Version, "Client version announced by probe (env: TKCTL_VERSION)")
	rootCmd.PersistentFlags().DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Request and connect timeout")
	rootCmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json")

	// Add subcommands
	rootCmd.AddCommand(newHealthCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newClientsCmd())
	rootCmd.AddCommand(newUsersCmd())
	rootCmd.AddCommand(newRestartCmd())
	rootCmd.AddCommand(newProbeCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
