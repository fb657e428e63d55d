package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/mcoot/tkserver/internal/services/whitelist"
	"github.com/mcoot/tkserver/internal/storage/file"
)

func newUsersCmd() *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "users",
		Short: "List whitelisted users",
		Long: `List whitelisted users from the admin API.

With --offline the whitelist files in --data-dir are read directly, which
works while the server is stopped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Users
			if offline {
				users, err := loadOfflineUsers(cmd, cfg.DataDir)
				if err != nil {
					return err
				}
				result = users
			} else if err := client.Get("/api/v1/users", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Read whitelist files from --data-dir instead of the admin API")

	return cmd
}

func loadOfflineUsers(cmd *cobra.Command, dataDir string) (Users, error) {
	store, err := file.New(file.DefaultConfig(dataDir))
	if err != nil {
		return Users{}, fmt.Errorf("open data dir: %w", err)
	}

	wl := whitelist.New(store, whitelist.DefaultConfig(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	wl.Load(cmd.Context())

	records := wl.ListAll()
	users := Users{Users: make([]User, 0, len(records)), Count: len(records)}
	for _, rec := range records {
		users.Users = append(users.Users, User{
			ID:          rec.ID,
			DisplayName: rec.DisplayName,
			Member:      wl.IsMember(rec.ID),
		})
	}
	return users, nil
}
