package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/concordchat/concord/internal/config"
	"github.com/concordchat/concord/internal/invite"
	"github.com/concordchat/concord/internal/store"
)

func newInviteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invite",
		Short: "Manage agent invitations",
	}

	cmd.AddCommand(newInviteAddCmd())
	cmd.AddCommand(newInviteRemoveCmd())
	cmd.AddCommand(newInviteListCmd())

	return cmd
}

// openInvites loads config and opens the invite manager against the
// state database. The caller must close the returned DB.
func openInvites() (*invite.Manager, *store.DB, *config.Config, error) {
	cfg, err := config.Load(paths.Config)
	if err != nil {
		return nil, nil, nil, err
	}

	dbPath := cfg.Store.Path
	if dbPath == "" {
		if err := paths.EnsureDirs(); err != nil {
			return nil, nil, nil, err
		}
		dbPath = paths.State
	}

	db, err := store.Open(dbPath, log)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("opening state database: %w", err)
	}
	return invite.New(store.NewInviteStore(db), nil, log), db, &cfg, nil
}

func newInviteAddCmd() *cobra.Command {
	var (
		threadID  string
		invitedBy string
		timeout   int
	)

	cmd := &cobra.Command{
		Use:   "add <room> <agent>",
		Short: "Invite an agent into a room or thread",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, db, cfg, err := openInvites()
			if err != nil {
				return err
			}
			defer db.Close()

			minutes := timeout
			if minutes <= 0 {
				minutes = cfg.Invites.DefaultTimeoutMinutes
			}

			inv, err := mgr.AddInvite(args[0], args[1], invitedBy, threadID, time.Duration(minutes)*time.Minute)
			if err != nil {
				return err
			}

			scope := "room"
			if inv.ThreadID != "" {
				scope = "thread " + inv.ThreadID
			}
			fmt.Printf("Invited %s to %s (%s, expires after %s of inactivity)\n",
				inv.AgentName, inv.RoomID, scope, inv.InactivityTTL)
			return nil
		},
	}

	cmd.Flags().StringVar(&threadID, "thread", "", "limit the invite to a single thread")
	cmd.Flags().StringVar(&invitedBy, "by", "", "user ID of the inviter")
	cmd.Flags().IntVar(&timeout, "timeout", 0, "inactivity timeout in minutes (default from config)")

	return cmd
}

func newInviteRemoveCmd() *cobra.Command {
	var threadID string

	cmd := &cobra.Command{
		Use:   "remove <room> <agent>",
		Short: "Revoke an agent's invitation",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, db, _, err := openInvites()
			if err != nil {
				return err
			}
			defer db.Close()

			if !mgr.RemoveInvite(args[0], args[1], threadID) {
				return fmt.Errorf("no invite found for %s in %s", args[1], args[0])
			}
			fmt.Printf("Removed invite for %s in %s\n", args[1], args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&threadID, "thread", "", "thread scope of the invite")

	return cmd
}

func newInviteListCmd() *cobra.Command {
	var roomID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List live invitations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, db, _, err := openInvites()
			if err != nil {
				return err
			}
			defer db.Close()

			invites := mgr.ListAll()
			if roomID != "" {
				invites = mgr.ListRoom(roomID)
			}
			if len(invites) == 0 {
				fmt.Println("No live invites.")
				return nil
			}

			for _, inv := range invites {
				scope := "room"
				if inv.ThreadID != "" {
					scope = "thread " + inv.ThreadID
				}
				fmt.Printf("%s  %s  (%s, last activity %s, ttl %s)\n",
					inv.RoomID, inv.AgentName, scope,
					inv.LastActivity.Format(time.RFC3339), inv.InactivityTTL)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&roomID, "room", "", "limit to a single room")

	return cmd
}
