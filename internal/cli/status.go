package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/concordchat/concord/internal/config"
	"github.com/concordchat/concord/internal/roster"
	"github.com/concordchat/concord/internal/version"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show Concord status and configuration summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("Concord %s (commit %s)\n\n", version.Version, version.Commit)

			fmt.Printf("Config:  %s\n", paths.Config)
			fmt.Printf("Data:    %s\n", paths.Data)
			fmt.Printf("Logs:    %s\n", paths.Logs)
			fmt.Println()

			cfg, err := config.Load(paths.Config)
			if err != nil {
				if os.IsNotExist(err) {
					fmt.Println("Config:  not found (using defaults)")
				} else {
					fmt.Printf("Config:  error loading: %v\n", err)
				}
				return nil
			}

			fmt.Printf("Homeserver: domain=%s\n", cfg.Homeserver.Domain)
			fmt.Printf("Router:     %s\n", cfg.Router.Name)

			rst := roster.New(&cfg)
			if len(cfg.Agents) > 0 {
				for _, a := range cfg.Agents {
					rooms := rst.ConfiguredRooms(a.Name)
					fmt.Printf("Agent:      name=%s role=%s rooms=%d\n", a.Name, a.Role, len(rooms))
				}
			} else {
				fmt.Println("Agent:      (none configured)")
			}
			for _, t := range cfg.Teams {
				fmt.Printf("Team:       name=%s agents=%s\n", t.Name, strings.Join(t.Agents, ","))
			}

			fmt.Printf("Invites:    timeout=%dm sweep=%dm\n",
				cfg.Invites.DefaultTimeoutMinutes, cfg.Invites.SweepIntervalMinutes)
			fmt.Printf("TeamMode:   strategy=%s\n", cfg.TeamMode.Strategy)
			fmt.Printf("Gateway:    enabled=%v port=%d bind=%s\n",
				cfg.Gateway.Enabled, cfg.Gateway.Port, cfg.Gateway.Bind)

			dbPath := cfg.Store.Path
			if dbPath == "" {
				dbPath = paths.State
			}
			fmt.Printf("Store:      %s\n", dbPath)

			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				fmt.Printf("\nValidation issues (%d):\n", len(issues))
				for _, issue := range issues {
					fmt.Printf("  - %s: %s\n", issue.Path, issue.Message)
				}
			}

			return nil
		},
	}

	return cmd
}
