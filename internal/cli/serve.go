package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/concordchat/concord/internal/activity"
	"github.com/concordchat/concord/internal/config"
	"github.com/concordchat/concord/internal/gateway"
	"github.com/concordchat/concord/internal/invite"
	"github.com/concordchat/concord/internal/logging"
	"github.com/concordchat/concord/internal/reconcile"
	"github.com/concordchat/concord/internal/roster"
	"github.com/concordchat/concord/internal/session"
	"github.com/concordchat/concord/internal/store"
	"github.com/concordchat/concord/internal/transport"
)

// transportFactory builds the concrete chat-network binding serve runs
// the agent sessions against. Bindings call RegisterTransport from their
// own init or main wiring; without one, serve runs in sweep-only mode.
var transportFactory func(cfg *config.Config, log *logging.Logger) (transport.Binding, error)

// RegisterTransport installs the chat-network binding used by serve.
func RegisterTransport(f func(cfg *config.Config, log *logging.Logger) (transport.Binding, error)) {
	transportFactory = f
}

func newServeCmd() *cobra.Command {
	var (
		port int
		bind string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the coordination service",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := paths.EnsureDirs(); err != nil {
				return fmt.Errorf("creating data directories: %w", err)
			}

			provider, err := config.NewProvider(paths.Config)
			if err != nil {
				return err
			}
			cfg := *provider.Current()

			if port != 0 {
				cfg.Gateway.Port = port
			}
			if bind != "" {
				cfg.Gateway.Bind = bind
			}
			provider.Swap(cfg)

			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				for _, issue := range issues {
					log.Error().Str("path", issue.Path).Msg(issue.Message)
				}
				return fmt.Errorf("config validation failed with %d issue(s)", len(issues))
			}

			dbPath := cfg.Store.Path
			if dbPath == "" {
				dbPath = paths.State
			}
			db, err := store.Open(dbPath, log)
			if err != nil {
				return fmt.Errorf("opening state database: %w", err)
			}
			defer db.Close()
			log.Info().Str("path", dbPath).Msg("state database open")

			invites := invite.New(store.NewInviteStore(db), nil, log)
			tracker := activity.New(store.NewActivityStore(db), nil, log)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			rosterFn := func() *roster.Roster {
				return roster.New(provider.Current())
			}

			var kick transport.KickFunc
			if transportFactory != nil {
				binding, err := transportFactory(&cfg, log)
				if err != nil {
					return fmt.Errorf("starting transport: %w", err)
				}
				kick = binding.Kick

				events, err := binding.Events(ctx)
				if err != nil {
					return fmt.Errorf("subscribing to events: %w", err)
				}
				fleet := session.NewFleet(provider, binding, invites, tracker, nil, nil, log)
				go fleet.Run(ctx, events)
				log.Info().Int("agents", len(cfg.Agents)).Msg("agent sessions running")

				rec := reconcile.New(binding, invites, rosterFn, log)
				reconcileInterval := time.Duration(cfg.Reconcile.IntervalMinutes) * time.Minute
				if reconcileEnabled(&cfg) && reconcileInterval > 0 {
					go rec.RunEvery(ctx, reconcileInterval)
				}
			} else {
				log.Info().Msg("no transport binding registered; running in sweep-only mode")
			}

			var srv *gateway.Server
			if cfg.Gateway.Enabled {
				srv = gateway.NewServer(provider, invites, log)
			}

			sweepInterval := time.Duration(cfg.Invites.SweepIntervalMinutes) * time.Minute
			if sweepInterval > 0 {
				go sweepLoop(ctx, invites, srv, rosterFn, kick, sweepInterval)
			}

			if srv == nil {
				log.Info().Msg("gateway disabled")
				<-ctx.Done()
				return nil
			}
			return srv.Start(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "override gateway port")
	cmd.Flags().StringVar(&bind, "bind", "", "override gateway bind address")

	return cmd
}

func reconcileEnabled(cfg *config.Config) bool {
	return cfg.Reconcile.Enabled == nil || *cfg.Reconcile.Enabled
}

// sweepReport is broadcast to gateway clients after each sweep pass.
type sweepReport struct {
	Removed int       `json:"removed"`
	SweptAt time.Time `json:"sweptAt"`
}

func sweepLoop(ctx context.Context, invites *invite.Manager, srv *gateway.Server,
	rosterFn func() *roster.Roster, kick transport.KickFunc, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed := invites.SweepInactive(ctx, rosterFn(), kick)
			if srv != nil {
				srv.Broadcast("sweep.report", sweepReport{
					Removed: removed,
					SweptAt: time.Now(),
				})
			}
		}
	}
}
