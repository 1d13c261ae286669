package main

import (
	"errors"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/storytime/progress/internal/api"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the progress API and live update feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			rt, err := setup(ctx, opts, os.Stderr)
			if err != nil {
				return err
			}
			defer rt.close()

			if port > 0 {
				rt.cfg.Server.Port = port
			}
			if rt.cfg.Server.AuthToken == "" {
				rt.log.Warn().Msg("no auth token configured; API is open to any local client")
			}

			var srv *api.Server
			broadcaster := api.NewBroadcaster(
				func() api.SnapshotPayload { return srv.Snapshot() },
				rt.cfg.Broadcast.SnapshotInterval,
				rt.cfg.Broadcast.MaxClients,
				rt.log,
			)
			defer broadcaster.Stop()

			srv = api.NewServer(rt.engine, broadcaster, rt.cfg.Server.AuthToken, rt.cfg.Server.AllowedOrigins, rt.log)
			broadcaster.Watch(rt.engine)

			p := rt.engine.Profile()
			rt.log.Info().
				Str("driver", rt.cfg.Storage.Driver).
				Int("total_points", p.Metrics.TotalPoints).
				Int("achievements", len(p.Achievements.Unlocked)).
				Msg("progress engine ready")

			err = api.ListenAndServe(ctx, rt.cfg.Addr(), srv.Routes(), rt.log)
			if errors.Is(err, http.ErrServerClosed) {
				err = nil
			}
			rt.log.Info().Msg("shutting down")
			return err
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Override server port")
	return cmd
}
