package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/consilium/popcorn/pkg/bootstrap"
	"github.com/consilium/popcorn/pkg/server"
)

func serveCmd(flags *globalFlags) *cobra.Command {
	var (
		addr        string
		public      string
		currentUser string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the store over HTTP",
		Long: `Bootstrap the store and serve it over HTTP and WebSocket.

The current user, if given, is placed in the handoff slot before the
store is built, exactly as a server-rendered page would.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if currentUser != "" {
				u, err := parseUser(currentUser)
				if err != nil {
					return err
				}
				bootstrap.CurrentUser.Set(u)
			}

			a, err := newApp(flags, cmd.ErrOrStderr(), prometheus.DefaultRegisterer)
			if err != nil {
				return err
			}

			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			if public == "" {
				public = a.cfg.Server.Public
			}

			srv := server.New(a.store,
				server.WithAddr(addr),
				server.WithPublic(public),
				server.WithMetrics(a.metrics),
				server.WithLogger(a.logger.With("component", "server")),
			)

			success(cmd, "Serving popcorn on %s", addr)
			if path := a.cfg.Path(); path != "" {
				info(cmd, "Config: %s", path)
			}
			return srv.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from popcorn.json)")
	cmd.Flags().StringVar(&public, "public", "", "Static file directory (default from popcorn.json)")
	cmd.Flags().StringVar(&currentUser, "current-user", "", "JSON user to hand off to the store")

	return cmd
}
