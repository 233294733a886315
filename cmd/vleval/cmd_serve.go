package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/voicelearn/vleval/internal/webapi"
	"github.com/voicelearn/vleval/internal/webserver"
)

func newServeCommand() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the HTTP server.

Serves the REST API under /api, live run progress over a websocket at /ws,
and Prometheus metrics at /metrics. The server binds to loopback and shuts
down gracefully on interrupt.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, store, cfg, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer db.Close() //nolint:errcheck

			if port != 0 {
				cfg.Server.Port = port
			}
			srv, err := webserver.New(webserver.Config{
				Port:           cfg.Server.Port,
				AllowedOrigins: cfg.Server.AllowedOrigins,
				Store:          store,
				Hub:            webapi.NewHub(nil),
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Printf("vleval API: http://localhost:%d/api/health\n", cfg.Server.Port)
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (overrides config)")
	return cmd
}
