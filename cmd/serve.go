package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/msalah0e/depviz/internal/server"
	"github.com/msalah0e/depviz/internal/ui"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve rendered graphs over HTTP",
		Long: `Start an HTTP server that fetches and renders graphs on demand.

  GET /health
  GET /stats
  GET /models/{id}/graph?format=svg|png|json|csv
        &layout=force|hierarchical &group=none|department|risk
        &edges=straight|orthogonal &risk=high,low &department=.. &owner=..
        &select=<node-id>

  depviz serve --addr :7070`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			a := setup()
			defer a.log.Sync()

			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			opts, err := a.cfg.SessionOptions()
			if err != nil {
				fatal("%v", err)
			}

			srv := server.New(server.Options{
				Fetcher:        a.client(),
				Session:        opts,
				Fit:            a.cfg.Render.Fit,
				FitMargin:      a.cfg.Render.FitMargin,
				MaxFrames:      a.cfg.Server.MaxFrames,
				AllowedOrigins: a.cfg.Server.AllowedOrigins,
				Logger:         a.log.Named("server"),
			})

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ui.Banner("serving graphs")
			fmt.Printf("  %s  http://%s\n", ui.Subtle.Sprint("Listening"), addr)
			fmt.Printf("  %s  %s\n", ui.Subtle.Sprint("Backend  "), a.cfg.Source.BaseURL)
			fmt.Println()

			if err := srv.ListenAndServe(ctx, addr); err != nil {
				fatal("Server: %v", err)
			}
			st := srv.Stats()
			fmt.Printf("\n  %s Stopped after %d requests\n", ui.StatusIcon(true), st.Requests)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default server.addr)")
	return cmd
}
