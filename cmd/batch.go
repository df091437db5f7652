package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/msalah0e/depviz/internal/parallel"
	"github.com/msalah0e/depviz/internal/render"
	"github.com/msalah0e/depviz/internal/session"
	"github.com/msalah0e/depviz/internal/source"
	"github.com/msalah0e/depviz/internal/ui"
	"github.com/spf13/cobra"
)

func batchCmd() *cobra.Command {
	var (
		view        viewFlags
		format      string
		dir         string
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "batch <model-id>...",
		Short: "Render many models concurrently",
		Long: `Fetch and render several models in parallel, one file per model.

  depviz batch 42 43 57 -d out/
  depviz batch 42 43 --format png -j 8 -l hierarchical`,
		Args: cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			a := setup()
			defer a.log.Sync()
			if flags.file != "" {
				fatal("batch fetches from the backend; --file is not supported")
			}
			if err := view.apply(a.cfg); err != nil {
				fatal("%v", err)
			}
			filter, err := view.filter()
			if err != nil {
				fatal("%v", err)
			}
			if format == "" {
				format = a.cfg.Render.Format
			}
			rf := parseFormat(format)
			if concurrency < 1 {
				concurrency = a.cfg.Parallel.Concurrency
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				fatal("%v", err)
			}

			opts, err := a.cfg.SessionOptions()
			if err != nil {
				fatal("%v", err)
			}
			opts.Logger = a.log.Named("session")
			client := a.client()
			ctx := context.Background()

			ui.Banner(fmt.Sprintf("rendering %d models", len(args)))
			fetched := client.FetchAll(ctx, args, concurrency)
			tasks := make([]parallel.Task, len(fetched))
			for i, res := range fetched {
				id, g := res.ID, res.Graph
				tasks[i] = parallel.Task{
					Name: id,
					Fn: func() (string, error) {
						if errors.Is(res.Err, source.ErrUnavailable) {
							return "", res.Err
						}
						s, err := session.Headless(ctx, g, opts, session.Scene{
							Filter:    filter,
							Select:    view.selectID,
							Fit:       a.cfg.Render.Fit,
							FitMargin: a.cfg.Render.FitMargin,
						})
						if err != nil {
							return "", err
						}
						defer s.Stop()

						var buf bytes.Buffer
						if err := render.Encode(&buf, rf, s.Frame(), s.RenderOptions()); err != nil {
							return "", err
						}
						path := filepath.Join(dir, fmt.Sprintf("model-%s.%s", id, rf))
						if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
							return "", err
						}
						return path, nil
					},
				}
			}

			results := parallel.Run(tasks, concurrency)
			failed := parallel.Failed(results)
			fmt.Println()
			fmt.Printf("  %d rendered", len(results)-len(failed))
			if len(failed) > 0 {
				fmt.Printf(" · %s", ui.Bad.Sprintf("%d failed", len(failed)))
			}
			fmt.Printf(" %s\n", ui.Subtle.Sprint("→ "+dir))
			if len(failed) > 0 {
				os.Exit(1)
			}
		},
	}

	view.register(cmd)
	cmd.Flags().StringVar(&format, "format", "", "Output format: svg or png (default from config)")
	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "Output directory")
	cmd.Flags().IntVarP(&concurrency, "jobs", "j", 0, "Concurrent renders (default parallel.concurrency)")
	return cmd
}
