package cmd

import (
	"bytes"
	"context"
	"fmt"

	"github.com/msalah0e/depviz/internal/render"
	"github.com/msalah0e/depviz/internal/ui"
	"github.com/spf13/cobra"
)

func renderCmd() *cobra.Command {
	var (
		view   viewFlags
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "render [model-id]",
		Short: "Render a dependency graph to SVG or PNG",
		Long: `Fetch a model's relationships, let the layout settle and draw one frame.

  depviz render 42                          # model-42.svg
  depviz render 42 --format png -o deps.png
  depviz render 42 -l hierarchical -g department --edges orthogonal
  depviz render -f export.json --risk high --select 42 -o -`,
		Args: cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			a := setup()
			defer a.log.Sync()
			ctx := context.Background()

			g, name := a.loadGraph(ctx, args)
			if format == "" {
				format = a.cfg.Render.Format
			}
			f := parseFormat(format)

			s, err := a.scene(ctx, g, &view)
			if err != nil {
				fatal("%v", err)
			}
			defer s.Stop()

			var buf bytes.Buffer
			if err := render.Encode(&buf, f, s.Frame(), s.RenderOptions()); err != nil {
				fatal("Render failed: %v", err)
			}

			path := outputPath(output, name, string(f))
			if err := writeOutput(path, buf.Bytes()); err != nil {
				fatal("Write failed: %v", err)
			}
			if path != "-" {
				ui.Good.Printf("  %s Rendered %s %s\n", ui.StatusIcon(true), ui.Brand.Sprint(path),
					ui.Subtle.Sprint(fmt.Sprintf("(%d nodes, %d edges, %s layout)", s.View().Len(), len(s.View().Edges), s.Engine().Kind())))
			}
		},
	}

	view.register(cmd)
	cmd.Flags().StringVar(&format, "format", "", "Output format: svg or png (default from config)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file, - for stdout (default <name>.<format>)")
	cmd.RegisterFlagCompletionFunc("format", fixedCompletion("svg", "png"))
	return cmd
}
