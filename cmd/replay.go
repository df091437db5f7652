package cmd

import (
	"bytes"
	"context"
	"time"

	"github.com/msalah0e/depviz/internal/render"
	"github.com/msalah0e/depviz/internal/replay"
	"github.com/msalah0e/depviz/internal/session"
	"github.com/msalah0e/depviz/internal/ui"
	"github.com/spf13/cobra"
)

func replayCmd() *cobra.Command {
	var (
		view   viewFlags
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "replay <script.toml> [model-id]",
		Short: "Play scripted gestures against a graph and render the result",
		Long: `Replay pointer and viewport gestures from a TOML script, then draw the
final frame. Time only moves on "wait" steps, so clicks and long presses
replay identically every run.

  model = "42"
  layout = "hierarchical"

  [[step]]
  action = "down"
  node = "42"

  [[step]]
  action = "move"
  dx = 80

  [[step]]
  action = "up"

Actions: down, move, hover, up, leave, zoom_in, zoom_out, reset, pan,
fit, select, deselect, wait, settle.`,
		Args: cobra.RangeArgs(1, 2),
		Run: func(cmd *cobra.Command, args []string) {
			a := setup()
			defer a.log.Sync()
			ctx := context.Background()

			script, err := replay.Load(args[0])
			if err != nil {
				fatal("Replay script: %v", err)
			}

			ids := args[1:]
			if len(ids) == 0 && script.Model != "" {
				ids = []string{script.Model}
			}
			g, name := a.loadGraph(ctx, ids)

			if view.layout == "" {
				view.layout = script.Layout
			}
			if err := view.apply(a.cfg); err != nil {
				fatal("%v", err)
			}
			opts, err := a.cfg.SessionOptions()
			if err != nil {
				fatal("%v", err)
			}
			clock := replay.NewClock(time.Unix(0, 0))
			opts.Interaction.Now = clock.Now
			opts.Logger = a.log.Named("session")

			s, err := session.New(opts)
			if err != nil {
				fatal("%v", err)
			}
			defer s.Stop()
			s.SetGraph(g)
			f, err := view.filter()
			if err != nil {
				fatal("%v", err)
			}
			s.SetFilter(f)
			if _, err := s.Settle(ctx, 0); err != nil {
				fatal("%v", err)
			}
			if a.cfg.Render.Fit {
				s.Fit(a.cfg.Render.FitMargin)
			}
			if view.selectID != "" {
				if err := s.Select(view.selectID); err != nil {
					fatal("%v", err)
				}
			}

			if err := replay.NewPlayer(s, clock, a.log.Named("replay")).Play(ctx, script); err != nil {
				fatal("Replay failed: %v", err)
			}

			if format == "" {
				format = a.cfg.Render.Format
			}
			rf := parseFormat(format)
			var buf bytes.Buffer
			if err := render.Encode(&buf, rf, s.Frame(), s.RenderOptions()); err != nil {
				fatal("Render failed: %v", err)
			}
			path := outputPath(output, name+"-replay", string(rf))
			if err := writeOutput(path, buf.Bytes()); err != nil {
				fatal("Write failed: %v", err)
			}
			if path != "-" {
				sel := s.Selection().SelectedNodeID
				if sel == "" {
					sel = "none"
				}
				ui.Good.Printf("  %s Replayed %d steps into %s %s\n", ui.StatusIcon(true), len(script.Steps),
					ui.Brand.Sprint(path), ui.Subtle.Sprintf("(selected: %s, zoom %.2f)", sel, s.Viewport().Scale))
			}
		},
	}

	view.register(cmd)
	cmd.Flags().StringVar(&format, "format", "", "Output format: svg or png (default from config)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file, - for stdout")
	return cmd
}
