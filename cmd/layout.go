package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/msalah0e/depviz/internal/ui"
	"github.com/spf13/cobra"
)

type nodePosition struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

type layoutResult struct {
	Layout    string         `json:"layout"`
	Stable    bool           `json:"stable"`
	Positions []nodePosition `json:"positions"`
}

func layoutCmd() *cobra.Command {
	var (
		view   viewFlags
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "layout [model-id]",
		Short: "Compute node positions without drawing",
		Long: `Run the layout until it settles and print world coordinates.

  depviz layout 42
  depviz layout 42 -l hierarchical --json`,
		Args: cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			a := setup()
			defer a.log.Sync()
			ctx := context.Background()

			g, _ := a.loadGraph(ctx, args)
			view.noFit = true
			s, err := a.scene(ctx, g, &view)
			if err != nil {
				fatal("%v", err)
			}
			defer s.Stop()

			res := layoutResult{Layout: string(s.Engine().Kind()), Stable: s.Engine().Stable()}
			pos := s.Positions()
			for _, n := range s.View().Nodes {
				p, ok := pos.Get(n.ID)
				if !ok {
					continue
				}
				res.Positions = append(res.Positions, nodePosition{ID: n.ID, Name: n.Name, X: p.X, Y: p.Y})
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(res); err != nil {
					fatal("%v", err)
				}
				return
			}

			ui.Banner(res.Layout + " layout")
			if len(res.Positions) == 0 {
				ui.Subtle.Println("  Empty graph.")
				return
			}
			rows := make([][]string, 0, len(res.Positions))
			for _, p := range res.Positions {
				rows = append(rows, []string{p.ID, p.Name, fmt.Sprintf("%.1f", p.X), fmt.Sprintf("%.1f", p.Y)})
			}
			ui.Table([]string{"ID", "NAME", "X", "Y"}, rows)
			fmt.Println()
			if !res.Stable {
				fmt.Printf("  %s Layout hit the frame cap before settling\n", ui.WarnIcon())
			}
		},
	}

	view.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}
