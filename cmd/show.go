package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/msalah0e/depviz/internal/ui"
	"github.com/spf13/cobra"
)

func showCmd() *cobra.Command {
	var (
		asJSON    bool
		showNodes bool
	)

	cmd := &cobra.Command{
		Use:     "show [model-id]",
		Short:   "Summarize a dependency graph",
		Aliases: []string{"stats", "info"},
		Args:    cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			a := setup()
			defer a.log.Sync()

			g, name := a.loadGraph(context.Background(), args)
			stats := g.GetStats()

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(stats); err != nil {
					fatal("%v", err)
				}
				return
			}

			ui.Banner(name)
			if stats.Nodes == 0 {
				fmt.Println("  Empty graph.")
				return
			}

			ui.KeyValue([][2]string{
				{"Models", fmt.Sprint(stats.Nodes)},
				{"Dependencies", fmt.Sprint(stats.Edges)},
				{"Roots", fmt.Sprint(stats.Roots)},
			})
			fmt.Println()

			var riskRows [][]string
			for _, r := range []string{"high", "medium", "low"} {
				if n := stats.ByRisk[r]; n > 0 {
					riskRows = append(riskRows, []string{ui.Risk(r), fmt.Sprint(n)})
				}
			}
			ui.Table([]string{"RISK", "MODELS"}, riskRows)
			fmt.Println()

			depts := make([]string, 0, len(stats.ByDepartment))
			for d := range stats.ByDepartment {
				depts = append(depts, d)
			}
			sort.Strings(depts)
			deptRows := make([][]string, 0, len(depts))
			for _, d := range depts {
				deptRows = append(deptRows, []string{d, fmt.Sprint(stats.ByDepartment[d])})
			}
			ui.Table([]string{"DEPARTMENT", "MODELS"}, deptRows)

			if showNodes {
				fmt.Println()
				rows := make([][]string, 0, len(g.Nodes))
				for _, n := range g.Nodes {
					rows = append(rows, []string{
						n.ID, n.Name, ui.Risk(string(n.RiskRating)), n.Department, n.Owner,
						fmt.Sprintf("%d in / %d out", len(g.Parents(n.ID)), len(g.Children(n.ID))),
					})
				}
				ui.Table([]string{"ID", "NAME", "RISK", "DEPARTMENT", "OWNER", "LINKS"}, rows)
			}
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output stats as JSON")
	cmd.Flags().BoolVar(&showNodes, "nodes", false, "List every model")
	return cmd
}
