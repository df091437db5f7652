package cmd

import (
	"github.com/msalah0e/depviz/internal/ui"
	"github.com/spf13/cobra"
)

var version = "0.3.0"

// Global flags shared by every command.
var flags struct {
	configFile string
	source     string
	token      string
	file       string
	verbose    bool
}

var rootCmd = &cobra.Command{
	Use:   "depviz",
	Short: "depviz: model dependency graph visualizer",
	Long: ui.Brand.Sprint(ui.Mark+" depviz") + ": lay out, explore and render model dependency graphs\n" +
		ui.Subtle.Sprint("Fetch relationships from the model inventory, then render, export or serve them"),
	Version: version,
}

func init() {
	rootCmd.SetVersionTemplate("depviz {{ .Version }}\n")

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configFile, "config-file", "", "Use this config file instead of the XDG and project files")
	pf.StringVar(&flags.source, "source", "", "Relationships backend base URL (overrides source.base_url)")
	pf.StringVar(&flags.token, "token", "", "Bearer token for the backend (overrides source.token)")
	pf.StringVarP(&flags.file, "file", "f", "", "Read the graph from a JSON file instead of the backend (- for stdin)")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "Debug logging on stderr")

	rootCmd.AddCommand(
		renderCmd(),
		exportCmd(),
		layoutCmd(),
		showCmd(),
		replayCmd(),
		batchCmd(),
		serveCmd(),
		configCmd(),
		cacheCmd(),
		completionCmd(),
	)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
