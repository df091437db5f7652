package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/msalah0e/depviz/internal/config"
	"github.com/msalah0e/depviz/internal/graph"
	"github.com/msalah0e/depviz/internal/layout"
	"github.com/msalah0e/depviz/internal/logging"
	"github.com/msalah0e/depviz/internal/render"
	"github.com/msalah0e/depviz/internal/session"
	"github.com/msalah0e/depviz/internal/source"
	"github.com/msalah0e/depviz/internal/ui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app is the per-invocation environment: resolved config and logger.
type app struct {
	cfg *config.Config
	log *zap.Logger
}

func fatal(format string, args ...any) {
	ui.Bad.Printf("  "+format+"\n", args...)
	os.Exit(1)
}

// loadConfig resolves the config file chain and applies global flag overrides.
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if flags.configFile != "" {
		cfg, err = config.LoadFile(flags.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if flags.source != "" {
		cfg.Source.BaseURL = flags.source
	}
	if flags.token != "" {
		cfg.Source.Token = flags.token
	}
	return cfg, cfg.Validate()
}

func setup() *app {
	cfg, err := loadConfig()
	if err != nil {
		fatal("Config: %v", err)
	}
	log, err := logging.New(logging.Level(cfg.Log.Level, flags.verbose))
	if err != nil {
		fatal("Logger: %v", err)
	}
	return &app{cfg: cfg, log: log}
}

func (a *app) client() *source.Client {
	opts := a.cfg.SourceOptions()
	opts.Logger = a.log.Named("source")
	return source.New(opts)
}

// loadGraph reads --file when given, otherwise fetches the model named by
// args[0]. Failures degrade to an empty graph with a warning. The returned
// name labels output files.
func (a *app) loadGraph(ctx context.Context, args []string) (*graph.Graph, string) {
	if flags.file != "" {
		g, err := source.LoadFile(flags.file)
		if err != nil {
			ui.Warn.Printf("  %s %v\n", ui.WarnIcon(), err)
		}
		name := strings.TrimSuffix(filepath.Base(flags.file), filepath.Ext(flags.file))
		if flags.file == "-" {
			name = "stdin"
		}
		return g, name
	}
	if len(args) == 0 {
		fatal("A model id is required (or use --file)")
	}
	id := args[0]
	g, err := a.client().Fetch(ctx, id)
	if err != nil {
		if errors.Is(err, source.ErrUnavailable) {
			ui.Warn.Printf("  %s Backend unavailable, showing an empty graph: %v\n", ui.WarnIcon(), err)
		} else {
			ui.Warn.Printf("  %s %v\n", ui.WarnIcon(), err)
		}
	}
	return g, "model-" + id
}

// viewFlags are the presentation overrides shared by render-like commands.
type viewFlags struct {
	layout      string
	group       string
	edges       string
	theme       string
	risks       []string
	departments []string
	owners      []string
	selectID    string
	width       float64
	height      float64
	noLabels    bool
	noFit       bool
}

func (v *viewFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&v.layout, "layout", "l", "", "Layout: force or hierarchical")
	f.StringVarP(&v.group, "group", "g", "", "Group boxes: none, department or risk")
	f.StringVar(&v.edges, "edges", "", "Edge routing: straight or orthogonal")
	f.StringVar(&v.theme, "theme", "", "Palette: light or dark")
	f.StringSliceVar(&v.risks, "risk", nil, "Only show these risk levels (repeatable)")
	f.StringSliceVar(&v.departments, "department", nil, "Only show these departments (repeatable)")
	f.StringSliceVar(&v.owners, "owner", nil, "Only show these owners (repeatable)")
	f.StringVar(&v.selectID, "select", "", "Highlight this node and its edges")
	f.Float64Var(&v.width, "width", 0, "Canvas width (default from config)")
	f.Float64Var(&v.height, "height", 0, "Canvas height (default from config)")
	f.BoolVar(&v.noLabels, "no-labels", false, "Hide node labels")
	f.BoolVar(&v.noFit, "no-fit", false, "Keep the default viewport instead of fitting the graph")

	cmd.RegisterFlagCompletionFunc("layout", fixedCompletion("force", "hierarchical"))
	cmd.RegisterFlagCompletionFunc("group", fixedCompletion("none", "department", "risk"))
	cmd.RegisterFlagCompletionFunc("edges", fixedCompletion("straight", "orthogonal"))
	cmd.RegisterFlagCompletionFunc("theme", fixedCompletion("light", "dark"))
	cmd.RegisterFlagCompletionFunc("risk", fixedCompletion("high", "medium", "low"))
}

// apply writes the overrides into cfg and revalidates it.
func (v *viewFlags) apply(cfg *config.Config) error {
	if v.layout != "" {
		kind, err := layout.ParseKind(v.layout)
		if err != nil {
			return err
		}
		cfg.Render.Layout = string(kind)
	}
	if v.group != "" {
		cfg.Render.GroupBy = v.group
	}
	if v.edges != "" {
		cfg.Render.EdgeStyle = v.edges
	}
	if v.theme != "" {
		cfg.Render.Theme = v.theme
	}
	if v.width > 0 {
		cfg.Canvas.Width = v.width
	}
	if v.height > 0 {
		cfg.Canvas.Height = v.height
	}
	if v.noLabels {
		cfg.Render.Labels = false
	}
	if v.noFit {
		cfg.Render.Fit = false
	}
	return cfg.Validate()
}

func (v *viewFlags) filter() (graph.Filter, error) {
	return graph.NewFilter(v.risks, v.departments, v.owners)
}

// scene builds a settled headless session for g with the view overrides.
func (a *app) scene(ctx context.Context, g *graph.Graph, v *viewFlags) (*session.Session, error) {
	if err := v.apply(a.cfg); err != nil {
		return nil, err
	}
	f, err := v.filter()
	if err != nil {
		return nil, err
	}
	opts, err := a.cfg.SessionOptions()
	if err != nil {
		return nil, err
	}
	opts.Logger = a.log.Named("session")
	return session.Headless(ctx, g, opts, session.Scene{
		Filter:    f,
		Select:    v.selectID,
		Fit:       a.cfg.Render.Fit,
		FitMargin: a.cfg.Render.FitMargin,
	})
}

// writeOutput writes data to path, or stdout when path is "-".
func writeOutput(path string, data []byte) error {
	if path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// outputPath picks the destination: the explicit flag, or <name>.<ext>.
func outputPath(flag, name, ext string) string {
	if flag != "" {
		return flag
	}
	return fmt.Sprintf("%s.%s", name, ext)
}

func parseFormat(s string) render.Format {
	f, err := render.ParseFormat(s)
	if err != nil {
		fatal("%v", err)
	}
	return f
}

func fixedCompletion(values ...string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return values, cobra.ShellCompDirectiveNoFileComp
	}
}
