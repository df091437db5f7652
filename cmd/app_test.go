package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/msalah0e/depviz/internal/config"
	"github.com/msalah0e/depviz/internal/graph"
)

func TestOutputPath(t *testing.T) {
	if got := outputPath("", "model-42", "svg"); got != "model-42.svg" {
		t.Errorf("expected model-42.svg, got %q", got)
	}
	if got := outputPath("out/deps.png", "model-42", "svg"); got != "out/deps.png" {
		t.Errorf("explicit path should win, got %q", got)
	}
}

func TestWriteOutputCreatesDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "graph.svg")
	if err := writeOutput(path, []byte("<svg/>")); err != nil {
		t.Fatalf("writeOutput failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "<svg/>" {
		t.Errorf("unexpected file content %q, %v", data, err)
	}
}

func TestExportGraph(t *testing.T) {
	g := graph.New(
		[]graph.Node{{ID: "1", Name: "A"}, {ID: "2", Name: "B"}},
		[]graph.Edge{{Source: "1", Target: "2", Relationship: graph.RelationInputTo}},
	)

	data, err := exportGraph(g, "json")
	if err != nil {
		t.Fatalf("json export failed: %v", err)
	}
	if !strings.Contains(string(data), `"nodes"`) || !strings.HasSuffix(string(data), "\n") {
		t.Errorf("unexpected json export %q", data)
	}

	data, err = exportGraph(g, "CSV")
	if err != nil {
		t.Fatalf("csv export failed: %v", err)
	}
	if !strings.Contains(string(data), "1,2,input_to,") {
		t.Errorf("unexpected csv export %q", data)
	}

	if _, err := exportGraph(g, "xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestViewFlagsApply(t *testing.T) {
	cfg := config.Default()
	v := viewFlags{layout: "tree", group: "risk", edges: "orthogonal", width: 800, noLabels: true, noFit: true}

	if err := v.apply(cfg); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if cfg.Render.Layout != "hierarchical" {
		t.Errorf("tree should normalize to hierarchical, got %q", cfg.Render.Layout)
	}
	if cfg.Render.GroupBy != "risk" || cfg.Render.EdgeStyle != "orthogonal" {
		t.Errorf("overrides not applied: %+v", cfg.Render)
	}
	if cfg.Canvas.Width != 800 || cfg.Canvas.Height != 500 {
		t.Errorf("unexpected canvas %+v", cfg.Canvas)
	}
	if cfg.Render.Labels || cfg.Render.Fit {
		t.Error("labels and fit should be off")
	}
}

func TestViewFlagsApplyRejectsBadValues(t *testing.T) {
	if err := (&viewFlags{layout: "radial"}).apply(config.Default()); err == nil {
		t.Error("expected error for unknown layout")
	}
	err := (&viewFlags{group: "owner"}).apply(config.Default())
	if !errors.Is(err, config.ErrInvalid) {
		t.Errorf("expected ErrInvalid for unknown group, got %v", err)
	}
}

func TestViewFlagsFilter(t *testing.T) {
	f, err := (&viewFlags{risks: []string{"high"}, owners: []string{"ana"}}).filter()
	if err != nil {
		t.Fatalf("filter failed: %v", err)
	}
	if f.IsZero() {
		t.Error("filter should not be zero")
	}
	if _, err := (&viewFlags{risks: []string{"severe"}}).filter(); err == nil {
		t.Error("expected error for unknown risk")
	}
}

func TestLoadConfigFlagOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Chdir(dir)

	path := filepath.Join(dir, "custom.toml")
	os.WriteFile(path, []byte("[source]\nbase_url = \"http://file.local\"\n"), 0o644)

	orig := flags
	t.Cleanup(func() { flags = orig })

	flags.configFile = path
	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.Source.BaseURL != "http://file.local" {
		t.Errorf("config file not used, got %q", cfg.Source.BaseURL)
	}

	flags.source = "http://flag.local"
	flags.token = "t0k"
	cfg, err = loadConfig()
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.Source.BaseURL != "http://flag.local" || cfg.Source.Token != "t0k" {
		t.Errorf("flag overrides not applied: %+v", cfg.Source)
	}

	flags.source = "not a url"
	if _, err := loadConfig(); !errors.Is(err, config.ErrInvalid) {
		t.Errorf("expected ErrInvalid for bad --source, got %v", err)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KB"},
		{3 << 20, "3.0 MB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.n); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestCommandsRegistered(t *testing.T) {
	want := []string{"render", "export", "layout", "show", "replay", "batch", "serve", "config", "cache", "completion"}
	for _, name := range want {
		if c, _, err := rootCmd.Find([]string{name}); err != nil || c.Name() != name {
			t.Errorf("command %q not registered", name)
		}
	}
}

func runRoot(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("depviz %v: %v", args, err)
	}
	return out.String()
}

func TestCompletionScript(t *testing.T) {
	out := runRoot(t, "completion", "bash")
	if !strings.Contains(out, "depviz") {
		t.Errorf("bash completion should reference depviz, got %d bytes", len(out))
	}
}

func TestLayoutFlagCompletion(t *testing.T) {
	out := runRoot(t, "__complete", "render", "--layout", "")
	for _, want := range []string{"force", "hierarchical"} {
		if !strings.Contains(out, want) {
			t.Errorf("--layout completion missing %q in %q", want, out)
		}
	}
}
