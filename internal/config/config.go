package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
)

// ProjectFile is the per-project override file looked up from the working
// directory upwards.
const ProjectFile = ".depviz.toml"

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

var validate = validator.New()

// Config holds depviz configuration.
type Config struct {
	Canvas      CanvasConfig      `toml:"canvas"`
	Force       ForceConfig       `toml:"force"`
	Hierarchy   HierarchyConfig   `toml:"hierarchy"`
	Viewport    ViewportConfig    `toml:"viewport"`
	Interaction InteractionConfig `toml:"interaction"`
	Render      RenderConfig      `toml:"render"`
	Source      SourceConfig      `toml:"source"`
	Server      ServerConfig      `toml:"server"`
	Parallel    ParallelConfig    `toml:"parallel"`
	Log         LogConfig         `toml:"log"`
}

// CanvasConfig is the drawing area. Nodes are kept Padding inside its edges.
type CanvasConfig struct {
	Width   float64 `toml:"width" validate:"gt=0"`
	Height  float64 `toml:"height" validate:"gt=0"`
	Padding float64 `toml:"padding" validate:"gte=0"`
}

// ForceConfig tunes the force-directed simulation.
type ForceConfig struct {
	Repulsion          float64 `toml:"repulsion" validate:"gt=0"`
	SpringLength       float64 `toml:"spring_length" validate:"gt=0"`
	SpringConstant     float64 `toml:"spring_constant" validate:"gt=0"`
	Damping            float64 `toml:"damping" validate:"gt=0,lte=1"`
	TimeStep           float64 `toml:"time_step" validate:"gt=0"`
	Passes             int     `toml:"passes" validate:"min=1"`
	StabilityThreshold float64 `toml:"stability_threshold" validate:"gt=0"`
	MaxFrames          int     `toml:"max_frames" validate:"gte=0"`
	Seed               int64   `toml:"seed"`
}

// HierarchyConfig sets tier geometry for the hierarchical layout.
type HierarchyConfig struct {
	NodeWidth         float64 `toml:"node_width" validate:"gt=0"`
	NodeHeight        float64 `toml:"node_height" validate:"gt=0"`
	HorizontalSpacing float64 `toml:"horizontal_spacing" validate:"gte=0"`
	VerticalSpacing   float64 `toml:"vertical_spacing" validate:"gte=0"`
	TopMargin         float64 `toml:"top_margin" validate:"gte=0"`
}

type ViewportConfig struct {
	MinScale   float64 `toml:"min_scale" validate:"gt=0"`
	MaxScale   float64 `toml:"max_scale" validate:"gtfield=MinScale"`
	ZoomFactor float64 `toml:"zoom_factor" validate:"gt=1"`
}

type InteractionConfig struct {
	HitRadius     float64 `toml:"hit_radius" validate:"gt=0"`
	ClickWindowMS int     `toml:"click_window_ms" validate:"gt=0"`
	DragEpsilon   float64 `toml:"drag_epsilon" validate:"gt=0"`
}

// RenderConfig controls headless output.
type RenderConfig struct {
	Layout     string  `toml:"layout" validate:"oneof=force hierarchical"`
	Format     string  `toml:"format" validate:"oneof=svg png"`
	EdgeStyle  string  `toml:"edge_style" validate:"oneof=straight orthogonal"`
	GroupBy    string  `toml:"group_by" validate:"oneof=none department risk"`
	Theme      string  `toml:"theme" validate:"oneof=light dark"`
	NodeRadius float64 `toml:"node_radius" validate:"gt=0"`
	ArrowSize  float64 `toml:"arrow_size" validate:"gte=0"`
	Labels     bool    `toml:"labels"`
	Fit        bool    `toml:"fit"`
	FitMargin  float64 `toml:"fit_margin" validate:"gte=0"`
}

// SourceConfig points at the model inventory backend. RelationshipsPath
// must contain an {id} placeholder.
type SourceConfig struct {
	BaseURL           string `toml:"base_url" validate:"omitempty,url"`
	RelationshipsPath string `toml:"relationships_path" validate:"required,contains={id}"`
	Token             string `toml:"token"`
	TimeoutSeconds    int    `toml:"timeout_seconds" validate:"gt=0"`
	// CacheTTL keeps successful payloads on disk for this many seconds;
	// 0 disables the cache.
	CacheTTL int `toml:"cache_ttl_seconds" validate:"gte=0"`
}

type ServerConfig struct {
	Addr           string   `toml:"addr" validate:"required"`
	AllowedOrigins []string `toml:"allowed_origins"`
	// MaxFrames bounds the layout work done per rendered request.
	MaxFrames int `toml:"max_frames" validate:"gte=0"`
}

// ParallelConfig controls concurrent fetches and batch renders.
type ParallelConfig struct {
	Concurrency int `toml:"concurrency" validate:"min=1"`
}

type LogConfig struct {
	Level string `toml:"level" validate:"oneof=debug info warn error"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Canvas: CanvasConfig{Width: 1050, Height: 500, Padding: 50},
		Force: ForceConfig{
			Repulsion:          1000,
			SpringLength:       100,
			SpringConstant:     0.01,
			Damping:            0.9,
			TimeStep:           0.1,
			Passes:             10,
			StabilityThreshold: 0.5,
			MaxFrames:          2000,
		},
		Hierarchy: HierarchyConfig{
			NodeWidth:         120,
			NodeHeight:        60,
			HorizontalSpacing: 40,
			VerticalSpacing:   80,
			TopMargin:         50,
		},
		Viewport:    ViewportConfig{MinScale: 0.5, MaxScale: 2.0, ZoomFactor: 1.2},
		Interaction: InteractionConfig{HitRadius: 20, ClickWindowMS: 200, DragEpsilon: 3},
		Render: RenderConfig{
			Layout:     "force",
			Format:     "svg",
			EdgeStyle:  "straight",
			GroupBy:    "none",
			Theme:      "light",
			NodeRadius: 15,
			ArrowSize:  8,
			Labels:     true,
			Fit:        true,
			FitMargin:  40,
		},
		Source: SourceConfig{
			BaseURL:           "http://localhost:8080",
			RelationshipsPath: "/api/models/{id}/relationships",
			TimeoutSeconds:    10,
			CacheTTL:          30,
		},
		Server: ServerConfig{
			Addr:           "127.0.0.1:7070",
			AllowedOrigins: []string{"*"},
			MaxFrames:      2000,
		},
		Parallel: ParallelConfig{Concurrency: 4},
		Log:      LogConfig{Level: "info"},
	}
}

// ConfigDir returns the depviz config directory path.
func ConfigDir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "depviz")
}

// Path returns the global config file path.
func Path() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads the global config file, then overlays the nearest project file.
// Missing files are not an error; unreadable or invalid ones are.
func Load() (*Config, error) {
	cfg := Default()
	if err := overlay(cfg, Path()); err != nil {
		return nil, err
	}
	if p := findProjectConfig(); p != "" {
		if err := overlay(cfg, p); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads defaults overlaid with a single explicit file, which must
// exist.
func LoadFile(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file: %w", err)
	}
	cfg := Default()
	if err := overlay(cfg, path); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func overlay(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// findProjectConfig walks up from the working directory looking for
// ProjectFile. It returns "" when none is found.
func findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		p := filepath.Join(dir, ProjectFile)
		if _, err := os.Stat(p); err == nil {
			return p
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Save writes the config to the global path.
func Save(cfg *Config) error {
	path := Path()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// EnsureExists creates the config file with defaults if it doesn't exist.
func EnsureExists() error {
	if _, err := os.Stat(Path()); err == nil {
		return nil // already exists
	}
	return Save(Default())
}

// Validate checks every section against its constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		msgs := make([]string, 0, len(verrs))
		for _, e := range verrs {
			msgs = append(msgs, formatFieldError(e))
		}
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
	}
	return nil
}

func formatFieldError(e validator.FieldError) string {
	field := strings.ToLower(strings.TrimPrefix(e.Namespace(), "Config."))
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, e.Param())
	case "gte", "min":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "gtfield":
		return fmt.Sprintf("%s must be greater than %s", field, strings.ToLower(e.Param()))
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "contains":
		return fmt.Sprintf("%s must contain %s", field, e.Param())
	}
	return fmt.Sprintf("%s is invalid", field)
}

// CacheDuration returns the payload cache TTL.
func (s SourceConfig) CacheDuration() time.Duration {
	return time.Duration(s.CacheTTL) * time.Second
}

// Timeout returns the source request timeout.
func (s SourceConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// ClickWindow returns the click detection window.
func (i InteractionConfig) ClickWindow() time.Duration {
	return time.Duration(i.ClickWindowMS) * time.Millisecond
}
