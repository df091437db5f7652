package config

import (
	"github.com/msalah0e/depviz/internal/cache"
	"github.com/msalah0e/depviz/internal/graph"
	"github.com/msalah0e/depviz/internal/interaction"
	"github.com/msalah0e/depviz/internal/layout"
	"github.com/msalah0e/depviz/internal/render"
	"github.com/msalah0e/depviz/internal/session"
	"github.com/msalah0e/depviz/internal/source"
	"github.com/msalah0e/depviz/internal/viewport"
)

// LayoutOptions converts the canvas, force and hierarchy sections.
func (c *Config) LayoutOptions() layout.Options {
	return layout.Options{
		Canvas: layout.Canvas{
			Width:   c.Canvas.Width,
			Height:  c.Canvas.Height,
			Padding: c.Canvas.Padding,
		},
		Force: layout.ForceOptions{
			Repulsion:          c.Force.Repulsion,
			SpringLength:       c.Force.SpringLength,
			SpringConstant:     c.Force.SpringConstant,
			Damping:            c.Force.Damping,
			TimeStep:           c.Force.TimeStep,
			Passes:             c.Force.Passes,
			StabilityThreshold: c.Force.StabilityThreshold,
			MaxFrames:          c.Force.MaxFrames,
			Seed:               c.Force.Seed,
		},
		Hierarchical: layout.HierarchicalOptions{
			NodeWidth:         c.Hierarchy.NodeWidth,
			NodeHeight:        c.Hierarchy.NodeHeight,
			HorizontalSpacing: c.Hierarchy.HorizontalSpacing,
			VerticalSpacing:   c.Hierarchy.VerticalSpacing,
			TopMargin:         c.Hierarchy.TopMargin,
		},
	}
}

// RenderOptions converts the render section, sized to the canvas.
func (c *Config) RenderOptions() (render.Options, error) {
	edges, err := render.ParseEdgeStyle(c.Render.EdgeStyle)
	if err != nil {
		return render.Options{}, err
	}
	group, err := graph.ParseGroupBy(c.Render.GroupBy)
	if err != nil {
		return render.Options{}, err
	}
	palette, err := render.PaletteByName(c.Render.Theme)
	if err != nil {
		return render.Options{}, err
	}
	return render.Options{
		Width:      c.Canvas.Width,
		Height:     c.Canvas.Height,
		NodeRadius: c.Render.NodeRadius,
		ArrowSize:  c.Render.ArrowSize,
		EdgeStyle:  edges,
		GroupBy:    group,
		Labels:     c.Render.Labels,
		Palette:    palette,
	}, nil
}

// SessionOptions assembles everything a session needs.
func (c *Config) SessionOptions() (session.Options, error) {
	kind, err := layout.ParseKind(c.Render.Layout)
	if err != nil {
		return session.Options{}, err
	}
	ro, err := c.RenderOptions()
	if err != nil {
		return session.Options{}, err
	}
	return session.Options{
		Layout:  kind,
		Layouts: c.LayoutOptions(),
		Viewport: viewport.Options{
			MinScale:   c.Viewport.MinScale,
			MaxScale:   c.Viewport.MaxScale,
			ZoomFactor: c.Viewport.ZoomFactor,
		},
		Interaction: interaction.Options{
			HitRadius:   c.Interaction.HitRadius,
			ClickWindow: c.Interaction.ClickWindow(),
			DragEpsilon: c.Interaction.DragEpsilon,
		},
		Render: ro,
	}, nil
}

// SourceOptions converts the source section. A positive cache TTL attaches
// the on-disk payload cache.
func (c *Config) SourceOptions() source.Options {
	opts := source.Options{
		BaseURL:           c.Source.BaseURL,
		RelationshipsPath: c.Source.RelationshipsPath,
		Token:             c.Source.Token,
		Timeout:           c.Source.Timeout(),
	}
	if c.Source.CacheTTL > 0 {
		opts.Cache = cache.New(cache.Dir(), c.Source.CacheDuration())
	}
	return opts
}
