package session

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/msalah0e/depviz/internal/graph"
)

// Scene describes a one-shot render: what to show and how long to let the
// layout run before drawing.
type Scene struct {
	Filter graph.Filter
	// Select is the node to highlight; it must survive the filter.
	Select    string
	Fit       bool
	FitMargin float64
	// MaxFrames bounds Settle; 0 relies on the layout's own cap.
	MaxFrames int
}

// Headless builds a session for g, lets the layout settle and applies the
// scene. The caller owns the returned session and should Stop it.
func Headless(ctx context.Context, g *graph.Graph, opts Options, sc Scene) (*Session, error) {
	s, err := New(opts)
	if err != nil {
		return nil, err
	}
	s.SetGraph(g)
	if !sc.Filter.IsZero() {
		s.SetFilter(sc.Filter)
	}
	if sc.Select != "" {
		if err := s.Select(sc.Select); err != nil {
			s.Stop()
			return nil, err
		}
	}

	frames, err := s.Settle(ctx, sc.MaxFrames)
	if err != nil {
		s.Stop()
		return nil, fmt.Errorf("settle layout: %w", err)
	}
	if sc.Fit {
		s.Fit(sc.FitMargin)
	}
	s.log.Debug("headless scene ready",
		zap.Int("frames", frames),
		zap.Bool("stable", s.engine.Stable()),
		zap.Int("visible", s.view.Len()),
	)
	return s, nil
}
