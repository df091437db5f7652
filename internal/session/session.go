// Package session ties a graph, its layout, viewport, selection and render
// loop together into one controller.
package session

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/msalah0e/depviz/internal/graph"
	"github.com/msalah0e/depviz/internal/interaction"
	"github.com/msalah0e/depviz/internal/layout"
	"github.com/msalah0e/depviz/internal/render"
	"github.com/msalah0e/depviz/internal/scheduler"
	"github.com/msalah0e/depviz/internal/viewport"
)

// ErrNotPumpable is returned by Settle when the session was given a
// scheduler it cannot drive itself.
var ErrNotPumpable = errors.New("scheduler cannot be pumped")

// ErrNotVisible is returned when selecting a node outside the current view.
var ErrNotVisible = errors.New("node is not visible")

type Options struct {
	Layout      layout.Kind
	Layouts     layout.Options
	Viewport    viewport.Options
	Interaction interaction.Options
	Render      render.Options
	// Scheduler defaults to a scheduler.Queue using the interaction clock.
	Scheduler scheduler.Scheduler
	Logger    *zap.Logger
}

// Session is the single owner of all mutable view state for one graph
// instance. It is not safe for concurrent use.
type Session struct {
	opts Options
	log  *zap.Logger

	graph  *graph.Graph
	filter graph.Filter
	view   *graph.Graph

	engine layout.Engine
	vp     *viewport.Viewport
	sel    interaction.Selection
	ctl    *interaction.Controller
	sched  scheduler.Scheduler
	target render.Target
	frames int
}

func New(opts Options) (*Session, error) {
	if opts.Layout == "" {
		opts.Layout = layout.KindForce
	}
	engine, err := layout.New(opts.Layout, opts.Layouts)
	if err != nil {
		return nil, err
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	sched := opts.Scheduler
	if sched == nil {
		sched = scheduler.NewQueue(opts.Interaction.Now)
	}

	s := &Session{
		opts:   opts,
		log:    log,
		graph:  graph.Empty(),
		engine: engine,
		vp:     viewport.New(opts.Viewport),
		sched:  sched,
	}
	s.view = s.graph
	s.ctl = interaction.New(s.vp, &s.sel, opts.Interaction)
	s.ctl.Bind(s.view, s.engine)
	return s, nil
}

// SetGraph replaces the graph. Nodes that persist keep their positions;
// viewport and selection are left alone.
func (s *Session) SetGraph(g *graph.Graph) {
	if g == nil {
		g = graph.Empty()
	}
	prior := s.engine.Positions().Clone()
	s.graph = g
	s.engine.Load(g, prior)
	s.applyFilter()
	s.log.Debug("graph loaded",
		zap.Int("nodes", g.Len()),
		zap.Int("edges", len(g.Edges)),
		zap.Int("visible", s.view.Len()),
	)
	s.requestFrame()
}

// SetFilter narrows the visible set without touching the graph or positions.
func (s *Session) SetFilter(f graph.Filter) {
	s.filter = f
	s.applyFilter()
	s.requestFrame()
}

func (s *Session) applyFilter() {
	s.view = s.filter.Apply(s.graph)
	if s.view == s.graph {
		s.engine.SetView(nil)
	} else {
		s.engine.SetView(s.view)
	}
	s.ctl.Bind(s.view, s.engine)
}

// SetLayout switches strategy, seeding the new engine from current positions.
func (s *Session) SetLayout(kind layout.Kind) error {
	if kind == s.engine.Kind() {
		return nil
	}
	engine, err := layout.New(kind, s.opts.Layouts)
	if err != nil {
		return err
	}
	engine.Resize(s.opts.Layouts.Canvas.Width, s.opts.Layouts.Canvas.Height)
	engine.Load(s.graph, s.engine.Positions().Clone())
	s.engine = engine
	s.opts.Layout = kind
	s.applyFilter()
	s.log.Debug("layout switched", zap.String("layout", string(kind)))
	s.requestFrame()
	return nil
}

// SetGroupBy changes how group boxes are drawn.
func (s *Session) SetGroupBy(by graph.GroupBy) {
	s.opts.Render.GroupBy = by
	s.requestFrame()
}

// Resize updates the canvas. The layout recomputes; the loop keeps running.
func (s *Session) Resize(width, height float64) {
	s.opts.Layouts.Canvas.Width = width
	s.opts.Layouts.Canvas.Height = height
	s.opts.Render.Width = width
	s.opts.Render.Height = height
	s.engine.Resize(width, height)
	s.requestFrame()
}

// Attach sets the surface frames are drawn onto. Nil detaches.
func (s *Session) Attach(t render.Target) {
	s.target = t
	s.requestFrame()
}

func (s *Session) ZoomIn() {
	s.vp.ZoomIn()
	s.requestFrame()
}

func (s *Session) ZoomOut() {
	s.vp.ZoomOut()
	s.requestFrame()
}

func (s *Session) ResetView() {
	s.vp.Reset()
	s.requestFrame()
}

func (s *Session) Pan(dx, dy float64) {
	s.vp.Pan(dx, dy)
	s.requestFrame()
}

// Fit zooms and pans so every visible node is on screen.
func (s *Session) Fit(margin float64) {
	pos := s.engine.Positions()
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, n := range s.view.Nodes {
		p, ok := pos[n.ID]
		if !ok {
			continue
		}
		minX, minY = math.Min(minX, p.X), math.Min(minY, p.Y)
		maxX, maxY = math.Max(maxX, p.X), math.Max(maxY, p.Y)
	}
	if math.IsInf(minX, 1) {
		s.vp.Reset()
	} else {
		s.vp.Fit(minX, minY, maxX, maxY, s.opts.Render.Width, s.opts.Render.Height, margin)
	}
	s.requestFrame()
}

// Select sets or clears (empty id) the selected node.
func (s *Session) Select(id string) error {
	if id != "" && !s.view.Has(id) {
		return fmt.Errorf("%w: %q", ErrNotVisible, id)
	}
	s.sel.SelectedNodeID = id
	s.requestFrame()
	return nil
}

// ResetSelection clears both selection and hover.
func (s *Session) ResetSelection() {
	s.sel = interaction.Selection{}
	s.requestFrame()
}

func (s *Session) PointerDown(px, py float64) { s.input(s.ctl.PointerDown(px, py)) }
func (s *Session) PointerMove(px, py float64) { s.input(s.ctl.PointerMove(px, py)) }
func (s *Session) PointerUp(px, py float64)   { s.input(s.ctl.PointerUp(px, py)) }
func (s *Session) PointerLeave()              { s.input(s.ctl.PointerLeave()) }

func (s *Session) input(changed bool) {
	if changed || !s.engine.Stable() {
		s.requestFrame()
	}
}

func (s *Session) requestFrame() {
	s.sched.RequestFrame(s.frame)
}

// frame steps the layout, draws, and keeps the loop alive while the layout
// is still moving.
func (s *Session) frame(time.Time) {
	s.frames++
	if !s.engine.Stable() {
		s.engine.Step()
		if s.engine.Stable() {
			s.log.Debug("layout stable", zap.Int("frames", s.frames))
		}
	}
	if s.target != nil {
		render.Draw(s.target, s.Frame(), s.opts.Render)
	}
	if !s.engine.Stable() {
		s.sched.RequestFrame(s.frame)
	}
}

// Settle pumps frames until the loop goes idle, maxFrames have run, or ctx
// ends. It needs the default queue scheduler.
func (s *Session) Settle(ctx context.Context, maxFrames int) (int, error) {
	q, ok := s.sched.(*scheduler.Queue)
	if !ok {
		return 0, ErrNotPumpable
	}
	return q.Run(ctx, maxFrames)
}

// Draw renders the current state to t without advancing the layout.
func (s *Session) Draw(t render.Target) {
	render.Draw(t, s.Frame(), s.opts.Render)
}

// Frame snapshots the state a draw reads.
func (s *Session) Frame() render.Frame {
	return render.Frame{
		Graph:     s.view,
		Positions: s.engine.Positions(),
		Viewport:  *s.vp,
		Selection: s.sel,
	}
}

// Stop cancels the render loop and abandons any gesture in progress.
func (s *Session) Stop() {
	s.ctl.Cancel()
	if q, ok := s.sched.(*scheduler.Queue); ok {
		q.Stop()
		return
	}
	s.sched.Cancel()
}

func (s *Session) Graph() *graph.Graph                 { return s.graph }
func (s *Session) View() *graph.Graph                  { return s.view }
func (s *Session) Engine() layout.Engine               { return s.engine }
func (s *Session) Viewport() *viewport.Viewport        { return s.vp }
func (s *Session) Selection() interaction.Selection    { return s.sel }
func (s *Session) Positions() layout.Positions         { return s.engine.Positions() }
func (s *Session) Gesture() interaction.State          { return s.ctl.State() }
func (s *Session) RenderOptions() render.Options       { return s.opts.Render }
func (s *Session) Controller() *interaction.Controller { return s.ctl }
