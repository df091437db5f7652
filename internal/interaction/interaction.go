// Package interaction turns pointer events into selection, hover, drag and
// pan changes.
package interaction

import (
	"math"
	"time"

	"github.com/msalah0e/depviz/internal/graph"
	"github.com/msalah0e/depviz/internal/layout"
	"github.com/msalah0e/depviz/internal/viewport"
)

const (
	DefaultHitRadius   = 20.0
	DefaultClickWindow = 200 * time.Millisecond
	DefaultDragEpsilon = 3.0
)

// State is the gesture state of the controller.
type State int

const (
	Idle State = iota
	NodePressed
	Dragging
	Panning
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case NodePressed:
		return "node-pressed"
	case Dragging:
		return "dragging"
	case Panning:
		return "panning"
	}
	return "unknown"
}

// Selection is the user's current focus. Empty ids mean nothing.
type Selection struct {
	SelectedNodeID string `json:"selectedNodeId,omitempty"`
	HoveredNodeID  string `json:"hoveredNodeId,omitempty"`
}

// Layout is the part of a layout engine the controller writes through.
type Layout interface {
	Positions() layout.Positions
	Pin(id string)
	Unpin(id string)
	Invalidate()
}

// Options tunes hit-testing and click detection.
type Options struct {
	HitRadius   float64       // world units
	ClickWindow time.Duration // longest press that still counts as a click
	DragEpsilon float64       // screen pixels the pointer may wander before a press becomes a drag
	Now         func() time.Time
}

// Controller runs the pointer state machine for one graph view.
type Controller struct {
	opts     Options
	viewport *viewport.Viewport
	sel      *Selection

	graph  *graph.Graph
	layout Layout

	state     State
	pressID   string
	pressTime time.Time
	pressX    float64
	pressY    float64
	lastX     float64
	lastY     float64
	grabDX    float64
	grabDY    float64
}

// New creates a controller. The viewport and selection are shared with the
// caller and mutated in place.
func New(vp *viewport.Viewport, sel *Selection, opts Options) *Controller {
	if opts.HitRadius <= 0 {
		opts.HitRadius = DefaultHitRadius
	}
	if opts.ClickWindow <= 0 {
		opts.ClickWindow = DefaultClickWindow
	}
	if opts.DragEpsilon <= 0 {
		opts.DragEpsilon = DefaultDragEpsilon
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Controller{
		opts:     opts,
		viewport: vp,
		sel:      sel,
		graph:    graph.Empty(),
	}
}

// Bind points the controller at the visible graph and the engine that owns
// its positions. An in-flight gesture is abandoned.
func (c *Controller) Bind(g *graph.Graph, l Layout) {
	c.Cancel()
	if g == nil {
		g = graph.Empty()
	}
	c.graph = g
	c.layout = l
}

// SetClock replaces the time source used for click detection.
func (c *Controller) SetClock(now func() time.Time) {
	if now != nil {
		c.opts.Now = now
	}
}

func (c *Controller) State() State { return c.state }

// HitTest returns the topmost node under the screen point. Nodes drawn later
// are on top, so the search runs back to front.
func (c *Controller) HitTest(px, py float64) (string, bool) {
	if c.layout == nil {
		return "", false
	}
	wx, wy := c.viewport.ScreenToWorld(px, py)
	positions := c.layout.Positions()
	for i := len(c.graph.Nodes) - 1; i >= 0; i-- {
		id := c.graph.Nodes[i].ID
		p, ok := positions[id]
		if !ok {
			continue
		}
		if math.Hypot(wx-p.X, wy-p.Y) < c.opts.HitRadius {
			return id, true
		}
	}
	return "", false
}

// PointerDown starts a gesture. It reports whether anything visible changed.
func (c *Controller) PointerDown(px, py float64) bool {
	if c.state != Idle {
		c.Cancel()
	}
	c.pressTime = c.opts.Now()
	c.pressX, c.pressY = px, py
	c.lastX, c.lastY = px, py

	id, ok := c.HitTest(px, py)
	if !ok {
		c.state = Panning
		return false
	}
	c.state = NodePressed
	c.pressID = id
	if p, ok := c.layout.Positions()[id]; ok {
		wx, wy := c.viewport.ScreenToWorld(px, py)
		c.grabDX = p.X - wx
		c.grabDY = p.Y - wy
	}
	return false
}

// PointerMove advances the gesture, or updates hover when idle.
func (c *Controller) PointerMove(px, py float64) bool {
	dx, dy := px-c.lastX, py-c.lastY
	c.lastX, c.lastY = px, py

	switch c.state {
	case Idle:
		id, _ := c.HitTest(px, py)
		if id == c.sel.HoveredNodeID {
			return false
		}
		c.sel.HoveredNodeID = id
		return true

	case Panning:
		if dx == 0 && dy == 0 {
			return false
		}
		c.viewport.Pan(dx, dy)
		return true

	case NodePressed:
		if math.Hypot(px-c.pressX, py-c.pressY) <= c.opts.DragEpsilon {
			return false
		}
		c.state = Dragging
		c.layout.Pin(c.pressID)
		return c.drag(px, py)

	case Dragging:
		return c.drag(px, py)
	}
	return false
}

func (c *Controller) drag(px, py float64) bool {
	p, ok := c.layout.Positions()[c.pressID]
	if !ok {
		return false
	}
	wx, wy := c.viewport.ScreenToWorld(px, py)
	p.X = wx + c.grabDX
	p.Y = wy + c.grabDY
	p.VX, p.VY = 0, 0
	c.layout.Invalidate()
	return true
}

// PointerUp ends the gesture. A quick press that never became a drag is a
// click and toggles selection of the pressed node.
func (c *Controller) PointerUp(px, py float64) bool {
	defer c.reset()

	switch c.state {
	case NodePressed:
		if c.opts.Now().Sub(c.pressTime) >= c.opts.ClickWindow {
			return false
		}
		if c.sel.SelectedNodeID == c.pressID {
			c.sel.SelectedNodeID = ""
		} else {
			c.sel.SelectedNodeID = c.pressID
		}
		return true

	case Dragging:
		c.drag(px, py)
		c.layout.Unpin(c.pressID)
		c.layout.Invalidate()
		return true
	}
	return false
}

// PointerLeave clears hover when the pointer exits the surface.
func (c *Controller) PointerLeave() bool {
	if c.sel.HoveredNodeID == "" {
		return false
	}
	c.sel.HoveredNodeID = ""
	return true
}

// Cancel abandons the gesture in progress, releasing any dragged node.
func (c *Controller) Cancel() {
	if c.state == Dragging && c.layout != nil {
		c.layout.Unpin(c.pressID)
		c.layout.Invalidate()
	}
	c.reset()
}

func (c *Controller) reset() {
	c.state = Idle
	c.pressID = ""
	c.grabDX, c.grabDY = 0, 0
}
