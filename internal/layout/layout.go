// Package layout computes node positions for a dependency graph.
//
// Two strategies share the Engine interface: Force relaxes positions
// iteratively, one Step per animation frame, until the graph settles;
// Hierarchical assigns BFS tiers once and never moves on its own.
// An engine exclusively owns its Positions; callers that need to move a node
// (a drag gesture) Pin it first and Invalidate afterwards.
package layout

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/msalah0e/depviz/internal/graph"
)

// Kind names a layout strategy.
type Kind string

const (
	KindForce        Kind = "force"
	KindHierarchical Kind = "hierarchical"
)

// ErrUnknownKind is returned for unsupported layout names.
var ErrUnknownKind = errors.New("unknown layout")

// ParseKind validates a layout name. Empty selects the force layout.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case "", KindForce:
		return KindForce, nil
	case KindHierarchical, "tree":
		return KindHierarchical, nil
	}
	return "", fmt.Errorf("%w %q (use force or hierarchical)", ErrUnknownKind, s)
}

// Position is a node location in world coordinates. VX and VY only carry
// meaning under the force layout.
type Position struct {
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	VX float64 `json:"vx"`
	VY float64 `json:"vy"`
}

// Positions maps node ids to their current position.
type Positions map[string]*Position

// Get returns a copy of the position for id.
func (p Positions) Get(id string) (Position, bool) {
	pos, ok := p[id]
	if !ok {
		return Position{}, false
	}
	return *pos, true
}

// Clone returns a deep copy.
func (p Positions) Clone() Positions {
	out := make(Positions, len(p))
	for id, pos := range p {
		cp := *pos
		out[id] = &cp
	}
	return out
}

// Bounds is the world-space box nodes are kept inside.
type Bounds struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

// Clamp pins x, y into the box.
func (b Bounds) Clamp(x, y float64) (float64, float64) {
	return math.Max(b.MinX, math.Min(b.MaxX, x)), math.Max(b.MinY, math.Min(b.MaxY, y))
}

// Engine is a layout strategy bound to one graph at a time.
type Engine interface {
	// Kind identifies the strategy.
	Kind() Kind
	// Load replaces the graph. Ids present in prior keep their coordinates,
	// new ids are seeded, positions of ids no longer in g are discarded.
	Load(g *graph.Graph, prior Positions)
	// SetView restricts arrangement to a subset of the loaded graph, such as
	// a filtered view. Positions of hidden nodes are retained untouched.
	// A nil view means the whole loaded graph.
	SetView(view *graph.Graph)
	// Step advances one frame and returns the total movement it produced.
	Step() float64
	// Stable reports whether no further frames are needed.
	Stable() bool
	// Invalidate marks positions as externally changed.
	Invalidate()
	// Resize updates the canvas the layout arranges into.
	Resize(width, height float64)
	// Positions returns the live position map.
	Positions() Positions
	// Pin hands a node to an external writer until Unpin.
	Pin(id string)
	Unpin(id string)
}

// Canvas describes the drawing area an engine lays out into.
type Canvas struct {
	Width   float64
	Height  float64
	Padding float64
}

// Bounds returns the interior box of the canvas.
func (c Canvas) Bounds() Bounds {
	return Bounds{
		MinX: c.Padding,
		MinY: c.Padding,
		MaxX: c.Width - c.Padding,
		MaxY: c.Height - c.Padding,
	}
}

// Options carries every tunable of both strategies.
type Options struct {
	Canvas       Canvas
	Force        ForceOptions
	Hierarchical HierarchicalOptions
}

// New constructs an engine of the given kind.
func New(kind Kind, opts Options) (Engine, error) {
	switch kind {
	case KindForce:
		return NewForce(opts.Canvas, opts.Force), nil
	case KindHierarchical:
		return NewHierarchical(opts.Canvas, opts.Hierarchical), nil
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownKind, kind)
}
