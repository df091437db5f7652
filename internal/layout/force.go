package layout

import (
	"math"
	"math/rand"
	"time"

	"github.com/msalah0e/depviz/internal/graph"
)

// ForceOptions tunes the physics simulation.
type ForceOptions struct {
	Repulsion          float64 // pairwise repulsion numerator, force = Repulsion / d²
	SpringLength       float64 // edge rest length
	SpringConstant     float64 // edge stiffness
	Damping            float64 // velocity retained after each pass
	TimeStep           float64 // integration step
	Passes             int     // relaxation passes per frame
	StabilityThreshold float64 // total movement per frame below which the layout is stable
	MaxFrames          int     // frames after which the layout gives up and reports stable; 0 disables
	Seed               int64   // RNG seed for initial placement; 0 seeds from the clock
}

// DefaultForceOptions returns the standard simulation constants.
func DefaultForceOptions() ForceOptions {
	return ForceOptions{
		Repulsion:          1000,
		SpringLength:       100,
		SpringConstant:     0.01,
		Damping:            0.9,
		TimeStep:           0.1,
		Passes:             10,
		StabilityThreshold: 0.5,
		MaxFrames:          2000,
	}
}

// Force is an iterative spring/repulsion layout.
//
// Repulsion is computed over every unordered pair of nodes on every pass, so
// a frame costs O(n²). That keeps it practical for up to a few hundred nodes.
type Force struct {
	canvas Canvas
	bounds Bounds
	opts   ForceOptions
	rng    *rand.Rand

	graph     *graph.Graph
	view      *graph.Graph
	positions Positions
	pinned    map[string]bool

	stable       bool
	frames       int
	lastMovement float64
}

// NewForce creates a force layout for the given canvas.
func NewForce(canvas Canvas, opts ForceOptions) *Force {
	def := DefaultForceOptions()
	if opts.Passes <= 0 {
		opts.Passes = def.Passes
	}
	if opts.TimeStep <= 0 {
		opts.TimeStep = def.TimeStep
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Force{
		canvas:    canvas,
		bounds:    canvas.Bounds(),
		opts:      opts,
		rng:       rand.New(rand.NewSource(seed)),
		graph:     graph.Empty(),
		positions: make(Positions),
		pinned:    make(map[string]bool),
		stable:    true,
	}
}

func (f *Force) Kind() Kind { return KindForce }

// Load replaces the graph and reseeds positions for ids not found in prior.
func (f *Force) Load(g *graph.Graph, prior Positions) {
	if g == nil {
		g = graph.Empty()
	}
	f.graph = g
	f.view = nil

	positions := make(Positions, g.Len())
	for _, n := range g.Nodes {
		if p, ok := prior[n.ID]; ok {
			x, y := f.bounds.Clamp(p.X, p.Y)
			positions[n.ID] = &Position{X: x, Y: y}
			continue
		}
		positions[n.ID] = f.seed()
	}
	f.positions = positions

	for id := range f.pinned {
		if !g.Has(id) {
			delete(f.pinned, id)
		}
	}
	f.Invalidate()
}

func (f *Force) seed() *Position {
	return &Position{
		X: f.bounds.MinX + f.rng.Float64()*(f.bounds.MaxX-f.bounds.MinX),
		Y: f.bounds.MinY + f.rng.Float64()*(f.bounds.MaxY-f.bounds.MinY),
	}
}

// SetView limits the simulation to view's nodes and edges.
func (f *Force) SetView(view *graph.Graph) {
	f.view = view
	if view != nil {
		for _, n := range view.Nodes {
			if _, ok := f.positions[n.ID]; !ok {
				f.positions[n.ID] = f.seed()
			}
		}
	}
	f.Invalidate()
}

func (f *Force) active() *graph.Graph {
	if f.view != nil {
		return f.view
	}
	return f.graph
}

// Step runs one frame of relaxation passes. Once the summed movement of a
// frame drops below the stability threshold the layout stops moving until
// Invalidate is called.
func (f *Force) Step() float64 {
	if f.stable {
		return 0
	}

	g := f.active()
	nodes := make([]*Position, 0, g.Len())
	ids := make([]string, 0, g.Len())
	for _, n := range g.Nodes {
		if p, ok := f.positions[n.ID]; ok {
			nodes = append(nodes, p)
			ids = append(ids, n.ID)
		}
	}

	var movement float64
	for pass := 0; pass < f.opts.Passes; pass++ {
		f.repel(nodes)
		f.attract(g.Edges)
		movement += f.integrate(ids, nodes)
	}

	f.frames++
	f.lastMovement = movement
	if movement < f.opts.StabilityThreshold || (f.opts.MaxFrames > 0 && f.frames >= f.opts.MaxFrames) {
		f.stable = true
	}
	return movement
}

func (f *Force) repel(nodes []*Position) {
	for i := 0; i < len(nodes); i++ {
		p1 := nodes[i]
		for j := i + 1; j < len(nodes); j++ {
			p2 := nodes[j]
			dx := p2.X - p1.X
			dy := p2.Y - p1.Y
			d := math.Sqrt(dx*dx + dy*dy)
			if d == 0 {
				continue
			}
			force := f.opts.Repulsion / (d * d)
			fx := force * dx / d
			fy := force * dy / d
			p1.VX -= fx
			p1.VY -= fy
			p2.VX += fx
			p2.VY += fy
		}
	}
}

func (f *Force) attract(edges []graph.Edge) {
	for _, e := range edges {
		src, ok := f.positions[e.Source]
		if !ok {
			continue
		}
		dst, ok := f.positions[e.Target]
		if !ok {
			continue
		}
		dx := dst.X - src.X
		dy := dst.Y - src.Y
		d := math.Sqrt(dx*dx + dy*dy)
		if d == 0 {
			continue
		}
		// Positive when stretched: pulls the endpoints together.
		force := (d - f.opts.SpringLength) * f.opts.SpringConstant
		fx := force * dx / d
		fy := force * dy / d
		src.VX += fx
		src.VY += fy
		dst.VX -= fx
		dst.VY -= fy
	}
}

func (f *Force) integrate(ids []string, nodes []*Position) float64 {
	var movement float64
	for i, p := range nodes {
		if f.pinned[ids[i]] {
			p.VX, p.VY = 0, 0
			continue
		}
		x0, y0 := p.X, p.Y
		p.X += p.VX * f.opts.TimeStep
		p.Y += p.VY * f.opts.TimeStep
		p.VX *= f.opts.Damping
		p.VY *= f.opts.Damping
		p.X, p.Y = f.bounds.Clamp(p.X, p.Y)
		movement += math.Abs(p.X-x0) + math.Abs(p.Y-y0)
	}
	return movement
}

func (f *Force) Stable() bool { return f.stable }

// Frames returns the number of frames simulated since the last invalidation.
func (f *Force) Frames() int { return f.frames }

// LastMovement returns the total movement of the most recent frame.
func (f *Force) LastMovement() float64 { return f.lastMovement }

// Invalidate resumes relaxation after an external change.
func (f *Force) Invalidate() {
	f.stable = false
	f.frames = 0
}

// Resize moves the wall box and pulls nodes back inside it.
func (f *Force) Resize(width, height float64) {
	f.canvas.Width = width
	f.canvas.Height = height
	f.bounds = f.canvas.Bounds()
	for _, p := range f.positions {
		p.X, p.Y = f.bounds.Clamp(p.X, p.Y)
	}
	f.Invalidate()
}

func (f *Force) Positions() Positions { return f.positions }

func (f *Force) Pin(id string) {
	f.pinned[id] = true
	if p, ok := f.positions[id]; ok {
		p.VX, p.VY = 0, 0
	}
}

func (f *Force) Unpin(id string) {
	delete(f.pinned, id)
}
