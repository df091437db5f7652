package layout

import "github.com/msalah0e/depviz/internal/graph"

// HierarchicalOptions controls tier geometry.
type HierarchicalOptions struct {
	NodeWidth         float64
	NodeHeight        float64
	HorizontalSpacing float64
	VerticalSpacing   float64
	TopMargin         float64
}

func DefaultHierarchicalOptions() HierarchicalOptions {
	return HierarchicalOptions{
		NodeWidth:         120,
		NodeHeight:        60,
		HorizontalSpacing: 40,
		VerticalSpacing:   80,
		TopMargin:         50,
	}
}

// Hierarchical places nodes in horizontal tiers by shortest distance from a
// root. It is computed in one shot and is always stable.
type Hierarchical struct {
	canvas Canvas
	opts   HierarchicalOptions

	graph     *graph.Graph
	view      *graph.Graph
	positions Positions
	levels    map[string]int
	pinned    map[string]bool
}

// NewHierarchical creates a tiered layout for the given canvas.
func NewHierarchical(canvas Canvas, opts HierarchicalOptions) *Hierarchical {
	if opts.NodeWidth <= 0 || opts.NodeHeight <= 0 {
		opts = DefaultHierarchicalOptions()
	}
	return &Hierarchical{
		canvas:    canvas,
		opts:      opts,
		graph:     graph.Empty(),
		positions: make(Positions),
		levels:    make(map[string]int),
		pinned:    make(map[string]bool),
	}
}

func (h *Hierarchical) Kind() Kind { return KindHierarchical }

// Load replaces the graph and recomputes every tier. Prior coordinates are
// not used: tier placement is fully determined by the graph.
func (h *Hierarchical) Load(g *graph.Graph, _ Positions) {
	if g == nil {
		g = graph.Empty()
	}
	h.graph = g
	h.view = nil
	h.positions = make(Positions, g.Len())
	for id := range h.pinned {
		if !g.Has(id) {
			delete(h.pinned, id)
		}
	}
	h.compute()
}

func (h *Hierarchical) SetView(view *graph.Graph) {
	h.view = view
	h.compute()
}

func (h *Hierarchical) active() *graph.Graph {
	if h.view != nil {
		return h.view
	}
	return h.graph
}

func (h *Hierarchical) compute() {
	g := h.active()
	h.levels = Levels(g)

	var rows [][]string
	for _, n := range g.Nodes {
		lvl := h.levels[n.ID]
		for len(rows) <= lvl {
			rows = append(rows, nil)
		}
		rows[lvl] = append(rows[lvl], n.ID)
	}

	step := h.opts.NodeWidth + h.opts.HorizontalSpacing
	for lvl, row := range rows {
		rowWidth := float64(len(row))*h.opts.NodeWidth + float64(len(row)-1)*h.opts.HorizontalSpacing
		startX := (h.canvas.Width - rowWidth) / 2
		y := float64(lvl)*(h.opts.NodeHeight+h.opts.VerticalSpacing) + h.opts.TopMargin
		for i, id := range row {
			if h.pinned[id] {
				if _, ok := h.positions[id]; ok {
					continue
				}
			}
			h.positions[id] = &Position{
				X: startX + float64(i)*step + h.opts.NodeWidth/2,
				Y: y,
			}
		}
	}
}

// Levels assigns each node its minimum BFS depth from a root (a node with no
// incoming edges). When the graph has no roots the first node is used, and any
// component still unreached afterwards starts its own search at level 0.
func Levels(g *graph.Graph) map[string]int {
	levels := make(map[string]int, g.Len())
	if g.Len() == 0 {
		return levels
	}

	bfs := func(starts []string) {
		type item struct {
			id    string
			level int
		}
		queue := make([]item, 0, len(starts))
		for _, id := range starts {
			queue = append(queue, item{id, 0})
		}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			if prev, seen := levels[cur.id]; seen {
				if cur.level < prev {
					levels[cur.id] = cur.level
				}
				continue
			}
			levels[cur.id] = cur.level
			for _, child := range g.Children(cur.id) {
				queue = append(queue, item{child, cur.level + 1})
			}
		}
	}

	roots := g.Roots()
	if len(roots) == 0 {
		roots = []string{g.Nodes[0].ID}
	}
	bfs(roots)

	for _, n := range g.Nodes {
		if _, ok := levels[n.ID]; !ok {
			bfs([]string{n.ID})
		}
	}
	return levels
}

// Level returns the tier of id in the current arrangement.
func (h *Hierarchical) Level(id string) (int, bool) {
	lvl, ok := h.levels[id]
	return lvl, ok
}

func (h *Hierarchical) Step() float64 { return 0 }

func (h *Hierarchical) Stable() bool { return true }

// Invalidate is a no-op: a dragged node keeps the coordinates it was dropped at.
func (h *Hierarchical) Invalidate() {}

func (h *Hierarchical) Resize(width, height float64) {
	h.canvas.Width = width
	h.canvas.Height = height
	h.compute()
}

func (h *Hierarchical) Positions() Positions { return h.positions }

func (h *Hierarchical) Pin(id string) { h.pinned[id] = true }

func (h *Hierarchical) Unpin(id string) { delete(h.pinned, id) }
