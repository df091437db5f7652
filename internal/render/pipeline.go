package render

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/msalah0e/depviz/internal/graph"
	"github.com/msalah0e/depviz/internal/interaction"
	"github.com/msalah0e/depviz/internal/layout"
	"github.com/msalah0e/depviz/internal/viewport"
)

// EdgeStyle selects how connectors are routed.
type EdgeStyle string

const (
	EdgeStraight   EdgeStyle = "straight"
	EdgeOrthogonal EdgeStyle = "orthogonal"
)

func ParseEdgeStyle(s string) (EdgeStyle, error) {
	switch EdgeStyle(strings.ToLower(strings.TrimSpace(s))) {
	case "", EdgeStraight:
		return EdgeStraight, nil
	case EdgeOrthogonal:
		return EdgeOrthogonal, nil
	}
	return "", fmt.Errorf("unknown edge style %q (use straight or orthogonal)", s)
}

const (
	fadedOpacity       = 0.3
	edgeIdleOpacity    = 0.6
	edgeDimmedOpacity  = 0.35
	tooltipOffsetX     = 15
	tooltipOffsetY     = -10
	tooltipPadding     = 8
	tooltipLineHeight  = 16
	tooltipFontSize    = 12
	tooltipCharWidth   = 0.6 // of font size
	groupPadding       = 15
	groupLabelFontSize = 12
	labelFontSize      = 11
)

// Frame is a consistent snapshot of everything a frame draws.
type Frame struct {
	Graph     *graph.Graph
	Positions layout.Positions
	Viewport  viewport.Viewport
	Selection interaction.Selection
}

// Options controls frame geometry and styling.
type Options struct {
	Width      float64
	Height     float64
	NodeRadius float64
	ArrowSize  float64
	EdgeStyle  EdgeStyle
	GroupBy    graph.GroupBy
	Labels     bool
	Palette    Palette
}

func DefaultOptions() Options {
	return Options{
		Width:      1050,
		Height:     500,
		NodeRadius: 15,
		ArrowSize:  8,
		EdgeStyle:  EdgeStraight,
		GroupBy:    graph.GroupNone,
		Labels:     true,
		Palette:    DefaultPalette(),
	}
}

// Draw issues the draw calls for one frame. It reads f and never modifies it.
func Draw(t Target, f Frame, opts Options) {
	t.Clear(opts.Palette.Background)
	t.SetTransform(f.Viewport.OffsetX, f.Viewport.OffsetY, f.Viewport.Scale)

	g := f.Graph
	if g == nil {
		return
	}

	if opts.GroupBy != graph.GroupNone {
		drawGroups(t, g, f.Positions, opts)
	}

	sel := f.Selection.SelectedNodeID
	if sel != "" && !g.Has(sel) {
		sel = ""
	}
	var connected map[string]bool
	if sel != "" {
		connected = g.Neighbors(sel)
	}

	for _, e := range g.Edges {
		drawEdge(t, e, f.Positions, sel, opts)
	}

	for _, n := range g.Nodes {
		p, ok := f.Positions[n.ID]
		if !ok {
			continue
		}
		drawNode(t, n, p, sel, connected, f.Selection.HoveredNodeID, opts)
	}

	if hov := f.Selection.HoveredNodeID; hov != "" {
		if n, ok := g.Node(hov); ok {
			if p, ok := f.Positions[hov]; ok {
				sx, sy := f.Viewport.WorldToScreen(p.X, p.Y)
				t.SetTransform(0, 0, 1)
				drawTooltip(t, n, sx, sy, opts)
			}
		}
	}
}

type box struct {
	minX, minY, maxX, maxY float64
}

func (b *box) extend(x, y float64) {
	b.minX = math.Min(b.minX, x)
	b.minY = math.Min(b.minY, y)
	b.maxX = math.Max(b.maxX, x)
	b.maxY = math.Max(b.maxY, y)
}

// GroupBoxes returns the padded bounding box of each group, keyed by group.
func GroupBoxes(g *graph.Graph, positions layout.Positions, by graph.GroupBy, pad float64) map[string][4]float64 {
	boxes := make(map[string]*box)
	for _, n := range g.Nodes {
		p, ok := positions[n.ID]
		if !ok {
			continue
		}
		key := graph.GroupKey(n, by)
		if key == "" {
			continue
		}
		b, ok := boxes[key]
		if !ok {
			boxes[key] = &box{p.X, p.Y, p.X, p.Y}
			continue
		}
		b.extend(p.X, p.Y)
	}

	out := make(map[string][4]float64, len(boxes))
	for key, b := range boxes {
		out[key] = [4]float64{b.minX - pad, b.minY - pad, b.maxX - b.minX + 2*pad, b.maxY - b.minY + 2*pad}
	}
	return out
}

func drawGroups(t Target, g *graph.Graph, positions layout.Positions, opts Options) {
	boxes := GroupBoxes(g, positions, opts.GroupBy, opts.NodeRadius+groupPadding)
	keys := make([]string, 0, len(boxes))
	for k := range boxes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		b := boxes[k]
		t.RoundedRect(b[0], b[1], b[2], b[3], 10, Style{
			Fill:        opts.Palette.GroupFill,
			Stroke:      opts.Palette.GroupStroke,
			StrokeWidth: 1,
			Opacity:     1,
			Dash:        []float64{6, 4},
		})
		t.Text(b[0]+8, b[1]+groupLabelFontSize+4, k, TextStyle{
			Color:  opts.Palette.GroupLabel,
			Size:   groupLabelFontSize,
			Anchor: AnchorStart,
			Bold:   true,
		})
	}
}

func edgeStyle(e graph.Edge, sel string, opts Options) Style {
	switch {
	case sel != "" && graph.Touches(e, sel):
		return Style{Stroke: opts.Palette.EdgeActive, Fill: opts.Palette.EdgeActive, StrokeWidth: 2.5, Opacity: 1}
	case sel != "":
		return Style{Stroke: opts.Palette.Edge, Fill: opts.Palette.Edge, StrokeWidth: 1, Opacity: edgeDimmedOpacity}
	}
	return Style{Stroke: opts.Palette.Edge, Fill: opts.Palette.Edge, StrokeWidth: 1, Opacity: edgeIdleOpacity}
}

type point struct{ x, y float64 }

func drawEdge(t Target, e graph.Edge, positions layout.Positions, sel string, opts Options) {
	src, ok := positions[e.Source]
	if !ok {
		return
	}
	dst, ok := positions[e.Target]
	if !ok {
		return
	}
	if src.X == dst.X && src.Y == dst.Y {
		return
	}

	var pts []point
	if opts.EdgeStyle == EdgeOrthogonal {
		midY := (src.Y + dst.Y) / 2
		pts = dedupe([]point{{src.X, src.Y}, {src.X, midY}, {dst.X, midY}, {dst.X, dst.Y}})
	} else {
		pts = []point{{src.X, src.Y}, {dst.X, dst.Y}}
	}

	s := edgeStyle(e, sel, opts)
	arrow := trim(pts, opts.NodeRadius)
	for i := 1; i < len(pts); i++ {
		t.Line(pts[i-1].x, pts[i-1].y, pts[i].x, pts[i].y, s)
	}
	if arrow {
		last, prev := pts[len(pts)-1], pts[len(pts)-2]
		t.Arrow(prev.x, prev.y, last.x, last.y, opts.ArrowSize, s)
	}
}

func dedupe(pts []point) []point {
	out := pts[:1]
	for _, p := range pts[1:] {
		if p != out[len(out)-1] {
			out = append(out, p)
		}
	}
	return out
}

// trim pulls both ends of the polyline back by r so the connector meets the
// node outline. It reports false when the segments are too short to trim, in
// which case the polyline is left untouched and no arrowhead is drawn.
func trim(pts []point, r float64) bool {
	first := math.Hypot(pts[1].x-pts[0].x, pts[1].y-pts[0].y)
	n := len(pts)
	last := math.Hypot(pts[n-1].x-pts[n-2].x, pts[n-1].y-pts[n-2].y)
	if n == 2 && first <= 2*r || n > 2 && (first <= r || last <= r) {
		return false
	}

	// Unit vectors are taken before either end moves; for a single segment
	// both ends share the same pair of points.
	ux0, uy0 := (pts[1].x-pts[0].x)/first, (pts[1].y-pts[0].y)/first
	ux1, uy1 := (pts[n-1].x-pts[n-2].x)/last, (pts[n-1].y-pts[n-2].y)/last

	pts[0].x += ux0 * r
	pts[0].y += uy0 * r
	pts[n-1].x -= ux1 * r
	pts[n-1].y -= uy1 * r
	return true
}

func drawNode(t Target, n graph.Node, p *layout.Position, sel string, connected map[string]bool, hovered string, opts Options) {
	opacity := 1.0
	if sel != "" && n.ID != sel && !connected[n.ID] {
		opacity = fadedOpacity
	}

	s := Style{
		Fill:        opts.Palette.Risk(n.RiskRating),
		Stroke:      opts.Palette.NodeStroke,
		StrokeWidth: 1.5,
		Opacity:     opacity,
	}
	switch n.ID {
	case sel:
		s.Stroke = opts.Palette.SelectedStroke
		s.StrokeWidth = 3
	case hovered:
		s.Stroke = opts.Palette.HoverStroke
		s.StrokeWidth = 2
	}
	t.Circle(p.X, p.Y, opts.NodeRadius, s)

	if opts.Labels {
		t.Text(p.X, p.Y+opts.NodeRadius+labelFontSize+3, n.Name, TextStyle{
			Color:   opts.Palette.Label,
			Size:    labelFontSize,
			Anchor:  AnchorMiddle,
			Opacity: opacity,
		})
	}
}

// TooltipLines is the text shown when hovering a node.
func TooltipLines(n graph.Node) []string {
	lines := []string{n.Name}
	add := func(label, v string) {
		if v != "" {
			lines = append(lines, label+": "+v)
		}
	}
	add("Type", n.Type)
	add("Risk", string(n.RiskRating))
	add("Owner", n.Owner)
	add("Department", n.Department)
	add("Updated", n.LastUpdated)
	return lines
}

// TooltipRect places a w×h tooltip next to screen point (sx, sy), flipping to
// the left and clamping vertically so it stays on a width×height canvas.
func TooltipRect(sx, sy, w, h, width, height float64) (x, y float64) {
	x = sx + tooltipOffsetX
	y = sy + tooltipOffsetY
	if x+w > width {
		x = sx - tooltipOffsetX - w
	}
	if x < 0 {
		x = 0
	}
	if y+h > height {
		y = height - h
	}
	if y < 0 {
		y = 0
	}
	return x, y
}

func drawTooltip(t Target, n graph.Node, sx, sy float64, opts Options) {
	lines := TooltipLines(n)
	longest := 0
	for _, l := range lines {
		if c := len([]rune(l)); c > longest {
			longest = c
		}
	}
	w := float64(longest)*tooltipFontSize*tooltipCharWidth + 2*tooltipPadding
	h := float64(len(lines))*tooltipLineHeight + 2*tooltipPadding

	x, y := TooltipRect(sx, sy, w, h, opts.Width, opts.Height)
	t.RoundedRect(x, y, w, h, 6, Style{Fill: opts.Palette.TooltipFill, Opacity: 1})
	for i, l := range lines {
		t.Text(x+tooltipPadding, y+tooltipPadding+float64(i+1)*tooltipLineHeight-4, l, TextStyle{
			Color:  opts.Palette.TooltipText,
			Size:   tooltipFontSize,
			Anchor: AnchorStart,
			Bold:   i == 0,
		})
	}
}
