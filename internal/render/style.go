package render

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/msalah0e/depviz/internal/graph"
)

// Color is an 8-bit RGBA color. A zero alpha means "draw nothing".
type Color struct {
	R, G, B, A uint8
}

func RGB(r, g, b uint8) Color { return Color{r, g, b, 0xff} }

// ParseHex reads "#rrggbb" or "#rrggbbaa".
func ParseHex(s string) (Color, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) != 6 && len(h) != 8 {
		return Color{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	if len(h) == 6 {
		return RGB(uint8(v>>16), uint8(v>>8), uint8(v)), nil
	}
	return Color{uint8(v >> 24), uint8(v >> 16), uint8(v >> 8), uint8(v)}, nil
}

func mustHex(s string) Color {
	c, err := ParseHex(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Color) Visible() bool { return c.A > 0 }

// Hex returns the CSS form without alpha.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Alpha combines the color's own alpha with an opacity multiplier.
func (c Color) Alpha(opacity float64) float64 {
	if opacity <= 0 || opacity > 1 {
		opacity = 1
	}
	return float64(c.A) / 255 * opacity
}

// NRGBA converts to an image/color value with opacity applied.
func (c Color) NRGBA(opacity float64) color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: uint8(math.Round(c.Alpha(opacity) * 255))}
}

// Style describes how a shape is filled and stroked. Opacity 0 is treated
// as fully opaque.
type Style struct {
	Fill        Color
	Stroke      Color
	StrokeWidth float64
	Opacity     float64
	Dash        []float64
}

// Anchor is the horizontal alignment of text around its x coordinate.
type Anchor int

const (
	AnchorStart Anchor = iota
	AnchorMiddle
	AnchorEnd
)

type TextStyle struct {
	Color   Color
	Size    float64
	Anchor  Anchor
	Bold    bool
	Opacity float64
}

// Palette is the set of colors a frame is drawn with.
type Palette struct {
	Background     Color
	Edge           Color
	EdgeActive     Color
	NodeStroke     Color
	SelectedStroke Color
	HoverStroke    Color
	Label          Color
	GroupFill      Color
	GroupStroke    Color
	GroupLabel     Color
	TooltipFill    Color
	TooltipText    Color
	RiskHigh       Color
	RiskMedium     Color
	RiskLow        Color
	RiskUnknown    Color
}

func DefaultPalette() Palette {
	return Palette{
		Background:     mustHex("#ffffff"),
		Edge:           mustHex("#94a3b8"),
		EdgeActive:     mustHex("#1e293b"),
		NodeStroke:     mustHex("#ffffff"),
		SelectedStroke: mustHex("#1d4ed8"),
		HoverStroke:    mustHex("#334155"),
		Label:          mustHex("#0f172a"),
		GroupFill:      mustHex("#6366f11a"),
		GroupStroke:    mustHex("#6366f1"),
		GroupLabel:     mustHex("#4338ca"),
		TooltipFill:    mustHex("#1f2937f2"),
		TooltipText:    mustHex("#f9fafb"),
		RiskHigh:       mustHex("#ef4444"),
		RiskMedium:     mustHex("#f59e0b"),
		RiskLow:        mustHex("#10b981"),
		RiskUnknown:    mustHex("#9ca3af"),
	}
}

// DarkPalette suits dark backgrounds.
func DarkPalette() Palette {
	p := DefaultPalette()
	p.Background = mustHex("#1e1e2e")
	p.Edge = mustHex("#6b80bf")
	p.EdgeActive = mustHex("#f8f8f2")
	p.NodeStroke = mustHex("#1e1e2e")
	p.SelectedStroke = mustHex("#8be9fd")
	p.HoverStroke = mustHex("#bd93f9")
	p.Label = mustHex("#f8f8f2")
	p.GroupFill = mustHex("#bd93f91f")
	p.GroupStroke = mustHex("#bd93f9")
	p.GroupLabel = mustHex("#bd93f9")
	p.TooltipFill = mustHex("#2a2a3ef2")
	return p
}

// PaletteByName returns "light" (default) or "dark".
func PaletteByName(name string) (Palette, error) {
	switch strings.ToLower(name) {
	case "", "light":
		return DefaultPalette(), nil
	case "dark":
		return DarkPalette(), nil
	}
	return Palette{}, fmt.Errorf("unknown theme %q (use light or dark)", name)
}

func (p Palette) Risk(r graph.RiskRating) Color {
	switch r {
	case graph.RiskHigh:
		return p.RiskHigh
	case graph.RiskMedium:
		return p.RiskMedium
	case graph.RiskLow:
		return p.RiskLow
	}
	return p.RiskUnknown
}

// arrowHead returns the triangle of an arrowhead whose tip sits at (x2, y2),
// pointing away from (x1, y1).
func arrowHead(x1, y1, x2, y2, size float64) (xs, ys [3]float64, ok bool) {
	dx := x2 - x1
	dy := y2 - y1
	d := math.Hypot(dx, dy)
	if d == 0 || size <= 0 {
		return xs, ys, false
	}
	ux, uy := dx/d, dy/d
	px, py := -uy, ux
	half := size / 2

	xs = [3]float64{x2, x2 - ux*size + px*half, x2 - ux*size - px*half}
	ys = [3]float64{y2, y2 - uy*size + py*half, y2 - uy*size - py*half}
	return xs, ys, true
}
