package render

import (
	"fmt"
	"io"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// PNGTarget rasterizes into an RGBA image.
type PNGTarget struct {
	dc      *gg.Context
	regular *truetype.Font
	bold    *truetype.Font
	faces   map[faceKey]font.Face
}

type faceKey struct {
	size float64
	bold bool
}

func NewPNGTarget(width, height int) (*PNGTarget, error) {
	regular, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("load regular font: %w", err)
	}
	bold, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("load bold font: %w", err)
	}
	return &PNGTarget{
		dc:      gg.NewContext(width, height),
		regular: regular,
		bold:    bold,
		faces:   make(map[faceKey]font.Face),
	}, nil
}

func (t *PNGTarget) Clear(bg Color) {
	t.dc.Identity()
	t.dc.SetColor(bg.NRGBA(1))
	t.dc.Clear()
}

func (t *PNGTarget) SetTransform(tx, ty, scale float64) {
	t.dc.Identity()
	t.dc.Translate(tx, ty)
	t.dc.Scale(scale, scale)
}

func (t *PNGTarget) Line(x1, y1, x2, y2 float64, s Style) {
	if !s.Stroke.Visible() || s.StrokeWidth <= 0 {
		return
	}
	t.dc.DrawLine(x1, y1, x2, y2)
	t.stroke(s)
}

func (t *PNGTarget) Arrow(x1, y1, x2, y2, size float64, s Style) {
	xs, ys, ok := arrowHead(x1, y1, x2, y2, size)
	if !ok || !s.Fill.Visible() {
		return
	}
	t.dc.MoveTo(xs[0], ys[0])
	t.dc.LineTo(xs[1], ys[1])
	t.dc.LineTo(xs[2], ys[2])
	t.dc.ClosePath()
	t.dc.SetColor(s.Fill.NRGBA(s.Opacity))
	t.dc.Fill()
}

func (t *PNGTarget) Circle(cx, cy, r float64, s Style) {
	t.dc.DrawCircle(cx, cy, r)
	t.paint(s)
}

func (t *PNGTarget) RoundedRect(x, y, w, h, radius float64, s Style) {
	t.dc.DrawRoundedRectangle(x, y, w, h, radius)
	t.paint(s)
}

func (t *PNGTarget) Text(x, y float64, text string, s TextStyle) {
	t.dc.SetFontFace(t.face(s.Size, s.Bold))
	t.dc.SetColor(s.Color.NRGBA(s.Opacity))
	var ax float64
	switch s.Anchor {
	case AnchorMiddle:
		ax = 0.5
	case AnchorEnd:
		ax = 1
	}
	t.dc.DrawStringAnchored(text, x, y, ax, 0)
}

func (t *PNGTarget) face(size float64, bold bool) font.Face {
	if size <= 0 {
		size = labelFontSize
	}
	key := faceKey{size, bold}
	if f, ok := t.faces[key]; ok {
		return f
	}
	ttf := t.regular
	if bold {
		ttf = t.bold
	}
	f := truetype.NewFace(ttf, &truetype.Options{Size: size})
	t.faces[key] = f
	return f
}

// paint fills then strokes the current path.
func (t *PNGTarget) paint(s Style) {
	hasStroke := s.Stroke.Visible() && s.StrokeWidth > 0
	if s.Fill.Visible() {
		t.dc.SetColor(s.Fill.NRGBA(s.Opacity))
		if hasStroke {
			t.dc.FillPreserve()
		} else {
			t.dc.Fill()
		}
	}
	if hasStroke {
		t.stroke(s)
		return
	}
	t.dc.ClearPath()
}

func (t *PNGTarget) stroke(s Style) {
	t.dc.SetColor(s.Stroke.NRGBA(s.Opacity))
	t.dc.SetLineWidth(s.StrokeWidth)
	t.dc.SetDash(s.Dash...)
	t.dc.Stroke()
	t.dc.SetDash()
}

func (t *PNGTarget) Encode(w io.Writer) error {
	return t.dc.EncodePNG(w)
}
