package render

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	svg "github.com/ajstarks/svgo"
)

// SVGTarget draws into an SVG document.
type SVGTarget struct {
	buf       bytes.Buffer
	canvas    *svg.SVG
	width     int
	height    int
	groupOpen bool
	done      bool
}

func NewSVGTarget(width, height int) *SVGTarget {
	t := &SVGTarget{width: width, height: height}
	t.canvas = svg.New(&t.buf)
	t.canvas.Start(width, height)
	return t
}

func (t *SVGTarget) Clear(bg Color) {
	t.closeGroup()
	if bg.Visible() {
		t.canvas.Rect(0, 0, t.width, t.height, "fill:"+bg.Hex())
	}
}

func (t *SVGTarget) SetTransform(tx, ty, scale float64) {
	t.closeGroup()
	if tx == 0 && ty == 0 && scale == 1 {
		return
	}
	t.canvas.Gtransform(fmt.Sprintf("translate(%.2f,%.2f) scale(%.4f)", tx, ty, scale))
	t.groupOpen = true
}

func (t *SVGTarget) closeGroup() {
	if t.groupOpen {
		t.canvas.Gend()
		t.groupOpen = false
	}
}

func (t *SVGTarget) Line(x1, y1, x2, y2 float64, s Style) {
	t.canvas.Path(fmt.Sprintf("M %.2f %.2f L %.2f %.2f", x1, y1, x2, y2), strokeCSS(s)+";fill:none")
}

func (t *SVGTarget) Arrow(x1, y1, x2, y2, size float64, s Style) {
	xs, ys, ok := arrowHead(x1, y1, x2, y2, size)
	if !ok {
		return
	}
	d := fmt.Sprintf("M %.2f %.2f L %.2f %.2f L %.2f %.2f Z", xs[0], ys[0], xs[1], ys[1], xs[2], ys[2])
	t.canvas.Path(d, fillCSS(s.Fill, s.Opacity))
}

// Circle, RoundedRect and Text write their elements directly so coordinates
// keep two decimals; svgo's helpers take ints.
func (t *SVGTarget) Circle(cx, cy, r float64, s Style) {
	fmt.Fprintf(t.canvas.Writer, `<circle cx="%.2f" cy="%.2f" r="%.2f" style="%s" />`+"\n", cx, cy, r, shapeCSS(s))
}

func (t *SVGTarget) RoundedRect(x, y, w, h, radius float64, s Style) {
	fmt.Fprintf(t.canvas.Writer, `<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" rx="%.2f" ry="%.2f" style="%s" />`+"\n",
		x, y, w, h, radius, radius, shapeCSS(s))
}

func (t *SVGTarget) Text(x, y float64, text string, s TextStyle) {
	css := []string{
		fillCSS(s.Color, s.Opacity),
		fmt.Sprintf("font-size:%.0fpx", s.Size),
		"font-family:system-ui,sans-serif",
	}
	switch s.Anchor {
	case AnchorMiddle:
		css = append(css, "text-anchor:middle")
	case AnchorEnd:
		css = append(css, "text-anchor:end")
	}
	if s.Bold {
		css = append(css, "font-weight:600")
	}
	fmt.Fprintf(t.canvas.Writer, `<text x="%.2f" y="%.2f" style="%s">`, x, y, strings.Join(css, ";"))
	xml.EscapeText(t.canvas.Writer, []byte(text))
	io.WriteString(t.canvas.Writer, "</text>\n")
}

// Encode closes the document and writes it to w. Drawing after Encode has
// no effect on the output.
func (t *SVGTarget) Encode(w io.Writer) error {
	if !t.done {
		t.closeGroup()
		t.canvas.End()
		t.done = true
	}
	_, err := w.Write(t.buf.Bytes())
	return err
}

func fillCSS(c Color, opacity float64) string {
	if !c.Visible() {
		return "fill:none"
	}
	return fmt.Sprintf("fill:%s;fill-opacity:%.2f", c.Hex(), c.Alpha(opacity))
}

func strokeCSS(s Style) string {
	if !s.Stroke.Visible() || s.StrokeWidth <= 0 {
		return "stroke:none"
	}
	css := fmt.Sprintf("stroke:%s;stroke-width:%.1f;stroke-opacity:%.2f", s.Stroke.Hex(), s.StrokeWidth, s.Stroke.Alpha(s.Opacity))
	if len(s.Dash) > 0 {
		parts := make([]string, len(s.Dash))
		for i, d := range s.Dash {
			parts[i] = fmt.Sprintf("%g", d)
		}
		css += ";stroke-dasharray:" + strings.Join(parts, ",")
	}
	return css
}

func shapeCSS(s Style) string {
	return fillCSS(s.Fill, s.Opacity) + ";" + strokeCSS(s)
}
