package render

import "io"

// Target is a drawing surface. Coordinates passed to the shape methods are
// in the space set by the most recent SetTransform.
type Target interface {
	// Clear fills the whole surface in screen space.
	Clear(bg Color)
	// SetTransform replaces the current transform with translate(tx, ty)
	// followed by a uniform scale.
	SetTransform(tx, ty, scale float64)
	Line(x1, y1, x2, y2 float64, s Style)
	// Arrow draws an arrowhead of the given size with its tip at (x2, y2),
	// oriented along the segment from (x1, y1).
	Arrow(x1, y1, x2, y2, size float64, s Style)
	Circle(cx, cy, r float64, s Style)
	RoundedRect(x, y, w, h, radius float64, s Style)
	Text(x, y float64, text string, s TextStyle)
}

// Encoder is a Target that can serialize what was drawn on it.
type Encoder interface {
	Target
	Encode(w io.Writer) error
}

// Op names a recorded draw call.
type Op string

const (
	OpClear     Op = "clear"
	OpTransform Op = "transform"
	OpLine      Op = "line"
	OpArrow     Op = "arrow"
	OpCircle    Op = "circle"
	OpRect      Op = "rect"
	OpText      Op = "text"
)

// Command is one recorded draw call.
type Command struct {
	Op    Op        `json:"op"`
	Args  []float64 `json:"args,omitempty"`
	Text  string    `json:"text,omitempty"`
	Style Style     `json:"-"`
	Font  TextStyle `json:"-"`
}

// Recorder is a Target that keeps every call, in order.
type Recorder struct {
	Commands []Command
}

func (r *Recorder) add(c Command) { r.Commands = append(r.Commands, c) }

func (r *Recorder) Clear(bg Color) {
	r.add(Command{Op: OpClear, Style: Style{Fill: bg}})
}

func (r *Recorder) SetTransform(tx, ty, scale float64) {
	r.add(Command{Op: OpTransform, Args: []float64{tx, ty, scale}})
}

func (r *Recorder) Line(x1, y1, x2, y2 float64, s Style) {
	r.add(Command{Op: OpLine, Args: []float64{x1, y1, x2, y2}, Style: s})
}

func (r *Recorder) Arrow(x1, y1, x2, y2, size float64, s Style) {
	r.add(Command{Op: OpArrow, Args: []float64{x1, y1, x2, y2, size}, Style: s})
}

func (r *Recorder) Circle(cx, cy, r2 float64, s Style) {
	r.add(Command{Op: OpCircle, Args: []float64{cx, cy, r2}, Style: s})
}

func (r *Recorder) RoundedRect(x, y, w, h, radius float64, s Style) {
	r.add(Command{Op: OpRect, Args: []float64{x, y, w, h, radius}, Style: s})
}

func (r *Recorder) Text(x, y float64, text string, s TextStyle) {
	r.add(Command{Op: OpText, Args: []float64{x, y}, Text: text, Font: s})
}

// Filter returns the recorded commands with the given op.
func (r *Recorder) Filter(op Op) []Command {
	var out []Command
	for _, c := range r.Commands {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// Reset discards everything recorded.
func (r *Recorder) Reset() { r.Commands = r.Commands[:0] }
