// Package viewport maps between world coordinates and screen pixels.
package viewport

import "math"

const (
	DefaultMinScale   = 0.5
	DefaultMaxScale   = 2.0
	DefaultZoomFactor = 1.2
)

// Viewport holds the zoom scale and pan offset. The zero value is not usable;
// call New.
type Viewport struct {
	Scale   float64 `json:"scale"`
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`

	minScale   float64
	maxScale   float64
	zoomFactor float64
}

// Options overrides the zoom limits. Zero fields take the defaults.
type Options struct {
	MinScale   float64
	MaxScale   float64
	ZoomFactor float64
}

func New(opts Options) *Viewport {
	if opts.MinScale <= 0 {
		opts.MinScale = DefaultMinScale
	}
	if opts.MaxScale <= 0 {
		opts.MaxScale = DefaultMaxScale
	}
	if opts.MaxScale < opts.MinScale {
		opts.MaxScale = opts.MinScale
	}
	if opts.ZoomFactor <= 1 {
		opts.ZoomFactor = DefaultZoomFactor
	}
	return &Viewport{
		Scale:      1,
		minScale:   opts.MinScale,
		maxScale:   opts.MaxScale,
		zoomFactor: opts.ZoomFactor,
	}
}

func (v *Viewport) clamp(s float64) float64 {
	return math.Max(v.minScale, math.Min(v.maxScale, s))
}

func (v *Viewport) ZoomIn() {
	v.Scale = v.clamp(v.Scale * v.zoomFactor)
}

func (v *Viewport) ZoomOut() {
	v.Scale = v.clamp(v.Scale / v.zoomFactor)
}

// Reset restores scale 1 with no offset.
func (v *Viewport) Reset() {
	v.Scale = 1
	v.OffsetX = 0
	v.OffsetY = 0
}

// Pan shifts the offset by a screen-space delta. It is not clamped.
func (v *Viewport) Pan(dx, dy float64) {
	v.OffsetX += dx
	v.OffsetY += dy
}

func (v *Viewport) ScreenToWorld(px, py float64) (float64, float64) {
	return (px - v.OffsetX) / v.Scale, (py - v.OffsetY) / v.Scale
}

func (v *Viewport) WorldToScreen(x, y float64) (float64, float64) {
	return x*v.Scale + v.OffsetX, y*v.Scale + v.OffsetY
}

// Fit picks the largest allowed scale that shows the world box
// [minX,maxX]×[minY,maxY] inside a width×height screen with margin pixels on
// every side, and centers it.
func (v *Viewport) Fit(minX, minY, maxX, maxY, width, height, margin float64) {
	w := maxX - minX
	h := maxY - minY
	availW := width - 2*margin
	availH := height - 2*margin
	if availW <= 0 || availH <= 0 {
		v.Reset()
		return
	}

	scale := v.maxScale
	if w > 0 {
		scale = math.Min(scale, availW/w)
	}
	if h > 0 {
		scale = math.Min(scale, availH/h)
	}
	v.Scale = v.clamp(scale)

	cx := (minX + maxX) / 2
	cy := (minY + maxY) / 2
	v.OffsetX = width/2 - cx*v.Scale
	v.OffsetY = height/2 - cy*v.Scale
}

// Bounds returns the zoom limits.
func (v *Viewport) Bounds() (min, max float64) {
	return v.minScale, v.maxScale
}
