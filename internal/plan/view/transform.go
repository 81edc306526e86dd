package view

import (
	"plan-studio/internal/plan/model"
)

// ============================================================
// Coordinate / Scale Transform
// ============================================================

const (
	// DefaultPadding keeps geometry off the view edge, in model millimeters.
	DefaultPadding = 500.0

	MinScale = 0.1
	MaxScale = 1.5
)

// ClampScale saturates the zoom factor to [MinScale, MaxScale]. Out-of-range
// values are clamped, not rejected, matching zoom-button behavior.
func ClampScale(s float64) float64 {
	if s < MinScale {
		return MinScale
	}
	if s > MaxScale {
		return MaxScale
	}
	return s
}

type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Transform maps model-space millimeter coordinates into the padded view
// region of a plan. It is immutable once built.
type Transform struct {
	bb      model.BoundingBox
	padding float64
	scale   float64
}

// NewTransform builds a transform for the given bounding box. Scale is
// clamped; the view box itself is independent of it.
func NewTransform(bb model.BoundingBox, padding, scale float64) Transform {
	return Transform{bb: bb, padding: padding, scale: ClampScale(scale)}
}

// ViewBox is the padded view region in model units. Width and height depend
// only on the bounding box and padding, never on scale, so stroke widths and
// text stay legible at any zoom.
func (t Transform) ViewBox() Rect {
	return Rect{
		X:      t.bb.MinX - t.padding,
		Y:      t.bb.MinY - t.padding,
		Width:  t.bb.Width() + 2*t.padding,
		Height: t.bb.Height() + 2*t.padding,
	}
}

// DisplayScale is the clamped zoom factor, applied by the presentation layer
// as a display transform on top of the fixed-unit view box.
func (t Transform) DisplayScale() float64 {
	return t.scale
}

// ToViewSpace maps a model point so that the bounding box spans the full
// padded view region: the four bounding-box corners land on the four corners
// of the view box, in order.
func (t Transform) ToViewSpace(p model.Point) model.Point {
	vb := t.ViewBox()

	fx := 1.0
	if w := t.bb.Width(); w != 0 {
		fx = vb.Width / w
	}
	fy := 1.0
	if h := t.bb.Height(); h != 0 {
		fy = vb.Height / h
	}

	return model.Point{
		X: vb.X + (p.X-t.bb.MinX)*fx,
		Y: vb.Y + (p.Y-t.bb.MinY)*fy,
	}
}

// ComputeViewBox is the free-function form used by callers that do not need
// point mapping.
func ComputeViewBox(bb model.BoundingBox, padding, scale float64) Rect {
	return NewTransform(bb, padding, scale).ViewBox()
}
