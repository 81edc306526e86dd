package view

import (
	"math"
	"testing"

	"plan-studio/internal/plan/model"
)

func TestClampScale(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{0.05, 0.1},
		{0.1, 0.1},
		{1.0, 1.0},
		{1.5, 1.5},
		{2.0, 1.5},
		{-1, 0.1},
	}
	for _, tc := range cases {
		if got := ClampScale(tc.in); got != tc.want {
			t.Errorf("ClampScale(%g) = %g, want %g", tc.in, got, tc.want)
		}
	}
}

func TestViewBox_Padded(t *testing.T) {
	bb := model.BoundingBox{MinX: 0, MinY: 0, MaxX: 1000, MaxY: 1000}
	vb := ComputeViewBox(bb, DefaultPadding, 1.0)

	want := Rect{X: -500, Y: -500, Width: 2000, Height: 2000}
	if vb != want {
		t.Fatalf("viewBox = %+v, want %+v", vb, want)
	}
}

func TestViewBox_ScaleIndependent(t *testing.T) {
	bb := model.BoundingBox{MinX: 0, MinY: 0, MaxX: 8000, MaxY: 6000}

	at1 := ComputeViewBox(bb, DefaultPadding, 1.0)
	atMin := ComputeViewBox(bb, DefaultPadding, MinScale)
	atMax := ComputeViewBox(bb, DefaultPadding, MaxScale)

	if at1 != atMin || at1 != atMax {
		t.Fatalf("viewBox varies with scale: %+v %+v %+v", at1, atMin, atMax)
	}
}

func TestToViewSpace_CornersLandOnViewBoxCorners(t *testing.T) {
	bb := model.BoundingBox{MinX: 100, MinY: 200, MaxX: 4100, MaxY: 3200}
	tr := NewTransform(bb, DefaultPadding, 1.0)
	vb := tr.ViewBox()

	cases := []struct {
		in   model.Point
		want model.Point
	}{
		{model.Point{X: bb.MinX, Y: bb.MinY}, model.Point{X: vb.X, Y: vb.Y}},
		{model.Point{X: bb.MaxX, Y: bb.MinY}, model.Point{X: vb.X + vb.Width, Y: vb.Y}},
		{model.Point{X: bb.MaxX, Y: bb.MaxY}, model.Point{X: vb.X + vb.Width, Y: vb.Y + vb.Height}},
		{model.Point{X: bb.MinX, Y: bb.MaxY}, model.Point{X: vb.X, Y: vb.Y + vb.Height}},
	}
	for _, tc := range cases {
		got := tr.ToViewSpace(tc.in)
		if math.Abs(got.X-tc.want.X) > 1e-9 || math.Abs(got.Y-tc.want.Y) > 1e-9 {
			t.Errorf("ToViewSpace(%+v) = %+v, want %+v", tc.in, got, tc.want)
		}
	}
}

func TestToViewSpace_PreservesMidpoint(t *testing.T) {
	bb := model.BoundingBox{MinX: 0, MinY: 0, MaxX: 2000, MaxY: 2000}
	tr := NewTransform(bb, DefaultPadding, 1.0)
	vb := tr.ViewBox()

	mid := tr.ToViewSpace(model.Point{X: 1000, Y: 1000})
	wantX := vb.X + vb.Width/2
	wantY := vb.Y + vb.Height/2
	if math.Abs(mid.X-wantX) > 1e-9 || math.Abs(mid.Y-wantY) > 1e-9 {
		t.Fatalf("midpoint maps to %+v, want (%g, %g)", mid, wantX, wantY)
	}
}

func TestToViewSpace_DegenerateBox(t *testing.T) {
	bb := model.BoundingBox{MinX: 500, MinY: 500, MaxX: 500, MaxY: 500}
	tr := NewTransform(bb, DefaultPadding, 1.0)

	// A zero-size box must not divide by zero.
	got := tr.ToViewSpace(model.Point{X: 500, Y: 500})
	vb := tr.ViewBox()
	if got.X != vb.X || got.Y != vb.Y {
		t.Fatalf("degenerate box maps to %+v, want (%g, %g)", got, vb.X, vb.Y)
	}
}

func TestDisplayScale_Clamped(t *testing.T) {
	bb := model.BoundingBox{MinX: 0, MinY: 0, MaxX: 1000, MaxY: 1000}
	if got := NewTransform(bb, DefaultPadding, 3.0).DisplayScale(); got != MaxScale {
		t.Fatalf("DisplayScale = %g, want %g", got, MaxScale)
	}
}
