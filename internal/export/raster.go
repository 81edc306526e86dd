package export

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"plan-studio/internal/plan/model"
	"plan-studio/internal/plan/scene"
)

// ============================================================
// Raster export
// ============================================================

const (
	// maxRasterDim caps the longer image side; model units are
	// millimeters, so large footprints are scaled down.
	maxRasterDim = 2000
	// DefaultRasterTimeout bounds a single rasterization pass.
	DefaultRasterTimeout = 5 * time.Second
)

// RasterizePNG renders the scene graph to a PNG at its native rendered
// size, bounded by timeout. A timeout surfaces ErrRenderTimeout; a blank
// image is never returned silently.
func RasterizePNG(g *scene.Graph, timeout time.Duration) ([]byte, error) {
	if g == nil {
		return nil, ErrMissingPlan
	}
	if timeout <= 0 {
		timeout = DefaultRasterTimeout
	}

	type result struct {
		data []byte
		err  error
	}
	done := make(chan result, 1)

	go func() {
		data, err := rasterize(g)
		done <- result{data: data, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return nil, &SerializationError{Format: "png", Err: r.err}
		}
		return r.data, nil
	case <-time.After(timeout):
		return nil, ErrRenderTimeout
	}
}

func rasterize(g *scene.Graph) ([]byte, error) {
	vb := g.ViewBox

	px := g.Scale
	if px <= 0 {
		px = 1.0
	}
	longer := math.Max(vb.Width, vb.Height) * px
	if longer > maxRasterDim {
		px *= maxRasterDim / longer
	}

	w := int(math.Ceil(vb.Width * px))
	h := int(math.Ceil(vb.Height * px))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	fill(img, color.White)

	c := &canvas{img: img, offX: vb.X, offY: vb.Y, px: px}
	for _, layer := range g.Layers {
		for _, node := range layer.Nodes {
			c.draw(node)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ============================================================
// Canvas
// ============================================================

type canvas struct {
	img        *image.RGBA
	offX, offY float64
	px         float64
}

func (c *canvas) toPixel(p model.Point) (int, int) {
	return int(math.Round((p.X - c.offX) * c.px)), int(math.Round((p.Y - c.offY) * c.px))
}

func (c *canvas) draw(n scene.Node) {
	switch n.Kind {
	case scene.KindLine:
		if len(n.Points) >= 2 {
			x1, y1 := c.toPixel(n.Points[0])
			x2, y2 := c.toPixel(n.Points[1])
			drawLine(c.img, x1, y1, x2, y2, strokeColor(n.Style))
		}
	case scene.KindPolygon:
		c.drawPolygon(n)
	case scene.KindRect:
		c.drawRect(n)
	case scene.KindCircle:
		cx, cy := c.toPixel(model.Point{X: n.X, Y: n.Y})
		drawCircle(c.img, cx, cy, int(math.Round(n.Radius*c.px)), strokeColor(n.Style))
	case scene.KindText:
		x, y := c.toPixel(model.Point{X: n.X, Y: n.Y})
		drawText(c.img, x, y, n.Text, n.Anchor)
	case scene.KindUse:
		// Symbols are vector-only decorations; the raster keeps the
		// crosshair of the level marker.
		cx, cy := c.toPixel(model.Point{X: n.X + n.Width/2, Y: n.Y + n.Height/2})
		r := int(math.Round(n.Width / 2 * c.px))
		drawCircle(c.img, cx, cy, r, color.Black)
	}
}

func (c *canvas) drawPolygon(n scene.Node) {
	if len(n.Points) < 3 {
		return
	}
	pts := make([][2]int, len(n.Points))
	for i, p := range n.Points {
		x, y := c.toPixel(p)
		pts[i] = [2]int{x, y}
	}

	if fc, ok := fillColor(n.Style); ok {
		fillPolygon(c.img, pts, fc)
	}
	if n.Style != scene.StyleRoomHatch {
		for i := range pts {
			a := pts[i]
			b := pts[(i+1)%len(pts)]
			drawLine(c.img, a[0], a[1], b[0], b[1], strokeColor(n.Style))
		}
	}
}

func (c *canvas) drawRect(n scene.Node) {
	x1, y1 := c.toPixel(model.Point{X: n.X, Y: n.Y})
	x2, y2 := c.toPixel(model.Point{X: n.X + n.Width, Y: n.Y + n.Height})
	col := strokeColor(n.Style)
	drawLine(c.img, x1, y1, x2, y1, col)
	drawLine(c.img, x2, y1, x2, y2, col)
	drawLine(c.img, x2, y2, x1, y2, col)
	drawLine(c.img, x1, y2, x1, y1, col)
}

// ============================================================
// Style resolution
// ============================================================

func strokeColor(style string) color.Color {
	switch style {
	case scene.StyleGridLine, scene.StyleGridLabel:
		return color.RGBA{R: 0xE8, G: 0xE8, B: 0xE8, A: 0xFF}
	case scene.StyleRoomHatch:
		return color.RGBA{R: 0x44, G: 0x44, B: 0x44, A: 0xFF}
	default:
		return color.Black
	}
}

func fillColor(style string) (color.Color, bool) {
	switch style {
	case scene.StyleRoomFill, scene.StylePlanBorder, scene.StyleNorthBody, scene.StyleLabelBox:
		return color.White, true
	case scene.StyleNorthGlyph:
		return color.Black, true
	}
	return nil, false
}

// ============================================================
// Primitive rasterization
// ============================================================

func fill(img *image.RGBA, col color.Color) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			img.Set(x, y, col)
		}
	}
}

func drawLine(img *image.RGBA, x1, y1, x2, y2 int, col color.Color) {
	dx := abs(x2 - x1)
	dy := -abs(y2 - y1)
	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}
	err := dx + dy

	for {
		setIfInside(img, x1, y1, col)
		if x1 == x2 && y1 == y2 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x1 += sx
		}
		if e2 <= dx {
			err += dx
			y1 += sy
		}
	}
}

func drawCircle(img *image.RGBA, cx, cy, r int, col color.Color) {
	if r <= 0 {
		return
	}
	steps := 8 * r
	for i := 0; i < steps; i++ {
		theta := 2 * math.Pi * float64(i) / float64(steps)
		x := cx + int(math.Round(float64(r)*math.Cos(theta)))
		y := cy + int(math.Round(float64(r)*math.Sin(theta)))
		setIfInside(img, x, y, col)
	}
}

// fillPolygon is an even-odd scanline fill.
func fillPolygon(img *image.RGBA, pts [][2]int, col color.Color) {
	minY, maxY := pts[0][1], pts[0][1]
	for _, p := range pts {
		if p[1] < minY {
			minY = p[1]
		}
		if p[1] > maxY {
			maxY = p[1]
		}
	}

	for y := minY; y <= maxY; y++ {
		var xs []int
		n := len(pts)
		for i := 0; i < n; i++ {
			a := pts[i]
			b := pts[(i+1)%n]
			if (a[1] > y) != (b[1] > y) {
				x := a[0] + (y-a[1])*(b[0]-a[0])/(b[1]-a[1])
				xs = append(xs, x)
			}
		}
		sortInts(xs)
		for i := 0; i+1 < len(xs); i += 2 {
			for x := xs[i]; x <= xs[i+1]; x++ {
				setIfInside(img, x, y, col)
			}
		}
	}
}

func drawText(img *image.RGBA, x, y int, text, anchor string) {
	face := basicfont.Face7x13
	width := font.MeasureString(face, text).Ceil()
	switch anchor {
	case "middle":
		x -= width / 2
	case "end":
		x -= width
	}

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Black),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

func setIfInside(img *image.RGBA, x, y int, col color.Color) {
	if image.Pt(x, y).In(img.Bounds()) {
		img.Set(x, y, col)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sortInts(xs []int) {
	for i := 1; i < len(xs); i++ {
		for j := i; j > 0 && xs[j] < xs[j-1]; j-- {
			xs[j], xs[j-1] = xs[j-1], xs[j]
		}
	}
}
