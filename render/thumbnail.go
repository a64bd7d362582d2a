// Package render draws PNG previews of the canvas for the snapshot stores.
package render

import (
	"bytes"
	"fmt"
	"math"

	"github.com/gogpu/gg"

	"protodraw/memento"
	"protodraw/shapes"
)

const (
	DefaultSize = 256
	padding     = 8
)

// Thumbnailer renders square previews of a canvas memento.
type Thumbnailer struct {
	Size       int
	Background shapes.Color
}

func NewThumbnailer(size int) *Thumbnailer {
	if size <= 0 {
		size = DefaultSize
	}
	return &Thumbnailer{Size: size, Background: shapes.White}
}

// Thumbnail draws every shape of m scaled to fit the preview and returns the
// PNG encoding.
func (t *Thumbnailer) Thumbnail(m *memento.ShapeMemento) ([]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("thumbnail: nil canvas memento")
	}

	dc := gg.NewContext(t.Size, t.Size)
	defer dc.Close()
	dc.ClearWithColor(toRGBA(t.Background))

	list := m.Shapes()
	if len(list) > 0 {
		fit(dc, extent(list), float64(t.Size))
		for _, s := range list {
			if err := draw(dc, s); err != nil {
				return nil, fmt.Errorf("thumbnail: draw %s %s: %w", s.Kind(), s.ID(), err)
			}
		}
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("thumbnail: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func extent(list []shapes.Shape) shapes.Rect {
	r := list[0].Bounds()
	for _, s := range list[1:] {
		r = r.Union(s.Bounds())
	}
	return r
}

// fit maps r onto the size x size preview, centered, keeping the aspect ratio.
func fit(dc *gg.Context, r shapes.Rect, size float64) {
	avail := size - 2*padding
	scale := math.Min(avail/math.Max(r.Width, 1), avail/math.Max(r.Height, 1))
	dc.Translate(size/2, size/2)
	dc.Scale(scale, scale)
	c := r.Center()
	dc.Translate(-c.X, -c.Y)
}

func draw(dc *gg.Context, s shapes.Shape) error {
	switch v := s.(type) {
	case *shapes.Group:
		for _, child := range v.Children() {
			if err := draw(dc, child); err != nil {
				return err
			}
		}
		return nil
	case *shapes.Rectangle:
		w, h := v.Size()
		p := v.Position()
		c := shapes.Point{X: p.X + w/2, Y: p.Y + h/2}
		dc.Push()
		defer dc.Pop()
		dc.RotateAbout(v.Style().Rotation*math.Pi/180, c.X, c.Y)
		return paint(dc, v.Style(), func() { dc.DrawRectangle(p.X, p.Y, w, h) })
	case *shapes.Circle:
		c := v.Center()
		return paint(dc, v.Style(), func() { dc.DrawCircle(c.X, c.Y, v.Radius()) })
	case *shapes.RegularPolygon:
		return paint(dc, v.Style(), func() { path(dc, v.Vertices()) })
	case *shapes.Polygon:
		return paint(dc, v.Style(), func() { path(dc, v.Vertices()) })
	}
	return fmt.Errorf("unsupported shape kind %s", s.Kind())
}

func path(dc *gg.Context, pts []shapes.Point) {
	for i, p := range pts {
		if i == 0 {
			dc.MoveTo(p.X, p.Y)
		} else {
			dc.LineTo(p.X, p.Y)
		}
	}
	dc.ClosePath()
}

// paint fills and then strokes the path built by trace.
func paint(dc *gg.Context, style shapes.Style, trace func()) error {
	if style.Fill.A > 0 {
		trace()
		setColor(dc, style.Fill)
		if err := dc.Fill(); err != nil {
			return err
		}
	}
	if style.Border.A > 0 {
		trace()
		setColor(dc, style.Border)
		dc.SetLineWidth(1)
		if err := dc.Stroke(); err != nil {
			return err
		}
	}
	return nil
}

func setColor(dc *gg.Context, c shapes.Color) {
	rgba := toRGBA(c)
	dc.SetRGBA(rgba.R, rgba.G, rgba.B, rgba.A)
}

func toRGBA(c shapes.Color) gg.RGBA {
	return gg.RGBA{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255, A: float64(c.A) / 255}
}
