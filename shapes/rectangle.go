package shapes

import "fmt"

// Rectangle is an axis-aligned box before rotation.
type Rectangle struct {
	base
	origin        Point
	width, height float64
}

func NewRectangle(x, y, width, height float64, style Style) *Rectangle {
	return &Rectangle{base: newBase(style), origin: Point{X: x, Y: y}, width: width, height: height}
}

func (r *Rectangle) Kind() Kind { return KindRectangle }

func (r *Rectangle) Clone() Shape {
	c := *r
	return &c
}

// Size returns width and height.
func (r *Rectangle) Size() (float64, float64) { return r.width, r.height }

func (r *Rectangle) frame() Rect {
	return Rect{X: r.origin.X, Y: r.origin.Y, Width: r.width, Height: r.height}
}

func (r *Rectangle) Bounds() Rect {
	return rotatedBounds(r.frame(), r.style.Rotation)
}

func (r *Rectangle) Contains(p Point) bool {
	f := r.frame()
	return f.Contains(rotate(p, f.Center(), -r.style.Rotation))
}

func (r *Rectangle) Position() Point { return r.origin }

func (r *Rectangle) MoveTo(p Point) { r.origin = p }

func (r *Rectangle) MoveBy(dx, dy float64) { r.origin = r.origin.Add(dx, dy) }

func (r *Rectangle) record() record {
	rec := r.baseRecord(KindRectangle)
	rec.X, rec.Y = r.origin.X, r.origin.Y
	rec.Width, rec.Height = r.width, r.height
	return rec
}

func decodeRectangle(rec record) (Shape, error) {
	if rec.Width < 0 || rec.Height < 0 {
		return nil, fmt.Errorf("rectangle %s: negative size", rec.ID)
	}
	return &Rectangle{
		base:   baseFromRecord(rec),
		origin: Point{X: rec.X, Y: rec.Y},
		width:  rec.Width,
		height: rec.Height,
	}, nil
}

func init() {
	register(KindRectangle, decodeRectangle)
}
