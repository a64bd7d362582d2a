package shapes

import (
	"fmt"
	"math"
)

// Circle is defined by its centre and radius. Rotation does not change its
// geometry but is kept so style edits round-trip.
type Circle struct {
	base
	center Point
	radius float64
}

func NewCircle(cx, cy, radius float64, style Style) *Circle {
	return &Circle{base: newBase(style), center: Point{X: cx, Y: cy}, radius: radius}
}

func (c *Circle) Kind() Kind { return KindCircle }

func (c *Circle) Clone() Shape {
	cp := *c
	return &cp
}

func (c *Circle) Center() Point   { return c.center }
func (c *Circle) Radius() float64 { return c.radius }

func (c *Circle) Bounds() Rect {
	return Rect{X: c.center.X - c.radius, Y: c.center.Y - c.radius, Width: 2 * c.radius, Height: 2 * c.radius}
}

func (c *Circle) Contains(p Point) bool {
	return math.Hypot(p.X-c.center.X, p.Y-c.center.Y) <= c.radius
}

func (c *Circle) Position() Point {
	return Point{X: c.center.X - c.radius, Y: c.center.Y - c.radius}
}

func (c *Circle) MoveTo(p Point) {
	c.center = Point{X: p.X + c.radius, Y: p.Y + c.radius}
}

func (c *Circle) MoveBy(dx, dy float64) { c.center = c.center.Add(dx, dy) }

func (c *Circle) record() record {
	rec := c.baseRecord(KindCircle)
	rec.X, rec.Y = c.center.X, c.center.Y
	rec.Radius = c.radius
	return rec
}

func decodeCircle(rec record) (Shape, error) {
	if rec.Radius < 0 {
		return nil, fmt.Errorf("circle %s: negative radius", rec.ID)
	}
	return &Circle{base: baseFromRecord(rec), center: Point{X: rec.X, Y: rec.Y}, radius: rec.Radius}, nil
}

func init() {
	register(KindCircle, decodeCircle)
}
