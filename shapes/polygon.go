package shapes

import (
	"fmt"
	"math"
)

// MaxSides bounds the vertex count of a regular polygon.
const MaxSides = 1024

// RegularPolygon has Sides equal edges inscribed in a circle of the given
// radius. With no rotation the first vertex points straight up.
type RegularPolygon struct {
	base
	center Point
	radius float64
	sides  int
}

func NewRegularPolygon(cx, cy, radius float64, sides int, style Style) *RegularPolygon {
	sides = min(max(sides, 3), MaxSides)
	return &RegularPolygon{base: newBase(style), center: Point{X: cx, Y: cy}, radius: radius, sides: sides}
}

func (r *RegularPolygon) Kind() Kind { return KindRegularPolygon }

func (r *RegularPolygon) Clone() Shape {
	c := *r
	return &c
}

func (r *RegularPolygon) Center() Point   { return r.center }
func (r *RegularPolygon) Radius() float64 { return r.radius }
func (r *RegularPolygon) Sides() int      { return r.sides }

// Vertices returns the corner points with rotation applied.
func (r *RegularPolygon) Vertices() []Point {
	out := make([]Point, r.sides)
	start := r.style.Rotation*math.Pi/180 - math.Pi/2
	step := 2 * math.Pi / float64(r.sides)
	for i := range out {
		sin, cos := math.Sincos(start + step*float64(i))
		out[i] = Point{X: r.center.X + r.radius*cos, Y: r.center.Y + r.radius*sin}
	}
	return out
}

func (r *RegularPolygon) Bounds() Rect {
	return boundsOf(r.Vertices())
}

func (r *RegularPolygon) Contains(p Point) bool {
	return insidePolygon(p, r.Vertices())
}

// Position is the top-left corner of the circumscribed circle's box.
func (r *RegularPolygon) Position() Point {
	return Point{X: r.center.X - r.radius, Y: r.center.Y - r.radius}
}

func (r *RegularPolygon) MoveTo(p Point) {
	r.center = Point{X: p.X + r.radius, Y: p.Y + r.radius}
}

func (r *RegularPolygon) MoveBy(dx, dy float64) { r.center = r.center.Add(dx, dy) }

func (r *RegularPolygon) record() record {
	rec := r.baseRecord(KindRegularPolygon)
	rec.X, rec.Y = r.center.X, r.center.Y
	rec.Radius = r.radius
	rec.Sides = r.sides
	return rec
}

func decodeRegularPolygon(rec record) (Shape, error) {
	if rec.Sides < 3 || rec.Sides > MaxSides {
		return nil, fmt.Errorf("regular polygon %s: sides must be between 3 and %d, got %d", rec.ID, MaxSides, rec.Sides)
	}
	if rec.Radius < 0 {
		return nil, fmt.Errorf("regular polygon %s: negative radius", rec.ID)
	}
	return &RegularPolygon{
		base:   baseFromRecord(rec),
		center: Point{X: rec.X, Y: rec.Y},
		radius: rec.Radius,
		sides:  rec.Sides,
	}, nil
}

// Polygon is a free-form closed polygon. Rotation turns it around the centre
// of its unrotated bounds.
type Polygon struct {
	base
	points []Point
}

// NewPolygon copies points; the caller keeps ownership of its slice.
func NewPolygon(points []Point, style Style) *Polygon {
	return &Polygon{base: newBase(style), points: append([]Point(nil), points...)}
}

func (p *Polygon) Kind() Kind { return KindPolygon }

func (p *Polygon) Clone() Shape {
	c := *p
	c.points = append([]Point(nil), p.points...)
	return &c
}

// Points returns a copy of the unrotated vertices.
func (p *Polygon) Points() []Point {
	return append([]Point(nil), p.points...)
}

func (p *Polygon) frame() Rect { return boundsOf(p.points) }

// Vertices returns the vertices with rotation applied.
func (p *Polygon) Vertices() []Point {
	return rotateAll(p.points, p.frame().Center(), p.style.Rotation)
}

func (p *Polygon) Bounds() Rect {
	return boundsOf(p.Vertices())
}

func (p *Polygon) Contains(pt Point) bool {
	return insidePolygon(pt, p.Vertices())
}

func (p *Polygon) Position() Point {
	f := p.frame()
	return Point{X: f.X, Y: f.Y}
}

func (p *Polygon) MoveTo(pt Point) {
	cur := p.Position()
	p.MoveBy(pt.X-cur.X, pt.Y-cur.Y)
}

func (p *Polygon) MoveBy(dx, dy float64) {
	for i := range p.points {
		p.points[i] = p.points[i].Add(dx, dy)
	}
}

func (p *Polygon) record() record {
	rec := p.baseRecord(KindPolygon)
	rec.Points = p.Points()
	return rec
}

func decodePolygon(rec record) (Shape, error) {
	if len(rec.Points) < 3 {
		return nil, fmt.Errorf("polygon %s: needs at least 3 points, got %d", rec.ID, len(rec.Points))
	}
	return &Polygon{base: baseFromRecord(rec), points: append([]Point(nil), rec.Points...)}, nil
}

func init() {
	register(KindRegularPolygon, decodeRegularPolygon)
	register(KindPolygon, decodePolygon)
}
