// Package shapes holds the geometric entities placed on the canvas and kept
// as prototypes: rectangles, circles, regular polygons, free polygons and
// groups of any of those.
//
// Every shape owns its data. Clone returns a fully independent deep copy with
// the same ID; Fresh returns a deep copy carrying new IDs, which is what
// prototype instantiation uses.
package shapes

import (
	"math"

	"github.com/oklog/ulid/v2"
)

// Kind names a shape variant. It is also the discriminator in encoded shapes.
type Kind string

const (
	KindRectangle      Kind = "rectangle"
	KindCircle         Kind = "circle"
	KindRegularPolygon Kind = "regular_polygon"
	KindPolygon        Kind = "polygon"
	KindGroup          Kind = "group"
)

type (
	// Point is a canvas coordinate. Y grows downwards.
	Point struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}

	// Rect is an axis-aligned rectangle anchored at its top-left corner.
	Rect struct {
		X      float64 `json:"x"`
		Y      float64 `json:"y"`
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
	}

	// Style is the editable appearance of a shape. Rotation is in degrees,
	// clockwise, around the centre of the shape's unrotated frame.
	Style struct {
		Border   Color   `json:"border"`
		Fill     Color   `json:"fill"`
		Rotation float64 `json:"rotation"`
	}

	// Shape is implemented by every canvas entity.
	Shape interface {
		ID() string
		Kind() Kind

		// Clone returns a deep copy that shares no mutable state with the receiver.
		Clone() Shape

		// Bounds is the axis-aligned box around the shape, rotation included.
		Bounds() Rect
		Contains(p Point) bool

		// Position is the top-left corner of the unrotated frame.
		Position() Point
		MoveTo(p Point)
		MoveBy(dx, dy float64)

		Style() Style
		SetStyle(s Style)

		Selected() bool
		SetSelected(selected bool)

		setID(id string)
		record() record
	}

	// Container is implemented by shapes that own child shapes.
	Container interface {
		Shape
		// Children returns the owned children in drawing order. The slice is a
		// copy; the shapes are not.
		Children() []Shape
	}
)

// NewID returns a fresh, sortable shape identifier.
func NewID() string {
	return ulid.Make().String()
}

// DefaultStyle is black outline, white fill, no rotation.
func DefaultStyle() Style {
	return Style{Border: Black, Fill: White}
}

func (p Point) Add(dx, dy float64) Point {
	return Point{X: p.X + dx, Y: p.Y + dy}
}

// Max returns the bottom-right corner.
func (r Rect) Max() Point {
	return Point{X: r.X + r.Width, Y: r.Y + r.Height}
}

func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.Width && p.Y >= r.Y && p.Y <= r.Y+r.Height
}

// Union returns the smallest rectangle containing both r and o.
func (r Rect) Union(o Rect) Rect {
	minX := math.Min(r.X, o.X)
	minY := math.Min(r.Y, o.Y)
	maxX := math.Max(r.X+r.Width, o.X+o.Width)
	maxY := math.Max(r.Y+r.Height, o.Y+o.Height)
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Fresh deep-copies s and gives the copy, and every shape inside it, a new ID.
func Fresh(s Shape) Shape {
	c := s.Clone()
	Walk(c, func(child Shape) {
		child.setID(NewID())
	})
	return c
}

// Walk calls fn for s and then for every descendant, depth first.
func Walk(s Shape, fn func(Shape)) {
	fn(s)
	if c, ok := s.(Container); ok {
		for _, child := range c.Children() {
			Walk(child, fn)
		}
	}
}

// base carries the state shared by all variants.
type base struct {
	id       string
	style    Style
	selected bool
}

func newBase(style Style) base {
	return base{id: NewID(), style: style}
}

func (b *base) ID() string                { return b.id }
func (b *base) setID(id string)           { b.id = id }
func (b *base) Style() Style              { return b.style }
func (b *base) SetStyle(s Style)          { b.style = s }
func (b *base) Selected() bool            { return b.selected }
func (b *base) SetSelected(selected bool) { b.selected = selected }

func (b *base) baseRecord(kind Kind) record {
	return record{Kind: kind, ID: b.id, Style: b.style, Selected: b.selected}
}

func baseFromRecord(rec record) base {
	return base{id: rec.ID, style: rec.Style, selected: rec.Selected}
}

// rotate turns p around c by deg degrees, clockwise on screen.
func rotate(p, c Point, deg float64) Point {
	if deg == 0 {
		return p
	}
	rad := deg * math.Pi / 180
	sin, cos := math.Sincos(rad)
	dx, dy := p.X-c.X, p.Y-c.Y
	return Point{X: c.X + dx*cos - dy*sin, Y: c.Y + dx*sin + dy*cos}
}

func rotateAll(points []Point, c Point, deg float64) []Point {
	out := make([]Point, len(points))
	for i, p := range points {
		out[i] = rotate(p, c, deg)
	}
	return out
}

func boundsOf(points []Point) Rect {
	if len(points) == 0 {
		return Rect{}
	}
	minX, minY := points[0].X, points[0].Y
	maxX, maxY := minX, minY
	for _, p := range points[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// rotatedBounds is the axis-aligned box of r turned by deg around its centre.
func rotatedBounds(r Rect, deg float64) Rect {
	if deg == 0 {
		return r
	}
	max := r.Max()
	corners := []Point{{r.X, r.Y}, {max.X, r.Y}, {max.X, max.Y}, {r.X, max.Y}}
	return boundsOf(rotateAll(corners, r.Center(), deg))
}

// insidePolygon is an even-odd ray cast.
func insidePolygon(p Point, poly []Point) bool {
	inside := false
	for i, j := 0, len(poly)-1; i < len(poly); j, i = i, i+1 {
		a, b := poly[i], poly[j]
		if (a.Y > p.Y) != (b.Y > p.Y) &&
			p.X < (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y)+a.X {
			inside = !inside
		}
	}
	return inside
}
