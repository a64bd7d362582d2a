package shapes

import "fmt"

// Group is a composite shape. It owns its children: cloning a group clones
// every child, and a shape must not sit in a group and on the canvas at the
// same time.
type Group struct {
	base
	children []Shape
	// origins holds the canvas index each child had before it was grouped.
	// It is neither cloned nor persisted.
	origins []int
}

// NewGroup takes ownership of children. The group style starts from the
// first child's border and fill.
func NewGroup(children ...Shape) *Group {
	style := DefaultStyle()
	if len(children) > 0 {
		first := children[0].Style()
		style.Border, style.Fill = first.Border, first.Fill
	}
	return &Group{base: newBase(style), children: append([]Shape(nil), children...)}
}

func (g *Group) Kind() Kind { return KindGroup }

func (g *Group) Clone() Shape {
	c := *g
	c.origins = nil
	c.children = make([]Shape, len(g.children))
	for i, child := range g.children {
		c.children[i] = child.Clone()
	}
	return &c
}

// CloneGroup is Clone with the concrete type kept.
func (g *Group) CloneGroup() *Group {
	return g.Clone().(*Group)
}

func (g *Group) Children() []Shape {
	return append([]Shape(nil), g.children...)
}

func (g *Group) Len() int { return len(g.children) }

// SetOrigins records the canvas index of each child, in child order.
func (g *Group) SetOrigins(indices []int) {
	g.origins = append([]int(nil), indices...)
}

// Origins returns the indices recorded by SetOrigins, or nil when there are
// none for the current children.
func (g *Group) Origins() []int {
	if len(g.origins) == 0 || len(g.origins) != len(g.children) {
		return nil
	}
	return append([]int(nil), g.origins...)
}

// frame is the union of the children's bounds, before group rotation.
func (g *Group) frame() Rect {
	if len(g.children) == 0 {
		return Rect{}
	}
	r := g.children[0].Bounds()
	for _, child := range g.children[1:] {
		r = r.Union(child.Bounds())
	}
	return r
}

func (g *Group) Bounds() Rect {
	return rotatedBounds(g.frame(), g.style.Rotation)
}

func (g *Group) Contains(p Point) bool {
	q := rotate(p, g.frame().Center(), -g.style.Rotation)
	for _, child := range g.children {
		if child.Contains(q) {
			return true
		}
	}
	return false
}

func (g *Group) Position() Point {
	f := g.frame()
	return Point{X: f.X, Y: f.Y}
}

func (g *Group) MoveTo(p Point) {
	cur := g.Position()
	g.MoveBy(p.X-cur.X, p.Y-cur.Y)
}

func (g *Group) MoveBy(dx, dy float64) {
	for _, child := range g.children {
		child.MoveBy(dx, dy)
	}
}

// SetStyle stores s on the group and pushes border and fill down to every
// child. Children keep their own rotation.
func (g *Group) SetStyle(s Style) {
	g.style = s
	for _, child := range g.children {
		cs := child.Style()
		cs.Border, cs.Fill = s.Border, s.Fill
		child.SetStyle(cs)
	}
}

func (g *Group) record() record {
	rec := g.baseRecord(KindGroup)
	rec.Children = make([]record, len(g.children))
	for i, child := range g.children {
		rec.Children[i] = child.record()
	}
	return rec
}

func decodeGroup(rec record) (Shape, error) {
	if len(rec.Children) == 0 {
		return nil, fmt.Errorf("group %s: no children", rec.ID)
	}
	g := &Group{base: baseFromRecord(rec), children: make([]Shape, 0, len(rec.Children))}
	for _, childRec := range rec.Children {
		child, err := fromRecord(childRec)
		if err != nil {
			return nil, fmt.Errorf("group %s: %w", rec.ID, err)
		}
		g.children = append(g.children, child)
	}
	return g, nil
}

func init() {
	register(KindGroup, decodeGroup)
}
