// Package canvas holds the two ordered stores the UI draws from: the canvas
// shape list and the toolbar buttons.
//
// Neither type locks. The editor session serializes every access, and
// commands are the only writers.
package canvas

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"protodraw/memento"
	"protodraw/shapes"
)

// Canvas is the ordered list of top-level shapes, back to front.
type Canvas struct {
	shapes []shapes.Shape
}

func New() *Canvas {
	return &Canvas{}
}

func (c *Canvas) Len() int { return len(c.shapes) }

// At returns the shape at index i, or nil when i is out of range.
func (c *Canvas) At(i int) shapes.Shape {
	if i < 0 || i >= len(c.shapes) {
		return nil
	}
	return c.shapes[i]
}

// Shapes returns a copy of the list. The shapes themselves are live.
func (c *Canvas) Shapes() []shapes.Shape {
	return append([]shapes.Shape(nil), c.shapes...)
}

// IndexOf returns the index of s by identity, or -1.
func (c *Canvas) IndexOf(s shapes.Shape) int {
	for i, cur := range c.shapes {
		if cur == s {
			return i
		}
	}
	return -1
}

// Find returns the shape with the given ID and its index, or nil and -1.
func (c *Canvas) Find(id string) (shapes.Shape, int) {
	for i, cur := range c.shapes {
		if cur.ID() == id {
			return cur, i
		}
	}
	return nil, -1
}

// Insert places s at index i; i == Len() appends.
func (c *Canvas) Insert(i int, s shapes.Shape) error {
	if s == nil {
		return fmt.Errorf("insert: nil shape")
	}
	if i < 0 || i > len(c.shapes) {
		return fmt.Errorf("insert: index %d out of range [0,%d]", i, len(c.shapes))
	}
	c.shapes = append(c.shapes, nil)
	copy(c.shapes[i+1:], c.shapes[i:])
	c.shapes[i] = s
	return nil
}

func (c *Canvas) Append(s shapes.Shape) error {
	return c.Insert(len(c.shapes), s)
}

// RemoveAt removes and returns the shape at index i.
func (c *Canvas) RemoveAt(i int) (shapes.Shape, error) {
	if i < 0 || i >= len(c.shapes) {
		return nil, fmt.Errorf("remove: index %d out of range [0,%d)", i, len(c.shapes))
	}
	s := c.shapes[i]
	copy(c.shapes[i:], c.shapes[i+1:])
	c.shapes[len(c.shapes)-1] = nil
	c.shapes = c.shapes[:len(c.shapes)-1]
	return s, nil
}

// Remove deletes s by identity and reports the index it had.
func (c *Canvas) Remove(s shapes.Shape) (int, bool) {
	i := c.IndexOf(s)
	if i < 0 {
		return -1, false
	}
	_, _ = c.RemoveAt(i)
	return i, true
}

// HitTest returns the front-most shape containing p, or nil.
func (c *Canvas) HitTest(p shapes.Point) shapes.Shape {
	for i := len(c.shapes) - 1; i >= 0; i-- {
		if c.shapes[i].Contains(p) {
			return c.shapes[i]
		}
	}
	return nil
}

// Selected returns the selected top-level shapes in canvas order.
func (c *Canvas) Selected() []shapes.Shape {
	var out []shapes.Shape
	for _, s := range c.shapes {
		if s.Selected() {
			out = append(out, s)
		}
	}
	return out
}

func (c *Canvas) CreateMemento() *memento.ShapeMemento {
	return memento.NewShapeMemento(c.shapes)
}

// RestoreFromMemento replaces the whole list with clones from m.
func (c *Canvas) RestoreFromMemento(m *memento.ShapeMemento) {
	c.shapes = m.Shapes()
	logrus.WithField("shapes", len(c.shapes)).Info("Canvas restored from memento")
}
