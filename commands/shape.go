package commands

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"protodraw/shapes"
	"protodraw/workspace"
)

// CreateShapeCommand inserts a shape on the canvas.
type CreateShapeCommand struct {
	ws      *workspace.Workspace
	shape   shapes.Shape
	index   int
	applied bool
}

// NewCreateShapeCommand inserts s at index; a negative index appends. The
// index an append lands on is kept so a redo reuses it.
func NewCreateShapeCommand(ws *workspace.Workspace, s shapes.Shape, index int) *CreateShapeCommand {
	return &CreateShapeCommand{ws: ws, shape: s, index: index}
}

func (c *CreateShapeCommand) Name() string { return "create shape" }

func (c *CreateShapeCommand) Shape() shapes.Shape { return c.shape }

func (c *CreateShapeCommand) Execute(ctx context.Context) {
	log := logrus.WithField("command", c.Name())
	if c.shape == nil {
		log.Warn("No shape to create")
		return
	}
	if c.ws.Canvas.IndexOf(c.shape) >= 0 {
		log.WithField("shape_id", c.shape.ID()).Warn("Shape already on canvas")
		return
	}
	idx := c.index
	if idx < 0 || idx > c.ws.Canvas.Len() {
		idx = c.ws.Canvas.Len()
	}
	if err := c.ws.Canvas.Insert(idx, c.shape); err != nil {
		log.WithError(err).Error("Failed to insert shape")
		return
	}
	c.index = idx
	c.applied = true
}

func (c *CreateShapeCommand) Undo(ctx context.Context) {
	if !c.applied {
		logrus.WithField("command", c.Name()).Debug("Nothing to undo, shape was never inserted")
		return
	}
	if _, ok := c.ws.Canvas.Remove(c.shape); !ok {
		logrus.WithField("shape_id", c.shape.ID()).Warn("Shape already removed from canvas")
	}
	c.applied = false
}

// CreateFromPrototypeCommand instantiates a registered prototype and places
// it on the canvas. The instance is built once, so a redo brings back the
// same shape. Composite prototypes go through CreateGroupCommand.
type CreateFromPrototypeCommand struct {
	ws    *workspace.Workspace
	key   string
	pos   shapes.Point
	shape shapes.Shape
	place Command
}

func NewCreateFromPrototypeCommand(ws *workspace.Workspace, key string, pos shapes.Point) *CreateFromPrototypeCommand {
	return &CreateFromPrototypeCommand{ws: ws, key: key, pos: pos}
}

func (c *CreateFromPrototypeCommand) Name() string { return "create from prototype" }

// Shape returns the instance, or nil before a successful Execute.
func (c *CreateFromPrototypeCommand) Shape() shapes.Shape { return c.shape }

func (c *CreateFromPrototypeCommand) Execute(ctx context.Context) {
	if c.place == nil {
		s, err := c.instantiate()
		if err != nil {
			logrus.WithError(err).WithField("key", c.key).Warn("Cannot create shape from prototype")
			return
		}
		if g, ok := s.(*shapes.Group); ok {
			c.place = NewCreateGroupCommand(c.ws, g)
		} else {
			c.place = NewCreateShapeCommand(c.ws, s, -1)
		}
		c.shape = s
	}
	c.place.Execute(ctx)
}

// instantiate looks in the shape registry first, then in the composite one.
func (c *CreateFromPrototypeCommand) instantiate() (shapes.Shape, error) {
	if c.ws.Shapes.Has(c.key) {
		return c.ws.Shapes.Create(c.key, c.pos)
	}
	if c.ws.Composites.Has(c.key) {
		return c.ws.Composites.Create(c.key, c.pos)
	}
	return nil, fmt.Errorf("no prototype registered under %q", c.key)
}

func (c *CreateFromPrototypeCommand) Undo(ctx context.Context) {
	if c.place == nil {
		logrus.WithField("command", c.Name()).Debug("Nothing to undo, no shape was created")
		return
	}
	c.place.Undo(ctx)
}

type removal struct {
	shape shapes.Shape
	index int
}

// DeleteShapesCommand removes one or more shapes and puts each back at its
// own index on undo.
type DeleteShapesCommand struct {
	ws      *workspace.Workspace
	targets []shapes.Shape
	removed []removal // ascending by index
}

func NewDeleteShapesCommand(ws *workspace.Workspace, targets ...shapes.Shape) *DeleteShapesCommand {
	return &DeleteShapesCommand{ws: ws, targets: append([]shapes.Shape(nil), targets...)}
}

func (c *DeleteShapesCommand) Name() string { return "delete shapes" }

func (c *DeleteShapesCommand) Execute(ctx context.Context) {
	c.removed = c.removed[:0]
	seen := make(map[shapes.Shape]bool, len(c.targets))
	for _, s := range c.targets {
		if seen[s] {
			continue
		}
		seen[s] = true
		idx := c.ws.Canvas.IndexOf(s)
		if idx < 0 {
			logrus.WithField("shape_id", s.ID()).Warn("Shape not on canvas, skipped")
			continue
		}
		c.removed = append(c.removed, removal{shape: s, index: idx})
	}
	sortRemovals(c.removed)

	// Remove from the back so earlier indices stay valid.
	for i := len(c.removed) - 1; i >= 0; i-- {
		if _, err := c.ws.Canvas.RemoveAt(c.removed[i].index); err != nil {
			logrus.WithError(err).Error("Failed to remove shape")
		}
	}
}

func (c *DeleteShapesCommand) Undo(ctx context.Context) {
	if len(c.removed) == 0 {
		logrus.WithField("command", c.Name()).Debug("Nothing to undo, no shape was removed")
		return
	}
	for _, r := range c.removed {
		if err := c.ws.Canvas.Insert(r.index, r.shape); err != nil {
			logrus.WithError(err).WithField("shape_id", r.shape.ID()).Error("Failed to reinsert shape")
		}
	}
	c.removed = c.removed[:0]
}

// Move is one shape's start and end position.
type Move struct {
	Shape    shapes.Shape
	From, To shapes.Point
}

// MoveShapesCommand moves a batch of shapes between recorded positions.
type MoveShapesCommand struct {
	moves []Move
}

func NewMoveShapesCommand(moves ...Move) *MoveShapesCommand {
	return &MoveShapesCommand{moves: append([]Move(nil), moves...)}
}

// NewMoveCommand moves s from where it is now to to.
func NewMoveCommand(s shapes.Shape, to shapes.Point) *MoveShapesCommand {
	return NewMoveShapesCommand(Move{Shape: s, From: s.Position(), To: to})
}

func (c *MoveShapesCommand) Name() string { return "move shapes" }

func (c *MoveShapesCommand) Execute(ctx context.Context) {
	for _, m := range c.moves {
		m.Shape.MoveTo(m.To)
	}
}

func (c *MoveShapesCommand) Undo(ctx context.Context) {
	for i := len(c.moves) - 1; i >= 0; i-- {
		c.moves[i].Shape.MoveTo(c.moves[i].From)
	}
}

// StylePatch names the style fields to change; nil fields are kept.
type StylePatch struct {
	Border   *shapes.Color `json:"border,omitempty"`
	Fill     *shapes.Color `json:"fill,omitempty"`
	Rotation *float64      `json:"rotation,omitempty"`
}

func (p StylePatch) Empty() bool {
	return p.Border == nil && p.Fill == nil && p.Rotation == nil
}

func (p StylePatch) Apply(s shapes.Style) shapes.Style {
	if p.Border != nil {
		s.Border = *p.Border
	}
	if p.Fill != nil {
		s.Fill = *p.Fill
	}
	if p.Rotation != nil {
		s.Rotation = *p.Rotation
	}
	return s
}

type styleChange struct {
	shape         shapes.Shape
	before, after shapes.Style
}

// EditShapesCommand applies a style patch. Styles of every affected shape,
// group children included, are recorded before and after, so undo and redo
// replay exact values.
type EditShapesCommand struct {
	targets []shapes.Shape
	patch   StylePatch
	changes []styleChange // parents before their children
}

func NewEditShapesCommand(patch StylePatch, targets ...shapes.Shape) *EditShapesCommand {
	return &EditShapesCommand{patch: patch, targets: append([]shapes.Shape(nil), targets...)}
}

func (c *EditShapesCommand) Name() string { return "edit shapes" }

func (c *EditShapesCommand) Execute(ctx context.Context) {
	if c.changes != nil {
		for _, ch := range c.changes {
			ch.shape.SetStyle(ch.after)
		}
		return
	}
	if c.patch.Empty() {
		logrus.WithField("command", c.Name()).Debug("Empty style patch")
	}

	var changes []styleChange
	for _, t := range c.targets {
		shapes.Walk(t, func(s shapes.Shape) {
			changes = append(changes, styleChange{shape: s, before: s.Style()})
		})
	}
	for _, t := range c.targets {
		t.SetStyle(c.patch.Apply(t.Style()))
	}
	for i := range changes {
		changes[i].after = changes[i].shape.Style()
	}
	c.changes = changes
}

func (c *EditShapesCommand) Undo(ctx context.Context) {
	if c.changes == nil {
		logrus.WithField("command", c.Name()).Debug("Nothing to undo, patch was never applied")
		return
	}
	for _, ch := range c.changes {
		ch.shape.SetStyle(ch.before)
	}
}

// ReorderShapeCommand moves a shape to another z-index.
type ReorderShapeCommand struct {
	ws      *workspace.Workspace
	shape   shapes.Shape
	to      int
	from    int
	applied bool
}

// NewReorderShapeCommand moves s to index to. A negative index or one past
// the end brings s to the front.
func NewReorderShapeCommand(ws *workspace.Workspace, s shapes.Shape, to int) *ReorderShapeCommand {
	return &ReorderShapeCommand{ws: ws, shape: s, to: to}
}

func (c *ReorderShapeCommand) Name() string { return "reorder shape" }

func (c *ReorderShapeCommand) Execute(ctx context.Context) {
	from := c.ws.Canvas.IndexOf(c.shape)
	if from < 0 {
		logrus.WithField("shape_id", c.shape.ID()).Warn("Shape not on canvas, reorder ignored")
		c.applied = false
		return
	}
	to := c.to
	if last := c.ws.Canvas.Len() - 1; to < 0 || to > last {
		to = last
	}
	if _, err := c.ws.Canvas.RemoveAt(from); err != nil {
		logrus.WithError(err).Error("Failed to reorder shape")
		return
	}
	_ = c.ws.Canvas.Insert(to, c.shape)
	c.from = from
	c.applied = true
}

func (c *ReorderShapeCommand) Undo(ctx context.Context) {
	if !c.applied {
		logrus.WithField("command", c.Name()).Debug("Nothing to undo, shape was not reordered")
		return
	}
	if _, ok := c.ws.Canvas.Remove(c.shape); !ok {
		logrus.WithField("shape_id", c.shape.ID()).Warn("Shape no longer on canvas")
		return
	}
	_ = c.ws.Canvas.Insert(c.from, c.shape)
	c.applied = false
}
