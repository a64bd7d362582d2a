package commands

import (
	"context"
	"sort"

	"github.com/sirupsen/logrus"

	"protodraw/shapes"
	"protodraw/workspace"
)

// GroupCommand replaces several canvas shapes with one group placed at the
// lowest of their indices. Undo puts every member back at its own index.
type GroupCommand struct {
	ws      *workspace.Workspace
	members []shapes.Shape
	group   *shapes.Group
	removed []removal // ascending by index
}

func NewGroupCommand(ws *workspace.Workspace, members ...shapes.Shape) *GroupCommand {
	return &GroupCommand{ws: ws, members: append([]shapes.Shape(nil), members...)}
}

func (c *GroupCommand) Name() string { return "group shapes" }

// Group returns the group, or nil before the first successful Execute.
func (c *GroupCommand) Group() *shapes.Group { return c.group }

func (c *GroupCommand) Execute(ctx context.Context) {
	log := logrus.WithField("command", c.Name())

	var found []removal
	seen := make(map[shapes.Shape]bool, len(c.members))
	for _, m := range c.members {
		if seen[m] {
			continue
		}
		seen[m] = true
		idx := c.ws.Canvas.IndexOf(m)
		if idx < 0 {
			log.WithField("shape_id", m.ID()).Warn("Shape not on canvas, grouping aborted")
			return
		}
		found = append(found, removal{shape: m, index: idx})
	}
	if len(found) < 2 {
		log.WithField("members", len(found)).Warn("Grouping needs at least two shapes")
		return
	}
	sortRemovals(found)

	// Built once; redo must bring back the same group.
	if c.group == nil {
		children := make([]shapes.Shape, len(found))
		for i, r := range found {
			children[i] = r.shape
		}
		c.group = shapes.NewGroup(children...)
	}
	origins := make([]int, len(found))
	for i, r := range found {
		origins[i] = r.index
	}
	c.group.SetOrigins(origins)

	for i := len(found) - 1; i >= 0; i-- {
		_, _ = c.ws.Canvas.RemoveAt(found[i].index)
	}
	if err := c.ws.Canvas.Insert(found[0].index, c.group); err != nil {
		log.WithError(err).Error("Failed to insert group")
	}
	c.removed = found

	log.WithFields(logrus.Fields{"group_id": c.group.ID(), "members": len(found)}).Debug("Shapes grouped")
}

func (c *GroupCommand) Undo(ctx context.Context) {
	if len(c.removed) == 0 {
		logrus.WithField("command", c.Name()).Debug("Nothing to undo, shapes were not grouped")
		return
	}
	if _, ok := c.ws.Canvas.Remove(c.group); !ok {
		logrus.WithField("group_id", c.group.ID()).Warn("Group no longer on canvas, undo ignored")
		return
	}
	for _, r := range c.removed {
		if err := c.ws.Canvas.Insert(r.index, r.shape); err != nil {
			logrus.WithError(err).WithField("shape_id", r.shape.ID()).Error("Failed to reinsert shape")
		}
	}
	c.removed = nil
}

// UngroupCommand replaces a group with its children. Children go back to the
// indices they had before grouping when the group still sits where it was
// created; otherwise they are placed from the group's index onward.
type UngroupCommand struct {
	ws       *workspace.Workspace
	group    *shapes.Group
	index    int
	children []shapes.Shape
}

func NewUngroupCommand(ws *workspace.Workspace, g *shapes.Group) *UngroupCommand {
	return &UngroupCommand{ws: ws, group: g, index: -1}
}

func (c *UngroupCommand) Name() string { return "ungroup" }

func (c *UngroupCommand) Execute(ctx context.Context) {
	idx := c.ws.Canvas.IndexOf(c.group)
	if idx < 0 {
		logrus.WithField("group_id", c.group.ID()).Warn("Group not on canvas, ungroup ignored")
		c.index = -1
		return
	}
	_, _ = c.ws.Canvas.RemoveAt(idx)
	c.children = c.group.Children()
	for i, at := range placement(c.group, idx) {
		at = min(at, c.ws.Canvas.Len())
		if err := c.ws.Canvas.Insert(at, c.children[i]); err != nil {
			logrus.WithError(err).WithField("shape_id", c.children[i].ID()).Error("Failed to place group member")
		}
	}
	c.index = idx
}

// placement returns the target index of each child of g, which sat at idx.
// Recorded origins are only trusted while the group is still at the first of
// them.
func placement(g *shapes.Group, idx int) []int {
	if origins := g.Origins(); origins != nil && origins[0] == idx {
		return origins
	}
	out := make([]int, g.Len())
	for i := range out {
		out[i] = idx + i
	}
	return out
}

func (c *UngroupCommand) Undo(ctx context.Context) {
	if c.index < 0 {
		logrus.WithField("command", c.Name()).Debug("Nothing to undo, group was not split")
		return
	}
	for _, child := range c.children {
		if _, ok := c.ws.Canvas.Remove(child); !ok {
			logrus.WithField("shape_id", child.ID()).Warn("Group member no longer on canvas")
		}
	}
	idx := min(c.index, c.ws.Canvas.Len())
	_ = c.ws.Canvas.Insert(idx, c.group)
	c.index = -1
}

// CreateGroupCommand puts a prebuilt group on the canvas.
type CreateGroupCommand struct {
	ws      *workspace.Workspace
	group   *shapes.Group
	applied bool
}

func NewCreateGroupCommand(ws *workspace.Workspace, g *shapes.Group) *CreateGroupCommand {
	return &CreateGroupCommand{ws: ws, group: g}
}

func (c *CreateGroupCommand) Name() string { return "create group" }

func (c *CreateGroupCommand) Execute(ctx context.Context) {
	if c.group == nil {
		logrus.WithField("command", c.Name()).Warn("No group to create")
		return
	}
	if c.ws.Canvas.IndexOf(c.group) >= 0 {
		logrus.WithField("group_id", c.group.ID()).Warn("Group already on canvas, not inserted again")
		c.applied = false
		return
	}
	_ = c.ws.Canvas.Append(c.group)
	c.applied = true
}

func (c *CreateGroupCommand) Undo(ctx context.Context) {
	if !c.applied {
		logrus.WithField("command", c.Name()).Debug("Nothing to undo, group was not inserted")
		return
	}
	if _, ok := c.ws.Canvas.Remove(c.group); !ok {
		logrus.WithField("group_id", c.group.ID()).Warn("Group already removed from canvas")
	}
	c.applied = false
}

func sortRemovals(rs []removal) {
	sort.Slice(rs, func(i, j int) bool { return rs[i].index < rs[j].index })
}
