package commands

import (
	"context"

	"github.com/sirupsen/logrus"

	"protodraw/shapes"
	"protodraw/workspace"
)

// RegisterPrototypeCommand registers a shape as a prototype and gives it a
// toolbar button. Groups go to the composite registry, everything else to
// the shape registry. Undo restores whatever the key held before.
type RegisterPrototypeCommand struct {
	ws    *workspace.Workspace
	key   string
	proto shapes.Shape

	applied     bool
	previous    shapes.Shape
	buttonAdded bool
}

func NewRegisterPrototypeCommand(ws *workspace.Workspace, key string, proto shapes.Shape) *RegisterPrototypeCommand {
	return &RegisterPrototypeCommand{ws: ws, key: key, proto: proto}
}

func (c *RegisterPrototypeCommand) Name() string { return "register prototype" }

func (c *RegisterPrototypeCommand) Execute(ctx context.Context) {
	log := logrus.WithFields(logrus.Fields{"command": c.Name(), "key": c.key})
	if c.proto == nil {
		log.Warn("No prototype to register")
		return
	}

	var err error
	if g, ok := c.proto.(*shapes.Group); ok {
		if prev, found := c.ws.Composites.Get(c.key); found {
			c.previous = prev
		} else {
			c.previous = nil
		}
		err = c.ws.Composites.Register(c.key, g)
	} else {
		if prev, found := c.ws.Shapes.Get(c.key); found {
			c.previous = prev
		} else {
			c.previous = nil
		}
		err = c.ws.Shapes.Register(c.key, c.proto)
	}
	if err != nil {
		log.WithError(err).Warn("Prototype not registered")
		return
	}
	c.applied = true

	c.buttonAdded = false
	if c.ws.Toolbar.IndexOf(c.key) < 0 {
		if err := c.ws.Toolbar.Add(c.key); err != nil {
			log.WithError(err).Warn("Toolbar button not added")
		} else {
			c.buttonAdded = true
		}
	}
	log.Info("Prototype registered")
}

func (c *RegisterPrototypeCommand) Undo(ctx context.Context) {
	log := logrus.WithFields(logrus.Fields{"command": c.Name(), "key": c.key})
	if !c.applied {
		log.Debug("Nothing to undo, prototype was not registered")
		return
	}

	if c.buttonAdded {
		if i := c.ws.Toolbar.IndexOf(c.key); i >= 0 {
			_, _ = c.ws.Toolbar.RemoveAt(i)
		}
	}

	_, isGroup := c.proto.(*shapes.Group)
	switch {
	case c.previous == nil && isGroup:
		c.ws.Composites.Remove(c.key)
	case c.previous == nil:
		c.ws.Shapes.Remove(c.key)
	case isGroup:
		_ = c.ws.Composites.Register(c.key, c.previous.(*shapes.Group))
	default:
		_ = c.ws.Shapes.Register(c.key, c.previous)
	}
	c.applied = false
}

// RemoveToolbarButtonCommand removes the button at an index. The prototype
// stays registered.
type RemoveToolbarButtonCommand struct {
	ws    *workspace.Workspace
	index int
	key   string
}

func NewRemoveToolbarButtonCommand(ws *workspace.Workspace, index int) *RemoveToolbarButtonCommand {
	return &RemoveToolbarButtonCommand{ws: ws, index: index}
}

func (c *RemoveToolbarButtonCommand) Name() string { return "remove toolbar button" }

func (c *RemoveToolbarButtonCommand) Execute(ctx context.Context) {
	key, err := c.ws.Toolbar.RemoveAt(c.index)
	if err != nil {
		logrus.WithError(err).WithField("command", c.Name()).Warn("Toolbar button not removed")
		c.key = ""
		return
	}
	c.key = key
}

func (c *RemoveToolbarButtonCommand) Undo(ctx context.Context) {
	if c.key == "" {
		logrus.WithField("command", c.Name()).Debug("Nothing to undo, no button was removed")
		return
	}
	if err := c.ws.Toolbar.Insert(c.index, c.key); err != nil {
		logrus.WithError(err).WithField("key", c.key).Warn("Toolbar button not restored")
	}
	c.key = ""
}
