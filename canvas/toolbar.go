package canvas

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"protodraw/memento"
)

// PrototypeLookup is satisfied by both prototype registries.
type PrototypeLookup interface {
	Has(key string) bool
}

// Toolbar is the ordered list of buttons, each naming a prototype key.
type Toolbar struct {
	keys    []string
	lookups []PrototypeLookup
}

// NewToolbar resolves button keys against lookups, in order.
func NewToolbar(lookups ...PrototypeLookup) *Toolbar {
	return &Toolbar{lookups: lookups}
}

func (t *Toolbar) resolves(key string) bool {
	for _, l := range t.lookups {
		if l.Has(key) {
			return true
		}
	}
	return false
}

func (t *Toolbar) Keys() []string {
	return append([]string(nil), t.keys...)
}

func (t *Toolbar) Len() int { return len(t.keys) }

func (t *Toolbar) IndexOf(key string) int {
	for i, k := range t.keys {
		if k == key {
			return i
		}
	}
	return -1
}

// Insert adds a button for key at index i. The key must resolve to a
// registered prototype and must not already have a button.
func (t *Toolbar) Insert(i int, key string) error {
	if !t.resolves(key) {
		return fmt.Errorf("toolbar: no prototype registered for %q", key)
	}
	if t.IndexOf(key) >= 0 {
		return fmt.Errorf("toolbar: button %q already present", key)
	}
	if i < 0 || i > len(t.keys) {
		return fmt.Errorf("toolbar: index %d out of range [0,%d]", i, len(t.keys))
	}
	t.keys = append(t.keys, "")
	copy(t.keys[i+1:], t.keys[i:])
	t.keys[i] = key
	return nil
}

func (t *Toolbar) Add(key string) error {
	return t.Insert(len(t.keys), key)
}

// RemoveAt removes the button at index i and returns its key.
func (t *Toolbar) RemoveAt(i int) (string, error) {
	if i < 0 || i >= len(t.keys) {
		return "", fmt.Errorf("toolbar: index %d out of range [0,%d)", i, len(t.keys))
	}
	key := t.keys[i]
	t.keys = append(t.keys[:i], t.keys[i+1:]...)
	return key, nil
}

func (t *Toolbar) CreateMemento() *memento.ToolbarMemento {
	return memento.NewToolbarMemento(t.keys)
}

// RestoreFromMemento rebuilds the buttons from m. Each key is resolved
// against the registries as they are now, so they must be restored first;
// keys that do not resolve are logged and skipped.
func (t *Toolbar) RestoreFromMemento(m *memento.ToolbarMemento) {
	keys := m.Keys()
	t.keys = t.keys[:0]
	for _, key := range keys {
		if !t.resolves(key) {
			logrus.WithField("key", key).Warn("Toolbar button skipped, prototype not registered")
			continue
		}
		if t.IndexOf(key) >= 0 {
			continue
		}
		t.keys = append(t.keys, key)
	}
	logrus.WithFields(logrus.Fields{"buttons": len(t.keys), "stored": len(keys)}).Info("Toolbar restored from memento")
}
