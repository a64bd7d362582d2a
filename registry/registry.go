// Package registry keeps the prototypes new shapes are cloned from. There are
// two registries: one for atomic shapes and one for groups.
//
// Neither registry ever hands out its map or a stored prototype. Register
// stores a clone, and every read returns clones or copies.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"protodraw/memento"
	"protodraw/shapes"
)

// ErrPrototypeNotFound is returned when a key has no registered prototype.
var ErrPrototypeNotFound = errors.New("prototype not found")

type store[T shapes.Shape] struct {
	mu    sync.RWMutex
	name  string
	items map[string]T
	clone func(T) T
}

func newStore[T shapes.Shape](name string, clone func(T) T) store[T] {
	return store[T]{name: name, items: make(map[string]T), clone: clone}
}

func (s *store[T]) register(key string, proto T) error {
	if key == "" {
		return fmt.Errorf("%s registry: key is required", s.name)
	}
	s.mu.Lock()
	s.items[key] = s.clone(proto)
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{"registry": s.name, "key": key}).Debug("Prototype registered")
	return nil
}

func (s *store[T]) has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.items[key]
	return ok
}

func (s *store[T]) get(key string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	proto, ok := s.items[key]
	if !ok {
		var zero T
		return zero, false
	}
	return s.clone(proto), true
}

// remove hands the stored prototype itself to the caller, who now owns it.
func (s *store[T]) remove(key string) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	proto, ok := s.items[key]
	if ok {
		delete(s.items, key)
	}
	return proto, ok
}

func (s *store[T]) keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.items))
	for k := range s.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s *store[T]) snapshot() map[string]T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]T, len(s.items))
	for k, proto := range s.items {
		out[k] = s.clone(proto)
	}
	return out
}

// merge overwrites same-keyed entries and leaves every other key alone.
func (s *store[T]) merge(items map[string]T) {
	s.mu.Lock()
	for k, proto := range items {
		s.items[k] = proto
	}
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{"registry": s.name, "restored": len(items)}).Info("Registry restored from memento")
}

// replace drops every entry and installs items in their place.
func (s *store[T]) replace(items map[string]T) {
	s.mu.Lock()
	s.items = make(map[string]T, len(items))
	for k, proto := range items {
		s.items[k] = proto
	}
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{"registry": s.name, "restored": len(items)}).Info("Registry replaced from memento")
}

func (s *store[T]) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// ShapeRegistry maps keys to atomic shape prototypes.
type ShapeRegistry struct {
	store[shapes.Shape]
}

func NewShapeRegistry() *ShapeRegistry {
	return &ShapeRegistry{store: newStore("shape", func(s shapes.Shape) shapes.Shape { return s.Clone() })}
}

// Register stores a clone of proto under key, replacing any previous entry.
func (r *ShapeRegistry) Register(key string, proto shapes.Shape) error {
	if proto == nil {
		return fmt.Errorf("shape registry: nil prototype for %q", key)
	}
	return r.register(key, proto)
}

func (r *ShapeRegistry) Has(key string) bool { return r.has(key) }

// Get returns a clone of the prototype, ID included.
func (r *ShapeRegistry) Get(key string) (shapes.Shape, bool) { return r.get(key) }

// Remove deletes key and returns the prototype it held.
func (r *ShapeRegistry) Remove(key string) (shapes.Shape, bool) { return r.remove(key) }

// Keys returns the registered keys, sorted.
func (r *ShapeRegistry) Keys() []string { return r.keys() }

func (r *ShapeRegistry) Len() int { return r.len() }

// Prototypes returns a new map holding clones of every prototype.
func (r *ShapeRegistry) Prototypes() map[string]shapes.Shape { return r.snapshot() }

// Create instantiates the prototype under key with fresh IDs, positioned at pos.
func (r *ShapeRegistry) Create(key string, pos shapes.Point) (shapes.Shape, error) {
	proto, ok := r.get(key)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrPrototypeNotFound, key)
	}
	s := shapes.Fresh(proto)
	s.MoveTo(pos)
	return s, nil
}

func (r *ShapeRegistry) CreateMemento() *memento.PrototypeRegistryMemento {
	return memento.NewPrototypeRegistryMemento(r.snapshot())
}

// RestoreFromMemento merges the memento into the registry. Keys the memento
// does not mention keep their current prototypes.
func (r *ShapeRegistry) RestoreFromMemento(m *memento.PrototypeRegistryMemento) {
	r.merge(m.Prototypes())
}

// ReplaceFromMemento makes the registry hold exactly the memento's entries.
func (r *ShapeRegistry) ReplaceFromMemento(m *memento.PrototypeRegistryMemento) {
	r.replace(m.Prototypes())
}

// CompositeRegistry maps keys to group prototypes.
type CompositeRegistry struct {
	store[*shapes.Group]
}

func NewCompositeRegistry() *CompositeRegistry {
	return &CompositeRegistry{store: newStore("composite", (*shapes.Group).CloneGroup)}
}

// Register stores a deep clone of proto under key, replacing any previous entry.
func (r *CompositeRegistry) Register(key string, proto *shapes.Group) error {
	if proto == nil {
		return fmt.Errorf("composite registry: nil prototype for %q", key)
	}
	return r.register(key, proto)
}

func (r *CompositeRegistry) Has(key string) bool { return r.has(key) }

func (r *CompositeRegistry) Get(key string) (*shapes.Group, bool) { return r.get(key) }

func (r *CompositeRegistry) Remove(key string) (*shapes.Group, bool) { return r.remove(key) }

func (r *CompositeRegistry) Keys() []string { return r.keys() }

func (r *CompositeRegistry) Len() int { return r.len() }

// Prototypes returns a new map holding deep clones of every group.
func (r *CompositeRegistry) Prototypes() map[string]*shapes.Group { return r.snapshot() }

// Create instantiates the group under key with fresh IDs, positioned at pos.
func (r *CompositeRegistry) Create(key string, pos shapes.Point) (*shapes.Group, error) {
	proto, ok := r.get(key)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrPrototypeNotFound, key)
	}
	g := shapes.Fresh(proto).(*shapes.Group)
	g.MoveTo(pos)
	return g, nil
}

func (r *CompositeRegistry) CreateMemento() *memento.CompositeRegistryMemento {
	return memento.NewCompositeRegistryMemento(r.snapshot())
}

// RestoreFromMemento merges the memento into the registry.
func (r *CompositeRegistry) RestoreFromMemento(m *memento.CompositeRegistryMemento) {
	r.merge(m.Groups())
}

func (r *CompositeRegistry) ReplaceFromMemento(m *memento.CompositeRegistryMemento) {
	r.replace(m.Groups())
}
