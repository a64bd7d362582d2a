// Package autosave saves the editor state in the background after changes
// settle.
package autosave

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"protodraw/core"
	"protodraw/memento"
)

// DefaultDelay is the debounce window used when none is configured.
const DefaultDelay = time.Second

type (
	// Source captures a consistent state. Implementations take whatever lock
	// guards the stores; the manager writes outside of it.
	Source interface {
		Capture() *memento.AppState
	}

	// Writer persists a captured state.
	Writer interface {
		Write(ctx context.Context, state *memento.AppState) (*core.Snapshot, error)
	}
)

// Manager debounces change signals into background saves. Triggers arriving
// while the timer is armed are absorbed, and at most one save job waits for
// the single worker.
type Manager struct {
	source Source
	writer Writer
	delay  time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	armed   bool
	started bool
	stopped bool

	jobs chan struct{}
	quit chan struct{}
	done chan struct{}
	sem  chan struct{} // one save at a time

	saves atomic.Int64
}

func NewManager(source Source, writer Writer, delay time.Duration) *Manager {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Manager{
		source: source,
		writer: writer,
		delay:  delay,
		jobs:   make(chan struct{}, 1),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
		sem:    make(chan struct{}, 1),
	}
}

// Start launches the worker. Calling it again has no effect.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started || m.stopped {
		return
	}
	m.started = true
	go m.run()
	logrus.WithField("delay", m.delay).Info("Autosave started")
}

func (m *Manager) run() {
	defer close(m.done)
	for {
		select {
		case <-m.quit:
			return
		case <-m.jobs:
			if err := m.performSave(context.Background()); err != nil {
				logrus.WithError(err).Error("Autosave failed")
			}
		}
	}
}

// Trigger signals a state change. The first call arms the timer; calls made
// while it is armed are absorbed.
func (m *Manager) Trigger() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped || m.armed {
		return
	}
	m.armed = true
	m.timer = time.AfterFunc(m.delay, m.fire)
}

func (m *Manager) fire() {
	m.mu.Lock()
	m.armed = false
	stopped := m.stopped
	m.mu.Unlock()
	if stopped {
		return
	}

	select {
	case m.jobs <- struct{}{}:
	default:
		logrus.Debug("Autosave already queued")
	}
}

// Shutdown cancels the pending timer, stops the worker and performs one
// final save. ctx bounds both the wait for the worker and the final save.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return nil
	}
	m.stopped = true
	if m.timer != nil {
		m.timer.Stop()
	}
	m.armed = false
	started := m.started
	m.mu.Unlock()

	close(m.quit)
	if started {
		select {
		case <-m.done:
		case <-ctx.Done():
			logrus.WithError(ctx.Err()).Warn("Autosave worker did not stop in time")
		}
	}

	if err := m.performSave(ctx); err != nil {
		return fmt.Errorf("final autosave: %w", err)
	}
	logrus.WithField("saves", m.Saves()).Info("Autosave stopped")
	return nil
}

// SaveNow performs a save on the calling goroutine.
func (m *Manager) SaveNow(ctx context.Context) error {
	return m.performSave(ctx)
}

// Saves returns the number of completed saves.
func (m *Manager) Saves() int64 {
	return m.saves.Load()
}

func (m *Manager) performSave(ctx context.Context) error {
	select {
	case m.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-m.sem }()

	state := m.source.Capture()
	snap, err := m.writer.Write(ctx, state)
	if err != nil {
		return err
	}
	m.saves.Add(1)
	logrus.WithFields(logrus.Fields{
		"state_id":    state.ID(),
		"snapshot_id": snap.ID,
	}).Info("Autosave completed")
	return nil
}
