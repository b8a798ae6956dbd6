package led

import (
	"log/slog"
	"sync"

	"github.com/smazurov/sensorsim/internal/events"
)

// Manager lights the indicator LED while any device is streaming.
type Manager struct {
	controller  Controller
	eventBus    *events.Bus
	unsubscribe func()
	logger      *slog.Logger

	mu        sync.Mutex
	streaming map[string]bool // device -> streaming
	lit       bool
}

// NewManager creates a manager for controller fed by eventBus.
func NewManager(controller Controller, eventBus *events.Bus, logger *slog.Logger) *Manager {
	return &Manager{
		controller: controller,
		eventBus:   eventBus,
		logger:     logger,
		streaming:  make(map[string]bool),
	}
}

// Start switches the LED off and begins listening for stream transitions.
func (m *Manager) Start() {
	m.mu.Lock()
	m.apply(false)
	m.mu.Unlock()

	m.unsubscribe = m.eventBus.Subscribe(func(e events.StreamStateChangedEvent) {
		m.handleEvent(e)
	})
	m.logger.Info("Indicator LED manager started", "led", m.controller.Name())
}

// Stop unsubscribes and switches the LED off.
func (m *Manager) Stop() {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
	m.mu.Lock()
	clear(m.streaming)
	m.apply(false)
	m.mu.Unlock()
	m.logger.Info("Indicator LED manager stopped")
}

func (m *Manager) handleEvent(e events.StreamStateChangedEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e.Streaming {
		m.streaming[e.Device] = true
	} else {
		delete(m.streaming, e.Device)
	}
	m.logger.Debug("Stream state changed", "device", e.Device, "streaming", e.Streaming)
	m.apply(len(m.streaming) > 0)
}

// apply must be called with mu held.
func (m *Manager) apply(on bool) {
	if err := m.controller.Set(on); err != nil {
		m.logger.Warn("Failed to set indicator LED", "on", on, "error", err)
		return
	}
	m.lit = on
}

// Lit reports whether the LED was last switched on.
func (m *Manager) Lit() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lit
}
