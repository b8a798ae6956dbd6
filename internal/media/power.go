package media

import (
	"fmt"
	"log/slog"
	"sync"
)

// PowerState is the runtime power state of a device.
type PowerState string

// Power states.
const (
	PowerSuspended PowerState = "suspended"
	PowerActive    PowerState = "active"
)

type powerEntry struct {
	state   PowerState
	enabled bool
}

// RuntimePM keeps runtime power bookkeeping per device name.
type RuntimePM struct {
	mu      sync.Mutex
	devices map[string]*powerEntry
	logger  *slog.Logger
}

// NewRuntimePM creates an empty power manager.
func NewRuntimePM(logger *slog.Logger) *RuntimePM {
	if logger == nil {
		logger = slog.Default()
	}
	return &RuntimePM{
		devices: make(map[string]*powerEntry),
		logger:  logger,
	}
}

// Activate marks the device active and enables runtime PM for it.
func (p *RuntimePM) Activate(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if e, ok := p.devices[name]; ok && e.enabled {
		return fmt.Errorf("runtime PM already enabled for %s", name)
	}
	p.devices[name] = &powerEntry{state: PowerActive, enabled: true}
	p.logger.Debug("Runtime PM enabled", "device", name, "state", PowerActive)
	return nil
}

// Release disables runtime PM and marks the device suspended.
func (p *RuntimePM) Release(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.devices[name]
	if !ok {
		return
	}
	e.enabled = false
	e.state = PowerSuspended
	p.logger.Debug("Runtime PM disabled", "device", name, "state", PowerSuspended)
}

// State returns the power state of a device and whether runtime PM is enabled.
func (p *RuntimePM) State(name string) (PowerState, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.devices[name]
	if !ok {
		return PowerSuspended, false
	}
	return e.state, e.enabled
}
