package media

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/smazurov/sensorsim/pkg/subdev"
)

// BindFunc is called when a sub-device matching a watch appears or leaves.
type BindFunc func(d *subdev.Device)

type watch struct {
	compatible string
	onBound    BindFunc
	onUnbind   BindFunc
}

// Notifier matches registered sub-devices against waiting consumers by
// compatible string, the way an async notifier binds sensors to a bridge.
type Notifier struct {
	mu      sync.Mutex
	subdevs map[string]*subdev.Device
	watches []watch
	logger  *slog.Logger
}

// NewNotifier creates an empty notifier.
func NewNotifier(logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		subdevs: make(map[string]*subdev.Device),
		logger:  logger,
	}
}

// Watch registers interest in sub-devices with the given compatible string.
// Already registered matches are bound immediately.
func (n *Notifier) Watch(compatible string, onBound, onUnbind BindFunc) {
	n.mu.Lock()
	n.watches = append(n.watches, watch{compatible: compatible, onBound: onBound, onUnbind: onUnbind})
	var matched []*subdev.Device
	for _, d := range n.subdevs {
		if d.Compatible() == compatible {
			matched = append(matched, d)
		}
	}
	n.mu.Unlock()

	if onBound == nil {
		return
	}
	for _, d := range matched {
		onBound(d)
	}
}

// RegisterSubdev announces a sub-device.
func (n *Notifier) RegisterSubdev(d *subdev.Device) error {
	n.mu.Lock()
	if _, exists := n.subdevs[d.Name()]; exists {
		n.mu.Unlock()
		return fmt.Errorf("sub-device %s already registered", d.Name())
	}
	n.subdevs[d.Name()] = d
	bound := n.matching(d, true)
	n.mu.Unlock()

	n.logger.Info("Sub-device registered", "subdev", d.Name(), "compatible", d.Compatible(), "bound", len(bound))
	for _, fn := range bound {
		fn(d)
	}
	return nil
}

// UnregisterSubdev withdraws a sub-device and unbinds its consumers.
func (n *Notifier) UnregisterSubdev(d *subdev.Device) {
	n.mu.Lock()
	if cur, exists := n.subdevs[d.Name()]; !exists || cur != d {
		n.mu.Unlock()
		return
	}
	delete(n.subdevs, d.Name())
	unbind := n.matching(d, false)
	n.mu.Unlock()

	n.logger.Info("Sub-device unregistered", "subdev", d.Name())
	for _, fn := range unbind {
		fn(d)
	}
}

// Registered reports whether a sub-device with name is registered.
func (n *Notifier) Registered(name string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, ok := n.subdevs[name]
	return ok
}

func (n *Notifier) matching(d *subdev.Device, bound bool) []BindFunc {
	var out []BindFunc
	for _, w := range n.watches {
		if w.compatible != d.Compatible() {
			continue
		}
		fn := w.onUnbind
		if bound {
			fn = w.onBound
		}
		if fn != nil {
			out = append(out, fn)
		}
	}
	return out
}
