package media

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/smazurov/sensorsim/pkg/subdev"
)

// Link connects a source pad to a sink pad.
type Link struct {
	Source    string `json:"source"`
	SourcePad uint32 `json:"source_pad"`
	Sink      string `json:"sink"`
	SinkPad   uint32 `json:"sink_pad"`
	Enabled   bool   `json:"enabled"`
}

// Graph is a media graph of entities and the links between their pads.
type Graph struct {
	mu       sync.RWMutex
	entities map[string]subdev.Entity
	links    []Link
	logger   *slog.Logger
}

// NewGraph creates an empty media graph.
func NewGraph(logger *slog.Logger) *Graph {
	if logger == nil {
		logger = slog.Default()
	}
	return &Graph{
		entities: make(map[string]subdev.Entity),
		logger:   logger,
	}
}

// RegisterEntity adds an entity with its pads.
func (g *Graph) RegisterEntity(e subdev.Entity) error {
	if e.Name == "" {
		return errors.New("entity has no name")
	}
	if len(e.Pads) == 0 {
		return fmt.Errorf("entity %s has no pads", e.Name)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.entities[e.Name]; exists {
		return fmt.Errorf("entity %s already registered", e.Name)
	}
	g.entities[e.Name] = e
	g.logger.Debug("Entity registered", "entity", e.Name, "function", e.Function, "pads", len(e.Pads))
	return nil
}

// UnregisterEntity removes an entity and every link touching it.
func (g *Graph) UnregisterEntity(name string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.entities[name]; !exists {
		return
	}
	delete(g.entities, name)

	kept := g.links[:0]
	for _, l := range g.links {
		if l.Source != name && l.Sink != name {
			kept = append(kept, l)
		}
	}
	g.links = kept
	g.logger.Debug("Entity unregistered", "entity", name)
}

// CreateLink connects source:srcPad to sink:sinkPad.
func (g *Graph) CreateLink(source string, srcPad uint32, sink string, sinkPad uint32) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.checkPad(source, srcPad, subdev.PadFlagSource); err != nil {
		return err
	}
	if err := g.checkPad(sink, sinkPad, subdev.PadFlagSink); err != nil {
		return err
	}
	for _, l := range g.links {
		if l.Source == source && l.SourcePad == srcPad && l.Sink == sink && l.SinkPad == sinkPad {
			return fmt.Errorf("link %s:%d -> %s:%d exists", source, srcPad, sink, sinkPad)
		}
	}
	g.links = append(g.links, Link{
		Source:    source,
		SourcePad: srcPad,
		Sink:      sink,
		SinkPad:   sinkPad,
		Enabled:   true,
	})
	return nil
}

func (g *Graph) checkPad(entity string, pad uint32, want subdev.PadFlags) error {
	e, ok := g.entities[entity]
	if !ok {
		return fmt.Errorf("entity %s not registered", entity)
	}
	for _, p := range e.Pads {
		if p.Index == pad {
			if p.Flags&want == 0 {
				return fmt.Errorf("pad %s:%d has wrong direction", entity, pad)
			}
			return nil
		}
	}
	return fmt.Errorf("entity %s has no pad %d", entity, pad)
}

// Entity returns a registered entity.
func (g *Graph) Entity(name string) (subdev.Entity, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	e, ok := g.entities[name]
	return e, ok
}

// Entities returns all registered entities sorted by name.
func (g *Graph) Entities() []subdev.Entity {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]subdev.Entity, 0, len(g.entities))
	for _, e := range g.entities {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Links returns a copy of all links.
func (g *Graph) Links() []Link {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]Link, len(g.links))
	copy(out, g.links)
	return out
}
