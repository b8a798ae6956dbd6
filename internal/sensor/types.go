package sensor

import (
	"context"
	"time"

	"github.com/smazurov/sensorsim/internal/events"
	"github.com/smazurov/sensorsim/internal/media"
	"github.com/smazurov/sensorsim/pkg/subdev"
)

// Service hosts one simulated sensor and the negotiation sessions of its
// clients.
type Service interface {
	Info(ctx context.Context) DeviceInfo
	Modes(ctx context.Context) []ModeInfo
	EnumerateCode(ctx context.Context, index uint32) (CodeInfo, error)
	EnumerateFrameSize(ctx context.Context, index, code uint32) (subdev.FrameSizeRange, error)

	// Negotiation sessions
	OpenSession(ctx context.Context) (SessionInfo, error)
	CloseSession(ctx context.Context, id string) error
	GetFormat(ctx context.Context, which subdev.Which, sessionID string) (subdev.Format, error)
	SetFormat(ctx context.Context, which subdev.Which, sessionID string, width, height uint32) (subdev.Format, error)
	FrameInterval(ctx context.Context) subdev.Fraction

	// Streaming
	SetStream(ctx context.Context, enable bool) (subdev.StreamState, error)

	// Controls
	ListControls(ctx context.Context) []ControlInfo
	GetControl(ctx context.Context, name string) (ControlInfo, error)
	SetControl(ctx context.Context, name string, value int64) (ControlInfo, error)

	Topology(ctx context.Context) Topology
	Close()
}

// EventPublisher is the part of the event bus the service uses.
type EventPublisher interface {
	Publish(ev events.Event)
}

// DeviceInfo summarizes the hosted device.
type DeviceInfo struct {
	Name          string             `json:"name"`
	Compatible    string             `json:"compatible"`
	Entity        string             `json:"entity"`
	Function      string             `json:"function"`
	State         subdev.StreamState `json:"state"`
	Streaming     bool               `json:"streaming"`
	Mode          ModeInfo           `json:"mode"`
	FrameInterval subdev.Fraction    `json:"frame_interval"`
	Vendor        string             `json:"vendor,omitempty"`
	Model         string             `json:"model,omitempty"`
	Sessions      int                `json:"sessions"`
}

// ModeInfo is a catalog mode with its code spelled out.
type ModeInfo struct {
	Index    int             `json:"index"`
	Width    uint32          `json:"width"`
	Height   uint32          `json:"height"`
	Code     uint32          `json:"code"`
	CodeName string          `json:"code_name"`
	Interval subdev.Fraction `json:"interval"`
	FPS      float64         `json:"fps"`
}

// CodeInfo is one enumerated media bus code.
type CodeInfo struct {
	Index uint32 `json:"index"`
	Code  uint32 `json:"code"`
	Name  string `json:"name"`
}

// SessionInfo describes an open negotiation session.
type SessionInfo struct {
	ID     string        `json:"id"`
	Opened time.Time     `json:"opened"`
	Trial  subdev.Format `json:"trial"`
}

// ControlInfo is the externally visible state of one control.
type ControlInfo struct {
	ID       uint32   `json:"id"`
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Min      int64    `json:"min"`
	Max      int64    `json:"max"`
	Step     int64    `json:"step"`
	Default  int64    `json:"default"`
	Value    int64    `json:"value"`
	ReadOnly bool     `json:"read_only"`
	IntMenu  []int64  `json:"int_menu,omitempty"`
	Menu     []string `json:"menu,omitempty"`
}

// Topology is a snapshot of the media graph.
type Topology struct {
	Entities []subdev.Entity `json:"entities"`
	Links    []media.Link    `json:"links"`
}
