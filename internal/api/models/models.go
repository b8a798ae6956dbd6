package models

import (
	"github.com/smazurov/sensorsim/internal/logging"
	"github.com/smazurov/sensorsim/internal/sensor"
	"github.com/smazurov/sensorsim/internal/version"
	"github.com/smazurov/sensorsim/pkg/subdev"
)

// Health check models
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Service status"`
	Message string `json:"message" example:"API is healthy" doc:"Status message"`
}

type HealthResponse struct {
	Body HealthData
}

type VersionResponse struct {
	Body version.Info
}

// Sensor models
type SensorResponse struct {
	Body sensor.DeviceInfo
}

type ModeListData struct {
	Modes []sensor.ModeInfo `json:"modes" doc:"Mode catalog in enumeration order"`
	Count int               `json:"count" example:"3" doc:"Number of modes"`
}

type ModeListResponse struct {
	Body ModeListData
}

type CodeResponse struct {
	Body sensor.CodeInfo
}

type FrameSizeRequest struct {
	Index uint32 `path:"index" example:"0" doc:"Catalog index"`
	Code  string `query:"code" required:"true" example:"MEDIA_BUS_FMT_BGR888_1X24" doc:"Media bus code, by name or number"`
}

type FrameSizeData struct {
	Index     uint32 `json:"index" example:"0" doc:"Catalog index"`
	Code      uint32 `json:"code" example:"4115" doc:"Media bus code"`
	CodeName  string `json:"code_name" example:"BGR888_1X24" doc:"Media bus code name"`
	MinWidth  uint32 `json:"min_width" example:"1920"`
	MaxWidth  uint32 `json:"max_width" example:"1920"`
	MinHeight uint32 `json:"min_height" example:"1200"`
	MaxHeight uint32 `json:"max_height" example:"1200"`
}

type FrameSizeResponse struct {
	Body FrameSizeData
}

// Session models
type SessionResponse struct {
	Body sensor.SessionInfo
}

// Format models
type FormatQuery struct {
	Which   string `query:"which" enum:"trial,try,active" default:"active" doc:"Format to read"`
	Session string `query:"session" doc:"Session id, required for the trial format"`
}

type FormatRequestData struct {
	Which   string `json:"which,omitempty" enum:"trial,try,active" default:"active" doc:"Format to negotiate"`
	Session string `json:"session,omitempty" doc:"Session id, required for the trial format"`
	Width   uint32 `json:"width" minimum:"1" example:"1920" doc:"Requested width"`
	Height  uint32 `json:"height" minimum:"1" example:"1080" doc:"Requested height"`
}

type FormatRequest struct {
	Body FormatRequestData
}

type FormatData struct {
	Which    string        `json:"which" example:"active" doc:"Format target"`
	Session  string        `json:"session,omitempty" doc:"Session id for trial formats"`
	CodeName string        `json:"code_name" example:"BGR888_1X24" doc:"Media bus code name"`
	Format   subdev.Format `json:"format" doc:"Media bus frame format"`
}

type FormatResponse struct {
	Body FormatData
}

type FrameIntervalData struct {
	Interval subdev.Fraction `json:"interval" doc:"Frame interval of the selected mode"`
	FPS      float64         `json:"fps" example:"60" doc:"Frame rate"`
}

type FrameIntervalResponse struct {
	Body FrameIntervalData
}

// Stream models
type StreamRequestData struct {
	Enable bool `json:"enable" doc:"Start or stop streaming"`
}

type StreamRequest struct {
	Body StreamRequestData
}

type StreamData struct {
	State     subdev.StreamState `json:"state" example:"streaming" doc:"Streaming state"`
	Streaming bool               `json:"streaming" doc:"Whether the sensor is streaming"`
}

type StreamResponse struct {
	Body StreamData
}

// Control models
type ControlListData struct {
	Controls []sensor.ControlInfo `json:"controls" doc:"Controls ordered by id"`
	Count    int                  `json:"count" example:"11" doc:"Number of controls"`
}

type ControlListResponse struct {
	Body ControlListData
}

type ControlResponse struct {
	Body sensor.ControlInfo
}

type ControlSetData struct {
	Value int64 `json:"value" example:"1" doc:"New control value"`
}

type ControlSetRequest struct {
	Name string `path:"name" example:"horizontal_flip" doc:"Control name"`
	Body ControlSetData
}

// Media models
type TopologyResponse struct {
	Body sensor.Topology
}

// Log models
type LogsQuery struct {
	Tail int `query:"tail" minimum:"0" default:"100" doc:"Number of newest entries, 0 for all"`
}

type LogsData struct {
	Entries []logging.LogEntry `json:"entries" doc:"Log entries, oldest first"`
	Count   int                `json:"count" example:"100" doc:"Number of entries returned"`
}

type LogsResponse struct {
	Body LogsData
}

type LogLevelsData struct {
	Levels map[string]string `json:"levels" doc:"Level per logging module"`
}

type LogLevelsResponse struct {
	Body LogLevelsData
}

type LogLevelRequest struct {
	Module string `path:"module" example:"sensor" doc:"Logging module"`
	Body   struct {
		Level string `json:"level" enum:"debug,info,warn,error" example:"debug" doc:"New level"`
	}
}
