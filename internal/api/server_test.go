package api

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/smazurov/sensorsim/internal/events"
	"github.com/smazurov/sensorsim/internal/metrics"
	"github.com/smazurov/sensorsim/internal/sensor"
	"github.com/smazurov/sensorsim/pkg/subdev"
)

const (
	testUser = "test"
	testPass = "test"
)

var authHeader = "Authorization: Basic " + base64.StdEncoding.EncodeToString([]byte(testUser+":"+testPass))

func testCatalog(t *testing.T) subdev.Catalog {
	t.Helper()
	interval := subdev.Fraction{Numerator: 1, Denominator: 30}
	c, err := subdev.NewCatalog(
		subdev.Mode{Width: 640, Height: 480, Code: subdev.MbusFmtBGR888_1X24, Interval: interval, PixelRate: 50000000},
		subdev.Mode{Width: 1920, Height: 1200, Code: subdev.MbusFmtBGR888_1X24, Interval: interval, PixelRate: subdev.DefaultPixelRate},
	)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

type testServer struct {
	server   *Server
	sensor   sensor.Service
	bus      *events.Bus
	registry *prometheus.Registry
	api      humatest.TestAPI
}

func newTestServer(t *testing.T) testServer {
	t.Helper()
	bus := events.New()
	registry := prometheus.NewRegistry()
	svc, err := sensor.NewService(&sensor.ServiceOptions{
		Catalog:  testCatalog(t),
		EventBus: bus,
		Metrics:  metrics.NewSensor(registry),
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	t.Cleanup(svc.Close)

	server := NewServer(&Options{
		AuthUsername:      testUser,
		AuthPassword:      testPass,
		Sensor:            svc,
		EventBus:          bus,
		PrometheusHandler: metrics.Handler(registry),
	})
	t.Cleanup(func() { _ = server.Stop() })

	return testServer{
		server:   server,
		sensor:   svc,
		bus:      bus,
		registry: registry,
		api:      humatest.Wrap(t, server.GetAPI()),
	}
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("decode %s: %v", body, err)
	}
	return out
}

func TestHealthAndVersion_NoAuth(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/api/health", "/api/version"} {
		resp := ts.api.Get(path)
		if resp.Code != http.StatusOK {
			t.Errorf("GET %s: status %d", path, resp.Code)
		}
	}
}

func TestBasicAuth(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name   string
		path   string
		header []any
		want   int
	}{
		{"missing", "/api/sensor", nil, http.StatusUnauthorized},
		{"wrong scheme", "/api/sensor", []any{"Authorization: Bearer abc"}, http.StatusUnauthorized},
		{"bad base64", "/api/sensor", []any{"Authorization: Basic !!!"}, http.StatusUnauthorized},
		{"wrong password", "/api/sensor", []any{
			"Authorization: Basic " + base64.StdEncoding.EncodeToString([]byte("test:nope")),
		}, http.StatusUnauthorized},
		{"header", "/api/sensor", []any{authHeader}, http.StatusOK},
		{"query", "/api/sensor?auth=" + base64.StdEncoding.EncodeToString([]byte("test:test")), nil, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Get(tt.path, tt.header...)
			if resp.Code != tt.want {
				t.Fatalf("status %d, want %d: %s", resp.Code, tt.want, resp.Body.String())
			}
			if tt.want == http.StatusUnauthorized && resp.Header().Get("WWW-Authenticate") == "" {
				t.Error("missing WWW-Authenticate header")
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.api.Get("/api/health", RequestIDHeader+": abc-123")
	if got := resp.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("request id = %q, want echo", got)
	}
	resp = ts.api.Get("/api/health")
	if got := resp.Header().Get(RequestIDHeader); got == "" {
		t.Error("no request id assigned")
	}
	if got := resp.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("CORS origin = %q", got)
	}
}

func TestGetSensor(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.api.Get("/api/sensor", authHeader)
	if resp.Code != http.StatusOK {
		t.Fatalf("status %d: %s", resp.Code, resp.Body.String())
	}
	info := decode[sensor.DeviceInfo](t, resp.Body.Bytes())
	if info.Name != subdev.DefaultName || info.Compatible != subdev.DefaultCompatible {
		t.Errorf("identity %q/%q", info.Name, info.Compatible)
	}
	if info.Streaming || info.State != subdev.StreamIdle {
		t.Errorf("fresh sensor streaming: %+v", info)
	}
	if info.Mode.Width != 640 || info.Mode.Height != 480 {
		t.Errorf("mode %dx%d, want the first catalog entry", info.Mode.Width, info.Mode.Height)
	}
}

func TestEnumeration(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.api.Get("/api/sensor/modes", authHeader)
	if resp.Code != http.StatusOK {
		t.Fatalf("modes: %d", resp.Code)
	}
	if modes := decode[struct{ Count int }](t, resp.Body.Bytes()); modes.Count != 2 {
		t.Errorf("mode count %d", modes.Count)
	}

	tests := []struct {
		name string
		path string
		want int
	}{
		{"code", "/api/sensor/codes/1", http.StatusOK},
		{"code out of range", "/api/sensor/codes/2", http.StatusUnprocessableEntity},
		{"frame size by name", "/api/sensor/frame-sizes/1?code=MEDIA_BUS_FMT_BGR888_1X24", http.StatusOK},
		{"frame size by number", "/api/sensor/frame-sizes/0?code=0x1013", http.StatusOK},
		{"frame size mismatch", "/api/sensor/frame-sizes/0?code=UYVY8_1X16", http.StatusUnprocessableEntity},
		{"frame size out of range", "/api/sensor/frame-sizes/7?code=BGR888_1X24", http.StatusUnprocessableEntity},
		{"frame size bad code", "/api/sensor/frame-sizes/0?code=nope", http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Get(tt.path, authHeader)
			if resp.Code != tt.want {
				t.Errorf("status %d, want %d: %s", resp.Code, tt.want, resp.Body.String())
			}
		})
	}

	resp = ts.api.Get("/api/sensor/frame-sizes/1?code=BGR888_1X24", authHeader)
	fs := decode[struct {
		MinWidth  uint32 `json:"min_width"`
		MaxWidth  uint32 `json:"max_width"`
		MinHeight uint32 `json:"min_height"`
		MaxHeight uint32 `json:"max_height"`
	}](t, resp.Body.Bytes())
	if fs.MinWidth != 1920 || fs.MaxWidth != 1920 || fs.MinHeight != 1200 || fs.MaxHeight != 1200 {
		t.Errorf("frame size %+v", fs)
	}
}

type formatBody struct {
	Which   string        `json:"which"`
	Session string        `json:"session"`
	Format  subdev.Format `json:"format"`
}

func TestFormatNegotiation(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.api.Post("/api/sensor/sessions", authHeader)
	if resp.Code != http.StatusCreated {
		t.Fatalf("open session: %d %s", resp.Code, resp.Body.String())
	}
	sess := decode[sensor.SessionInfo](t, resp.Body.Bytes())
	if sess.ID == "" {
		t.Fatal("empty session id")
	}

	resp = ts.api.Put("/api/sensor/format", authHeader, map[string]any{
		"which": "trial", "session": sess.ID, "width": 1000, "height": 500,
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("trial set: %d %s", resp.Code, resp.Body.String())
	}
	trial := decode[formatBody](t, resp.Body.Bytes())
	if trial.Which != "trial" || trial.Session != sess.ID || trial.Format.Width != 1000 || trial.Format.Height != 500 {
		t.Errorf("trial response %+v", trial)
	}

	resp = ts.api.Get("/api/sensor/format", authHeader)
	active := decode[formatBody](t, resp.Body.Bytes())
	if active.Which != "active" || active.Format.Width != 640 {
		t.Errorf("active changed by trial: %+v", active)
	}

	resp = ts.api.Put("/api/sensor/format", authHeader, map[string]any{"width": 1900, "height": 1190})
	active = decode[formatBody](t, resp.Body.Bytes())
	if active.Format.Width != 1920 || active.Format.Height != 1200 {
		t.Errorf("active not snapped to catalog: %+v", active.Format)
	}

	resp = ts.api.Get("/api/sensor/format?which=trial&session="+sess.ID, authHeader)
	if got := decode[formatBody](t, resp.Body.Bytes()); got.Format.Width != 1000 {
		t.Errorf("trial lost: %+v", got.Format)
	}

	resp = ts.api.Get("/api/sensor/frame-interval", authHeader)
	fi := decode[struct {
		Interval subdev.Fraction `json:"interval"`
		FPS      float64         `json:"fps"`
	}](t, resp.Body.Bytes())
	if fi.Interval != (subdev.Fraction{Numerator: 1, Denominator: 30}) || fi.FPS != 30 {
		t.Errorf("frame interval %+v", fi)
	}

	if resp := ts.api.Delete("/api/sensor/sessions/"+sess.ID, authHeader); resp.Code != http.StatusNoContent {
		t.Errorf("close session: %d", resp.Code)
	}
	if resp := ts.api.Delete("/api/sensor/sessions/"+sess.ID, authHeader); resp.Code != http.StatusNotFound {
		t.Errorf("second close: %d", resp.Code)
	}
}

func TestFormatErrors(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name string
		do   func() int
		want int
	}{
		{"trial without session", func() int {
			return ts.api.Get("/api/sensor/format?which=trial", authHeader).Code
		}, http.StatusNotFound},
		{"unknown session", func() int {
			return ts.api.Put("/api/sensor/format", authHeader, map[string]any{
				"which": "trial", "session": "missing", "width": 10, "height": 10,
			}).Code
		}, http.StatusNotFound},
		{"bad which", func() int {
			return ts.api.Get("/api/sensor/format?which=later", authHeader).Code
		}, http.StatusUnprocessableEntity},
		{"zero width", func() int {
			return ts.api.Put("/api/sensor/format", authHeader, map[string]any{"width": 0, "height": 10}).Code
		}, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.do(); got != tt.want {
				t.Errorf("status %d, want %d", got, tt.want)
			}
		})
	}
}

func TestControls(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.api.Get("/api/sensor/controls", authHeader)
	list := decode[struct {
		Controls []sensor.ControlInfo `json:"controls"`
		Count    int                  `json:"count"`
	}](t, resp.Body.Bytes())
	if list.Count != 9 || len(list.Controls) != 9 {
		t.Fatalf("control count %d", list.Count)
	}

	resp = ts.api.Put("/api/sensor/controls/horizontal_flip", authHeader, map[string]any{"value": 1})
	if resp.Code != http.StatusOK {
		t.Fatalf("set hflip: %d %s", resp.Code, resp.Body.String())
	}
	if c := decode[sensor.ControlInfo](t, resp.Body.Bytes()); c.Value != 1 {
		t.Errorf("hflip value %d", c.Value)
	}
	resp = ts.api.Get("/api/sensor/controls/horizontal_flip", authHeader)
	if c := decode[sensor.ControlInfo](t, resp.Body.Bytes()); c.Value != 1 {
		t.Errorf("hflip not persisted: %d", c.Value)
	}

	tests := []struct {
		name  string
		path  string
		value int64
		want  int
	}{
		{"read-only", "/api/sensor/controls/pixel_rate", 1, http.StatusForbidden},
		{"out of range", "/api/sensor/controls/exposure", 5, http.StatusUnprocessableEntity},
		{"unknown", "/api/sensor/controls/zoom", 1, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Put(tt.path, authHeader, map[string]any{"value": tt.value})
			if resp.Code != tt.want {
				t.Errorf("status %d, want %d: %s", resp.Code, tt.want, resp.Body.String())
			}
		})
	}
}

func TestSetStream(t *testing.T) {
	ts := newTestServer(t)

	for _, enable := range []bool{true, true, false} {
		resp := ts.api.Put("/api/sensor/stream", authHeader, map[string]any{"enable": enable})
		if resp.Code != http.StatusOK {
			t.Fatalf("enable=%v: %d", enable, resp.Code)
		}
		got := decode[struct {
			State     subdev.StreamState `json:"state"`
			Streaming bool               `json:"streaming"`
		}](t, resp.Body.Bytes())
		if got.Streaming != enable {
			t.Errorf("enable=%v: streaming=%v state=%s", enable, got.Streaming, got.State)
		}
	}

	ts.sensor.Close()
	resp := ts.api.Put("/api/sensor/stream", authHeader, map[string]any{"enable": true})
	if resp.Code != http.StatusServiceUnavailable {
		t.Errorf("stream on closed sensor: %d", resp.Code)
	}
	resp = ts.api.Get("/api/sensor/controls/exposure", authHeader)
	if resp.Code != http.StatusServiceUnavailable {
		t.Errorf("control read on closed sensor: %d", resp.Code)
	}
	resp = ts.api.Put("/api/sensor/controls/exposure", authHeader, map[string]any{"value": 1})
	if resp.Code != http.StatusServiceUnavailable {
		t.Errorf("control write on closed sensor: %d", resp.Code)
	}
}

func TestTopology(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.api.Get("/api/media/topology", authHeader)
	if resp.Code != http.StatusOK {
		t.Fatalf("status %d", resp.Code)
	}
	topo := decode[sensor.Topology](t, resp.Body.Bytes())
	if len(topo.Entities) != 2 {
		t.Errorf("entities %+v", topo.Entities)
	}
	if len(topo.Links) != 1 || topo.Links[0].Source != subdev.DefaultName || topo.Links[0].Sink != sensor.ReceiverEntity {
		t.Errorf("links %+v", topo.Links)
	}
}

func TestLogRoutes(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.api.Get("/api/logs?tail=5", authHeader)
	if resp.Code != http.StatusOK {
		t.Fatalf("logs: %d", resp.Code)
	}
	logs := decode[struct {
		Count int `json:"count"`
	}](t, resp.Body.Bytes())
	if logs.Count > 5 {
		t.Errorf("tail returned %d entries", logs.Count)
	}

	resp = ts.api.Put("/api/logs/levels/sensor", authHeader, map[string]any{"level": "debug"})
	if resp.Code != http.StatusOK {
		t.Fatalf("set level: %d %s", resp.Code, resp.Body.String())
	}
	levels := decode[struct {
		Levels map[string]string `json:"levels"`
	}](t, resp.Body.Bytes())
	if levels.Levels["sensor"] != "debug" {
		t.Errorf("levels %v", levels.Levels)
	}

	resp = ts.api.Put("/api/logs/levels/sensor", authHeader, map[string]any{"level": "loud"})
	if resp.Code != http.StatusUnprocessableEntity {
		t.Errorf("invalid level accepted: %d", resp.Code)
	}
}

func TestPrometheusEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.api.Get("/metrics")
	if resp.Code != http.StatusOK {
		t.Fatalf("metrics: %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "sensorsim_sensor_up") {
		t.Errorf("sensor_up missing from scrape")
	}
}

func TestMapSensorError(t *testing.T) {
	s := &Server{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"session", sensor.NewSensorError(sensor.ErrCodeSessionNotFound, "x", subdev.ErrNoSession), http.StatusNotFound},
		{"control", sensor.NewSensorError(sensor.ErrCodeControlNotFound, "x", nil), http.StatusNotFound},
		{"params", sensor.NewSensorError(sensor.ErrCodeInvalidParams, "x", nil), http.StatusBadRequest},
		{"out of range", subdev.ErrOutOfRange, http.StatusUnprocessableEntity},
		{"mismatch", subdev.ErrCodeMismatch, http.StatusUnprocessableEntity},
		{"range", subdev.ErrRange, http.StatusUnprocessableEntity},
		{"read-only", subdev.ErrReadOnly, http.StatusForbidden},
		{"closed", subdev.ErrClosed, http.StatusServiceUnavailable},
		{"construction", sensor.NewSensorError(sensor.ErrCodeDevice, "x", subdev.ErrConstruction), http.StatusInternalServerError},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var se huma.StatusError
			if !errors.As(s.mapSensorError(tt.err), &se) {
				t.Fatal("not a huma.StatusError")
			}
			if se.GetStatus() != tt.want {
				t.Errorf("status %d, want %d", se.GetStatus(), tt.want)
			}
		})
	}
}
