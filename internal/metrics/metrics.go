// Package metrics provides Prometheus collectors for the hosted sensor.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sensorsim"

// Results for the *_total counters.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Sensor holds the collectors describing one or more simulated devices.
type Sensor struct {
	streaming         *prometheus.GaugeVec
	streamTransitions *prometheus.CounterVec
	modeWidth         *prometheus.GaugeVec
	modeHeight        *prometheus.GaugeVec
	frameRate         *prometheus.GaugeVec
	controlValue      *prometheus.GaugeVec
	controlSets       *prometheus.CounterVec
	formatRequests    *prometheus.CounterVec
	sessions          prometheus.Gauge
	up                *prometheus.GaugeVec
}

// NewSensor registers the sensor collectors with reg.
func NewSensor(reg prometheus.Registerer) *Sensor {
	f := promauto.With(reg)
	return &Sensor{
		streaming: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sensor",
			Name:      "streaming",
			Help:      "1 while the device is streaming",
		}, []string{"device"}),
		streamTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sensor",
			Name:      "stream_transitions_total",
			Help:      "Streaming state changes by target state",
		}, []string{"device", "state"}),
		modeWidth: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sensor",
			Name:      "mode_width_pixels",
			Help:      "Width of the selected mode",
		}, []string{"device"}),
		modeHeight: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sensor",
			Name:      "mode_height_pixels",
			Help:      "Height of the selected mode",
		}, []string{"device"}),
		frameRate: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sensor",
			Name:      "frame_rate",
			Help:      "Frames per second of the selected mode",
		}, []string{"device"}),
		controlValue: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "control",
			Name:      "value",
			Help:      "Current control value",
		}, []string{"device", "control"}),
		controlSets: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "control",
			Name:      "sets_total",
			Help:      "Control set requests by result",
		}, []string{"device", "control", "result"}),
		formatRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "format",
			Name:      "requests_total",
			Help:      "Format negotiation requests by which and result",
		}, []string{"which", "result"}),
		sessions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "format",
			Name:      "sessions",
			Help:      "Open negotiation sessions",
		}),
		up: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sensor",
			Name:      "up",
			Help:      "1 while the device is registered",
		}, []string{"device"}),
	}
}

// SetUp marks a device as present or removed.
func (s *Sensor) SetUp(device string, up bool) {
	s.up.WithLabelValues(device).Set(boolToFloat(up))
}

// SetStreaming records a streaming transition.
func (s *Sensor) SetStreaming(device string, streaming bool) {
	s.streaming.WithLabelValues(device).Set(boolToFloat(streaming))
	state := "idle"
	if streaming {
		state = "streaming"
	}
	s.streamTransitions.WithLabelValues(device, state).Inc()
}

// SetMode records the selected mode.
func (s *Sensor) SetMode(device string, width, height uint32, fps float64) {
	s.modeWidth.WithLabelValues(device).Set(float64(width))
	s.modeHeight.WithLabelValues(device).Set(float64(height))
	s.frameRate.WithLabelValues(device).Set(fps)
}

// SetControl records the current value of a control.
func (s *Sensor) SetControl(device, control string, value int64) {
	s.controlValue.WithLabelValues(device, control).Set(float64(value))
}

// ObserveControlSet counts a control set request.
func (s *Sensor) ObserveControlSet(device, control string, err error) {
	s.controlSets.WithLabelValues(device, control, result(err)).Inc()
}

// ObserveFormat counts a format get or set request.
func (s *Sensor) ObserveFormat(which string, err error) {
	s.formatRequests.WithLabelValues(which, result(err)).Inc()
}

// SetSessions records the number of open negotiation sessions.
func (s *Sensor) SetSessions(n int) {
	s.sessions.Set(float64(n))
}

// Forget removes every per-device series of device.
func (s *Sensor) Forget(device string) {
	match := prometheus.Labels{"device": device}
	s.streaming.DeletePartialMatch(match)
	s.streamTransitions.DeletePartialMatch(match)
	s.modeWidth.DeletePartialMatch(match)
	s.modeHeight.DeletePartialMatch(match)
	s.frameRate.DeletePartialMatch(match)
	s.controlValue.DeletePartialMatch(match)
	s.controlSets.DeletePartialMatch(match)
	s.up.WithLabelValues(device).Set(0)
}

// Handler serves the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
