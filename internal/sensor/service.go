package sensor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/smazurov/sensorsim/internal/events"
	"github.com/smazurov/sensorsim/internal/logging"
	"github.com/smazurov/sensorsim/internal/media"
	"github.com/smazurov/sensorsim/internal/metrics"
	"github.com/smazurov/sensorsim/pkg/subdev"
)

// ReceiverEntity is the downstream sink the sensor is linked to once bound.
const ReceiverEntity = "csi2-rx"

// ServiceOptions configures the hosted device and its surroundings.
type ServiceOptions struct {
	Name            string
	Compatible      string
	Catalog         subdev.Catalog
	LinkFrequencies []int64
	Identity        subdev.IdentityProvider

	// SessionTTL closes sessions idle for longer. Zero keeps them forever.
	SessionTTL time.Duration

	EventBus EventPublisher
	Metrics  *metrics.Sensor
	Logger   *slog.Logger
	Now      func() time.Time
}

type session struct {
	id       string
	s        *subdev.Session
	opened   time.Time
	lastUsed time.Time
}

type service struct {
	name     string
	logger   *slog.Logger
	eventBus EventPublisher
	metrics  *metrics.Sensor
	now      func() time.Time

	graph    *media.Graph
	notifier *media.Notifier
	power    *media.RuntimePM
	dev      *subdev.Device

	mu         sync.Mutex
	sessions   map[string]*session
	sessionTTL time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed sync.Once
}

type noopPublisher struct{}

func (noopPublisher) Publish(events.Event) {}

// NewService builds the media graph, registers the downstream receiver and
// probes the device. The returned service owns all of them.
func NewService(opts *ServiceOptions) (Service, error) {
	if opts == nil {
		opts = &ServiceOptions{}
	}
	s := &service{
		name:       opts.Name,
		logger:     opts.Logger,
		eventBus:   opts.EventBus,
		metrics:    opts.Metrics,
		now:        opts.Now,
		sessions:   make(map[string]*session),
		sessionTTL: opts.SessionTTL,
	}
	if s.name == "" {
		s.name = subdev.DefaultName
	}
	compatible := opts.Compatible
	if compatible == "" {
		compatible = subdev.DefaultCompatible
	}
	if s.logger == nil {
		s.logger = logging.GetLogger("sensor")
	}
	if s.eventBus == nil {
		s.eventBus = noopPublisher{}
	}
	if s.metrics == nil {
		s.metrics = metrics.NewSensor(prometheus.NewRegistry())
	}
	if s.now == nil {
		s.now = time.Now
	}

	mediaLogger := logging.GetLogger("media")
	s.graph = media.NewGraph(mediaLogger)
	s.notifier = media.NewNotifier(mediaLogger)
	s.power = media.NewRuntimePM(mediaLogger)

	if err := s.graph.RegisterEntity(subdev.Entity{
		Name: ReceiverEntity,
		Pads: []subdev.Pad{{Index: 0, Flags: subdev.PadFlagSink}},
	}); err != nil {
		return nil, NewSensorError(ErrCodeDevice, "failed to register receiver", err)
	}
	s.notifier.Watch(compatible, s.onBound, s.onUnbind)

	devOpts := []subdev.Option{
		subdev.WithName(s.name, compatible),
		subdev.WithLogger(s.logger),
		subdev.WithPower(s.power),
		subdev.WithMediaGraph(s.graph),
		subdev.WithAsyncRegistrar(s.notifier),
		subdev.WithControlHandler(s.onControl),
		subdev.WithStreamObserver(s.onStream),
	}
	if opts.Catalog.Len() > 0 {
		devOpts = append(devOpts, subdev.WithCatalog(opts.Catalog))
	}
	if len(opts.LinkFrequencies) > 0 {
		devOpts = append(devOpts, subdev.WithLinkFrequencies(opts.LinkFrequencies...))
	}
	if opts.Identity != nil {
		devOpts = append(devOpts, subdev.WithIdentity(opts.Identity))
	}

	dev, err := subdev.New(devOpts...)
	if err != nil {
		s.graph.UnregisterEntity(ReceiverEntity)
		return nil, NewSensorError(ErrCodeDevice, "failed to probe device", err)
	}
	s.dev = dev

	s.metrics.SetUp(s.name, true)
	s.metrics.SetStreaming(s.name, false)
	s.recordMode()
	for _, c := range dev.Controls() {
		s.metrics.SetControl(s.name, c.Name, c.Value)
	}
	s.publish(events.DeviceLifecycleEvent{Device: s.name, Action: events.ActionProbed})

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	if s.sessionTTL > 0 {
		s.wg.Add(1)
		go s.expireLoop(ctx)
	}

	return s, nil
}

// onBound links the sensor source pad to the receiver.
func (s *service) onBound(d *subdev.Device) {
	if err := s.graph.CreateLink(d.Name(), 0, ReceiverEntity, 0); err != nil {
		s.logger.Warn("Failed to link sensor", "error", err)
	}
	s.logger.Info("Sensor bound", "receiver", ReceiverEntity)
	s.publish(events.DeviceLifecycleEvent{Device: d.Name(), Action: events.ActionBound})
}

func (s *service) onUnbind(d *subdev.Device) {
	s.logger.Info("Sensor unbound", "receiver", ReceiverEntity)
	s.publish(events.DeviceLifecycleEvent{Device: d.Name(), Action: events.ActionUnbound})
}

// onControl runs under the device lock; it must not call into the device.
func (s *service) onControl(c subdev.Control) error {
	s.metrics.SetControl(s.name, c.Name, c.Value)
	s.publish(events.ControlChangedEvent{
		Device: s.name,
		ID:     uint32(c.ID),
		Name:   c.Name,
		Value:  c.Value,
	})
	return nil
}

// onStream runs under the device lock.
func (s *service) onStream(enabled bool) {
	s.metrics.SetStreaming(s.name, enabled)
	s.publish(events.StreamStateChangedEvent{Device: s.name, Streaming: enabled})
}

// publish stamps the event and hands it to the bus.
func (s *service) publish(ev events.Event) {
	ts := s.now().Format(time.RFC3339)
	switch e := ev.(type) {
	case events.DeviceLifecycleEvent:
		e.Timestamp = ts
		ev = e
	case events.StreamStateChangedEvent:
		e.Timestamp = ts
		ev = e
	case events.FormatChangedEvent:
		e.Timestamp = ts
		ev = e
	case events.ControlChangedEvent:
		e.Timestamp = ts
		ev = e
	case events.SessionOpenedEvent:
		e.Timestamp = ts
		ev = e
	case events.SessionClosedEvent:
		e.Timestamp = ts
		ev = e
	}
	s.eventBus.Publish(ev)
}

func (s *service) recordMode() {
	m := s.dev.SelectedMode()
	s.metrics.SetMode(s.name, m.Width, m.Height, m.Interval.FPS())
}

func (s *service) Info(_ context.Context) DeviceInfo {
	m := s.dev.SelectedMode()
	e := s.dev.Entity()
	props := s.dev.Properties()

	s.mu.Lock()
	open := len(s.sessions)
	s.mu.Unlock()

	state := s.dev.State()
	return DeviceInfo{
		Name:          s.dev.Name(),
		Compatible:    s.dev.Compatible(),
		Entity:        e.Name,
		Function:      string(e.Function),
		State:         state,
		Streaming:     state == subdev.StreamStreaming,
		Mode:          s.modeInfo(m, s.modeIndex(m)),
		FrameInterval: s.dev.FrameInterval(),
		Vendor:        props.Vendor,
		Model:         props.Model,
		Sessions:      open,
	}
}

func (s *service) modeIndex(m subdev.Mode) int {
	for i, c := range s.dev.Catalog().List() {
		if c == m {
			return i
		}
	}
	return -1
}

func (s *service) modeInfo(m subdev.Mode, index int) ModeInfo {
	return ModeInfo{
		Index:    index,
		Width:    m.Width,
		Height:   m.Height,
		Code:     m.Code,
		CodeName: subdev.CodeName(m.Code),
		Interval: m.Interval,
		FPS:      m.Interval.FPS(),
	}
}

func (s *service) Modes(_ context.Context) []ModeInfo {
	modes := s.dev.Catalog().List()
	out := make([]ModeInfo, len(modes))
	for i, m := range modes {
		out[i] = s.modeInfo(m, i)
	}
	return out
}

func (s *service) EnumerateCode(_ context.Context, index uint32) (CodeInfo, error) {
	code, err := s.dev.EnumMbusCode(index)
	if err != nil {
		return CodeInfo{}, err
	}
	return CodeInfo{Index: index, Code: code, Name: subdev.CodeName(code)}, nil
}

func (s *service) EnumerateFrameSize(_ context.Context, index, code uint32) (subdev.FrameSizeRange, error) {
	return s.dev.EnumFrameSize(index, code)
}

func (s *service) OpenSession(_ context.Context) (SessionInfo, error) {
	now := s.now()
	sess := &session{
		id:       uuid.NewString(),
		s:        s.dev.Open(),
		opened:   now,
		lastUsed: now,
	}
	trial, err := s.dev.GetFormat(sess.s, subdev.WhichTrial)
	if err != nil {
		return SessionInfo{}, err
	}

	s.mu.Lock()
	s.sessions[sess.id] = sess
	n := len(s.sessions)
	s.mu.Unlock()

	s.metrics.SetSessions(n)
	s.logger.Debug("Session opened", "session_id", sess.id)
	s.publish(events.SessionOpenedEvent{SessionID: sess.id})
	return SessionInfo{ID: sess.id, Opened: now, Trial: trial}, nil
}

func (s *service) CloseSession(_ context.Context, id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	n := len(s.sessions)
	s.mu.Unlock()

	if !ok {
		return NewSensorError(ErrCodeSessionNotFound, "session "+id+" not found", subdev.ErrNoSession)
	}
	sess.s.Close()
	s.metrics.SetSessions(n)
	s.logger.Debug("Session closed", "session_id", id)
	s.publish(events.SessionClosedEvent{SessionID: id, Reason: "closed"})
	return nil
}

// lookupSession returns the device session for id and marks it used.
// Active requests do not need a session, so an empty id yields nil.
func (s *service) lookupSession(which subdev.Which, id string) (*subdev.Session, error) {
	if which == subdev.WhichActive && id == "" {
		return nil, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, NewSensorError(ErrCodeSessionNotFound, "session "+id+" not found", subdev.ErrNoSession)
	}
	sess.lastUsed = s.now()
	return sess.s, nil
}

func (s *service) GetFormat(_ context.Context, which subdev.Which, sessionID string) (subdev.Format, error) {
	sess, err := s.lookupSession(which, sessionID)
	if err != nil {
		s.metrics.ObserveFormat(which.String(), err)
		return subdev.Format{}, err
	}
	f, err := s.dev.GetFormat(sess, which)
	s.metrics.ObserveFormat(which.String(), err)
	return f, err
}

func (s *service) SetFormat(_ context.Context, which subdev.Which, sessionID string, width, height uint32) (subdev.Format, error) {
	if width == 0 || height == 0 {
		err := NewSensorError(ErrCodeInvalidParams, "width and height must be positive", nil)
		s.metrics.ObserveFormat(which.String(), err)
		return subdev.Format{}, err
	}
	sess, err := s.lookupSession(which, sessionID)
	if err != nil {
		s.metrics.ObserveFormat(which.String(), err)
		return subdev.Format{}, err
	}

	// Serialize active changes so the before/after comparison is ours.
	if which == subdev.WhichActive {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	before := s.dev.SelectedMode()
	f, err := s.dev.SetFormat(sess, which, width, height)
	s.metrics.ObserveFormat(which.String(), err)
	if err != nil {
		return subdev.Format{}, err
	}

	if which == subdev.WhichActive {
		if after := s.dev.SelectedMode(); after != before {
			s.recordMode()
			s.logger.Info("Active mode changed",
				"from", fmtSize(before), "to", fmtSize(after))
			s.publish(events.FormatChangedEvent{
				Device:   s.name,
				Width:    f.Width,
				Height:   f.Height,
				Code:     f.Code,
				CodeName: subdev.CodeName(f.Code),
			})
		}
	}
	return f, nil
}

func (s *service) FrameInterval(_ context.Context) subdev.Fraction {
	return s.dev.FrameInterval()
}

func (s *service) SetStream(_ context.Context, enable bool) (subdev.StreamState, error) {
	if err := s.dev.SetStream(enable); err != nil {
		return s.dev.State(), err
	}
	return s.dev.State(), nil
}

func controlInfo(c subdev.Control) ControlInfo {
	return ControlInfo{
		ID:       uint32(c.ID),
		Name:     c.Name,
		Type:     c.Type.String(),
		Min:      c.Min,
		Max:      c.Max,
		Step:     c.Step,
		Default:  c.Default,
		Value:    c.Value,
		ReadOnly: c.ReadOnly(),
		IntMenu:  c.IntMenu,
		Menu:     c.Menu,
	}
}

func (s *service) ListControls(_ context.Context) []ControlInfo {
	ctrls := s.dev.Controls()
	out := make([]ControlInfo, len(ctrls))
	for i, c := range ctrls {
		out[i] = controlInfo(c)
	}
	return out
}

func (s *service) controlID(name string) (subdev.ControlID, error) {
	id, ok := s.dev.LookupControl(name)
	if !ok {
		if s.dev.Closed() {
			return 0, subdev.ErrClosed
		}
		return 0, NewSensorError(ErrCodeControlNotFound, "control "+name+" not found", nil)
	}
	return id, nil
}

func (s *service) GetControl(_ context.Context, name string) (ControlInfo, error) {
	id, err := s.controlID(name)
	if err != nil {
		return ControlInfo{}, err
	}
	c, err := s.dev.GetControl(id)
	if err != nil {
		return ControlInfo{}, err
	}
	return controlInfo(c), nil
}

func (s *service) SetControl(_ context.Context, name string, value int64) (ControlInfo, error) {
	id, err := s.controlID(name)
	if err != nil {
		return ControlInfo{}, err
	}
	c, err := s.dev.SetControl(id, value)
	s.metrics.ObserveControlSet(s.name, name, err)
	if err != nil {
		s.logger.Debug("Control set rejected", "control", name, "value", value, "error", err)
		return ControlInfo{}, err
	}
	return controlInfo(c), nil
}

func (s *service) Topology(_ context.Context) Topology {
	return Topology{
		Entities: s.graph.Entities(),
		Links:    s.graph.Links(),
	}
}

// expireLoop closes sessions idle for longer than the TTL.
func (s *service) expireLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.sessionTTL / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.expireSessions(); n > 0 {
				s.logger.Info("Expired idle sessions", "count", n)
			}
		}
	}
}

func (s *service) expireSessions() int {
	cutoff := s.now().Add(-s.sessionTTL)

	s.mu.Lock()
	var expired []*session
	for id, sess := range s.sessions {
		if sess.lastUsed.Before(cutoff) {
			expired = append(expired, sess)
			delete(s.sessions, id)
		}
	}
	n := len(s.sessions)
	s.mu.Unlock()

	if len(expired) == 0 {
		return 0
	}
	for _, sess := range expired {
		sess.s.Close()
		s.publish(events.SessionClosedEvent{SessionID: sess.id, Reason: "expired"})
	}
	s.metrics.SetSessions(n)
	return len(expired)
}

// Close removes the device and drops every session. Safe to call twice.
func (s *service) Close() {
	s.closed.Do(func() {
		s.cancel()
		s.wg.Wait()

		s.mu.Lock()
		sessions := s.sessions
		s.sessions = make(map[string]*session)
		s.mu.Unlock()
		for _, sess := range sessions {
			sess.s.Close()
		}
		s.metrics.SetSessions(0)

		s.dev.Close()
		s.graph.UnregisterEntity(ReceiverEntity)
		s.metrics.Forget(s.name)
		s.publish(events.DeviceLifecycleEvent{Device: s.name, Action: events.ActionRemoved})
	})
}

func fmtSize(m subdev.Mode) string {
	return fmt.Sprintf("%dx%d", m.Width, m.Height)
}

// IsNotFound reports whether err names a missing session or control.
func IsNotFound(err error) bool {
	code := ErrorCode(err)
	return code == ErrCodeSessionNotFound || code == ErrCodeControlNotFound
}
