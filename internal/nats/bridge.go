package nats

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/smazurov/sensorsim/internal/events"
	"github.com/smazurov/sensorsim/internal/sensor"
)

const requestTimeout = 5 * time.Second

// Bridge publishes event bus events to NATS and serves control requests
// against the sensor.
type Bridge struct {
	url      string
	device   string
	sensor   sensor.Service
	eventBus *events.Bus
	logger   *slog.Logger

	mu          sync.Mutex
	conn        *nats.Conn
	subs        []*nats.Subscription
	unsubscribe func()
	stop        chan struct{}
	done        chan struct{}
}

// NewBridge creates a bridge for svc. Events are read from eventBus.
func NewBridge(url string, svc sensor.Service, eventBus *events.Bus, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}

	return &Bridge{
		url:      url,
		device:   svc.Info(context.Background()).Name,
		sensor:   svc,
		eventBus: eventBus,
		logger:   logger.With("component", "nats-bridge"),
	}
}

// Start connects to NATS, subscribes to the control subjects and starts
// forwarding events.
func (b *Bridge) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	conn, err := nats.Connect(b.url,
		nats.Name("sensorsim-bridge"),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				b.logger.Warn("NATS bridge disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			b.logger.Info("NATS bridge reconnected")
		}),
	)
	if err != nil {
		return err
	}
	b.conn = conn
	b.logger.Info("NATS bridge connected", "url", b.url, "device", b.device)

	handlers := map[string]nats.MsgHandler{
		ActionInfo:   b.handleInfo,
		ActionStream: b.handleStream,
		ActionSet:    b.handleSet,
	}
	for action, handler := range handlers {
		sub, err := conn.Subscribe(SubjectControl(b.device, action), handler)
		if err != nil {
			b.cleanup()
			return err
		}
		b.subs = append(b.subs, sub)
	}
	if err := conn.Flush(); err != nil {
		b.cleanup()
		return err
	}

	if b.eventBus != nil {
		ch := make(chan any, 64)
		b.unsubscribe = events.SubscribeAll(b.eventBus, ch, false)
		b.stop = make(chan struct{})
		b.done = make(chan struct{})
		go b.forward(conn, ch, b.stop, b.done)
	}
	return nil
}

func (b *Bridge) forward(conn *nats.Conn, ch <-chan any, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case <-stop:
			return
		case raw := <-ch:
			ev, ok := raw.(events.Event)
			if !ok {
				continue
			}
			data, err := json.Marshal(ev)
			if err != nil {
				b.logger.Warn("Failed to marshal event", "event", events.Name(ev), "error", err)
				continue
			}
			if err := conn.Publish(SubjectEvent(b.device, events.Name(ev)), data); err != nil {
				b.logger.Debug("Failed to publish event", "event", events.Name(ev), "error", err)
			}
		}
	}
}

func (b *Bridge) handleInfo(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	b.respond(msg, b.sensor.Info(ctx), nil)
}

func (b *Bridge) handleStream(msg *nats.Msg) {
	var req StreamRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		b.respond(msg, nil, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	state, err := b.sensor.SetStream(ctx, req.Enable)
	b.respond(msg, state, err)
}

func (b *Bridge) handleSet(msg *nats.Msg) {
	var req SetControlRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		b.respond(msg, nil, err)
		return
	}
	if req.Name == "" {
		b.respond(msg, nil, errors.New("control name is required"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	ctrl, err := b.sensor.SetControl(ctx, req.Name, req.Value)
	b.respond(msg, ctrl, err)
}

func (b *Bridge) respond(msg *nats.Msg, data any, err error) {
	reply := Reply{OK: err == nil, Data: data}
	if err != nil {
		reply.Data = nil
		reply.Error = err.Error()
		b.logger.Debug("Control request failed", "subject", msg.Subject, "error", err)
	}

	payload, marshalErr := reply.Marshal()
	if marshalErr != nil {
		b.logger.Warn("Failed to marshal reply", "subject", msg.Subject, "error", marshalErr)
		return
	}
	if respondErr := msg.Respond(payload); respondErr != nil {
		b.logger.Debug("Failed to send reply", "subject", msg.Subject, "error", respondErr)
	}
}

// cleanup must be called with mu held.
func (b *Bridge) cleanup() {
	if b.unsubscribe != nil {
		b.unsubscribe()
		b.unsubscribe = nil
	}
	if b.stop != nil {
		close(b.stop)
		<-b.done
		b.stop, b.done = nil, nil
	}

	for _, sub := range b.subs {
		_ = sub.Unsubscribe()
	}
	b.subs = nil

	if b.conn != nil {
		b.conn.Close()
		b.conn = nil
	}
}

// Stop closes the bridge connection.
func (b *Bridge) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.cleanup()
	b.logger.Info("NATS bridge stopped")
}

// IsConnected returns true if the bridge is connected to NATS.
func (b *Bridge) IsConnected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conn != nil && b.conn.IsConnected()
}
