package nats

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats-server/v2/server"
)

const (
	// Replies and events are single JSON objects, never frames.
	maxPayload   = 16 * 1024
	maxConns     = 64
	readyTimeout = 5 * time.Second
)

// BrokerOptions configures the embedded broker.
type BrokerOptions struct {
	// Device names the broker and scopes the subjects it announces.
	Device string
	Host   string
	// Port 0 picks a free port.
	Port   int
	Logger *slog.Logger
}

// Broker is the embedded NATS server a Bridge uses when no external server
// is configured. It serves exactly one device.
type Broker struct {
	ns       *server.Server
	device   string
	logger   *slog.Logger
	shutdown sync.Once
}

// StartBroker starts an embedded server for opts.Device and waits until it
// accepts connections.
func StartBroker(opts BrokerOptions) (*Broker, error) {
	if opts.Device == "" {
		return nil, fmt.Errorf("broker needs a device name")
	}
	host := opts.Host
	if host == "" {
		host = "127.0.0.1"
	}
	port := opts.Port
	if port == 0 {
		port = server.RANDOM_PORT
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ns, err := server.NewServer(&server.Options{
		ServerName: SubjectPrefix + "-" + opts.Device,
		Host:       host,
		Port:       port,
		NoLog:      true,
		NoSigs:     true,
		MaxPayload: maxPayload,
		MaxConn:    maxConns,
	})
	if err != nil {
		return nil, fmt.Errorf("create broker for %s: %w", opts.Device, err)
	}

	go ns.Start()
	if !ns.ReadyForConnections(readyTimeout) {
		ns.Shutdown()
		return nil, fmt.Errorf("broker for %s not ready after %s", opts.Device, readyTimeout)
	}

	b := &Broker{
		ns:     ns,
		device: opts.Device,
		logger: logger.With("component", "nats-broker"),
	}
	b.logger.Info("NATS broker started", "url", ns.ClientURL(), "device", opts.Device,
		"subjects", SubjectPrefix+"."+opts.Device+".>")
	return b, nil
}

// URL returns the client URL of the broker.
func (b *Broker) URL() string {
	return b.ns.ClientURL()
}

// Device returns the device the broker serves.
func (b *Broker) Device() string {
	return b.device
}

// Clients returns the number of connected clients.
func (b *Broker) Clients() int {
	return b.ns.NumClients()
}

// Running reports whether the broker accepts connections.
func (b *Broker) Running() bool {
	return b.ns.Running()
}

// Shutdown stops the broker and waits for it to exit. Later calls are no-ops.
func (b *Broker) Shutdown() {
	b.shutdown.Do(func() {
		b.ns.Shutdown()
		b.ns.WaitForShutdown()
		b.logger.Info("NATS broker stopped", "device", b.device)
	})
}
