package systemd

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
)

// Notifier reports service state to systemd over the notify socket. Every
// call is a no-op when the process is not run with Type=notify.
type Notifier struct {
	logger  *slog.Logger
	healthy func() error

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewNotifier creates a notifier. healthy gates watchdog pings and may be nil.
func NewNotifier(logger *slog.Logger, healthy func() error) *Notifier {
	return &Notifier{logger: logger, healthy: healthy}
}

// Ready tells systemd start-up finished and starts the watchdog loop when
// WatchdogSec is set on the unit.
func (n *Notifier) Ready() {
	n.notify(daemon.SdNotifyReady)

	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil {
		n.logger.Warn("Invalid watchdog environment", "error", err)
		return
	}
	if interval == 0 {
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	n.cancel = cancel
	n.done = make(chan struct{})
	go n.watchdog(ctx, interval/2, n.done)
	n.logger.Info("systemd watchdog enabled", "interval", interval)
}

// Status sets the free-form status line shown by systemctl status.
func (n *Notifier) Status(status string) {
	n.notify("STATUS=" + status)
}

// Stopping tells systemd shutdown has begun and stops the watchdog loop.
func (n *Notifier) Stopping() {
	n.mu.Lock()
	cancel, done := n.cancel, n.done
	n.cancel, n.done = nil, nil
	n.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	n.notify(daemon.SdNotifyStopping)
}

func (n *Notifier) watchdog(ctx context.Context, every time.Duration, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n.healthy != nil {
				if err := n.healthy(); err != nil {
					n.logger.Warn("Skipping watchdog ping", "error", err)
					continue
				}
			}
			n.notify(daemon.SdNotifyWatchdog)
		}
	}
}

func (n *Notifier) notify(state string) bool {
	sent, err := daemon.SdNotify(false, state)
	if err != nil {
		n.logger.Warn("systemd notify failed", "state", state, "error", err)
		return false
	}
	if sent {
		n.logger.Debug("systemd notified", "state", state)
	}
	return sent
}
