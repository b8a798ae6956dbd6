package systemd

import (
	"errors"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// listenNotify binds a notify socket and points NOTIFY_SOCKET at it.
func listenNotify(t *testing.T) <-chan string {
	t.Helper()
	// Socket paths are length-limited, so avoid the long test temp dir.
	dir, err := os.MkdirTemp("", "sd")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	path := filepath.Join(dir, "notify")
	conn, err := net.ListenUnixgram("unixgram", &net.UnixAddr{Name: path, Net: "unixgram"})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	t.Setenv("NOTIFY_SOCKET", path)

	msgs := make(chan string, 64)
	go func() {
		buf := make([]byte, 256)
		for {
			n, err := conn.Read(buf)
			if err != nil {
				return
			}
			select {
			case msgs <- string(buf[:n]):
			default:
			}
		}
	}()
	return msgs
}

func expectMessage(t *testing.T, msgs <-chan string, want string) {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case msg := <-msgs:
			if msg == want {
				return
			}
		case <-timeout:
			t.Fatalf("no %q notification", want)
		}
	}
}

func TestNotifier_NoSocket(t *testing.T) {
	t.Setenv("NOTIFY_SOCKET", "")
	t.Setenv("WATCHDOG_USEC", "")

	n := NewNotifier(discardLogger(), nil)
	n.Ready()
	n.Status("idle")
	n.Stopping()

	if n.notify("READY=1") {
		t.Error("notify reported sent without a socket")
	}
}

func TestNotifier_ReadyStatusStopping(t *testing.T) {
	msgs := listenNotify(t)
	t.Setenv("WATCHDOG_USEC", "")

	n := NewNotifier(discardLogger(), nil)
	n.Ready()
	expectMessage(t, msgs, "READY=1")

	n.Status("streaming 1920x1200")
	expectMessage(t, msgs, "STATUS=streaming 1920x1200")

	n.Stopping()
	expectMessage(t, msgs, "STOPPING=1")
}

func TestNotifier_Watchdog(t *testing.T) {
	msgs := listenNotify(t)
	t.Setenv("WATCHDOG_USEC", "40000")
	t.Setenv("WATCHDOG_PID", "")

	n := NewNotifier(discardLogger(), nil)
	n.Ready()
	expectMessage(t, msgs, "READY=1")
	expectMessage(t, msgs, "WATCHDOG=1")

	n.Stopping()
	expectMessage(t, msgs, "STOPPING=1")
}

func TestNotifier_WatchdogSkipsWhenUnhealthy(t *testing.T) {
	msgs := listenNotify(t)
	t.Setenv("WATCHDOG_USEC", "20000")
	t.Setenv("WATCHDOG_PID", "")

	var checks atomic.Int32
	n := NewNotifier(discardLogger(), func() error {
		checks.Add(1)
		return errors.New("device closed")
	})
	n.Ready()
	expectMessage(t, msgs, "READY=1")

	deadline := time.Now().Add(2 * time.Second)
	for checks.Load() < 3 {
		if time.Now().After(deadline) {
			t.Fatal("health check never ran")
		}
		time.Sleep(5 * time.Millisecond)
	}
	n.Stopping()

	for {
		select {
		case msg := <-msgs:
			if strings.HasPrefix(msg, "WATCHDOG") {
				t.Fatalf("unexpected %q while unhealthy", msg)
			}
		default:
			return
		}
	}
}
