package api

import (
	"bufio"
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/smazurov/sensorsim/internal/logging"
)

// openSSE connects to path and returns a channel of its data lines.
func openSSE(t *testing.T, ts testServer, path string) <-chan string {
	t.Helper()

	srv := httptest.NewServer(ts.server.GetMux())
	t.Cleanup(srv.Close)

	credentials := base64.StdEncoding.EncodeToString([]byte(testUser + ":" + testPass))
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	resp, err := http.Get(srv.URL + path + sep + "auth=" + credentials)
	if err != nil {
		t.Fatalf("Failed to connect to SSE: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(resp.Header.Get("Content-Type"), "text/event-stream") {
		t.Fatalf("Expected SSE content type, got %s", resp.Header.Get("Content-Type"))
	}

	lines := make(chan string, 32)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			if line := scanner.Text(); strings.HasPrefix(line, "data:") {
				lines <- line
			}
		}
	}()
	return lines
}

func nextData(t *testing.T, lines <-chan string, want ...string) string {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case msg := <-lines:
			matched := true
			for _, w := range want {
				if !strings.Contains(msg, w) {
					matched = false
					break
				}
			}
			if matched {
				return msg
			}
		case <-timeout:
			t.Fatalf("Timeout waiting for SSE message containing %v", want)
			return ""
		}
	}
}

func TestSSE_InitialStateAndStreamEvents(t *testing.T) {
	ts := newTestServer(t)
	lines := openSSE(t, ts, "/api/events")

	nextData(t, lines, `"streaming":false`)

	if _, err := ts.sensor.SetStream(context.Background(), true); err != nil {
		t.Fatal(err)
	}
	msg := nextData(t, lines, `"streaming":true`)
	if !strings.Contains(msg, `"device":"ds90ub940"`) {
		t.Errorf("stream event without device: %s", msg)
	}
}

func TestSSE_FormatAndControlEvents(t *testing.T) {
	ts := newTestServer(t)
	lines := openSSE(t, ts, "/api/events")
	nextData(t, lines, `"streaming":false`)

	ts.api.Put("/api/sensor/format", authHeader, map[string]any{"width": 1920, "height": 1200})
	nextData(t, lines, `"width":1920`, `"code_name":"BGR888_1X24"`)

	ts.api.Put("/api/sensor/controls/vertical_flip", authHeader, map[string]any{"value": 1})
	nextData(t, lines, `"name":"vertical_flip"`, `"value":1`)
}

func TestSSE_LogStream(t *testing.T) {
	ts := newTestServer(t)

	// The stream sends nothing until an entry arrives, so keep publishing
	// until the client sees one.
	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(20 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				ts.server.forwardLog(logEntryForTest("sensor", "hello from test"))
			}
		}
	}()

	lines := openSSE(t, ts, "/api/logs/stream")
	msg := nextData(t, lines, `"message":"hello from test"`, `"module":"sensor"`)
	if !strings.Contains(msg, `"seq":`) {
		t.Errorf("log event without sequence number: %s", msg)
	}
}

func logEntryForTest(module, message string) logging.LogEntry {
	return logging.LogEntry{
		Timestamp: time.Now(),
		Level:     "info",
		Module:    module,
		Message:   message,
	}
}
