package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func reset() {
	mu.Lock()
	defer mu.Unlock()
	loggers = make(map[string]*slog.Logger)
	levels = make(map[string]*slog.LevelVar)
	current = Config{}
	initialized = false
	history = nil
	onEntry = nil
}

func enabled(l *slog.Logger, level slog.Level) bool {
	return l.Handler().Enabled(context.Background(), level)
}

func TestModuleLevelOverride(t *testing.T) {
	reset()
	Initialize(Config{
		Level:   "info",
		Format:  "text",
		Modules: map[string]string{"sensor": "debug", "api": "warn"},
	})

	tests := []struct {
		module    string
		wantDebug bool
		wantInfo  bool
		wantWarn  bool
	}{
		{"sensor", true, true, true},
		{"api", false, false, true},
		{"media", false, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.module, func(t *testing.T) {
			logger := GetLogger(tt.module)
			if got := enabled(logger, slog.LevelDebug); got != tt.wantDebug {
				t.Errorf("debug enabled = %v, want %v", got, tt.wantDebug)
			}
			if got := enabled(logger, slog.LevelInfo); got != tt.wantInfo {
				t.Errorf("info enabled = %v, want %v", got, tt.wantInfo)
			}
			if got := enabled(logger, slog.LevelWarn); got != tt.wantWarn {
				t.Errorf("warn enabled = %v, want %v", got, tt.wantWarn)
			}
		})
	}
}

func TestGetLoggerBeforeInitialize(t *testing.T) {
	reset()

	early := GetLogger("media")
	if enabled(early, slog.LevelDebug) {
		t.Error("logger created before Initialize should default to info")
	}

	Initialize(Config{Level: "info", Modules: map[string]string{"media": "debug"}})

	// The early logger shares the module's LevelVar.
	if !enabled(early, slog.LevelDebug) {
		t.Error("early logger did not pick up the configured level")
	}
	if !enabled(GetLogger("media"), slog.LevelDebug) {
		t.Error("rebuilt logger does not have debug enabled")
	}
}

func TestSetLevel(t *testing.T) {
	reset()
	Initialize(Config{Level: "info"})

	logger := GetLogger("sensor")
	if err := SetLevel("sensor", "debug"); err != nil {
		t.Fatalf("SetLevel: %v", err)
	}
	if !enabled(logger, slog.LevelDebug) {
		t.Error("debug not enabled after SetLevel")
	}
	if got := Levels()["sensor"]; got != "debug" {
		t.Errorf("Levels()[sensor] = %q, want debug", got)
	}

	if err := SetLevel("sensor", "loud"); err == nil {
		t.Error("invalid level accepted")
	}

	// SetLevel on an unknown module creates it.
	if err := SetLevel("fresh", "error"); err != nil {
		t.Fatalf("SetLevel(fresh): %v", err)
	}
	if enabled(GetLogger("fresh"), slog.LevelWarn) {
		t.Error("fresh module should only log errors")
	}
}

func TestApply(t *testing.T) {
	reset()
	Initialize(Config{Level: "info", Modules: map[string]string{"api": "debug"}})
	api := GetLogger("api")
	cfg := GetLogger("config")

	Apply(Config{Level: "warn"})

	if enabled(api, slog.LevelDebug) {
		t.Error("api override should be gone after Apply")
	}
	if enabled(cfg, slog.LevelInfo) {
		t.Error("config should follow the new global level")
	}
	if !enabled(cfg, slog.LevelWarn) {
		t.Error("warn should still be enabled")
	}
}

func TestHistoryCapturesEntries(t *testing.T) {
	reset()
	Initialize(Config{Level: "debug"})

	var seen []LogEntry
	SetLogCallback(func(e LogEntry) { seen = append(seen, e) })

	logger := GetLogger("sensor")
	logger.Debug("set_stream", "enable", true, slog.Group("mode", "width", 1920))
	logger.Info("failed", "error", errors.New("boom"))

	entries := GetBuffer().ReadAll()
	if len(entries) != 2 {
		t.Fatalf("history has %d entries, want 2", len(entries))
	}
	first := entries[0]
	if first.Module != "sensor" || first.Level != "debug" || first.Message != "set_stream" {
		t.Errorf("first entry = %+v", first)
	}
	if first.Attributes["enable"] != true {
		t.Errorf("enable attr = %v", first.Attributes["enable"])
	}
	if first.Attributes["mode.width"] != int64(1920) {
		t.Errorf("mode.width attr = %#v", first.Attributes["mode.width"])
	}
	if entries[1].Attributes["error"] != "boom" {
		t.Errorf("error attr = %v", entries[1].Attributes["error"])
	}
	if len(seen) != 2 {
		t.Errorf("callback saw %d entries, want 2", len(seen))
	}
}

func TestMultiHandler(t *testing.T) {
	var buf bytes.Buffer
	debug := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	info := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})

	logger := slog.New(NewMultiHandler(debug, info)).With("module", "test")
	logger.Debug("debug only")
	logger.Info("both")

	out := buf.String()
	if n := strings.Count(out, "debug only"); n != 1 {
		t.Errorf("debug record written %d times, want 1", n)
	}
	if n := strings.Count(out, "both"); n != 2 {
		t.Errorf("info record written %d times, want 2", n)
	}
	if n := strings.Count(out, "module=test"); n != 3 {
		t.Errorf("module attr written %d times, want 3", n)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input  string
		want   slog.Level
		wantOK bool
	}{
		{"debug", slog.LevelDebug, true},
		{"DEBUG", slog.LevelDebug, true},
		{"info", slog.LevelInfo, true},
		{"warn", slog.LevelWarn, true},
		{"warning", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"invalid", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseLevel(tt.input)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseLevel(%q) = %v, %v; want %v, %v", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
