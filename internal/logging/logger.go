package logging

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
)

const historySize = 500

// Config is the [logging] table of the configuration file.
type Config struct {
	Level   string            `toml:"level"`
	Format  string            `toml:"format"`
	Modules map[string]string `toml:"modules"`
}

var (
	mu          sync.RWMutex
	loggers     = make(map[string]*slog.Logger)
	levels      = make(map[string]*slog.LevelVar)
	current     Config
	rootLevel   = &slog.LevelVar{}
	initialized bool
	history     *RingBuffer
	onEntry     LogCallback
)

// Initialize installs the handler chain and applies cfg to every module.
// Loggers handed out earlier are rebuilt so they gain the full chain.
func Initialize(cfg Config) {
	mu.Lock()
	defer mu.Unlock()

	current = cfg
	initialized = true
	history = NewRingBuffer(historySize)

	rootLevel.Set(globalLevel(cfg))
	for module, lv := range levels {
		lv.Set(moduleLevel(cfg, module))
		loggers[module] = slog.New(createHandler(cfg.Format, lv)).With("module", module)
	}

	slog.SetDefault(slog.New(createHandler(cfg.Format, rootLevel)))
}

// Apply retunes global and per-module levels without rebuilding handlers.
// The output format only changes through Initialize.
func Apply(cfg Config) {
	mu.Lock()
	defer mu.Unlock()

	current.Level = cfg.Level
	current.Modules = cfg.Modules
	rootLevel.Set(globalLevel(current))
	for module, lv := range levels {
		lv.Set(moduleLevel(current, module))
	}
}

// SetLevel changes the level of one module at runtime.
func SetLevel(module, level string) error {
	l, ok := ParseLevel(level)
	if !ok {
		return fmt.Errorf("invalid log level %q", level)
	}

	GetLogger(module)

	mu.Lock()
	defer mu.Unlock()
	if current.Modules == nil {
		current.Modules = make(map[string]string)
	}
	current.Modules[module] = strings.ToLower(level)
	levels[module].Set(l)
	return nil
}

// Levels returns the effective level of every known module.
func Levels() map[string]string {
	mu.RLock()
	defer mu.RUnlock()

	out := make(map[string]string, len(levels))
	for module, lv := range levels {
		out[module] = levelToString(lv.Level())
	}
	return out
}

// Modules returns the names of all modules that asked for a logger.
func Modules() []string {
	mu.RLock()
	defer mu.RUnlock()

	out := make([]string, 0, len(levels))
	for module := range levels {
		out = append(out, module)
	}
	sort.Strings(out)
	return out
}

// GetBuffer returns the in-memory log history, or nil before Initialize.
func GetBuffer() *RingBuffer {
	mu.RLock()
	defer mu.RUnlock()
	return history
}

// SetLogCallback registers fn to receive every buffered entry.
func SetLogCallback(fn LogCallback) {
	mu.Lock()
	defer mu.Unlock()
	onEntry = fn
}

// GetLogger returns the logger for module, creating it on first use.
func GetLogger(module string) *slog.Logger {
	mu.RLock()
	logger, ok := loggers[module]
	mu.RUnlock()
	if ok {
		return logger
	}

	mu.Lock()
	defer mu.Unlock()
	if logger, ok := loggers[module]; ok {
		return logger
	}

	lv := &slog.LevelVar{}
	format := "text"
	if initialized {
		lv.Set(moduleLevel(current, module))
		format = current.Format
	}

	logger = slog.New(createHandler(format, lv)).With("module", module)
	loggers[module] = logger
	levels[module] = lv
	return logger
}

func globalLevel(cfg Config) slog.Level {
	if l, ok := ParseLevel(cfg.Level); ok {
		return l
	}
	return slog.LevelInfo
}

func moduleLevel(cfg Config, module string) slog.Level {
	if s, ok := cfg.Modules[module]; ok {
		if l, ok := ParseLevel(s); ok {
			return l
		}
	}
	return globalLevel(cfg)
}

// createHandler writes to stdout and the journal when each is present, and
// always to the log history.
func createHandler(format string, level slog.Leveler) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}

	var stdout slog.Handler
	if format == "json" {
		stdout = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		stdout = slog.NewTextHandler(os.Stdout, opts)
	}

	var handlers []slog.Handler
	if isStdoutAvailable() {
		handlers = append(handlers, stdout)
	}
	if IsJournalAvailable() {
		handlers = append(handlers, NewJournalHandler(level))
	}
	handlers = append(handlers, NewBufferHandler(level))

	if len(handlers) == 1 {
		return handlers[0]
	}
	return NewMultiHandler(handlers...)
}

// isStdoutAvailable is false when stdout is closed or points at /dev/null.
func isStdoutAvailable() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	m := fi.Mode()
	return m&os.ModeCharDevice != 0 || m&os.ModeNamedPipe != 0 || m&os.ModeSocket != 0 || m.IsRegular()
}

// ParseLevel converts a level name to a slog level.
func ParseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

func levelToString(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "error"
	case level >= slog.LevelWarn:
		return "warn"
	case level >= slog.LevelInfo:
		return "info"
	default:
		return "debug"
	}
}
