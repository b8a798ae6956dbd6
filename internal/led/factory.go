package led

import (
	"log/slog"
	"os"
	"path/filepath"
)

// New returns a controller for the named LED under /sys/class/leds, or a
// no-op controller when name is empty or the LED does not exist.
func New(name string, logger *slog.Logger) Controller {
	return newAt(sysfsLEDPath, name, logger)
}

func newAt(root, name string, logger *slog.Logger) Controller {
	if name == "" {
		return newNoop(logger)
	}
	if _, err := os.Stat(filepath.Join(root, name, "brightness")); err != nil {
		logger.Warn("Indicator LED not available, running without it", "led", name, "error", err)
		return newNoop(logger)
	}
	logger.Info("Using indicator LED", "led", name)
	return newSysfs(root, name)
}
