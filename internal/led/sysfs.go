package led

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const sysfsLEDPath = "/sys/class/leds"

// sysfs drives an LED through /sys/class/leds/<name>.
type sysfs struct {
	dir  string
	name string
	max  string
}

func newSysfs(root, name string) *sysfs {
	s := &sysfs{dir: filepath.Join(root, name), name: name, max: "1"}
	if raw, err := os.ReadFile(filepath.Join(s.dir, "max_brightness")); err == nil {
		if v := strings.TrimSpace(string(raw)); v != "" && v != "0" {
			s.max = v
		}
	}
	return s
}

func (s *sysfs) Name() string { return s.name }

// Set clears any kernel trigger and writes the brightness.
func (s *sysfs) Set(on bool) error {
	triggerPath := filepath.Join(s.dir, "trigger")
	if _, err := os.Stat(triggerPath); err == nil {
		if err := os.WriteFile(triggerPath, []byte("none"), 0o644); err != nil {
			return fmt.Errorf("failed to clear LED trigger: %w", err)
		}
	}

	brightness := "0"
	if on {
		brightness = s.max
	}
	if err := os.WriteFile(filepath.Join(s.dir, "brightness"), []byte(brightness), 0o644); err != nil {
		return fmt.Errorf("failed to set LED %q brightness: %w", s.name, err)
	}
	return nil
}
