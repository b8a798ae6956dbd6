// Package logging provides slog loggers with per-module levels.
//
// Output goes to stdout when it is a terminal, pipe or file, to the systemd
// journal when journald is reachable, and always to an in-memory history
// served by the HTTP API.
//
// Initialize once at startup, then ask for a logger per module:
//
//	logging.Initialize(logging.Config{
//		Level:  "info",
//		Format: "text",
//		Modules: map[string]string{"sensor": "debug"},
//	})
//	logger := logging.GetLogger("sensor")
//	logger.Info("Device ready", "name", name)
//
// Levels can be changed later without rebuilding handlers, either for one
// module with SetLevel or for all of them with Apply:
//
//	_ = logging.SetLevel("api", "warn")
//
// Journal entries carry SYSLOG_IDENTIFIER=sensorsim and every attribute as
// an upper-case field:
//
//	journalctl -t sensorsim MODULE=sensor
//
// Example configuration:
//
//	[logging]
//	level = "info"
//	format = "text"
//
//	[logging.modules]
//	sensor = "debug"
//	http = "warn"
package logging
