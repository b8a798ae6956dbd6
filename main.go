package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/smazurov/sensorsim/cmd"
	"github.com/smazurov/sensorsim/internal/api"
	"github.com/smazurov/sensorsim/internal/config"
	"github.com/smazurov/sensorsim/internal/events"
	"github.com/smazurov/sensorsim/internal/led"
	"github.com/smazurov/sensorsim/internal/logging"
	"github.com/smazurov/sensorsim/internal/metrics"
	"github.com/smazurov/sensorsim/internal/nats"
	"github.com/smazurov/sensorsim/internal/sensor"
	"github.com/smazurov/sensorsim/internal/systemd"
	"github.com/smazurov/sensorsim/internal/version"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"config.toml"`

	// Server settings
	Port       string `help:"Port to listen on" short:"p" default:":8090" toml:"server.port" env:"SERVER_PORT"`
	CorsOrigin string `help:"Allowed CORS origin" default:"*" toml:"server.cors_origin" env:"SERVER_CORS_ORIGIN"`

	// Sensor settings
	SensorFile     string `help:"Sensor description file" default:"sensor.toml" toml:"sensor.file" env:"SENSOR_FILE"`
	SessionTimeout string `help:"Close negotiation sessions idle this long, 0 to keep them" default:"10m" toml:"sensor.session_timeout" env:"SENSOR_SESSION_TIMEOUT"`
	PrivacyLED     string `help:"LED under /sys/class/leds lit while streaming" default:"" toml:"sensor.privacy_led" env:"SENSOR_PRIVACY_LED"`

	// NATS settings
	NatsEnabled bool   `help:"Expose the sensor over NATS" default:"false" toml:"nats.enabled" env:"NATS_ENABLED"`
	NatsURL     string `help:"External NATS server, empty to run an embedded one" default:"" toml:"nats.url" env:"NATS_URL"`
	NatsPort    int    `help:"Embedded NATS broker port, 0 for any free port" default:"4222" toml:"nats.port" env:"NATS_PORT"`

	// Metrics settings
	MetricsEnabled bool `help:"Serve Prometheus metrics on /metrics" default:"true" toml:"metrics.enabled" env:"METRICS_ENABLED"`

	// Auth settings
	AuthUsername string `help:"Basic auth username" default:"admin" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Basic auth password" default:"password" toml:"auth.password" env:"AUTH_PASSWORD"`

	// Logging settings
	LoggingLevel  string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingSensor string `help:"Sensor logging level" default:"info" toml:"logging.modules.sensor" env:"LOGGING_SENSOR"`
	LoggingMedia  string `help:"Media graph logging level" default:"info" toml:"logging.modules.media" env:"LOGGING_MEDIA"`
	LoggingAPI    string `help:"API logging level" default:"info" toml:"logging.modules.api" env:"LOGGING_API"`
	LoggingHTTP   string `help:"HTTP request logging level" default:"info" toml:"logging.modules.http" env:"LOGGING_HTTP"`
}

func (o *Options) loggingConfig() logging.Config {
	return logging.Config{
		Level:  o.LoggingLevel,
		Format: o.LoggingFormat,
		Modules: map[string]string{
			"sensor": o.LoggingSensor,
			"media":  o.LoggingMedia,
			"api":    o.LoggingAPI,
			"http":   o.LoggingHTTP,
		},
	}
}

// startNATS runs the embedded server unless an external URL is configured and
// connects the bridge. Failures are logged and leave NATS disabled.
func startNATS(opts *Options, svc sensor.Service, eventBus *events.Bus) (*nats.Broker, *nats.Bridge) {
	logger := logging.GetLogger("nats")

	var broker *nats.Broker
	url := opts.NatsURL
	if url == "" {
		var err error
		broker, err = nats.StartBroker(nats.BrokerOptions{
			Device: svc.Info(context.Background()).Name,
			Port:   opts.NatsPort,
			Logger: logger,
		})
		if err != nil {
			logger.Error("Failed to start embedded NATS broker", "error", err)
			return nil, nil
		}
		url = broker.URL()
	}

	bridge := nats.NewBridge(url, svc, eventBus, logger)
	if err := bridge.Start(); err != nil {
		logger.Error("Failed to start NATS bridge", "url", url, "error", err)
		if broker != nil {
			broker.Shutdown()
		}
		return nil, nil
	}
	return broker, bridge
}

func main() {
	var cli humacli.CLI
	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		logging.Initialize(opts.loggingConfig())
		logger := logging.GetLogger("main")

		notifier := systemd.NewNotifier(logging.GetLogger("systemd"), nil)
		var (
			svc     sensor.Service
			server  *api.Server
			watcher *config.Watcher[logging.Config]
			leds    *led.Manager
			unsub   func()
			broker  *nats.Broker
			bridge  *nats.Bridge
		)

		hooks.OnStart(func() {
			logger.Info("Starting", "version", version.Get().String())

			sessionTTL, err := time.ParseDuration(opts.SessionTimeout)
			if err != nil {
				logger.Warn("Invalid session timeout, sessions will not expire", "value", opts.SessionTimeout, "error", err)
				sessionTTL = 0
			}

			eventBus := events.New()
			registry := prometheus.NewRegistry()
			registry.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)

			sensorOpts, err := cmd.LoadSensorOptions(opts.SensorFile)
			if err != nil {
				logger.Error("Failed to load sensor description", "file", opts.SensorFile, "error", err)
				os.Exit(1)
			}
			sensorOpts.SessionTTL = sessionTTL
			sensorOpts.EventBus = eventBus
			sensorOpts.Metrics = metrics.NewSensor(registry)

			svc, err = sensor.NewService(sensorOpts)
			if err != nil {
				logger.Error("Failed to probe sensor", "error", err)
				os.Exit(1)
			}

			apiOpts := &api.Options{
				AuthUsername: opts.AuthUsername,
				AuthPassword: opts.AuthPassword,
				CORSOrigin:   opts.CorsOrigin,
				Sensor:       svc,
				EventBus:     eventBus,
			}
			if opts.MetricsEnabled {
				apiOpts.PrometheusHandler = metrics.Handler(registry)
			}
			server = api.NewServer(apiOpts)

			if opts.NatsEnabled {
				broker, bridge = startNATS(opts, svc, eventBus)
			}

			leds = led.NewManager(led.New(opts.PrivacyLED, logging.GetLogger("led")), eventBus, logging.GetLogger("led"))
			leds.Start()

			unsub = eventBus.Subscribe(func(e events.StreamStateChangedEvent) {
				if e.Streaming {
					notifier.Status("streaming")
					return
				}
				notifier.Status("idle")
			})

			// Level changes in the config file apply without a restart.
			watcher = config.NewConfigWatcher(opts.Config, config.ReadLoggingConfig, logging.GetLogger("config"))
			watcher.OnReload(func(cfg logging.Config) {
				logging.Apply(cfg)
				logger.Info("Logging configuration reloaded", "level", cfg.Level)
			})
			if startErr := watcher.Start(); startErr != nil {
				logger.Warn("Config watcher not started", "error", startErr)
				watcher = nil
			}

			logger.Info("Starting HTTP server", "port", opts.Port)
			notifier.Ready()
			notifier.Status("idle")
			if startErr := server.Start(opts.Port); startErr != nil && !errors.Is(startErr, http.ErrServerClosed) {
				logger.Error("Failed to start HTTP server", "error", startErr)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down server")
			notifier.Stopping()
			if unsub != nil {
				unsub()
			}
			if watcher != nil {
				if stopErr := watcher.Stop(); stopErr != nil {
					logger.Warn("Error stopping config watcher", "error", stopErr)
				}
			}
			if server != nil {
				if stopErr := server.Stop(); stopErr != nil {
					logger.Error("Error stopping HTTP server", "error", stopErr)
				}
			}
			if bridge != nil {
				bridge.Stop()
			}
			if broker != nil {
				broker.Shutdown()
			}
			// The device goes last so no request sees it torn down.
			if svc != nil {
				svc.Close()
			}
			if leds != nil {
				leds.Stop()
			}
		})
	})

	cli.Root().Use = "sensorsim"
	cli.Root().Short = "Virtual camera sensor sub-device"

	cli.Root().AddCommand(cmd.CreateModesCmd())
	cli.Root().AddCommand(cmd.CreateProbeCmd())
	cli.Root().AddCommand(cmd.CreateVersionCmd())

	cli.Run()
}
