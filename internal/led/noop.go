package led

import "log/slog"

// noop is used when no indicator LED is configured or present.
type noop struct {
	logger *slog.Logger
}

func newNoop(logger *slog.Logger) *noop {
	return &noop{logger: logger}
}

func (n *noop) Name() string { return "" }

func (n *noop) Set(on bool) error {
	n.logger.Debug("No indicator LED", "on", on)
	return nil
}
